package dto

import "github.com/mirachat/mira/internal/models"

type SigninRequest struct {
	AccountType models.AccountType `json:"accountType" binding:"required,oneof=email phone"`
	SigninType  string             `json:"signinType" binding:"required,oneof=password authCode"`
	Account     string             `json:"account" binding:"required"`
	// password or auth code, depending on signinType
	Code string `json:"code" binding:"required"`
}

type CreateAuthCodeRequest struct {
	Account     string             `json:"account" binding:"required"`
	AccountType models.AccountType `json:"accountType" binding:"required,oneof=email phone"`
	Purpose     models.CodePurpose `json:"purpose"`
}
