package models

import (
	"time"

	"gorm.io/gorm"
)

type CodePurpose string

const CodePurposeSignin CodePurpose = "signin"

// AuthCode is an ephemeral verification code. Rows are never deleted;
// validity is a pure function of CreatedAt at verification time.
type AuthCode struct {
	ID          string      `gorm:"primaryKey" json:"id"`
	Account     string      `gorm:"not null;index:idx_auth_codes_lookup" json:"account"`
	Code        string      `gorm:"not null" json:"code"`
	AccountType AccountType `gorm:"not null" json:"accountType"`
	Purpose     CodePurpose `gorm:"not null;index:idx_auth_codes_lookup" json:"purpose"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (a *AuthCode) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = TimePrefixedID()
	}
	return nil
}
