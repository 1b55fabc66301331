package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers/dto"
	"github.com/mirachat/mira/internal/response"
)

type AuthCodeHandler struct {
	db *database.Database
}

func NewAuthCodeHandler(db *database.Database) *AuthCodeHandler {
	return &AuthCodeHandler{db: db}
}

// Create issues a fresh signin code for an account. There is no SMS or
// mail delivery channel, so the code is returned in the response body.
func (h *AuthCodeHandler) Create(c *gin.Context) {
	var req dto.CreateAuthCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	code, err := h.db.IssueAuthCode(req.Account, req.AccountType, req.Purpose)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, code)
}
