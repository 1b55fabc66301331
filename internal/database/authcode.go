package database

import (
	"errors"
	"math/rand"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/models"
)

// validity window for a code, measured from its creation
const authCodeTTL = 60 * time.Second

// IssueAuthCode generates and persists a 4-digit code for the account.
// Dispatching it over SMS/email is a collaborator concern; the code is
// returned to the caller.
func (d *Database) IssueAuthCode(account string, accountType models.AccountType, purpose models.CodePurpose) (string, error) {
	if !ValidAccount(accountType, account) {
		return "", apperrors.Validation("malformed " + string(accountType))
	}
	if purpose == "" {
		purpose = models.CodePurposeSignin
	}

	code := &models.AuthCode{
		Account:     account,
		Code:        strconv.Itoa(rand.Intn(9000) + 1000),
		AccountType: accountType,
		Purpose:     purpose,
	}
	if err := d.db.Create(code).Error; err != nil {
		return "", apperrors.Persistence("failed to issue auth code", err)
	}
	return code.Code, nil
}

// VerifyAuthCode accepts the candidate iff it equals the most recently
// issued code for (account, purpose) created within the last 60 seconds.
// Codes are not invalidated on use: every request inside the window sees
// the same answer. That replay window is a known, accepted tradeoff.
func (d *Database) VerifyAuthCode(account, candidate string, purpose models.CodePurpose) (bool, error) {
	now := time.Now()
	var code models.AuthCode
	err := d.db.
		Where("account = ? AND purpose = ?", account, purpose).
		Where("created_at BETWEEN ? AND ?", now.Add(-authCodeTTL), now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.Persistence("auth code lookup failed", err)
	}
	return code.Code == candidate, nil
}
