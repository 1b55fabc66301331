package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers/dto"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/response"
	"github.com/mirachat/mira/pkg/auth"
)

type AuthHandler struct {
	db         *database.Database
	jwtManager *auth.JWTManager
	redis      *redis.Client
}

func NewAuthHandler(db *database.Database, jwtMgr *auth.JWTManager, rdb *redis.Client) *AuthHandler {
	return &AuthHandler{db: db, jwtManager: jwtMgr, redis: rdb}
}

// Signin resolves the account, checks the credential (password or auth
// code) and issues a token. Auth-code sign-in doubles as signup: an
// unknown account with a valid code gets registered on the spot.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req dto.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	if !database.ValidAccount(req.AccountType, req.Account) {
		response.Fail(c, apperrors.Validation("malformed "+string(req.AccountType)))
		return
	}

	opts := models.UserQueryOpts{WithRoles: true, WithGroups: true, WithOwnGroups: true}
	user, findErr := h.db.FindUserByAccount(req.AccountType, req.Account, opts)

	switch req.SigninType {
	case "password":
		if findErr != nil || !h.db.VerifyPassword(req.Code, user.Password) {
			response.Fail(c, apperrors.Unauthenticated("wrong account or password"))
			return
		}

	case "authCode":
		ok, err := h.db.VerifyAuthCode(req.Account, req.Code, models.CodePurposeSignin)
		if err != nil {
			response.Fail(c, err)
			return
		}
		if !ok {
			response.Fail(c, apperrors.Unauthenticated("wrong account or code"))
			return
		}
		if findErr != nil {
			// the code proved ownership of the account; register it
			user, err = h.db.CreateUser(database.CreateUserParams{
				Nickname:    req.Account,
				Password:    models.RandomID(),
				AccountType: req.AccountType,
				Account:     req.Account,
			})
			if err != nil {
				response.Fail(c, err)
				return
			}
		}

	default:
		response.Fail(c, apperrors.Validation("unknown signin type"))
		return
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	token, err := h.jwtManager.Generate(user.ID, user.Nickname, email)
	if err != nil {
		response.Fail(c, apperrors.Unknown(err))
		return
	}

	response.OK(c, dto.NewUserRO(user, token))
}

// Logout blacklists the token in redis until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		response.Fail(c, apperrors.Unauthenticated("invalid token"))
		return
	}

	ttl := time.Until(exp)
	if ttl > 0 {
		h.redis.Set(context.Background(), "blacklist:"+rawToken, 1, ttl)
	}

	response.OK(c, nil)
}
