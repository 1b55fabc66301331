package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/response"
	"github.com/mirachat/mira/pkg/auth"
)

const PrincipalKey = "principal"

// AuthMiddleware validates the bearer token and binds a fully resolved
// Principal (roles and groups loaded) to the request context. Every core
// operation downstream takes that principal explicitly.
func AuthMiddleware(jwtManager *auth.JWTManager, db *database.Database, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			response.Fail(c, apperrors.Unauthenticated("missing or invalid token"))
			c.Abort()
			return
		}

		// fails closed: if the blacklist cannot be checked the token is
		// treated as revoked
		exists, err := redisClient.Exists(context.Background(), "blacklist:"+token).Result()
		if err != nil || exists > 0 {
			response.Fail(c, apperrors.Unauthenticated("token is no longer valid"))
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			response.Fail(c, apperrors.Unauthenticated("invalid token"))
			c.Abort()
			return
		}

		user, err := db.GetUser(claims.ID, models.UserQueryOpts{WithRoles: true, WithGroups: true})
		if err != nil {
			response.Fail(c, apperrors.Unauthenticated("user no longer exists"))
			c.Abort()
			return
		}

		c.Set(PrincipalKey, models.NewPrincipal(user))
		c.Next()
	}
}

// Principal fetches the bound principal; only valid behind AuthMiddleware.
func Principal(c *gin.Context) models.Principal {
	return c.MustGet(PrincipalKey).(models.Principal)
}

// RequireAdmin guards admin-only routes. Runs behind AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Principal(c).Admin {
			response.Fail(c, apperrors.Forbidden("admin only"))
			c.Abort()
			return
		}
		c.Next()
	}
}
