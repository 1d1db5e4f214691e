package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoffination/open-social-server/internal/model"
	"github.com/hoffination/open-social-server/internal/pkg"
)

// ContextUserKey is where the authenticated user id lands on the gin context.
const ContextUserKey = "userID"

type SessionChecker interface {
	CheckToken(ctx context.Context, userID, token string) (bool, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

func authFail(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": message,
		"type":    pkg.AUTH,
	})
	c.Abort()
}

// AuthMiddleware validates the bearer token, checks it is still the user's
// live session and rejects banned accounts.
func AuthMiddleware(tokens *pkg.TokenMaker, sessions SessionChecker, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			authFail(c, "missing credentials")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.ParseAccess(token)
		if err != nil {
			authFail(c, "invalid or expired token")
			return
		}
		ok, err := sessions.CheckToken(c.Request.Context(), claims.UserID, token)
		if err != nil || !ok {
			authFail(c, "session expired")
			return
		}
		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			authFail(c, "unknown user")
			return
		}
		if user.Banned {
			authFail(c, "account suspended")
			return
		}
		c.Set(ContextUserKey, claims.UserID)
		c.Next()
	}
}

// UserID pulls the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserKey)
}
