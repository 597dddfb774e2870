// middleware/token_auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	wderrors "github.com/smplabs/warden/errors"
	"github.com/smplabs/warden/service"
	"github.com/smplabs/warden/util"
)

// TokenAuth validates the bearer token on every request and stores the
// resolved user id in the request context. Requests without a valid token
// are rejected before reaching the handler.
func TokenAuth(authSvc service.IAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.BearerToken(c)
		if token == "" {
			util.RespondWithError(c, http.StatusUnauthorized, "Missing bearer token", wderrors.ErrUnauthorized)
			c.Abort()
			return
		}

		result := authSvc.ValidateToken(c, token)
		if !result.Valid {
			util.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token", wderrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set("userID", result.UserID)
		c.Next()
	}
}
