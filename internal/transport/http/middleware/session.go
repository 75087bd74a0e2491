package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/model"
	"vidhub/internal/transport/http/response"
)

const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"

	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RequireSession resolves the caller through the session guard and stores the
// user on the context. The cookie is checked before the Authorization header.
func RequireSession(guard *app.SessionGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := guard.Resolve(c.Request.Context(), accessToken(c))
		if err != nil {
			response.Abort(c, err)
			return
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// CurrentUser returns the user set by RequireSession.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
