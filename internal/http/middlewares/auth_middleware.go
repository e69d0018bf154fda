package middlewares

import (
	"context"

	"github.com/geocoder89/noteflow/internal/actorctx"
	"github.com/geocoder89/noteflow/internal/auth"
	"github.com/geocoder89/noteflow/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (auth.Identity, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(a Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// RequireAuth resolves the bearer token into an Identity and attaches it to
// the request context, the one place handlers and loggers read it from.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))

		if err != nil {
			handlers.RespondAppError(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	return actorctx.UserIDFrom(c.Request.Context())
}
