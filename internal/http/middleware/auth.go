package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/services"
)

const (
	currentUserKey = "currentUser"

	// SessionCookie is the name of the signed session cookie.
	SessionCookie = "jwt"
)

// Protect authenticates the request: token from the Authorization header
// or the session cookie, verified and resolved to a live user. Failures
// abort into the central responder with 401.
func Protect(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			AbortWith(c, domain.NewUnauthorized(""))
			return
		}
		user, err := auth.ResolveUser(c.Request.Context(), token)
		if err != nil {
			AbortWith(c, err)
			return
		}
		SetCurrentUser(c, user)
		c.Next()
	}
}

// RequireRoles gates a route on the resolved user's role. It must run
// after Protect; a missing user here means the guard chain is broken and
// reads as 401, not 403.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			AbortWith(c, domain.NewUnauthorized(""))
			return
		}
		if _, ok := allowed[strings.ToLower(user.Role)]; !ok {
			AbortWith(c, domain.NewForbidden(""))
			return
		}
		c.Next()
	}
}

// SetCurrentUser attaches the resolved user to the request context.
func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the authenticated user attached by Protect.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// AbortWith funnels an error into the central responder and stops the
// chain.
func AbortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
