package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"motelbook/internal/app/handlers/support"
	"motelbook/internal/app/services/auth"
	domainauth "motelbook/internal/domain/auth"
	domainuser "motelbook/internal/domain/user"
)

const principalContextKey = "motelbook.principal"

type principal struct {
	User  *domainuser.User
	Token string
}

func (p principal) Actor() support.Actor {
	if p.User == nil {
		return support.Actor{}
	}
	return support.Actor{UserID: p.User.ID, Role: p.User.Role}
}

// AuthMiddleware resolves the bearer token into a principal. Requests without
// a valid token pass through anonymously; handlers decide whether that is enough.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Set(principalContextKey, principal{User: resolved.User, Token: token})
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok && p.User != nil
}

// requireActor aborts with 401 when the request carries no session, and with
// 403 when adminOnly is set and the caller is not an admin.
func requireActor(c *gin.Context, adminOnly bool) (support.Actor, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return support.Actor{}, false
	}
	actor := p.Actor()
	if adminOnly && !actor.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return support.Actor{}, false
	}
	return actor, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
