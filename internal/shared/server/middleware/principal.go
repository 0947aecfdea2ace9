package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/server/respond"
)

const principalKey = "principal"

// TokenVerifier resolves a bearer token to a principal.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// CredentialChecker validates Basic credentials.
type CredentialChecker interface {
	Check(user, password string) bool
}

// Principal resolves the caller once per request from a Bearer token or admin
// Basic credentials. Anything else, including a bad token, is anonymous; routes
// that need a role reject it through RequireRole.
func Principal(tokens TokenVerifier, creds CredentialChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, resolvePrincipal(c.Request, tokens, creds))
		c.Next()
	}
}

func resolvePrincipal(r *http.Request, tokens TokenVerifier, creds CredentialChecker) auth.Principal {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	switch {
	case header == "":
		return auth.Anonymous()
	case strings.HasPrefix(header, "Bearer "):
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || tokens == nil {
			return auth.Anonymous()
		}
		p, err := tokens.Verify(token)
		if err != nil {
			return auth.Anonymous()
		}
		return p
	default:
		user, password, ok := r.BasicAuth()
		if !ok || creds == nil || !creds.Check(user, password) {
			return auth.Anonymous()
		}
		return auth.Principal{Role: auth.RoleAdmin, ID: auth.AdminUser}
	}
}

// PrincipalFromContext returns the principal stored by Principal, or anonymous.
func PrincipalFromContext(c *gin.Context) auth.Principal {
	if c == nil {
		return auth.Anonymous()
	}
	val, _ := c.Get(principalKey)
	if p, ok := val.(auth.Principal); ok {
		return p
	}
	return auth.Anonymous()
}

// RequireRole rejects anonymous callers with 401 and other roles with 403.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFromContext(c)
		if p.IsAnonymous() {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials", nil)
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
	}
}
