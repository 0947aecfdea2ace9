package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sharedauth "filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/server/respond"
	"filmdecks-backend/internal/shared/telemetry"
)

// CredentialChecker validates the shared admin password.
type CredentialChecker interface {
	Check(user, password string) bool
}

// LoginHandler trades admin Basic credentials for a dashboard token.
type LoginHandler struct {
	Creds  CredentialChecker
	Issuer TokenIssuer
}

// NewLoginHandler constructs a LoginHandler.
func NewLoginHandler(creds CredentialChecker, issuer TokenIssuer) *LoginHandler {
	return &LoginHandler{Creds: creds, Issuer: issuer}
}

// RegisterRoutes attaches the login route to the /api group.
func (h *LoginHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/login", h.login)
}

func (h *LoginHandler) login(c *gin.Context) {
	user, password, ok := c.Request.BasicAuth()
	if !ok || h.Creds == nil || !h.Creds.Check(user, password) {
		c.Header("WWW-Authenticate", `Basic realm="admin"`)
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid admin credentials", nil)
		return
	}

	token, err := h.Issuer.Sign(sharedauth.Principal{Role: sharedauth.RoleAdmin, ID: sharedauth.AdminUser}, "", sharedauth.AdminUser)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	telemetry.Info("auth.admin.login", map[string]any{"request_id": c.GetString("requestId")})
	respond.OK(c, gin.H{
		"token":     token,
		"expiresIn": int(sharedauth.TokenTTL.Seconds()),
	})
}
