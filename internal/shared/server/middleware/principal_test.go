package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/auth"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (auth.Principal, error) {
	switch token {
	case "good":
		return auth.Principal{Role: auth.RoleViewer, ID: "u-1"}, nil
	case "admin":
		return auth.Principal{Role: auth.RoleAdmin, ID: "u-2"}, nil
	}
	return auth.Principal{}, errors.New("bad token")
}

type stubCreds struct{}

func (stubCreds) Check(user, password string) bool {
	return user == "admin" && password == "letmein"
}

func newPrincipalRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Principal(stubVerifier{}, stubCreds{}))
	r.GET("/whoami", func(c *gin.Context) {
		p := PrincipalFromContext(c)
		c.JSON(http.StatusOK, gin.H{"role": p.Role, "id": p.ID})
	})
	r.GET("/admin", RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestPrincipalResolution(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*http.Request)
		wantCode int
	}{
		{name: "anonymous", setup: func(*http.Request) {}, wantCode: http.StatusUnauthorized},
		{name: "bad bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, wantCode: http.StatusUnauthorized},
		{name: "viewer bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, wantCode: http.StatusForbidden},
		{name: "admin bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin") }, wantCode: http.StatusOK},
		{name: "admin basic", setup: func(r *http.Request) { r.SetBasicAuth("admin", "letmein") }, wantCode: http.StatusOK},
		{name: "wrong basic", setup: func(r *http.Request) { r.SetBasicAuth("admin", "guess") }, wantCode: http.StatusUnauthorized},
	}

	router := newPrincipalRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			tt.setup(req)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestPrincipalDefaultsToAnonymousOnPublicRoutes(t *testing.T) {
	router := newPrincipalRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer expired")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected public route to pass, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != `{"id":"","role":"anonymous"}` {
		t.Fatalf("unexpected body %s", got)
	}
}
