package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/config"
	"filmdecks-backend/internal/shared/telemetry"
)

type stubRoutes struct{}

func (stubRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai-analysis", func(c *gin.Context) { c.Status(http.StatusOK) })
	rg.GET("/ai-analysis", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func (stubRoutes) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses", func(c *gin.Context) { c.Status(http.StatusOK) })
}

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (auth.Principal, error) {
	if token == "admin-token" {
		return auth.Principal{Role: auth.RoleAdmin, ID: "admin"}, nil
	}
	return auth.Principal{}, auth.ErrInvalidToken
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	restore := telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(restore)
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Config:   config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:3000"}},
		Tokens:   stubVerifier{},
		Analyses: stubRoutes{},
	})
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRouterThrottlesSubmissions(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 5; i++ {
		if resp := serve(r, http.MethodPost, "/api/ai-analysis", ""); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.Code)
		}
	}
	resp := serve(r, http.MethodPost, "/api/ai-analysis", "")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	// reads without an id fall outside every group
	if resp := serve(r, http.MethodGet, "/api/ai-analysis", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected ungrouped GET to pass, got %d", resp.Code)
	}
}

func TestRouterGatesAdminRoutes(t *testing.T) {
	r := newTestRouter(t)
	if resp := serve(r, http.MethodGet, "/api/admin/analyses", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/api/admin/analyses", "admin-token"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	r := newTestRouter(t)
	resp := serve(r, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "analysis_submitted_total") {
		t.Fatalf("unexpected metrics response %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRateGroupFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		method, target, want string
	}{
		{http.MethodPost, "/api/ai-analysis", "ANALYSIS"},
		{http.MethodPost, "/api/questionnaire", "ANALYSIS"},
		{http.MethodGet, "/api/ai-analysis?id=abc", "POLLING"},
		{http.MethodGet, "/api/ai-analysis/health", ""},
		{http.MethodGet, "/api/admin/leads", ""},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(tc.method, tc.target, nil)
		if got := RateGroupFor(c); got != tc.want {
			t.Fatalf("%s %s: got %q, want %q", tc.method, tc.target, got, tc.want)
		}
	}
}

func TestAddr(t *testing.T) {
	if Addr("") != ":8080" || Addr("9000") != ":9000" || Addr(":7000") != ":7000" {
		t.Fatalf("unexpected Addr normalization")
	}
}
