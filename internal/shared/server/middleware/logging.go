package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		principal := PrincipalFromContext(c)
		analysisID, _ := c.Get("analysisId")
		leadID, _ := c.Get("leadId")

		telemetry.Info("request.complete", map[string]any{
			"request_id":     RequestIDFromContext(c),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"route":          c.FullPath(),
			"status":         c.Writer.Status(),
			"duration_ms":    float64(time.Since(start).Microseconds()) / 1000.0,
			"principal_role": string(principal.Role),
			"principal_id":   principal.ID,
			"analysis_id":    analysisID,
			"lead_id":        leadID,
			"client_ip":      c.ClientIP(),
			"user_agent":     c.Request.UserAgent(),
		})
	}
}
