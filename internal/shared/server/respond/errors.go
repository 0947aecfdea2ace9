package respond

import (
	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// FailureResponse is the `{success:false, error}` shape used by the public
// analysis, questionnaire, lead and upload endpoints.
type FailureResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	logFailure(c, status, code, message)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Failure sends a `{success:false}` error response.
func Failure(c *gin.Context, status int, message string, details interface{}) {
	logFailure(c, status, "", message)
	c.AbortWithStatusJSON(status, FailureResponse{
		Success: false,
		Error:   message,
		Details: details,
	})
}

func logFailure(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if code != "" {
		fields["code"] = code
	}
	if raw, ok := c.Get("principal"); ok {
		if p, ok := raw.(auth.Principal); ok && !p.IsAnonymous() {
			fields["principal_id"] = p.ID
			fields["principal_role"] = string(p.Role)
		}
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
		return
	}
	telemetry.Warn("http.error", fields)
}
