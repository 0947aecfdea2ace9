package analyses

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/server/middleware"
	"filmdecks-backend/internal/shared/server/respond"
	"filmdecks-backend/internal/shared/telemetry"
	"filmdecks-backend/internal/shared/validate"
)

const (
	maxSubmitBodyBytes   = 256 << 10
	defaultSubmitTimeout = 90 * time.Second
	maxReviewNoteRunes   = 2000
)

// ProviderLister is implemented by gateways that can report their ranked providers.
type ProviderLister interface {
	Names() []string
}

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc           *Service
	SubmitTimeout time.Duration
	Now           func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, SubmitTimeout: defaultSubmitTimeout, Now: time.Now}
}

// RegisterRoutes attaches the public analysis routes to the /api group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai-analysis", h.submit)
	rg.GET("/ai-analysis", h.preview)
	rg.GET("/ai-analysis/health", h.health)
	rg.GET("/ai-analysis/providers", middleware.RequireRole(auth.RoleAdmin), h.providers)
}

// RegisterAdminRoutes attaches review routes to a group already gated to admins.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses", h.list)
	rg.POST("/analyses/:id/review", h.review)
}

type analysisBody struct {
	OverallScore        int         `json:"overallScore"`
	Breakdown           interface{} `json:"breakdown"`
	Message             string      `json:"message"`
	RequiresContactInfo bool        `json:"requiresContactInfo"`
	AnalysisID          string      `json:"analysisId"`
}

type previewBody struct {
	ID                  string      `json:"id"`
	Status              string      `json:"status,omitempty"`
	OverallScore        *int        `json:"overallScore,omitempty"`
	Breakdown           interface{} `json:"breakdown,omitempty"`
	Message             string      `json:"message"`
	RequiresContactInfo bool        `json:"requiresContactInfo"`
}

func (h *Handler) submit(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmitBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Failure(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		respond.Failure(c, http.StatusBadRequest, "Validation failed", validate.Field("body", "unreadable", "Request body could not be read").Fields)
		return
	}
	req, err := DecodeRequest(body)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Failure(c, http.StatusBadRequest, "Validation failed", verr.Fields)
			return
		}
		respond.Failure(c, http.StatusInternalServerError, "Internal server error during analysis", nil)
		return
	}

	ctx, cancel := h.submitContext(c)
	defer cancel()

	sub, err := h.Svc.Submit(ctx, req)
	if err != nil {
		var verr *ValidationError
		var perr *ProviderError
		switch {
		case errors.As(err, &verr):
			respond.Failure(c, http.StatusBadRequest, "Validation failed", verr.Fields)
		case errors.As(err, &perr):
			c.Set("analysisId", perr.AnalysisID)
			respond.Failure(c, http.StatusInternalServerError, "Internal server error during analysis", nil)
		default:
			telemetry.Error("analysis.submit_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"error":      err,
			})
			respond.Failure(c, http.StatusInternalServerError, "Internal server error during analysis", nil)
		}
		return
	}

	c.Set("analysisId", sub.AnalysisID)
	respond.OK(c, gin.H{
		"success": true,
		"analysis": analysisBody{
			OverallScore:        sub.Basic.OverallScore,
			Breakdown:           sub.Basic.Breakdown,
			Message:             sub.Disclosure.Message(),
			RequiresContactInfo: sub.Disclosure.RequiresContactInfo(),
			AnalysisID:          sub.AnalysisID,
		},
	})
}

// submitContext outlives a disconnecting client but not the submit timeout.
func (h *Handler) submitContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	ctx := context.WithoutCancel(c.Request.Context())
	ctx = WithRequestID(ctx, middleware.RequestIDFromContext(c))
	return context.WithTimeout(ctx, timeout)
}

func (h *Handler) preview(c *gin.Context) {
	analysisID := strings.TrimSpace(c.Query("id"))
	if analysisID == "" {
		respond.Failure(c, http.StatusBadRequest, "Analysis ID is required", nil)
		return
	}
	c.Set("analysisId", analysisID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	p, err := h.Svc.Preview(ctx, analysisID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Failure(c, http.StatusNotFound, "Analysis not found", nil)
			return
		}
		telemetry.Error("analysis.preview_failed", map[string]any{
			"analysis_id": analysisID,
			"request_id":  middleware.RequestIDFromContext(c),
			"error":       err,
		})
		respond.Failure(c, http.StatusInternalServerError, "Failed to retrieve analysis", nil)
		return
	}

	if p.State == PreviewPending {
		respond.Accepted(c, gin.H{
			"success": true,
			"analysis": previewBody{
				ID:                  p.ID,
				Status:              StatusPending,
				Message:             MessagePending,
				RequiresContactInfo: p.RequiresContactInfo,
			},
		})
		return
	}

	score := p.Basic.OverallScore
	respond.OK(c, gin.H{
		"success": true,
		"analysis": previewBody{
			ID:                  p.ID,
			OverallScore:        &score,
			Breakdown:           p.Basic.Breakdown,
			Message:             MessagePreview,
			RequiresContactInfo: p.RequiresContactInfo,
		},
	})
}

func (h *Handler) health(c *gin.Context) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	respond.OK(c, gin.H{
		"status":    "ok",
		"message":   "AI Analysis API is ready",
		"timestamp": now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) providers(c *gin.Context) {
	names := []string{}
	if lister, ok := h.Svc.Provider.(ProviderLister); ok {
		names = lister.Names()
	}
	respond.OK(c, gin.H{"providers": names})
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	limit, offset = clampPage(limit, offset)

	records, err := h.Svc.ListByStatus(c.Request.Context(), strings.TrimSpace(c.Query("status")), limit, offset)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid status filter", verr.Fields)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	respond.OK(c, gin.H{
		"items":  records,
		"limit":  limit,
		"offset": offset,
	})
}

type reviewRequest struct {
	Note string `json:"note"`
}

func (h *Handler) review(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set("analysisId", analysisID)

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	note := strings.TrimSpace(req.Note)
	if len([]rune(note)) > maxReviewNoteRunes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "note is too long", []FieldError{{
			Field:   "note",
			Issue:   "too_big",
			Message: "note must be at most " + strconv.Itoa(maxReviewNoteRunes) + " characters",
		}})
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.MarkReviewed(ctx, analysisID, note)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrNotScored):
			respond.Error(c, http.StatusConflict, "not_scored", "analysis has not been scored yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to mark analysis reviewed", nil)
		}
		return
	}
	respond.OK(c, rec)
}
