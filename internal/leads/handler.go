package leads

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/analyses"
	"filmdecks-backend/internal/shared/server/middleware"
	"filmdecks-backend/internal/shared/server/respond"
	"filmdecks-backend/internal/shared/validate"
)

const maxQuestionnaireBytes = 128 << 10

// Handler wires HTTP handlers to the leads service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches public lead routes to the /api group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/questionnaire", h.capture)
	rg.GET("/questionnaire", h.health)
	rg.POST("/leads/update-status", h.updateStatus)
}

// RegisterAdminRoutes attaches lead routes to a group already gated to admins.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.list)
}

func (h *Handler) capture(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxQuestionnaireBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Failure(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		respond.Failure(c, http.StatusBadRequest, "Validation failed", validate.Field("body", "unreadable", "Request body could not be read").Fields)
		return
	}
	var q Questionnaire
	if err := validate.DecodeJSON(body, &q); err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			respond.Failure(c, http.StatusBadRequest, "Validation failed", verr.Fields)
			return
		}
		respond.Failure(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	ctx := analyses.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	lead, teaser, err := h.Svc.Capture(ctx, q)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			respond.Failure(c, http.StatusBadRequest, "Validation failed", verr.Fields)
			return
		}
		respond.Failure(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	c.Set("leadId", lead.ID)
	respond.Created(c, gin.H{
		"success":     true,
		"leadId":      lead.ID,
		"teaserScore": teaser,
		"message":     "Your story has been submitted successfully!",
	})
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, gin.H{
		"status":  "ok",
		"message": "Questionnaire API is ready",
	})
}

type updateStatusRequest struct {
	LeadID string `json:"leadId"`
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Failure(c, http.StatusBadRequest, "Invalid lead ID", nil)
		return
	}
	c.Set("leadId", req.LeadID)

	lead, err := h.Svc.UpdateStatus(c.Request.Context(), middleware.PrincipalFromContext(c), req.LeadID, req.Status)
	if err != nil {
		var verr *validate.Error
		switch {
		case errors.Is(err, ErrUnauthorized):
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			respond.Failure(c, http.StatusUnauthorized, "Unauthorized", nil)
		case errors.Is(err, ErrForbidden):
			respond.Failure(c, http.StatusForbidden, "Forbidden", nil)
		case errors.As(err, &verr) && verr.Has("leadId"):
			respond.Failure(c, http.StatusBadRequest, "Invalid lead ID", nil)
		case errors.As(err, &verr):
			respond.Failure(c, http.StatusBadRequest, "Invalid status. Must be one of: "+strings.Join(Statuses, ", "), nil)
		case errors.Is(err, ErrNotFound):
			respond.Failure(c, http.StatusNotFound, "Lead not found", nil)
		default:
			respond.Failure(c, http.StatusInternalServerError, "Internal server error", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"lead": gin.H{
			"id":     lead.ID,
			"status": lead.Status,
		},
	})
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, offset = clampPage(limit, offset)

	items, err := h.Svc.List(c.Request.Context(), strings.TrimSpace(c.Query("status")), limit, offset)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid status filter", verr.Fields)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list leads", nil)
		return
	}
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}
