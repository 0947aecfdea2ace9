package uploads

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filmdecks-backend/internal/shared/server/middleware"
	"filmdecks-backend/internal/shared/server/respond"
	"filmdecks-backend/internal/shared/telemetry"
)

const maxUploadBytes = 10 << 20 // 10MB

// Handler wires the upload endpoint to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to the /api group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	// multipart framing needs a little room on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+(64<<10))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Failure(c, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB", nil)
			return
		}
		respond.Failure(c, http.StatusBadRequest, "No file provided", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		respond.Failure(c, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 10MB", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Failure(c, http.StatusBadRequest, "Unable to read file", nil)
		return
	}
	defer file.Close()

	contentType := strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
	up, err := h.Svc.Upload(c.Request.Context(), c.ClientIP(), fileHeader.Filename, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Failure(c, http.StatusBadRequest, "Invalid file", nil)
		case errors.Is(err, ErrUnsupported):
			respond.Failure(c, http.StatusBadRequest, "Unsupported file type. Please upload a PDF, DOCX or TXT file", nil)
		default:
			telemetry.Error("upload.failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"file_name":  fileHeader.Filename,
				"error":      err,
			})
			respond.Failure(c, http.StatusInternalServerError, "Failed to process file", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"data":    up,
	})
}
