package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"filmdecks-backend/internal/extract"
	"filmdecks-backend/internal/shared/metrics"
	"filmdecks-backend/internal/shared/storage/object"
	"filmdecks-backend/internal/shared/telemetry"
	"filmdecks-backend/internal/shared/util"
)

// MaxExtractedRunes caps the text handed back for analysis.
const MaxExtractedRunes = 15000

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = extract.ErrUnsupported
)

// Upload is a stored file with its extracted text.
type Upload struct {
	StorageKey    string `json:"storageKey"`
	FileName      string `json:"fileName"`
	SizeBytes     int64  `json:"sizeBytes"`
	MimeType      string `json:"mimeType"`
	ExtractedText string `json:"extractedText"`
	Truncated     bool   `json:"truncated"`
}

// Service stores uploads and extracts their text.
type Service struct {
	Store object.ObjectStore
}

// NewService constructs a Service.
func NewService(store object.ObjectStore) *Service {
	return &Service{Store: store}
}

// Upload stores r under scope and extracts text from the stored copy.
// contentType is the type declared by the client and may be empty.
func (s *Service) Upload(ctx context.Context, scope, fileName, contentType string, r io.Reader) (Upload, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	obj, err := s.Store.Save(ctx, scope, name, r)
	if err != nil {
		return Upload{}, fmt.Errorf("save upload: %w", err)
	}
	if obj.SizeBytes == 0 {
		s.discard(ctx, obj.Key)
		return Upload{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	declared := contentType
	if declared == "" || declared == "application/octet-stream" {
		declared = obj.MimeType
	}
	doc, err := extract.FromStore(ctx, s.Store, obj.Key, declared, name)
	if err != nil {
		metrics.IncUpload("failed")
		telemetry.Warn("upload.extract_failed", map[string]any{
			"storage_key": obj.Key,
			"mime_type":   declared,
			"size_bytes":  obj.SizeBytes,
			"error":       err,
		})
		s.discard(ctx, obj.Key)
		return Upload{}, err
	}

	text, truncated := util.TruncateRunes(doc.Text, MaxExtractedRunes)
	metrics.IncUpload("extracted")
	telemetry.Info("upload.extracted", map[string]any{
		"storage_key": obj.Key,
		"size_bytes":  obj.SizeBytes,
		"truncated":   truncated,
	})

	return Upload{
		StorageKey:    obj.Key,
		FileName:      name,
		SizeBytes:     obj.SizeBytes,
		MimeType:      doc.MimeType,
		ExtractedText: text,
		Truncated:     truncated,
	}, nil
}

// discard removes an object that will never be handed back to the client.
func (s *Service) discard(ctx context.Context, key string) {
	// the request may already be cancelled; the orphan still has to go
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Error("upload.discard_failed", map[string]any{
			"storage_key": key,
			"error":       err,
		})
	}
}
