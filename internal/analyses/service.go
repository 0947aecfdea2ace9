package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filmdecks-backend/internal/llm"
	"filmdecks-backend/internal/queue"
	"filmdecks-backend/internal/shared/metrics"
	"filmdecks-backend/internal/shared/telemetry"
	"filmdecks-backend/internal/shared/validate"
)

const (
	MessageEmailed   = "Your full analysis will be emailed to you shortly."
	MessagePreparing = "Our team is preparing your full analysis. Share your contact details to receive it."
	MessagePreview   = "This is a preview of your story analysis. The full report is delivered by email."
	MessagePending   = "Your analysis is still being prepared."
)

// Disclosure decides what a submitter is entitled to beyond the basic result.
type Disclosure interface {
	disclosure()
	RequiresContactInfo() bool
	Message() string
}

// Redacted is the disclosure for submitters without contact info.
type Redacted struct{}

func (Redacted) disclosure()               {}
func (Redacted) RequiresContactInfo() bool { return true }
func (Redacted) Message() string           { return MessagePreparing }

// Disclosed carries the contact the full report is delivered to.
type Disclosed struct {
	Contact ContactInfo
}

func (Disclosed) disclosure()               {}
func (Disclosed) RequiresContactInfo() bool { return false }
func (Disclosed) Message() string           { return MessageEmailed }

// DisclosureFor derives the variant from optional contact info.
func DisclosureFor(contact *ContactInfo) Disclosure {
	if contact == nil {
		return Redacted{}
	}
	return Disclosed{Contact: *contact}
}

// Submission is the outcome of a successful submit.
type Submission struct {
	AnalysisID string
	Basic      BasicResult
	Disclosure Disclosure
}

// PreviewState distinguishes a scored record from one still waiting on a provider.
type PreviewState int

const (
	PreviewPending PreviewState = iota + 1
	PreviewReady
)

// Preview is the redacted view of a stored record.
type Preview struct {
	ID                  string
	State               PreviewState
	Basic               *BasicResult
	RequiresContactInfo bool
}

// ProviderError wraps a failed provider call. The pending record stays in storage.
type ProviderError struct {
	AnalysisID string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("analysis %s: provider call failed: %v", e.AnalysisID, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// EnrichListener is told when a pending record is scored out of band.
type EnrichListener interface {
	AnalysisEnriched(ctx context.Context, analysisID string, basic BasicResult) error
}

// Service orchestrates submissions and previews.
type Service struct {
	Repo     Repo
	Provider llm.Provider
	Queue    queue.Client
	Listener EnrichListener
	Now      func() time.Time
}

// NewService constructs a Service. q may be nil when no enrichment queue is configured.
func NewService(repo Repo, provider llm.Provider, q queue.Client) *Service {
	return &Service{Repo: repo, Provider: provider, Queue: q}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit validates req, records it before calling the provider, then attaches the result.
func (s *Service) Submit(ctx context.Context, req Request) (Submission, error) {
	if err := ValidateRequest(req); err != nil {
		return Submission{}, err
	}

	rec := Record{
		ID:          uuid.NewString(),
		Logline:     req.Logline,
		Description: MergeDescription(req.Description, req.UploadedFileText, req.UploadedFileName),
		Format:      req.Format,
		Budget:      req.Budget,
		Contact:     req.ContactInfo,
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.CreatePending(ctx, rec); err != nil {
		return Submission{}, fmt.Errorf("create pending analysis: %w", err)
	}
	metrics.IncAnalysisSubmitted()

	fields := map[string]any{
		"analysis_id": rec.ID,
		"has_contact": rec.Contact != nil,
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	telemetry.Info("analysis.submitted", fields)

	result, err := s.Provider.AnalyzeStory(withProviderRequestID(ctx), rec.storyInput())
	if err != nil {
		fields["error"] = err
		telemetry.Error("analysis.provider_failed", fields)
		s.enqueueEnrichment(ctx, rec.ID)
		return Submission{}, &ProviderError{AnalysisID: rec.ID, Err: err}
	}

	basic := basicFrom(result)
	if err := s.Repo.AttachBasicResult(ctx, rec.ID, basic); err != nil {
		fields["error"] = err
		telemetry.Error("analysis.attach_failed", fields)
		s.enqueueEnrichment(ctx, rec.ID)
		return Submission{}, fmt.Errorf("attach basic result: %w", err)
	}
	metrics.IncAnalysisScored()

	fields["overall_score"] = basic.OverallScore
	telemetry.Info("analysis.scored", fields)

	return Submission{
		AnalysisID: rec.ID,
		Basic:      basic,
		Disclosure: DisclosureFor(rec.Contact),
	}, nil
}

// Preview returns the redacted view of a record. Unknown IDs yield ErrNotFound.
func (s *Service) Preview(ctx context.Context, analysisID string) (Preview, error) {
	rec, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return Preview{}, err
	}
	p := Preview{
		ID:                  rec.ID,
		State:               PreviewPending,
		RequiresContactInfo: rec.Contact == nil,
	}
	if rec.BasicResult != nil {
		basic := *rec.BasicResult
		p.State = PreviewReady
		p.Basic = &basic
	}
	return p, nil
}

// Enrich completes a pending record out of band. Records that already carry a
// result are left alone.
func (s *Service) Enrich(ctx context.Context, analysisID string) error {
	rec, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		return err
	}
	fields := map[string]any{"analysis_id": rec.ID}
	if id := RequestIDFromContext(ctx); id != "" {
		fields["request_id"] = id
	}
	if rec.BasicResult != nil {
		telemetry.Info("analysis.enrich_skipped", fields)
		return nil
	}

	result, err := s.Provider.AnalyzeStory(withProviderRequestID(ctx), rec.storyInput())
	if err != nil {
		return &ProviderError{AnalysisID: rec.ID, Err: err}
	}
	basic := basicFrom(result)
	if err := s.Repo.AttachBasicResult(ctx, rec.ID, basic); err != nil {
		return fmt.Errorf("attach basic result: %w", err)
	}
	metrics.IncAnalysisEnriched()

	fields["overall_score"] = basic.OverallScore
	telemetry.Info("analysis.enriched", fields)

	if s.Listener != nil {
		// the record is already scored; a redelivery would skip it, so the error stops here
		if err := s.Listener.AnalysisEnriched(ctx, rec.ID, basic); err != nil {
			fields["error"] = err
			telemetry.Error("analysis.enrich_listener_failed", fields)
		}
	}
	return nil
}

// ListByStatus pages through records for review. An empty status lists all.
func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Record, error) {
	if err := validate.Var("status", status, "omitempty,oneof=pending scored reviewed"); err != nil {
		return nil, err
	}
	return s.Repo.ListByStatus(ctx, status, limit, offset)
}

// MarkReviewed records a reviewer note on a scored record.
func (s *Service) MarkReviewed(ctx context.Context, analysisID, note string) (Record, error) {
	rec, err := s.Repo.MarkReviewed(ctx, analysisID, note)
	if err != nil {
		return Record{}, err
	}
	telemetry.Info("analysis.reviewed", map[string]any{
		"analysis_id": rec.ID,
		"request_id":  RequestIDFromContext(ctx),
	})
	return rec, nil
}

// IsProviderFailure reports whether err came from the provider gateway.
func IsProviderFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func (s *Service) enqueueEnrichment(ctx context.Context, analysisID string) {
	if s.Queue == nil {
		return
	}
	requestID := RequestIDFromContext(ctx)
	msg := queue.NewMessage(analysisID, requestID, s.now())
	// the client may already be gone; the message must still go out
	sendCtx, cancel := context.WithTimeout(backgroundWithRequestID(ctx), 5*time.Second)
	defer cancel()
	if err := s.Queue.Send(sendCtx, msg); err != nil {
		metrics.IncAnalysisEnqueueFailed()
		telemetry.Error("analysis.enqueue_failed", map[string]any{
			"analysis_id": analysisID,
			"request_id":  requestID,
			"error":       err,
		})
		return
	}
	telemetry.Info("analysis.enqueued", map[string]any{
		"analysis_id": analysisID,
		"request_id":  requestID,
	})
}
