package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"filmdecks-backend/internal/analyses"
	"filmdecks-backend/internal/shared/auth"
	"filmdecks-backend/internal/shared/metrics"
	"filmdecks-backend/internal/shared/telemetry"
	"filmdecks-backend/internal/shared/validate"
)

const storyTimeout = 2 * time.Minute

// StorySubmitter runs a story through the analysis flow.
type StorySubmitter interface {
	Submit(ctx context.Context, req analyses.Request) (analyses.Submission, error)
}

type analysisPreviewer interface {
	Preview(ctx context.Context, analysisID string) (analyses.Preview, error)
}

// TeaserScore is shown to the submitter right after the questionnaire.
type TeaserScore struct {
	Overall    int    `json:"overall"`
	Category   string `json:"category"`
	BudgetTier string `json:"budgetTier"`
}

// Service captures questionnaire leads.
type Service struct {
	Repo    Repo
	Stories StorySubmitter
	Now     func() time.Time

	inflight sync.WaitGroup
}

// NewService constructs a Service. stories may be nil, in which case no
// analysis is started for new leads.
func NewService(repo Repo, stories StorySubmitter) *Service {
	return &Service{Repo: repo, Stories: stories}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Capture validates and stores a questionnaire, then starts the story analysis
// in the background.
func (s *Service) Capture(ctx context.Context, q Questionnaire) (Lead, TeaserScore, error) {
	if err := validate.Struct(q); err != nil {
		return Lead{}, TeaserScore{}, err
	}

	score := LeadScore(q.Budget, q.StartTiming)
	now := s.now()
	lead := Lead{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(q.Name),
		Email:           strings.TrimSpace(q.Email),
		Phone:           strings.TrimSpace(q.Phone),
		Timeline:        q.Timeline,
		PersonalMeaning: q.PersonalMeaning,
		ProjectFor:      q.ProjectFor,
		Format:          q.Format,
		Materials:       q.Materials,
		ExcitedParts:    q.ExcitedParts,
		Involvement:     q.Involvement,
		StartTiming:     q.StartTiming,
		Budget:          q.Budget,
		BudgetCategory:  BudgetCategory(q.Budget),
		Logline:         q.Logline,
		Description:     q.Description,
		WantConsult:     q.WantConsult,
		LeadScore:       score,
		Status:          InitialStatus(score),
		UTMSource:       q.UTMSource,
		UTMMedium:       q.UTMMedium,
		UTMCampaign:     q.UTMCampaign,
		Referrer:        q.Referrer,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, lead); err != nil {
		return Lead{}, TeaserScore{}, fmt.Errorf("create lead: %w", err)
	}
	metrics.IncLeadsCaptured()
	telemetry.Info("lead.captured", map[string]any{
		"lead_id":    lead.ID,
		"lead_score": score,
		"status":     lead.Status,
		"request_id": analyses.RequestIDFromContext(ctx),
	})

	if s.Stories != nil {
		s.inflight.Add(1)
		go s.analyzeStory(detached(ctx), lead)
	}

	return lead, TeaserScore{
		Overall:    score,
		Category:   ScoreCategory(score),
		BudgetTier: lead.BudgetCategory,
	}, nil
}

// Wait blocks until background story analyses have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) analyzeStory(ctx context.Context, lead Lead) {
	defer s.inflight.Done()
	ctx, cancel := context.WithTimeout(ctx, storyTimeout)
	defer cancel()

	fields := map[string]any{
		"lead_id":    lead.ID,
		"request_id": analyses.RequestIDFromContext(ctx),
	}

	sub, err := s.Stories.Submit(ctx, analyses.Request{
		Logline:     lead.Logline,
		Description: lead.Description,
		Format:      lead.Format,
		Budget:      lead.Budget,
		ContactInfo: &analyses.ContactInfo{Name: lead.Name, Email: lead.Email},
	})
	if err != nil {
		fields["error"] = err
		var perr *analyses.ProviderError
		if errors.As(err, &perr) {
			// AnalysisEnriched copies the worker's scores through this link
			fields["analysis_id"] = perr.AnalysisID
			if err := s.Repo.AttachAnalysis(ctx, lead.ID, perr.AnalysisID, nil); err != nil {
				fields["attach_error"] = err
			} else {
				s.catchUpScores(ctx, lead.ID, perr.AnalysisID)
			}
		}
		telemetry.Error("lead.analysis_failed", fields)
		return
	}

	scores := scoresFrom(sub.Basic)
	if err := s.Repo.AttachAnalysis(ctx, lead.ID, sub.AnalysisID, &scores); err != nil {
		fields["error"] = err
		telemetry.Error("lead.attach_scores_failed", fields)
		return
	}
	fields["analysis_id"] = sub.AnalysisID
	fields["overall_score"] = scores.Overall
	telemetry.Info("lead.analysis_attached", fields)
}

// catchUpScores covers a worker that finished before the lead was linked.
func (s *Service) catchUpScores(ctx context.Context, leadID, analysisID string) {
	previews, ok := s.Stories.(analysisPreviewer)
	if !ok {
		return
	}
	p, err := previews.Preview(ctx, analysisID)
	if err != nil || p.State != analyses.PreviewReady || p.Basic == nil {
		return
	}
	scores := scoresFrom(*p.Basic)
	if err := s.Repo.AttachAnalysis(ctx, leadID, analysisID, &scores); err != nil {
		telemetry.Error("lead.attach_scores_failed", map[string]any{
			"lead_id":     leadID,
			"analysis_id": analysisID,
			"error":       err,
		})
	}
}

// AnalysisEnriched copies the scores of an analysis completed out of band onto
// every lead linked to it.
func (s *Service) AnalysisEnriched(ctx context.Context, analysisID string, basic analyses.BasicResult) error {
	n, err := s.Repo.AttachScoresByAnalysis(ctx, analysisID, scoresFrom(basic))
	if err != nil {
		return fmt.Errorf("attach lead scores: %w", err)
	}
	if n > 0 {
		telemetry.Info("lead.scores_backfilled", map[string]any{
			"analysis_id":   analysisID,
			"leads":         n,
			"overall_score": basic.OverallScore,
			"request_id":    analyses.RequestIDFromContext(ctx),
		})
	}
	return nil
}

// UpdateStatus moves a lead through the sales pipeline. Only admins may do so.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, leadID, status string) (Lead, error) {
	if p.IsAnonymous() {
		return Lead{}, ErrUnauthorized
	}
	if !p.IsAdmin() {
		return Lead{}, ErrForbidden
	}
	if strings.TrimSpace(leadID) == "" {
		return Lead{}, validate.Field("leadId", "required", "Invalid lead ID")
	}
	if err := validate.Var("status", status, "required,oneof=new contacted qualified converted lost"); err != nil {
		return Lead{}, err
	}

	lead, err := s.Repo.UpdateStatus(ctx, leadID, status)
	if err != nil {
		return Lead{}, err
	}
	telemetry.Info("lead.status_updated", map[string]any{
		"lead_id":        lead.ID,
		"status":         status,
		"principal_id":   p.ID,
		"principal_role": string(p.Role),
	})
	return lead, nil
}

// List pages through leads. An empty status lists all.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]Lead, error) {
	if err := validate.Var("status", status, "omitempty,oneof=new contacted qualified converted lost"); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, status, limit, offset)
}

func scoresFrom(basic analyses.BasicResult) StoryScores {
	b := basic.Breakdown
	return StoryScores{
		Overall:     basic.OverallScore,
		Originality: b.Originality,
		Emotional:   b.EmotionalImpact,
		Commercial:  b.CommercialPotential,
		Format:      b.FormatReadiness,
		Clarity:     b.ClarityOfVision,
	}
}

func detached(ctx context.Context) context.Context {
	requestID := analyses.RequestIDFromContext(ctx)
	return analyses.WithRequestID(context.Background(), requestID)
}
