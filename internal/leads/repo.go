package leads

import "context"

// Repo defines persistence operations for leads.
type Repo interface {
	Create(ctx context.Context, lead Lead) error
	GetByID(ctx context.Context, leadID string) (Lead, error)
	UpdateStatus(ctx context.Context, leadID, status string) (Lead, error)
	AttachAnalysis(ctx context.Context, leadID, analysisID string, scores *StoryScores) error
	AttachScoresByAnalysis(ctx context.Context, analysisID string, scores StoryScores) (int, error)
	List(ctx context.Context, status string, limit, offset int) ([]Lead, error)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
