package analyses

import "context"

// Repo defines persistence operations for analysis records.
type Repo interface {
	CreatePending(ctx context.Context, rec Record) error
	AttachBasicResult(ctx context.Context, analysisID string, result BasicResult) error
	GetByID(ctx context.Context, analysisID string) (Record, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Record, error)
	MarkReviewed(ctx context.Context, analysisID, note string) (Record, error)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
