package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores analysis records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Record
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Record),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreatePending stores a record without a result.
func (r *MemoryRepo) CreatePending(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	rec.UpdatedAt = rec.CreatedAt
	rec.Status = StatusPending
	rec.BasicResult = nil
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

// AttachBasicResult sets the result on an existing record. A second call overwrites the first.
func (r *MemoryRepo) AttachBasicResult(ctx context.Context, analysisID string, result BasicResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[analysisID]
	if !ok {
		return ErrNotFound
	}
	res := result
	res.Recommendations = append([]string(nil), result.Recommendations...)
	rec.BasicResult = &res
	if rec.Status == StatusPending {
		rec.Status = StatusScored
	}
	rec.UpdatedAt = r.now()
	r.byID[analysisID] = rec
	return nil
}

// GetByID returns a record by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[analysisID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// ListByStatus returns records newest first. An empty status matches every record.
func (r *MemoryRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	matched := make([]Record, 0, len(r.byID))
	for _, rec := range r.byID {
		if status == "" || rec.Status == status {
			matched = append(matched, cloneRecord(rec))
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return []Record{}, nil
	}
	end := len(matched)
	if offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// MarkReviewed records a reviewer note on a scored record.
func (r *MemoryRepo) MarkReviewed(ctx context.Context, analysisID, note string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[analysisID]
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.BasicResult == nil {
		return Record{}, ErrNotScored
	}
	now := r.now()
	rec.Status = StatusReviewed
	rec.ReviewerNote = note
	rec.ReviewedAt = &now
	rec.UpdatedAt = now
	r.byID[analysisID] = rec
	return cloneRecord(rec), nil
}

func cloneRecord(rec Record) Record {
	if rec.Contact != nil {
		c := *rec.Contact
		rec.Contact = &c
	}
	if rec.BasicResult != nil {
		b := *rec.BasicResult
		b.Recommendations = append([]string(nil), b.Recommendations...)
		rec.BasicResult = &b
	}
	if rec.ReviewedAt != nil {
		t := *rec.ReviewedAt
		rec.ReviewedAt = &t
	}
	return rec
}
