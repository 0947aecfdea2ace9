package leads

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores leads in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Lead
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Lead)}
}

// Create stores the lead.
func (r *MemoryRepo) Create(ctx context.Context, lead Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[lead.ID] = cloneLead(lead)
	return nil
}

// GetByID returns a lead by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, leadID string) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.byID[leadID]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

// UpdateStatus sets the pipeline status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, leadID, status string) (Lead, error) {
	if err := ctx.Err(); err != nil {
		return Lead{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.byID[leadID]
	if !ok {
		return Lead{}, ErrNotFound
	}
	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	r.byID[leadID] = lead
	return cloneLead(lead), nil
}

// AttachAnalysis links the story analysis and, when present, copies its scores.
func (r *MemoryRepo) AttachAnalysis(ctx context.Context, leadID, analysisID string, scores *StoryScores) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.byID[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.AnalysisID = analysisID
	if scores != nil {
		s := *scores
		lead.Scores = &s
	}
	lead.UpdatedAt = time.Now().UTC()
	r.byID[leadID] = lead
	return nil
}

// AttachScoresByAnalysis copies scores onto every lead linked to analysisID and
// reports how many were updated.
func (r *MemoryRepo) AttachScoresByAnalysis(ctx context.Context, analysisID string, scores StoryScores) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, lead := range r.byID {
		if analysisID == "" || lead.AnalysisID != analysisID {
			continue
		}
		s := scores
		lead.Scores = &s
		lead.UpdatedAt = time.Now().UTC()
		r.byID[id] = lead
		n++
	}
	return n, nil
}

// List returns leads newest first. An empty status matches every lead.
func (r *MemoryRepo) List(ctx context.Context, status string, limit, offset int) ([]Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	out := make([]Lead, 0, len(r.byID))
	for _, lead := range r.byID {
		if status == "" || lead.Status == status {
			out = append(out, cloneLead(lead))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Lead{}, nil
	}
	end := len(out)
	if offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

func cloneLead(l Lead) Lead {
	l.PersonalMeaning = append([]string(nil), l.PersonalMeaning...)
	l.Materials = append([]string(nil), l.Materials...)
	l.ExcitedParts = append([]string(nil), l.ExcitedParts...)
	if l.Scores != nil {
		s := *l.Scores
		l.Scores = &s
	}
	return l
}
