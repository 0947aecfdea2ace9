package analyses

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"filmdecks-backend/internal/llm"
	"filmdecks-backend/internal/shared/telemetry"
)

type fakeProvider struct {
	mu     sync.Mutex
	result llm.StoryResult
	err    error
	inputs []llm.StoryInput
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Names() []string { return []string{"groq", "openai"} }

func (f *fakeProvider) AnalyzeStory(ctx context.Context, in llm.StoryInput) (llm.StoryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return llm.StoryResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeProvider) lastInput() llm.StoryInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return llm.StoryInput{}
	}
	return f.inputs[len(f.inputs)-1]
}

func sampleResult() llm.StoryResult {
	return llm.StoryResult{
		OverallScore: 82,
		Breakdown: llm.Breakdown{
			Originality:         8,
			EmotionalImpact:     9,
			CommercialPotential: 7,
			FormatReadiness:     6,
			ClarityOfVision:     8,
		},
		Recommendations: []string{"Tighten the second act"},
		Confidence:      0.9,
	}
}

// countingRepo wraps MemoryRepo and counts writes.
type countingRepo struct {
	*MemoryRepo
	creates  int
	attaches int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{MemoryRepo: NewMemoryRepo()}
}

func (r *countingRepo) CreatePending(ctx context.Context, rec Record) error {
	r.creates++
	return r.MemoryRepo.CreatePending(ctx, rec)
}

func (r *countingRepo) AttachBasicResult(ctx context.Context, id string, res BasicResult) error {
	r.attaches++
	return r.MemoryRepo.AttachBasicResult(ctx, id, res)
}

// failingAttachRepo stores pending records but cannot attach results.
type failingAttachRepo struct {
	*MemoryRepo
	err error
}

func (r *failingAttachRepo) AttachBasicResult(ctx context.Context, id string, res BasicResult) error {
	return r.err
}

type recordingListener struct {
	mu    sync.Mutex
	calls map[string]BasicResult
	err   error
}

func (l *recordingListener) AnalysisEnriched(ctx context.Context, analysisID string, basic BasicResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]BasicResult)
	}
	l.calls[analysisID] = basic
	return l.err
}

func quietLogs(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(restore)
}
