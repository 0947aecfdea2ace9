package llm

import (
	"context"
	"errors"
)

// Provider scores a story concept. Implementations wrap one hosted completion endpoint.
type Provider interface {
	Name() string
	AnalyzeStory(ctx context.Context, input StoryInput) (StoryResult, error)
}

// StoryInput is what a provider sees of a submission.
type StoryInput struct {
	Logline          string
	Description      string
	Format           string
	Budget           string
	UploadedFileText string
	UploadedFileName string
}

// Breakdown holds the per-dimension scores, each on a 0..10 scale.
type Breakdown struct {
	Originality         int `json:"originality"`
	EmotionalImpact     int `json:"emotionalImpact"`
	CommercialPotential int `json:"commercialPotential"`
	FormatReadiness     int `json:"formatReadiness"`
	ClarityOfVision     int `json:"clarityOfVision"`
}

// StoryResult is a provider's verdict. OverallScore is on a 0..100 scale.
type StoryResult struct {
	OverallScore     int       `json:"overallScore"`
	Breakdown        Breakdown `json:"breakdown"`
	DetailedAnalysis string    `json:"detailedAnalysis"`
	Recommendations  []string  `json:"recommendations"`
	Confidence       float64   `json:"confidence"`
}

var (
	// ErrAllProvidersFailed is returned when no provider in the chain produced a result.
	ErrAllProvidersFailed = errors.New("all analysis providers failed")
	// ErrTransient marks provider errors worth one more attempt.
	ErrTransient = errors.New("transient provider error")
)

type transientError struct {
	err error
}

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() []error {
	return []error{ErrTransient, e.err}
}

// MarkTransient tags err so the chain retries it once.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}
