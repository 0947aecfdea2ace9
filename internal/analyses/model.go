package analyses

import (
	"time"

	"filmdecks-backend/internal/llm"
)

const (
	StatusPending  = "pending"
	StatusScored   = "scored"
	StatusReviewed = "reviewed"
)

// ContactInfo is who the full report goes to.
type ContactInfo struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

// BasicResult is the score disclosed to every submitter.
type BasicResult struct {
	OverallScore    int           `json:"overallScore"`
	Breakdown       llm.Breakdown `json:"breakdown"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// Record is one story submission. BasicResult stays nil until a provider call succeeds.
type Record struct {
	ID           string       `json:"id"`
	Logline      string       `json:"logline"`
	Description  string       `json:"description"`
	Format       string       `json:"format"`
	Budget       string       `json:"budget"`
	Contact      *ContactInfo `json:"contactInfo,omitempty"`
	Status       string       `json:"status"`
	BasicResult  *BasicResult `json:"basicResult,omitempty"`
	ReviewerNote string       `json:"reviewerNote,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Request is a validated submission.
type Request struct {
	Logline          string       `json:"logline" validate:"required,min=1"`
	Description      string       `json:"description"`
	Format           string       `json:"format"`
	Budget           string       `json:"budget"`
	UploadedFileText string       `json:"uploadedFileText"`
	UploadedFileName string       `json:"uploadedFileName"`
	ContactInfo      *ContactInfo `json:"contactInfo" validate:"omitempty"`
}

// storyInput converts a record back into provider input.
func (r Record) storyInput() llm.StoryInput {
	return llm.StoryInput{
		Logline:     r.Logline,
		Description: r.Description,
		Format:      r.Format,
		Budget:      r.Budget,
	}
}

func basicFrom(res llm.StoryResult) BasicResult {
	return BasicResult{
		OverallScore:    res.OverallScore,
		Breakdown:       res.Breakdown,
		Recommendations: res.Recommendations,
	}
}
