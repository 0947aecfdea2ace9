package leads

import "time"

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

// Statuses lists every status a lead may be moved to.
var Statuses = []string{StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost}

// Questionnaire is the multi-step intake form.
type Questionnaire struct {
	Timeline        string   `json:"timeline" validate:"required"`
	PersonalMeaning []string `json:"personalMeaning" validate:"min=1"`
	ProjectFor      string   `json:"projectFor" validate:"required"`

	Format       string   `json:"format" validate:"required"`
	Materials    []string `json:"materials" validate:"min=1"`
	ExcitedParts []string `json:"excitedParts" validate:"min=1"`
	Involvement  string   `json:"involvement" validate:"required"`

	StartTiming string `json:"startTiming" validate:"required"`
	Budget      string `json:"budget" validate:"required"`

	Logline     string `json:"logline" validate:"min=10"`
	Description string `json:"description"`

	Name        string `json:"name" validate:"min=2"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	WantConsult bool   `json:"wantConsult"`

	UTMSource   string `json:"utmSource"`
	UTMMedium   string `json:"utmMedium"`
	UTMCampaign string `json:"utmCampaign"`
	Referrer    string `json:"referrer"`
}

// StoryScores are the analysis scores copied onto a lead once available.
type StoryScores struct {
	Overall     int `json:"overallScore"`
	Originality int `json:"originalityScore"`
	Emotional   int `json:"emotionalScore"`
	Commercial  int `json:"commercialScore"`
	Format      int `json:"formatScore"`
	Clarity     int `json:"clarityScore"`
}

// Lead is a captured questionnaire submission.
type Lead struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone,omitempty"`
	Timeline        string       `json:"timeline"`
	PersonalMeaning []string     `json:"personalMeaning"`
	ProjectFor      string       `json:"projectFor"`
	Format          string       `json:"format"`
	Materials       []string     `json:"materials"`
	ExcitedParts    []string     `json:"excitedParts"`
	Involvement     string       `json:"involvement"`
	StartTiming     string       `json:"startTiming"`
	Budget          string       `json:"budget"`
	BudgetCategory  string       `json:"budgetCategory"`
	Logline         string       `json:"logline"`
	Description     string       `json:"description,omitempty"`
	WantConsult     bool         `json:"wantConsult"`
	AnalysisID      string       `json:"analysisId,omitempty"`
	Scores          *StoryScores `json:"scores,omitempty"`
	LeadScore       int          `json:"leadScore"`
	Status          string       `json:"status"`
	UTMSource       string       `json:"utmSource,omitempty"`
	UTMMedium       string       `json:"utmMedium,omitempty"`
	UTMCampaign     string       `json:"utmCampaign,omitempty"`
	Referrer        string       `json:"referrer,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}
