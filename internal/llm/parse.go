package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	defaultOverall    = 70
	defaultDimension  = 7
	defaultConfidence = 0.8
	defaultAnalysis   = "Analysis not available."
)

var defaultRecommendations = []string{
	"Strengthen the emotional core.",
	"Clarify the target audience.",
}

// ErrMalformedResponse is returned when a completion holds no JSON object.
var ErrMalformedResponse = errors.New("provider response is not a JSON object")

type rawResult struct {
	OverallScore float64 `json:"overallScore"`
	Breakdown    struct {
		Originality         float64 `json:"originality"`
		EmotionalImpact     float64 `json:"emotionalImpact"`
		CommercialPotential float64 `json:"commercialPotential"`
		FormatReadiness     float64 `json:"formatReadiness"`
		ClarityOfVision     float64 `json:"clarityOfVision"`
	} `json:"breakdown"`
	DetailedAnalysis string   `json:"detailedAnalysis"`
	Recommendations  []string `json:"recommendations"`
	Confidence       float64  `json:"confidence"`
}

// ParseResult extracts the JSON object from a completion and fills in defaults
// for missing or zero values. Scores are clamped to their scales.
func ParseResult(content string) (StoryResult, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return StoryResult{}, ErrMalformedResponse
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return StoryResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	res := StoryResult{
		OverallScore: score(raw.OverallScore, defaultOverall, 100),
		Breakdown: Breakdown{
			Originality:         score(raw.Breakdown.Originality, defaultDimension, 10),
			EmotionalImpact:     score(raw.Breakdown.EmotionalImpact, defaultDimension, 10),
			CommercialPotential: score(raw.Breakdown.CommercialPotential, defaultDimension, 10),
			FormatReadiness:     score(raw.Breakdown.FormatReadiness, defaultDimension, 10),
			ClarityOfVision:     score(raw.Breakdown.ClarityOfVision, defaultDimension, 10),
		},
		DetailedAnalysis: strings.TrimSpace(raw.DetailedAnalysis),
		Recommendations:  nonEmpty(raw.Recommendations),
		Confidence:       raw.Confidence,
	}
	if res.DetailedAnalysis == "" {
		res.DetailedAnalysis = defaultAnalysis
	}
	if len(res.Recommendations) == 0 {
		res.Recommendations = append([]string(nil), defaultRecommendations...)
	}
	if res.Confidence <= 0 || math.IsNaN(res.Confidence) {
		res.Confidence = defaultConfidence
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return res, nil
}

func score(v float64, def, max int) int {
	if v == 0 || math.IsNaN(v) {
		return def
	}
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
