package leads

import "math"

var budgetScores = map[string]int{
	"<$5K":    20,
	"$5-15K":  50,
	"$15-50K": 75,
	"$50K+":   100,
	"unsure":  30,
}

var timingScores = map[string]int{
	"ASAP – I'm ready now":              100,
	"Within 1–3 months":                 75,
	"This year – need to prepare first": 50,
	"Just exploring – not sure yet":     20,
}

var budgetCategories = map[string]string{
	"<$5K":    "exploring",
	"$5-15K":  "specific",
	"$15-50K": "serious",
	"$50K+":   "full",
	"unsure":  "exploring",
}

const (
	defaultBudgetScore = 30
	defaultTimingScore = 50
)

// LeadScore weighs budget at 70% and timing urgency at 30%, on a 0..100 scale.
func LeadScore(budget, startTiming string) int {
	b, ok := budgetScores[budget]
	if !ok {
		b = defaultBudgetScore
	}
	t, ok := timingScores[startTiming]
	if !ok {
		t = defaultTimingScore
	}
	return int(math.Round(float64(b)*0.7 + float64(t)*0.3))
}

// BudgetCategory segments leads by budget.
func BudgetCategory(budget string) string {
	if c, ok := budgetCategories[budget]; ok {
		return c
	}
	return "exploring"
}

// InitialStatus places high scoring leads straight into the sales pipeline.
func InitialStatus(score int) string {
	switch {
	case score >= 75:
		return StatusQualified
	case score >= 40:
		return StatusContacted
	default:
		return StatusNew
	}
}

// ScoreCategory is the label shown with the teaser score.
func ScoreCategory(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Strong"
	case score >= 40:
		return "Developing"
	default:
		return "Exploring"
	}
}
