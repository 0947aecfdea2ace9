package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert film and TV story analyst. Provide objective scores and actionable feedback. Always respond with valid JSON only."

// BuildPrompt renders the system and user messages for a sanitized input.
func BuildPrompt(in StoryInput) (system, user string) {
	var b strings.Builder
	b.WriteString("Analyze this film/TV story concept:\n\nStory Details:\n")
	fmt.Fprintf(&b, "- Logline: %s\n", in.Logline)
	if in.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", in.Description)
	}
	if in.Format != "" {
		fmt.Fprintf(&b, "- Format: %s\n", in.Format)
	}
	if in.Budget != "" {
		fmt.Fprintf(&b, "- Budget: %s\n", in.Budget)
	}
	b.WriteString(`
Return ONLY a JSON object with this structure:
{
  "overallScore": <1-100>,
  "breakdown": {
    "originality": <1-10, how unique>,
    "emotionalImpact": <1-10, audience connection>,
    "commercialPotential": <1-10, market appeal>,
    "formatReadiness": <1-10, fits the format>,
    "clarityOfVision": <1-10, clear message>
  },
  "detailedAnalysis": "<2-3 paragraph analysis>",
  "recommendations": ["<3-5 specific recommendations>"],
  "confidence": <0-1>
}`)
	return systemPrompt, b.String()
}
