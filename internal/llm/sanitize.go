package llm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxLoglineRunes     = 2000
	maxDescriptionRunes = 10000
	maxFormatRunes      = 500
	maxBudgetRunes      = 100
	maxFileNameRunes    = 255
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions?`),
	regexp.MustCompile(`(?i)ignore\s+(the\s+)?above`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?instructions?`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)system\s*prompt`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)`),
	regexp.MustCompile(`(?i)act\s+as\s+(if|a)`),
	regexp.MustCompile(`(?i)roleplay\s+as`),
	regexp.MustCompile(`(?i)from\s+now\s+on`),
	regexp.MustCompile(`\bDAN\b`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)bypass\s+(safety|filter|restriction)`),
	regexp.MustCompile(`(?i)return\s+a\s+score\s+of\s+\d+`),
	regexp.MustCompile(`(?i)always\s+(return|respond|give)`),
	regexp.MustCompile(`\[\[.*?\]\]`),
	regexp.MustCompile(`<<<.*?>>>`),
}

var (
	structuralChars = regexp.MustCompile("[{}\\[\\]<>|\\\\`]")
	lineBreaks      = regexp.MustCompile(`[\r\n]+`)
	extraNewlines   = regexp.MustCompile(`\n{3,}`)
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

type sanitizeOptions struct {
	maxRunes       int
	allowNewlines  bool
	keepStructural bool
}

// SanitizeInput neutralizes prompt-injection attempts and bounds field sizes.
// It returns the cleaned input and the names of fields that looked suspicious.
func SanitizeInput(in StoryInput) (StoryInput, []string) {
	var suspicious []string
	check := func(field, value string) {
		if !IsInputSafe(value) {
			suspicious = append(suspicious, field)
		}
	}
	check("logline", in.Logline)
	check("description", in.Description)
	check("format", in.Format)
	check("budget", in.Budget)
	check("uploadedFileText", in.UploadedFileText)

	out := StoryInput{
		Logline:          sanitizeForPrompt(in.Logline, sanitizeOptions{maxRunes: maxLoglineRunes}),
		Description:      sanitizeForPrompt(in.Description, sanitizeOptions{maxRunes: maxDescriptionRunes, allowNewlines: true}),
		Format:           sanitizeForPrompt(in.Format, sanitizeOptions{maxRunes: maxFormatRunes}),
		Budget:           sanitizeForPrompt(in.Budget, sanitizeOptions{maxRunes: maxBudgetRunes}),
		UploadedFileText: sanitizeForPrompt(in.UploadedFileText, sanitizeOptions{maxRunes: maxDescriptionRunes, allowNewlines: true}),
		UploadedFileName: sanitizeForPrompt(in.UploadedFileName, sanitizeOptions{maxRunes: maxFileNameRunes}),
	}
	return out, suspicious
}

// IsInputSafe reports whether s contains none of the known injection phrases.
func IsInputSafe(s string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(s) {
			return false
		}
	}
	return true
}

func sanitizeForPrompt(s string, opts sanitizeOptions) string {
	if s == "" {
		return ""
	}
	if opts.maxRunes > 0 && utf8.RuneCountInString(s) > opts.maxRunes {
		s = string([]rune(s)[:opts.maxRunes]) + "..."
	}
	for _, p := range injectionPatterns {
		s = p.ReplaceAllString(s, "[filtered]")
	}
	if !opts.keepStructural {
		s = structuralChars.ReplaceAllString(s, "")
	}
	if opts.allowNewlines {
		s = extraNewlines.ReplaceAllString(s, "\n\n")
	} else {
		s = lineBreaks.ReplaceAllString(s, " ")
	}
	s = controlChars.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
