// Package extractor pulls typed field values out of free-form speech
// transcripts using ordered pattern tables. Extraction is deterministic:
// the same transcript and field spec always produce the same value.
package extractor

import (
	"regexp"
	"strings"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"go.uber.org/zap"
)

// keywordWindow is how many trailing tokens of a matching sentence are
// returned for free-text fields.
const keywordWindow = 10

// Pattern tables per field type. Order matters: the first pattern that
// matches anywhere in the transcript wins. A capturing group, when present,
// carries the value; otherwise the whole match does.
var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:phone|contact|number|call|reach|mobile|cell)[\s:]*(\d{10}|\d{3}[-.\s]?\d{3}[-.\s]?\d{4})`),
		regexp.MustCompile(`\d{10}|\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
	}
	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:date|born|married|on)[\s:]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
		regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2}`),
	}

	sentenceSplit = regexp.MustCompile(`[.!?]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Extractor maps transcript text to candidate field values.
type Extractor struct {
	logger *zap.Logger
}

// New creates a new field extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the candidate value for one field, or "" when the
// transcript yields no match. It never fails; a miss is not an error.
func (e *Extractor) Extract(transcript string, field models.FormField) string {
	label := asciiLower(field.Label)

	switch {
	case field.Type == models.FieldTel || strings.Contains(label, "phone"):
		return firstMatch(transcript, phonePatterns)
	case field.Type == models.FieldEmail || strings.Contains(label, "email"):
		return firstMatch(transcript, emailPatterns)
	case field.Type == models.FieldDate || strings.Contains(label, "date"):
		return firstMatch(transcript, datePatterns)
	case field.Type == models.FieldText || field.Type == models.FieldTextarea:
		return e.extractByKeyword(transcript, field)
	}

	// Numbers, selections, booleans and file references are confirmed
	// interactively by the caller, not guessed from the transcript.
	return ""
}

// ExtractFormData runs Extract for every field and returns only the fields
// that produced a value.
func (e *Extractor) ExtractFormData(transcript string, fields []models.FormField) map[string]string {
	extracted := make(map[string]string)
	for _, field := range fields {
		if value := e.Extract(transcript, field); value != "" {
			extracted[field.ID] = value
		}
	}

	e.logger.Debug("Transcript extraction completed",
		zap.Int("fields", len(fields)),
		zap.Int("extracted", len(extracted)))

	return extracted
}

// extractByKeyword finds the first sentence containing any word of the
// field label and returns its trailing token window.
func (e *Extractor) extractByKeyword(transcript string, field models.FormField) string {
	keywords := strings.Fields(asciiLower(field.Label))
	if len(keywords) == 0 {
		return ""
	}

	for _, sentence := range sentenceSplit.Split(transcript, -1) {
		lower := asciiLower(sentence)
		if !containsAny(lower, keywords) {
			continue
		}
		words := whitespace.Split(strings.TrimSpace(sentence), -1)
		if len(words) > keywordWindow {
			words = words[len(words)-keywordWindow:]
		}
		return strings.TrimSpace(strings.Join(words, " "))
	}

	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// firstMatch applies patterns in order and returns the first hit, using
// the capturing group when the pattern defines one.
func firstMatch(transcript string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		m := p.FindStringSubmatch(transcript)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return m[1]
		}
		return m[0]
	}
	return ""
}

// asciiLower lower-cases ASCII letters only. Unicode case folding is
// locale-sensitive in some tables; extraction must be bit-identical
// across environments.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
