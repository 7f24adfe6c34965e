// Package validator checks form values against per-field rule lists and
// produces field-level error messages. Failures are data, never errors.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]{10,}$`)
)

// dateLayouts are accepted spoken/typed date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1-2-2006",
	"2006/1/2",
	"January 2, 2006",
	"2 January 2006",
}

// ValidateField evaluates rules in declared order and returns the first
// failing rule's message, or "" when the value passes every rule.
// Format rules (email, phone, date, length, pattern) pass on empty values;
// only the required rule rejects emptiness.
func ValidateField(value string, rules []models.ValidationRule) string {
	for _, rule := range rules {
		switch rule.Kind {
		case models.RuleRequired:
			if strings.TrimSpace(value) == "" {
				return message(rule, "This field is required")
			}

		case models.RuleEmail:
			if value != "" && !emailPattern.MatchString(value) {
				return message(rule, "Please enter a valid email address")
			}

		case models.RulePhone:
			if value != "" && !phonePattern.MatchString(strings.ReplaceAll(value, " ", "")) {
				return message(rule, "Please enter a valid phone number")
			}

		case models.RuleDate:
			if value != "" && !parseableDate(value) {
				return message(rule, "Please enter a valid date")
			}

		case models.RuleMinLength:
			if value != "" && len([]rune(value)) < rule.Length {
				return message(rule, fmt.Sprintf("Minimum length is %d characters", rule.Length))
			}

		case models.RuleMaxLength:
			if value != "" && len([]rune(value)) > rule.Length {
				return message(rule, fmt.Sprintf("Maximum length is %d characters", rule.Length))
			}

		case models.RulePattern:
			if value != "" && rule.Pattern != nil && !rule.Pattern.MatchString(value) {
				return message(rule, "Invalid format")
			}

		case models.RuleCustom:
			if value != "" && rule.Predicate != nil && !rule.Predicate(value) {
				return message(rule, "Invalid value")
			}
		}
	}
	return ""
}

// ValidateForm validates every field and returns an error map containing
// only the fields that failed. A field marked required gets an implicit
// leading required rule unless its rule list already starts with one.
func ValidateForm(values map[string]string, fields []models.FormField) map[string]string {
	errors := make(map[string]string)

	for _, field := range fields {
		rules := field.Rules
		if field.Required && (len(rules) == 0 || rules[0].Kind != models.RuleRequired) {
			rules = append([]models.ValidationRule{{Kind: models.RuleRequired}}, rules...)
		}

		if msg := ValidateField(values[field.ID], rules); msg != "" {
			errors[field.ID] = msg
		}
	}

	return errors
}

func message(rule models.ValidationRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func parseableDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// ParseDate parses a value accepted by the date rule. Callers that need
// the parsed time (custom predicates, schemas) share the rule's layouts.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
