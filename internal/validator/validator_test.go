package validator

import (
	"regexp"
	"strings"
	"testing"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateField_Required(t *testing.T) {
	rules := []models.ValidationRule{{Kind: models.RuleRequired}}

	assert.Equal(t, "This field is required", ValidateField("", rules))
	assert.Equal(t, "This field is required", ValidateField("   ", rules))
	assert.Empty(t, ValidateField("Ravi", rules))
}

func TestValidateField_EmptySkipsFormatRules(t *testing.T) {
	formatRules := []models.ValidationRule{
		{Kind: models.RuleEmail},
		{Kind: models.RulePhone},
		{Kind: models.RuleDate},
		{Kind: models.RuleMinLength, Length: 5},
		{Kind: models.RulePattern, Pattern: regexp.MustCompile(`^\d+$`)},
	}

	// A non-required empty field passes every format rule.
	assert.Empty(t, ValidateField("", formatRules))
}

func TestValidateField_Email(t *testing.T) {
	rules := []models.ValidationRule{{Kind: models.RuleEmail}}

	assert.Empty(t, ValidateField("a@b.com", rules))
	assert.Equal(t, "Please enter a valid email address", ValidateField("not-an-email", rules))
	assert.Equal(t, "Please enter a valid email address", ValidateField("a@b", rules))
}

func TestValidateField_Phone(t *testing.T) {
	rules := []models.ValidationRule{{Kind: models.RulePhone}}

	assert.Empty(t, ValidateField("9876543210", rules))
	assert.Empty(t, ValidateField("+91 98765 43210", rules))
	assert.Equal(t, "Please enter a valid phone number", ValidateField("12345", rules))
	assert.Equal(t, "Please enter a valid phone number", ValidateField("not a number!", rules))
}

func TestValidateField_Date(t *testing.T) {
	rules := []models.ValidationRule{{Kind: models.RuleDate}}

	assert.Empty(t, ValidateField("2023-05-12", rules))
	assert.Empty(t, ValidateField("12/5/2023", rules))
	assert.Equal(t, "Please enter a valid date", ValidateField("not a date", rules))
}

func TestValidateField_Lengths(t *testing.T) {
	rules := []models.ValidationRule{
		{Kind: models.RuleMinLength, Length: 3},
		{Kind: models.RuleMaxLength, Length: 6},
	}

	assert.Equal(t, "Minimum length is 3 characters", ValidateField("ab", rules))
	assert.Equal(t, "Maximum length is 6 characters", ValidateField("abcdefg", rules))
	assert.Empty(t, ValidateField("abcd", rules))

	// Length compares the raw value, spaces included.
	assert.Empty(t, ValidateField(" ab", []models.ValidationRule{{Kind: models.RuleMinLength, Length: 3}}))
}

func TestValidateField_OrderFirstFailureWins(t *testing.T) {
	rules := []models.ValidationRule{
		{Kind: models.RuleMinLength, Length: 10, Message: "too short"},
		{Kind: models.RuleEmail, Message: "bad email"},
	}

	assert.Equal(t, "too short", ValidateField("a@b.c", rules))
}

func TestValidateField_CustomPredicate(t *testing.T) {
	rules := []models.ValidationRule{{
		Kind:      models.RuleCustom,
		Predicate: func(v string) bool { return strings.Contains(v, "verify") },
		Message:   "You must verify the declaration",
	}}

	assert.Empty(t, ValidateField("I verify the statement", rules))
	assert.Equal(t, "You must verify the declaration", ValidateField("nope", rules))
}

func TestValidateForm_RequiredSkipsFormat(t *testing.T) {
	emailField := models.FormField{
		ID:    "email",
		Label: "Email",
		Type:  models.FieldEmail,
		Rules: []models.ValidationRule{{Kind: models.RuleEmail}},
	}

	// Not required and empty: no error at all.
	errors := ValidateForm(map[string]string{}, []models.FormField{emailField})
	assert.Empty(t, errors)

	// Same field marked required: the implicit required rule fires first.
	emailField.Required = true
	errors = ValidateForm(map[string]string{}, []models.FormField{emailField})
	assert.Equal(t, "This field is required", errors["email"])
}

func TestValidateForm_ErrorsOnly(t *testing.T) {
	fields := []models.FormField{
		{ID: "name", Label: "Name", Type: models.FieldText, Required: true},
		{ID: "email", Label: "Email", Type: models.FieldEmail, Rules: []models.ValidationRule{{Kind: models.RuleEmail}}},
	}
	values := map[string]string{"name": "Ravi Kumar", "email": "broken"}

	errors := ValidateForm(values, fields)

	assert.NotContains(t, errors, "name")
	assert.Equal(t, "Please enter a valid email address", errors["email"])
	assert.Len(t, errors, 1)
}

func TestValidateForm_Idempotent(t *testing.T) {
	fields := []models.FormField{
		{ID: "name", Label: "Name", Type: models.FieldText, Required: true},
		{ID: "phone", Label: "Phone", Type: models.FieldTel, Rules: []models.ValidationRule{{Kind: models.RulePhone}}},
	}
	values := map[string]string{"phone": "123"}

	first := ValidateForm(values, fields)
	second := ValidateForm(values, fields)
	assert.Equal(t, first, second)
}

func TestValidateForm_ExplicitRequiredNotDuplicated(t *testing.T) {
	field := models.FormField{
		ID:       "name",
		Label:    "Name",
		Type:     models.FieldText,
		Required: true,
		Rules: []models.ValidationRule{
			{Kind: models.RuleRequired, Message: "Name is mandatory"},
		},
	}

	errors := ValidateForm(map[string]string{}, []models.FormField{field})
	assert.Equal(t, "Name is mandatory", errors["name"])
}
