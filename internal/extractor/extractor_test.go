package extractor

import (
	"testing"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestExtractor() *Extractor {
	return New(zap.NewNop())
}

func TestExtract_PhoneAndEmail(t *testing.T) {
	e := newTestExtractor()
	transcript := "My phone number is 9876543210 and my email is a@b.com"

	phone := e.Extract(transcript, models.FormField{ID: "contact_phone", Label: "Contact Phone", Type: models.FieldTel})
	assert.Equal(t, "9876543210", phone)

	email := e.Extract(transcript, models.FormField{ID: "contact_email", Label: "Contact Email", Type: models.FieldEmail})
	assert.Equal(t, "a@b.com", email)
}

func TestExtract_PhoneFormats(t *testing.T) {
	e := newTestExtractor()
	field := models.FormField{ID: "phone", Label: "Phone", Type: models.FieldTel}

	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{"plain ten digits", "call me at 5551234567 please", "5551234567"},
		{"dashed", "you can reach me on 555-123-4567 anytime", "555-123-4567"},
		{"no phone present", "I live in Bangalore near the lake", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.transcript, field))
		})
	}
}

func TestExtract_Date(t *testing.T) {
	e := newTestExtractor()
	field := models.FormField{ID: "date_of_incident", Label: "Date of Incident", Type: models.FieldDate}

	got := e.Extract("We got married on 12/05/2023 in Mysore", field)
	assert.Equal(t, "12/05/2023", got)

	assert.Empty(t, e.Extract("no dates mentioned here", field))
}

func TestExtract_KeywordWindow(t *testing.T) {
	e := newTestExtractor()
	field := models.FormField{ID: "reason", Label: "Reason", Type: models.FieldTextarea}

	got := e.Extract("Hello there. The reason for my application is my recent marriage. Thank you", field)
	assert.Equal(t, "The reason for my application is my recent marriage", got)
}

func TestExtract_KeywordWindowTruncates(t *testing.T) {
	e := newTestExtractor()
	field := models.FormField{ID: "facts_of_case", Label: "Facts", Type: models.FieldTextarea}

	transcript := "The facts are that one two three four five six seven eight nine ten eleven"
	got := e.Extract(transcript, field)

	// Only the trailing ten tokens of the matching sentence survive.
	assert.Equal(t, "two three four five six seven eight nine ten eleven", got)
}

func TestExtract_NoSentenceMatches(t *testing.T) {
	e := newTestExtractor()
	field := models.FormField{ID: "place", Label: "Place", Type: models.FieldText}

	assert.Empty(t, e.Extract("Nothing relevant here. Or here!", field))
}

func TestExtract_UnhandledTypesReturnEmpty(t *testing.T) {
	e := newTestExtractor()
	transcript := "My claim is worth 50000 rupees and I verify everything"

	assert.Empty(t, e.Extract(transcript, models.FormField{ID: "value_of_claim", Label: "Value of Claim", Type: models.FieldNumber}))
	assert.Empty(t, e.Extract(transcript, models.FormField{ID: "verification_declaration", Label: "I Verify", Type: models.FieldBoolean}))
}

func TestExtract_Deterministic(t *testing.T) {
	e := newTestExtractor()
	transcript := "My name is Ravi Kumar. My phone number is 9876543210. I reside at 12 MG Road."
	fields := []models.FormField{
		{ID: "applicant_full_name", Label: "Full Name", Type: models.FieldText},
		{ID: "phone", Label: "Phone", Type: models.FieldTel},
		{ID: "current_address", Label: "Current Address", Type: models.FieldTextarea},
	}

	first := e.ExtractFormData(transcript, fields)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.ExtractFormData(transcript, fields))
	}
}

func TestExtractFormData_OmitsMisses(t *testing.T) {
	e := newTestExtractor()
	fields := []models.FormField{
		{ID: "email", Label: "Email", Type: models.FieldEmail},
		{ID: "phone", Label: "Phone", Type: models.FieldTel},
	}

	got := e.ExtractFormData("write to me at ravi@example.org", fields)

	assert.Equal(t, map[string]string{"email": "ravi@example.org"}, got)
	assert.NotContains(t, got, "phone")
}
