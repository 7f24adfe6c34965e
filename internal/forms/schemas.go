package forms

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/models"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/validator"
)

var (
	pincodePattern = regexp.MustCompile(`\b\d{6}\b`)
	vehiclePattern = regexp.MustCompile(`^[A-Z]{2}\s?\d{1,2}\s?[A-Z]{0,2}\s?\d{1,4}$`)
)

func ageInRange(value string) bool {
	age, err := strconv.Atoi(strings.TrimSpace(value))
	return err == nil && age >= 1 && age <= 120
}

func notFuture(value string) bool {
	t, ok := validator.ParseDate(value)
	return ok && !t.After(time.Now())
}

func positiveAmount(value string) bool {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil && amount >= 0
}

func affirmed(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1", "i verify":
		return true
	}
	return false
}

func builtinSchemas() []models.FormSchema {
	return []models.FormSchema{
		{
			ID:          "name_change",
			Title:       "Name Change Affidavit",
			Description: "Apply for a legal name change with voice guidance",
			Fields: []models.FormField{
				{
					ID: "applicant_full_name", Label: "Full Name", Type: models.FieldText, Required: true,
					Help: "Your current full legal name",
					Rules: []models.ValidationRule{
						{Kind: models.RuleMinLength, Length: 3, Message: "Name must be at least 3 characters"},
					},
				},
				{
					ID: "applicant_age", Label: "Age", Type: models.FieldNumber, Required: true,
					Help: "Your age",
					Rules: []models.ValidationRule{
						{Kind: models.RuleCustom, Predicate: ageInRange, Message: "Age must be between 1 and 120"},
					},
				},
				{
					ID: "applicant_father_name", Label: "Father's Name", Type: models.FieldText, Required: true,
					Help: "Your father's full name",
				},
				{
					ID: "current_address", Label: "Current Address", Type: models.FieldTextarea, Required: true,
					Help: "Your complete residential address with pincode",
					Rules: []models.ValidationRule{
						{Kind: models.RulePattern, Pattern: pincodePattern, Message: "Address must contain a 6-digit pincode"},
					},
				},
				{
					ID: "previous_name", Label: "Previous Name", Type: models.FieldText, Required: true,
					Help: "Your old/previous name",
				},
				{
					ID: "new_name", Label: "New Name", Type: models.FieldText, Required: true,
					Help: "Your desired new name",
				},
				{
					ID: "reason", Label: "Reason for Change", Type: models.FieldTextarea, Required: true,
					Help: "Why you want to change your name",
				},
				{
					ID: "date_of_declaration", Label: "Date of Declaration", Type: models.FieldDate, Required: true,
					Help: "Date of this declaration",
					Rules: []models.ValidationRule{
						{Kind: models.RuleDate},
						{Kind: models.RuleCustom, Predicate: notFuture, Message: "Date cannot be in the future"},
					},
				},
				{
					ID: "place", Label: "Place", Type: models.FieldText, Required: true,
					Help: "Place where this declaration is made",
				},
				{
					ID: "id_proof_type", Label: "ID Proof Type", Type: models.FieldSelect, Required: true,
					Help:    "Type of ID proof",
					Options: []string{"Aadhar", "Passport", "Voter ID", "Driving Licence"},
				},
				{
					ID: "id_proof_number", Label: "ID Proof Number", Type: models.FieldText, Required: true,
					Help: "Your ID proof number",
					Rules: []models.ValidationRule{
						{Kind: models.RuleMinLength, Length: 5, Message: "Invalid ID number"},
					},
				},
			},
		},
		{
			ID:          "property_dispute",
			Title:       "Property Dispute Plaint",
			Description: "File a property dispute case with detailed documentation",
			Fields: []models.FormField{
				{
					ID: "plaintiff_name", Label: "Plaintiff Name", Type: models.FieldText, Required: true,
					Help: "Your full legal name",
				},
				{
					ID: "plaintiff_address", Label: "Plaintiff Address", Type: models.FieldTextarea, Required: true,
					Help: "Your complete address with pincode",
					Rules: []models.ValidationRule{
						{Kind: models.RulePattern, Pattern: pincodePattern, Message: "Address must contain a 6-digit pincode"},
					},
				},
				{
					ID: "defendant_name", Label: "Defendant Name", Type: models.FieldText, Required: true,
					Help: "Defendant full legal name",
				},
				{
					ID: "defendant_address", Label: "Defendant Address", Type: models.FieldTextarea, Required: true,
					Help: "Defendant complete address",
				},
				{
					ID: "property_description", Label: "Property Description", Type: models.FieldTextarea, Required: true,
					Help: "Location, survey number, or address of property",
				},
				{
					ID: "nature_of_claim", Label: "Nature of Claim", Type: models.FieldSelect, Required: true,
					Help:    "Type of claim",
					Options: []string{"Ownership", "Ejectment", "Partition", "Possession"},
				},
				{
					ID: "value_of_claim", Label: "Value of Claim", Type: models.FieldNumber, Required: true,
					Help: "Monetary value of claim",
					Rules: []models.ValidationRule{
						{Kind: models.RuleCustom, Predicate: positiveAmount, Message: "Value must be positive"},
					},
				},
				{
					ID: "facts_of_case", Label: "Facts of Case", Type: models.FieldTextarea, Required: true,
					Help: "Detailed facts of the case",
				},
				{
					ID: "relief_sought", Label: "Relief Sought", Type: models.FieldTextarea, Required: true,
					Help: "What relief you are seeking",
				},
				{
					ID: "date_of_incident", Label: "Date of Incident", Type: models.FieldDate, Required: false,
					Help:  "When the incident occurred",
					Rules: []models.ValidationRule{{Kind: models.RuleDate}},
				},
				{
					ID: "evidence_list", Label: "Evidence List", Type: models.FieldFile, Required: false,
					Help: "Reference to uploaded evidence documents",
				},
				{
					ID: "verification_declaration", Label: "I Verify", Type: models.FieldBoolean, Required: true,
					Help: "I verify that the above information is true",
					Rules: []models.ValidationRule{
						{Kind: models.RuleCustom, Predicate: affirmed, Message: "You must verify the declaration"},
					},
				},
			},
		},
		{
			ID:          "traffic_fine_appeal",
			Title:       "Traffic Fine Appeal",
			Description: "Appeal a traffic fine with voice evidence",
			Fields: []models.FormField{
				{
					ID: "appellant_name", Label: "Appellant Name", Type: models.FieldText, Required: true,
					Help: "Your full legal name",
				},
				{
					ID: "appellant_address", Label: "Appellant Address", Type: models.FieldTextarea, Required: true,
					Help: "Your complete address",
				},
				{
					ID: "challan_number", Label: "Challan Number", Type: models.FieldText, Required: true,
					Help: "Your traffic fine challan number",
				},
				{
					ID: "vehicle_number", Label: "Vehicle Number", Type: models.FieldText, Required: true,
					Help: "Vehicle registration number",
					Rules: []models.ValidationRule{
						{
							Kind:      models.RuleCustom,
							Predicate: func(v string) bool { return vehiclePattern.MatchString(strings.ToUpper(v)) },
							Message:   "Invalid vehicle number format",
						},
					},
				},
				{
					ID: "date_of_challan", Label: "Date of Challan", Type: models.FieldDate, Required: true,
					Help: "When the challan was issued",
					Rules: []models.ValidationRule{
						{Kind: models.RuleDate},
						{Kind: models.RuleCustom, Predicate: notFuture, Message: "Date cannot be in the future"},
					},
				},
				{
					ID: "grounds_of_appeal", Label: "Grounds of Appeal", Type: models.FieldTextarea, Required: true,
					Help: "Why the fine should be set aside",
				},
				{
					ID: "contact_phone", Label: "Contact Phone", Type: models.FieldTel, Required: true,
					Help:  "Phone number for updates",
					Rules: []models.ValidationRule{{Kind: models.RulePhone}},
				},
				{
					ID: "contact_email", Label: "Contact Email", Type: models.FieldEmail, Required: false,
					Help:  "Email for updates",
					Rules: []models.ValidationRule{{Kind: models.RuleEmail}},
				},
			},
		},
	}
}
