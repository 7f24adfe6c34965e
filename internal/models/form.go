package models

import "regexp"

// FieldType is the semantic type of a form field.
type FieldType string

// Field type constants
const (
	FieldText     FieldType = "text"     // short free text
	FieldTextarea FieldType = "textarea" // long free text
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldBoolean  FieldType = "boolean"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldSelect   FieldType = "select" // enumeration
	FieldFile     FieldType = "file"   // file reference, stored elsewhere
)

// RuleKind identifies a validation rule.
type RuleKind string

// Rule kind constants
const (
	RuleRequired  RuleKind = "required"
	RuleEmail     RuleKind = "email"
	RulePhone     RuleKind = "phone"
	RuleDate      RuleKind = "date"
	RuleMinLength RuleKind = "minLength"
	RuleMaxLength RuleKind = "maxLength"
	RulePattern   RuleKind = "pattern"
	RuleCustom    RuleKind = "custom"
)

// ValidationRule is one constraint on a field value. Rules evaluate in
// declared order; the first failure wins. Predicate is held opaquely and
// never serialized.
type ValidationRule struct {
	Kind      RuleKind
	Length    int              // for minLength / maxLength
	Pattern   *regexp.Regexp   // for pattern
	Predicate func(string) bool // for custom; true means valid
	Message   string           // optional override of the default message
}

// FormField describes one field of a form. Immutable once a form is chosen.
type FormField struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Help     string           `json:"help,omitempty"`
	Type     FieldType        `json:"type"`
	Required bool             `json:"required"`
	Options  []string         `json:"options,omitempty"`
	Rules    []ValidationRule `json:"-"`
}

// FormSchema is a complete form definition.
type FormSchema struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
}
