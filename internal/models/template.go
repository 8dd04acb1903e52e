package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TemplateCategory groups report templates for catalog browsing.
type TemplateCategory string

const (
	CategoryExecutive TemplateCategory = "executive"
	CategoryFinancial TemplateCategory = "financial"
	CategoryMarket    TemplateCategory = "market"
	CategoryPortfolio TemplateCategory = "portfolio"
	CategoryCustom    TemplateCategory = "custom"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatPDF   ReportFormat = "pdf"
	ReportFormatExcel ReportFormat = "excel"
	ReportFormatPPTX  ReportFormat = "pptx"
)

// ParameterType enumerates the input kinds a template parameter can declare.
type ParameterType string

const (
	ParameterString      ParameterType = "string"
	ParameterNumber      ParameterType = "number"
	ParameterBoolean     ParameterType = "boolean"
	ParameterDate        ParameterType = "date"
	ParameterSelect      ParameterType = "select"
	ParameterMultiselect ParameterType = "multiselect"
)

// TemplateParameter describes one configurable input of a report template.
type TemplateParameter struct {
	Name        string        `json:"name"`
	Label       string        `json:"label"`
	Type        ParameterType `json:"type"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default,omitempty"`
	Description string        `json:"description,omitempty"`
	Options     []string      `json:"options,omitempty"`
}

// TemplateParameters is the ordered parameter schema persisted as JSONB.
type TemplateParameters []TemplateParameter

// FormatList is the supported-format set persisted as JSONB.
type FormatList []ReportFormat

// ReportTemplate is a backend-defined report blueprint. Immutable through the API.
type ReportTemplate struct {
	ID          string             `db:"id" json:"id"`
	Name        string             `db:"name" json:"name"`
	Description string             `db:"description" json:"description"`
	Category    TemplateCategory   `db:"category" json:"category"`
	Parameters  TemplateParameters `db:"parameters" json:"parameters"`
	Formats     FormatList         `db:"formats" json:"formats"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

// Parameter returns the declared parameter with the given name, if any.
func (t *ReportTemplate) Parameter(name string) (TemplateParameter, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return TemplateParameter{}, false
}

// SupportsFormat reports whether the template declares the format.
func (t *ReportTemplate) SupportsFormat(f ReportFormat) bool {
	for _, supported := range t.Formats {
		if supported == f {
			return true
		}
	}
	return false
}

// RequiredParameters returns the subset of parameters marked required.
func (t *ReportTemplate) RequiredParameters() []TemplateParameter {
	required := make([]TemplateParameter, 0, len(t.Parameters))
	for _, p := range t.Parameters {
		if p.Required {
			required = append(required, p)
		}
	}
	return required
}

// Value marshals the parameter schema to JSON for persistence.
func (p TemplateParameters) Value() (driver.Value, error) {
	if p == nil {
		p = TemplateParameters{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal template parameters: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the parameter schema.
func (p *TemplateParameters) Scan(value interface{}) error {
	return scanJSON(value, p, "TemplateParameters")
}

// Value marshals the format list to JSON for persistence.
func (f FormatList) Value() (driver.Value, error) {
	if f == nil {
		f = FormatList{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal format list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the format list.
func (f *FormatList) Scan(value interface{}) error {
	return scanJSON(value, f, "FormatList")
}

// IsValidFormat reports whether f is a known output format.
func IsValidFormat(f ReportFormat) bool {
	switch f {
	case ReportFormatPDF, ReportFormatExcel, ReportFormatPPTX:
		return true
	default:
		return false
	}
}

// IsValidCategory reports whether c is a known template category.
func IsValidCategory(c TemplateCategory) bool {
	switch c {
	case CategoryExecutive, CategoryFinancial, CategoryMarket, CategoryPortfolio, CategoryCustom:
		return true
	default:
		return false
	}
}

func scanJSON(value, dest interface{}, label string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, label)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", label, err)
	}
	return nil
}
