package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
)

// Parameter values arrive untyped from JSON and stay opaque until validated.
// Each parameter type has one coerce function; dispatch is a plain switch
// over the declared type.

// CoerceParameterValue normalises a raw value for the given parameter.
// A nil result with nil error means "unset" (e.g. empty numeric input).
func CoerceParameterValue(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch param.Type {
	case models.ParameterString:
		return coerceString(param, raw)
	case models.ParameterNumber:
		return coerceNumber(param, raw)
	case models.ParameterBoolean:
		return coerceBoolean(param, raw)
	case models.ParameterDate:
		return coerceDate(param, raw)
	case models.ParameterSelect:
		return coerceSelect(param, raw)
	case models.ParameterMultiselect:
		return coerceMultiselect(param, raw)
	default:
		return nil, fmt.Errorf("unknown parameter type %q", param.Type)
	}
}

// ValidateParameters checks every required parameter has a defined,
// non-empty value and every present value passes its type's coercion. The
// returned error map holds exactly the offending parameter names.
func ValidateParameters(tpl *models.ReportTemplate, values map[string]interface{}) map[string]string {
	fieldErrors := map[string]string{}
	for _, param := range tpl.Parameters {
		raw, present := values[param.Name]
		if !present || isEmptyValue(raw) {
			if param.Required {
				fieldErrors[param.Name] = fmt.Sprintf("%s is required", param.Label)
			}
			continue
		}
		if _, err := CoerceParameterValue(param, raw); err != nil {
			fieldErrors[param.Name] = err.Error()
		}
	}
	return fieldErrors
}

// ApplyDefaults returns a copy of values with declared defaults filled in
// for parameters the user never touched. Booleans fall back to false.
func ApplyDefaults(tpl *models.ReportTemplate, values map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(tpl.Parameters))
	for k, v := range values {
		merged[k] = v
	}
	for _, param := range tpl.Parameters {
		if _, present := merged[param.Name]; present {
			continue
		}
		if param.Default != nil {
			merged[param.Name] = param.Default
			continue
		}
		if param.Type == models.ParameterBoolean {
			merged[param.Name] = false
		}
	}
	return merged
}

// BuildForm renders the configure-step descriptor for a template. A template
// with zero parameters yields an explicitly empty form so clients can show a
// "no configuration needed" affordance.
func BuildForm(tpl *models.ReportTemplate, values map[string]interface{}, fieldErrors map[string]string) dto.FormView {
	if len(tpl.Parameters) == 0 {
		return dto.FormView{Fields: []dto.FormFieldView{}, Empty: true}
	}
	fields := make([]dto.FormFieldView, 0, len(tpl.Parameters))
	for _, param := range tpl.Parameters {
		options := param.Options
		if options == nil {
			// select/multiselect without declared options renders an
			// empty choice set rather than failing.
			options = []string{}
		}
		fields = append(fields, dto.FormFieldView{
			Name:        param.Name,
			Label:       param.Label,
			Control:     controlForType(param.Type),
			Required:    param.Required,
			Description: param.Description,
			Options:     options,
			Value:       values[param.Name],
			Default:     param.Default,
			Error:       fieldErrors[param.Name],
			Type:        param.Type,
		})
	}
	return dto.FormView{Fields: fields}
}

func controlForType(t models.ParameterType) string {
	switch t {
	case models.ParameterString:
		return "text"
	case models.ParameterNumber:
		return "number"
	case models.ParameterBoolean:
		return "checkbox"
	case models.ParameterDate:
		return "date"
	case models.ParameterSelect:
		return "select"
	case models.ParameterMultiselect:
		return "checkbox-group"
	default:
		return "text"
	}
}

func coerceString(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be text", param.Label)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return s, nil
}

func coerceNumber(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", param.Label)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("%s must be a number", param.Label)
	}
}

func coerceBoolean(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("%s must be true or false", param.Label)
	}
	return b, nil
}

func coerceDate(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be a date", param.Label)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", param.Label)
	}
	return s, nil
}

func coerceSelect(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be one of the listed options", param.Label)
	}
	if s == "" {
		return nil, nil
	}
	if !containsOption(param.Options, s) {
		return nil, fmt.Errorf("%s must be one of the listed options", param.Label)
	}
	return s, nil
}

func coerceMultiselect(param models.TemplateParameter, raw interface{}) (interface{}, error) {
	items, err := toStringSlice(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a list of options", param.Label)
	}
	if len(items) == 0 {
		return nil, nil
	}
	for _, item := range items {
		if !containsOption(param.Options, item) {
			return nil, fmt.Errorf("%s must be one of the listed options", param.Label)
		}
	}
	return items, nil
}

func toStringSlice(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("not a string list")
			}
			items = append(items, s)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("not a string list")
	}
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

func isEmptyValue(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}
