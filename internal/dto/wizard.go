package dto

import "github.com/mborgeson/portfolio-reports-api/internal/models"

// SelectTemplateRequest binds the wizard template choice.
type SelectTemplateRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

// SetValueRequest binds a single parameter value change. A null value clears
// the parameter.
type SetValueRequest struct {
	Name  string      `json:"name" binding:"required"`
	Value interface{} `json:"value"`
}

// SetFormatRequest binds the wizard output-format choice.
type SetFormatRequest struct {
	Format models.ReportFormat `json:"format" binding:"required"`
}

// WizardStateResponse mirrors the session for API consumers.
type WizardStateResponse struct {
	ID          string                 `json:"id"`
	Step        models.WizardStep      `json:"step"`
	Completed   []models.WizardStep    `json:"completed"`
	TemplateID  *string                `json:"templateId,omitempty"`
	Values      map[string]interface{} `json:"values"`
	Errors      map[string]string      `json:"errors,omitempty"`
	Format      *models.ReportFormat   `json:"format,omitempty"`
	JobID       *string                `json:"jobId,omitempty"`
	SubmitError *string                `json:"submitError,omitempty"`
	CanAdvance  bool                   `json:"canAdvance"`
	CanRetreat  bool                   `json:"canRetreat"`
}

// FormFieldView is one rendered input control of the configure step.
type FormFieldView struct {
	Name        string               `json:"name"`
	Label       string               `json:"label"`
	Control     string               `json:"control"`
	Required    bool                 `json:"required"`
	Description string               `json:"description,omitempty"`
	Options     []string             `json:"options"`
	Value       interface{}          `json:"value,omitempty"`
	Default     interface{}          `json:"default,omitempty"`
	Error       string               `json:"error,omitempty"`
	Type        models.ParameterType `json:"type"`
}

// FormView is the configure-step descriptor. Empty declares the template
// needs no configuration, so clients can show that affordance instead of an
// empty form.
type FormView struct {
	Fields []FormFieldView `json:"fields"`
	Empty  bool            `json:"empty"`
}
