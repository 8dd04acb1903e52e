package models

import "time"

// WizardStep enumerates the fixed forward sequence of the report wizard.
type WizardStep string

const (
	StepTemplate  WizardStep = "template"
	StepConfigure WizardStep = "configure"
	StepFormat    WizardStep = "format"
	StepGenerate  WizardStep = "generate"
)

// WizardSteps is the fixed step order. Advancing and retreating both walk
// this slice; there is no other path through the wizard.
var WizardSteps = []WizardStep{StepTemplate, StepConfigure, StepFormat, StepGenerate}

// StepIndex returns the position of step in the sequence, or -1.
func StepIndex(step WizardStep) int {
	for i, s := range WizardSteps {
		if s == step {
			return i
		}
	}
	return -1
}

// WizardSession is one open wizard instance. Sessions are created on open,
// mutated by explicit transitions, and deleted on close; closing always
// discards state so a reopened wizard starts from scratch.
type WizardSession struct {
	ID          string                 `json:"id"`
	Step        WizardStep             `json:"step"`
	Completed   []WizardStep           `json:"completed"`
	TemplateID  *string                `json:"template_id,omitempty"`
	Values      map[string]interface{} `json:"values"`
	Errors      map[string]string      `json:"errors,omitempty"`
	Format      *ReportFormat          `json:"format,omitempty"`
	JobID       *string                `json:"job_id,omitempty"`
	SubmitError *string                `json:"submit_error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewWizardSession returns a session in the initial state.
func NewWizardSession(id string) *WizardSession {
	now := time.Now().UTC()
	return &WizardSession{
		ID:        id,
		Step:      StepTemplate,
		Completed: []WizardStep{},
		Values:    map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NextStep returns the step after the current one and whether one exists.
func (s *WizardSession) NextStep() (WizardStep, bool) {
	idx := StepIndex(s.Step)
	if idx < 0 || idx >= len(WizardSteps)-1 {
		return "", false
	}
	return WizardSteps[idx+1], true
}

// PrevStep returns the step before the current one and whether one exists.
func (s *WizardSession) PrevStep() (WizardStep, bool) {
	idx := StepIndex(s.Step)
	if idx <= 0 {
		return "", false
	}
	return WizardSteps[idx-1], true
}

// IsCompleted reports whether the step is in the completed set.
func (s *WizardSession) IsCompleted(step WizardStep) bool {
	for _, c := range s.Completed {
		if c == step {
			return true
		}
	}
	return false
}

// MarkCompleted appends the step to the completed set once.
func (s *WizardSession) MarkCompleted(step WizardStep) {
	if s.IsCompleted(step) {
		return
	}
	s.Completed = append(s.Completed, step)
}

// ClearCompleted removes the step so re-entering it forces re-validation.
func (s *WizardSession) ClearCompleted(step WizardStep) {
	remaining := s.Completed[:0]
	for _, c := range s.Completed {
		if c != step {
			remaining = append(remaining, c)
		}
	}
	s.Completed = remaining
}

// SetValue replaces exactly one key in the value map, preserving all others,
// and drops any stale field error for that key.
func (s *WizardSession) SetValue(name string, value interface{}) {
	next := make(map[string]interface{}, len(s.Values)+1)
	for k, v := range s.Values {
		next[k] = v
	}
	if value == nil {
		delete(next, name)
	} else {
		next[name] = value
	}
	s.Values = next
	if s.Errors != nil {
		delete(s.Errors, name)
	}
}
