package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
)

type wizardSessionStore interface {
	Save(ctx context.Context, session *models.WizardSession) error
	Get(ctx context.Context, id string) (*models.WizardSession, error)
	Delete(ctx context.Context, id string) error
}

type templateResolver interface {
	Get(ctx context.Context, id string) (*models.ReportTemplate, error)
}

type reportSubmitter interface {
	CreateJob(ctx context.Context, req dto.GenerateReportRequest) (*dto.ReportJobResponse, error)
}

// WizardService owns wizard sessions and enforces step-transition legality.
// The step order is fixed: template, configure, format, generate.
type WizardService struct {
	sessions wizardSessionStore
	catalog  templateResolver
	reports  reportSubmitter
	logger   *zap.Logger
}

// NewWizardService constructs the wizard service.
func NewWizardService(sessions wizardSessionStore, catalog templateResolver, reports reportSubmitter, logger *zap.Logger) *WizardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{sessions: sessions, catalog: catalog, reports: reports, logger: logger}
}

// Open creates a fresh session in the initial state.
func (s *WizardService) Open(ctx context.Context) (*models.WizardSession, error) {
	session := models.NewWizardSession(uuid.NewString())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open wizard session")
	}
	return session, nil
}

// Get loads an existing session.
func (s *WizardService) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	return s.sessions.Get(ctx, id)
}

// Close deletes the session. Closing always discards state, so the next
// Open starts from scratch regardless of which step was active.
func (s *WizardService) Close(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// SelectTemplate binds a template to the session. Changing templates resets
// the parameter values, format, and downstream completions since the old
// selections no longer apply.
func (s *WizardService) SelectTemplate(ctx context.Context, id, templateID string) (*models.WizardSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepGenerate {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "cannot change template after generation started")
	}
	tpl, err := s.catalog.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if session.TemplateID == nil || *session.TemplateID != tpl.ID {
		session.TemplateID = &tpl.ID
		session.Values = map[string]interface{}{}
		session.Errors = nil
		session.Format = nil
		session.ClearCompleted(models.StepConfigure)
		session.ClearCompleted(models.StepFormat)
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return session, nil
}

// SetValue replaces one parameter value, preserving every other key, and
// clears that key's field error. Unknown parameter names are rejected.
func (s *WizardService) SetValue(ctx context.Context, id, name string, value interface{}) (*models.WizardSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepGenerate {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "cannot change parameters after generation started")
	}
	tpl, err := s.requireTemplate(ctx, session)
	if err != nil {
		return nil, err
	}
	param, ok := tpl.Parameter(name)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown parameter "+name)
	}
	coerced, err := CoerceParameterValue(param, value)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	session.SetValue(name, coerced)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return session, nil
}

// SetFormat binds the output format. Only formats the selected template
// declares are accepted.
func (s *WizardService) SetFormat(ctx context.Context, id string, format models.ReportFormat) (*models.WizardSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepGenerate {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "cannot change format after generation started")
	}
	tpl, err := s.requireTemplate(ctx, session)
	if err != nil {
		return nil, err
	}
	if !models.IsValidFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown format "+string(format))
	}
	if !tpl.SupportsFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, "")
	}
	session.Format = &format
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return session, nil
}

// CanAdvance checks whether the session may leave its current step. For the
// configure step it also refreshes the field-error map, which then holds
// exactly the unmet required parameter names.
func (s *WizardService) CanAdvance(ctx context.Context, session *models.WizardSession) (bool, error) {
	switch session.Step {
	case models.StepTemplate:
		return session.TemplateID != nil, nil
	case models.StepConfigure:
		tpl, err := s.requireTemplate(ctx, session)
		if err != nil {
			return false, err
		}
		fieldErrors := ValidateParameters(tpl, session.Values)
		if len(fieldErrors) > 0 {
			session.Errors = fieldErrors
			return false, nil
		}
		session.Errors = nil
		return true, nil
	case models.StepFormat:
		if session.Format == nil {
			return false, nil
		}
		tpl, err := s.requireTemplate(ctx, session)
		if err != nil {
			return false, err
		}
		return tpl.SupportsFormat(*session.Format), nil
	case models.StepGenerate:
		return false, nil
	default:
		return false, nil
	}
}

// Advance moves the session one step forward. Entering the generate step
// submits the report job first and records the job id; a failed submission
// still lands on generate with the error captured, never rolling back.
func (s *WizardService) Advance(ctx context.Context, id string) (*models.WizardSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanAdvance(ctx, session)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Persist any freshly computed field errors before rejecting.
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			s.logger.Sugar().Warnw("failed to save wizard validation state", "session_id", id, "error", saveErr)
		}
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "current step is incomplete")
	}
	next, ok := session.NextStep()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "no further step")
	}

	session.MarkCompleted(session.Step)
	if next == models.StepGenerate {
		s.submit(ctx, session)
	}
	session.Step = next

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return session, nil
}

// Retreat moves the session one step back, removing the target step from the
// completed set so re-entering it forces re-validation. Back navigation is
// disabled at template (nothing before it) and at generate (a job may
// already be in flight).
func (s *WizardService) Retreat(ctx context.Context, id string) (*models.WizardSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step == models.StepGenerate {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "cannot navigate back from the generate step")
	}
	prev, ok := session.PrevStep()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "already at the first step")
	}
	session.ClearCompleted(prev)
	session.Step = prev
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return session, nil
}

// Retry clears the held job id and resubmits with the template, format, and
// parameter mapping already on the session. Parameters were validated to
// reach generate, so no re-validation happens here.
func (s *WizardService) Retry(ctx context.Context, id string) (*models.WizardSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepGenerate {
		return nil, appErrors.Clone(appErrors.ErrStepLocked, "retry is only available at the generate step")
	}
	session.JobID = nil
	session.SubmitError = nil
	s.submit(ctx, session)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save wizard session")
	}
	return session, nil
}

// Form renders the configure-step form descriptor for the session.
func (s *WizardService) Form(ctx context.Context, id string) (*dto.FormView, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl, err := s.requireTemplate(ctx, session)
	if err != nil {
		return nil, err
	}
	form := BuildForm(tpl, session.Values, session.Errors)
	return &form, nil
}

// State assembles the API view of a session, including transition legality.
func (s *WizardService) State(ctx context.Context, session *models.WizardSession) dto.WizardStateResponse {
	canAdvance, err := s.CanAdvance(ctx, session)
	if err != nil {
		canAdvance = false
	}
	_, hasPrev := session.PrevStep()
	return dto.WizardStateResponse{
		ID:          session.ID,
		Step:        session.Step,
		Completed:   session.Completed,
		TemplateID:  session.TemplateID,
		Values:      session.Values,
		Errors:      session.Errors,
		Format:      session.Format,
		JobID:       session.JobID,
		SubmitError: session.SubmitError,
		CanAdvance:  canAdvance,
		CanRetreat:  hasPrev && session.Step != models.StepGenerate,
	}
}

func (s *WizardService) submit(ctx context.Context, session *models.WizardSession) {
	if session.TemplateID == nil || session.Format == nil {
		msg := "template and format must be selected"
		session.SubmitError = &msg
		return
	}
	resp, err := s.reports.CreateJob(ctx, dto.GenerateReportRequest{
		TemplateID: *session.TemplateID,
		Format:     *session.Format,
		Parameters: session.Values,
	})
	if err != nil {
		msg := appErrors.FromError(err).Message
		session.SubmitError = &msg
		s.logger.Sugar().Warnw("wizard submission failed", "session_id", session.ID, "error", err)
		return
	}
	session.JobID = &resp.ID
	session.SubmitError = nil
}

func (s *WizardService) requireTemplate(ctx context.Context, session *models.WizardSession) (*models.ReportTemplate, error) {
	if session.TemplateID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no template selected")
	}
	return s.catalog.Get(ctx, *session.TemplateID)
}
