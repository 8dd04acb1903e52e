package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
)

type sessionStoreStub struct {
	sessions map[string]*models.WizardSession
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: map[string]*models.WizardSession{}}
}

func (s *sessionStoreStub) Save(ctx context.Context, session *models.WizardSession) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionStoreStub) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.ErrSessionExpired
	}
	return session, nil
}

func (s *sessionStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type catalogStub struct {
	templates map[string]*models.ReportTemplate
}

func (c catalogStub) Get(ctx context.Context, id string) (*models.ReportTemplate, error) {
	tpl, ok := c.templates[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
	}
	return tpl, nil
}

type submitterStub struct {
	requests []dto.GenerateReportRequest
	err      error
	nextID   string
}

func (s *submitterStub) CreateJob(ctx context.Context, req dto.GenerateReportRequest) (*dto.ReportJobResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	id := s.nextID
	if id == "" {
		id = "job-1"
	}
	return &dto.ReportJobResponse{ID: id, Status: models.JobStatusPending}, nil
}

func datedTemplate() *models.ReportTemplate {
	return &models.ReportTemplate{
		ID:       "tpl-dated",
		Name:     "Quarterly Performance",
		Category: models.CategoryPortfolio,
		Parameters: models.TemplateParameters{
			{Name: "startDate", Label: "Start Date", Type: models.ParameterDate, Required: true},
			{Name: "market", Label: "Market", Type: models.ParameterSelect, Options: []string{"Phoenix", "Dallas"}},
		},
		Formats: models.FormatList{models.ReportFormatPDF, models.ReportFormatExcel},
	}
}

func bareTemplate() *models.ReportTemplate {
	return &models.ReportTemplate{
		ID:       "tpl-bare",
		Name:     "Executive Summary",
		Category: models.CategoryExecutive,
		Formats:  models.FormatList{models.ReportFormatPDF, models.ReportFormatPPTX},
	}
}

func newWizardServiceForTest(t *testing.T) (*WizardService, *sessionStoreStub, *submitterStub) {
	t.Helper()
	store := newSessionStoreStub()
	catalog := catalogStub{templates: map[string]*models.ReportTemplate{
		"tpl-dated": datedTemplate(),
		"tpl-bare":  bareTemplate(),
	}}
	submitter := &submitterStub{}
	return NewWizardService(store, catalog, submitter, nil), store, submitter
}

func openSession(t *testing.T, svc *WizardService) *models.WizardSession {
	t.Helper()
	session, err := svc.Open(context.Background())
	require.NoError(t, err)
	return session
}

func TestOpenStartsAtTemplateStep(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	assert.Equal(t, models.StepTemplate, session.Step)
	assert.Empty(t, session.Completed)
	assert.Nil(t, session.TemplateID)
	assert.Nil(t, session.JobID)

	ok, err := svc.CanAdvance(context.Background(), session)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvanceBlockedUntilTemplateSelected(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)

	_, err := svc.Advance(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStepLocked.Code, appErrors.FromError(err).Code)

	_, err = svc.SelectTemplate(context.Background(), session.ID, "tpl-dated")
	require.NoError(t, err)
	session, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfigure, session.Step)
	assert.True(t, session.IsCompleted(models.StepTemplate))
}

func TestConfigureErrorsListExactlyUnmetRequiredParameters(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	_, err := svc.SelectTemplate(context.Background(), session.ID, "tpl-dated")
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), session.ID)
	require.Error(t, err)
	session, err = svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfigure, session.Step)
	require.Len(t, session.Errors, 1)
	assert.Equal(t, "Start Date is required", session.Errors["startDate"])

	_, err = svc.SetValue(context.Background(), session.ID, "startDate", "2026-03-31")
	require.NoError(t, err)
	session, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepFormat, session.Step)
	assert.Empty(t, session.Errors)
}

func TestZeroParameterTemplateAdvancesImmediately(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	_, err := svc.SelectTemplate(context.Background(), session.ID, "tpl-bare")
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)

	session, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepFormat, session.Step)
}

func TestSetValuePreservesOtherKeysAndClearsFieldError(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	_, err := svc.SelectTemplate(context.Background(), session.ID, "tpl-dated")
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = svc.SetValue(context.Background(), session.ID, "market", "Phoenix")
	require.NoError(t, err)

	// Failed advance populates the startDate error.
	_, err = svc.Advance(context.Background(), session.ID)
	require.Error(t, err)

	session, err = svc.SetValue(context.Background(), session.ID, "startDate", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, "Phoenix", session.Values["market"])
	assert.Equal(t, "2026-03-31", session.Values["startDate"])
	assert.NotContains(t, session.Errors, "startDate")
}

func TestSetValueRejectsUnknownParameter(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	_, err := svc.SelectTemplate(context.Background(), session.ID, "tpl-dated")
	require.NoError(t, err)

	_, err = svc.SetValue(context.Background(), session.ID, "nope", "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSetFormatRejectsUnsupportedFormat(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	_, err := svc.SelectTemplate(context.Background(), session.ID, "tpl-dated")
	require.NoError(t, err)

	_, err = svc.SetFormat(context.Background(), session.ID, models.ReportFormatPPTX)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)

	session, err = svc.SetFormat(context.Background(), session.ID, models.ReportFormatExcel)
	require.NoError(t, err)
	require.NotNil(t, session.Format)
	assert.Equal(t, models.ReportFormatExcel, *session.Format)
}

func advanceToFormat(t *testing.T, svc *WizardService, sessionID string) {
	t.Helper()
	_, err := svc.SelectTemplate(context.Background(), sessionID, "tpl-dated")
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), sessionID)
	require.NoError(t, err)
	_, err = svc.SetValue(context.Background(), sessionID, "startDate", "2026-03-31")
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), sessionID)
	require.NoError(t, err)
}

func TestAdvanceFromFormatSubmitsJob(t *testing.T) {
	svc, _, submitter := newWizardServiceForTest(t)
	session := openSession(t, svc)
	advanceToFormat(t, svc, session.ID)
	_, err := svc.SetFormat(context.Background(), session.ID, models.ReportFormatPDF)
	require.NoError(t, err)

	session, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepGenerate, session.Step)
	require.NotNil(t, session.JobID)
	assert.Equal(t, "job-1", *session.JobID)
	assert.Nil(t, session.SubmitError)

	require.Len(t, submitter.requests, 1)
	assert.Equal(t, "tpl-dated", submitter.requests[0].TemplateID)
	assert.Equal(t, models.ReportFormatPDF, submitter.requests[0].Format)
	assert.Equal(t, "2026-03-31", submitter.requests[0].Parameters["startDate"])
}

func TestSubmissionFailureStaysOnGenerateWithError(t *testing.T) {
	svc, _, submitter := newWizardServiceForTest(t)
	submitter.err = errors.New("connection refused")
	session := openSession(t, svc)
	advanceToFormat(t, svc, session.ID)
	_, err := svc.SetFormat(context.Background(), session.ID, models.ReportFormatPDF)
	require.NoError(t, err)

	session, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepGenerate, session.Step)
	assert.Nil(t, session.JobID)
	require.NotNil(t, session.SubmitError)
}

func TestRetryResubmitsSameRequestWithoutRevalidation(t *testing.T) {
	svc, _, submitter := newWizardServiceForTest(t)
	submitter.err = errors.New("connection refused")
	session := openSession(t, svc)
	advanceToFormat(t, svc, session.ID)
	_, err := svc.SetFormat(context.Background(), session.ID, models.ReportFormatPDF)
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)

	submitter.err = nil
	submitter.nextID = "job-2"
	session, err = svc.Retry(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, session.JobID)
	assert.Equal(t, "job-2", *session.JobID)
	assert.Nil(t, session.SubmitError)

	require.Len(t, submitter.requests, 2)
	assert.Equal(t, submitter.requests[0], submitter.requests[1])
}

func TestRetryOnlyAvailableAtGenerate(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	_, err := svc.Retry(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStepLocked.Code, appErrors.FromError(err).Code)
}

func TestRetreatIllegalFromTemplateAndGenerate(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)

	_, err := svc.Retreat(context.Background(), session.ID)
	require.Error(t, err)

	advanceToFormat(t, svc, session.ID)
	_, err = svc.SetFormat(context.Background(), session.ID, models.ReportFormatPDF)
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = svc.Retreat(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStepLocked.Code, appErrors.FromError(err).Code)
}

func TestRetreatClearsTargetStepCompletion(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	advanceToFormat(t, svc, session.ID)

	session, err := svc.Retreat(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepConfigure, session.Step)
	assert.False(t, session.IsCompleted(models.StepConfigure))
	assert.True(t, session.IsCompleted(models.StepTemplate))
}

func TestChangingTemplateResetsDownstreamSelections(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	advanceToFormat(t, svc, session.ID)
	_, err := svc.SetFormat(context.Background(), session.ID, models.ReportFormatExcel)
	require.NoError(t, err)

	session, err = svc.SelectTemplate(context.Background(), session.ID, "tpl-bare")
	require.NoError(t, err)
	assert.Empty(t, session.Values)
	assert.Nil(t, session.Format)
	assert.False(t, session.IsCompleted(models.StepConfigure))
	assert.False(t, session.IsCompleted(models.StepFormat))
}

func TestCloseDiscardsSession(t *testing.T) {
	svc, store, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)
	advanceToFormat(t, svc, session.ID)

	require.NoError(t, svc.Close(context.Background(), session.ID))
	assert.NotContains(t, store.sessions, session.ID)

	_, err := svc.Get(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErrors.FromError(err).Code)

	fresh := openSession(t, svc)
	assert.Equal(t, models.StepTemplate, fresh.Step)
	assert.Nil(t, fresh.TemplateID)
}

func TestStateReportsTransitionLegality(t *testing.T) {
	svc, _, _ := newWizardServiceForTest(t)
	session := openSession(t, svc)

	state := svc.State(context.Background(), session)
	assert.False(t, state.CanAdvance)
	assert.False(t, state.CanRetreat)

	advanceToFormat(t, svc, session.ID)
	session, err := svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	state = svc.State(context.Background(), session)
	assert.False(t, state.CanAdvance)
	assert.True(t, state.CanRetreat)

	_, err = svc.SetFormat(context.Background(), session.ID, models.ReportFormatPDF)
	require.NoError(t, err)
	session, err = svc.Get(context.Background(), session.ID)
	require.NoError(t, err)
	state = svc.State(context.Background(), session)
	assert.True(t, state.CanAdvance)
}
