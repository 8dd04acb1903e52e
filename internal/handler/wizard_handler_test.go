package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
)

type fakeWizardSrv struct {
	session *models.WizardSession
	form    *dto.FormView
	err     error
	last    struct {
		method    string
		sessionID string
		template  string
		paramName string
		value     interface{}
		format    models.ReportFormat
	}
}

func (f *fakeWizardSrv) record(method, sessionID string) (*models.WizardSession, error) {
	f.last.method = method
	f.last.sessionID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeWizardSrv) Open(context.Context) (*models.WizardSession, error) {
	return f.record("open", "")
}

func (f *fakeWizardSrv) Get(_ context.Context, id string) (*models.WizardSession, error) {
	return f.record("get", id)
}

func (f *fakeWizardSrv) Close(_ context.Context, id string) error {
	f.last.method = "close"
	f.last.sessionID = id
	return f.err
}

func (f *fakeWizardSrv) SelectTemplate(_ context.Context, id, templateID string) (*models.WizardSession, error) {
	f.last.template = templateID
	return f.record("selectTemplate", id)
}

func (f *fakeWizardSrv) SetValue(_ context.Context, id, name string, value interface{}) (*models.WizardSession, error) {
	f.last.paramName = name
	f.last.value = value
	return f.record("setValue", id)
}

func (f *fakeWizardSrv) SetFormat(_ context.Context, id string, format models.ReportFormat) (*models.WizardSession, error) {
	f.last.format = format
	return f.record("setFormat", id)
}

func (f *fakeWizardSrv) Advance(_ context.Context, id string) (*models.WizardSession, error) {
	return f.record("advance", id)
}

func (f *fakeWizardSrv) Retreat(_ context.Context, id string) (*models.WizardSession, error) {
	return f.record("retreat", id)
}

func (f *fakeWizardSrv) Retry(_ context.Context, id string) (*models.WizardSession, error) {
	return f.record("retry", id)
}

func (f *fakeWizardSrv) Form(_ context.Context, id string) (*dto.FormView, error) {
	f.last.method = "form"
	f.last.sessionID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.form, nil
}

func (f *fakeWizardSrv) State(_ context.Context, session *models.WizardSession) dto.WizardStateResponse {
	return dto.WizardStateResponse{ID: session.ID, Step: session.Step, Values: session.Values}
}

func wizardTestContext(t *testing.T, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/wizard/sessions", strings.NewReader(body))
	c.Params = gin.Params{{Key: "id", Value: "wiz-1"}}
	return c, rec
}

func TestWizardHandlerOpenReturnsCreatedState(t *testing.T) {
	service := &fakeWizardSrv{session: models.NewWizardSession("wiz-1")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPost, "")
	handler.Open(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "wiz-1", envelope.Data["id"])
	assert.Equal(t, string(models.StepTemplate), envelope.Data["step"])
}

func TestWizardHandlerGetExpiredSession(t *testing.T) {
	service := &fakeWizardSrv{err: appErrors.Clone(appErrors.ErrNotFound, "wizard session expired")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodGet, "")
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "wiz-1", service.last.sessionID)
}

func TestWizardHandlerCloseReturnsNoContent(t *testing.T) {
	service := &fakeWizardSrv{}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodDelete, "")
	handler.Close(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "close", service.last.method)
}

func TestWizardHandlerSelectTemplateBindsPayload(t *testing.T) {
	service := &fakeWizardSrv{session: models.NewWizardSession("wiz-1")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPut, `{"templateId":"tpl-1"}`)
	handler.SelectTemplate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tpl-1", service.last.template)
	assert.Equal(t, "wiz-1", service.last.sessionID)
}

func TestWizardHandlerSelectTemplateRejectsEmptyBody(t *testing.T) {
	service := &fakeWizardSrv{}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPut, `{}`)
	handler.SelectTemplate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, service.last.method)
}

func TestWizardHandlerSetValuePassesRawValue(t *testing.T) {
	service := &fakeWizardSrv{session: models.NewWizardSession("wiz-1")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPut, `{"name":"startDate","value":"2026-03-31"}`)
	handler.SetValue(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "startDate", service.last.paramName)
	assert.Equal(t, "2026-03-31", service.last.value)
}

func TestWizardHandlerSetFormatSurfacesServiceError(t *testing.T) {
	service := &fakeWizardSrv{err: appErrors.Clone(appErrors.ErrUnsupportedFormat, "format pptx is not supported by this template")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPut, `{"format":"pptx"}`)
	handler.SetFormat(c)

	assert.Equal(t, appErrors.ErrUnsupportedFormat.Status, rec.Code)
	assert.Equal(t, models.ReportFormatPPTX, service.last.format)
}

func TestWizardHandlerAdvanceAndRetreat(t *testing.T) {
	service := &fakeWizardSrv{session: models.NewWizardSession("wiz-1")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPost, "")
	handler.Advance(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "advance", service.last.method)

	c, rec = wizardTestContext(t, http.MethodPost, "")
	handler.Retreat(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "retreat", service.last.method)
}

func TestWizardHandlerRetry(t *testing.T) {
	service := &fakeWizardSrv{session: models.NewWizardSession("wiz-1")}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodPost, "")
	handler.Retry(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "retry", service.last.method)
}

func TestWizardHandlerFormRendersFields(t *testing.T) {
	service := &fakeWizardSrv{form: &dto.FormView{
		Fields: []dto.FormFieldView{{Name: "startDate", Control: "date"}},
	}}
	handler := NewWizardHandler(service)

	c, rec := wizardTestContext(t, http.MethodGet, "")
	handler.Form(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.FormView `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Len(t, envelope.Data.Fields, 1)
	assert.Equal(t, "startDate", envelope.Data.Fields[0].Name)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
