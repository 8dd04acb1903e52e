package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
	"github.com/mborgeson/portfolio-reports-api/pkg/response"
)

type wizardService interface {
	Open(ctx context.Context) (*models.WizardSession, error)
	Get(ctx context.Context, id string) (*models.WizardSession, error)
	Close(ctx context.Context, id string) error
	SelectTemplate(ctx context.Context, id, templateID string) (*models.WizardSession, error)
	SetValue(ctx context.Context, id, name string, value interface{}) (*models.WizardSession, error)
	SetFormat(ctx context.Context, id string, format models.ReportFormat) (*models.WizardSession, error)
	Advance(ctx context.Context, id string) (*models.WizardSession, error)
	Retreat(ctx context.Context, id string) (*models.WizardSession, error)
	Retry(ctx context.Context, id string) (*models.WizardSession, error)
	Form(ctx context.Context, id string) (*dto.FormView, error)
	State(ctx context.Context, session *models.WizardSession) dto.WizardStateResponse
}

// WizardHandler exposes the report wizard session endpoints.
type WizardHandler struct {
	wizard wizardService
}

// NewWizardHandler constructs the handler.
func NewWizardHandler(wizard wizardService) *WizardHandler {
	return &WizardHandler{wizard: wizard}
}

// Open godoc
// @Summary Start a report wizard session
// @Tags Wizard
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /wizard/sessions [post]
func (h *WizardHandler) Open(c *gin.Context) {
	session, err := h.wizard.Open(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, h.wizard.State(c.Request.Context(), session))
}

// Get godoc
// @Summary Get wizard session state
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id} [get]
func (h *WizardHandler) Get(c *gin.Context) {
	session, err := h.wizard.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// Close godoc
// @Summary Discard a wizard session
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Router /wizard/sessions/{id} [delete]
func (h *WizardHandler) Close(c *gin.Context) {
	if err := h.wizard.Close(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SelectTemplate godoc
// @Summary Choose the session's report template
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectTemplateRequest true "Template choice"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/template [put]
func (h *WizardHandler) SelectTemplate(c *gin.Context) {
	var req dto.SelectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "templateId is required"))
		return
	}
	session, err := h.wizard.SelectTemplate(c.Request.Context(), c.Param("id"), req.TemplateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// SetValue godoc
// @Summary Set one parameter value on the configure step
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetValueRequest true "Parameter value"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/values [put]
func (h *WizardHandler) SetValue(c *gin.Context) {
	var req dto.SetValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "name is required"))
		return
	}
	session, err := h.wizard.SetValue(c.Request.Context(), c.Param("id"), req.Name, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// SetFormat godoc
// @Summary Choose the session's output format
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetFormatRequest true "Output format"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/format [put]
func (h *WizardHandler) SetFormat(c *gin.Context) {
	var req dto.SetFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format is required"))
		return
	}
	session, err := h.wizard.SetFormat(c.Request.Context(), c.Param("id"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// Advance godoc
// @Summary Advance the wizard to the next step
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/advance [post]
func (h *WizardHandler) Advance(c *gin.Context) {
	session, err := h.wizard.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// Retreat godoc
// @Summary Return the wizard to the previous step
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/retreat [post]
func (h *WizardHandler) Retreat(c *gin.Context) {
	session, err := h.wizard.Retreat(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// Retry godoc
// @Summary Retry a failed report submission
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/retry [post]
func (h *WizardHandler) Retry(c *gin.Context) {
	session, err := h.wizard.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.wizard.State(c.Request.Context(), session), nil)
}

// Form godoc
// @Summary Render the configure-step form for the selected template
// @Tags Wizard
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /wizard/sessions/{id}/form [get]
func (h *WizardHandler) Form(c *gin.Context) {
	form, err := h.wizard.Form(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}
