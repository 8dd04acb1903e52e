package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
	"github.com/mborgeson/portfolio-reports-api/pkg/response"
)

type templateCatalog interface {
	List(ctx context.Context) ([]models.ReportTemplate, error)
	Get(ctx context.Context, id string) (*models.ReportTemplate, error)
}

// TemplateHandler exposes the report template catalog.
type TemplateHandler struct {
	catalog templateCatalog
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(catalog templateCatalog) *TemplateHandler {
	return &TemplateHandler{catalog: catalog}
}

// List godoc
// @Summary List report templates
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	if h.catalog == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "template catalog not configured"))
		return
	}
	templates, err := h.catalog.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Get godoc
// @Summary Get a report template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(c *gin.Context) {
	if h.catalog == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "template catalog not configured"))
		return
	}
	tpl, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tpl, nil)
}
