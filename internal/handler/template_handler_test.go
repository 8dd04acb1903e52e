package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
)

type fakeCatalogSrv struct {
	templates []models.ReportTemplate
	err       error
	lastID    string
}

func (f *fakeCatalogSrv) List(context.Context) ([]models.ReportTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.templates, nil
}

func (f *fakeCatalogSrv) Get(_ context.Context, id string) (*models.ReportTemplate, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.templates {
		if f.templates[i].ID == id {
			return &f.templates[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
}

func TestTemplateHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTemplateHandler(&fakeCatalogSrv{templates: []models.ReportTemplate{
		{ID: "tpl-1", Name: "Portfolio Summary", Category: models.CategoryPortfolio},
		{ID: "tpl-2", Name: "Executive Brief", Category: models.CategoryExecutive},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/templates", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.ReportTemplate `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Len(t, envelope.Data, 2)
	assert.Equal(t, "Portfolio Summary", envelope.Data[0].Name)
}

func TestTemplateHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeCatalogSrv{templates: []models.ReportTemplate{{ID: "tpl-1", Name: "Portfolio Summary"}}}
	handler := NewTemplateHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/templates/tpl-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tpl-1", service.lastID)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "Portfolio Summary", envelope.Data["name"])
}

func TestTemplateHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTemplateHandler(&fakeCatalogSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/templates/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateHandlerNilServiceGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTemplateHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/templates", nil)

	handler.List(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
