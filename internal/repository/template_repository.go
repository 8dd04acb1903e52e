package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
)

// TemplateRepository reads the report template catalog. The catalog is
// seeded out of band; the API never mutates it.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns all templates ordered by category and name.
func (r *TemplateRepository) List(ctx context.Context) ([]models.ReportTemplate, error) {
	const query = `SELECT id, name, description, category, parameters, formats, created_at
FROM report_templates ORDER BY category ASC, name ASC`
	var templates []models.ReportTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list report templates: %w", err)
	}
	return templates, nil
}

// GetByID returns a single template row.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.ReportTemplate, error) {
	const query = `SELECT id, name, description, category, parameters, formats, created_at
FROM report_templates WHERE id = $1`
	var tpl models.ReportTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, fmt.Errorf("get report template: %w", err)
	}
	return &tpl, nil
}
