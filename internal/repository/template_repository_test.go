package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
)

func newTemplateRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTemplateRepositoryList(t *testing.T) {
	db, mock, cleanup := newTemplateRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "category", "parameters", "formats", "created_at"}).
		AddRow("tpl-1", "Executive Summary", "Portfolio highlights", "executive", `[]`, `["pdf","pptx"]`, time.Now()).
		AddRow("tpl-2", "Quarterly Performance", "Per-property metrics", "portfolio", `[{"name":"startDate","label":"Start Date","type":"date","required":true}]`, `["pdf","excel"]`, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, category, parameters, formats, created_at")).
		WillReturnRows(rows)

	templates, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)
	require.Equal(t, models.CategoryExecutive, templates[0].Category)
	require.Empty(t, templates[0].Parameters)
	require.Len(t, templates[1].Parameters, 1)
	require.Equal(t, "startDate", templates[1].Parameters[0].Name)
	require.True(t, templates[1].Parameters[0].Required)
	require.True(t, templates[1].SupportsFormat(models.ReportFormatExcel))
	require.False(t, templates[1].SupportsFormat(models.ReportFormatPPTX))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newTemplateRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "category", "parameters", "formats", "created_at"}).
		AddRow("tpl-2", "Quarterly Performance", "Per-property metrics", "portfolio", `[{"name":"market","label":"Market","type":"select","options":["Phoenix","Dallas"]}]`, `["pdf"]`, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_templates WHERE id = $1")).
		WithArgs("tpl-2").
		WillReturnRows(rows)

	tpl, err := repo.GetByID(context.Background(), "tpl-2")
	require.NoError(t, err)
	require.Equal(t, "Quarterly Performance", tpl.Name)
	param, ok := tpl.Parameter("market")
	require.True(t, ok)
	require.Equal(t, []string{"Phoenix", "Dallas"}, param.Options)
	require.NoError(t, mock.ExpectationsWereMet())
}
