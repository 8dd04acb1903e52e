package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
)

// PortfolioRepository reads aggregated portfolio analytics feeding report
// datasets. All queries hit pre-aggregated views maintained by the ingestion
// pipeline.
type PortfolioRepository struct {
	db *sqlx.DB
}

// NewPortfolioRepository constructs the repository.
func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// PropertyPerformance returns per-property metrics matching the filter.
func (r *PortfolioRepository) PropertyPerformance(ctx context.Context, filter models.PortfolioFilter) ([]models.PropertyPerformance, error) {
	query := `SELECT property_id, property_name, market, noi, occupancy_rate, cap_rate, updated_at
FROM property_performance_view`
	conditions, args := filterConditions(filter)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY property_name ASC"

	var rows []models.PropertyPerformance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query property performance: %w", err)
	}
	return rows, nil
}

// TransactionSummary returns transaction volume aggregates per category.
func (r *PortfolioRepository) TransactionSummary(ctx context.Context, filter models.PortfolioFilter) ([]models.TransactionSummary, error) {
	query := `SELECT category, count, total_amount, updated_at FROM transaction_summary_view`
	conditions, args := filterConditions(filter)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY category ASC"

	var rows []models.TransactionSummary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query transaction summary: %w", err)
	}
	return rows, nil
}

// DealPipeline returns the acquisition pipeline grouped by stage.
func (r *PortfolioRepository) DealPipeline(ctx context.Context) ([]models.DealPipelineSummary, error) {
	const query = `SELECT stage, deal_count, total_value FROM deal_pipeline_view ORDER BY stage ASC`
	var rows []models.DealPipelineSummary
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query deal pipeline: %w", err)
	}
	return rows, nil
}

// MarketTrends returns market-level observations matching the filter.
func (r *PortfolioRepository) MarketTrends(ctx context.Context, filter models.PortfolioFilter) ([]models.MarketTrend, error) {
	query := `SELECT market, median_price, vacancy_rate, rent_growth_pct, observed_at FROM market_trend_view`
	args := []interface{}{}
	if filter.Market != "" {
		query += " WHERE market = $1"
		args = append(args, filter.Market)
	}
	query += " ORDER BY market ASC"

	var rows []models.MarketTrend
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query market trends: %w", err)
	}
	return rows, nil
}

func filterConditions(filter models.PortfolioFilter) ([]string, []interface{}) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	argPos := 1

	if filter.Market != "" {
		conditions = append(conditions, fmt.Sprintf("market = $%d", argPos))
		args = append(args, filter.Market)
		argPos++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("updated_at >= $%d", argPos))
		args = append(args, *filter.DateFrom)
		argPos++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("updated_at <= $%d", argPos))
		args = append(args, *filter.DateTo)
	}

	return conditions, args
}
