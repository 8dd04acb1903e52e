package models

import "time"

// PropertyPerformance aggregates per-property investment metrics for a period.
type PropertyPerformance struct {
	PropertyID    string     `db:"property_id" json:"property_id"`
	PropertyName  string     `db:"property_name" json:"property_name"`
	Market        string     `db:"market" json:"market"`
	NOI           float64    `db:"noi" json:"noi"`
	OccupancyRate float64    `db:"occupancy_rate" json:"occupancy_rate"`
	CapRate       float64    `db:"cap_rate" json:"cap_rate"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// TransactionSummary aggregates transaction volume per category.
type TransactionSummary struct {
	Category    string     `db:"category" json:"category"`
	Count       int        `db:"count" json:"count"`
	TotalAmount float64    `db:"total_amount" json:"total_amount"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DealPipelineSummary aggregates the acquisition pipeline per stage.
type DealPipelineSummary struct {
	Stage      string  `db:"stage" json:"stage"`
	DealCount  int     `db:"deal_count" json:"deal_count"`
	TotalValue float64 `db:"total_value" json:"total_value"`
}

// MarketTrend captures one market-level observation for market reports.
type MarketTrend struct {
	Market        string     `db:"market" json:"market"`
	MedianPrice   float64    `db:"median_price" json:"median_price"`
	VacancyRate   float64    `db:"vacancy_rate" json:"vacancy_rate"`
	RentGrowthPct float64    `db:"rent_growth_pct" json:"rent_growth_pct"`
	ObservedAt    *time.Time `db:"observed_at" json:"observed_at,omitempty"`
}

// PortfolioFilter scopes analytics queries feeding report datasets.
type PortfolioFilter struct {
	Market   string
	DateFrom *time.Time
	DateTo   *time.Time
}
