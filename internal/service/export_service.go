package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mborgeson/portfolio-reports-api/internal/models"
	"github.com/mborgeson/portfolio-reports-api/pkg/export"
	"github.com/mborgeson/portfolio-reports-api/pkg/storage"
)

type portfolioAnalytics interface {
	PropertyPerformance(ctx context.Context, filter models.PortfolioFilter) ([]models.PropertyPerformance, error)
	TransactionSummary(ctx context.Context, filter models.PortfolioFilter) ([]models.TransactionSummary, error)
	DealPipeline(ctx context.Context) ([]models.DealPipelineSummary, error)
	MarketTrends(ctx context.Context, filter models.PortfolioFilter) ([]models.MarketTrend, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered artifacts.
type ExportService struct {
	portfolio portfolioAnalytics
	templates templateResolver
	storage   fileStorage
	renderers map[models.ReportFormat]datasetRenderer
	signer    *storage.DownloadTokenSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with the default renderer per
// format.
func NewExportService(portfolio portfolioAnalytics, templates templateResolver, store fileStorage, signer *storage.DownloadTokenSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		portfolio: portfolio,
		templates: templates,
		storage:   store,
		renderers: map[models.ReportFormat]datasetRenderer{
			models.ReportFormatPDF:   export.NewPDFExporter(),
			models.ReportFormatExcel: export.NewExcelExporter(),
			models.ReportFormatPPTX:  export.NewPPTXExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
	}
}

// Generate builds the dataset for the job's template category, renders it in
// the requested format, and stores the artifact behind a signed token.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	tpl, err := s.templates.Get(ctx, job.TemplateID)
	if err != nil {
		return nil, err
	}
	dataset, title, err := s.buildDataset(ctx, tpl, job.Params)
	if err != nil {
		return nil, err
	}

	renderer, ok := s.renderers[job.Params.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	payload, err := renderer.Render(dataset, title)
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(tpl, job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored artifact.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored artifact.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes artifacts older than ttl (defaults to configured ResultTTL
// when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(tpl *models.ReportTemplate, job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	ext := string(job.Params.Format)
	if job.Params.Format == models.ReportFormatExcel {
		ext = "xlsx"
	}
	return fmt.Sprintf("%s/%s_%s.%s", tpl.Category, sanitizeFilename(tpl.Name), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "report"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, tpl *models.ReportTemplate, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := filterFromValues(params.Values)
	switch tpl.Category {
	case models.CategoryExecutive:
		return s.buildExecutiveDataset(ctx, tpl, filter)
	case models.CategoryFinancial:
		return s.buildFinancialDataset(ctx, tpl, filter)
	case models.CategoryMarket:
		return s.buildMarketDataset(ctx, tpl, filter)
	case models.CategoryPortfolio:
		return s.buildPortfolioDataset(ctx, tpl, filter)
	case models.CategoryCustom:
		// Custom templates reuse the portfolio dataset; their parameters
		// only narrow the filter.
		return s.buildPortfolioDataset(ctx, tpl, filter)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported template category %s", tpl.Category)
	}
}

func (s *ExportService) buildPortfolioDataset(ctx context.Context, tpl *models.ReportTemplate, filter models.PortfolioFilter) (export.Dataset, string, error) {
	rows, err := s.portfolio.PropertyPerformance(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Property":      row.PropertyName,
			"Market":        row.Market,
			"NOI":           fmt.Sprintf("%.2f", row.NOI),
			"Occupancy (%)": fmt.Sprintf("%.1f", row.OccupancyRate),
			"Cap Rate (%)":  fmt.Sprintf("%.2f", row.CapRate),
			"Updated At":    formatReportTime(row.UpdatedAt),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Property", "Market", "NOI", "Occupancy (%)", "Cap Rate (%)", "Updated At"},
		Rows:    dataRows,
	}
	return dataset, tpl.Name, nil
}

func (s *ExportService) buildFinancialDataset(ctx context.Context, tpl *models.ReportTemplate, filter models.PortfolioFilter) (export.Dataset, string, error) {
	rows, err := s.portfolio.TransactionSummary(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Category":     row.Category,
			"Transactions": fmt.Sprintf("%d", row.Count),
			"Total Amount": fmt.Sprintf("%.2f", row.TotalAmount),
			"Updated At":   formatReportTime(row.UpdatedAt),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Category", "Transactions", "Total Amount", "Updated At"},
		Rows:    dataRows,
	}
	return dataset, tpl.Name, nil
}

func (s *ExportService) buildMarketDataset(ctx context.Context, tpl *models.ReportTemplate, filter models.PortfolioFilter) (export.Dataset, string, error) {
	rows, err := s.portfolio.MarketTrends(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Market":          row.Market,
			"Median Price":    fmt.Sprintf("%.2f", row.MedianPrice),
			"Vacancy (%)":     fmt.Sprintf("%.1f", row.VacancyRate),
			"Rent Growth (%)": fmt.Sprintf("%.1f", row.RentGrowthPct),
			"Observed At":     formatReportTime(row.ObservedAt),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Market", "Median Price", "Vacancy (%)", "Rent Growth (%)", "Observed At"},
		Rows:    dataRows,
	}
	return dataset, tpl.Name, nil
}

func (s *ExportService) buildExecutiveDataset(ctx context.Context, tpl *models.ReportTemplate, filter models.PortfolioFilter) (export.Dataset, string, error) {
	properties, err := s.portfolio.PropertyPerformance(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	transactions, err := s.portfolio.TransactionSummary(ctx, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	pipeline, err := s.portfolio.DealPipeline(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Metric": "Properties", "Value": fmt.Sprintf("%d", len(properties)), "Notes": ""},
		{"Metric": "Total NOI", "Value": fmt.Sprintf("%.2f", totalNOI(properties)), "Notes": ""},
		{"Metric": "Average Occupancy", "Value": fmt.Sprintf("%.1f", averageOccupancy(properties)), "Notes": "percent"},
		{"Metric": "Transaction Volume", "Value": fmt.Sprintf("%.2f", totalTransactionAmount(transactions)), "Notes": ""},
		{"Metric": "Pipeline Deals", "Value": fmt.Sprintf("%d", totalDeals(pipeline)), "Notes": ""},
		{"Metric": "Pipeline Value", "Value": fmt.Sprintf("%.2f", totalPipelineValue(pipeline)), "Notes": ""},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Value", "Notes"},
		Rows:    rows,
	}
	return dataset, tpl.Name, nil
}

func filterFromValues(values map[string]interface{}) models.PortfolioFilter {
	filter := models.PortfolioFilter{}
	if market, ok := values["market"].(string); ok {
		filter.Market = market
	}
	if from, ok := values["startDate"].(string); ok {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = &t
		}
	}
	if to, ok := values["endDate"].(string); ok {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.DateTo = &t
		}
	}
	return filter
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func totalNOI(rows []models.PropertyPerformance) float64 {
	var total float64
	for _, row := range rows {
		total += row.NOI
	}
	return total
}

func averageOccupancy(rows []models.PropertyPerformance) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total float64
	for _, row := range rows {
		total += row.OccupancyRate
	}
	return total / float64(len(rows))
}

func totalTransactionAmount(rows []models.TransactionSummary) float64 {
	var total float64
	for _, row := range rows {
		total += row.TotalAmount
	}
	return total
}

func totalDeals(rows []models.DealPipelineSummary) int {
	total := 0
	for _, row := range rows {
		total += row.DealCount
	}
	return total
}

func totalPipelineValue(rows []models.DealPipelineSummary) float64 {
	var total float64
	for _, row := range rows {
		total += row.TotalValue
	}
	return total
}
