package dto

import "github.com/mborgeson/portfolio-reports-api/internal/models"

// GenerateReportRequest captures POST /reports/generate payload.
type GenerateReportRequest struct {
	TemplateID string                 `json:"templateId" binding:"required" validate:"required"`
	Format     models.ReportFormat    `json:"format" binding:"required" validate:"required"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ReportJobResponse is returned after a job is accepted.
type ReportJobResponse struct {
	ID       string           `json:"id"`
	Status   models.JobStatus `json:"status"`
	Progress int              `json:"progress"`
}

// ReportStatusResponse is the polling payload for GET /reports/jobs/{id}.
type ReportStatusResponse struct {
	ID          string           `json:"id"`
	TemplateID  string           `json:"templateId"`
	Name        string           `json:"name"`
	Status      models.JobStatus `json:"status"`
	Progress    int              `json:"progress"`
	DownloadURL *string          `json:"downloadUrl,omitempty"`
	Error       *string          `json:"error,omitempty"`
	CompletedAt *string          `json:"completedAt,omitempty"`
}
