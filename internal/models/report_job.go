package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus captures background report-job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusGenerating JobStatus = "generating"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ReportJob is persisted background job metadata. Only the service and worker
// mutate it; clients mirror it by polling.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	TemplateID   string          `db:"template_id" json:"template_id"`
	Name         string          `db:"name" json:"name"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       JobStatus       `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	DownloadURL  *string         `db:"download_url" json:"download_url,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// ReportJobParams stores the submitted format and parameter mapping as JSONB.
type ReportJobParams struct {
	Format ReportFormat           `json:"format"`
	Values map[string]interface{} `json:"values,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	if p.Values == nil {
		p.Values = map[string]interface{}{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ReportJobParams{}
		return nil
	}
	return scanJSON(value, p, "ReportJobParams")
}
