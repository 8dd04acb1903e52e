package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mborgeson/portfolio-reports-api/internal/dto"
	"github.com/mborgeson/portfolio-reports-api/internal/models"
	appErrors "github.com/mborgeson/portfolio-reports-api/pkg/errors"
	"github.com/mborgeson/portfolio-reports-api/pkg/response"
)

// DefaultPollInterval is how often Watch re-fetches a non-terminal job.
const DefaultPollInterval = 2000 * time.Millisecond

// Client is a thin SDK over the report generation API. It owns submission,
// status polling, and the template catalog read path.
type Client struct {
	baseURL  string
	http     *http.Client
	interval time.Duration
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithPollInterval overrides the Watch polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger attaches a logger for poll diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Client rooted at baseURL (including the API prefix, e.g.
// "http://localhost:8080/api/v1").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		interval: DefaultPollInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Templates fetches the report template catalog.
func (c *Client) Templates(ctx context.Context) ([]models.ReportTemplate, error) {
	var templates []models.ReportTemplate
	if err := c.do(ctx, http.MethodGet, "/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Template fetches a single template with its parameter schema.
func (c *Client) Template(ctx context.Context, id string) (*models.ReportTemplate, error) {
	var tpl models.ReportTemplate
	if err := c.do(ctx, http.MethodGet, "/templates/"+id, nil, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Submit queues a report for generation and returns the accepted job.
func (c *Client) Submit(ctx context.Context, req dto.GenerateReportRequest) (*dto.ReportJobResponse, error) {
	var job dto.ReportJobResponse
	if err := c.do(ctx, http.MethodPost, "/reports", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Poll fetches the current status of a queued job.
func (c *Client) Poll(ctx context.Context, jobID string) (*dto.ReportStatusResponse, error) {
	var status dto.ReportStatusResponse
	if err := c.do(ctx, http.MethodGet, "/reports/"+jobID, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// WatchUpdate carries one polled status or the error that poll produced.
type WatchUpdate struct {
	Job *dto.ReportStatusResponse
	Err error
}

// Watch polls jobID on the configured interval until it reaches a terminal
// status or ctx is cancelled, delivering every observation on the returned
// channel. Polls run synchronously inside the watch loop, so a slow response
// delays the next tick instead of stacking requests. The channel is closed
// when watching stops.
func (c *Client) Watch(ctx context.Context, jobID string) <-chan WatchUpdate {
	updates := make(chan WatchUpdate, 1)
	go func() {
		defer close(updates)
		if done := c.pollOnce(ctx, jobID, updates); done {
			return
		}
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if done := c.pollOnce(ctx, jobID, updates); done {
					return
				}
			}
		}
	}()
	return updates
}

// pollOnce performs one poll, delivers the result, and reports whether the
// watch loop should stop.
func (c *Client) pollOnce(ctx context.Context, jobID string, updates chan<- WatchUpdate) bool {
	status, err := c.Poll(ctx, jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		c.logger.Sugar().Debugw("report poll failed", "job_id", jobID, "error", err)
		select {
		case updates <- WatchUpdate{Err: err}:
		case <-ctx.Done():
			return true
		}
		return false
	}
	select {
	case updates <- WatchUpdate{Job: status}:
	case <-ctx.Done():
		return true
	}
	return status.Status.Terminal()
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	var envelope response.Envelope
	envelope.Data = dest
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response (%s %s, status %d): %w", method, path, resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
