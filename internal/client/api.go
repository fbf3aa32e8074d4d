package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudronix/deviceinfo/internal/config"
	"github.com/cloudronix/deviceinfo/internal/panel"
	"github.com/cloudronix/deviceinfo/pkg/sysinfo"
)

// ErrNoCollector is returned when a report is sent without a collector URL
var ErrNoCollector = errors.New("no collector_url configured")

// Client posts device reports to a collector
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// Report is the document sent to the collector
type Report struct {
	Panel     *panel.Panel  `json:"panel"`
	Build     sysinfo.Build `json:"build"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewClient creates a collector client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendReport posts a report to the collector URL
func (c *Client) SendReport(ctx context.Context, report *Report) error {
	if c.cfg.CollectorURL == "" {
		return ErrNoCollector
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CollectorURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp)
	}

	return nil
}

// parseError extracts error information from a response
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		return fmt.Errorf("collector error (%d): %s - %s", resp.StatusCode, errResp.Error, errResp.Message)
	}

	return fmt.Errorf("collector error: %s", resp.Status)
}
