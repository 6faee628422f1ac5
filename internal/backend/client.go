// Package backend wraps the external report-generation service's HTTP
// API. Each call is a single independent attempt: there is no retry or
// backoff here, callers re-invoke on demand.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reportdash/internal/models"
)

// reportExtension is the only file type the generator produces.
const reportExtension = ".xlsx"

// DownloadMeta describes a report file stream handed back by Download.
type DownloadMeta struct {
	FileName    string
	ContentType string
	Size        int64
}

// Client is the report backend contract. All operations take a context
// and surface transport failures as *APIError.
type Client interface {
	ListReports(ctx context.Context) (models.ReportList, error)
	GenerateMonthlyReport(ctx context.Context, month, year int) (models.GenerateResult, error)
	GeneratePeriodicReport(ctx context.Context) (models.GenerateResult, error)
	ReportDetails(ctx context.Context, fileName string) (models.ReportDetail, error)
	DownloadReport(ctx context.Context, fileName string) (DownloadMeta, io.ReadCloser, error)
	HealthCheck(ctx context.Context) (models.HealthStatus, error)
}

// HTTPClient talks to the live backend.
type HTTPClient struct {
	http    *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *HTTPClient) ListReports(ctx context.Context) (models.ReportList, error) {
	var out models.ReportList
	if err := c.requestJSON(ctx, http.MethodGet, "/api/reports/list", nil, &out); err != nil {
		return models.ReportList{}, err
	}
	if out.Reports == nil {
		out.Reports = []models.Report{}
	}
	return out, nil
}

func (c *HTTPClient) GenerateMonthlyReport(ctx context.Context, month, year int) (models.GenerateResult, error) {
	if month < 1 || month > 12 {
		return models.GenerateResult{}, ErrInvalidMonth
	}
	body := map[string]int{"month": month, "year": year}
	var out models.GenerateResult
	if err := c.requestJSON(ctx, http.MethodPost, "/api/reports/generate", body, &out); err != nil {
		return models.GenerateResult{}, err
	}
	return out, nil
}

func (c *HTTPClient) GeneratePeriodicReport(ctx context.Context) (models.GenerateResult, error) {
	var out models.GenerateResult
	if err := c.requestJSON(ctx, http.MethodPost, "/api/reports/generate-periodic", map[string]int{}, &out); err != nil {
		return models.GenerateResult{}, err
	}
	return out, nil
}

func (c *HTTPClient) ReportDetails(ctx context.Context, fileName string) (models.ReportDetail, error) {
	path := "/api/reports/details/" + url.PathEscape(fileName)
	var out models.ReportDetail
	if err := c.requestJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return models.ReportDetail{}, err
	}
	if out.Records == nil {
		out.Records = []models.AccessRecord{}
	}
	return out, nil
}

func (c *HTTPClient) DownloadReport(ctx context.Context, fileName string) (DownloadMeta, io.ReadCloser, error) {
	if err := validateDownloadName(fileName); err != nil {
		return DownloadMeta{}, nil, err
	}
	u := c.baseURL + "/api/reports/download/" + url.PathEscape(fileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return DownloadMeta{}, nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return DownloadMeta{}, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return DownloadMeta{}, nil, newAPIError(resp.StatusCode, string(raw))
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	meta := DownloadMeta{FileName: fileName, ContentType: ct, Size: resp.ContentLength}
	return meta, resp.Body, nil
}

func (c *HTTPClient) HealthCheck(ctx context.Context) (models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.requestJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return models.HealthStatus{}, err
	}
	return out, nil
}

func (c *HTTPClient) requestJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return newAPIError(resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func validateDownloadName(fileName string) error {
	if !strings.HasSuffix(strings.ToLower(fileName), reportExtension) {
		return ErrInvalidFileName
	}
	return nil
}
