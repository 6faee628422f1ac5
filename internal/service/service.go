// Package service orchestrates the report client, the response cache
// and the activity log into the operations the dashboard API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"reportdash/internal/analytics"
	"reportdash/internal/backend"
	"reportdash/internal/cache"
	"reportdash/internal/config"
	"reportdash/internal/models"
	"reportdash/internal/reports"
	"reportdash/internal/store"
	"reportdash/internal/version"
)

var ErrInvalidTypeFilter = errors.New("type filter must be one of: all, monthly, periodic")

const (
	keyReportsList   = "reportsList"
	opReportDetails  = "reportDetails"
	keyBackendHealth = "backendHealth"
)

type Service struct {
	cfg    config.Config
	log    *zap.Logger
	client backend.Client
	cache  *cache.Responses
	store  *store.Store
}

func New(cfg config.Config, log *zap.Logger, client backend.Client, c *cache.Responses, st *store.Store) *Service {
	return &Service{cfg: cfg, log: log, client: client, cache: c, store: st}
}

// ReportItem is a listed report annotated with everything the UI needs
// to render one card: classified type, human file size and localized
// creation time.
type ReportItem struct {
	models.Report
	Type              reports.ReportType `json:"type"`
	FileSizeFormatted string             `json:"fileSizeFormatted"`
	CreatedAtDisplay  string             `json:"createdAtDisplay"`
}

type ListResult struct {
	Reports    []ReportItem `json:"reports"`
	TotalCount int          `json:"totalCount"`
	Simulated  bool         `json:"simulated"`
}

type AnalyticsResult struct {
	FileName     string                 `json:"fileName"`
	Type         reports.ReportType     `json:"type"`
	TotalRecords int                    `json:"totalRecords"`
	UniqueUsers  int                    `json:"uniqueUsers"`
	Summary      []models.UserSummary   `json:"summary"`
	WorkMode     []analytics.Bucket     `json:"workMode"`
	DailyTrend   []analytics.TrendPoint `json:"dailyTrend"`
	TopUsers     []analytics.UserRank   `json:"topUsers"`
	Validation   []analytics.Bucket     `json:"validation"`
	Network      []analytics.Bucket     `json:"network"`
	Simulated    bool                   `json:"simulated"`
}

type Stats struct {
	TotalReports    int        `json:"totalReports"`
	MonthlyReports  int        `json:"monthlyReports"`
	PeriodicReports int        `json:"periodicReports"`
	TotalSizeBytes  int64      `json:"totalSizeBytes"`
	LastGeneratedAt *time.Time `json:"lastGeneratedAt,omitempty"`
	Simulated       bool       `json:"simulated"`
}

type Meta struct {
	Service   string       `json:"service"`
	Version   version.Info `json:"version"`
	DemoMode  bool         `json:"demoMode"`
	Simulated bool         `json:"simulated"`
	Locale    string       `json:"locale"`
}

// topUserCount matches the chart: the ranking shows the eight busiest users.
const topUserCount = 8

// ListReports returns the report listing, newest first, filtered by
// classified type. The raw listing is cached briefly; the filter is
// applied after so every filter value shares one cache entry.
func (s *Service) ListReports(ctx context.Context, typeFilter string) (ListResult, error) {
	switch typeFilter {
	case "", "all", string(reports.TypeMonthly), string(reports.TypePeriodic):
	default:
		return ListResult{}, ErrInvalidTypeFilter
	}

	raw, err := s.rawListing(ctx)
	if err != nil {
		return ListResult{}, err
	}

	items := make([]ReportItem, 0, len(raw.Reports))
	for _, r := range raw.Reports {
		t := reports.Classify(r.FileName)
		if typeFilter != "" && typeFilter != "all" && string(t) != typeFilter {
			continue
		}
		display := "--"
		if !r.CreatedAt.IsZero() {
			display = reports.FormatTime(r.CreatedAt, s.cfg.Locale)
		}
		items = append(items, ReportItem{
			Report:            r,
			Type:              t,
			FileSizeFormatted: formatBytes(r.FileSizeBytes),
			CreatedAtDisplay:  display,
		})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.After(items[b].CreatedAt)
	})
	return ListResult{Reports: items, TotalCount: len(items), Simulated: s.Simulated()}, nil
}

func (s *Service) rawListing(ctx context.Context) (models.ReportList, error) {
	var cached models.ReportList
	if s.cache.Get(ctx, keyReportsList, &cached) {
		return cached, nil
	}
	out, err := s.client.ListReports(ctx)
	if err != nil {
		return models.ReportList{}, err
	}
	s.cache.Set(ctx, keyReportsList, out, s.cfg.ListCacheTTL())
	return out, nil
}

// ReportDetail fetches a report's records and derives the per-user
// summary. The whole detail is cached per file name.
func (s *Service) ReportDetail(ctx context.Context, fileName string) (models.ReportDetail, error) {
	key := cache.Key(opReportDetails, fileName)
	var cached models.ReportDetail
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	out, err := s.client.ReportDetails(ctx, fileName)
	if err != nil {
		return models.ReportDetail{}, err
	}
	if out.TotalRecords != len(out.Records) {
		s.log.Warn("backend totalRecords disagrees with record count",
			zap.String("file_name", fileName),
			zap.Int("total_records", out.TotalRecords),
			zap.Int("records", len(out.Records)))
		out.TotalRecords = len(out.Records)
	}
	out.Summary = analytics.Summarize(out.Records)
	s.cache.Set(ctx, key, out, s.cfg.DetailCacheTTL())
	return out, nil
}

// ReportAnalytics reshapes a report's records into every chart series
// the detail panel renders, in one payload.
func (s *Service) ReportAnalytics(ctx context.Context, fileName string) (AnalyticsResult, error) {
	detail, err := s.ReportDetail(ctx, fileName)
	if err != nil {
		return AnalyticsResult{}, err
	}
	return AnalyticsResult{
		FileName:     fileName,
		Type:         reports.Classify(fileName),
		TotalRecords: detail.TotalRecords,
		UniqueUsers:  analytics.UniqueUsers(detail.Records),
		Summary:      detail.Summary,
		WorkMode:     analytics.WorkModeDistribution(detail.Records),
		DailyTrend:   analytics.DailyTrend(detail.Records),
		TopUsers:     analytics.TopUsers(detail.Summary, topUserCount),
		Validation:   analytics.ValidationDistribution(detail.Records),
		Network:      analytics.NetworkDistribution(detail.Records),
		Simulated:    s.Simulated(),
	}, nil
}

// GenerateMonthly asks the backend for a fresh monthly report. A
// business failure (Success=false) is returned as-is and leaves the
// listing cache untouched; only a successful generation invalidates it.
func (s *Service) GenerateMonthly(ctx context.Context, month, year int) (models.GenerateResult, error) {
	out, err := s.client.GenerateMonthlyReport(ctx, month, year)
	if err != nil {
		return models.GenerateResult{}, err
	}
	s.afterGenerate(ctx, models.ActivityGenerateMonthly, out)
	return out, nil
}

func (s *Service) GeneratePeriodic(ctx context.Context) (models.GenerateResult, error) {
	out, err := s.client.GeneratePeriodicReport(ctx)
	if err != nil {
		return models.GenerateResult{}, err
	}
	s.afterGenerate(ctx, models.ActivityGeneratePeriodic, out)
	return out, nil
}

func (s *Service) afterGenerate(ctx context.Context, action string, res models.GenerateResult) {
	if res.Success {
		s.cache.Invalidate(ctx, keyReportsList)
	}
	if _, err := s.store.RecordActivity(ctx, action, res.FileName, res.RecordCount, res.Success, res.ErrorMessage); err != nil {
		s.log.Warn("activity log write failed", zap.String("action", action), zap.Error(err))
	}
}

// Download streams a report file through to the caller.
func (s *Service) Download(ctx context.Context, fileName string) (backend.DownloadMeta, io.ReadCloser, error) {
	meta, stream, err := s.client.DownloadReport(ctx, fileName)
	if err != nil {
		return backend.DownloadMeta{}, nil, err
	}
	if _, err := s.store.RecordActivity(ctx, models.ActivityDownload, fileName, 0, true, ""); err != nil {
		s.log.Warn("activity log write failed", zap.String("action", models.ActivityDownload), zap.Error(err))
	}
	return meta, stream, nil
}

func (s *Service) BackendHealth(ctx context.Context) (models.HealthStatus, error) {
	var cached models.HealthStatus
	if s.cache.Get(ctx, keyBackendHealth, &cached) {
		return cached, nil
	}
	out, err := s.client.HealthCheck(ctx)
	if err != nil {
		return models.HealthStatus{}, err
	}
	s.cache.Set(ctx, keyBackendHealth, out, s.cfg.HealthCacheTTL())
	return out, nil
}

// Stats derives display-only counters from the (cached) listing.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	raw, err := s.rawListing(ctx)
	if err != nil {
		return Stats{}, err
	}
	out := Stats{TotalReports: len(raw.Reports), Simulated: s.Simulated()}
	for _, r := range raw.Reports {
		if reports.Classify(r.FileName) == reports.TypePeriodic {
			out.PeriodicReports++
		} else {
			out.MonthlyReports++
		}
		out.TotalSizeBytes += r.FileSizeBytes
		if out.LastGeneratedAt == nil || r.CreatedAt.After(*out.LastGeneratedAt) {
			t := r.CreatedAt
			out.LastGeneratedAt = &t
		}
	}
	return out, nil
}

func (s *Service) Activity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	return s.store.ListActivity(ctx, limit)
}

func (s *Service) StorePing(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Simulated reports whether the client currently serves placeholder
// data; wired through to the UI's demo banner.
func (s *Service) Simulated() bool {
	if c, ok := s.client.(interface{ Simulated() bool }); ok {
		return c.Simulated()
	}
	return false
}

func (s *Service) Meta() Meta {
	demoForced := s.cfg.DemoMode
	if c, ok := s.client.(interface{ DemoForced() bool }); ok {
		demoForced = c.DemoForced()
	}
	return Meta{
		Service:   "reportdash",
		Version:   version.Current(),
		DemoMode:  demoForced,
		Simulated: s.Simulated(),
		Locale:    s.cfg.Locale,
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
