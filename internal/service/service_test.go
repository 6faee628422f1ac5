package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportdash/internal/backend"
	"reportdash/internal/cache"
	"reportdash/internal/config"
	"reportdash/internal/db"
	"reportdash/internal/models"
	"reportdash/internal/store"
)

// countingClient wraps canned responses and records how often each
// backend call actually went out, so cache behavior is observable.
type countingClient struct {
	list       models.ReportList
	detail     models.ReportDetail
	generate   models.GenerateResult
	health     models.HealthStatus
	listCalls  int
	detCalls   int
	healthCall int
}

func (c *countingClient) ListReports(ctx context.Context) (models.ReportList, error) {
	c.listCalls++
	return c.list, nil
}

func (c *countingClient) GenerateMonthlyReport(ctx context.Context, month, year int) (models.GenerateResult, error) {
	return c.generate, nil
}

func (c *countingClient) GeneratePeriodicReport(ctx context.Context) (models.GenerateResult, error) {
	return c.generate, nil
}

func (c *countingClient) ReportDetails(ctx context.Context, fileName string) (models.ReportDetail, error) {
	c.detCalls++
	return c.detail, nil
}

func (c *countingClient) DownloadReport(ctx context.Context, fileName string) (backend.DownloadMeta, io.ReadCloser, error) {
	return backend.DownloadMeta{FileName: fileName, ContentType: "application/octet-stream", Size: 4},
		io.NopCloser(strings.NewReader("data")), nil
}

func (c *countingClient) HealthCheck(ctx context.Context) (models.HealthStatus, error) {
	c.healthCall++
	return c.health, nil
}

func newTestService(t *testing.T, client backend.Client) (*Service, *store.Store) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.DBPath = filepath.Join(t.TempDir(), "app.db")

	sqdb, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqdb.Close() })
	_, err = sqdb.Exec(`CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		file_name TEXT NOT NULL,
		record_count INTEGER NOT NULL DEFAULT 0,
		ok INTEGER NOT NULL DEFAULT 1,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)

	st := store.New(sqdb, "sqlite")
	c := cache.NewResponses(cache.NewMemory(), zap.NewNop())
	return New(cfg, zap.NewNop(), client, c, st), st
}

func sampleListing() models.ReportList {
	old := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	mid := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	return models.ReportList{
		Reports: []models.Report{
			{FileName: "access_outubro_2025.xlsx", FileSizeBytes: 2048, CreatedAt: old},
			{FileName: "21_access_20251201.xlsx", FileSizeBytes: 52326, CreatedAt: recent},
			{FileName: "access_novembro_2025.xlsx", FileSizeBytes: 1024, CreatedAt: mid},
		},
		TotalCount: 3,
	}
}

func TestListReportsAnnotatesAndSorts(t *testing.T) {
	client := &countingClient{list: sampleListing()}
	svc, _ := newTestService(t, client)

	out, err := svc.ListReports(context.Background(), "all")
	require.NoError(t, err)
	require.Len(t, out.Reports, 3)

	// Newest first regardless of listing order.
	assert.Equal(t, "21_access_20251201.xlsx", out.Reports[0].FileName)
	assert.Equal(t, "access_novembro_2025.xlsx", out.Reports[1].FileName)
	assert.Equal(t, "access_outubro_2025.xlsx", out.Reports[2].FileName)

	assert.Equal(t, "periodic", string(out.Reports[0].Type))
	assert.Equal(t, "monthly", string(out.Reports[1].Type))
	assert.Equal(t, "51.1 KB", out.Reports[0].FileSizeFormatted)
	assert.Equal(t, "2.0 KB", out.Reports[2].FileSizeFormatted)
	assert.Equal(t, "01/12/2025 08:00", out.Reports[0].CreatedAtDisplay)
	assert.Equal(t, 3, out.TotalCount)
}

func TestListReportsFilterSharesCache(t *testing.T) {
	client := &countingClient{list: sampleListing()}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	monthly, err := svc.ListReports(ctx, "monthly")
	require.NoError(t, err)
	periodic, err := svc.ListReports(ctx, "periodic")
	require.NoError(t, err)

	assert.Len(t, monthly.Reports, 2)
	assert.Len(t, periodic.Reports, 1)
	// Both filters were served from one cached listing.
	assert.Equal(t, 1, client.listCalls)
}

func TestListReportsRejectsUnknownFilter(t *testing.T) {
	svc, _ := newTestService(t, &countingClient{})
	_, err := svc.ListReports(context.Background(), "weekly")
	assert.ErrorIs(t, err, ErrInvalidTypeFilter)
}

func TestReportDetailDerivesSummary(t *testing.T) {
	when := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	client := &countingClient{detail: models.ReportDetail{
		Records: []models.AccessRecord{
			{Username: "ana.lima", WorkMode: models.WorkModeHome, CreatedAt: when},
			{Username: "ana.lima", WorkMode: models.WorkModeOnsite, CreatedAt: when},
			{Username: "igor.batista", WorkMode: models.WorkModeHome, CreatedAt: when},
		},
		TotalRecords: 3,
	}}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	out, err := svc.ReportDetail(ctx, "21_access_20251201.xlsx")
	require.NoError(t, err)
	require.Len(t, out.Summary, 2)
	assert.Equal(t, "ana.lima", out.Summary[0].Username)
	assert.Equal(t, 2, out.Summary[0].Total)

	_, err = svc.ReportDetail(ctx, "21_access_20251201.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, client.detCalls)
}

func TestReportDetailNormalizesTotal(t *testing.T) {
	client := &countingClient{detail: models.ReportDetail{
		Records:      []models.AccessRecord{{Username: "ana.lima"}},
		TotalRecords: 99,
	}}
	svc, _ := newTestService(t, client)

	out, err := svc.ReportDetail(context.Background(), "x.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalRecords)
}

func TestGenerateSuccessInvalidatesListing(t *testing.T) {
	client := &countingClient{
		list:     sampleListing(),
		generate: models.GenerateResult{Success: true, FileName: "access_dezembro_2025.xlsx", RecordCount: 42},
	}
	svc, st := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.ListReports(ctx, "all")
	require.NoError(t, err)
	require.Equal(t, 1, client.listCalls)

	res, err := svc.GenerateMonthly(ctx, 12, 2025)
	require.NoError(t, err)
	assert.True(t, res.Success)

	// Next listing must refetch.
	_, err = svc.ListReports(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, 2, client.listCalls)

	entries, err := st.ListActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityGenerateMonthly, entries[0].Action)
	assert.True(t, entries[0].OK)
	assert.Equal(t, 42, entries[0].RecordCount)
}

func TestGenerateBusinessFailureKeepsCache(t *testing.T) {
	client := &countingClient{
		list:     sampleListing(),
		generate: models.GenerateResult{Success: false, ErrorMessage: "no records found for period"},
	}
	svc, st := newTestService(t, client)
	ctx := context.Background()

	_, err := svc.ListReports(ctx, "all")
	require.NoError(t, err)

	res, err := svc.GeneratePeriodic(ctx)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no records found for period", res.ErrorMessage)

	_, err = svc.ListReports(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, 1, client.listCalls, "listing cache must survive a business failure")

	entries, err := st.ListActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
}

func TestDownloadRecordsActivity(t *testing.T) {
	svc, st := newTestService(t, &countingClient{})
	ctx := context.Background()

	meta, rc, err := svc.Download(ctx, "access_novembro_2025.xlsx")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "access_novembro_2025.xlsx", meta.FileName)

	entries, err := st.ListActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityDownload, entries[0].Action)
}

func TestBackendHealthCached(t *testing.T) {
	client := &countingClient{health: models.HealthStatus{Status: "healthy", Service: "report-backend"}}
	svc, _ := newTestService(t, client)
	ctx := context.Background()

	h1, err := svc.BackendHealth(ctx)
	require.NoError(t, err)
	h2, err := svc.BackendHealth(ctx)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, client.healthCall)
}

func TestStats(t *testing.T) {
	client := &countingClient{list: sampleListing()}
	svc, _ := newTestService(t, client)

	out, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalReports)
	assert.Equal(t, 2, out.MonthlyReports)
	assert.Equal(t, 1, out.PeriodicReports)
	assert.Equal(t, int64(2048+52326+1024), out.TotalSizeBytes)
	require.NotNil(t, out.LastGeneratedAt)
	assert.Equal(t, time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC), *out.LastGeneratedAt)
}

func TestSimulatedFlagFromFallback(t *testing.T) {
	demo := backend.NewDemoClient(0)
	fb := backend.NewFallback(&errClient{}, demo, false, zap.NewNop())
	svc, _ := newTestService(t, fb)
	ctx := context.Background()

	_, err := svc.ListReports(ctx, "all")
	require.NoError(t, err)
	assert.True(t, svc.Simulated())

	meta := svc.Meta()
	assert.True(t, meta.Simulated)
	assert.False(t, meta.DemoMode)
}

// errClient fails every call with a transport-style error.
type errClient struct{}

var errDown = errors.New("connection refused")

func (errClient) ListReports(context.Context) (models.ReportList, error) {
	return models.ReportList{}, errDown
}

func (errClient) GenerateMonthlyReport(context.Context, int, int) (models.GenerateResult, error) {
	return models.GenerateResult{}, errDown
}

func (errClient) GeneratePeriodicReport(context.Context) (models.GenerateResult, error) {
	return models.GenerateResult{}, errDown
}

func (errClient) ReportDetails(context.Context, string) (models.ReportDetail, error) {
	return models.ReportDetail{}, errDown
}

func (errClient) DownloadReport(context.Context, string) (backend.DownloadMeta, io.ReadCloser, error) {
	return backend.DownloadMeta{}, nil, errDown
}

func (errClient) HealthCheck(context.Context) (models.HealthStatus, error) {
	return models.HealthStatus{}, errDown
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{52326, "51.1 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatBytes(tc.in), "formatBytes(%d)", tc.in)
	}
}
