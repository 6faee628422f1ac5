package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second), srv
}

func TestListReports(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/reports/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"reports": [
				{"fileName":"access_november_2025.xlsx","fileSizeBytes":52341,"createdAt":"2025-12-01T06:00:00Z","fullPath":"/reports/access_november_2025.xlsx"}
			],
			"totalCount": 1
		}`))
	}))

	got, err := c.ListReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalCount)
	require.Len(t, got.Reports, 1)
	assert.Equal(t, "access_november_2025.xlsx", got.Reports[0].FileName)
	assert.Equal(t, int64(52341), got.Reports[0].FileSizeBytes)
}

func TestTransportErrorCategories(t *testing.T) {
	cases := []struct {
		status int
		want   Category
	}{
		{http.StatusNotFound, CategoryNotFound},
		{http.StatusBadRequest, CategoryBadRequest},
		{http.StatusInternalServerError, CategoryServerError},
		{http.StatusTeapot, CategoryUnknown},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"boom"}`, tc.status)
		}))
		_, err := c.ListReports(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tc.status, apiErr.Status)
		assert.Equal(t, tc.want, apiErr.Category)
		assert.Contains(t, apiErr.RawBody, "boom")
	}
}

func TestGenerateMonthlyReport(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reports/generate", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"month":11,"year":2025}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"fileName":"access_november_2025.xlsx","recordCount":42,"filePath":"/reports/access_november_2025.xlsx","generatedAt":"2025-12-01T06:00:00Z"}`))
	}))

	got, err := c.GenerateMonthlyReport(context.Background(), 11, 2025)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, 42, got.RecordCount)
}

func TestGenerateMonthlyReportRejectsBadMonth(t *testing.T) {
	requested := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	_, err := c.GenerateMonthlyReport(context.Background(), 13, 2025)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	assert.False(t, requested, "validation must reject before any request is issued")
}

func TestGenerateBusinessFailureIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"fileName":"","recordCount":0,"filePath":"","generatedAt":"2025-12-01T06:00:00Z","errorMessage":"no data for period"}`))
	}))

	got, err := c.GeneratePeriodicReport(context.Background())
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "no data for period", got.ErrorMessage)
}

func TestReportDetailsEscapesFileName(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/details/access%20copy.xlsx", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[{"username":"a.b","workMode":"home","networkClassification":"vpn","validationStatus":"ok","sourceIP":"::1","machineName":"NB","createdAt":"2025-11-03T09:00:00Z"}],"totalRecords":1}`))
	}))

	got, err := c.ReportDetails(context.Background(), "access copy.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalRecords)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "a.b", got.Records[0].Username)
	assert.Equal(t, got.TotalRecords, len(got.Records))
}

func TestDownloadReportValidatesExtensionBeforeRequest(t *testing.T) {
	requested := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	_, _, err := c.DownloadReport(context.Background(), "report")
	assert.ErrorIs(t, err, ErrInvalidFileName)
	assert.False(t, requested, "validation must reject before any request is issued")
}

func TestDownloadReportStreams(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/download/access_november_2025.xlsx", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("xlsx-bytes"))
	}))

	meta, stream, err := c.DownloadReport(context.Background(), "access_november_2025.xlsx")
	require.NoError(t, err)
	defer stream.Close()
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(data))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", meta.ContentType)
}

func TestHealthCheck(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2025-12-01T06:00:00Z","service":"report-backend","version":"1.4.2"}`))
	}))

	got, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "report-backend", got.Service)
}
