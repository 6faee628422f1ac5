package backend

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"reportdash/internal/models"
)

// Fallback tries the live client and substitutes demo data when the
// call fails (or always, when demo mode is forced). The substitution is
// an explicit strategy, not hidden control flow: Simulated reports
// whether the data currently served is placeholder data so the UI can
// disclose it.
type Fallback struct {
	live  Client
	demo  *DemoClient
	force bool
	log   *zap.Logger

	mu        sync.Mutex
	simulated bool
}

func NewFallback(live Client, demo *DemoClient, forceDemo bool, log *zap.Logger) *Fallback {
	return &Fallback{live: live, demo: demo, force: forceDemo, log: log, simulated: forceDemo}
}

// Simulated reports whether the most recent data served came from the
// demo provider rather than the live backend.
func (f *Fallback) Simulated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.simulated
}

// DemoForced reports whether demo mode was switched on by configuration.
func (f *Fallback) DemoForced() bool {
	return f.force
}

func (f *Fallback) mark(simulated bool) {
	f.mu.Lock()
	f.simulated = simulated
	f.mu.Unlock()
}

// fallbackWorthy excludes caller-side validation errors: those must
// surface immediately rather than being papered over with demo data.
func fallbackWorthy(err error) bool {
	return !errors.Is(err, ErrInvalidFileName) && !errors.Is(err, ErrInvalidMonth) && !errors.Is(err, context.Canceled)
}

func (f *Fallback) ListReports(ctx context.Context) (models.ReportList, error) {
	if f.force {
		return f.demo.ListReports(ctx)
	}
	out, err := f.live.ListReports(ctx)
	if err != nil {
		if !fallbackWorthy(err) {
			return models.ReportList{}, err
		}
		f.log.Warn("live report listing failed, serving demo data", zap.Error(err))
		f.mark(true)
		return f.demo.ListReports(ctx)
	}
	f.mark(false)
	return out, nil
}

func (f *Fallback) GenerateMonthlyReport(ctx context.Context, month, year int) (models.GenerateResult, error) {
	if f.force {
		return f.demo.GenerateMonthlyReport(ctx, month, year)
	}
	out, err := f.live.GenerateMonthlyReport(ctx, month, year)
	if err != nil {
		if !fallbackWorthy(err) {
			return models.GenerateResult{}, err
		}
		f.log.Warn("live monthly generation failed, serving demo result", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		f.mark(true)
		return f.demo.GenerateMonthlyReport(ctx, month, year)
	}
	f.mark(false)
	return out, nil
}

func (f *Fallback) GeneratePeriodicReport(ctx context.Context) (models.GenerateResult, error) {
	if f.force {
		return f.demo.GeneratePeriodicReport(ctx)
	}
	out, err := f.live.GeneratePeriodicReport(ctx)
	if err != nil {
		if !fallbackWorthy(err) {
			return models.GenerateResult{}, err
		}
		f.log.Warn("live periodic generation failed, serving demo result", zap.Error(err))
		f.mark(true)
		return f.demo.GeneratePeriodicReport(ctx)
	}
	f.mark(false)
	return out, nil
}

func (f *Fallback) ReportDetails(ctx context.Context, fileName string) (models.ReportDetail, error) {
	if f.force {
		return f.demo.ReportDetails(ctx, fileName)
	}
	out, err := f.live.ReportDetails(ctx, fileName)
	if err != nil {
		if !fallbackWorthy(err) {
			return models.ReportDetail{}, err
		}
		f.log.Warn("live report detail failed, serving demo data", zap.String("file_name", fileName), zap.Error(err))
		f.mark(true)
		return f.demo.ReportDetails(ctx, fileName)
	}
	f.mark(false)
	return out, nil
}

func (f *Fallback) DownloadReport(ctx context.Context, fileName string) (DownloadMeta, io.ReadCloser, error) {
	if f.force {
		return f.demo.DownloadReport(ctx, fileName)
	}
	meta, stream, err := f.live.DownloadReport(ctx, fileName)
	if err != nil {
		if !fallbackWorthy(err) {
			return DownloadMeta{}, nil, err
		}
		f.log.Warn("live download failed, serving demo file", zap.String("file_name", fileName), zap.Error(err))
		f.mark(true)
		return f.demo.DownloadReport(ctx, fileName)
	}
	f.mark(false)
	return meta, stream, nil
}

func (f *Fallback) HealthCheck(ctx context.Context) (models.HealthStatus, error) {
	if f.force {
		return f.demo.HealthCheck(ctx)
	}
	out, err := f.live.HealthCheck(ctx)
	if err != nil {
		if !fallbackWorthy(err) {
			return models.HealthStatus{}, err
		}
		f.log.Warn("live health check failed, serving demo status", zap.Error(err))
		f.mark(true)
		return f.demo.HealthCheck(ctx)
	}
	f.mark(false)
	return out, nil
}
