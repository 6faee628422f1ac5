package backend

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand"
	"sort"
	"strings"
	"time"

	"reportdash/internal/models"
	"reportdash/internal/reports"
)

// DemoClient serves deterministic placeholder data shaped like real
// backend responses. It is used when demo mode is forced or the live
// backend is unreachable; results are seeded by file name so the same
// report always renders the same charts.
type DemoClient struct {
	delay time.Duration
	now   func() time.Time
}

func NewDemoClient(delay time.Duration) *DemoClient {
	return &DemoClient{
		delay: delay,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var demoUsernames = []string{
	"igor.batista",
	"jonathan.barbosa",
	"maria.silva",
	"pedro.santos",
	"ana.oliveira",
	"carlos.ferreira",
	"julia.costa",
	"lucas.almeida",
}

var demoMachines = []string{
	"SANDECH-320-NT",
	"SANDECH-255-NT",
	"SANDECH-180-NT",
	"WORKSTATION-01",
	"WORKSTATION-02",
	"NOTEBOOK-DEV",
	"NOTEBOOK-ADM",
}

func (d *DemoClient) ListReports(ctx context.Context) (models.ReportList, error) {
	if err := d.sleep(ctx); err != nil {
		return models.ReportList{}, err
	}
	now := d.now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []models.Report
	for back := 1; back <= 3; back++ {
		month := firstOfMonth.AddDate(0, -back, 0)
		name := fmt.Sprintf("access_%s_%d.xlsx", monthName(month.Month()), month.Year())
		createdAt := time.Date(month.Year(), month.Month(), 1, 6, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		out = append(out, models.Report{
			FileName:      name,
			FileSizeBytes: demoFileSize(name),
			CreatedAt:     createdAt,
			FullPath:      "/reports/" + name,
		})
	}
	periodic := periodicFileName(now)
	out = append(out, models.Report{
		FileName:      periodic,
		FileSizeBytes: demoFileSize(periodic),
		CreatedAt:     time.Date(now.Year(), now.Month(), 20, 18, 0, 0, 0, time.UTC),
		FullPath:      "/reports/" + periodic,
	})
	return models.ReportList{Reports: out, TotalCount: len(out)}, nil
}

func (d *DemoClient) GenerateMonthlyReport(ctx context.Context, month, year int) (models.GenerateResult, error) {
	if month < 1 || month > 12 {
		return models.GenerateResult{}, ErrInvalidMonth
	}
	if err := d.sleep(ctx); err != nil {
		return models.GenerateResult{}, err
	}
	name := fmt.Sprintf("access_%s_%d.xlsx", monthName(time.Month(month)), year)
	rng := seededRand(name)
	return models.GenerateResult{
		Success:     true,
		FileName:    name,
		RecordCount: 30 + rng.Intn(51),
		FilePath:    "/reports/" + name,
		GeneratedAt: d.now().Format(time.RFC3339),
	}, nil
}

func (d *DemoClient) GeneratePeriodicReport(ctx context.Context) (models.GenerateResult, error) {
	if err := d.sleep(ctx); err != nil {
		return models.GenerateResult{}, err
	}
	name := periodicFileName(d.now())
	rng := seededRand(name)
	return models.GenerateResult{
		Success:     true,
		FileName:    name,
		RecordCount: 80 + rng.Intn(101),
		FilePath:    "/reports/" + name,
		GeneratedAt: d.now().Format(time.RFC3339),
	}, nil
}

func (d *DemoClient) ReportDetails(ctx context.Context, fileName string) (models.ReportDetail, error) {
	if err := d.sleep(ctx); err != nil {
		return models.ReportDetail{}, err
	}
	now := d.now()
	rng := seededRand(fileName)

	var start, end time.Time
	var count int
	if reports.Classify(fileName) == reports.TypePeriodic {
		start = time.Date(now.Year(), now.Month()-1, 21, 0, 0, 0, 0, time.UTC)
		end = time.Date(now.Year(), now.Month(), 20, 23, 59, 59, 0, time.UTC)
		count = 80 + rng.Intn(101)
	} else {
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0).Add(-time.Second)
		count = 30 + rng.Intn(51)
	}

	records := make([]models.AccessRecord, 0, count)
	window := end.Unix() - start.Unix()
	for i := 0; i < count; i++ {
		mode := models.WorkModeHome
		if rng.Float64() > 0.4 {
			mode = models.WorkModeOnsite
		}
		var network models.NetworkClass
		if mode == models.WorkModeHome {
			network = models.NetworkVPN
			if rng.Float64() > 0.3 {
				network = models.NetworkExternal
			}
		} else {
			network = models.NetworkExternal
			if rng.Float64() > 0.5 {
				network = models.NetworkInternal
			}
		}
		records = append(records, models.AccessRecord{
			Username:              demoUsernames[rng.Intn(len(demoUsernames))],
			WorkMode:              mode,
			NetworkClassification: network,
			ValidationStatus:      validate(mode, network),
			SourceAddress:         fmt.Sprintf("::ffff:192.168.0.%d", rng.Intn(255)),
			MachineName:           demoMachines[rng.Intn(len(demoMachines))],
			CreatedAt:             start.Add(time.Duration(rng.Int63n(window)) * time.Second),
		})
	}
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].CreatedAt.Before(records[b].CreatedAt)
	})
	return models.ReportDetail{Records: records, TotalRecords: len(records)}, nil
}

func (d *DemoClient) DownloadReport(ctx context.Context, fileName string) (DownloadMeta, io.ReadCloser, error) {
	if err := validateDownloadName(fileName); err != nil {
		return DownloadMeta{}, nil, err
	}
	if err := d.sleep(ctx); err != nil {
		return DownloadMeta{}, nil, err
	}
	payload := []byte("simulated report placeholder: " + fileName + "\n")
	meta := DownloadMeta{
		FileName:    fileName,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        int64(len(payload)),
	}
	return meta, io.NopCloser(bytes.NewReader(payload)), nil
}

func (d *DemoClient) HealthCheck(ctx context.Context) (models.HealthStatus, error) {
	if err := d.sleep(ctx); err != nil {
		return models.HealthStatus{}, err
	}
	return models.HealthStatus{
		Status:    "healthy",
		Timestamp: d.now().Format(time.RFC3339),
		Service:   "report-backend",
		Version:   "demo",
	}, nil
}

// validate flags record mode/network pairs that are policy-inconsistent:
// onsite work from an external network, or home work from the internal one.
func validate(mode models.WorkMode, network models.NetworkClass) models.ValidationStatus {
	if (mode == models.WorkModeOnsite && network == models.NetworkExternal) ||
		(mode == models.WorkModeHome && network == models.NetworkInternal) {
		return models.ValidationMismatch
	}
	return models.ValidationOK
}

// sleep imitates network latency so demo mode behaves like a remote call.
func (d *DemoClient) sleep(ctx context.Context) error {
	if d.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.delay):
		return nil
	}
}

func seededRand(fileName string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fileName))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func demoFileSize(fileName string) int64 {
	return 24<<10 + seededRand(fileName).Int63n(96<<10)
}

func periodicFileName(now time.Time) string {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return fmt.Sprintf("access_21_%s_to_20_%s_%d.xlsx", monthName(prev.Month()), monthName(now.Month()), now.Year())
}

func monthName(m time.Month) string {
	return strings.ToLower(m.String())
}
