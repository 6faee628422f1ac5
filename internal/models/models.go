package models

import "time"

type WorkMode string

const (
	WorkModeHome   WorkMode = "home"
	WorkModeOnsite WorkMode = "onsite"
)

type NetworkClass string

const (
	NetworkInternal NetworkClass = "internal"
	NetworkExternal NetworkClass = "external"
	NetworkVPN      NetworkClass = "vpn"
)

type ValidationStatus string

const (
	ValidationOK       ValidationStatus = "ok"
	ValidationMismatch ValidationStatus = "mismatch"
)

// AccessRecord is one observed login/session event as delivered by the
// report backend. Records are immutable once received.
type AccessRecord struct {
	Username              string           `json:"username"`
	WorkMode              WorkMode         `json:"workMode"`
	NetworkClassification NetworkClass     `json:"networkClassification"`
	ValidationStatus      ValidationStatus `json:"validationStatus"`
	SourceAddress         string           `json:"sourceIP"`
	MachineName           string           `json:"machineName"`
	CreatedAt             time.Time        `json:"createdAt"`
}

// UserSummary is a per-user rollup derived from a record set.
type UserSummary struct {
	Username    string `json:"username"`
	HomeCount   int    `json:"homeCount"`
	OnsiteCount int    `json:"onsiteCount"`
	Total       int    `json:"total"`
}

type Report struct {
	FileName      string    `json:"fileName"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
	CreatedAt     time.Time `json:"createdAt"`
	FullPath      string    `json:"fullPath"`
}

type ReportList struct {
	Reports    []Report `json:"reports"`
	TotalCount int      `json:"totalCount"`
}

type ReportDetail struct {
	Records      []AccessRecord `json:"records"`
	Summary      []UserSummary  `json:"summary"`
	TotalRecords int            `json:"totalRecords"`
}

// GenerateResult carries the backend's answer to a generation request.
// Success=false is a business failure reported over a 2xx response, not
// a transport error.
type GenerateResult struct {
	Success      bool   `json:"success"`
	FileName     string `json:"fileName"`
	RecordCount  int    `json:"recordCount"`
	FilePath     string `json:"filePath"`
	GeneratedAt  string `json:"generatedAt"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

// ActivityEntry is one row of the local activity log: a generation or
// download performed through this dashboard.
type ActivityEntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	FileName    string    `json:"file_name"`
	RecordCount int       `json:"record_count"`
	OK          bool      `json:"ok"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	ActivityGenerateMonthly  = "generate_monthly"
	ActivityGeneratePeriodic = "generate_periodic"
	ActivityDownload         = "download"
)
