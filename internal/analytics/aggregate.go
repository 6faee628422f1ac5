// Package analytics reshapes flat access-record lists into the series
// the dashboard charts render. Every function is pure: an empty input
// yields zero-filled output and never an error.
package analytics

import (
	"sort"
	"strings"

	"reportdash/internal/models"
)

// Bucket is one labeled slot of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TrendPoint is one calendar day of the access trend.
type TrendPoint struct {
	Date   string `json:"date"`
	Total  int    `json:"total"`
	Home   int    `json:"home"`
	Onsite int    `json:"onsite"`
}

// UserRank is one row of the top-user chart. Username is the display
// form: the part of the identifier before its first dot.
type UserRank struct {
	Username string `json:"username"`
	Total    int    `json:"total"`
	Home     int    `json:"home"`
	Onsite   int    `json:"onsite"`
}

// trendDays caps the daily trend to the most recent calendar days.
const trendDays = 14

// otherBucket collects records whose enum value is none of the known
// ones, so distribution counts always sum to the record count.
const otherBucket = "other"

// Summarize groups records by username and counts home vs onsite work.
// The result is ordered descending by total; ties keep the order in
// which the usernames were first encountered (stable sort).
func Summarize(records []models.AccessRecord) []models.UserSummary {
	index := make(map[string]int, len(records))
	out := make([]models.UserSummary, 0, len(records))
	for _, r := range records {
		i, ok := index[r.Username]
		if !ok {
			i = len(out)
			index[r.Username] = i
			out = append(out, models.UserSummary{Username: r.Username})
		}
		switch r.WorkMode {
		case models.WorkModeHome:
			out[i].HomeCount++
		case models.WorkModeOnsite:
			out[i].OnsiteCount++
		}
		out[i].Total++
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total > out[b].Total })
	return out
}

// WorkModeDistribution tallies records into home and onsite buckets.
// Unrecognized work modes land in a trailing "other" bucket, appended
// only when non-empty.
func WorkModeDistribution(records []models.AccessRecord) []Bucket {
	var home, onsite, other int
	for _, r := range records {
		switch r.WorkMode {
		case models.WorkModeHome:
			home++
		case models.WorkModeOnsite:
			onsite++
		default:
			other++
		}
	}
	out := []Bucket{
		{Label: string(models.WorkModeHome), Count: home},
		{Label: string(models.WorkModeOnsite), Count: onsite},
	}
	if other > 0 {
		out = append(out, Bucket{Label: otherBucket, Count: other})
	}
	return out
}

// ValidationDistribution tallies records by validation status.
func ValidationDistribution(records []models.AccessRecord) []Bucket {
	var ok, mismatch, other int
	for _, r := range records {
		switch r.ValidationStatus {
		case models.ValidationOK:
			ok++
		case models.ValidationMismatch:
			mismatch++
		default:
			other++
		}
	}
	out := []Bucket{
		{Label: string(models.ValidationOK), Count: ok},
		{Label: string(models.ValidationMismatch), Count: mismatch},
	}
	if other > 0 {
		out = append(out, Bucket{Label: otherBucket, Count: other})
	}
	return out
}

// NetworkDistribution tallies records by observed network origin.
func NetworkDistribution(records []models.AccessRecord) []Bucket {
	var internal, external, vpn, other int
	for _, r := range records {
		switch r.NetworkClassification {
		case models.NetworkInternal:
			internal++
		case models.NetworkExternal:
			external++
		case models.NetworkVPN:
			vpn++
		default:
			other++
		}
	}
	out := []Bucket{
		{Label: string(models.NetworkInternal), Count: internal},
		{Label: string(models.NetworkExternal), Count: external},
		{Label: string(models.NetworkVPN), Count: vpn},
	}
	if other > 0 {
		out = append(out, Bucket{Label: otherBucket, Count: other})
	}
	return out
}

// DailyTrend buckets records per calendar day (dd/mm) and returns the
// last 14 days present in the data, in chronological order. The input
// is sorted by event time here rather than assuming the caller did.
func DailyTrend(records []models.AccessRecord) []TrendPoint {
	sorted := make([]models.AccessRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].CreatedAt.Before(sorted[b].CreatedAt)
	})

	index := make(map[string]int, trendDays)
	out := make([]TrendPoint, 0, trendDays)
	for _, r := range sorted {
		key := r.CreatedAt.Format("02/01")
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, TrendPoint{Date: key})
		}
		switch r.WorkMode {
		case models.WorkModeHome:
			out[i].Home++
		case models.WorkModeOnsite:
			out[i].Onsite++
		}
		out[i].Total++
	}
	if len(out) > trendDays {
		out = out[len(out)-trendDays:]
	}
	return out
}

// TopUsers returns the first n entries of an already-sorted summary,
// with usernames truncated to the part before the first dot for
// display ("igor.batista" -> "igor").
func TopUsers(summary []models.UserSummary, n int) []UserRank {
	if n > len(summary) {
		n = len(summary)
	}
	out := make([]UserRank, 0, n)
	for _, s := range summary[:n] {
		name, _, _ := strings.Cut(s.Username, ".")
		out = append(out, UserRank{
			Username: name,
			Total:    s.Total,
			Home:     s.HomeCount,
			Onsite:   s.OnsiteCount,
		})
	}
	return out
}

// UniqueUsers counts distinct usernames in the record set.
func UniqueUsers(records []models.AccessRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.Username] = struct{}{}
	}
	return len(seen)
}
