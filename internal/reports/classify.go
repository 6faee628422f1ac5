package reports

import (
	"fmt"
	"strings"
	"time"
)

type ReportType string

const (
	TypeMonthly  ReportType = "monthly"
	TypePeriodic ReportType = "periodic"
)

// periodicMarker is the token the generator embeds in file names for
// cross-month windows (21st of one month through the 20th of the next),
// e.g. "access_21_november_to_20_december_2025.xlsx".
const periodicMarker = "21_"

// Classify decides the report type from its file name. Total over all
// strings: anything without the periodic window marker is monthly.
func Classify(fileName string) ReportType {
	if strings.Contains(fileName, periodicMarker) {
		return TypePeriodic
	}
	return TypeMonthly
}

// timeLayouts maps a display locale to its date-time layout. The report
// generator's audience reads dd/mm/yyyy, so pt-BR is the default.
var timeLayouts = map[string]string{
	"pt-BR": "02/01/2006 15:04",
	"en-GB": "02/01/2006 15:04",
	"en-US": "01/02/2006 3:04 PM",
}

const DefaultLocale = "pt-BR"

// FormatTimestamp renders an ISO 8601 timestamp for display in the given
// locale. Unknown locales fall back to the default layout. The only
// failure mode is an unparseable input; callers are expected to show a
// placeholder in that case rather than fail rendering.
func FormatTimestamp(iso, locale string) (string, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return "", fmt.Errorf("parse report timestamp %q: %w", iso, err)
	}
	return FormatTime(t, locale), nil
}

// FormatTime is the already-parsed variant of FormatTimestamp.
func FormatTime(t time.Time, locale string) string {
	layout, ok := timeLayouts[locale]
	if !ok {
		layout = timeLayouts[DefaultLocale]
	}
	return t.Format(layout)
}
