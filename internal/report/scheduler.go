// Package report decides when monthly and annual reports may be generated
// and orchestrates the period close that produces them.
//
// Eligibility is pure calendar logic over the current date and the set of
// already-generated period markers; it never touches the store itself.
package report

import (
	"fmt"
	"time"
)

// Report generation windows, by day of month. The monthly and annual
// windows overlap on January 2-5: both reports can be eligible at once,
// callers must not assume exclusivity.
const (
	monthlyWindowFirstDay = 1
	monthlyWindowLastDay  = 5
	annualWindowFirstDay  = 2
	annualWindowLastDay   = 6
)

// Markers is the set of period keys whose report has been produced.
type Markers map[string]struct{}

func (m Markers) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m Markers) Add(key string) {
	m[key] = struct{}{}
}

// MonthlyPeriodKey returns the marker key for the month immediately
// preceding t's month, format YYYY-MM. In January it wraps to December of
// the prior year.
func MonthlyPeriodKey(t time.Time) string {
	year, month := t.Year(), int(t.Month())
	month--
	if month == 0 {
		month = 12
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

// AnnualPeriodKey returns the annual marker key for t's year.
func AnnualPeriodKey(t time.Time) string {
	return fmt.Sprintf("%04d-anual", t.Year())
}

// LastDecemberKey returns the monthly key for December of the year before t.
func LastDecemberKey(t time.Time) string {
	return fmt.Sprintf("%04d-12", t.Year()-1)
}

// PeriodLabel is the human label of the month a close performed at t
// snapshots, e.g. "December 2025" for any t in January 2026.
func PeriodLabel(t time.Time) string {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return firstOfMonth.AddDate(0, -1, 0).Format("January 2006")
}

// CanGenerateMonthlyReport reports whether the previous month's report may
// be generated at t: the day of month falls in the monthly window and the
// period has not been reported yet.
func CanGenerateMonthlyReport(t time.Time, markers Markers) bool {
	day := t.Day()
	if day < monthlyWindowFirstDay || day > monthlyWindowLastDay {
		return false
	}
	return !markers.Has(MonthlyPeriodKey(t))
}

// CanGenerateAnnualReport reports whether the prior year's rollup may be
// generated at t: it is early January, last December's monthly report was
// produced, and this year's annual report was not.
func CanGenerateAnnualReport(t time.Time, markers Markers) bool {
	if t.Month() != time.January {
		return false
	}
	day := t.Day()
	if day < annualWindowFirstDay || day > annualWindowLastDay {
		return false
	}
	if !markers.Has(LastDecemberKey(t)) {
		return false
	}
	return !markers.Has(AnnualPeriodKey(t))
}
