package reporting

import (
	"strings"
	"time"
)

// DateRange is the dashboard's date-range selector.
type DateRange string

const (
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

// ParseDateRange reads the selector value, defaulting to a month.
func ParseDateRange(value string) DateRange {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(value))); r {
	case RangeToday, RangeWeek, RangeMonth, RangeYear:
		return r
	default:
		return RangeMonth
	}
}

// Window returns the start of the range ending at now.
func (r DateRange) Window(now time.Time) (time.Time, time.Time) {
	switch r {
	case RangeToday:
		return now.AddDate(0, 0, -1), now
	case RangeWeek:
		return now.AddDate(0, 0, -7), now
	case RangeYear:
		return now.AddDate(-1, 0, 0), now
	default:
		return now.AddDate(0, -1, 0), now
	}
}

// Label is the human caption for the range.
func (r DateRange) Label() string {
	switch r {
	case RangeToday:
		return "Last 24 hours"
	case RangeWeek:
		return "Last 7 days"
	case RangeYear:
		return "Last 12 months"
	default:
		return "Last 30 days"
	}
}
