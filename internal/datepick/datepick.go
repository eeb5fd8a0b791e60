// Package datepick resolves the planned-date picker on the new session form
// into a calendar date.
package datepick

import "time"

// Picker modes.
const (
	ModeToday    = "today"
	ModeTomorrow = "tomorrow"
	ModeCustom   = "custom"
)

// Layout is the date format the picker produces.
const Layout = "2006-01-02"

// Value returns the selected date as YYYY-MM-DD. Today and tomorrow are
// taken from now's calendar date in its own location; custom returns
// customDate verbatim, which is empty until a date is chosen. Unknown modes
// behave like today.
func Value(mode, customDate string, now time.Time) string {
	switch mode {
	case ModeTomorrow:
		return now.AddDate(0, 0, 1).Format(Layout)
	case ModeCustom:
		return customDate
	default:
		return now.Format(Layout)
	}
}

// Resolve picks the planned date for a submitted form. A date posted
// directly wins over the picker fields. A form without a picker mode has no
// planned date.
func Resolve(plannedForDate, mode, customDate string, now time.Time) string {
	if plannedForDate != "" {
		return plannedForDate
	}
	if mode == "" {
		return ""
	}
	return Value(mode, customDate, now)
}
