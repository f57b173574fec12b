package datefmt

import (
	"strconv"
	"strings"
	"time"
)

// Suffix returns the ordinal suffix for a day of the month.
func Suffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// Ordinal returns the day of the month with its suffix, e.g. "22nd".
func Ordinal(day int) string {
	return strconv.Itoa(day) + Suffix(day)
}

// Format formats t using a time.Format layout. Any "{S}" in the layout is replaced by the ordinal day of the month.
func Format(layout string, t time.Time) string {
	return strings.ReplaceAll(t.Format(layout), "{S}", Ordinal(t.Day()))
}
