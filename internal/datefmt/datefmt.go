// Package datefmt formats backend dates for display, e.g. "June 13th" or
// "December 25th, 2024".
package datefmt

import (
	"fmt"
	"time"

	"github.com/claude/ascend/internal/models"
)

// Format formats an ISO date relative to the current year. Input that does
// not parse is returned unchanged.
func Format(date string) string {
	return FormatAt(date, time.Now())
}

// FormatAt formats an ISO date, adding the year when it differs from now's.
func FormatAt(date string, now time.Time) string {
	d, err := models.ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(d, now)
}

// FormatDate formats d, adding the year when it differs from now's.
func FormatDate(d models.Date, now time.Time) string {
	if d.IsZero() {
		return ""
	}
	s := fmt.Sprintf("%s %d%s", d.Month(), d.Day(), Ordinal(d.Day()))
	if d.Year() != now.Year() {
		s += fmt.Sprintf(", %d", d.Year())
	}
	return s
}

// Ordinal returns the English ordinal suffix for a day of the month.
func Ordinal(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
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
