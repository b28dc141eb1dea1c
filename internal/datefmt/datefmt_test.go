package datefmt

import (
	"testing"
	"time"
)

// TestFormatAt verifies the ordinal suffixes and the year rule.
func TestFormatAt(t *testing.T) {
	now := time.Date(2025, time.June, 14, 12, 0, 0, 0, time.Local)
	tests := []struct {
		in   string
		want string
	}{
		{"2025-07-04", "July 4th"},
		{"2024-07-04", "July 4th, 2024"},
		{"2025-07-11", "July 11th"},
		{"2025-07-12", "July 12th"},
		{"2025-07-13", "July 13th"},
		{"2025-06-01", "June 1st"},
		{"2025-06-02", "June 2nd"},
		{"2025-06-03", "June 3rd"},
		{"2025-06-21", "June 21st"},
		{"2025-06-22", "June 22nd"},
		{"2025-06-23", "June 23rd"},
		{"2025-05-31", "May 31st"},
		{"2024-12-25", "December 25th, 2024"},
		{"2026-01-01", "January 1st, 2026"},
		{"not-a-date", "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatAt(tt.in, now); got != tt.want {
				t.Errorf("FormatAt(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
