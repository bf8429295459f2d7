package fiscal

import (
	"fmt"
	"time"
)

// The fiscal year runs April 1 through March 31.
// Its bucket label joins the two-digit start and end years, e.g. the year
// starting April 2025 is labeled "2526".

// StartYear returns the calendar year in which the fiscal year containing t began.
func StartYear(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// Bucket returns the fiscal-year bucket label for t.
func Bucket(t time.Time) string {
	start := StartYear(t)
	return fmt.Sprintf("%02d%02d", start%100, (start+1)%100)
}
