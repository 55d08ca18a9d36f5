// Package timecode turns wall-clock time into the numeric parameters the
// avatar reads: HHMMSS as a number and a Monday-based weekday index.
package timecode

import (
	"strconv"
	"time"
)

const numericLayout = "150405"

// Numeric returns t as the number HHMMSS, e.g. 14:05:09 -> 140509.
func Numeric(t time.Time) float32 {
	v, err := strconv.ParseFloat(t.Format(numericLayout), 32)
	if err != nil {
		return 0
	}
	return float32(v)
}

// Weekday returns 0 for Monday through 6 for Sunday.
func Weekday(t time.Time) float32 {
	return float32((int(t.Weekday()) + 6) % 7)
}

// Clock returns t formatted for display, e.g. "14:05:09".
func Clock(t time.Time) string {
	return t.Format(time.TimeOnly)
}
