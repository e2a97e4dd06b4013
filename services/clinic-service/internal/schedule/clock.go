package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput reports malformed clock strings, dates, or slot durations.
var ErrInvalidInput = errors.New("invalid input")

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// ParseClock parses a zero-padded 24-hour HH:MM string into minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad clock time %q", ErrInvalidInput, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as zero-padded HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a YYYY-MM-DD calendar date. The result carries no clock
// component; weekday math uses Go's convention (Sunday == 0).
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidInput, s)
	}
	return d, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}
