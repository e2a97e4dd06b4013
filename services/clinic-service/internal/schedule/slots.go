package schedule

import "fmt"

// Slots expands a working window into discrete slot start times.
//
// Given start and end (HH:MM) and a slot length in minutes, it returns
// t0, t0+d, t0+2d, ... keeping only slots whose [t, t+d) interval fits
// entirely inside [start, end). A trailing partial slot is dropped, so the
// output never over-runs the window.
//
// The window must be non-empty and the duration positive; both are rejected
// with ErrInvalidInput rather than silently yielding an empty list.
func Slots(start, end string, durationMinutes int) ([]string, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive (got %d)", ErrInvalidInput, durationMinutes)
	}
	if startMin >= endMin {
		return nil, fmt.Errorf("%w: window start %s is not before end %s", ErrInvalidInput, start, end)
	}

	var out []string
	for t := startMin; t+durationMinutes <= endMin; t += durationMinutes {
		out = append(out, FormatClock(t))
	}
	return out, nil
}
