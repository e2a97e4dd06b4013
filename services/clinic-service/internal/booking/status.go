package booking

import "strings"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// ParseStatus maps a raw status string onto the closed set of variants.
// The second return reports whether the input was recognized.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusNoShow:
		return StatusNoShow, true
	}
	return StatusPending, false
}

// Terminal reports whether no further transition may leave this state.
// Cancellation is the one exception: it is accepted from any state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}
