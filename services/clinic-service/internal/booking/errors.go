package booking

import (
	"errors"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/schedule"
)

// ErrInvalidInput aliases the schedule sentinel so callers match one error
// kind for every malformed time, date, or duration.
var ErrInvalidInput = schedule.ErrInvalidInput

var (
	ErrPastDate     = errors.New("booking date is in the past")
	ErrSlotConflict = errors.New("time slot already booked")
	ErrNotFound     = errors.New("appointment not found")
)
