package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/schedule"
)

// ConflictGuard validates a proposed (professional, date, time) slot before an
// appointment is created. It is a side-effect-free pre-check: the storage
// uniqueness constraint remains the authoritative arbiter, so callers may
// re-validate freely without creating partial state.
type ConflictGuard struct {
	appointments AppointmentStore
	clock        Clock
}

func NewConflictGuard(appointments AppointmentStore, clock Clock) *ConflictGuard {
	return &ConflictGuard{appointments: appointments, clock: clock}
}

// Validate applies, in order:
//  1. no past bookings: the date must not be before today. Calendar dates
//     only; a same-day slot is accepted regardless of wall-clock time.
//  2. no double booking: no non-cancelled appointment may occupy the slot.
//
// A rule 1 failure short-circuits rule 2.
func (g *ConflictGuard) Validate(ctx context.Context, professionalID, date, timeOfDay string) error {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return err
	}
	if _, err := schedule.ParseClock(timeOfDay); err != nil {
		return err
	}

	now := g.clock.Today()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return fmt.Errorf("%w: %s", ErrPastDate, date)
	}

	taken, err := g.appointments.ExistsAt(ctx, professionalID, date, timeOfDay)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s %s with professional %s", ErrSlotConflict, date, timeOfDay, professionalID)
	}
	return nil
}
