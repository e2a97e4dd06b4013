package booking

import (
	"context"
	"time"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
)

// TemplateStore reads shift templates; the booking core never writes them.
type TemplateStore interface {
	ListForWeekday(ctx context.Context, professionalID string, weekday time.Weekday) ([]ShiftTemplate, error)
}

// AppointmentStore persists appointments. Insert and UpdateStatus write the
// given outbox events in the same transaction as the row change; Insert must
// return ErrSlotConflict when the storage uniqueness constraint on
// (professional, date, time) fires, and Get/UpdateStatus ErrNotFound for an
// unknown id.
type AppointmentStore interface {
	Insert(ctx context.Context, appt *Appointment, events []outbox.Event) error
	Get(ctx context.Context, id string) (Appointment, error)
	ExistsAt(ctx context.Context, professionalID, date, timeOfDay string) (bool, error)
	BookedTimes(ctx context.Context, professionalID, date string) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status Status, events []outbox.Event) error
	ListByProfessional(ctx context.Context, professionalID, date string) ([]Appointment, error)
	ListByClient(ctx context.Context, clientID string) ([]Appointment, error)
}

// Clock supplies the current calendar date. Injected so past-date rules are
// testable with a fixed day.
type Clock interface {
	Today() time.Time
}

type SystemClock struct{}

func (SystemClock) Today() time.Time { return time.Now() }
