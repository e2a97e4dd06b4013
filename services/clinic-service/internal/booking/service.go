package booking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/schedule"
)

// Service owns the appointment lifecycle: it derives availability, validates
// proposed slots through the ConflictGuard, and drives the pending ->
// completed/cancelled/no_show state machine.
type Service struct {
	templates    TemplateStore
	appointments AppointmentStore
	guard        *ConflictGuard
	logger       *slog.Logger
}

func NewService(templates TemplateStore, appointments AppointmentStore, clock Clock, logger *slog.Logger) *Service {
	return &Service{
		templates:    templates,
		appointments: appointments,
		guard:        NewConflictGuard(appointments, clock),
		logger:       logger,
	}
}

// AvailableSlots lists the free HH:MM slots for a professional on a calendar
// date: every slot generated from the professional's shift templates for that
// weekday, minus the times already held by non-cancelled appointments, sorted
// chronologically. A blank professional or unparseable date is a normal
// "no availability" answer, never an error.
func (s *Service) AvailableSlots(ctx context.Context, professionalID, date string) ([]string, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, nil
	}
	day, err := schedule.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, nil
	}

	templates, err := s.templates.ListForWeekday(ctx, professionalID, day.Weekday())
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, nil
	}

	bookedTimes, err := s.appointments.BookedTimes(ctx, professionalID, schedule.FormatDate(day))
	if err != nil {
		return nil, err
	}
	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	seen := make(map[string]struct{})
	var free []string
	for _, tpl := range templates {
		slots, err := schedule.Slots(schedule.FormatClock(tpl.StartMinute), schedule.FormatClock(tpl.EndMinute), tpl.SlotMinutes)
		if err != nil {
			// Template bounds are validated on write; a bad row should not
			// take down the whole day.
			s.logger.Warn("skipping malformed shift template", "template_id", tpl.ID, "err", err)
			continue
		}
		for _, slot := range slots {
			if _, dup := seen[slot]; dup {
				continue
			}
			seen[slot] = struct{}{}
			if _, taken := booked[slot]; taken {
				continue
			}
			free = append(free, slot)
		}
	}
	sort.Strings(free)
	return free, nil
}

type CreateRequest struct {
	ProfessionalID string
	ClientID       string
	PetID          string
	Date           string
	Time           string
	Reason         string
}

// Create validates the request through the ConflictGuard and persists a new
// pending appointment together with its outbox events in one transaction.
// Nothing is persisted on a validation failure.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.PetID = strings.TrimSpace(req.PetID)
	if req.ProfessionalID == "" || req.ClientID == "" || req.PetID == "" {
		return "", fmt.Errorf("%w: professional, client and pet are required", ErrInvalidInput)
	}

	day, err := schedule.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return "", err
	}
	minutes, err := schedule.ParseClock(strings.TrimSpace(req.Time))
	if err != nil {
		return "", err
	}
	date := schedule.FormatDate(day)
	timeOfDay := schedule.FormatClock(minutes)

	if err := s.guard.Validate(ctx, req.ProfessionalID, date, timeOfDay); err != nil {
		return "", err
	}

	appt := &Appointment{
		ID:             uuid.NewString(),
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		PetID:          req.PetID,
		Date:           date,
		Time:           timeOfDay,
		Status:         StatusPending,
		Reason:         strings.TrimSpace(req.Reason),
	}

	booked, err := bookedEvent(appt)
	if err != nil {
		return "", err
	}
	reminder, err := reminderRequestedEvent(appt)
	if err != nil {
		return "", err
	}

	if err := s.appointments.Insert(ctx, appt, []outbox.Event{booked, reminder}); err != nil {
		return "", err
	}
	return appt.ID, nil
}

// Cancel transitions an appointment to cancelled regardless of its current
// state. Cancelling an already-cancelled appointment is a no-op success.
func (s *Service) Cancel(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: appointment id required", ErrInvalidInput)
	}

	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status == StatusCancelled {
		return nil
	}

	evt, err := cancelledEvent(&appt)
	if err != nil {
		return err
	}
	return s.appointments.UpdateStatus(ctx, id, StatusCancelled, []outbox.Event{evt})
}

// SetStatus moves an appointment to completed, cancelled, or no_show.
// Unrecognized status strings normalize to pending instead of failing; the
// lenient default is kept on purpose for older mobile clients that send
// free-form status text. Terminal states only admit cancellation.
func (s *Service) SetStatus(ctx context.Context, id, rawStatus string) (Status, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: appointment id required", ErrInvalidInput)
	}

	status, known := ParseStatus(rawStatus)
	if !known {
		s.logger.Warn("unrecognized appointment status, defaulting to pending", "status", rawStatus)
	}

	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if appt.Status == status {
		return status, nil
	}
	if status == StatusCancelled {
		evt, err := cancelledEvent(&appt)
		if err != nil {
			return "", err
		}
		return status, s.appointments.UpdateStatus(ctx, id, status, []outbox.Event{evt})
	}
	if appt.Status.Terminal() {
		return "", fmt.Errorf("%w: appointment is already %s", ErrInvalidInput, appt.Status)
	}

	evt, err := statusEvent(&appt, status)
	if err != nil {
		return "", err
	}
	return status, s.appointments.UpdateStatus(ctx, id, status, []outbox.Event{evt})
}

// ListForProfessional returns a professional's appointments for one date,
// ordered by date then time.
func (s *Service) ListForProfessional(ctx context.Context, professionalID, date string) ([]Appointment, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, fmt.Errorf("%w: professional id required", ErrInvalidInput)
	}
	day, err := schedule.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, err
	}
	return s.appointments.ListByProfessional(ctx, professionalID, schedule.FormatDate(day))
}

// ListForClient returns all of a client's appointments, ordered by date then time.
func (s *Service) ListForClient(ctx context.Context, clientID string) ([]Appointment, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id required", ErrInvalidInput)
	}
	return s.appointments.ListByClient(ctx, clientID)
}
