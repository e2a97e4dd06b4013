package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"testing"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
)

// fakeStore mimics the pg repositories, including the partial uniqueness
// constraint on (professional, date, time) for non-cancelled rows.
type fakeStore struct {
	templates []ShiftTemplate
	appts     map[string]Appointment
	events    []outbox.Event
}

func newFakeStore(templates ...ShiftTemplate) *fakeStore {
	return &fakeStore{templates: templates, appts: map[string]Appointment{}}
}

func (f *fakeStore) ListForWeekday(_ context.Context, professionalID string, weekday time.Weekday) ([]ShiftTemplate, error) {
	var out []ShiftTemplate
	for _, tpl := range f.templates {
		if tpl.ProfessionalID == professionalID && tpl.Weekday == weekday {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, appt *Appointment, events []outbox.Event) error {
	for _, existing := range f.appts {
		if existing.ProfessionalID == appt.ProfessionalID &&
			existing.Date == appt.Date && existing.Time == appt.Time &&
			existing.Status != StatusCancelled {
			return fmt.Errorf("%w: %s %s", ErrSlotConflict, appt.Date, appt.Time)
		}
	}
	appt.CreatedAt = time.Now()
	f.appts[appt.ID] = *appt
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Appointment, error) {
	appt, ok := f.appts[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return appt, nil
}

func (f *fakeStore) ExistsAt(_ context.Context, professionalID, date, timeOfDay string) (bool, error) {
	for _, appt := range f.appts {
		if appt.ProfessionalID == professionalID && appt.Date == date &&
			appt.Time == timeOfDay && appt.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) BookedTimes(_ context.Context, professionalID, date string) ([]string, error) {
	var out []string
	for _, appt := range f.appts {
		if appt.ProfessionalID == professionalID && appt.Date == date && appt.Status != StatusCancelled {
			out = append(out, appt.Time)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status Status, events []outbox.Event) error {
	appt, ok := f.appts[id]
	if !ok {
		return ErrNotFound
	}
	appt.Status = status
	f.appts[id] = appt
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeStore) ListByProfessional(_ context.Context, professionalID, date string) ([]Appointment, error) {
	var out []Appointment
	for _, appt := range f.appts {
		if appt.ProfessionalID == professionalID && appt.Date == date {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (f *fakeStore) ListByClient(_ context.Context, clientID string) ([]Appointment, error) {
	var out []Appointment
	for _, appt := range f.appts {
		if appt.ClientID == clientID {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

type fixedClock struct{ day time.Time }

func (c fixedClock) Today() time.Time { return c.day }

var testLogger = slog.New(slog.DiscardHandler)

// 2026-03-02 is a Monday.
const monday = "2026-03-02"

func mondayTemplate(professionalID string) ShiftTemplate {
	return ShiftTemplate{
		ID:             "tpl-1",
		ProfessionalID: professionalID,
		Weekday:        time.Monday,
		StartMinute:    10 * 60,
		EndMinute:      12 * 60,
		SlotMinutes:    60,
	}
}

func newTestService(store *fakeStore, today string) *Service {
	day, err := time.Parse("2006-01-02", today)
	if err != nil {
		panic(err)
	}
	return NewService(store, store, fixedClock{day: day}, testLogger)
}

func TestAvailableSlots_NoBookings(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	slots, err := svc.AvailableSlots(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 || slots[0] != "10:00" || slots[1] != "11:00" {
		t.Fatalf("expected [10:00 11:00], got %v", slots)
	}
}

func TestAvailableSlots_ExcludesBookedSlot(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	if _, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 || slots[0] != "11:00" {
		t.Fatalf("expected [11:00], got %v", slots)
	}
}

func TestAvailableSlots_OverlappingTemplatesDedupedAndSorted(t *testing.T) {
	// Later window listed first: the result must still be chronological and
	// carry 11:00 only once even though both templates generate it.
	store := newFakeStore(
		ShiftTemplate{
			ID: "tpl-late", ProfessionalID: "vet-1", Weekday: time.Monday,
			StartMinute: 11 * 60, EndMinute: 13 * 60, SlotMinutes: 60,
		},
		ShiftTemplate{
			ID: "tpl-early", ProfessionalID: "vet-1", Weekday: time.Monday,
			StartMinute: 10 * 60, EndMinute: 12 * 60, SlotMinutes: 60,
		},
	)
	svc := newTestService(store, monday)

	slots, err := svc.AvailableSlots(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"10:00", "11:00", "12:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, slots)
		}
	}
}

func TestAvailableSlots_BlankOrInvalidInputIsEmptyNotError(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	for _, tc := range []struct{ professional, date string }{
		{"", monday},
		{"vet-1", "not-a-date"},
		{"vet-1", ""},
	} {
		slots, err := svc.AvailableSlots(context.Background(), tc.professional, tc.date)
		if err != nil {
			t.Fatalf("expected nil error for (%q,%q), got %v", tc.professional, tc.date, err)
		}
		if len(slots) != 0 {
			t.Fatalf("expected no slots for (%q,%q), got %v", tc.professional, tc.date, slots)
		}
	}
}

func TestAvailableSlots_NoTemplatesForWeekday(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	// 2026-03-03 is a Tuesday; the template only covers Mondays.
	slots, err := svc.AvailableSlots(context.Background(), "vet-1", "2026-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestAvailableSlots_CancelledAppointmentDoesNotBlock(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	id, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Cancel(context.Background(), id); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected both slots free again, got %v", slots)
	}
}

func TestCreate_BookingRemovesExactlyThatSlot(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	before, err := svc.AvailableSlots(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: before[0],
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	after, err := svc.AvailableSlots(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after) != len(before)-1 {
		t.Fatalf("expected one fewer slot, before=%v after=%v", before, after)
	}
	for _, s := range after {
		if s == before[0] {
			t.Fatalf("booked slot %s still offered", before[0])
		}
	}
}

func TestCreate_PastDateRejected(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, "2026-03-03")

	_, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00", // yesterday relative to the fixed clock
	})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
	if len(store.appts) != 0 {
		t.Fatalf("nothing should be persisted on a failed create")
	}
}

func TestCreate_SameDayAllowed(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	if _, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	}); err != nil {
		t.Fatalf("same-day booking should succeed, got %v", err)
	}
}

func TestCreate_DoubleBookingRejected(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	req := CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	}
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	req.ClientID = "client-2"
	req.PetID = "pet-2"
	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	if len(store.appts) != 1 {
		t.Fatalf("conflicting create must not persist, have %d rows", len(store.appts))
	}
}

func TestCreate_MissingFieldsRejected(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	_, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", Date: monday, Time: "10:00",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreate_EmitsOutboxEvents(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	if _, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(store.events) != 2 {
		t.Fatalf("expected booked + reminder events, got %d", len(store.events))
	}
	if store.events[0].EventType != EventAppointmentBooked {
		t.Fatalf("unexpected first event type %s", store.events[0].EventType)
	}
	if store.events[1].EventType != EventReminderRequested {
		t.Fatalf("unexpected second event type %s", store.events[1].EventType)
	}
}

func TestCancel_IsIdempotent(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	id, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Cancel(context.Background(), id); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if err := svc.Cancel(context.Background(), id); err != nil {
		t.Fatalf("second cancel should be a no-op success, got %v", err)
	}
	if got := store.appts[id].Status; got != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}
}

func TestCancel_UnknownAppointment(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, monday)

	if err := svc.Cancel(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatus_NormalizesUnknownToPending(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	id, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Deliberately lenient: free-form status text falls back to pending.
	status, err := svc.SetStatus(context.Background(), id, "definitely-not-a-status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("expected pending, got %s", status)
	}
	if got := store.appts[id].Status; got != StatusPending {
		t.Fatalf("appointment should remain pending, got %s", got)
	}
}

func TestSetStatus_TerminalStatesOnlyAdmitCancellation(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	id, err := svc.Create(context.Background(), CreateRequest{
		ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
		Date: monday, Time: "10:00",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), id, "completed"); err != nil {
		t.Fatalf("completing a pending appointment failed: %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), id, "no_show"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput leaving a terminal state, got %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), id, "cancelled"); err != nil {
		t.Fatalf("cancellation must be accepted from any state, got %v", err)
	}
	if got := store.appts[id].Status; got != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}
}

func TestListForProfessional_OrderedByDateThenTime(t *testing.T) {
	store := newFakeStore(mondayTemplate("vet-1"))
	svc := newTestService(store, monday)

	for _, at := range []string{"11:00", "10:00"} {
		if _, err := svc.Create(context.Background(), CreateRequest{
			ProfessionalID: "vet-1", ClientID: "client-1", PetID: "pet-1",
			Date: monday, Time: at,
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	appts, err := svc.ListForProfessional(context.Background(), "vet-1", monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appts) != 2 || appts[0].Time != "10:00" || appts[1].Time != "11:00" {
		t.Fatalf("expected chronological order, got %+v", appts)
	}
}
