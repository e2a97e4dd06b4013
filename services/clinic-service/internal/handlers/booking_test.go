package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
)

// Monday in the test calendar.
const monday = "2026-03-02"

type memStore struct {
	templates []booking.ShiftTemplate
	appts     map[string]booking.Appointment
}

func newMemStore() *memStore {
	return &memStore{appts: make(map[string]booking.Appointment)}
}

func (m *memStore) ListForWeekday(_ context.Context, professionalID string, weekday time.Weekday) ([]booking.ShiftTemplate, error) {
	var out []booking.ShiftTemplate
	for _, tpl := range m.templates {
		if tpl.ProfessionalID == professionalID && tpl.Weekday == weekday {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, appt *booking.Appointment, _ []outbox.Event) error {
	for _, existing := range m.appts {
		if existing.ProfessionalID == appt.ProfessionalID && existing.Date == appt.Date &&
			existing.Time == appt.Time && existing.Status != booking.StatusCancelled {
			return fmt.Errorf("%w: %s %s", booking.ErrSlotConflict, appt.Date, appt.Time)
		}
	}
	appt.CreatedAt = time.Now()
	m.appts[appt.ID] = *appt
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (booking.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return booking.Appointment{}, fmt.Errorf("%w: %s", booking.ErrNotFound, id)
	}
	return appt, nil
}

func (m *memStore) ExistsAt(_ context.Context, professionalID, date, timeOfDay string) (bool, error) {
	for _, appt := range m.appts {
		if appt.ProfessionalID == professionalID && appt.Date == date &&
			appt.Time == timeOfDay && appt.Status != booking.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) BookedTimes(_ context.Context, professionalID, date string) ([]string, error) {
	var out []string
	for _, appt := range m.appts {
		if appt.ProfessionalID == professionalID && appt.Date == date && appt.Status != booking.StatusCancelled {
			out = append(out, appt.Time)
		}
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status booking.Status, _ []outbox.Event) error {
	appt, ok := m.appts[id]
	if !ok {
		return fmt.Errorf("%w: %s", booking.ErrNotFound, id)
	}
	appt.Status = status
	m.appts[id] = appt
	return nil
}

func (m *memStore) ListByProfessional(_ context.Context, professionalID, date string) ([]booking.Appointment, error) {
	var out []booking.Appointment
	for _, appt := range m.appts {
		if appt.ProfessionalID == professionalID && appt.Date == date {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *memStore) ListByClient(_ context.Context, clientID string) ([]booking.Appointment, error) {
	var out []booking.Appointment
	for _, appt := range m.appts {
		if appt.ClientID == clientID {
			out = append(out, appt)
		}
	}
	return out, nil
}

type frozenClock struct{ day time.Time }

func (c frozenClock) Today() time.Time { return c.day }

func newTestHandler(store *memStore) *BookingHandler {
	logger := slog.New(slog.DiscardHandler)
	svc := booking.NewService(store, store, frozenClock{day: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}, logger)
	return NewBookingHandler(svc, nil, nil, logger)
}

func TestSlotsEndpoint(t *testing.T) {
	store := newMemStore()
	store.templates = []booking.ShiftTemplate{{
		ID: "t1", ProfessionalID: "vet-1", Weekday: time.Monday,
		StartMinute: 10 * 60, EndMinute: 12 * 60, SlotMinutes: 60,
	}}
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?professional_id=vet-1&date="+monday, nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []string{"10:00", "11:00"}
	if len(resp.Slots) != len(want) {
		t.Fatalf("expected %v, got %v", want, resp.Slots)
	}
	for i := range want {
		if resp.Slots[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, resp.Slots)
		}
	}
}

func TestSlotsEndpoint_EmptyIsArrayNotNull(t *testing.T) {
	h := newTestHandler(newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?professional_id=vet-1&date="+monday, nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"slots":[]`) {
		t.Fatalf("expected empty slots array, got %s", rec.Body.String())
	}
}

func TestBookEndpoint_CreateAndConflict(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)

	body := `{"professional_id":"vet-1","client_id":"c1","pet_id":"p1","date":"` + monday + `","time":"10:00"}`
	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AppointmentID string `json:"appointment_id"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AppointmentID == "" || resp.Status != "pending" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("double booking should be 409, got %d", rec.Code)
	}
}

func TestBookEndpoint_PastDateIs422(t *testing.T) {
	h := newTestHandler(newMemStore())

	body := `{"professional_id":"vet-1","client_id":"c1","pet_id":"p1","date":"2026-03-01","time":"10:00"}`
	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("past date should be 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBookEndpoint_BadJSONIs400(t *testing.T) {
	h := newTestHandler(newMemStore())

	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCancelEndpoint_UnknownIs404(t *testing.T) {
	h := newTestHandler(newMemStore())

	body := `{"appointment_id":"missing"}`
	rec := httptest.NewRecorder()
	h.Cancel(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatusEndpoint_Lifecycle(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)

	book := `{"professional_id":"vet-1","client_id":"c1","pet_id":"p1","date":"` + monday + `","time":"10:00"}`
	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(book)))
	var created struct {
		AppointmentID string `json:"appointment_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = httptest.NewRecorder()
	h.SetStatus(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/status",
		strings.NewReader(`{"appointment_id":"`+created.AppointmentID+`","status":"completed"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Completed is terminal for everything but cancellation.
	rec = httptest.NewRecorder()
	h.SetStatus(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/status",
		strings.NewReader(`{"appointment_id":"`+created.AppointmentID+`","status":"no_show"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("terminal transition should be 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Cancel(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel",
		strings.NewReader(`{"appointment_id":"`+created.AppointmentID+`"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel from completed should be 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListEndpoint_RequiresSelector(t *testing.T) {
	h := newTestHandler(newMemStore())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeliveriesEndpoint_UnavailableWithoutProvider(t *testing.T) {
	h := newTestHandler(newMemStore())

	rec := httptest.NewRecorder()
	h.Deliveries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/deliveries?appointment_id=a1", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
