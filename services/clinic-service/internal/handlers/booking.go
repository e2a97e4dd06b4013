package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/directory"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/reminders"
)

// BookingHandler exposes the public booking API: slot discovery, booking,
// cancellation, status transitions and appointment listings.
type BookingHandler struct {
	svc       *booking.Service
	cache     *directory.ProfessionalCache
	reminders reminders.Provider
	logger    *slog.Logger
}

func NewBookingHandler(svc *booking.Service, cache *directory.ProfessionalCache, remindersProvider reminders.Provider, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, cache: cache, reminders: remindersProvider, logger: logger}
}

type bookRequest struct {
	ProfessionalID string `json:"professional_id"`
	ClientID       string `json:"client_id"`
	PetID          string `json:"pet_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Reason         string `json:"reason"`
}

type appointmentItem struct {
	AppointmentID  string `json:"appointment_id"`
	ProfessionalID string `json:"professional_id"`
	ClientID       string `json:"client_id"`
	PetID          string `json:"pet_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// Slots handles GET /api/v1/public/slots?professional_id=...&date=YYYY-MM-DD.
// The response always carries a slots array; no availability is an empty
// array, not an error.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	slots := []string{}
	if h.cache == nil || h.cache.Active(professionalID) {
		free, err := h.svc.AvailableSlots(r.Context(), professionalID, date)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if free != nil {
			slots = free
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"professional_id": professionalID,
		"date":            date,
		"slots":           slots,
	})
}

// Book handles POST /api/v1/public/book.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if h.cache != nil && !h.cache.Active(strings.TrimSpace(req.ProfessionalID)) {
		http.Error(w, "professional not found", http.StatusNotFound)
		return
	}

	id, err := h.svc.Create(r.Context(), booking.CreateRequest{
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		PetID:          req.PetID,
		Date:           req.Date,
		Time:           req.Time,
		Reason:         req.Reason,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"appointment_id": id,
		"status":         string(booking.StatusPending),
	})
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// Cancel handles POST /api/v1/appointments/cancel. Cancelling an
// already-cancelled appointment returns 200.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if err := h.svc.Cancel(r.Context(), req.AppointmentID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id": strings.TrimSpace(req.AppointmentID),
		"status":         string(booking.StatusCancelled),
	})
}

type statusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// SetStatus handles POST /api/v1/appointments/status.
func (h *BookingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	status, err := h.svc.SetStatus(r.Context(), req.AppointmentID, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id": strings.TrimSpace(req.AppointmentID),
		"status":         string(status),
	})
}

// List handles GET /api/v1/appointments. Pass professional_id plus date for a
// professional's day, or client_id for a client's history.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	professionalID := strings.TrimSpace(q.Get("professional_id"))
	clientID := strings.TrimSpace(q.Get("client_id"))

	var (
		appts []booking.Appointment
		err   error
	)
	switch {
	case professionalID != "":
		appts, err = h.svc.ListForProfessional(r.Context(), professionalID, q.Get("date"))
	case clientID != "":
		appts, err = h.svc.ListForClient(r.Context(), clientID)
	default:
		http.Error(w, "professional_id or client_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentItem{
			AppointmentID:  a.ID,
			ProfessionalID: a.ProfessionalID,
			ClientID:       a.ClientID,
			PetID:          a.PetID,
			Date:           a.Date,
			Time:           a.Time,
			Status:         string(a.Status),
			Reason:         a.Reason,
			CreatedAt:      a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

// Deliveries handles GET /api/v1/appointments/deliveries?appointment_id=...
// It proxies reminder delivery attempts from the reminder service; when the
// gRPC provider is not configured it answers 503.
func (h *BookingHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.reminders == nil {
		http.Error(w, "reminder delivery lookup unavailable", http.StatusServiceUnavailable)
		return
	}

	appointmentID := strings.TrimSpace(r.URL.Query().Get("appointment_id"))
	if appointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	deliveries, err := h.reminders.ListDeliveries(r.Context(), appointmentID)
	if err != nil {
		h.logger.Error("reminder delivery lookup failed", "appointment_id", appointmentID, "err", err)
		http.Error(w, "reminder delivery lookup failed", http.StatusBadGateway)
		return
	}

	items := make([]map[string]any, 0, len(deliveries))
	for _, d := range deliveries {
		items = append(items, map[string]any{
			"appointment_id": d.AppointmentID,
			"channel":        d.Channel,
			"state":          d.State,
			"attempted_at":   d.AttemptedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": items})
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrPastDate):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrSlotConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("booking request failed", "path", r.URL.Path, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
