package booking

import (
	"encoding/json"

	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
)

const (
	EventAppointmentBooked    = "clinic.appointment.booked.v1"
	EventAppointmentCancelled = "clinic.appointment.cancelled.v1"
	EventAppointmentStatus    = "clinic.appointment.status_changed.v1"
	EventReminderRequested    = "clinic.reminder.requested.v1"
)

func bookedEvent(appt *Appointment) (outbox.Event, error) {
	return appointmentEvent(EventAppointmentBooked, appt, nil)
}

func cancelledEvent(appt *Appointment) (outbox.Event, error) {
	return appointmentEvent(EventAppointmentCancelled, appt, nil)
}

func statusEvent(appt *Appointment, status Status) (outbox.Event, error) {
	return appointmentEvent(EventAppointmentStatus, appt, map[string]any{
		"new_status": string(status),
		"old_status": string(appt.Status),
	})
}

func reminderRequestedEvent(appt *Appointment) (outbox.Event, error) {
	return appointmentEvent(EventReminderRequested, appt, nil)
}

func appointmentEvent(eventType string, appt *Appointment, extra map[string]any) (outbox.Event, error) {
	payload := map[string]any{
		"appointment_id":  appt.ID,
		"professional_id": appt.ProfessionalID,
		"client_id":       appt.ClientID,
		"pet_id":          appt.PetID,
		"date":            appt.Date,
		"time":            appt.Time,
		"status":          string(appt.Status),
	}
	for k, v := range extra {
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
