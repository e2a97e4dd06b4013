package booking

import "time"

// ShiftTemplate is a recurring weekly availability window for a professional.
// Clock bounds are stored as minutes from midnight; the API edge renders HH:MM.
type ShiftTemplate struct {
	ID             string
	ProfessionalID string
	Weekday        time.Weekday
	StartMinute    int
	EndMinute      int
	SlotMinutes    int
}

type Appointment struct {
	ID             string
	ProfessionalID string
	ClientID       string
	PetID          string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM
	Status         Status
	Reason         string
	CreatedAt      time.Time
}
