package jobs

import (
	"fmt"
	"time"
)

// RemindAt computes when the reminder for an appointment should go out:
// the appointment's UTC start minus offset, clamped to now so same-day
// bookings still get a reminder.
func RemindAt(date, timeOfDay string, offset time.Duration, now time.Time) (time.Time, error) {
	start, err := time.Parse("2006-01-02 15:04", date+" "+timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment start: %w", err)
	}
	at := start.UTC().Add(-offset)
	if at.Before(now) {
		at = now
	}
	return at, nil
}

// RenderBody builds the reminder message text from the job payload.
func RenderBody(payload map[string]any) string {
	date, _ := payload["date"].(string)
	timeOfDay, _ := payload["time"].(string)
	pet, _ := payload["pet_name"].(string)

	if pet != "" {
		return fmt.Sprintf("Reminder: %s has a clinic appointment on %s at %s.", pet, date, timeOfDay)
	}
	return fmt.Sprintf("Reminder: you have a clinic appointment on %s at %s.", date, timeOfDay)
}
