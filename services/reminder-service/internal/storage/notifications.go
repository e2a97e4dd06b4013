package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vetbook-app/vetbook/libs/db"
)

// Notification records one delivery attempt for an appointment reminder.
type Notification struct {
	AppointmentID string
	Channel       string
	Recipient     string
	Payload       map[string]any
	State         string
	AttemptedAt   time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records the attempt inside the caller's transaction so it commits or
// rolls back together with the job-state update it belongs to.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO notifications (appointment_id, channel, recipient, payload, state)
		VALUES ($1, $2, $3, $4, $5)
	`, n.AppointmentID, n.Channel, n.Recipient, payload, n.State)
	return err
}

// ListByAppointment returns delivery attempts newest first. Payload is not
// rehydrated; the delivery-status API only needs channel and state.
func (r *Repository) ListByAppointment(ctx context.Context, appointmentID string) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_id::text, channel, recipient, state, created_at
		FROM notifications
		WHERE appointment_id = $1
		ORDER BY created_at DESC
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.AppointmentID, &n.Channel, &n.Recipient, &n.State, &n.AttemptedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
