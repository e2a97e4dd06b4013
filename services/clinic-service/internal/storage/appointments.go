package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vetbook-app/vetbook/libs/db"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
)

// AppointmentRepository implements booking.AppointmentStore on Postgres.
// The partial unique index on (professional_id, visit_date, visit_time) for
// non-cancelled rows is the authoritative double-booking guard; Insert
// translates its violation into booking.ErrSlotConflict.
type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `
	id::text, professional_id::text, client_id::text, pet_id::text,
	to_char(visit_date, 'YYYY-MM-DD'), to_char(visit_time, 'HH24:MI'),
	status, COALESCE(reason, ''), created_at`

func (r *AppointmentRepository) Insert(ctx context.Context, appt *booking.Appointment, events []outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, professional_id, client_id, pet_id, visit_date, visit_time, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, appt.ID, appt.ProfessionalID, appt.ClientID, appt.PetID,
		appt.Date, appt.Time, string(appt.Status), appt.Reason).Scan(&appt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", booking.ErrSlotConflict, appt.Date, appt.Time)
		}
		return err
	}

	for _, evt := range events {
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (booking.Appointment, error) {
	var appt booking.Appointment
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id).Scan(
		&appt.ID, &appt.ProfessionalID, &appt.ClientID, &appt.PetID,
		&appt.Date, &appt.Time, &status, &appt.Reason, &appt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Appointment{}, fmt.Errorf("%w: %s", booking.ErrNotFound, id)
		}
		return booking.Appointment{}, err
	}
	appt.Status = booking.Status(status)
	return appt, nil
}

func (r *AppointmentRepository) ExistsAt(ctx context.Context, professionalID, date, timeOfDay string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE professional_id = $1
				AND visit_date = $2
				AND visit_time = $3
				AND status <> 'cancelled'
		)
	`, professionalID, date, timeOfDay).Scan(&exists)
	return exists, err
}

func (r *AppointmentRepository) BookedTimes(ctx context.Context, professionalID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(visit_time, 'HH24:MI')
		FROM appointments
		WHERE professional_id = $1
			AND visit_date = $2
			AND status <> 'cancelled'
		ORDER BY visit_time ASC
	`, professionalID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return times, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status booking.Status, events []outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", booking.ErrNotFound, id)
	}

	for _, evt := range events {
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) ListByProfessional(ctx context.Context, professionalID, date string) ([]booking.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1 AND visit_date = $2
		ORDER BY visit_date ASC, visit_time ASC
	`, professionalID, date)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *AppointmentRepository) ListByClient(ctx context.Context, clientID string) ([]booking.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1
		ORDER BY visit_date ASC, visit_time ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func scanAppointments(rows pgx.Rows) ([]booking.Appointment, error) {
	defer rows.Close()

	var appts []booking.Appointment
	for rows.Next() {
		var appt booking.Appointment
		var status string
		if err := rows.Scan(
			&appt.ID, &appt.ProfessionalID, &appt.ClientID, &appt.PetID,
			&appt.Date, &appt.Time, &status, &appt.Reason, &appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appt.Status = booking.Status(status)
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 23505: unique_violation, 23P01: exclusion_violation.
	return pgErr.Code == "23505" || pgErr.Code == "23P01"
}
