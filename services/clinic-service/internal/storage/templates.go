package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vetbook-app/vetbook/libs/db"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
)

// TemplateRepository implements booking.TemplateStore plus the admin CRUD for
// shift templates. Minutes-from-midnight bounds are validated by the booking
// service before they reach this layer.
type TemplateRepository struct {
	pool *db.Pool
}

func NewTemplateRepository(pool *db.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

func (r *TemplateRepository) ListForWeekday(ctx context.Context, professionalID string, weekday time.Weekday) ([]booking.ShiftTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, professional_id::text, weekday, start_minute, end_minute, slot_minutes
		FROM shift_templates
		WHERE professional_id = $1 AND weekday = $2
		ORDER BY start_minute ASC
	`, professionalID, int(weekday))
	if err != nil {
		return nil, err
	}
	return scanTemplates(rows)
}

func (r *TemplateRepository) ListForProfessional(ctx context.Context, professionalID string) ([]booking.ShiftTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, professional_id::text, weekday, start_minute, end_minute, slot_minutes
		FROM shift_templates
		WHERE professional_id = $1
		ORDER BY weekday ASC, start_minute ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	return scanTemplates(rows)
}

func (r *TemplateRepository) Create(ctx context.Context, tpl booking.ShiftTemplate) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shift_templates (id, professional_id, weekday, start_minute, end_minute, slot_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, tpl.ProfessionalID, int(tpl.Weekday), tpl.StartMinute, tpl.EndMinute, tpl.SlotMinutes)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shift_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", booking.ErrNotFound, id)
	}
	return nil
}

func scanTemplates(rows pgx.Rows) ([]booking.ShiftTemplate, error) {
	defer rows.Close()

	var templates []booking.ShiftTemplate
	for rows.Next() {
		var tpl booking.ShiftTemplate
		var weekday int
		if err := rows.Scan(&tpl.ID, &tpl.ProfessionalID, &weekday, &tpl.StartMinute, &tpl.EndMinute, &tpl.SlotMinutes); err != nil {
			return nil, err
		}
		tpl.Weekday = time.Weekday(weekday)
		templates = append(templates, tpl)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return templates, nil
}
