package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vetbook-app/vetbook/libs/db"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
)

// Repository is the Postgres backing for the clinic directory: the
// professionals clients can book with, and the clients and pets the
// bookings reference.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateProfessional(ctx context.Context, name, specialty string) (Professional, error) {
	p := Professional{ID: uuid.NewString(), Name: name, Specialty: specialty, Active: true}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO professionals (id, name, specialty, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING created_at
	`, p.ID, p.Name, p.Specialty).Scan(&p.CreatedAt)
	if err != nil {
		return Professional{}, err
	}
	return p, nil
}

func (r *Repository) UpdateProfessional(ctx context.Context, id, name, specialty string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE professionals
		SET name = $2, specialty = $3, active = $4, updated_at = now()
		WHERE id = $1
	`, id, name, specialty, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: professional %s", booking.ErrNotFound, id)
	}
	return nil
}

func (r *Repository) GetProfessional(ctx context.Context, id string) (Professional, error) {
	var p Professional
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, specialty, active, created_at
		FROM professionals
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Specialty, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Professional{}, fmt.Errorf("%w: professional %s", booking.ErrNotFound, id)
		}
		return Professional{}, err
	}
	return p, nil
}

func (r *Repository) ListProfessionals(ctx context.Context) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, specialty, active, created_at
		FROM professionals
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CreateClient(ctx context.Context, name, email, phone string) (Client, error) {
	c := Client{ID: uuid.NewString(), Name: name, Email: email, Phone: phone}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.Name, c.Email, c.Phone).Scan(&c.CreatedAt)
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

func (r *Repository) GetClient(ctx context.Context, id string) (Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, email, phone, created_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, fmt.Errorf("%w: client %s", booking.ErrNotFound, id)
		}
		return Client{}, err
	}
	return c, nil
}

func (r *Repository) CreatePet(ctx context.Context, clientID, name, species, breed string) (Pet, error) {
	p := Pet{ID: uuid.NewString(), ClientID: clientID, Name: name, Species: species, Breed: breed}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pets (id, client_id, name, species, breed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, p.ID, p.ClientID, p.Name, p.Species, p.Breed).Scan(&p.CreatedAt)
	if err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (r *Repository) ListPetsByClient(ctx context.Context, clientID string) ([]Pet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, client_id::text, name, species, breed, created_at
		FROM pets
		WHERE client_id = $1
		ORDER BY name ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pet
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Species, &p.Breed, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
