package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Contact is the delivery address book entry for a client. The clinic and
// reminder services share one Postgres instance; reading the directory tables
// here avoids copying contact details into every event.
type Contact struct {
	Email   string
	Phone   string
	PetName string
}

// GetContact resolves a client's contact details plus the pet's display name.
// A missing pet is tolerated; a missing client is an error because the
// reminder has nowhere to go.
func (r *Repository) GetContact(ctx context.Context, clientID, petID string) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT email, COALESCE(phone, '')
		FROM clients
		WHERE id = $1
	`, clientID).Scan(&c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, errors.New("client not found: " + clientID)
		}
		return Contact{}, err
	}

	if petID != "" {
		err = r.pool.QueryRow(ctx, `SELECT name FROM pets WHERE id = $1`, petID).Scan(&c.PetName)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, err
		}
	}
	return c, nil
}
