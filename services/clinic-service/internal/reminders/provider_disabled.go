//go:build !protogen

package reminders

import (
	"context"
	"time"
)

type Delivery struct {
	AppointmentID string
	Channel       string
	State         string
	AttemptedAt   time.Time
}

type Provider interface {
	ListDeliveries(ctx context.Context, appointmentID string) ([]Delivery, error)
}

func NewProvider(_ string) (Provider, error) {
	return nil, nil
}
