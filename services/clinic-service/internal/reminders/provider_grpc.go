//go:build protogen

package reminders

import (
	"context"
	"time"

	"github.com/vetbook-app/vetbook/libs/grpcx"
	remindersv1 "github.com/vetbook-app/vetbook/protos/gen/reminders/v1"
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

type grpcProvider struct {
	client remindersv1.ReminderServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: remindersv1.NewReminderServiceClient(conn)}, nil
}

func (p *grpcProvider) ListDeliveries(ctx context.Context, appointmentID string) ([]Delivery, error) {
	resp, err := p.client.ListDeliveries(ctx, &remindersv1.ListDeliveriesRequest{
		AppointmentId: appointmentID,
	})
	if err != nil {
		return nil, err
	}
	var out []Delivery
	for _, d := range resp.GetDeliveries() {
		delivery := Delivery{
			AppointmentID: d.GetAppointmentId(),
			Channel:       d.GetChannel(),
			State:         d.GetState(),
		}
		if d.GetAttemptedAt() != nil {
			delivery.AttemptedAt = d.GetAttemptedAt().AsTime()
		}
		out = append(out, delivery)
	}
	return out, nil
}
