//go:build protogen

package grpcserver

import (
	"context"

	remindersv1 "github.com/vetbook-app/vetbook/protos/gen/reminders/v1"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type server struct {
	remindersv1.UnimplementedReminderServiceServer
	notifications *storage.Repository
}

func Register(grpcServer *grpc.Server, notifications *storage.Repository) {
	remindersv1.RegisterReminderServiceServer(grpcServer, &server{notifications: notifications})
}

func (s *server) ListDeliveries(ctx context.Context, req *remindersv1.ListDeliveriesRequest) (*remindersv1.ListDeliveriesResponse, error) {
	resp := &remindersv1.ListDeliveriesResponse{}
	if req.GetAppointmentId() == "" {
		return resp, nil
	}

	attempts, err := s.notifications.ListByAppointment(ctx, req.GetAppointmentId())
	if err != nil {
		return nil, err
	}
	for _, n := range attempts {
		resp.Deliveries = append(resp.Deliveries, &remindersv1.Delivery{
			AppointmentId: n.AppointmentID,
			Channel:       n.Channel,
			State:         n.State,
			AttemptedAt:   timestamppb.New(n.AttemptedAt),
		})
	}
	return resp, nil
}
