package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vetbook-app/vetbook/libs/db"
	otelx "github.com/vetbook-app/vetbook/libs/otel"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/email"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/outbox"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/sms"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/storage"
)

const (
	EventReminderSent = "clinic.reminder.sent.v1"
	EventReminderDLQ  = "clinic.reminder.dlq.v1"
)

// Worker drains due reminder jobs and delivers them over the configured
// channel. Each attempt is recorded as a notification row; a failed job is
// retried with backoff until max attempts, then parked on the DLQ topic.
type Worker struct {
	pool          *db.Pool
	repo          *Repository
	outbox        *outbox.Repository
	notifications *storage.Repository
	emailSender   email.Sender
	smsSender     sms.Sender
	logger        *slog.Logger
	interval      time.Duration
	batchSize     int
	backoff       time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(pool *db.Pool, repo *Repository, outboxRepo *outbox.Repository, notifications *storage.Repository, emailSender email.Sender, smsSender sms.Sender, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 1 * time.Minute
	}
	return &Worker{
		pool:          pool,
		repo:          repo,
		outbox:        outboxRepo,
		notifications: notifications,
		emailSender:   emailSender,
		smsSender:     smsSender,
		logger:        logger,
		interval:      cfg.Interval,
		batchSize:     cfg.BatchSize,
		backoff:       cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("reminder batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	due, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return tx.Commit(ctx)
	}

	var delivered []int64
	for _, job := range due {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)

		sendErr := w.deliver(jobCtx, job)

		state := "sent"
		if sendErr != nil {
			state = "failed"
			w.logger.Error("reminder delivery failed", "appointment_id", job.AppointmentID, "channel", job.Channel, "err", sendErr)
		}
		if err := w.notifications.Insert(jobCtx, tx, storage.Notification{
			AppointmentID: job.AppointmentID,
			Channel:       job.Channel,
			Recipient:     job.Recipient,
			Payload:       job.Payload,
			State:         state,
		}); err != nil {
			return err
		}

		if sendErr == nil {
			if err := w.enqueueSent(jobCtx, tx, job); err != nil {
				return err
			}
			delivered = append(delivered, job.ID)
			w.logger.Info("reminder delivered", "appointment_id", job.AppointmentID, "channel", job.Channel)
			continue
		}

		attempts := job.Attempts + 1
		nextRunAt := time.Now().UTC().Add(w.backoff)
		if err := w.repo.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, nextRunAt, sendErr.Error()); err != nil {
			return err
		}
		if attempts >= job.MaxAttempts {
			if err := w.enqueueDLQ(jobCtx, tx, job, sendErr.Error()); err != nil {
				return err
			}
		}
	}

	if err := w.repo.MarkProcessed(ctx, tx, delivered); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (w *Worker) deliver(ctx context.Context, job Job) error {
	body := RenderBody(job.Payload)
	switch strings.ToLower(job.Channel) {
	case "sms":
		return w.smsSender.Send(ctx, job.Recipient, body)
	default:
		return w.emailSender.Send(job.Recipient, "Appointment reminder", body)
	}
}

func (w *Worker) enqueueSent(ctx context.Context, tx pgx.Tx, job Job) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id": job.AppointmentID,
		"channel":        job.Channel,
		"recipient":      job.Recipient,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reminder",
		AggregateID:   job.AppointmentID,
		EventType:     EventReminderSent,
		Payload:       payload,
	})
}

func (w *Worker) enqueueDLQ(ctx context.Context, tx pgx.Tx, job Job, reason string) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id": job.AppointmentID,
		"channel":        job.Channel,
		"recipient":      job.Recipient,
		"remind_at":      job.RemindAt.UTC().Format(time.RFC3339),
		"payload":        job.Payload,
		"error_reason":   reason,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reminder",
		AggregateID:   job.AppointmentID,
		EventType:     EventReminderDLQ,
		Payload:       payload,
	})
}
