package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vetbook-app/vetbook/libs/config"
	"github.com/vetbook-app/vetbook/libs/db"
	"github.com/vetbook-app/vetbook/libs/httpx"
	"github.com/vetbook-app/vetbook/libs/kafkax"
	otelx "github.com/vetbook-app/vetbook/libs/otel"
	"github.com/vetbook-app/vetbook/libs/runtime"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/consumer"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/email"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/inbox"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/jobs"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/outbox"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/sms"
	"github.com/vetbook-app/vetbook/services/reminder-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type appointmentPayload struct {
	AppointmentID  string `json:"appointment_id"`
	ProfessionalID string `json:"professional_id"`
	ClientID       string `json:"client_id"`
	PetID          string `json:"pet_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         string `json:"status"`
}

func main() {
	service := config.String("SERVICE_NAME", "reminder-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	jobsRepo := jobs.NewRepository()
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@vetbook.local"),
	)
	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	default:
		smsSender = sms.NewNoopSender()
	}

	offset := time.Duration(config.Int("REMINDER_OFFSET_MINUTES", 1440)) * time.Minute
	channel := strings.ToLower(config.String("REMINDER_CHANNEL", "email"))

	worker := jobs.NewWorker(pool, jobsRepo, outboxRepo, notificationsRepo, emailSender, smsSender, logger, jobs.WorkerConfig{
		Interval:  time.Duration(config.Int("WORKER_INTERVAL_SECONDS", 2)) * time.Second,
		BatchSize: config.Int("WORKER_BATCH_SIZE", 50),
		Backoff:   time.Duration(config.Int("WORKER_BACKOFF_SECONDS", 60)) * time.Second,
	})
	go worker.Run(ctx)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "reminder-service")

	scheduleConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_REQUESTED_TOPIC", "clinic.reminder.requested.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		return scheduleReminder(ctx, logger, pool, jobsRepo, notificationsRepo, msg, offset, channel)
	})
	go scheduleConsumer.Run(ctx)

	cancelConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CANCELLED_TOPIC", "clinic.appointment.cancelled.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		return cancelReminders(ctx, logger, pool, jobsRepo, msg)
	})
	go cancelConsumer.Run(ctx)

	if err := startGrpcServer(ctx, logger, notificationsRepo); err != nil {
		logger.Error("grpc server start failed", "err", err)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "reminder")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func scheduleReminder(ctx context.Context, logger *slog.Logger, pool *db.Pool, jobsRepo *jobs.Repository, contacts *storage.Repository, msg kafka.Message, offset time.Duration, channel string) error {
	var payload appointmentPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		logger.Error("invalid reminder request payload", "err", err)
		return nil
	}
	if payload.AppointmentID == "" || payload.ClientID == "" || payload.Date == "" || payload.Time == "" {
		logger.Error("missing reminder request fields", "appointment_id", payload.AppointmentID)
		return nil
	}

	remindAt, err := jobs.RemindAt(payload.Date, payload.Time, offset, time.Now().UTC())
	if err != nil {
		logger.Error("unschedulable reminder", "appointment_id", payload.AppointmentID, "err", err)
		return nil
	}

	contact, err := contacts.GetContact(ctx, payload.ClientID, payload.PetID)
	if err != nil {
		logger.Error("contact lookup failed", "client_id", payload.ClientID, "err", err)
		return err
	}

	recipient := contact.Email
	if channel == "sms" && contact.Phone != "" {
		recipient = contact.Phone
	}
	if recipient == "" {
		logger.Error("no recipient for reminder", "appointment_id", payload.AppointmentID, "channel", channel)
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := jobsRepo.Insert(ctx, tx, jobs.Job{
		IdempotencyKey: payload.AppointmentID + ":" + remindAt.Format(time.RFC3339),
		AppointmentID:  payload.AppointmentID,
		Channel:        channel,
		Recipient:      recipient,
		RemindAt:       remindAt,
		Payload: map[string]any{
			"date":     payload.Date,
			"time":     payload.Time,
			"pet_name": contact.PetName,
		},
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("reminder scheduled", "appointment_id", payload.AppointmentID, "remind_at", remindAt, "channel", channel)
	return nil
}

func cancelReminders(ctx context.Context, logger *slog.Logger, pool *db.Pool, jobsRepo *jobs.Repository, msg kafka.Message) error {
	var payload appointmentPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		logger.Error("invalid cancellation payload", "err", err)
		return nil
	}
	if payload.AppointmentID == "" {
		logger.Error("missing appointment_id in cancellation")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := jobsRepo.CancelPending(ctx, tx, payload.AppointmentID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info("pending reminders cancelled", "appointment_id", payload.AppointmentID)
	return nil
}
