package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vetbook-app/vetbook/libs/config"
	"github.com/vetbook-app/vetbook/libs/db"
	"github.com/vetbook-app/vetbook/libs/httpx"
	"github.com/vetbook-app/vetbook/libs/kafkax"
	otelx "github.com/vetbook-app/vetbook/libs/otel"
	"github.com/vetbook-app/vetbook/libs/runtime"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/booking"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/directory"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/handlers"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/outbox"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/reminders"
	"github.com/vetbook-app/vetbook/services/clinic-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "clinic-service")
	port, err := config.Port("PORT", "8080")
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

	outboxRepo := outbox.NewRepository(pool)
	appointmentRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	templateRepo := storage.NewTemplateRepository(pool)
	directoryRepo := directory.NewRepository(pool)

	cache := directory.NewProfessionalCache(directoryRepo, logger)
	if err := cache.Refresh(ctx); err != nil {
		logger.Error("professional cache warm failed", "err", err)
		panic(err)
	}

	bookingSvc := booking.NewService(templateRepo, appointmentRepo, booking.SystemClock{}, logger)

	remindersProvider, err := reminders.NewProvider(config.String("REMINDER_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("reminder provider init failed; delivery lookup disabled", "err", err)
		remindersProvider = nil
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(bookingSvc, cache, remindersProvider, logger)
	directoryHandler := handlers.NewDirectoryHandler(directoryRepo, templateRepo, cache, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	public := http.NewServeMux()
	public.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	public.HandleFunc("/api/v1/public/book", bookingHandler.Book)

	var publicHandler http.Handler = public
	if redisURL := config.String("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			panic(err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT_REQUESTS", 60),
			time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60))*time.Second,
			"clinic:rl",
		)
		publicHandler = httpx.Chain(public, limiter.Middleware(logger, true))
	} else {
		// Single-instance fallback when no Redis is deployed.
		limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT_REQUESTS", 60),
			time.Duration(config.Int("RATE_LIMIT_WINDOW_SECONDS", 60))*time.Second)
		publicHandler = httpx.Chain(public, limiter.Middleware())
	}
	mux.Handle("/api/v1/public/", publicHandler)

	mux.HandleFunc("/api/v1/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/status", bookingHandler.SetStatus)
	mux.HandleFunc("/api/v1/appointments/deliveries", bookingHandler.Deliveries)
	mux.HandleFunc("/api/v1/admin/professionals", directoryHandler.Professionals)
	mux.HandleFunc("/api/v1/admin/clients", directoryHandler.Clients)
	mux.HandleFunc("/api/v1/admin/pets", directoryHandler.Pets)
	mux.HandleFunc("/api/v1/admin/templates", directoryHandler.Templates)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: []string{config.String("CORS_ALLOWED_ORIGINS", "*")},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "clinic")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
