package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sahej121/financial-app-sub002/libs/config"
	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/libs/httpx"
	"github.com/Sahej121/financial-app-sub002/libs/kafkax"
	otelx "github.com/Sahej121/financial-app-sub002/libs/otel"
	"github.com/Sahej121/financial-app-sub002/libs/runtime"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/handlers"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/intake"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/outbox"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/storage"
	"github.com/Sahej121/financial-app-sub002/services/consult-service/internal/zoom"
)

func main() {
	service := config.String("SERVICE_NAME", "consult-service")
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
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	loc, err := time.LoadLocation(config.String("BOOKING_TIMEZONE", "Asia/Kolkata"))
	if err != nil {
		logger.Warn("invalid booking timezone; falling back to UTC", "err", err)
		loc = time.UTC
	}

	repo := storage.NewConsultationRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	documents := intake.NewStore(config.String("UPLOAD_DIR", "uploads/documents"))
	zoomClient := zoom.NewClient(config.String("ZOOM_API_URL", ""), config.String("ZOOM_API_TOKEN", ""))

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Seconds("OUTBOX_POLL_SECONDS", 2*time.Second),
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	consultationHandler := handlers.NewConsultationHandler(repo, documents, outboxRepo, logger, loc)
	scheduleHandler := handlers.NewScheduleHandler(repo, logger, loc)
	feedbackHandler := handlers.NewFeedbackHandler(repo, logger)
	financialHandler := handlers.NewFinancialHandler(repo, outboxRepo, logger)
	zoomHandler := handlers.NewZoomHandler(zoomClient, logger)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/consultations", consultationHandler.Create)
	mux.HandleFunc("/api/consultations/list", consultationHandler.List)
	mux.HandleFunc("GET /api/consultations/{id}", consultationHandler.Get)
	mux.HandleFunc("PATCH /api/consultations/{id}/status", consultationHandler.UpdateStatus)
	mux.HandleFunc("/api/analyst-schedule", scheduleHandler.AnalystSchedule)
	mux.HandleFunc("/api/feedback", feedbackHandler.Submit)
	mux.HandleFunc("POST /api/consultations/{id}/financial", financialHandler.Append)
	mux.HandleFunc("GET /api/consultations/{id}/financial", financialHandler.List)
	mux.HandleFunc("/api/zoom/meetings", zoomHandler.CreateMeeting)
	mux.HandleFunc("PUT /api/zoom/meetings/{id}/end", zoomHandler.EndMeeting)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(64<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "consult")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, logger, srv)
}
