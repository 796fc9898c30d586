package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sahej121/financial-app-sub002/libs/config"
	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/libs/httpx"
	"github.com/Sahej121/financial-app-sub002/libs/kafkax"
	otelx "github.com/Sahej121/financial-app-sub002/libs/otel"
	"github.com/Sahej121/financial-app-sub002/libs/runtime"
	"github.com/Sahej121/financial-app-sub002/services/scheduler-service/internal/consumer"
	"github.com/Sahej121/financial-app-sub002/services/scheduler-service/internal/inbox"
	"github.com/Sahej121/financial-app-sub002/services/scheduler-service/internal/jobs"
	"github.com/Sahej121/financial-app-sub002/services/scheduler-service/internal/outbox"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduler-service")
	port, err := config.Port("PORT", "8083")
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

	inboxRepo := inbox.NewRepository(pool)
	jobRepo := jobs.NewRepository()
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Seconds("OUTBOX_POLL_SECONDS", 2*time.Second),
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	jobWorker := jobs.NewWorker(pool, jobRepo, outboxRepo, logger, jobs.WorkerConfig{
		Interval:  config.Seconds("SCHEDULER_INTERVAL_SECONDS", 2*time.Second),
		BatchSize: 50,
		Backoff:   config.Seconds("SCHEDULER_BACKOFF_SECONDS", time.Minute),
	})
	go jobWorker.Run(ctx)

	type reminderRequest struct {
		ConsultationID string         `json:"consultation_id"`
		Recipient      string         `json:"recipient"`
		RemindAt       string         `json:"remind_at"`
		TemplateData   map[string]any `json:"template_data"`
	}

	reminderConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "scheduler-service"),
		Topic:   config.String("KAFKA_CONSUME_TOPIC", "consult.reminder.requested.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload reminderRequest
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid reminder request", "err", err)
			return nil
		}
		if payload.ConsultationID == "" || payload.Recipient == "" || payload.RemindAt == "" {
			logger.Error("missing reminder fields")
			return nil
		}
		remindAt, err := time.Parse(time.RFC3339, payload.RemindAt)
		if err != nil {
			logger.Error("invalid remind_at", "err", err)
			return nil
		}

		idempotencyKey := payload.ConsultationID + "|" + payload.RemindAt

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := jobRepo.Insert(ctx, tx, jobs.Job{
			IdempotencyKey: idempotencyKey,
			ConsultationID: payload.ConsultationID,
			Recipient:      payload.Recipient,
			RemindAt:       remindAt,
			TemplateData:   payload.TemplateData,
		}); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	go reminderConsumer.Run(ctx)

	type statusChange struct {
		ConsultationID string `json:"consultation_id"`
		To             string `json:"to"`
	}

	cancelConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "scheduler-service"),
		Topic:   config.String("KAFKA_STATUS_TOPIC", "consult.consultation.status_changed.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload statusChange
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid status change", "err", err)
			return nil
		}
		if payload.To != "cancelled" || payload.ConsultationID == "" {
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := jobRepo.CancelForConsultation(ctx, tx, payload.ConsultationID); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	go cancelConsumer.Run(ctx)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "scheduler")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, logger, srv)
}
