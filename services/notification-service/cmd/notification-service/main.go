package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sahej121/financial-app-sub002/libs/config"
	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/libs/httpx"
	"github.com/Sahej121/financial-app-sub002/libs/kafkax"
	otelx "github.com/Sahej121/financial-app-sub002/libs/otel"
	"github.com/Sahej121/financial-app-sub002/libs/runtime"
	"github.com/Sahej121/financial-app-sub002/services/notification-service/internal/consumer"
	"github.com/Sahej121/financial-app-sub002/services/notification-service/internal/email"
	"github.com/Sahej121/financial-app-sub002/services/notification-service/internal/inbox"
	"github.com/Sahej121/financial-app-sub002/services/notification-service/internal/outbox"
	"github.com/Sahej121/financial-app-sub002/services/notification-service/internal/storage"
)

// delivery is one email attempt: record the notification row, then write the
// sent or failed event through the outbox.
type delivery struct {
	consultationID string
	kind           string
	recipient      string
	payload        map[string]any
	subject        string
	body           string
}

type deliverer struct {
	pool       *db.Pool
	sender     email.Sender
	repo       *storage.Repository
	outboxRepo *outbox.Repository
}

func (d *deliverer) deliver(ctx context.Context, dl delivery) error {
	status := "sent"
	failureReason := ""
	if err := d.sender.Send(dl.recipient, dl.subject, dl.body); err != nil {
		status = "failed"
		failureReason = err.Error()
	}

	if err := d.repo.Insert(ctx, storage.Notification{
		ConsultationID: dl.consultationID,
		Kind:           dl.kind,
		Recipient:      dl.recipient,
		Payload:        dl.payload,
		Status:         status,
		FailureReason:  failureReason,
	}); err != nil {
		return err
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventType := outbox.EventNotificationSent
	eventBody := map[string]any{
		"consultation_id": dl.consultationID,
		"kind":            dl.kind,
		"recipient":       dl.recipient,
		"sent_at":         time.Now().UTC().Format(time.RFC3339),
	}
	if status == "failed" {
		eventType = outbox.EventNotificationFailed
		delete(eventBody, "sent_at")
		eventBody["error_reason"] = failureReason
		eventBody["failed_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	eventPayload, err := json.Marshal(eventBody)
	if err != nil {
		return err
	}
	if err := d.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   dl.consultationID,
		EventType:     eventType,
		Payload:       eventPayload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8084")
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
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Seconds("OUTBOX_POLL_SECONDS", 2*time.Second),
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	sender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@financialapp.local"),
	)
	analystInbox := config.String("ANALYST_INBOX", "")

	d := &deliverer{pool: pool, sender: sender, repo: notificationsRepo, outboxRepo: outboxRepo}
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")

	type bookingCreated struct {
		ConsultationID string `json:"consultation_id"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		PlanningType   string `json:"planning_type"`
		SlotDate       string `json:"slot_date"`
		SlotTime       string `json:"slot_time"`
		Analyst        string `json:"analyst"`
	}

	createdConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_CREATED_TOPIC", "consult.consultation.created.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload bookingCreated
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking payload", "err", err)
			return nil
		}
		if payload.ConsultationID == "" || payload.Email == "" {
			logger.Error("missing booking fields")
			return nil
		}

		details := email.BookingDetails{
			Name:         payload.Name,
			PlanningType: payload.PlanningType,
			SlotDate:     payload.SlotDate,
			SlotTime:     payload.SlotTime,
			Analyst:      payload.Analyst,
		}

		subject, body := email.BookingConfirmation(details)
		if err := d.deliver(ctx, delivery{
			consultationID: payload.ConsultationID,
			kind:           "booking_confirmation",
			recipient:      payload.Email,
			payload:        map[string]any{"slot_date": payload.SlotDate, "slot_time": payload.SlotTime},
			subject:        subject,
			body:           body,
		}); err != nil {
			return err
		}

		if analystInbox != "" {
			subject, body := email.AnalystAssignment(details)
			return d.deliver(ctx, delivery{
				consultationID: payload.ConsultationID,
				kind:           "analyst_assignment",
				recipient:      analystInbox,
				payload:        map[string]any{"analyst": payload.Analyst},
				subject:        subject,
				body:           body,
			})
		}
		return nil
	})
	go createdConsumer.Run(ctx)

	type reminderDue struct {
		ConsultationID string         `json:"consultation_id"`
		Recipient      string         `json:"recipient"`
		RemindAt       string         `json:"remind_at"`
		TemplateData   map[string]any `json:"template_data"`
	}

	templateString := func(data map[string]any, key string) string {
		if s, ok := data[key].(string); ok {
			return s
		}
		return ""
	}

	reminderConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_REMINDER_TOPIC", "scheduler.reminder.due.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload reminderDue
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid reminder payload", "err", err)
			return nil
		}
		if payload.ConsultationID == "" || payload.Recipient == "" {
			logger.Error("missing reminder fields")
			return nil
		}

		subject, body := email.Reminder(email.BookingDetails{
			Name:         templateString(payload.TemplateData, "name"),
			PlanningType: templateString(payload.TemplateData, "planning_type"),
			SlotDate:     templateString(payload.TemplateData, "slot_date"),
			SlotTime:     templateString(payload.TemplateData, "slot_time"),
			Analyst:      templateString(payload.TemplateData, "analyst"),
		})
		return d.deliver(ctx, delivery{
			consultationID: payload.ConsultationID,
			kind:           "reminder",
			recipient:      payload.Recipient,
			payload:        payload.TemplateData,
			subject:        subject,
			body:           body,
		})
	})
	go reminderConsumer.Run(ctx)

	type statusChanged struct {
		ConsultationID string `json:"consultation_id"`
		Email          string `json:"email"`
		Name           string `json:"name"`
		To             string `json:"to"`
		SlotDate       string `json:"slot_date"`
		SlotTime       string `json:"slot_time"`
	}

	statusConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_STATUS_TOPIC", "consult.consultation.status_changed.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload statusChanged
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid status payload", "err", err)
			return nil
		}
		if payload.ConsultationID == "" || payload.Email == "" || strings.TrimSpace(payload.To) == "" {
			logger.Error("missing status fields")
			return nil
		}

		subject, body := email.StatusUpdate(email.BookingDetails{
			Name:     payload.Name,
			SlotDate: payload.SlotDate,
			SlotTime: payload.SlotTime,
		}, payload.To)
		return d.deliver(ctx, delivery{
			consultationID: payload.ConsultationID,
			kind:           "status_update",
			recipient:      payload.Email,
			payload:        map[string]any{"to": payload.To},
			subject:        subject,
			body:           body,
		})
	})
	go statusConsumer.Run(ctx)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, logger, srv)
}
