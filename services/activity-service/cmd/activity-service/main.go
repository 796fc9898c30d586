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
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/consumer"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/handlers"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/inbox"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/model"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/storage"
	"github.com/Sahej121/financial-app-sub002/services/activity-service/internal/ws"
)

// broadcastActivity pushes a stored activity to every room that should see
// it: the actor's private room, the actor's role room and, when the metadata
// names one, the consultation room and the client's room.
func broadcastActivity(hub *ws.Hub, a *model.Activity) {
	msg, err := json.Marshal(a)
	if err != nil {
		return
	}

	hub.Broadcast("user_"+a.UserID, msg)
	switch a.UserType {
	case model.UserAnalyst:
		hub.Broadcast("analyst_room", msg)
	case model.UserCA:
		hub.Broadcast("ca_room", msg)
	case model.UserClient:
		hub.Broadcast("client_room", msg)
	}
	if id := a.Metadata.ConsultationID(); id != "" {
		hub.Broadcast("consultation_"+id, msg)
	}
	if clientID := a.Metadata.ClientID(); clientID != "" && clientID != a.UserID {
		hub.Broadcast("client_"+clientID, msg)
	}
}

func main() {
	service := config.String("SERVICE_NAME", "activity-service")
	port, err := config.Port("PORT", "8085")
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
	repo := storage.NewActivityRepository(pool)
	hub := ws.NewHub(logger)

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "activity-service")

	activityConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_ACTIVITY_TOPIC", "activity.logged.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			UserID       string         `json:"user_id"`
			UserType     model.UserType `json:"user_type"`
			ActivityType string         `json:"activity_type"`
			Description  string         `json:"description"`
			Metadata     model.Metadata `json:"metadata"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid activity payload", "err", err)
			return nil
		}
		if payload.UserID == "" || payload.ActivityType == "" || !payload.UserType.Valid() {
			logger.Error("missing activity fields")
			return nil
		}
		if err := payload.Metadata.Validate(); err != nil {
			logger.Error("invalid activity metadata", "err", err, "activity_type", payload.ActivityType)
			return nil
		}

		activity := model.Activity{
			UserID:       payload.UserID,
			UserType:     payload.UserType,
			ActivityType: payload.ActivityType,
			Description:  payload.Description,
			Metadata:     payload.Metadata,
		}

		if err := repo.Insert(ctx, &activity); err != nil {
			return err
		}
		broadcastActivity(hub, &activity)
		return nil
	})
	go activityConsumer.Run(ctx)

	type financialUpdate struct {
		ConsultationID string          `json:"consultation_id"`
		ClientID       string          `json:"client_id"`
		Analyst        string          `json:"analyst"`
		Point          json.RawMessage `json:"point"`
	}

	financialConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   config.String("KAFKA_FINANCIAL_TOPIC", "consult.financial.updated.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload financialUpdate
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid financial payload", "err", err)
			return nil
		}
		if payload.ConsultationID == "" {
			logger.Error("missing consultation id in financial update")
			return nil
		}

		hub.Broadcast("consultation_"+payload.ConsultationID, msg.Value)
		if payload.ClientID != "" {
			hub.Broadcast("client_"+payload.ClientID, msg.Value)
		}
		if payload.Analyst != "" {
			hub.Broadcast("user_"+payload.Analyst, msg.Value)
		}
		return nil
	})
	go financialConsumer.Run(ctx)

	activityHandler := handlers.NewActivityHandler(repo, logger)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("/api/activities", activityHandler.List)
	mux.HandleFunc("/ws", hub.Serve)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "activity")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, logger, srv)
}
