package main

import (
	"context"
	"net/http"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sahej121/financial-app-sub002/libs/config"
	"github.com/Sahej121/financial-app-sub002/libs/db"
	"github.com/Sahej121/financial-app-sub002/libs/httpx"
	"github.com/Sahej121/financial-app-sub002/libs/kafkax"
	otelx "github.com/Sahej121/financial-app-sub002/libs/otel"
	"github.com/Sahej121/financial-app-sub002/libs/runtime"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/handlers"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/outbox"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/receipts"
	"github.com/Sahej121/financial-app-sub002/services/payment-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "payment-service")
	port, err := config.Port("PORT", "8082")
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

	keyID, err := config.RequiredString("RAZORPAY_KEY_ID")
	if err != nil {
		panic(err)
	}
	keySecret, err := config.RequiredString("RAZORPAY_KEY_SECRET")
	if err != nil {
		panic(err)
	}
	rzp := razorpay.NewClient(keyID, keySecret)

	repo := storage.NewPaymentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	generator := receipts.NewGenerator(
		config.String("RECEIPT_DIR", "uploads/receipts"),
		config.String("RECEIPT_COMPANY_NAME", "Financial Advisory Services"),
	)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Seconds("OUTBOX_POLL_SECONDS", 2*time.Second),
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	orderHandler := handlers.NewOrderHandler(repo, rzp.Order, keyID, logger)
	verifyHandler := handlers.NewVerifyHandler(repo, outboxRepo, generator, keySecret, logger)
	receiptHandler := handlers.NewReceiptHandler(generator, logger)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/orders", orderHandler.Create)
	mux.HandleFunc("GET /api/payments/{orderId}", orderHandler.Get)
	mux.HandleFunc("/api/payments/verify", verifyHandler.Verify)
	mux.HandleFunc("GET /api/receipts/{fileName}", receiptHandler.Download)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "payment")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, logger, srv)
}
