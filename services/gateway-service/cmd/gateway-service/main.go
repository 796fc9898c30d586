package main

import (
	"context"
	"embed"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sahej121/financial-app-sub002/libs/auth"
	"github.com/Sahej121/financial-app-sub002/libs/config"
	"github.com/Sahej121/financial-app-sub002/libs/httpx"
	otelx "github.com/Sahej121/financial-app-sub002/libs/otel"
	"github.com/Sahej121/financial-app-sub002/libs/runtime"
)

//go:embed assets/gateway.v1.yaml
var openAPISpec embed.FS

func main() {
	service := config.String("SERVICE_NAME", "gateway-service")
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

	mux := runtime.NewBaseMux()
	jwtSecret := config.String("JWT_SECRET", "dev-secret")
	registerRoutes(mux, jwtSecret)

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Seconds("CORS_MAX_AGE_SECONDS", 600*time.Second),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<20))),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "gateway")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, logger, srv)
}

func registerRoutes(mux *http.ServeMux, jwtSecret string) {
	consultURL := mustParseURL(config.String("CONSULT_URL", "http://consult-service:8081"))
	paymentURL := mustParseURL(config.String("PAYMENT_URL", "http://payment-service:8082"))
	activityURL := mustParseURL(config.String("ACTIVITY_URL", "http://activity-service:8085"))

	consultProxy := httputil.NewSingleHostReverseProxy(consultURL)
	paymentProxy := httputil.NewSingleHostReverseProxy(paymentURL)
	activityProxy := httputil.NewSingleHostReverseProxy(activityURL)
	otelTransport := otelhttp.NewTransport(http.DefaultTransport)
	consultProxy.Transport = otelTransport
	paymentProxy.Transport = otelTransport
	activityProxy.Transport = otelTransport

	// Booking, the slot grid, feedback, checkout and receipts are reachable
	// without a token; clients book before they ever sign in.
	mux.Handle("POST /api/consultations", consultProxy)
	registerProxy(mux, "/api/analyst-schedule", consultProxy)
	registerProxy(mux, "/api/feedback", consultProxy)
	registerProxy(mux, "/api/orders", paymentProxy)
	registerProxy(mux, "/api/payments", paymentProxy)
	registerProxy(mux, "/api/receipts", paymentProxy)

	// The realtime stream authenticates by query identity; the activity
	// service scopes rooms per user.
	registerProxy(mux, "/ws", activityProxy)

	staff := func(h http.Handler) http.Handler {
		return requireAuth(requireUserType(h, "Analyst", "CA"), jwtSecret)
	}
	registerProxy(mux, "/api/consultations/list", staff(consultProxy))
	registerProxy(mux, "/api/zoom", staff(consultProxy))
	mux.Handle("PATCH /api/consultations/{id}/status", staff(consultProxy))
	mux.Handle("POST /api/consultations/{id}/financial", staff(consultProxy))
	mux.Handle("GET /api/consultations/{id}/financial", requireAuth(consultProxy, jwtSecret))
	mux.Handle("GET /api/consultations/{id}", requireAuth(consultProxy, jwtSecret))
	registerProxy(mux, "/api/activities", requireAuth(activityProxy, jwtSecret))

	mux.HandleFunc("/openapi", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
		if err != nil {
			http.Error(w, "openapi not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func requireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-User-Id")
		r.Header.Del("X-User-Type")
		r.Header.Set("X-User-Id", claims.Sub)
		r.Header.Set("X-User-Type", claims.UserType)
		next.ServeHTTP(w, r)
	})
}

func requireUserType(next http.Handler, userTypes ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, t := range userTypes {
		allowed[t] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userType := r.Header.Get("X-User-Type")
		if _, ok := allowed[userType]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
