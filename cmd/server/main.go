package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"verigate/internal/analytics"
	"verigate/internal/auth"
	"verigate/internal/backend"
	"verigate/internal/geo"
	geohandler "verigate/internal/geo/handler"
	"verigate/internal/payment"
	paymenthandler "verigate/internal/payment/handler"
	paymentstore "verigate/internal/payment/store"
	"verigate/internal/platform/config"
	"verigate/internal/platform/httpserver"
	"verigate/internal/platform/logger"
	platformmetrics "verigate/internal/platform/metrics"
	"verigate/internal/platform/redis"
	"verigate/internal/ratelimit"
	"verigate/internal/session"
	sessionmetrics "verigate/internal/session/metrics"
	sessionstore "verigate/internal/session/store"
	"verigate/internal/token"
	httptransport "verigate/internal/transport/http"
	"verigate/pkg/platform/audit"
)

const (
	auditBuffer      = 1024
	loginRateLimit   = 10
	loginRateWindow  = time.Minute
	shutdownTimeout  = 10 * time.Second
	sessionTTLFactor = 2
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gatewayMetrics := platformmetrics.New()
	sessMetrics := sessionmetrics.New()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	tokens := token.NewInMemoryStore()

	var registry session.Store
	if redisClient != nil {
		registry = sessionstore.NewRedisStore(redisClient.Client, sessionTTLFactor*cfg.Session.SessionTimeout)
		log.Info("using redis session registry")
	} else {
		registry = sessionstore.NewInMemoryStore()
		log.Info("using in-memory session registry")
	}

	// Audit events flow through a buffered channel into a single worker so
	// request paths never block on the sink.
	publisher := audit.NewChannelPublisher(auditBuffer, log)
	var auditStore audit.Store
	var kafkaStore *audit.KafkaStore
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaStore, err = audit.NewKafkaStore(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, log)
		if err != nil {
			log.Error("kafka audit store init failed", "error", err)
			os.Exit(1)
		}
		auditStore = kafkaStore
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	sessions, err := session.NewManager(registry, tokens, session.Config{
		SessionTimeout: cfg.Session.SessionTimeout,
		WarningTime:    cfg.Session.WarningTime,
		CheckInterval:  cfg.Session.CheckInterval,
	}, log,
		session.WithNotifier(auth.NewAuditNotifier(publisher, log)),
		session.WithMetrics(sessMetrics),
	)
	if err != nil {
		log.Error("session manager init failed", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := sessions.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("session check loop stopped", "error", err)
		}
	}()

	be := backend.New(cfg.Backend, log, backend.WithMetrics(gatewayMetrics))

	authService := auth.NewService(be, sessions, tokens, log,
		auth.WithAudit(publisher),
		auth.WithMetrics(gatewayMetrics),
	)

	var txStore payment.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		txStore = paymentstore.NewPostgres(db)
		log.Info("using postgres payment transaction store")
	} else {
		txStore = paymentstore.NewInMemory()
	}

	paystack := payment.NewPaystackClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.PublicAppURL, log)
	payments := payment.NewService(paystack, txStore, log,
		payment.WithAudit(publisher),
		payment.WithMetrics(),
	)

	pricing := geo.NewResolver(cfg.GeoServiceURL, log)
	dashboards := analytics.NewService(be)

	var loginThrottle func(http.Handler) http.Handler
	if !cfg.RateLimitDisabled {
		limiter := ratelimit.NewMiddleware(ratelimit.NewInMemory(), loginRateLimit, loginRateWindow, log,
			ratelimit.WithAudit(publisher))
		loginThrottle = limiter.Handler
	}

	health := func() error { return nil }
	if redisClient != nil {
		health = func() error {
			hctx, hcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer hcancel()
			return redisClient.Health(hctx)
		}
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:          httptransport.NewAuthHandler(authService, log),
		Proxy:         httptransport.NewProxyHandler(be, log),
		Analytics:     httptransport.NewAnalyticsHandler(dashboards, log),
		Payments:      paymenthandler.New(payments, log),
		Transactions:  paymenthandler.NewHistory(payments, log),
		Pricing:       geohandler.New(pricing, log),
		Authorizer:    authService,
		LoginThrottle: loginThrottle,
		Health:        health,
		Logger:        log,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting verigate gateway", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	// Stop the check loop and audit worker, then flush the Kafka producer.
	cancel()
	if kafkaStore != nil {
		if err := kafkaStore.Close(shutdownCtx); err != nil {
			log.Error("kafka close failed", "error", err)
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
