package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advisor-platform/internal/advisor"
	"advisor-platform/internal/audit"
	"advisor-platform/internal/auth"
	"advisor-platform/internal/config"
	"advisor-platform/internal/events"
	"advisor-platform/internal/httpapi"
	"advisor-platform/internal/reporting"
	"advisor-platform/internal/session"
	"advisor-platform/internal/settlement"
	"advisor-platform/internal/wallet"
	"advisor-platform/pkg/logger"
	"advisor-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services.
	walletSvc := wallet.NewService(db)
	advisorSvc := advisor.NewService(db, rdb,
		cfg.Settlement.DefaultMaxParallelSessions, cfg.Settlement.SlotTTL)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	reportSvc := reporting.NewService(reporting.NewPostgresRepo(db))
	sessionStore := session.NewStore(db)

	// Settlement pipeline: kafka status-change topics feed the trigger; the
	// coordinator settles inside Postgres transactions; completion records
	// go back out on kafka.
	writer := events.NewWriter(cfg.Kafka.Brokers)
	defer writer.Close()
	publisher := events.NewPublisher(writer, cfg.SessionTopic, cfg.Kafka.CompletionTopic)

	coordinator := settlement.NewCoordinator(
		settlement.NewPostgresStore(db), advisorSvc, auditSvc)
	trigger := settlement.NewTrigger(coordinator)

	consumers := make([]*events.Consumer, 0, 3)
	for _, kind := range []string{"video", "audio", "chat"} {
		reader := events.NewSessionReader(cfg.Kafka.Brokers, cfg.SessionTopic(kind), cfg.Kafka.GroupID)
		consumer := events.NewConsumer(reader, trigger, publisher, sessionStore)
		consumers = append(consumers, consumer)
		go func(kind string) {
			if err := consumer.Run(rootCtx); err != nil {
				log.Error("session consumer stopped", "kind", kind, "err", err)
				stop()
			}
		}(kind)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Auth:     authManager,
		Wallet:   walletSvc,
		Advisors: advisorSvc,
		Reports:  reportSvc,
		Audit:    auditSvc,
	}
	webhooks := events.NewWebhookHandler(publisher)

	registerRoutes(r, handlers, webhooks, auth.RequireAccessToken(authManager), db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			log.Error("consumer close failed", "err", err)
		}
	}
}
