package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/loan-reconciler/internal/cache"
	"github.com/segyhp/loan-reconciler/internal/config"
	"github.com/segyhp/loan-reconciler/internal/handler"
	"github.com/segyhp/loan-reconciler/internal/notify"
	"github.com/segyhp/loan-reconciler/internal/repository"
	"github.com/segyhp/loan-reconciler/internal/service"
	"github.com/segyhp/loan-reconciler/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)

	// Initialize database
	db, err := repository.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Initialize Redis
	redisClient, loanCache := initCache(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize service
	loanService := service.NewLoanService(
		repository.NewUnitOfWork(db),
		repository.NewRepos(db),
		loanCache,
		initNotifier(cfg, log),
		log,
		cfg,
	)
	loanHandler := handler.NewLoanHandler(loanService, log)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := handler.NewRouter(loanHandler, healthHandler, log)

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

// initCache connects to redis. Without it summaries are computed on every read.
func initCache(cfg *config.Config, log *logrus.Logger) (*redis.Client, cache.LoanCache) {
	if cfg.Redis.Host == "" {
		log.Info("Redis not configured, summary cache disabled")
		return nil, cache.Nop{}
	}

	client, err := cache.OpenRedis(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, summary cache disabled")
		return nil, cache.Nop{}
	}

	return client, cache.NewRedisLoanCache(client, cfg.Redis.TTL)
}

func initNotifier(cfg *config.Config, log *logrus.Logger) notify.Notifier {
	if !cfg.MailEnabled() {
		return notify.Noop{Logger: log}
	}
	return notify.NewSender(cfg.SMTP, log)
}
