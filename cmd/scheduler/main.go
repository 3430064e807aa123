package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/segyhp/loan-reconciler/internal/cache"
	"github.com/segyhp/loan-reconciler/internal/config"
	"github.com/segyhp/loan-reconciler/internal/notify"
	"github.com/segyhp/loan-reconciler/internal/repository"
	"github.com/segyhp/loan-reconciler/internal/service"
	"github.com/segyhp/loan-reconciler/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Jobs is the part of the loan service the scheduler drives
type Jobs interface {
	ReconcileActiveLoans(ctx context.Context) (int, error)
	SendDueReminders(ctx context.Context) (int, error)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging)
	log.Info("Starting loan scheduler...")

	db, err := repository.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	var loanCache cache.LoanCache = cache.Nop{}
	if cfg.Redis.Host != "" {
		client, err := cache.OpenRedis(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, cached summaries expire by TTL only")
		} else {
			defer client.Close()
			loanCache = cache.NewRedisLoanCache(client, cfg.Redis.TTL)
		}
	}

	var notifier notify.Notifier = notify.Noop{Logger: log}
	if cfg.MailEnabled() {
		notifier = notify.NewSender(cfg.SMTP, log)
	}

	loanService := service.NewLoanService(
		repository.NewUnitOfWork(db),
		repository.NewRepos(db),
		loanCache,
		notifier,
		log,
		cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize cron scheduler
	c := newCron(cfg, log)

	// Schedule tasks
	if err := setupCronJobs(ctx, c, cfg, loanService, log); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	cancel()
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func newCron(cfg *config.Config, log *logrus.Logger) *cron.Cron {
	cronLog := cron.PrintfLogger(log)
	return cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, jobs Jobs, log *logrus.Logger) error {
	// Daily re-reconciliation; overdue and missed counts move with the date
	if _, err := c.AddFunc(cfg.Scheduler.ReconcileCron, func() {
		log.Info("Running daily reconciliation job...")
		if _, err := jobs.ReconcileActiveLoans(ctx); err != nil {
			log.WithError(err).Error("daily reconciliation finished with errors")
		}
	}); err != nil {
		return err
	}

	// Daily reminders, read from the aggregates written above
	if _, err := c.AddFunc(cfg.Scheduler.ReminderCron, func() {
		log.Info("Running repayment reminder job...")
		if _, err := jobs.SendDueReminders(ctx); err != nil {
			log.WithError(err).Error("reminder job finished with errors")
		}
	}); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"reconcile": cfg.Scheduler.ReconcileCron,
		"reminders": cfg.Scheduler.ReminderCron,
		"timezone":  cfg.Scheduler.Timezone,
	}).Info("Cron jobs scheduled successfully")
	return nil
}
