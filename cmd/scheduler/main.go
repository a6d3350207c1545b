package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/anandpillai/loantrack/internal/config"
	"github.com/anandpillai/loantrack/internal/notifier"
	"github.com/anandpillai/loantrack/internal/repository"
	"github.com/anandpillai/loantrack/internal/service"
	"github.com/anandpillai/loantrack/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Format, cfg.Logging.Level)
	slog.Info("starting reminder scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pusher, err := notifier.NewFCMClient(context.Background(), cfg.Push.ProjectID, cfg.Push.CredentialsFile)
	if err != nil {
		slog.Error("failed to initialize push client", "error", err)
		os.Exit(1)
	}

	offsets, err := cfg.ReminderOffsets()
	if err != nil {
		slog.Error("invalid reminder offsets", "error", err)
		os.Exit(1)
	}

	reminders := service.NewReminderService(
		repository.NewLoanRepository(db),
		repository.NewDeviceTokenRepository(db),
		repository.NewNotificationRepository(db),
		pusher,
		offsets,
		cfg.GetDispatchTimeout(),
		cfg.Reminder.Concurrency,
		cfg.Business.Currency,
	)

	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(cfg.Reminder.Schedule, func() {
		reminders.Run(context.Background())
	}); err != nil {
		slog.Error("failed to schedule reminder scan", "error", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("scheduler started", "schedule", cfg.Reminder.Schedule, "offsets", cfg.Reminder.Offsets)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down scheduler")
	<-c.Stop().Done()
	slog.Info("scheduler stopped")
}
