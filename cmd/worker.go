package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gleeworld/gleeworld/internal/delivery"
	"github.com/gleeworld/gleeworld/internal/notification"
	notificationPostgres "github.com/gleeworld/gleeworld/internal/notification/postgres"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/internal/task"
	taskPostgres "github.com/gleeworld/gleeworld/internal/task/postgres"
	userPostgres "github.com/gleeworld/gleeworld/internal/user/postgres"
	"github.com/gleeworld/gleeworld/pkg/logger"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers: notification expiry sweeps and task due-date reminders.`,
}

var sweeperCmd = &cobra.Command{
	Use:   "sweeper",
	Short: "Run periodic notification and task sweeps",
	Long:  `Deletes expired notifications and sends reminders for tasks that are due soon or overdue.`,
	Run: func(cmd *cobra.Command, args []string) {
		startSweeper()
	},
}

var (
	sweepInterval time.Duration
	dueSoonWindow time.Duration
)

func startSweeper() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"), cfg.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init gorm: %v\n", err)
		os.Exit(1)
	}

	broker := realtime.NewRedisBroker(cfg.Redis, lg)
	defer broker.Close()

	deliveryClient := delivery.NewClient(delivery.Config{
		EmailAPIURL:    cfg.Delivery.EmailAPIURL,
		EmailAPIKey:    cfg.Delivery.EmailAPIKey,
		EmailFrom:      cfg.Delivery.EmailFrom,
		SMSAPIURL:      cfg.Delivery.SMSAPIURL,
		SMSAPIKey:      cfg.Delivery.SMSAPIKey,
		RequestTimeout: cfg.Delivery.RequestTimeout,
		MaxWorkers:     cfg.Delivery.MaxWorkers,
		JobQueueSize:   cfg.Delivery.JobQueueSize,
	}, lg)
	defer deliveryClient.Shutdown()

	profileRepo := userPostgres.NewProfileRepository(gormDB)
	notificationService := notification.NewService(
		notificationPostgres.NewNotificationRepository(gormDB), profileRepo, deliveryClient, broker)
	taskService := task.NewService(taskPostgres.NewTaskRepository(gormDB), nil, broker)

	lg.Info("sweeper started",
		"interval", sweepInterval.String(),
		"due_soon_window", dueSoonWindow.String())

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx := context.Background()
	runSweep(ctx, notificationService, taskService)

	for {
		select {
		case <-ticker.C:
			runSweep(ctx, notificationService, taskService)
		case sig := <-sigChan:
			lg.Info("received signal, stopping sweeper", "signal", sig)
			return
		}
	}
}

func runSweep(ctx context.Context, notifications *notification.Service, tasks *task.Service) {
	lg := logger.LoggerWrapper()
	now := time.Now()

	if _, err := notifications.SweepExpired(now); err != nil {
		lg.Error("notification expiry sweep failed", "error", err)
	}

	dueSoon, err := tasks.ListDueSoon(now, dueSoonWindow)
	if err != nil {
		lg.Error("due-soon task sweep failed", "error", err)
	} else {
		for _, t := range dueSoon {
			if _, err := notifications.NotifyTaskDueSoon(ctx, t.AssignedTo, t.ID, t.Title, *t.DueDate); err != nil {
				lg.Warn("failed to send due-soon reminder", "task_id", t.ID, "error", err)
			}
		}
	}

	overdue, err := tasks.ListOverdue(now)
	if err != nil {
		lg.Error("overdue task sweep failed", "error", err)
		return
	}
	for _, t := range overdue {
		if _, err := notifications.NotifyTaskOverdue(ctx, t.AssignedTo, t.ID, t.Title, *t.DueDate, sweepInterval); err != nil {
			lg.Warn("failed to send overdue notice", "task_id", t.ID, "error", err)
		}
	}
}

func init() {
	sweeperCmd.Flags().DurationVar(&sweepInterval, "interval", 15*time.Minute, "How often to run the sweeps")
	sweeperCmd.Flags().DurationVar(&dueSoonWindow, "due-soon-window", 24*time.Hour, "How far ahead to look for due tasks")

	workerCmd.AddCommand(sweeperCmd)

	rootCmd.AddCommand(workerCmd)
}
