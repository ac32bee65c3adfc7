package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gleeworld/gleeworld/internal"
	"github.com/gleeworld/gleeworld/internal/auth"
	authPostgres "github.com/gleeworld/gleeworld/internal/auth/postgres"
	"github.com/gleeworld/gleeworld/internal/core/events"
	"github.com/gleeworld/gleeworld/internal/delivery"
	"github.com/gleeworld/gleeworld/internal/module"
	modulePostgres "github.com/gleeworld/gleeworld/internal/module/postgres"
	"github.com/gleeworld/gleeworld/internal/notification"
	notificationPostgres "github.com/gleeworld/gleeworld/internal/notification/postgres"
	"github.com/gleeworld/gleeworld/internal/permission"
	permissionPostgres "github.com/gleeworld/gleeworld/internal/permission/postgres"
	"github.com/gleeworld/gleeworld/internal/realtime"
	"github.com/gleeworld/gleeworld/internal/task"
	taskPostgres "github.com/gleeworld/gleeworld/internal/task/postgres"
	"github.com/gleeworld/gleeworld/internal/transport/rest"
	"github.com/gleeworld/gleeworld/internal/user"
	userPostgres "github.com/gleeworld/gleeworld/internal/user/postgres"
	"github.com/gleeworld/gleeworld/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Broker   *realtime.RedisBroker
	Manager  *realtime.Manager
	EventBus *events.EventBus
	Delivery *delivery.Client
	Router   *chi.Mux
	Handlers rest.Handlers
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Broker.Client(), deps.Handlers,
		deps.Config.Server.AllowedOriginList(), deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Manager.Shutdown()
		deps.Delivery.Shutdown()
		if err := deps.Broker.Close(); err != nil {
			deps.Logger.Error("broker close error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	broker := realtime.NewRedisBroker(config.Redis, lg)
	manager := realtime.NewManager(broker, lg)
	eventBus := events.NewEventBus(lg)

	deliveryClient := delivery.NewClient(delivery.Config{
		EmailAPIURL:    config.Delivery.EmailAPIURL,
		EmailAPIKey:    config.Delivery.EmailAPIKey,
		EmailFrom:      config.Delivery.EmailFrom,
		SMSAPIURL:      config.Delivery.SMSAPIURL,
		SMSAPIKey:      config.Delivery.SMSAPIKey,
		RequestTimeout: config.Delivery.RequestTimeout,
		MaxWorkers:     config.Delivery.MaxWorkers,
		JobQueueSize:   config.Delivery.JobQueueSize,
	}, lg)

	// repositories
	moduleRepo := modulePostgres.NewModuleRepository(gormDB)
	grantRepo := permissionPostgres.NewGrantRepository(gormDB)
	notificationRepo := notificationPostgres.NewNotificationRepository(gormDB)
	taskRepo := taskPostgres.NewTaskRepository(gormDB)
	profileRepo := userPostgres.NewProfileRepository(gormDB)
	authRepo := authPostgres.NewRepository(gormDB)

	// services
	registry, err := module.LoadRegistry(moduleRepo, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to load module registry: %w", err)
	}
	moduleService := module.NewService(moduleRepo, registry, lg)
	permissionService := permission.NewService(grantRepo, registry, nil,
		config.Permissions.RestrictionsBindAdmins, broker, lg)
	userService := user.NewService(profileRepo)
	notificationService := notification.NewService(notificationRepo, profileRepo, deliveryClient, broker)
	taskService := task.NewService(taskRepo, eventBus, broker)

	tokenGen := auth.NewJWTTokenGenerator(config.Security.JWTSecret,
		config.Security.AccessTokenDuration, config.Security.RefreshTokenDuration)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)

	// task events feed the notification dispatcher
	notificationEvents := notification.NewEventHandler(notificationService, lg)
	notificationEvents.RegisterEventHandlers(eventBus)

	// handlers
	authHandler := auth.NewHandler(authService)
	guard := auth.NewModuleGuard(permissionService, lg)
	wsHandler := realtime.NewWebSocketHandler(manager, authService,
		config.Server.AllowedOriginList(), lg)

	handlers := rest.Handlers{
		Auth:   authHandler,
		Guard:  guard,
		User:   user.NewHandler(userService),
		Module: module.NewHandler(moduleService),
		Permission: permission.NewHandler(permissionService, func(r *http.Request) (permission.Subject, bool) {
			return auth.SubjectFromContext(r.Context())
		}),
		Notification: notification.NewHandler(notificationService),
		Task:         task.NewHandler(taskService),
		WebSocket:    wsHandler,
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		GormDB:   gormDB,
		Broker:   broker,
		Manager:  manager,
		EventBus: eventBus,
		Delivery: deliveryClient,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		Logger:   lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
