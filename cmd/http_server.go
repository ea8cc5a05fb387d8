package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/tasktracker/api"
	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/auth"
	authPostgres "github.com/frahmantamala/tasktracker/internal/auth/postgres"
	"github.com/frahmantamala/tasktracker/internal/core/database"
	"github.com/frahmantamala/tasktracker/internal/core/events"
	"github.com/frahmantamala/tasktracker/internal/group"
	groupPostgres "github.com/frahmantamala/tasktracker/internal/group/postgres"
	"github.com/frahmantamala/tasktracker/internal/notification"
	"github.com/frahmantamala/tasktracker/internal/permission"
	permissionPostgres "github.com/frahmantamala/tasktracker/internal/permission/postgres"
	"github.com/frahmantamala/tasktracker/internal/project"
	projectPostgres "github.com/frahmantamala/tasktracker/internal/project/postgres"
	"github.com/frahmantamala/tasktracker/internal/sop"
	sopPostgres "github.com/frahmantamala/tasktracker/internal/sop/postgres"
	"github.com/frahmantamala/tasktracker/internal/task"
	taskPostgres "github.com/frahmantamala/tasktracker/internal/task/postgres"
	"github.com/frahmantamala/tasktracker/internal/transport"
	"github.com/frahmantamala/tasktracker/internal/transport/rest"
	"github.com/frahmantamala/tasktracker/internal/user"
	userPostgres "github.com/frahmantamala/tasktracker/internal/user/postgres"
	"github.com/frahmantamala/tasktracker/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// application holds the wired object graph behind the HTTP server.
type application struct {
	Config     *internal.Config
	DB         *gorm.DB
	SQLX       *sqlx.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	EventBus   *events.EventBus
	OTPStore   *auth.OTPStore
	Dispatcher *notification.Dispatcher
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	if _, err := api.Load(context.Background()); err != nil {
		lg.Error("openapi document rejected", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		lg.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	if cfg.Database.Driver == internal.DriverSQLite {
		if err := database.AutoMigrate(db); err != nil {
			lg.Error("failed to migrate sqlite schema", "error", err)
			os.Exit(1)
		}
	}
	sx, err := database.SQLX(db, cfg.Database.Driver)
	if err != nil {
		lg.Error("failed to share connection pool", "error", err)
		os.Exit(1)
	}

	app := newApplication(cfg, db, sx, lg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := permission.NewService(permissionPostgres.NewPermissionRepository(db), lg).EnsureCatalog(ctx); err != nil {
		lg.Error("failed to ensure permission catalog", "error", err)
		os.Exit(1)
	}

	go app.OTPStore.Run(ctx, cfg.OTP.SweepInterval)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		lg.Info("Starting HTTP server", "address", addr)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	app.Close()

	lg.Info("Server stopped")
}

// newApplication wires repositories, services and handlers onto a router.
// Background workers other than the OTP sweeper start here; Close stops
// them and releases the database.
func newApplication(cfg *internal.Config, db *gorm.DB, sx *sqlx.DB, lg *slog.Logger) *application {
	bus := events.NewEventBus(lg)
	base := transport.NewBaseHandler(lg)

	dispatcher := notification.NewDispatcher(notification.Config{
		PushURL:    cfg.Notification.PushURL,
		APIKey:     cfg.Notification.APIKey,
		Timeout:    cfg.Notification.Timeout,
		MaxWorkers: cfg.Notification.MaxWorkers,
		QueueSize:  cfg.Notification.QueueSize,
	}, notification.NewTokenStore(sx), lg)
	notification.NewEventHandlers(dispatcher, lg).Subscribe(bus)

	smsSender := notification.NewSMSSender(notification.SMSConfig{
		APIURL:  cfg.SMS.APIURL,
		APIKey:  cfg.SMS.APIKey,
		Sender:  cfg.SMS.Sender,
		Timeout: cfg.SMS.Timeout,
	}, lg)

	authRepo := authPostgres.NewRepository(sx)
	otpStore := auth.NewOTPStore(auth.OTPStoreConfig{
		TTL:        cfg.OTP.TTL,
		CodeLength: cfg.OTP.CodeLength,
		MaxPending: cfg.OTP.MaxPending,
	}, lg)
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGen, otpStore, smsSender, cfg.Users.DefaultCountryCode, lg)
	if cfg.SMS.LoginNotice {
		authService.NotifyLogins(smsSender)
	}

	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(db), lg)
	groupService := group.NewService(groupPostgres.NewGroupRepository(db), permissionService, lg)
	userService := user.NewService(userPostgres.NewUserRepository(db), authRepo, user.Config{
		DefaultCountryCode: cfg.Users.DefaultCountryCode,
		BCryptCost:         cfg.Security.BCryptCost,
	}, lg)
	taskService := task.NewService(taskPostgres.NewTaskRepository(db), bus, task.Config{
		DefaultDurationHours: cfg.Tasks.DefaultDurationHours,
		AllowRefinish:        cfg.Tasks.AllowRefinish,
	}, lg)
	projectService := project.NewService(projectPostgres.NewProjectRepository(db), bus, lg)
	sopService := sop.NewService(sopPostgres.NewSOPRepository(db), bus, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		DB:               mustSQLDB(db),
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		SOPRequiredTitle: cfg.SOP.RequiredTitle,

		Auth:       auth.NewHandler(authService),
		RBAC:       auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		Membership: auth.NewMembershipPolicy(sx, lg),
		SOPGate:    sopService,

		Users:       user.NewHandler(base, userService),
		Groups:      group.NewHandler(base, groupService),
		Permissions: permission.NewHandler(base, permissionService),
		Tasks:       task.NewHandler(base, taskService),
		Projects:    project.NewHandler(base, projectService),
		SOPs:        sop.NewHandler(base, sopService),
	}, lg)

	return &application{
		Config:     cfg,
		DB:         db,
		SQLX:       sx,
		Router:     router,
		Logger:     lg,
		EventBus:   bus,
		OTPStore:   otpStore,
		Dispatcher: dispatcher,
	}
}

// Close drains pending event handlers before stopping the dispatcher they
// enqueue onto, then closes the database.
func (a *application) Close() {
	a.EventBus.Wait()
	a.Dispatcher.Shutdown()
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Logger.Error("Database close error", "error", err)
		}
	}
}

func mustSQLDB(db *gorm.DB) *sql.DB {
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("gorm handle without connection pool: %v", err))
	}
	return sqlDB
}
