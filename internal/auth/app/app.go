package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/onevision/baselogin/internal/auth/http"
	"github.com/onevision/baselogin/internal/auth/mail"
	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/internal/auth/store/drivers/sqlite"
	"github.com/onevision/baselogin/pkg/cryptox"
	"github.com/onevision/baselogin/pkg/jwtx"
	"github.com/onevision/baselogin/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	mailer *mail.Mailer

	// Services
	accountService      *service.AccountService
	sessionService      *service.SessionService
	inviteService       *service.InviteService
	memberService       *service.MemberService
	resetService        *service.ResetService
	settingsService     *service.SettingsService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "baselogin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := jwtx.NewSigner([]byte(cfg.SigningSecret), cfg.Issuer)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("init signer: %w", err)
	}
	verifier := jwtx.NewVerifier([]byte(cfg.SigningSecret), cfg.Issuer)

	app.initMailer()
	app.initServices(signer, verifier)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("baselogin starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down baselogin...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("baselogin stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initMailer picks the delivery backend. Without an SMTP host configured,
// emails are written to the log so the links remain usable in development.
func (app *Application) initMailer() {
	var sender mail.Sender
	if app.cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			FromAddr: app.cfg.SMTPFromAddr,
			FromName: app.cfg.SMTPFromName,
		})
	} else {
		app.logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		sender = &mail.LogSender{}
	}
	app.mailer = mail.NewMailer(sender, app.cfg.AppURL)
}

// initServices initializes all business logic services
func (app *Application) initServices(signer *jwtx.Signer, verifier *jwtx.Verifier) {
	app.accountService = &service.AccountService{
		Store:        app.db,
		Mailer:       app.mailer,
		Signer:       signer,
		Verifier:     verifier,
		DefaultSeats: app.cfg.DefaultMaxUsers,
	}
	app.sessionService = &service.SessionService{
		Store:    app.db,
		Mailer:   app.mailer,
		Signer:   signer,
		Verifier: verifier,
	}
	app.inviteService = &service.InviteService{
		Store:    app.db,
		Mailer:   app.mailer,
		Signer:   signer,
		Verifier: verifier,
	}
	app.memberService = &service.MemberService{Store: app.db}
	app.resetService = &service.ResetService{
		Store:   app.db,
		Mailer:  app.mailer,
		Enabled: app.cfg.PasswordResetEnabled,
	}
	app.settingsService = &service.SettingsService{
		Store:        app.db,
		Superadmins:  app.cfg.Superadmins,
		DefaultSeats: app.cfg.DefaultMaxUsers,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.Env == "prod",
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AccountService = app.accountService
	router.SessionService = app.sessionService
	router.InviteService = app.inviteService
	router.MemberService = app.memberService
	router.ResetService = app.resetService
	router.SettingsService = app.settingsService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
