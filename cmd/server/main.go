// @title Event Registration API
// @version 1.0
// @description Public event registration with identity-proof uploads, plus an authenticated admin API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventregistration/config"
	_ "eventregistration/docs"
	"eventregistration/internal/adapters/auth"
	"eventregistration/internal/adapters/catalog"
	"eventregistration/internal/adapters/email"
	"eventregistration/internal/adapters/google"
	"eventregistration/internal/adapters/storage"
	deliveryhttp "eventregistration/internal/delivery/http"
	"eventregistration/internal/delivery/http/controllers"
	"eventregistration/internal/domain"
	"eventregistration/internal/repository/postgres"
	"eventregistration/internal/services"
	"eventregistration/internal/validation"
)

func main() {
	logger := config.NewLogger()
	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return err
	}
	if err := postgres.RunMigrations(cfg.DBUrl, logger); err != nil {
		return err
	}

	events, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	regRepo := postgres.NewRegistrationRepository(db)
	fileRepo := postgres.NewFileRepository(db)

	googleClients := google.NewClientProvider(google.Credentials{
		ClientEmail: cfg.Google.ClientEmail,
		PrivateKey:  cfg.Google.PrivateKey,
	}, nil, logger)
	if !googleClients.Configured() {
		logger.Warn("google service account not configured; sheets and drive events will answer 503")
	}
	sheets := google.NewSheetsRegistry(googleClients, cfg.Google.SpreadsheetID, cfg.RegistryTimeout, nil, logger)

	sinks := map[domain.FileSinkKind]domain.FileSink{
		domain.FileSinkDatabase: services.NewDatabaseFileSink(fileRepo),
		domain.FileSinkDrive:    google.NewDriveSink(googleClients, cfg.Google.DriveFolderID),
	}
	if cfg.S3.Enabled() {
		s3Sink, err := storage.NewS3Sink(context.Background(), storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			KeyPrefix:       "id-proofs",
		})
		if err != nil {
			return err
		}
		sinks[domain.FileSinkS3] = s3Sink
	}

	mailers := email.NewTransportCache(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SMTP: email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPass,
		},
		SES: email.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Email.SESAccessKey,
			SecretAccessKey: cfg.Email.SESSecretKey,
		},
	}, email.DefaultTransportTTL, nil, logger)
	defer mailers.Close()

	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}

	tokens := auth.NewRegistrationTokenIssuer()
	registrationSvc := services.NewRegistrationService(services.RegistrationDeps{
		Catalog:   events,
		Validator: validation.New(cfg.AllowedEmailDomains),
		Guard: services.NewGuardRouter(map[domain.RegistryKind]domain.DuplicateGuard{
			domain.RegistryDatabase: services.NewIndexGuard(regRepo),
			domain.RegistrySheets:   services.NewCachedContactGuard(sheets, cfg.ContactCacheTTL, nil),
		}),
		Relay: services.NewFileRelay(sinks, logger),
		Registry: services.NewRegistryRouter(map[domain.RegistryKind]domain.RegistryWriter{
			domain.RegistryDatabase: services.NewDatabaseRegistry(regRepo),
			domain.RegistrySheets:   sheets,
		}),
		Notifier:      services.NewNotificationDispatcher(mailers, renderer, cfg.EmailTimeout, logger),
		Tokens:        tokens,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	})

	hasher := auth.NewBcryptHasher(0)
	adminAuth := services.NewAdminAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, hasher, auth.NewJWTIssuer(cfg.JWTSecret), cfg.AdminTokenExpiry)
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set; admin login is disabled")
	}
	files := services.NewFileService(fileRepo)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Registration: controllers.NewRegistrationController(logger, registrationSvc, tokens),
		Events:       controllers.NewEventController(logger, events),
		Files:        controllers.NewFileController(logger, files),
		Admin:        controllers.NewAdminController(logger, services.NewAdminRegistrationService(regRepo, logger), files),
		Auth:         controllers.NewAuthController(logger, adminAuth),
	}, auth.NewJWTVerifier(cfg.JWTSecret, domain.RoleAdmin), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewHandler(mux, cfg.CORSAllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", server.Addr, "env", cfg.Environment)
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		_ = server.Close()
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.EventsFile != "" {
		return catalog.LoadFile(cfg.EventsFile)
	}
	return catalog.Default()
}
