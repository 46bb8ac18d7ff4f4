package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"guestline/config"
	authadapter "guestline/internal/adapters/auth"
	emailadapter "guestline/internal/adapters/email"
	delivery "guestline/internal/delivery/http"
	"guestline/internal/delivery/http/controllers"
	"guestline/internal/delivery/http/middleware"
	"guestline/internal/repository/postgres"
	"guestline/internal/scheduler"
	"guestline/internal/services"
)

const (
	serviceTimeout = 10 * time.Second
	bcryptCost     = 10
)

// @title Guestline API
// @version 1.0
// @description RSVP admission and attendee messaging for events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Adapters
	tokens := authadapter.NewJWTTokens(cfg.JWTSecret)
	hasher := authadapter.NewBcryptHasher(bcryptCost)
	mailer, err := emailadapter.NewMailer(emailadapter.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: emailadapter.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	renderer := emailadapter.NewTemplateRenderer()

	// Services
	sender := services.NewEmailSender(mailer, renderer)
	authService := services.NewAuthService(userRepo, hasher, tokens, cfg.JWTExpiry)
	eventService := services.NewEventService(eventRepo, serviceTimeout)
	rsvpService := services.NewRSVPService(eventRepo, attendeeRepo, serviceTimeout)
	messageService := services.NewMessageService(eventRepo, attendeeRepo, messageRepo, sender, serviceTimeout)

	// Controllers
	authController := controllers.NewAuthController(logger, authService)
	eventController := controllers.NewEventController(logger, eventService)
	rsvpController := controllers.NewRSVPController(logger, rsvpService)
	messageController := controllers.NewMessageController(logger, messageService)

	mux := delivery.NewRouter(authController, eventController, rsvpController, messageController, tokens)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scheduled message dispatcher
	sched := scheduler.New(messageService, cfg.DispatchInterval, logger)
	go sched.Start(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "err", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
