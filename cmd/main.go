package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/config"
	"github.com/footballinvestment/lfa-legacy-go/db"
	"github.com/footballinvestment/lfa-legacy-go/handlers"
	"github.com/footballinvestment/lfa-legacy-go/middleware"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
	"github.com/footballinvestment/lfa-legacy-go/routes"
	"github.com/footballinvestment/lfa-legacy-go/services"
	"github.com/footballinvestment/lfa-legacy-go/storage"
)

const (
	migrationsDir = "migrations"

	schedulerInterval      = 30 * time.Second
	challengeSweepInterval = 10 * time.Minute
	weatherSweepInterval   = 30 * time.Minute
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbConn.Close()
	logger.Info("database connection established")

	if err := db.RunMigrations(dbConn, migrationsDir); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize object storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("object storage initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("object storage not configured, uploads disabled")
	}

	var emailService *services.EmailService
	if cfg.SMTPHost != "" {
		emailService = services.NewEmailService(cfg)
		logger.Info("email delivery enabled", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP not configured, emails disabled")
	}

	hub := brackets.NewHub(logger)
	go hub.Run()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	creditRepo := repositories.NewPostgresCreditRepository(dbConn)
	friendshipRepo := repositories.NewPostgresFriendshipRepository(dbConn)
	challengeRepo := repositories.NewPostgresChallengeRepository(dbConn)
	locationRepo := repositories.NewPostgresLocationRepository(dbConn)
	bookingRepo := repositories.NewPostgresBookingRepository(dbConn)
	auditRepo := repositories.NewPostgresAuditRepository(dbConn)

	locker := services.NewTournamentLocker()

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	userService := services.NewUserService(userRepo, uploader, logger)
	creditService := services.NewCreditService(dbConn, userRepo, creditRepo)
	friendService := services.NewFriendService(friendshipRepo, userRepo, logger)
	locationService := services.NewLocationService(locationRepo, uploader, logger)
	bracketService := services.NewBracketService(dbConn, tournamentRepo, participantRepo, matchRepo, locker, hub, logger)
	matchService := services.NewMatchService(dbConn, tournamentRepo, participantRepo, matchRepo, auditRepo, locker, hub, logger)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, participantRepo, matchRepo, userRepo, creditRepo, bracketService, locker, hub, emailService, logger)
	participantService := services.NewParticipantService(dbConn, tournamentRepo, participantRepo, userRepo, creditRepo, locker, logger)
	challengeService := services.NewChallengeService(dbConn, challengeRepo, locationRepo, userRepo, creditRepo, friendService, logger)
	bookingService := services.NewBookingService(dbConn, bookingRepo, locationRepo, userRepo, creditRepo, emailService, logger)
	adminService := services.NewAdminService(dbConn, userRepo, creditRepo, auditRepo, logger)

	var weatherService services.WeatherService
	if cfg.WeatherAPIURL != "" {
		weatherClient := services.NewHTTPWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey)
		weatherService = services.NewWeatherService(weatherClient, bookingRepo, locationRepo, bookingService, logger)
		logger.Info("weather sweep enabled")
	} else {
		logger.Warn("weather API not configured, forecast sweep disabled")
	}

	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, emailService, logger),
		User:        handlers.NewUserHandler(userService),
		Tournament:  handlers.NewTournamentHandler(tournamentService, bracketService),
		Participant: handlers.NewParticipantHandler(participantService),
		Match:       handlers.NewMatchHandler(matchService),
		Credit:      handlers.NewCreditHandler(creditService),
		Friend:      handlers.NewFriendHandler(friendService),
		Challenge:   handlers.NewChallengeHandler(challengeService),
		Location:    handlers.NewLocationHandler(locationService),
		Booking:     handlers.NewBookingHandler(bookingService),
		Admin:       handlers.NewAdminHandler(adminService),
		WebSocket:   handlers.NewWebSocketHandler(hub, tournamentService, logger),
	}

	router := chi.NewRouter()
	routes.SetupRoutes(router, h, middleware.NewAuthenticator(cfg.JWTSecretKey), cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go runTicker(rootCtx, schedulerInterval, func(ctx context.Context) {
		if err := tournamentService.ProcessDueTournaments(ctx, time.Now()); err != nil {
			logger.Error("tournament scheduler run failed", slog.Any("error", err))
		}
	})
	go runTicker(rootCtx, challengeSweepInterval, func(ctx context.Context) {
		if err := challengeService.ExpireStale(ctx, time.Now()); err != nil {
			logger.Error("challenge expiry run failed", slog.Any("error", err))
		}
	})
	if weatherService != nil {
		go runTicker(rootCtx, weatherSweepInterval, func(ctx context.Context) {
			if err := weatherService.SweepBookings(ctx, time.Now()); err != nil {
				logger.Error("weather sweep run failed", slog.Any("error", err))
			}
		})
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopBackground()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			server.Close()
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}

// runTicker fires fn immediately, then on every tick until ctx is cancelled.
func runTicker(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
