// @title Meeting Scheduler API
// @version 1.0
// @description Create meetings, vote on candidate time slots and close voting to pick the winner.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

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

	_ "github.com/lib/pq"

	"meetingscheduler/config"
	_ "meetingscheduler/docs"
	"meetingscheduler/internal/adapters/auth"
	"meetingscheduler/internal/adapters/email"
	"meetingscheduler/internal/adapters/ratelimit"
	"meetingscheduler/internal/clock"
	transporthttp "meetingscheduler/internal/delivery/http"
	"meetingscheduler/internal/delivery/http/controllers"
	"meetingscheduler/internal/repository/postgres"
	"meetingscheduler/internal/services"
	"meetingscheduler/migrations"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger := config.NewLogger()
	if err := run(logger); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(startupCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	applied, err := migrations.Apply(startupCtx, db)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("migrations applied", "count", applied)

	clk := clock.NewSystem()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
		SMTP: email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			User:     cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPassword,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("build mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	emailSvc := services.NewEmailService(mailer, renderer, logger)

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	activityRepo := postgres.NewActivityRepository(db)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, clk)
	statsSvc := services.NewStatisticsService(activityRepo, clk, cfg.StatsWindow)
	userSvc := services.NewUserService(userRepo, clk)
	authSvc := services.NewAuthService(userRepo, auth.NewBcryptHasher(0), jwtManager, cfg.JWTExpiry, clk)
	eventSvc := services.NewEventService(eventRepo, userRepo, statsSvc, emailSvc, clk, logger, cfg.RequestTimeout)

	checks := map[string]controllers.Pinger{"postgres": controllers.PingFunc(db.PingContext)}
	routerCfg := transporthttp.RouterConfig{
		Logger:         logger,
		Verifier:       jwtManager,
		AllowedOrigins: cfg.CORSOrigins,
	}
	if cfg.Redis.Addr != "" {
		pool := ratelimit.NewPool(cfg.Redis.Addr, cfg.Redis.Password)
		defer pool.Close()
		counter := ratelimit.NewRedisCounter(pool)
		if err := counter.Ping(startupCtx); err != nil {
			logger.Warn("redis unreachable, rate limiting fails open", "addr", cfg.Redis.Addr, "err", err)
		}
		checks["redis"] = controllers.PingFunc(counter.Ping)
		routerCfg.RequestCounter = counter
		routerCfg.RateLimit = int64(cfg.Redis.RateLimit)
		routerCfg.RateWindow = cfg.Redis.RateLimitSpan
		routerCfg.TrustedProxies = cfg.Redis.TrustedProxies
	}

	handler := transporthttp.NewRouter(routerCfg, transporthttp.Controllers{
		Event:      controllers.NewEventController(logger, eventSvc),
		Auth:       controllers.NewAuthController(logger, authSvc),
		User:       controllers.NewUserController(logger, userSvc),
		Statistics: controllers.NewStatisticsController(logger, statsSvc),
		Health:     controllers.NewHealthController(logger, checks),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(logger, server)
}

// serve runs server until it fails or SIGINT/SIGTERM arrives, then shuts it down.
func serve(logger *slog.Logger, server *http.Server) error {
	logger.Info("api listening", "addr", server.Addr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
