package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trainchat/transit-bot-go/internal/config"
	"github.com/trainchat/transit-bot-go/internal/conversation"
	"github.com/trainchat/transit-bot-go/internal/database"
	"github.com/trainchat/transit-bot-go/internal/handler"
	"github.com/trainchat/transit-bot-go/internal/jobs"
	"github.com/trainchat/transit-bot-go/internal/messenger"
	"github.com/trainchat/transit-bot-go/internal/middleware"
	"github.com/trainchat/transit-bot-go/internal/planner"
	"github.com/trainchat/transit-bot-go/internal/redis"
	"github.com/trainchat/transit-bot-go/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewAppRepository(db.DB)

	msgr := messenger.NewClient("")
	itineraryStore := planner.NewStore(redisClient, cfg.ItineraryTTL(), log.Logger)

	var mailer conversation.FeedbackMailer = conversation.DisabledMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = conversation.NewResendMailer(cfg.ResendAPIKey)
	}

	services := conversation.NewServiceBuilder(msgr, redisClient, itineraryStore, mailer, cfg.StopCacheTTL(), log.Logger)
	dispatcher := conversation.NewDispatcher(userRepo, msgr, services, cfg.MaxMessageAge(), log.Logger)

	appMiddleware := middleware.NewAppMiddleware(appRepo, log.Logger)
	signatureMiddleware := middleware.NewSignatureMiddleware(log.Logger)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.WebhookRatePerMin, log.Logger)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	webhookHandler := handler.NewWebhookHandler(dispatcher, log.Logger)
	tripHandler := handler.NewTripHandler(itineraryStore, log.Logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/apps/{appID}", func(r chi.Router) {
		r.Use(appMiddleware.Handler)
		r.Get("/webhook", webhookHandler.Verify)
		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware.Handler)
			r.Use(signatureMiddleware.Handler)
			r.Post("/webhook", webhookHandler.Receive)
		})
		r.Get("/trips/{itineraryID}", tripHandler.Get)
	})

	stopRefreshJob := jobs.NewStopRefreshJob(appRepo, redisClient, cfg.StopCacheTTL(), cfg.StopRefresh(), log.Logger)
	stopRefreshJob.Start()
	defer stopRefreshJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
