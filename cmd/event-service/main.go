package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ms-events/internal/analytics"
	analytics_api "ms-events/internal/analytics/api"
	"ms-events/internal/auth"
	"ms-events/internal/config"
	"ms-events/internal/database"
	"ms-events/internal/events/attendance"
	"ms-events/internal/events/cache"
	eventdb "ms-events/internal/events/db"
	"ms-events/internal/events/event_api"
	"ms-events/internal/events/service"
	"ms-events/internal/kafka"
	"ms-events/internal/logger"
	"ms-events/internal/media"
	"ms-events/internal/passes"
	"ms-events/internal/sse"
	"ms-events/internal/users"
	userdb "ms-events/internal/users/db"
	"ms-events/internal/users/user_api"
	"ms-events/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Service: "event-service",
		Dir:     cfg.Log.Dir,
		Level:   logger.ParseLevel(cfg.Log.Level),
		NoColor: cfg.Log.NoColor,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Event Service initialization")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := database.CreateSchema(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
	}
	log.LogDatabase("MIGRATE", "events", "Schema ready")

	// ---------------- EVENTS ----------------
	eventStore := eventdb.New(bunDB)
	engine := attendance.NewEngine(eventStore, cfg.RSVP.LeaveStrict, log)
	emitter := sse.NewAttendanceEmitter()

	eventService := service.NewEventService(eventStore, engine, log)
	eventService.Broadcaster = emitter
	eventService.Topics = cfg.Kafka.Topics

	if cfg.Redis.Addr != "" {
		redisClient, err := cache.Connect(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("REDIS", fmt.Sprintf("List cache disabled: %v", err))
		} else {
			defer redisClient.Close()
			eventService.Cache = cache.NewRedisListCache(redisClient, cfg.Redis.ListTTL, log)
		}
	} else {
		log.Info("REDIS", "REDIS_ADDR not set, list cache disabled")
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		eventService.Publisher = producer
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	uploads, err := media.NewLocalStore(cfg.Media.UploadDir, cfg.Media.PublicBaseURL, cfg.Media.MaxBytes)
	if err != nil {
		log.Fatal("MEDIA", err.Error())
	}

	eventHandler := event_api.NewHandler(eventService, log)
	eventHandler.Media = uploads
	eventHandler.MaxUploadBytes = uploads.MaxBytes
	eventHandler.Passes = passes.NewQRGenerator(cfg.RSVP.PassSecret)
	eventHandler.Emitter = emitter

	// ---------------- USERS ----------------
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL, cfg.Auth.JWTIssuer)
	verifiers := []auth.Verifier{issuer}
	if cfg.Auth.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClient)
		if err != nil {
			log.Warn("AUTH", fmt.Sprintf("OIDC verification disabled: %v", err))
		} else {
			verifiers = append(verifiers, oidcVerifier)
			log.Info("AUTH", fmt.Sprintf("Accepting OIDC tokens from %s", cfg.Auth.OIDCIssuer))
		}
	}
	requireAuth := auth.Middleware(log, verifiers...)

	userService := users.NewUserService(userdb.New(bunDB), issuer, log)
	userHandler := user_api.NewHandler(userService, log)

	analyticsHandler := analytics_api.NewHandler(analytics.NewService(analytics.NewDB(bunDB), log), log)

	// ---------------- ROUTER ----------------
	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			utils.WriteMessage(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		utils.WriteMessage(w, http.StatusOK, "ok")
	})

	fileServer := http.StripPrefix(cfg.Media.PublicBaseURL+"/", http.FileServer(http.Dir(cfg.Media.UploadDir)))
	r.Get(cfg.Media.PublicBaseURL+"/*", fileServer.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		userHandler.RegisterRoutes(r, requireAuth)
		log.Info("ROUTER", "Auth routes registered under /api/auth")

		eventHandler.RegisterRoutes(r, requireAuth)
		log.Info("ROUTER", "Event routes registered under /api/events")

		analyticsHandler.RegisterRoutes(r, requireAuth)
		log.Info("ROUTER", "Analytics routes registered under /api/analytics")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Event Service on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
	log.Info("APP", "✅ Event service shutdown complete")
}
