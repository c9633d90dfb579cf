package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	apidoc "eduplatform-web/api"
	"eduplatform-web/internal/api"
	"eduplatform-web/internal/config"
	"eduplatform-web/internal/domain"
	"eduplatform-web/internal/handler"
	"eduplatform-web/internal/messaging"
	"eduplatform-web/internal/middleware"
	"eduplatform-web/internal/notify"
	"eduplatform-web/internal/observability"
	"eduplatform-web/internal/preferences"
	"eduplatform-web/internal/querycache"
	"eduplatform-web/internal/repository/postgres"
	"eduplatform-web/internal/security"
	"eduplatform-web/internal/service"
	"eduplatform-web/internal/session"
	"eduplatform-web/internal/storage"
	"eduplatform-web/internal/websocket"
)

// redisStateTTL bounds how long an untouched session survives in Redis
const redisStateTTL = 30 * 24 * time.Hour

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting web shell",
		slog.String("environment", cfg.Environment),
		slog.String("api", cfg.APIBaseURL),
		slog.String("state_backend", cfg.StateBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, readiness, closeBackend, err := openStateBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open state backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeBackend()

	sess := session.NewStore(ctx, backend)
	prefs := preferences.NewStore(ctx, backend, nil)

	hub := websocket.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go func() {
		if err := hub.Run(hubCtx); err != nil && err != context.Canceled {
			slog.Error("hub error", slog.String("error", err.Error()))
		}
	}()
	sess.Subscribe(hub.OnSessionChange)
	slog.Info("websocket hub started")

	cache := querycache.New(
		querycache.WithNotifier(notify.Multi{notify.NewLogNotifier(nil), hub}),
		querycache.WithStaleTime(cfg.CacheStaleTime),
		querycache.WithGCTime(cfg.CacheGCTime),
	)
	go cache.Run(ctx)

	client := api.NewClient(cfg.APIBaseURL,
		api.WithSession(sess),
		api.WithTimeout(cfg.APITimeout),
		api.WithRateLimit(cfg.APIRateLimit, cfg.APIRateBurst),
	)
	readiness = append(readiness, handler.PingCheck("api", client))

	authService := service.NewAuthService(ctx, client, sess, cache)
	defer authService.Close()
	courseService := service.NewCourseService(client, cache)
	userService := service.NewUserService(client, cache)

	tokens, err := security.NewTokenManager()
	if err != nil {
		slog.Error("failed to create CSRF token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	// A new session never reuses the previous session's CSRF token
	sess.Subscribe(func(prev, next domain.SessionState) {
		if prev.IsAuthenticated == next.IsAuthenticated {
			return
		}
		if _, err := tokens.Rotate(); err != nil {
			slog.Error("failed to rotate CSRF token", slog.String("error", err.Error()))
		}
	})

	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
		rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		if err != nil {
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rmq.Close()

		cache.SetBroadcaster(rmq)
		if err := messaging.NewInvalidationConsumer(rmq, cache).Start(ctx); err != nil {
			slog.Error("failed to start invalidation consumer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		readiness = append(readiness, handler.ConnCheck("rabbitmq", rmq))
		slog.Info("cross-instance invalidation enabled", slog.String("instance_id", rmq.InstanceID()))
	}

	router := handler.NewRouter(handler.RouterConfig{
		Session:        sess,
		Auth:           authService,
		Courses:        courseService,
		Users:          userService,
		Preferences:    prefs,
		Tokens:         tokens,
		Hub:            hub,
		AllowedOrigins: middleware.ParseOrigins(cfg.AllowedOrigins),
		OpenAPI:        middleware.DefaultOpenAPIValidatorConfig(apidoc.OpenAPI, cfg.IsProduction()),
		AuthRateLimit:  middleware.AuthRateLimit,
		Readiness:      readiness,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      chimiddleware.Logger(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("web shell listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	hubCancel()

	time.Sleep(100 * time.Millisecond)

	slog.Info("server stopped gracefully")
}

// openStateBackend opens the store selected by STATE_BACKEND together with
// the readiness checks it contributes
func openStateBackend(ctx context.Context, cfg *config.Config) (domain.StateStore, []handler.ReadinessCheck, func(), error) {
	noop := func() {}

	switch cfg.StateBackend {
	case config.BackendMemory:
		slog.Warn("using in-memory state, sessions are lost on restart")
		return storage.NewMemoryStore(), nil, noop, nil

	case config.BackendRedis:
		connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
		defer connCancel()
		client, err := config.NewRedisClient(connCtx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		store := storage.NewRedisStore(client, redisStateTTL)
		slog.Info("connected to redis")
		return store, []handler.ReadinessCheck{handler.PingCheck("redis", store)}, closeRedis(client), nil

	case config.BackendPostgres:
		db, err := config.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo, err := openStateRepository(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		slog.Info("connected to postgresql")
		return repo, []handler.ReadinessCheck{handler.PingCheck("postgres", repo)}, func() {
			repo.Close()
			db.Close()
		}, nil

	default:
		var sealer *storage.Sealer
		if cfg.StateSecret != "" {
			s, err := storage.NewSealer(cfg.StateSecret)
			if err != nil {
				return nil, nil, nil, err
			}
			sealer = s
		}
		store, err := storage.NewFileStore(cfg.StateDir, sealer)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("storing state on disk", slog.String("dir", cfg.StateDir), slog.Bool("sealed", sealer != nil))
		return store, nil, noop, nil
	}
}

func openStateRepository(ctx context.Context, db *sql.DB) (*postgres.StateRepository, error) {
	schemaCtx, schemaCancel := context.WithTimeout(ctx, 10*time.Second)
	defer schemaCancel()
	if err := postgres.EnsureSchema(schemaCtx, db); err != nil {
		return nil, err
	}
	return postgres.NewStateRepository(db)
}

func closeRedis(client *redis.Client) func() {
	return func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}
}
