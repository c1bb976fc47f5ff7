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

	"chat-core/config"
	"chat-core/handlers"
	"chat-core/logging"
	"chat-core/repository"
	"chat-core/services"
	"chat-core/ws"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// --- config/env ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- store ---
	db, err := repository.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBDebug)
	if err != nil {
		return err
	}
	defer repository.Close(db)
	if err := repository.Migrate(db); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	sessionRepo, closeSessions, err := openSessionRepo(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	hasher, err := services.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		return err
	}

	// --- repos ---
	userRepo := repository.NewGormUserRepo(db)
	chatRepo := repository.NewGormChatRepo(db)
	memberRepo := repository.NewGormMembershipRepo(db)
	messageRepo := repository.NewGormMessageRepo(db)

	// --- websocket hub ---
	hub := ws.NewHub(log.Named("ws"))
	go hub.Run(ctx)

	// --- services ---
	authSvc := services.NewAuthService(userRepo, hasher, log.Named("auth"))
	sessionSvc := services.NewSessionService(authSvc, sessionRepo, userRepo, &cfg, log.Named("session"))
	chatSvc := services.NewChatService(chatRepo, userRepo, memberRepo, log.Named("chat"))
	msgSvc := services.NewMessageService(messageRepo, chatRepo, userRepo, memberRepo, hub, &cfg, log.Named("message"))

	// --- handlers ---
	httpLog := log.Named("http")
	router := handlers.NewRouter(httpLog, sessionSvc,
		handlers.NewAuthHandler(authSvc, sessionSvc, httpLog),
		handlers.NewChatHandler(hub, chatSvc, msgSvc, sessionSvc, httpLog),
		handlers.NewMessageHandler(msgSvc, httpLog),
		func(ctx context.Context) error { return repository.Ping(ctx, db) },
	)

	// --- server setup ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("chat server listening",
			zap.String("addr", server.Addr),
			zap.String("ws", "ws://localhost:"+cfg.Port+"/ws?roomId=<id>&token=<token>"))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- graceful shutdown ---
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

// openSessionRepo picks the session store named by SESSION_BACKEND.
func openSessionRepo(ctx context.Context, cfg config.Config, db *gorm.DB) (repository.SessionRepository, func(), error) {
	if cfg.SessionBackend != "redis" {
		return repository.NewGormSessionRepo(db), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return repository.NewRedisSessionRepo(client, ""), func() { client.Close() }, nil
}
