// @title        Room Access API
// @version      1.0
// @description  Session login, guest tokens and room admission for video rooms.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/videocall/room-access/internal/api"
	"github.com/videocall/room-access/internal/api/handler"
	"github.com/videocall/room-access/internal/api/middleware"
	"github.com/videocall/room-access/internal/core/ports"
	"github.com/videocall/room-access/internal/core/service"
	"github.com/videocall/room-access/internal/core/token"
	"github.com/videocall/room-access/internal/infrastructure/config"
	mongostore "github.com/videocall/room-access/internal/infrastructure/db/mongo"
	redisstore "github.com/videocall/room-access/internal/infrastructure/db/redis"
	"github.com/videocall/room-access/internal/infrastructure/memory"
	"github.com/videocall/room-access/internal/infrastructure/queue"
	"github.com/videocall/room-access/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
	tokenIssuer     = "room-access"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "room-access",
	})
	lg := logger.Get()

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	users := mongostore.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		lg.Warn().Err(err).Msg("failed to ensure user indexes")
	}

	checks := []handler.DependencyCheck{{
		Name: "mongodb",
		Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}}

	var sessions ports.SessionStore
	switch cfg.Auth.SessionBackend {
	case config.SessionBackendMemory:
		store := memory.NewSessionStore(0)
		go store.RunSweeper(ctx, sweepInterval)
		sessions = store
		lg.Warn().Msg("using in-memory session store; sessions are lost on restart")
	default:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			lg.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		sessions = redisstore.NewSessionStore(rdb)
		checks = append(checks, handler.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	audit := queue.NewDispatcher(cfg.AuditWorkers, mongostore.NewAuditRepository(db), logger.Component("audit"))
	audit.Start()

	codec, err := token.NewCodec(token.Config{SigningKey: []byte(cfg.Auth.JWTSecret), Issuer: tokenIssuer})
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to build token codec")
	}

	authService := service.NewAuthService(users, sessions, audit, cfg.Auth.SessionTTL, logger.Component("auth"))
	guestService := service.NewGuestService(
		mongostore.NewRoomRepository(db),
		codec,
		sessions,
		audit,
		service.GuestServiceConfig{GuestTokenTTL: cfg.Auth.GuestTokenTTL, SessionTTL: cfg.Auth.SessionTTL},
		logger.Component("guest"),
	)

	hub := handler.NewRoomHub(logger.Component("rooms"))
	go hub.Run(ctx)

	e := api.NewRouter(api.Deps{
		Auth:    authService,
		Guest:   guestService,
		Gateway: service.NewConnectionGateway(codec),
		Policy:  service.RoomPolicy{AllowAnonymous: cfg.Auth.AllowAnonymous},
		Hub:     hub,
		Audit:   audit,
		Cookie:  middleware.SessionCookie{Name: cfg.Auth.SessionCookieName, Secure: cfg.Auth.CookieSecure},
		WS:      cfg.WebSocket,
		Checks:  checks,
		Log:     lg,
	})

	go func() {
		lg.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("graceful shutdown failed")
	}
	audit.Close()
	audit.Wait()
}
