// Command dashboard runs the QA dashboard gateway: it restores the operator
// session, enforces the login window, and serves the guarded dashboard views.
//
//	@title			QA Dashboard Gateway
//	@version		1.0
//	@description	Session and access-control gateway for the QA dashboard.
//	@BasePath		/
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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/caparizon/qa-dashboard/docs"
	"github.com/caparizon/qa-dashboard/internal/api"
	"github.com/caparizon/qa-dashboard/internal/api/handler"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
	"github.com/caparizon/qa-dashboard/internal/core/service"
	"github.com/caparizon/qa-dashboard/internal/infrastructure/backend"
	mongostore "github.com/caparizon/qa-dashboard/internal/infrastructure/db/mongo"
	redisstore "github.com/caparizon/qa-dashboard/internal/infrastructure/db/redis"
	"github.com/caparizon/qa-dashboard/internal/infrastructure/events"
	"github.com/caparizon/qa-dashboard/internal/infrastructure/events/rabbitmq"
	"github.com/caparizon/qa-dashboard/internal/infrastructure/memory"
	"github.com/caparizon/qa-dashboard/internal/infrastructure/queue"
	"github.com/caparizon/qa-dashboard/internal/pkg/config"
	"github.com/caparizon/qa-dashboard/internal/pkg/sessioncodec"
	"github.com/caparizon/qa-dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "qa-dashboard",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("dashboard stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Session.Secret == "" {
		log.Warn().Msg("SESSION_SECRET not set, session records are stored unsigned")
	}
	codec := sessioncodec.New(cfg.Session.Secret)

	store, closeStore, err := openSessionStore(ctx, cfg, codec, log)
	if err != nil {
		return err
	}
	defer closeStore()

	readiness := map[string]handler.Pinger{"session_store": store}

	// --- Session events ---
	var sink ports.SessionEventPublisher = events.NewLogPublisher(log)
	if cfg.Events.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, log)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, session events go to the log")
		} else {
			defer func() { _ = publisher.Close() }()
			sink = publisher
			readiness["events"] = publisher
		}
	}
	dispatcher := queue.NewDispatcher(sink, 0, log)
	dispatcher.Start(ctx)

	// --- Session core ---
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, log)
	sessions := service.NewSessionManager(store, client, log, service.SessionOptions{
		Duration:      cfg.Session.Duration,
		CheckInterval: cfg.Session.CheckInterval,
		Events:        dispatcher,
	})
	sessions.Restore(ctx)
	go sessions.Run(ctx)

	users := service.NewUserAdminService(client, client, sessions, log)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Sessions:  sessions,
		Users:     users,
		Readiness: readiness,
		Log:       log,
	})

	if !cfg.IsLoopback() {
		log.Warn().Str("host", cfg.Host).Msg("listening beyond loopback, any client that reaches the port acts as the logged-in operator")
	}

	serveErr := make(chan error, 1)
	go func() {
		addr := cfg.Addr()
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("session_store", cfg.Session.Store).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stop()
	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("session events not fully flushed")
	}
	return nil
}

// openSessionStore connects the configured session backend and returns it
// with its cleanup function.
func openSessionStore(ctx context.Context, cfg *config.Config, codec sessioncodec.Codec, log zerolog.Logger) (ports.SessionStore, func(), error) {
	switch cfg.Session.Store {
	case config.BackendRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}
		return redisstore.NewSessionStore(rdb, cfg.Session.Key, codec, log), closeFn, nil

	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "qa-dashboard",
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return mongostore.NewSessionStore(db, cfg.Session.Key, codec, log), closeFn, nil

	default:
		log.Warn().Msg("using in-memory session store, sessions will not survive a restart")
		return memory.NewSessionStore(codec, log), func() {}, nil
	}
}
