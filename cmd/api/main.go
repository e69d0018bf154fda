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

	"github.com/geocoder89/noteflow/internal/auth"
	"github.com/geocoder89/noteflow/internal/cache"
	"github.com/geocoder89/noteflow/internal/config"
	"github.com/geocoder89/noteflow/internal/db"
	httpx "github.com/geocoder89/noteflow/internal/http"
	"github.com/geocoder89/noteflow/internal/http/handlers"
	"github.com/geocoder89/noteflow/internal/observability"
	"github.com/geocoder89/noteflow/internal/redisclient"
	"github.com/geocoder89/noteflow/internal/repo/memory"
	"github.com/geocoder89/noteflow/internal/repo/postgres"
	"github.com/geocoder89/noteflow/internal/security"
	"github.com/geocoder89/noteflow/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const version = "1.0.0"

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Version:     version,
		Env:         cfg.Env,
		Endpoint:    cfg.OTELEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	var (
		users  service.UserStore
		notes  service.NoteStore
		checks []handlers.Check
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		users = memory.NewUsersRepo()
		notes = memory.NewNotesRepo()

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			log.Info("migrations applied")
		}

		users = postgres.NewUsersRepo(pool, prom)
		notes = postgres.NewNotesRepo(pool, prom)
		checks = append(checks, handlers.Check{Name: "postgres", Ping: pool.Ping})
	}

	// a process-local cache is only coherent when the store is process-local
	// too; shared stores get Redis or nothing
	var notesCache cache.Cache = cache.Noop{}

	if cfg.StoreDriver == config.StoreDriverMemory {
		notesCache = cache.NewMemory(cfg.NotesCacheTTL)
	}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		err := rc.Ping(pctx)
		cancel()

		if err != nil {
			log.Warn("redis unreachable, note list cache disabled", "addr", cfg.RedisAddr, "err", err)
			notesCache = cache.Noop{}
		} else {
			notesCache = cache.NewRedis(rc.Raw(), cfg.NotesCacheTTL)
			checks = append(checks, handlers.Check{Name: "redis", Ping: rc.Ping})
		}
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	if err := db.EnsureSeedUser(ctx, users, hasher, cfg, log); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	authSvc := service.NewAuthService(users, hasher, tokens, log, prom)
	noteSvc := service.NewNoteService(notes, notesCache, log, prom)

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Auth:     authSvc,
		Notes:    noteSvc,
		Prom:     prom,
		Gatherer: reg,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")

	return nil
}
