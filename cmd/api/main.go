package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attendhub/attendhub/internal/auth"
	"github.com/attendhub/attendhub/internal/config"
	"github.com/attendhub/attendhub/internal/db"
	httpx "github.com/attendhub/attendhub/internal/http"
	"github.com/attendhub/attendhub/internal/observability"
	"github.com/attendhub/attendhub/internal/redisclient"
	"github.com/attendhub/attendhub/internal/repo/memory"
	"github.com/attendhub/attendhub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	// tracing is opt-in via the OTLP endpoint
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "attendhub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			_ = shutdownTracer(context.Background())
		}()
	}

	// metrics
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		JWT:     auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
		Prom:    prom,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	// store driver selection
	switch cfg.StoreDriver {
	case "memory":
		users := memory.NewUsersRepo()
		deps.Users = users
		deps.Attendance = memory.NewAttendanceRepo(users)

	default:
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}

		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("schema apply failed", "err", err)
			os.Exit(1)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Attendance = postgres.NewAttendanceRepo(pool, prom)
		deps.Ping = func() error {
			pctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()

			return pool.Ping(pctx)
		}
	}

	// bootstrap admin account
	if err := db.EnsureAdminUser(ctx, deps.Users, cfg); err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	// optional redis-backed login throttle
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, falling back to in-memory rate limiting", "err", err)
		} else {
			deps.Redis = rc
		}
	}

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctxTimeOut := 10 * time.Second

		ctx, cancel := config.WithTimeout(ctxTimeOut)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
