package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/cache"
	"github.com/fasfaisa/Appointment-sheduling/internal/config"
	"github.com/fasfaisa/Appointment-sheduling/internal/db"
	httpx "github.com/fasfaisa/Appointment-sheduling/internal/http"
	"github.com/fasfaisa/Appointment-sheduling/internal/observability"
	"github.com/fasfaisa/Appointment-sheduling/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in; without a collector endpoint the app runs untraced
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "appointment-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	bootCtx, cancelBoot := config.WithTimeout(30 * time.Second)
	defer cancelBoot()

	if err := db.EnsureSchema(bootCtx, pool); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(bootCtx, pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// seed the hourly slot catalog; reruns are no-ops
	slotsRepo := postgres.NewSlotsRepo(pool, nil)
	if err := slotsRepo.EnsureDefaults(bootCtx, cfg.SlotDayStartHour, cfg.SlotDayEndHour, cfg.SlotDefaultCapacity); err != nil {
		log.Error("slot seed failed", "err", err)
		os.Exit(1)
	}

	// availability cache: redis when configured, in-process otherwise
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	var store cache.Store
	if cfg.RedisAddr != "" {
		redisStore := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cacheTTL)

		if err := redisStore.Ping(bootCtx); err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}

		defer redisStore.Close()
		store = redisStore
		log.Info("using redis availability cache", "addr", cfg.RedisAddr)
	} else {
		store = cache.NewMemory(cacheTTL)
	}

	// set up routers with the log
	router := httpx.NewRouter(cfg, log, pool, store)

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
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
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

		ctx, cancel := config.WithTimeout(10 * time.Second)

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
