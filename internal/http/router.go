package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/fasfaisa/Appointment-sheduling/internal/auth"
	"github.com/fasfaisa/Appointment-sheduling/internal/cache"
	"github.com/fasfaisa/Appointment-sheduling/internal/config"
	"github.com/fasfaisa/Appointment-sheduling/internal/http/handlers"
	"github.com/fasfaisa/Appointment-sheduling/internal/http/middlewares"
	"github.com/fasfaisa/Appointment-sheduling/internal/observability"
	"github.com/fasfaisa/Appointment-sheduling/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, store cache.Store) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics registry and tracing first so every route below is covered
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware("appointment-api"))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	slotsRepo := postgres.NewSlotsRepo(pool, prom)
	appointmentsRepo := postgres.NewAppointmentsRepo(pool, prom)

	// token plumbing
	jwtManager := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	slotsHandler := handlers.NewSlotsHandlerWithCache(slotsRepo, appointmentsRepo, cfg.AvailabilityWindowDays, store)
	appointmentsHandler := handlers.NewAppointmentsHandler(appointmentsRepo, store, prom)
	adminHandler := handlers.NewAdminHandler(appointmentsRepo, slotsRepo, store)

	// brute force protection on the credential endpoints only
	authLimiter := middlewares.NewRateLimiter(20, time.Minute)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/login", authHandler.Login)

	// everything past the credential endpoints sits behind the token check
	authed := api.Group("")
	authed.Use(authMw.RequireAuth())
	authed.GET("/auth/check", authHandler.Check)
	authed.GET("/slots", slotsHandler.SlotsForDate)
	authed.GET("/available-dates", slotsHandler.AvailableDates)
	authed.POST("/appointments", appointmentsHandler.Create)
	authed.GET("/appointments", appointmentsHandler.ListOwn)
	authed.DELETE("/appointments/:id", appointmentsHandler.Cancel)

	admin := api.Group("/admin")
	admin.Use(authMw.RequireAuth(), authMw.RequireAdmin())
	admin.GET("/appointments", adminHandler.ListAll)
	admin.PUT("/appointments/:id", adminHandler.UpdateStatus)
	admin.POST("/slots/capacity", adminHandler.SetCapacity)

	return r
}
