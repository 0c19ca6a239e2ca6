package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/relacksation-backend/api/routes"
	"github.com/angelmondragon/relacksation-backend/internal/adminauth"
	"github.com/angelmondragon/relacksation-backend/internal/admission"
	"github.com/angelmondragon/relacksation-backend/internal/availability"
	"github.com/angelmondragon/relacksation-backend/internal/blockouts"
	"github.com/angelmondragon/relacksation-backend/internal/bookings"
	"github.com/angelmondragon/relacksation-backend/internal/catalog"
	"github.com/angelmondragon/relacksation-backend/internal/quotes"
	"github.com/angelmondragon/relacksation-backend/pkg/auth/session"
	"github.com/angelmondragon/relacksation-backend/pkg/bootstrap"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/db"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
	"github.com/angelmondragon/relacksation-backend/pkg/metrics"
	"github.com/angelmondragon/relacksation-backend/pkg/migrate"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/redis"
	"github.com/angelmondragon/relacksation-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, logg, err := bootstrap.Load("api")
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(dbClient))

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(redisClient))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, bookingMetrics)
	if err != nil {
		return err
	}
	deps.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDependencies(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	bookingMetrics *metrics.BookingMetrics,
) (routes.Dependencies, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	productRepo := catalog.NewRepository(conn)
	bookingRepo := bookings.NewRepository(conn)
	blockRepo := blockouts.NewRepository(conn)

	catalogService, err := catalog.NewService(productRepo, dbClient, emitter)
	if err != nil {
		return routes.Dependencies{}, err
	}
	bookingService, err := bookings.NewService(bookingRepo, dbClient, emitter)
	if err != nil {
		return routes.Dependencies{}, err
	}
	blockoutService, err := blockouts.NewService(blockRepo, productRepo, dbClient, emitter)
	if err != nil {
		return routes.Dependencies{}, err
	}
	availabilityService, err := availability.NewService(productRepo, bookingRepo, blockoutService, cfg.Booking.MaxAvailabilityDays, bookingMetrics)
	if err != nil {
		return routes.Dependencies{}, err
	}

	engine := quotes.NewEngine(quotes.PolicyFromConfig(cfg.Booking), time.Now, uuid.NewString)
	quoteService, err := quotes.NewService(engine, productRepo, redisClient, bookingMetrics, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	admissionService, err := admission.NewService(dbClient, productRepo, bookingRepo, blockRepo, emitter, cfg.Booking.MaxBookingNights, bookingMetrics, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return routes.Dependencies{}, err
	}
	if security.NeedsRehash(cfg.Admin.PasswordHash, cfg.Password) {
		logg.Warn(context.Background(), "admin password hash is weaker than the configured argon2 params; regenerate it with cmd/migrate -cmd=hash-password")
	}
	adminAuthService, err := adminauth.NewService(cfg.Admin, cfg.JWT, sessions)
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		DB:           dbClient,
		Redis:        redisClient,
		RateLimiter:  redisClient,
		Idempotency:  redisClient,
		Sessions:     sessions,
		Catalog:      catalogService,
		Availability: availabilityService,
		Quotes:       quoteService,
		Admission:    admissionService,
		Bookings:     bookingService,
		Blockouts:    blockoutService,
		AdminAuth:    adminAuthService,
	}, nil
}
