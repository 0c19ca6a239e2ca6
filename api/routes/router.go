package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/relacksation-backend/api/controllers"
	"github.com/angelmondragon/relacksation-backend/api/middleware"
	"github.com/angelmondragon/relacksation-backend/internal/adminauth"
	"github.com/angelmondragon/relacksation-backend/internal/admission"
	"github.com/angelmondragon/relacksation-backend/internal/availability"
	"github.com/angelmondragon/relacksation-backend/internal/blockouts"
	"github.com/angelmondragon/relacksation-backend/internal/bookings"
	"github.com/angelmondragon/relacksation-backend/internal/catalog"
	"github.com/angelmondragon/relacksation-backend/internal/quotes"
	"github.com/angelmondragon/relacksation-backend/pkg/auth/session"
	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/logger"
)

// RateLimiter is the counter store behind IP throttling.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies groups everything the HTTP surface is built from. Nil
// Redis-backed members disable the matching middleware.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter RateLimiter
	Idempotency middleware.IdempotencyStore
	Sessions    session.AccessSessionChecker
	Metrics     http.Handler

	Catalog      catalog.Service
	Availability availability.Service
	Quotes       quotes.Service
	Admission    admission.Service
	Bookings     bookings.Service
	Blockouts    blockouts.Service
	AdminAuth    adminauth.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	publicPolicy := middleware.NewRateLimitPolicy(
		"public",
		cfg.RateLimit.PublicWindow,
		cfg.RateLimit.PublicIPLimit,
		0,
	)
	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(publicPolicy, deps.RateLimiter, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/availability", controllers.GetAvailability(deps.Availability, logg))
		r.Route("/quote", func(r chi.Router) {
			r.Post("/", controllers.CreateQuote(deps.Quotes, logg))
			r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{quoteId}", controllers.GetQuote(deps.Quotes, logg))
		})
		r.Post("/bookings", controllers.CreateBooking(deps.Admission, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, deps.RateLimiter, logg)).
			Post("/auth/login", controllers.AdminLogin(deps.AdminAuth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Post("/auth/logout", controllers.AdminLogout(deps.AdminAuth, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
				r.Get("/{slug}", controllers.AdminGetProduct(deps.Catalog, logg))
				r.Patch("/{slug}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", controllers.AdminListBookings(deps.Bookings, logg))
				r.Get("/{bookingId}", controllers.AdminGetBooking(deps.Bookings, logg))
				r.Patch("/{bookingId}", controllers.AdminUpdateBookingStatus(deps.Bookings, logg))
				r.Delete("/{bookingId}", controllers.AdminCancelBooking(deps.Bookings, logg))
			})

			r.Route("/blockouts", func(r chi.Router) {
				r.Get("/", controllers.AdminListBlockouts(deps.Blockouts, logg))
				r.Post("/", controllers.AdminCreateBlockout(deps.Blockouts, logg))
				r.Post("/bulk", controllers.AdminBulkCreateBlockouts(deps.Blockouts, logg))
				r.Get("/stats/summary", controllers.AdminBlockoutStats(deps.Blockouts, logg))
				r.Get("/check", controllers.AdminCheckBlockout(deps.Blockouts, logg))
				r.Get("/{blockoutId}", controllers.AdminGetBlockout(deps.Blockouts, logg))
				r.Put("/{blockoutId}", controllers.AdminUpdateBlockout(deps.Blockouts, logg))
				r.Delete("/{blockoutId}", controllers.AdminDeleteBlockout(deps.Blockouts, logg))
			})
		})
	})

	return r
}
