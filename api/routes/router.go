package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmarchan/fieldrent-backend/api/controllers"
	"github.com/rmarchan/fieldrent-backend/api/middleware"
	"github.com/rmarchan/fieldrent-backend/internal/auth"
	"github.com/rmarchan/fieldrent-backend/internal/bills"
	"github.com/rmarchan/fieldrent-backend/internal/fields"
	"github.com/rmarchan/fieldrent-backend/internal/iot"
	"github.com/rmarchan/fieldrent-backend/internal/payments"
	"github.com/rmarchan/fieldrent-backend/internal/plants"
	"github.com/rmarchan/fieldrent-backend/internal/users"
	"github.com/rmarchan/fieldrent-backend/pkg/config"
	"github.com/rmarchan/fieldrent-backend/pkg/db"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
	"github.com/rmarchan/fieldrent-backend/pkg/metrics"
	"github.com/rmarchan/fieldrent-backend/pkg/redis"
)

// RouterParams bundles the wiring for the HTTP surface.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Auth     auth.Service
	Users    users.Service
	Fields   fields.Service
	Bills    bills.Service
	Payments payments.Service
	IoT      iot.Service
	Plants   plants.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, p.Redis, logg)).Post("/signup", controllers.AuthSignup(p.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UsersList(p.Users, logg))
			r.Get("/search", controllers.UsersSearch(p.Users, logg))
			r.With(middleware.RequireAdmin(logg)).Delete("/{userId}", controllers.UserDelete(p.Users, logg))
		})

		r.Route("/fields", func(r chi.Router) {
			r.Get("/", controllers.FieldsList(p.Fields, logg))
			r.With(middleware.RequireAdmin(logg)).Post("/", controllers.FieldCreate(p.Fields, logg))
			r.With(middleware.RequireAdmin(logg)).Delete("/{fieldId}", controllers.FieldDelete(p.Fields, logg))
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/", controllers.BillsList(p.Bills, logg))
			r.Post("/start", controllers.BillStart(p.Bills, logg))
			r.Post("/{billId}/count", controllers.BillUpdateCount(p.Bills, logg))
			r.Post("/{billId}/stop", controllers.BillStop(p.Bills, logg))
			r.Post("/{billId}/pay", controllers.BillPay(p.Payments, logg))
			r.Get("/{billId}/payments", controllers.BillPaymentsList(p.Payments, logg))
			r.With(middleware.RequireAdmin(logg)).Patch("/{billId}", controllers.BillEdit(p.Bills, logg))
			r.With(middleware.RequireAdmin(logg)).Delete("/{billId}", controllers.BillDelete(p.Bills, logg))
			r.With(middleware.RequireAdmin(logg)).Delete("/user/{userId}", controllers.BillsDeleteForUser(p.Bills, logg))
		})

		r.Post("/payments/{paymentId}/confirm", controllers.PaymentConfirm(p.Payments, logg))
		r.Post("/iot/signal", controllers.IoTSignal(p.IoT, logg))
		r.Post("/plants/analyze", controllers.PlantAnalyze(p.Plants, logg))
	})

	return r
}
