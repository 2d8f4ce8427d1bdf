package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/controllers"
	"github.com/thanmawoo39-creator/agart-pos-sub003/api/middleware"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/alerts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/creditledger"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/sales"
	"github.com/thanmawoo39-creator/agart-pos-sub003/internal/shifts"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/config"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/enums"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	pkgredis "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/redis"
)

// NewRouter assembles the till API surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP pkgredis.Pinger,
	idemStore pkgredis.IdempotencyStore,
	registry *prometheus.Registry,
	shiftsService shifts.Service,
	salesService sales.Service,
	ledgerService creditledger.Service,
	alertsService alerts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", controllers.OpenShift(shiftsService, logg))
			r.Get("/current", controllers.CurrentShift(shiftsService, logg))
			r.Post("/{shiftId}/close", controllers.CloseShift(shiftsService, logg))
			r.With(managerOnly(logg)).Get("/", controllers.ShiftHistory(shiftsService, logg))
		})

		r.Post("/sales/attribute", controllers.AttributeSale(salesService, logg))

		r.Route("/customers/{customerId}", func(r chi.Router) {
			r.Post("/repayments", controllers.CustomerRepayment(ledgerService, logg))
			r.Get("/ledger", controllers.CustomerLedger(ledgerService, logg))
			r.With(managerOnly(logg)).Post("/ledger/verify", controllers.VerifyCustomerLedger(ledgerService, logg))
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Use(managerOnly(logg))
			r.Get("/", controllers.ListAlerts(alertsService, logg))
			r.Post("/{alertId}/read", controllers.MarkAlertRead(alertsService, logg))
			r.Post("/read-all", controllers.MarkAllAlertsRead(alertsService, logg))
		})
	})

	return r
}

func managerOnly(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, string(enums.StaffRoleManager), string(enums.StaffRoleAdmin))
}
