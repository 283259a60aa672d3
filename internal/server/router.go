package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	analytics_api "cafe-pos/internal/analytics/api"
	"cafe-pos/internal/auth"
	"cafe-pos/internal/cache"
	"cafe-pos/internal/catalog/catalog_api"
	"cafe-pos/internal/config"
	"cafe-pos/internal/fiscal/fiscal_api"
	"cafe-pos/internal/inventory/inventory_api"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/order/order_api"
	"cafe-pos/internal/tickets/ticket_api"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the API handlers mounted under /api.
type Handlers struct {
	Tickets   *ticket_api.Handler
	Orders    *order_api.Handler
	Catalog   *catalog_api.Handler
	Inventory *inventory_api.Handler
	Fiscal    *fiscal_api.Handler
	Analytics *analytics_api.Handler
	Cache     *cache.Cache
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter builds the HTTP surface: public teacher and menu routes, staff routes behind a
// verified token with the cashier or admin role, and admin-only routes.
func NewRouter(cfg config.ServerConfig, verifier auth.Verifier, h Handlers, checks map[string]HealthCheck, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	var submitLimit func(http.Handler) http.Handler
	if cfg.OrderRateLimit > 0 {
		submitLimit = httprate.LimitByIP(cfg.OrderRateLimit, time.Minute)
	}

	r.Route("/api", func(r chi.Router) {
		h.Catalog.PublicRoutes(r)
		h.Orders.PublicRoutes(r, submitLimit)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, log))
			r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleCashier))

			h.Orders.Routes(r)
			h.Tickets.Routes(r)
			h.Catalog.Routes(r)
			h.Inventory.Routes(r)
			h.Fiscal.Routes(r)
			h.Analytics.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				h.Tickets.AdminRoutes(r)
				h.Fiscal.AdminRoutes(r)
				r.Post("/cache/flush", flushCacheHandler(h.Cache, log))
			})
		})
	})

	log.Info("ROUTER", "Routes registered under /api")
	return r
}

func flushCacheHandler(c *cache.Cache, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.Clear(r.Context()); err != nil {
			log.Error("CACHE", err.Error())
			utils.WriteError(w, http.StatusInternalServerError, "failed to flush cache")
			return
		}
		if u, ok := auth.UserFromContext(r.Context()); ok {
			log.LogSecurity("cache-flush", fmt.Sprintf("cache flushed by %s", u.ID))
		}
		utils.WriteSuccess(w, http.StatusOK, "Cache flushed", nil)
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		utils.WriteJSON(w, status, resp)
	}
}
