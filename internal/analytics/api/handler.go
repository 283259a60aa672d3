package analytics_api

import (
	"net/http"
	"time"

	"cafe-pos/internal/analytics"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
	now     func() time.Time
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger, now: time.Now}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/sales", h.GetSalesReport)
		r.Get("/products", h.GetTopProducts)
	})
}

// GetSalesReport serves GET /analytics/sales?from=YYYY-MM-DD&to=YYYY-MM-DD (default: last 7 days).
func (h *Handler) GetSalesReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := utils.ParseDateRange(r, 7, h.now().In(h.Service.Location))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	report, err := h.Service.GetSalesReport(r.Context(), from, to)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", report)
}

// GetTopProducts serves GET /analytics/products?from=&to=&limit=10 (default: last 30 days).
func (h *Handler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, err := utils.ParseDateRange(r, 30, h.now().In(h.Service.Location))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	products, err := h.Service.TopProducts(r.Context(), from, to, utils.QueryInt(r, "limit", 10))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", products)
}
