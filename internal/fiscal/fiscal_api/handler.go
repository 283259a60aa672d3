package fiscal_api

import (
	"net/http"

	"cafe-pos/internal/fiscal"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	FiscalService *fiscal.FiscalService
	Logger        *logger.Logger
}

func NewHandler(svc *fiscal.FiscalService, log *logger.Logger) *Handler {
	return &Handler{FiscalService: svc, Logger: log}
}

// Routes mounts the staff read endpoint.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/fiscal-data", h.GetFiscalData)
}

// AdminRoutes mounts the write endpoint.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Put("/fiscal-data", h.SaveFiscalData)
}

func (h *Handler) GetFiscalData(w http.ResponseWriter, r *http.Request) {
	data, err := h.FiscalService.Get(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", data)
}

func (h *Handler) SaveFiscalData(w http.ResponseWriter, r *http.Request) {
	var in models.FiscalData
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	saved, err := h.FiscalService.Save(r.Context(), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Fiscal data saved", saved)
}
