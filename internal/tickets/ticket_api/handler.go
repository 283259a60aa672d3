package ticket_api

import (
	"fmt"
	"net/http"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/tickets/receipt"
	tickets "cafe-pos/internal/tickets/service"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TicketService *tickets.TicketService
	Counter       *tickets.Counter
	QRGenerator   *receipt.QRGenerator
	Logger        *logger.Logger
	// Location decides where a day starts for date filters
	Location *time.Location
	// ExportLimit caps the tickets in one workbook; larger ranges are refused
	ExportLimit int
	now         func() time.Time
}

func NewHandler(ticketService *tickets.TicketService, counter *tickets.Counter, qr *receipt.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{
		TicketService: ticketService,
		Counter:       counter,
		QRGenerator:   qr,
		Logger:        log,
		Location:      time.Local,
		ExportLimit:   defaultExportLimit,
		now:           time.Now,
	}
}

func (h *Handler) today() time.Time {
	if h.Location == nil {
		return h.now()
	}
	return h.now().In(h.Location)
}

// Routes mounts ticket endpoints. Callers wrap it with staff authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/tickets", h.CreateTicket)
	r.Get("/tickets", h.ListTickets)
	r.Get("/tickets/count", h.GetTotalTicketsCount)
	r.Get("/tickets/export", h.ExportTickets)
	r.Get("/tickets/{id}", h.GetTicket)
	r.Get("/tickets/{id}/qr", h.GetTicketQR)
	r.Delete("/tickets/{id}", h.DeleteTicket)

	r.Get("/counter", h.GetCounter)
	r.Post("/counter/initialize", h.InitializeCounter)
}

// AdminRoutes mounts the destructive counter rebase.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/counter/reset", h.ResetCounter)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req models.SaleRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	ticket, err := h.TicketService.CreateTicket(r.Context(), req)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, fmt.Sprintf("Ticket #%d created", ticket.TicketNumber), ticket)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", ticket)
}

// ListTickets serves GET /tickets?from=YYYY-MM-DD&to=YYYY-MM-DD&limit=N (default: today).
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	from, to, err := utils.ParseDateRange(r, 1, h.today())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	list, err := h.TicketService.ListTickets(r.Context(), from, to, utils.QueryInt(r, "limit", 0))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", list)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.TicketService.DeleteTicket(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.GetTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	png, err := h.QRGenerator.PNG(*ticket)
	if err != nil {
		h.Logger.Error("TICKET", fmt.Sprintf("Failed to render QR for ticket %s: %v", ticket.ID, err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to render receipt code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(png)
}

// TicketCountResponse is the response format for the GetTotalTicketsCount endpoint
type TicketCountResponse struct {
	TotalCount int `json:"total_count"`
}

func (h *Handler) GetTotalTicketsCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.TicketService.GetTotalTicketsCount(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, TicketCountResponse{TotalCount: count})
}
