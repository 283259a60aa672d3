package order_api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/notifier"
	"cafe-pos/internal/order"
	"cafe-pos/internal/sse"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Board        *notifier.Board
	Logger       *logger.Logger
	Heartbeat    time.Duration
}

func NewHandler(orderService *order.OrderService, board *notifier.Board, log *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Board:        board,
		Logger:       log,
		Heartbeat:    15 * time.Second,
	}
}

// PublicRoutes mounts the teacher-facing endpoints. submitLimit, if set, wraps order submission.
func (h *Handler) PublicRoutes(r chi.Router, submitLimit func(http.Handler) http.Handler) {
	if submitLimit != nil {
		r.With(submitLimit).Post("/orders", h.SubmitOrder)
	} else {
		r.Post("/orders", h.SubmitOrder)
	}
	r.Get("/orders/{id}", h.GetOrder)
}

// Routes mounts the cashier endpoints. Callers wrap it with staff authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/pending", h.ListPending)
	r.Get("/orders/pending/stream", h.StreamPending)
	r.Post("/orders/{id}/accept", h.AcceptOrder)
	r.Post("/orders/{id}/reject", h.RejectOrder)
}

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, err)
		return
	}

	created, err := h.OrderService.Submit(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("SubmitOrder: %v", err))
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Order received", created)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	found, err := h.OrderService.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", found)
}

// ListOrders serves GET /orders?status=pending&limit=N.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(strings.ToLower(r.URL.Query().Get("status")))
	switch status {
	case "", models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusCancelled, models.OrderStatusDelivered:
	default:
		utils.WriteServiceError(w, models.NewValidationError("status", "unknown order status"))
		return
	}

	orders, err := h.OrderService.ListOrders(r.Context(), status, utils.QueryInt(r, "limit", 100))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d orders", len(orders)), orders)
}

// ListPending returns the board's view, which already reflects local accept/reject.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	orders := h.Board.Pending()
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d pending orders", len(orders)), orders)
}

func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Board.Accept, "accepted")
}

func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Board.Reject, "rejected")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action func(context.Context, string) (*models.Order, error), verb string) {
	id := chi.URLParam(r, "id")
	updated, err := action(r.Context(), id)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("Order %s not %s: %v", id, verb, err))
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("Order %s", verb), updated)
}

// StreamPending pushes the pending board to a cashier terminal over Server-Sent Events.
func (h *Handler) StreamPending(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		utils.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sse.SetupHeaders(w)
	events, current := h.Board.Subscribe(ctx)

	if err := sse.WriteEvent(w, sse.Event{Name: notifier.EventPending, Data: current}); err != nil {
		return
	}
	h.Logger.Info("SSE", fmt.Sprintf("Cashier terminal connected (%d connected)", h.Board.ClientCount()))

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sse.WriteEvent(w, ev); err != nil {
				h.Logger.Debug("SSE", fmt.Sprintf("Write failed, dropping terminal: %v", err))
				return
			}
		case <-heartbeat.C:
			if err := sse.WriteComment(w, "ping"); err != nil {
				return
			}
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Cashier terminal disconnected")
			return
		}
	}
}
