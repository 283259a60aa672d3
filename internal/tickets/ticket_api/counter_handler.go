package ticket_api

import (
	"net/http"

	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"
)

type counterRequest struct {
	StartFrom int64 `json:"startFrom"`
	Confirm   bool  `json:"confirm"`
}

type counterResponse struct {
	TicketNumber int64 `json:"ticketNumber"`
}

func (h *Handler) GetCounter(w http.ResponseWriter, r *http.Request) {
	n, err := h.Counter.Current(r.Context())
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, counterResponse{TicketNumber: n})
}

// InitializeCounter creates the counter if missing; an existing counter is left alone.
func (h *Handler) InitializeCounter(w http.ResponseWriter, r *http.Request) {
	var req counterRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.WriteServiceError(w, err)
			return
		}
	}
	if err := h.Counter.Initialize(r.Context(), req.StartFrom); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	h.GetCounter(w, r)
}

// ResetCounter rebases the sequence. The body must carry "confirm": true.
func (h *Handler) ResetCounter(w http.ResponseWriter, r *http.Request) {
	var req counterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	if !req.Confirm {
		utils.WriteServiceError(w, models.NewValidationError("confirm", "resetting the counter can reuse ticket numbers; send confirm=true"))
		return
	}
	if err := h.Counter.Reset(r.Context(), req.StartFrom); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	h.GetCounter(w, r)
}
