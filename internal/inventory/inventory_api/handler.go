package inventory_api

import (
	"fmt"
	"net/http"

	"cafe-pos/internal/inventory"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	InventoryService *inventory.InventoryService
	Logger           *logger.Logger
}

func NewHandler(svc *inventory.InventoryService, log *logger.Logger) *Handler {
	return &Handler{InventoryService: svc, Logger: log}
}

// Routes mounts inventory endpoints. Callers wrap it with staff authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.AddItem)
		r.Get("/low-stock", h.ListLowStock)

		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.AddCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)

		r.Get("/{id}", h.GetItem)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
		r.Get("/{id}/movements", h.ListMovements)
		r.Post("/{id}/movements", h.RecordMovement)
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.InventoryService.GetAll(r.Context())
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d items", len(items)), items)
}

func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items := h.InventoryService.GetLowStock(r.Context())
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d items low on stock", len(items)), items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.InventoryService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", item)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in inventory.ItemInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	item, err := h.InventoryService.Add(r.Context(), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Item added", item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var in inventory.ItemInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	item, err := h.InventoryService.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Item updated", item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.InventoryService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Item deleted", nil)
}

func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req models.MovementRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	mv, err := h.InventoryService.RecordMovement(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, fmt.Sprintf("Stock now %d", mv.StockAfter), mv)
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements := h.InventoryService.ListMovements(r.Context(), chi.URLParam(r, "id"), utils.QueryInt(r, "limit", 100))
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d movements", len(movements)), movements)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.InventoryService.GetAllCategories(r.Context())
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d categories", len(categories)), categories)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var in inventory.CategoryInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	category, err := h.InventoryService.AddCategory(r.Context(), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Category added", category)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in inventory.CategoryInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	category, err := h.InventoryService.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category updated", category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.InventoryService.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category deleted", nil)
}
