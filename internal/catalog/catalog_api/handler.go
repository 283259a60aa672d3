package catalog_api

import (
	"fmt"
	"net/http"

	"cafe-pos/internal/catalog"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CatalogService *catalog.CatalogService
	Logger         *logger.Logger
}

func NewHandler(svc *catalog.CatalogService, log *logger.Logger) *Handler {
	return &Handler{CatalogService: svc, Logger: log}
}

// PublicRoutes mounts the read endpoints used by the teacher order form.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{id}", h.GetCategory)
}

// Routes mounts catalog maintenance. Callers wrap it with staff authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/products", h.AddProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)

	r.Post("/categories", h.AddCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
}

// ListProducts serves GET /products, optionally ?categoryId=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if categoryID := r.URL.Query().Get("categoryId"); categoryID != "" {
		products := h.CatalogService.GetProductsByCategory(ctx, categoryID)
		utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d products", len(products)), products)
		return
	}
	products := h.CatalogService.GetAllProducts(ctx)
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d products", len(products)), products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.CatalogService.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", product)
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	product, err := h.CatalogService.AddProduct(r.Context(), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Product added", product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	product, err := h.CatalogService.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Product updated", product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.CatalogService.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Product deleted", nil)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.CatalogService.GetAllCategories(r.Context())
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d categories", len(categories)), categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.CatalogService.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "ok", category)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	category, err := h.CatalogService.AddCategory(r.Context(), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Category added", category)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	category, err := h.CatalogService.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category updated", category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.CatalogService.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category deleted", nil)
}
