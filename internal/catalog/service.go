// Package catalog serves the products and categories shown on the cashier terminal,
// read through the shared cache.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafe-pos/internal/cache"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	keyAllProducts   = "all_products"
	keyAllCategories = "all_categories"
)

func productKey(id string) string            { return "product_" + id }
func productsByCategoryKey(id string) string { return "products_by_category_" + id }
func categoryKey(id string) string           { return "category_" + id }

type DBLayer interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	CategoryNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// ProductInput is the writable part of a product.
type ProductInput struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID string          `json:"categoryId"`
	Origin     string          `json:"origin,omitempty"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

type CatalogService struct {
	DB     DBLayer
	Cache  *cache.Cache
	Logger *logger.Logger
	now    func() time.Time
}

func NewCatalogService(db DBLayer, c *cache.Cache, log *logger.Logger) *CatalogService {
	return &CatalogService{DB: db, Cache: c, Logger: log, now: time.Now}
}

// ---------------- PRODUCTS ----------------

// GetAllProducts returns every product by name. On a backend failure it logs and returns an
// empty list.
func (s *CatalogService) GetAllProducts(ctx context.Context) []models.Product {
	products, err := cache.Fetch(ctx, s.Cache, keyAllProducts, s.DB.ListProducts)
	if err != nil {
		s.Logger.Error("CATALOG", fmt.Sprintf("Failed to load products: %v", err))
		return []models.Product{}
	}
	return products
}

func (s *CatalogService) GetProductsByCategory(ctx context.Context, categoryID string) []models.Product {
	products, err := cache.Fetch(ctx, s.Cache, productsByCategoryKey(categoryID), func(ctx context.Context) ([]models.Product, error) {
		return s.DB.ListProductsByCategory(ctx, categoryID)
	})
	if err != nil {
		s.Logger.Error("CATALOG", fmt.Sprintf("Failed to load products of category %s: %v", categoryID, err))
		return []models.Product{}
	}
	return products
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return cache.Fetch(ctx, s.Cache, productKey(id), func(ctx context.Context) (*models.Product, error) {
		return s.DB.GetProduct(ctx, id)
	})
}

func (s *CatalogService) validateProduct(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return models.NewValidationError("name", "is required")
	}
	if in.Price.IsNegative() {
		return models.NewValidationError("price", "must not be negative")
	}
	if in.CategoryID == "" {
		return models.NewValidationError("categoryId", "is required")
	}
	if _, err := s.GetCategory(ctx, in.CategoryID); err != nil {
		return models.NewValidationError("categoryId", "unknown category")
	}
	return nil
}

func (s *CatalogService) AddProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.validateProduct(ctx, in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &models.Product{
		ID:         utils.NewID(),
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price.Round(2),
		CategoryID: in.CategoryID,
		Origin:     strings.TrimSpace(in.Origin),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.DB.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to add product: %w", err)
	}

	s.invalidateProduct(ctx, product.ID)
	s.Logger.Info("CATALOG", fmt.Sprintf("Product %s added (%s)", product.Name, product.ID))
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	if err := s.validateProduct(ctx, in); err != nil {
		return nil, err
	}

	current, err := s.DB.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	current.Name = strings.TrimSpace(in.Name)
	current.Price = in.Price.Round(2)
	current.CategoryID = in.CategoryID
	current.Origin = strings.TrimSpace(in.Origin)
	current.UpdatedAt = s.now().UTC()

	if err := s.DB.UpdateProduct(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidateProduct(ctx, id)
	return current, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.DB.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.invalidateProduct(ctx, id)
	s.Logger.Info("CATALOG", fmt.Sprintf("Product %s deleted", id))
	return nil
}

func (s *CatalogService) invalidateProduct(ctx context.Context, id string) {
	s.Cache.Invalidate(ctx, keyAllProducts, productKey(id))
	s.Cache.InvalidatePattern(ctx, "^products_by_category_")
}

// ---------------- CATEGORIES ----------------

func (s *CatalogService) GetAllCategories(ctx context.Context) []models.Category {
	categories, err := cache.Fetch(ctx, s.Cache, keyAllCategories, s.DB.ListCategories)
	if err != nil {
		s.Logger.Error("CATALOG", fmt.Sprintf("Failed to load categories: %v", err))
		return []models.Category{}
	}
	return categories
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return cache.Fetch(ctx, s.Cache, categoryKey(id), func(ctx context.Context) (*models.Category, error) {
		return s.DB.GetCategory(ctx, id)
	})
}

// checkCategoryName rejects empty names and names already in use, ignoring case. Two
// concurrent writers can both pass this check before either inserts.
func (s *CatalogService) checkCategoryName(ctx context.Context, name, excludeID string) error {
	if name == "" {
		return models.NewValidationError("name", "is required")
	}
	taken, err := s.DB.CategoryNameTaken(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return fmt.Errorf("category %q: %w", name, models.ErrDuplicateName)
	}
	return nil
}

func (s *CatalogService) AddCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.checkCategoryName(ctx, name, ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	category := &models.Category{ID: utils.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.DB.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to add category: %w", err)
	}

	s.Cache.Invalidate(ctx, keyAllCategories, categoryKey(category.ID))
	s.Logger.Info("CATALOG", fmt.Sprintf("Category %s added (%s)", category.Name, category.ID))
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.checkCategoryName(ctx, name, id); err != nil {
		return nil, err
	}

	current, err := s.DB.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	current.Name = name
	current.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateCategory(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.Cache.Invalidate(ctx, keyAllCategories, categoryKey(id))
	return current, nil
}

// DeleteCategory removes the category. Its products keep the dangling category id, so
// product keys are dropped too.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.DB.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.Cache.Invalidate(ctx, keyAllCategories, categoryKey(id), keyAllProducts, productsByCategoryKey(id))
	s.Cache.InvalidatePattern(ctx, "^product_")
	s.Logger.Info("CATALOG", fmt.Sprintf("Category %s deleted", id))
	return nil
}
