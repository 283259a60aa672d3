// Package inventory tracks café supplies, their stock movements and low-stock alerts.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/cache"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	keyAllItems      = "all_inventory"
	keyLowStock      = "inventory_low_stock"
	keyAllCategories = "all_inventory_categories"
)

func itemKey(id string) string     { return "inventory_" + id }
func categoryKey(id string) string { return "inventory_category_" + id }

type DBLayer interface {
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*models.InventoryItem, error)
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, id string) error

	ApplyMovement(ctx context.Context, mv *models.InventoryMovement) error
	ListMovements(ctx context.Context, itemID string, limit int) ([]models.InventoryMovement, error)

	ListCategories(ctx context.Context) ([]models.InventoryCategory, error)
	GetCategory(ctx context.Context, id string) (*models.InventoryCategory, error)
	CategoryNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	CreateCategory(ctx context.Context, category *models.InventoryCategory) error
	RenameCategory(ctx context.Context, id, name string, at time.Time) error
	DeleteCategory(ctx context.Context, id string) error
}

type ItemInput struct {
	Name       string          `json:"name"`
	CategoryID string          `json:"categoryId,omitempty"`
	Unit       string          `json:"unit"`
	Stock      int             `json:"stock"`
	MinStock   int             `json:"minStock"`
	Supplier   string          `json:"supplier,omitempty"`
	UnitCost   decimal.Decimal `json:"unitCost"`
}

type CategoryInput struct {
	Name string `json:"name"`
}

type InventoryService struct {
	DB     DBLayer
	Cache  *cache.Cache
	Logger *logger.Logger
	now    func() time.Time
}

func NewInventoryService(db DBLayer, c *cache.Cache, log *logger.Logger) *InventoryService {
	return &InventoryService{DB: db, Cache: c, Logger: log, now: time.Now}
}

// ---------------- ITEMS ----------------

func (s *InventoryService) GetAll(ctx context.Context) []models.InventoryItem {
	items, err := cache.Fetch(ctx, s.Cache, keyAllItems, s.DB.ListItems)
	if err != nil {
		s.Logger.Error("INVENTORY", fmt.Sprintf("Failed to load inventory: %v", err))
		return []models.InventoryItem{}
	}
	return items
}

// GetLowStock returns the items whose stock is at or below their minimum.
func (s *InventoryService) GetLowStock(ctx context.Context) []models.InventoryItem {
	items, err := cache.Fetch(ctx, s.Cache, keyLowStock, s.DB.ListLowStock)
	if err != nil {
		s.Logger.Error("INVENTORY", fmt.Sprintf("Failed to load low stock items: %v", err))
		return []models.InventoryItem{}
	}
	return items
}

func (s *InventoryService) GetByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	return cache.Fetch(ctx, s.Cache, itemKey(id), func(ctx context.Context) (*models.InventoryItem, error) {
		return s.DB.GetItem(ctx, id)
	})
}

func validateItem(in ItemInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return models.NewValidationError("name", "is required")
	case in.Stock < 0:
		return models.NewValidationError("stock", "must not be negative")
	case in.MinStock < 0:
		return models.NewValidationError("minStock", "must not be negative")
	case in.UnitCost.IsNegative():
		return models.NewValidationError("unitCost", "must not be negative")
	}
	return nil
}

func (s *InventoryService) Add(ctx context.Context, in ItemInput) (*models.InventoryItem, error) {
	if err := validateItem(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.InventoryItem{ID: utils.NewID(), CreatedAt: now}
	applyInput(item, in, now)
	if err := s.DB.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add inventory item: %w", err)
	}

	s.invalidateItem(ctx, item.ID)
	s.Logger.Info("INVENTORY", fmt.Sprintf("Item %s added with stock %d", item.Name, item.Stock))
	return item, nil
}

func (s *InventoryService) Update(ctx context.Context, id string, in ItemInput) (*models.InventoryItem, error) {
	if err := validateItem(in); err != nil {
		return nil, err
	}

	item, err := s.DB.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	applyInput(item, in, s.now().UTC())
	if err := s.DB.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}

	s.invalidateItem(ctx, id)
	return item, nil
}

func applyInput(item *models.InventoryItem, in ItemInput, now time.Time) {
	item.Name = strings.TrimSpace(in.Name)
	item.CategoryID = in.CategoryID
	item.Unit = strings.TrimSpace(in.Unit)
	item.Stock = in.Stock
	item.MinStock = in.MinStock
	item.Supplier = strings.TrimSpace(in.Supplier)
	item.UnitCost = in.UnitCost.Round(2)
	item.UpdatedAt = now
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if err := s.DB.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	s.invalidateItem(ctx, id)
	return nil
}

func (s *InventoryService) invalidateItem(ctx context.Context, id string) {
	s.Cache.Invalidate(ctx, keyAllItems, itemKey(id), keyLowStock)
}

// ---------------- MOVEMENTS ----------------

// RecordMovement changes stock. "in" adds quantity, "out" subtracts it and "adjustment"
// sets the counted stock. Stock never goes negative.
func (s *InventoryService) RecordMovement(ctx context.Context, itemID string, req models.MovementRequest) (*models.InventoryMovement, error) {
	switch req.Type {
	case models.MovementIn, models.MovementOut:
		if req.Quantity <= 0 {
			return nil, models.NewValidationError("quantity", "must be greater than zero")
		}
	case models.MovementAdjustment:
		if req.Quantity < 0 {
			return nil, models.NewValidationError("quantity", "must not be negative")
		}
	default:
		return nil, models.NewValidationError("type", "must be in, out or adjustment")
	}

	mv := &models.InventoryMovement{
		ID:        utils.NewID(),
		ItemID:    itemID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reason:    strings.TrimSpace(req.Reason),
		UserID:    auth.UserID(ctx),
		CreatedAt: s.now().UTC(),
	}
	if err := s.DB.ApplyMovement(ctx, mv); err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	s.invalidateItem(ctx, itemID)
	s.Logger.Info("INVENTORY", fmt.Sprintf("Movement %s %d on %s, stock now %d", mv.Type, mv.Quantity, itemID, mv.StockAfter))
	return mv, nil
}

func (s *InventoryService) ListMovements(ctx context.Context, itemID string, limit int) []models.InventoryMovement {
	if limit <= 0 {
		limit = 100
	}
	movements, err := s.DB.ListMovements(ctx, itemID, limit)
	if err != nil {
		s.Logger.Error("INVENTORY", fmt.Sprintf("Failed to load movements for %s: %v", itemID, err))
		return []models.InventoryMovement{}
	}
	return movements
}

// ---------------- CATEGORIES ----------------

func (s *InventoryService) GetAllCategories(ctx context.Context) []models.InventoryCategory {
	categories, err := cache.Fetch(ctx, s.Cache, keyAllCategories, s.DB.ListCategories)
	if err != nil {
		s.Logger.Error("INVENTORY", fmt.Sprintf("Failed to load inventory categories: %v", err))
		return []models.InventoryCategory{}
	}
	return categories
}

func (s *InventoryService) GetCategory(ctx context.Context, id string) (*models.InventoryCategory, error) {
	return cache.Fetch(ctx, s.Cache, categoryKey(id), func(ctx context.Context) (*models.InventoryCategory, error) {
		return s.DB.GetCategory(ctx, id)
	})
}

func (s *InventoryService) checkCategoryName(ctx context.Context, name, excludeID string) error {
	if name == "" {
		return models.NewValidationError("name", "is required")
	}
	taken, err := s.DB.CategoryNameTaken(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check inventory category name: %w", err)
	}
	if taken {
		return fmt.Errorf("inventory category %q: %w", name, models.ErrDuplicateName)
	}
	return nil
}

func (s *InventoryService) AddCategory(ctx context.Context, in CategoryInput) (*models.InventoryCategory, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.checkCategoryName(ctx, name, ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	category := &models.InventoryCategory{ID: utils.NewID(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.DB.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to add inventory category: %w", err)
	}
	s.Cache.Invalidate(ctx, keyAllCategories)
	return category, nil
}

func (s *InventoryService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.InventoryCategory, error) {
	name := strings.TrimSpace(in.Name)
	if err := s.checkCategoryName(ctx, name, id); err != nil {
		return nil, err
	}
	if err := s.DB.RenameCategory(ctx, id, name, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to update inventory category: %w", err)
	}
	s.Cache.Invalidate(ctx, keyAllCategories, categoryKey(id))
	return s.GetCategory(ctx, id)
}

func (s *InventoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.DB.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete inventory category: %w", err)
	}
	s.Cache.Invalidate(ctx, keyAllCategories, categoryKey(id))
	return nil
}
