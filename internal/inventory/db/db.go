package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cafe-pos/internal/database"
	"cafe-pos/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func affected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
	}
	return nil
}

// ---------------- ITEMS ----------------

func (d *DB) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	items := make([]models.InventoryItem, 0)
	if err := d.Bun.NewSelect().Model(&items).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return items, nil
}

// ListLowStock returns items at or below their minimum stock.
func (d *DB) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items := make([]models.InventoryItem, 0)
	err := d.Bun.NewSelect().
		Model(&items).
		Where("stock <= min_stock").
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	return items, nil
}

func (d *DB) GetItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := d.Bun.NewSelect().Model(&item).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return &item, nil
}

func (d *DB) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	if _, err := d.Bun.NewInsert().Model(item).Exec(ctx); err != nil {
		return database.Classify(err)
	}
	return nil
}

func (d *DB) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	res, err := d.Bun.NewUpdate().
		Model(item).
		Column("name", "category_id", "unit", "stock", "min_stock", "supplier", "unit_cost", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "inventory item", item.ID)
}

// DeleteItem removes the item and its movement history.
func (d *DB) DeleteItem(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.InventoryMovement)(nil)).Where("item_id = ?", id).Exec(ctx); err != nil {
			return database.Classify(err)
		}
		res, err := tx.NewDelete().Model((*models.InventoryItem)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return database.Classify(err)
		}
		return affected(res, "inventory item", id)
	})
}

// ---------------- MOVEMENTS ----------------

// ApplyMovement adjusts the stock of mv.ItemID and records mv in one transaction. The
// stock update is conditional, so an outgoing movement larger than the stock changes
// nothing and returns models.ErrInsufficientStock.
func (d *DB) ApplyMovement(ctx context.Context, mv *models.InventoryMovement) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*models.InventoryItem)(nil)).
			Set("updated_at = ?", mv.CreatedAt).
			Where("id = ?", mv.ItemID)

		switch mv.Type {
		case models.MovementIn:
			q = q.Set("stock = stock + ?", mv.Quantity)
		case models.MovementOut:
			q = q.Set("stock = stock - ?", mv.Quantity).Where("stock >= ?", mv.Quantity)
		case models.MovementAdjustment:
			q = q.Set("stock = ?", mv.Quantity)
		default:
			return models.NewValidationError("type", fmt.Sprintf("unknown movement type %q", mv.Type))
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return database.Classify(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			exists, err := tx.NewSelect().Model((*models.InventoryItem)(nil)).Where("id = ?", mv.ItemID).Exists(ctx)
			if err != nil {
				return database.Classify(err)
			}
			if !exists {
				return fmt.Errorf("inventory item %s: %w", mv.ItemID, models.ErrNotFound)
			}
			return fmt.Errorf("item %s: %w", mv.ItemID, models.ErrInsufficientStock)
		}

		var stock int
		err = tx.NewSelect().
			Model((*models.InventoryItem)(nil)).
			Column("stock").
			Where("id = ?", mv.ItemID).
			Scan(ctx, &stock)
		if err != nil {
			return database.Classify(err)
		}
		mv.StockAfter = stock

		if _, err := tx.NewInsert().Model(mv).Exec(ctx); err != nil {
			return database.Classify(err)
		}
		return nil
	})
}

// ListMovements returns the movements of one item, newest first.
func (d *DB) ListMovements(ctx context.Context, itemID string, limit int) ([]models.InventoryMovement, error) {
	movements := make([]models.InventoryMovement, 0)
	q := d.Bun.NewSelect().
		Model(&movements).
		Where("item_id = ?", itemID).
		OrderExpr("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return movements, nil
}

// ---------------- CATEGORIES ----------------

func (d *DB) ListCategories(ctx context.Context) ([]models.InventoryCategory, error) {
	categories := make([]models.InventoryCategory, 0)
	if err := d.Bun.NewSelect().Model(&categories).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return categories, nil
}

func (d *DB) GetCategory(ctx context.Context, id string) (*models.InventoryCategory, error) {
	var category models.InventoryCategory
	if err := d.Bun.NewSelect().Model(&category).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return &category, nil
}

func (d *DB) CategoryNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	q := d.Bun.NewSelect().
		Model((*models.InventoryCategory)(nil)).
		Where("lower(name) = lower(?)", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		return false, database.Classify(err)
	}
	return exists, nil
}

func (d *DB) CreateCategory(ctx context.Context, category *models.InventoryCategory) error {
	if _, err := d.Bun.NewInsert().Model(category).Exec(ctx); err != nil {
		return database.Classify(err)
	}
	return nil
}

func (d *DB) RenameCategory(ctx context.Context, id, name string, at time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.InventoryCategory)(nil)).
		Set("name = ?", name).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "inventory category", id)
}

func (d *DB) DeleteCategory(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().Model((*models.InventoryCategory)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "inventory category", id)
}
