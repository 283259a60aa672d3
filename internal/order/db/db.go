package db

import (
	"context"
	"fmt"
	"time"

	"cafe-pos/internal/database"
	"cafe-pos/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	if _, err := d.Bun.NewInsert().Model(order).Exec(ctx); err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, database.Classify(err))
	}
	return nil
}

func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &order, nil
}

// TransitionStatus moves an order from one status to another in a single conditional
// update. An order in any other status yields models.ErrInvalidTransition.
func (d *DB) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		current, err := d.GetOrderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: order %s is %s, not %s", models.ErrInvalidTransition, id, current.Status, from)
	}
	return d.GetOrderByID(ctx, id)
}

// ListPending returns pending orders oldest first.
func (d *DB) ListPending(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("status = ?", models.OrderStatusPending).
		OrderExpr("created_at ASC").
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	return orders, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (d *DB) ListOrders(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	q := d.Bun.NewSelect().
		Model(&orders).
		OrderExpr("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return orders, nil
}
