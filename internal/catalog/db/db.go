package db

import (
	"context"
	"database/sql"
	"fmt"

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

// ---------------- PRODUCTS ----------------

func (d *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := d.Bun.NewSelect().Model(&products).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return products, nil
}

func (d *DB) ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := d.Bun.NewSelect().
		Model(&products).
		Where("category_id = ?", categoryID).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	return products, nil
}

func (d *DB) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := d.Bun.NewSelect().Model(&product).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return &product, nil
}

func (d *DB) CreateProduct(ctx context.Context, product *models.Product) error {
	if _, err := d.Bun.NewInsert().Model(product).Exec(ctx); err != nil {
		return database.Classify(err)
	}
	return nil
}

func (d *DB) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := d.Bun.NewUpdate().
		Model(product).
		Column("name", "price", "category_id", "origin", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "product", product.ID)
}

func (d *DB) DeleteProduct(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().Model((*models.Product)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "product", id)
}

// ---------------- CATEGORIES ----------------

func (d *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := d.Bun.NewSelect().Model(&categories).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return categories, nil
}

func (d *DB) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := d.Bun.NewSelect().Model(&category).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return &category, nil
}

// CategoryNameTaken reports whether another category already uses name, ignoring case.
// excludeID skips the category being renamed.
func (d *DB) CategoryNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	q := d.Bun.NewSelect().
		Model((*models.Category)(nil)).
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

func (d *DB) CreateCategory(ctx context.Context, category *models.Category) error {
	if _, err := d.Bun.NewInsert().Model(category).Exec(ctx); err != nil {
		return database.Classify(err)
	}
	return nil
}

func (d *DB) UpdateCategory(ctx context.Context, category *models.Category) error {
	res, err := d.Bun.NewUpdate().
		Model(category).
		Column("name", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "category", category.ID)
}

func (d *DB) DeleteCategory(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().Model((*models.Category)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return affected(res, "category", id)
}
