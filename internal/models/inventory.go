package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type InventoryCategory struct {
	bun.BaseModel `bun:"table:inventory_categories"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

type InventoryItem struct {
	bun.BaseModel `bun:"table:inventory"`

	ID         string          `bun:"id,pk" json:"id"`
	Name       string          `bun:"name,notnull" json:"name"`
	CategoryID string          `bun:"category_id,nullzero" json:"categoryId,omitempty"`
	Unit       string          `bun:"unit" json:"unit"`
	Stock      int             `bun:"stock,notnull" json:"stock"`
	MinStock   int             `bun:"min_stock,notnull" json:"minStock"`
	Supplier   string          `bun:"supplier,nullzero" json:"supplier,omitempty"`
	UnitCost   decimal.Decimal `bun:"unit_cost,type:numeric(10,2)" json:"unitCost"`
	CreatedAt  time.Time       `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull" json:"updatedAt"`
}

// LowStock reports whether the item is at or below its minimum threshold.
func (i InventoryItem) LowStock() bool {
	return i.Stock <= i.MinStock
}

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

type InventoryMovement struct {
	bun.BaseModel `bun:"table:inventory_movements"`

	ID         string       `bun:"id,pk" json:"id"`
	ItemID     string       `bun:"item_id,notnull" json:"itemId"`
	Type       MovementType `bun:"type,notnull" json:"type"`
	Quantity   int          `bun:"quantity,notnull" json:"quantity"`
	StockAfter int          `bun:"stock_after,notnull" json:"stockAfter"`
	Reason     string       `bun:"reason,nullzero" json:"reason,omitempty"`
	UserID     string       `bun:"user_id,nullzero" json:"userId,omitempty"`
	CreatedAt  time.Time    `bun:"created_at,notnull" json:"createdAt"`
}

type MovementRequest struct {
	Type     MovementType `json:"type"`
	Quantity int          `json:"quantity"`
	Reason   string       `json:"reason,omitempty"`
}
