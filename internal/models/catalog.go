package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID         string          `bun:"id,pk" json:"id"`
	Name       string          `bun:"name,notnull" json:"name"`
	Price      decimal.Decimal `bun:"price,type:numeric(10,2)" json:"price"`
	CategoryID string          `bun:"category_id,notnull" json:"categoryId"`
	Origin     string          `bun:"origin,nullzero" json:"origin,omitempty"`
	CreatedAt  time.Time       `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull" json:"updatedAt"`
}
