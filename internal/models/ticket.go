package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// TicketItem is a product snapshot plus quantity on a sales receipt.
type TicketItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal returns price × quantity.
func (i TicketItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Ticket is an immutable sales receipt.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string          `bun:"id,pk" json:"id"`
	TicketNumber int64           `bun:"ticket_number,notnull" json:"ticketNumber"`
	Date         time.Time       `bun:"date,notnull" json:"date"`
	Items        []TicketItem    `bun:"items" json:"items"`
	Total        decimal.Decimal `bun:"total,type:numeric(10,2)" json:"total"`
	UserID       string          `bun:"user_id,nullzero" json:"userId,omitempty"`
	UserName     string          `bun:"user_name,nullzero" json:"userName,omitempty"`
	FiscalData   *FiscalSnapshot `bun:"fiscal_data" json:"fiscalData,omitempty"`
}

// SaleRequest is what the cashier terminal submits when completing a sale.
type SaleRequest struct {
	Items []TicketItem `json:"items"`
}

// TicketCounter is the single persisted sequence used for ticket numbers.
type TicketCounter struct {
	bun.BaseModel `bun:"table:ticket_counters"`

	ID           string    `bun:"id,pk"`
	TicketNumber int64     `bun:"ticket_number,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}

const TicketCounterID = "ticketCounter"
