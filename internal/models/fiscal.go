package models

import (
	"time"

	"github.com/uptrace/bun"
)

const FiscalDataID = "fiscalData"

// FiscalData holds the business identity printed on receipts.
type FiscalData struct {
	bun.BaseModel `bun:"table:fiscal_data"`

	ID             string    `bun:"id,pk" json:"-"`
	BusinessName   string    `bun:"business_name,notnull" json:"businessName"`
	TaxID          string    `bun:"tax_id,notnull" json:"taxId"`
	Address        string    `bun:"address,notnull" json:"address"`
	Phone          string    `bun:"phone" json:"phone"`
	Email          string    `bun:"email,nullzero" json:"email,omitempty"`
	AdditionalInfo string    `bun:"additional_info,nullzero" json:"additionalInfo,omitempty"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero" json:"updatedAt"`
}

// FiscalSnapshot is the copy stored on each ticket so later edits never rewrite history.
type FiscalSnapshot struct {
	BusinessName   string `json:"businessName"`
	TaxID          string `json:"taxId"`
	Address        string `json:"address"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

func (f FiscalData) Snapshot() *FiscalSnapshot {
	return &FiscalSnapshot{
		BusinessName:   f.BusinessName,
		TaxID:          f.TaxID,
		Address:        f.Address,
		Phone:          f.Phone,
		Email:          f.Email,
		AdditionalInfo: f.AdditionalInfo,
	}
}
