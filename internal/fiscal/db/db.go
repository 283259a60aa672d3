package db

import (
	"context"

	"cafe-pos/internal/database"
	"cafe-pos/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetFiscalData(ctx context.Context) (*models.FiscalData, error) {
	var data models.FiscalData
	err := d.Bun.NewSelect().
		Model(&data).
		Where("id = ?", models.FiscalDataID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &data, nil
}

// SaveFiscalData writes the single fiscal data row, replacing any previous values.
func (d *DB) SaveFiscalData(ctx context.Context, data *models.FiscalData) error {
	data.ID = models.FiscalDataID
	_, err := d.Bun.NewInsert().
		Model(data).
		On("CONFLICT (id) DO UPDATE").
		Set("business_name = EXCLUDED.business_name").
		Set("tax_id = EXCLUDED.tax_id").
		Set("address = EXCLUDED.address").
		Set("phone = EXCLUDED.phone").
		Set("email = EXCLUDED.email").
		Set("additional_info = EXCLUDED.additional_info").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	return nil
}
