// Package fiscal holds the business identity printed on every receipt.
package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafe-pos/internal/cache"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
)

const keyFiscalData = "fiscal_data"

type DBLayer interface {
	GetFiscalData(ctx context.Context) (*models.FiscalData, error)
	SaveFiscalData(ctx context.Context, data *models.FiscalData) error
}

type FiscalService struct {
	DB     DBLayer
	Cache  *cache.Cache
	Logger *logger.Logger
	now    func() time.Time
}

func NewFiscalService(db DBLayer, c *cache.Cache, log *logger.Logger) *FiscalService {
	return &FiscalService{DB: db, Cache: c, Logger: log, now: time.Now}
}

// Get returns the configured fiscal data, or models.ErrNotFound if none was saved yet.
func (s *FiscalService) Get(ctx context.Context) (*models.FiscalData, error) {
	return cache.Fetch(ctx, s.Cache, keyFiscalData, s.DB.GetFiscalData)
}

func (s *FiscalService) Save(ctx context.Context, data models.FiscalData) (*models.FiscalData, error) {
	data.BusinessName = strings.TrimSpace(data.BusinessName)
	data.TaxID = strings.ToUpper(strings.TrimSpace(data.TaxID))
	data.Address = strings.TrimSpace(data.Address)

	switch {
	case data.BusinessName == "":
		return nil, models.NewValidationError("businessName", "is required")
	case data.TaxID == "":
		return nil, models.NewValidationError("taxId", "is required")
	case data.Address == "":
		return nil, models.NewValidationError("address", "is required")
	}

	data.UpdatedAt = s.now().UTC()
	if err := s.DB.SaveFiscalData(ctx, &data); err != nil {
		return nil, fmt.Errorf("failed to save fiscal data: %w", err)
	}

	s.Cache.Invalidate(ctx, keyFiscalData)
	s.Logger.Info("FISCAL", fmt.Sprintf("Fiscal data saved for %s (%s)", data.BusinessName, data.TaxID))
	return &data, nil
}
