package inventory_test

import (
	"context"
	"sync"
	"testing"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/cache"
	"cafe-pos/internal/database"
	"cafe-pos/internal/inventory"
	"cafe-pos/internal/inventory/db"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) *inventory.InventoryService {
	bunDB, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	log := logger.NewNopLogger()
	return inventory.NewInventoryService(&db.DB{Bun: bunDB}, cache.New(cache.NewLocal(0), log, 0), log)
}

func milk() inventory.ItemInput {
	return inventory.ItemInput{Name: "Leche", Unit: "l", Stock: 10, MinStock: 4, UnitCost: decimal.RequireFromString("0.95")}
}

func TestItemValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	for field, in := range map[string]inventory.ItemInput{
		"name":     {Name: " "},
		"stock":    {Name: "Café", Stock: -1},
		"minStock": {Name: "Café", MinStock: -2},
		"unitCost": {Name: "Café", UnitCost: decimal.NewFromInt(-1)},
	} {
		_, err := svc.Add(ctx, in)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestMovements_AdjustStockAndRefreshCache(t *testing.T) {
	svc := setupService(t)
	ctx := auth.WithUser(context.Background(), auth.User{ID: "u1", Name: "Marta", Role: auth.RoleCashier})

	item, err := svc.Add(ctx, milk())
	require.NoError(t, err)

	cached, err := svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, cached.Stock)
	assert.Empty(t, svc.GetLowStock(ctx))

	mv, err := svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementOut, Quantity: 7, Reason: "cafés de la mañana"})
	require.NoError(t, err)
	assert.Equal(t, 3, mv.StockAfter)
	assert.Equal(t, "u1", mv.UserID)

	cached, err = svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cached.Stock)

	low := svc.GetLowStock(ctx)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)

	mv, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementIn, Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, 15, mv.StockAfter)

	mv, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementAdjustment, Quantity: 9, Reason: "recuento"})
	require.NoError(t, err)
	assert.Equal(t, 9, mv.StockAfter)

	movements := svc.ListMovements(ctx, item.ID, 0)
	require.Len(t, movements, 3)
	assert.Equal(t, 9, movements[0].StockAfter)
}

func TestMovements_NeverNegative(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	item, err := svc.Add(ctx, milk())
	require.NoError(t, err)

	_, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementOut, Quantity: 11})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	got, err := svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	assert.Empty(t, svc.ListMovements(ctx, item.ID, 0))

	_, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementAdjustment, Quantity: -1})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementIn, Quantity: 0})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: "theft", Quantity: 1})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.RecordMovement(ctx, "missing", models.MovementRequest{Type: models.MovementIn, Quantity: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMovements_ConcurrentOutflowsStopAtZero(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	item, err := svc.Add(ctx, milk())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementOut, Quantity: 1}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	got, err := svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	item, err := svc.Add(ctx, milk())
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, item.ID, models.MovementRequest{Type: models.MovementIn, Quantity: 1})
	require.NoError(t, err)

	in := milk()
	in.Supplier = "Lácteos Norte"
	in.MinStock = 20
	updated, err := svc.Update(ctx, item.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Lácteos Norte", updated.Supplier)
	assert.Len(t, svc.GetLowStock(ctx), 1)

	require.NoError(t, svc.Delete(ctx, item.ID))
	assert.Empty(t, svc.GetAll(ctx))
	assert.Empty(t, svc.ListMovements(ctx, item.ID, 0))
	assert.ErrorIs(t, svc.Delete(ctx, item.ID), models.ErrNotFound)
}

func TestInventoryCategories(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	dairy, err := svc.AddCategory(ctx, inventory.CategoryInput{Name: "Lácteos"})
	require.NoError(t, err)
	_, err = svc.AddCategory(ctx, inventory.CategoryInput{Name: "Envases"})
	require.NoError(t, err)

	all := svc.GetAllCategories(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "Envases", all[0].Name)

	_, err = svc.AddCategory(ctx, inventory.CategoryInput{Name: "envases"})
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	renamed, err := svc.UpdateCategory(ctx, dairy.ID, inventory.CategoryInput{Name: "Lácteos y huevos"})
	require.NoError(t, err)
	assert.Equal(t, "Lácteos y huevos", renamed.Name)

	require.NoError(t, svc.DeleteCategory(ctx, dairy.ID))
	assert.Len(t, svc.GetAllCategories(ctx), 1)
	_, err = svc.UpdateCategory(ctx, dairy.ID, inventory.CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
