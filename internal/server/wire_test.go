package server_test

import (
	"context"
	"testing"
	"time"

	"cafe-pos/internal/cache"
	"cafe-pos/internal/database"
	"cafe-pos/internal/kafka"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/order/feed"
	"cafe-pos/internal/server"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func wireApp(t *testing.T) (*server.App, *bun.DB) {
	bunDB, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	log := logger.NewNopLogger()
	app, err := server.Wire(server.Deps{
		DB:     bunDB,
		Cache:  cache.New(cache.NewLocal(time.Minute), log, time.Minute),
		Feed:   feed.NewLocal(),
		Events: kafka.NopPublisher{},
		Config: testConfig(),
		Logger: log,
	})
	require.NoError(t, err)
	return app, bunDB
}

func todayUTC() (time.Time, time.Time) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

func TestSalesReport_CountsEveryTicketInRange(t *testing.T) {
	app, _ := wireApp(t)
	ctx := context.Background()
	require.NoError(t, app.Counter.Initialize(ctx, 0))

	sale := models.SaleRequest{Items: []models.TicketItem{
		{ProductID: "prod-espresso", ProductName: "Espresso", Price: decimal.RequireFromString("1.80"), Quantity: 1},
	}}
	const sold = 250
	for i := 0; i < sold; i++ {
		_, err := app.Tickets.CreateTicket(ctx, sale)
		require.NoError(t, err)
	}

	from, to := todayUTC()
	report, err := app.Analytics.GetSalesReport(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, sold, report.TicketsSold)
	assert.Equal(t, "450.00", report.TotalRevenue.StringFixed(2))
	require.Len(t, report.ByProduct, 1)
	assert.Equal(t, sold, report.ByProduct[0].Quantity)
}

func TestSalesReport_DatabaseFailureIsAnError(t *testing.T) {
	app, bunDB := wireApp(t)
	require.NoError(t, bunDB.Close())

	from, to := todayUTC()
	_, err := app.Analytics.GetSalesReport(context.Background(), from, to)
	assert.Error(t, err)
}
