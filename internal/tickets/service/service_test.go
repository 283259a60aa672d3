package tickets_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/database"
	"cafe-pos/internal/kafka"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/tickets/db"
	tickets "cafe-pos/internal/tickets/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTicketDBLayer is a mock implementation of the TicketDBLayer interface
type MockTicketDBLayer struct {
	mock.Mock
}

func (m *MockTicketDBLayer) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketDBLayer) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) ListTickets(ctx context.Context, from, to time.Time, limit int) ([]models.Ticket, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDBLayer) DeleteTicket(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTicketDBLayer) GetTotalTicketsCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	args := m.Called(ctx, topic, key, v)
	return args.Error(0)
}

type staticFiscal struct {
	data *models.FiscalData
	err  error
}

func (f staticFiscal) Get(context.Context) (*models.FiscalData, error) { return f.data, f.err }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateSale(t *testing.T) {
	valid := models.TicketItem{ProductID: "p1", ProductName: "Espresso", Price: dec("1.80"), Quantity: 1}

	cases := []struct {
		name  string
		items []models.TicketItem
		field string
	}{
		{"no items", nil, "items"},
		{"zero quantity", []models.TicketItem{{ProductID: "p1", ProductName: "x", Price: dec("1"), Quantity: 0}}, "items[0].quantity"},
		{"negative price", []models.TicketItem{valid, {ProductID: "p2", ProductName: "y", Price: dec("-0.01"), Quantity: 1}}, "items[1].price"},
		{"missing product", []models.TicketItem{{ProductName: "x", Price: dec("1"), Quantity: 1}}, "items[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tickets.ValidateSale(models.SaleRequest{Items: tc.items})
			require.ErrorIs(t, err, models.ErrValidation)
			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	assert.NoError(t, tickets.ValidateSale(models.SaleRequest{Items: []models.TicketItem{valid}}))
}

func TestCreateTicket_ValidationHappensBeforeAnyWrite(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	counterDB := new(MockCounterDB)
	svc := tickets.NewTicketService(mockDB, tickets.NewCounter(counterDB, logger.NewNopLogger(), true), nil, kafka.NopPublisher{}, "cafe.tickets.created", logger.NewNopLogger())

	_, err := svc.CreateTicket(context.Background(), models.SaleRequest{})
	assert.ErrorIs(t, err, models.ErrValidation)

	counterDB.AssertNotCalled(t, "NextTicketNumber", mock.Anything)
	mockDB.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestCreateTicket_WithMocks(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	counterDB := new(MockCounterDB)
	publisher := new(MockPublisher)
	fiscal := staticFiscal{data: &models.FiscalData{BusinessName: "Cafetería Campus", TaxID: "B1", Address: "Av. 1"}}
	svc := tickets.NewTicketService(mockDB, tickets.NewCounter(counterDB, logger.NewNopLogger(), true), fiscal, publisher, "cafe.tickets.created", logger.NewNopLogger())

	counterDB.On("NextTicketNumber", mock.Anything).Return(int64(101), nil)
	mockDB.On("CreateTicket", mock.Anything, mock.MatchedBy(func(tk *models.Ticket) bool {
		return tk.TicketNumber == 101 && tk.UserID == "c1" && tk.UserName == "Luis" && tk.FiscalData != nil
	})).Return(nil)
	publisher.On("PublishJSON", mock.Anything, "cafe.tickets.created", mock.Anything, mock.AnythingOfType("tickets.TicketCreatedEvent")).
		Return(errors.New("broker down"))

	ctx := auth.WithUser(context.Background(), auth.User{ID: "c1", Name: "Luis", Role: auth.RoleCashier})
	ticket, err := svc.CreateTicket(ctx, models.SaleRequest{Items: []models.TicketItem{
		{ProductID: "p1", ProductName: "Latte", Price: dec("2.80"), Quantity: 2},
	}})
	require.NoError(t, err, "publish failures do not fail the sale")
	assert.Equal(t, "5.60", ticket.Total.StringFixed(2))
	assert.Equal(t, "B1", ticket.FiscalData.TaxID)

	mockDB.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateTicket_DBErrorIsWrapped(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	counterDB := new(MockCounterDB)
	svc := tickets.NewTicketService(mockDB, tickets.NewCounter(counterDB, logger.NewNopLogger(), true), staticFiscal{err: models.ErrNotFound}, kafka.NopPublisher{}, "t", logger.NewNopLogger())

	counterDB.On("NextTicketNumber", mock.Anything).Return(int64(1), nil)
	mockDB.On("CreateTicket", mock.Anything, mock.Anything).Return(models.ErrPermissionDenied)

	_, err := svc.CreateTicket(context.Background(), models.SaleRequest{Items: []models.TicketItem{
		{ProductID: "p1", ProductName: "Latte", Price: dec("2.80"), Quantity: 1},
	}})
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestListTickets_ReadErrorsReturnEmpty(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil, nil, kafka.NopPublisher{}, "t", logger.NewNopLogger())

	mockDB.On("ListTickets", mock.Anything, time.Time{}, time.Time{}, 200).Return(nil, errors.New("timeout"))
	list, err := svc.ListTickets(context.Background(), time.Time{}, time.Time{}, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteTicket_NotFound(t *testing.T) {
	mockDB := new(MockTicketDBLayer)
	svc := tickets.NewTicketService(mockDB, nil, nil, kafka.NopPublisher{}, "t", logger.NewNopLogger())

	mockDB.On("DeleteTicket", mock.Anything, "nope").Return(models.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTicket(context.Background(), "nope"), models.ErrNotFound)
}

func newSQLiteService(t *testing.T) (*tickets.TicketService, *tickets.Counter) {
	bunDB, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	store := &db.DB{Bun: bunDB}
	counter := tickets.NewCounter(store, logger.NewNopLogger(), false)
	svc := tickets.NewTicketService(store, counter, nil, kafka.NopPublisher{}, "cafe.tickets.created", logger.NewNopLogger())
	return svc, counter
}

func TestCashierSale_EndToEnd(t *testing.T) {
	svc, counter := newSQLiteService(t)
	ctx := staffCtx(auth.RoleCashier)

	require.NoError(t, counter.Initialize(ctx, 0))
	before, err := counter.Current(ctx)
	require.NoError(t, err)

	ticket, err := svc.CreateTicket(ctx, models.SaleRequest{Items: []models.TicketItem{
		{ProductID: "espresso", ProductName: "Espresso", Price: dec("1.80"), Quantity: 3},
		{ProductID: "croissant", ProductName: "Croissant", Price: dec("2.10"), Quantity: 1},
	}})
	require.NoError(t, err)

	assert.Equal(t, "7.50", ticket.Total.StringFixed(2))
	assert.Equal(t, before+1, ticket.TicketNumber)

	stored, err := svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketNumber, stored.TicketNumber)
	assert.True(t, stored.Total.Equal(dec("7.50")))
}

func TestCounter_InitializeFreshThenNext(t *testing.T) {
	_, counter := newSQLiteService(t)
	ctx := staffCtx(auth.RoleAdmin)

	require.NoError(t, counter.Initialize(ctx, 50))
	n, err := counter.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(51), n)

	// initialize on an existing counter changes nothing
	require.NoError(t, counter.Initialize(ctx, 1))
	n, err = counter.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(52), n)
}

func TestCounter_SuccessiveNextStrictlyIncreasing(t *testing.T) {
	_, counter := newSQLiteService(t)
	ctx := staffCtx(auth.RoleCashier)
	require.NoError(t, counter.Initialize(ctx, 0))

	prev := int64(0)
	for i := 0; i < 20; i++ {
		n, err := counter.Next(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}
