package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/metrics"
	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/shopspring/decimal"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicketByID(ctx context.Context, id string) (*models.Ticket, error)
	ListTickets(ctx context.Context, from, to time.Time, limit int) ([]models.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	GetTotalTicketsCount(ctx context.Context) (int, error)
}

// FiscalSource provides the business identity snapshotted onto each ticket.
type FiscalSource interface {
	Get(ctx context.Context) (*models.FiscalData, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// TicketCreatedEvent is published on the tickets topic for every completed sale.
type TicketCreatedEvent struct {
	TicketID     string          `json:"ticketId"`
	TicketNumber int64           `json:"ticketNumber"`
	Date         time.Time       `json:"date"`
	Total        decimal.Decimal `json:"total"`
	ItemCount    int             `json:"itemCount"`
	UserID       string          `json:"userId,omitempty"`
}

const defaultListLimit = 200

type TicketService struct {
	DB      TicketDBLayer
	Counter *Counter
	Fiscal  FiscalSource
	Events  EventPublisher
	Topic   string
	Logger  *logger.Logger
	now     func() time.Time
}

func NewTicketService(db TicketDBLayer, counter *Counter, fiscal FiscalSource, events EventPublisher, topic string, log *logger.Logger) *TicketService {
	return &TicketService{
		DB:      db,
		Counter: counter,
		Fiscal:  fiscal,
		Events:  events,
		Topic:   topic,
		Logger:  log,
		now:     time.Now,
	}
}

// ValidateSale checks a sale before anything is written or a number is drawn.
func ValidateSale(req models.SaleRequest) error {
	if len(req.Items) == 0 {
		return models.NewValidationError("items", "at least one item is required")
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID == "" || item.ProductName == "" {
			return models.NewValidationError(field, "product id and name are required")
		}
		if item.Quantity <= 0 {
			return models.NewValidationError(field+".quantity", "must be greater than zero")
		}
		if item.Price.IsNegative() {
			return models.NewValidationError(field+".price", "must not be negative")
		}
	}
	return nil
}

// SaleTotal is Σ price × quantity rounded to cents.
func SaleTotal(items []models.TicketItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

// CreateTicket completes a sale: validates, draws the next number, snapshots fiscal data,
// persists and announces the ticket.
func (s *TicketService) CreateTicket(ctx context.Context, req models.SaleRequest) (*models.Ticket, error) {
	if err := ValidateSale(req); err != nil {
		return nil, err
	}

	number, err := s.Counter.Next(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		ID:           utils.NewID(),
		TicketNumber: number,
		Date:         s.now().UTC(),
		Items:        req.Items,
		Total:        SaleTotal(req.Items),
		FiscalData:   s.fiscalSnapshot(ctx),
	}
	if u, ok := auth.UserFromContext(ctx); ok {
		ticket.UserID = u.ID
		ticket.UserName = u.Name
	}

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		s.Logger.Error("TICKET", fmt.Sprintf("Failed to create ticket #%d: %v", number, err))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	metrics.TicketsCreated.Inc()
	s.Logger.LogTicket("create", ticket.TicketNumber, fmt.Sprintf("total %s, %d lines", ticket.Total.StringFixed(2), len(ticket.Items)))

	event := TicketCreatedEvent{
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		Date:         ticket.Date,
		Total:        ticket.Total,
		ItemCount:    len(ticket.Items),
		UserID:       ticket.UserID,
	}
	if err := s.Events.PublishJSON(ctx, s.Topic, ticket.ID, event); err != nil {
		s.Logger.Warn("TICKET", fmt.Sprintf("Ticket #%d saved but event not published: %v", ticket.TicketNumber, err))
	}
	return ticket, nil
}

func (s *TicketService) fiscalSnapshot(ctx context.Context) *models.FiscalSnapshot {
	if s.Fiscal == nil {
		return nil
	}
	data, err := s.Fiscal.Get(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.Logger.Warn("TICKET", fmt.Sprintf("Fiscal data unavailable, ticket issued without it: %v", err))
		}
		return nil
	}
	return data.Snapshot()
}

func (s *TicketService) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", id, err)
	}
	return ticket, nil
}

// ListTickets returns tickets in [from, to), newest first.
func (s *TicketService) ListTickets(ctx context.Context, from, to time.Time, limit int) ([]models.Ticket, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	tickets, err := s.DB.ListTickets(ctx, from, to, limit)
	if err != nil {
		s.Logger.Error("TICKET", fmt.Sprintf("Failed to list tickets: %v", err))
		return []models.Ticket{}, nil
	}
	return tickets, nil
}

func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	if err := s.DB.DeleteTicket(ctx, id); err != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", id, err)
	}
	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %s deleted by %s", id, auth.UserID(ctx)))
	return nil
}

func (s *TicketService) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return s.DB.GetTotalTicketsCount(ctx)
}
