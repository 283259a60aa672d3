package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/metrics"
	"cafe-pos/internal/models"
	"cafe-pos/internal/utils"

	"github.com/shopspring/decimal"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (*models.Order, error)
	ListPending(ctx context.Context) ([]models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error)
}

// ChangePublisher announces order changes to the cashier boards.
type ChangePublisher interface {
	Publish(ctx context.Context, change models.OrderChange) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v interface{}) error
}

// SubmissionGuard suppresses duplicate submissions. Optional.
type SubmissionGuard interface {
	Acquire(ctx context.Context, req models.OrderRequest, orderID string) (bool, error)
	Release(ctx context.Context, req models.OrderRequest, orderID string) error
}

// LifecycleEvent is published to Kafka for every order write.
type LifecycleEvent struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
	At    time.Time    `json:"at"`
}

type Topics struct {
	Created string
	Updated string
}

type OrderService struct {
	DB     DBLayer
	Feed   ChangePublisher
	Events EventPublisher
	Guard  SubmissionGuard
	Topics Topics
	Logger *logger.Logger
	now    func() time.Time
}

func NewOrderService(db DBLayer, feed ChangePublisher, events EventPublisher, topics Topics, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Feed: feed, Events: events, Topics: topics, Logger: log, now: time.Now}
}

// ValidateOrder runs every check that must pass before an order is written.
func ValidateOrder(req models.OrderRequest) error {
	if strings.TrimSpace(req.TeacherName) == "" {
		return models.NewValidationError("teacherName", "is required")
	}
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
	switch req.DeliveryType {
	case models.DeliveryClassroom:
		if strings.TrimSpace(req.Classroom) == "" {
			return models.NewValidationError("classroom", "is required for classroom delivery")
		}
	case models.DeliveryPickup:
	default:
		return models.NewValidationError("deliveryType", "must be classroom or pickup")
	}
	return nil
}

func OrderTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

// ---------------- ORDERS ----------------

// Submit validates and stores a teacher order in status pending.
func (s *OrderService) Submit(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if err := ValidateOrder(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:           utils.NewID(),
		TeacherName:  strings.TrimSpace(req.TeacherName),
		Items:        req.Items,
		Total:        OrderTotal(req.Items),
		Status:       models.OrderStatusPending,
		DeliveryType: req.DeliveryType,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.DeliveryType == models.DeliveryClassroom {
		order.Classroom = strings.TrimSpace(req.Classroom)
	}

	if s.Guard != nil {
		ok, err := s.Guard.Acquire(ctx, req, order.ID)
		if err != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("Submission guard unavailable, accepting order: %v", err))
		} else if !ok {
			return nil, models.ErrDuplicateOrder
		}
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		if s.Guard != nil {
			_ = s.Guard.Release(ctx, req, order.ID)
		}
		s.Logger.Error("ORDER", fmt.Sprintf("Failed to create order for %s: %v", order.TeacherName, err))
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}

	metrics.OrdersSubmitted.WithLabelValues(string(order.DeliveryType)).Inc()
	s.Logger.LogOrder("submit", order.ID, fmt.Sprintf("%s, %d lines, total %s", order.TeacherName, len(order.Items), order.Total.StringFixed(2)))
	s.announce(ctx, models.OrderCreated, "created", s.Topics.Created, order)
	return order, nil
}

// Accept moves a pending order to preparing.
func (s *OrderService) Accept(ctx context.Context, id string) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusPreparing, "accepted")
}

// Reject moves a pending order to cancelled.
func (s *OrderService) Reject(ctx context.Context, id string) (*models.Order, error) {
	return s.transition(ctx, id, models.OrderStatusCancelled, "rejected")
}

func (s *OrderService) transition(ctx context.Context, id string, to models.OrderStatus, action string) (*models.Order, error) {
	order, err := s.DB.TransitionStatus(ctx, id, models.OrderStatusPending, to, s.now().UTC())
	if err != nil {
		metrics.OrderTransitions.WithLabelValues(string(to), "refused").Inc()
		return nil, fmt.Errorf("failed to mark order %s as %s: %w", id, to, err)
	}

	metrics.OrderTransitions.WithLabelValues(string(to), "ok").Inc()
	s.Logger.LogOrder(action, order.ID, fmt.Sprintf("now %s", order.Status))
	s.announce(ctx, models.OrderUpdated, action, s.Topics.Updated, order)
	return order, nil
}

// announce tells the boards and the event bus. Failures are logged; the write already succeeded.
func (s *OrderService) announce(ctx context.Context, kind models.OrderChangeType, action, topic string, order *models.Order) {
	change := models.OrderChange{Type: kind, OrderID: order.ID, Status: order.Status, At: order.UpdatedAt}
	if err := s.Feed.Publish(ctx, change); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("Change feed publish failed for %s, boards will catch up on resync: %v", order.ID, err))
	}
	if err := s.Events.PublishJSON(ctx, topic, order.ID, LifecycleEvent{Type: action, Order: *order, At: order.UpdatedAt}); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("Kafka publish error (order %s): %v", action, err))
	}
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return order, nil
}

// ListPending returns pending orders oldest first.
func (s *OrderService) ListPending(ctx context.Context) ([]models.Order, error) {
	return s.DB.ListPending(ctx)
}

func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	orders, err := s.DB.ListOrders(ctx, status, limit)
	if err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("Failed to list orders: %v", err))
		return []models.Order{}, nil
	}
	return orders, nil
}
