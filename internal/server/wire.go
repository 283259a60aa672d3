package server

import (
	"fmt"
	"time"

	"cafe-pos/internal/analytics"
	analytics_api "cafe-pos/internal/analytics/api"
	"cafe-pos/internal/cache"
	"cafe-pos/internal/catalog"
	"cafe-pos/internal/catalog/catalog_api"
	catalog_db "cafe-pos/internal/catalog/db"
	"cafe-pos/internal/config"
	"cafe-pos/internal/fiscal"
	fiscal_db "cafe-pos/internal/fiscal/db"
	"cafe-pos/internal/fiscal/fiscal_api"
	"cafe-pos/internal/inventory"
	inventory_db "cafe-pos/internal/inventory/db"
	"cafe-pos/internal/inventory/inventory_api"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/notifier"
	"cafe-pos/internal/order"
	order_db "cafe-pos/internal/order/db"
	"cafe-pos/internal/order/feed"
	"cafe-pos/internal/order/order_api"
	ticket_db "cafe-pos/internal/tickets/db"
	"cafe-pos/internal/tickets/receipt"
	tickets "cafe-pos/internal/tickets/service"
	"cafe-pos/internal/tickets/ticket_api"

	"github.com/uptrace/bun"
)

// EventPublisher is the lifecycle event sink shared by orders and tickets.
type EventPublisher interface {
	order.EventPublisher
	tickets.EventPublisher
}

// Deps are the connections the services are built on.
type Deps struct {
	DB     *bun.DB
	Cache  *cache.Cache
	Feed   feed.Feed
	Events EventPublisher
	// Guard is optional; nil disables duplicate submission suppression
	Guard  order.SubmissionGuard
	Config *config.Config
	Logger *logger.Logger
}

// App is the wired service graph.
type App struct {
	Handlers  Handlers
	Board     *notifier.Board
	Counter   *tickets.Counter
	Orders    *order.OrderService
	Tickets   *tickets.TicketService
	Analytics *analytics.Service
}

// Wire builds every service and handler from deps. Nothing is started.
func Wire(d Deps) (*App, error) {
	cfg := d.Config
	log := d.Logger

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Server.Timezone, err)
	}

	fiscalService := fiscal.NewFiscalService(&fiscal_db.DB{Bun: d.DB}, d.Cache, log)

	ticketStore := &ticket_db.DB{Bun: d.DB}
	counter := tickets.NewCounter(ticketStore, log, cfg.Counter.TimestampFallback)
	ticketService := tickets.NewTicketService(ticketStore, counter, fiscalService, d.Events, cfg.Kafka.Topics.TicketCreated, log)
	qr := receipt.NewQRGenerator(cfg.Receipt.Secret, cfg.Receipt.QRSize)

	orderStore := &order_db.DB{Bun: d.DB}
	orderService := order.NewOrderService(orderStore, d.Feed, d.Events, order.Topics{
		Created: cfg.Kafka.Topics.OrderCreated,
		Updated: cfg.Kafka.Topics.OrderUpdated,
	}, log)
	if d.Guard != nil {
		orderService.Guard = d.Guard
	}
	board := notifier.NewBoard(notifier.New(orderStore, d.Feed, cfg.Notifier.ResyncInterval, log), orderService, log)

	catalogService := catalog.NewCatalogService(&catalog_db.DB{Bun: d.DB}, d.Cache, log)
	inventoryService := inventory.NewInventoryService(&inventory_db.DB{Bun: d.DB}, d.Cache, log)
	// Reports read the store directly: every ticket in range, and failures surface as errors.
	analyticsService := analytics.NewService(ticketStore, loc, log)

	ticketHandler := ticket_api.NewHandler(ticketService, counter, qr, log)
	ticketHandler.Location = loc

	return &App{
		Handlers: Handlers{
			Tickets:   ticketHandler,
			Orders:    order_api.NewHandler(orderService, board, log),
			Catalog:   catalog_api.NewHandler(catalogService, log),
			Inventory: inventory_api.NewHandler(inventoryService, log),
			Fiscal:    fiscal_api.NewHandler(fiscalService, log),
			Analytics: analytics_api.NewHandler(analyticsService, log),
			Cache:     d.Cache,
		},
		Board:     board,
		Counter:   counter,
		Orders:    orderService,
		Tickets:   ticketService,
		Analytics: analyticsService,
	}, nil
}
