package db

import (
	"context"
	"fmt"
	"time"

	"cafe-pos/internal/database"
	"cafe-pos/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- TICKETS ----------------

func (d *DB) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(ticket).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert ticket %s: %w", ticket.ID, database.Classify(err))
	}
	return nil
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	return &ticket, nil
}

// ListTickets returns tickets dated in [from, to), newest first. A zero bound is open.
func (d *DB) ListTickets(ctx context.Context, from, to time.Time, limit int) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0)
	q := d.Bun.NewSelect().
		Model(&tickets).
		OrderExpr("date DESC").
		OrderExpr("ticket_number DESC")
	if !from.IsZero() {
		q = q.Where("date >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("date < ?", to.UTC())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return tickets, nil
}

func (d *DB) DeleteTicket(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return database.Classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *DB) GetTotalTicketsCount(ctx context.Context) (int, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Count(ctx)
	return count, database.Classify(err)
}
