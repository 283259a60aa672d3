package db

import (
	"context"
	"time"

	"cafe-pos/internal/database"
	"cafe-pos/internal/models"
)

// ---------------- TICKET COUNTER ----------------

// InitializeCounter creates the counter row at startFrom if it does not exist.
// It reports whether a row was created.
func (d *DB) InitializeCounter(ctx context.Context, startFrom int64) (bool, error) {
	counter := models.TicketCounter{
		ID:           models.TicketCounterID,
		TicketNumber: startFrom,
		UpdatedAt:    time.Now(),
	}
	res, err := d.Bun.NewInsert().
		Model(&counter).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, database.Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// NextTicketNumber increments the counter and returns the new value in one statement.
// A missing row yields models.ErrNotFound.
func (d *DB) NextTicketNumber(ctx context.Context) (int64, error) {
	var next int64
	err := d.Bun.NewUpdate().
		Model((*models.TicketCounter)(nil)).
		Set("ticket_number = ticket_number + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", models.TicketCounterID).
		Returning("ticket_number").
		Scan(ctx, &next)
	if err != nil {
		return 0, database.Classify(err)
	}
	return next, nil
}

// ResetCounter overwrites the counter with startFrom, creating the row if needed.
func (d *DB) ResetCounter(ctx context.Context, startFrom int64) error {
	counter := models.TicketCounter{
		ID:           models.TicketCounterID,
		TicketNumber: startFrom,
		UpdatedAt:    time.Now(),
	}
	_, err := d.Bun.NewInsert().
		Model(&counter).
		On("CONFLICT (id) DO UPDATE").
		Set("ticket_number = EXCLUDED.ticket_number").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return database.Classify(err)
}

func (d *DB) CurrentTicketNumber(ctx context.Context) (int64, error) {
	var counter models.TicketCounter
	err := d.Bun.NewSelect().
		Model(&counter).
		Where("id = ?", models.TicketCounterID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, database.Classify(err)
	}
	return counter.TicketNumber, nil
}
