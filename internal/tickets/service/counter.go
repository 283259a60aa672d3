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
)

type CounterDBLayer interface {
	InitializeCounter(ctx context.Context, startFrom int64) (bool, error)
	NextTicketNumber(ctx context.Context) (int64, error)
	ResetCounter(ctx context.Context, startFrom int64) error
	CurrentTicketNumber(ctx context.Context) (int64, error)
}

// Counter hands out ticket numbers from the persisted sequence.
//
// With TimestampFallback enabled a failing increment yields the current Unix time in
// milliseconds instead of an error, so a sale is never blocked by the counter. Numbers
// handed out that way are not guaranteed to be ordered with the sequence.
type Counter struct {
	DB                CounterDBLayer
	Logger            *logger.Logger
	TimestampFallback bool
	now               func() time.Time
}

func NewCounter(db CounterDBLayer, log *logger.Logger, timestampFallback bool) *Counter {
	return &Counter{DB: db, Logger: log, TimestampFallback: timestampFallback, now: time.Now}
}

// Initialize creates the counter at startFrom unless it already exists. Authorization
// failures are logged and swallowed; it is retried on the next staff session.
func (c *Counter) Initialize(ctx context.Context, startFrom int64) error {
	if u, ok := auth.UserFromContext(ctx); ok && !u.IsStaff() {
		c.Logger.LogSecurity("counter-init-skipped", fmt.Sprintf("user %s with role %q cannot initialize the ticket counter", u.ID, u.Role))
		return nil
	}

	created, err := c.DB.InitializeCounter(ctx, startFrom)
	if errors.Is(err, models.ErrPermissionDenied) {
		c.Logger.Warn("COUNTER", fmt.Sprintf("Skipping ticket counter initialization: %v", err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to initialize ticket counter: %w", err)
	}

	if created {
		c.Logger.Info("COUNTER", fmt.Sprintf("Ticket counter initialized at %d", startFrom))
	}
	return nil
}

// Next atomically increments the counter and returns the new value.
func (c *Counter) Next(ctx context.Context) (int64, error) {
	n, err := c.DB.NextTicketNumber(ctx)
	if err == nil {
		return n, nil
	}

	if !c.TimestampFallback {
		c.Logger.Error("COUNTER", fmt.Sprintf("Ticket counter increment failed: %v", err))
		return 0, fmt.Errorf("%w: %w", models.ErrCounterUnavailable, err)
	}

	fallback := c.now().UnixMilli()
	metrics.CounterFallbacks.Inc()
	c.Logger.Warn("COUNTER", fmt.Sprintf("Ticket counter increment failed (%v), using timestamp %d", err, fallback))
	return fallback, nil
}

// Reset rebases the sequence at startFrom. The next ticket gets startFrom+1. Only admins
// may call it and numbers already issued above startFrom will be reused.
func (c *Counter) Reset(ctx context.Context, startFrom int64) error {
	u, ok := auth.UserFromContext(ctx)
	if !ok || u.Role != auth.RoleAdmin {
		return fmt.Errorf("resetting the ticket counter requires the admin role: %w", models.ErrPermissionDenied)
	}
	if startFrom < 0 {
		return models.NewValidationError("startFrom", "must not be negative")
	}

	if err := c.DB.ResetCounter(ctx, startFrom); err != nil {
		return fmt.Errorf("failed to reset ticket counter: %w", err)
	}
	c.Logger.LogSecurity("counter-reset", fmt.Sprintf("ticket counter rebased to %d by %s", startFrom, u.ID))
	return nil
}

func (c *Counter) Current(ctx context.Context) (int64, error) {
	n, err := c.DB.CurrentTicketNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read ticket counter: %w", err)
	}
	return n, nil
}
