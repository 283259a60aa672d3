package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"cafe-pos/internal/models"

	"github.com/go-redis/redis/v8"
)

const submitKeyPrefix = "order_submit:"

// SubmissionGuard rejects the same teacher order submitted twice within a short window,
// such as a double-clicked submit button.
type SubmissionGuard struct {
	Client *redis.Client
	Window time.Duration
}

func NewSubmissionGuard(client *redis.Client, window time.Duration) *SubmissionGuard {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &SubmissionGuard{Client: client, Window: window}
}

// Acquire claims the fingerprint of req for the window. It returns false if an identical
// submission already holds it.
func (g *SubmissionGuard) Acquire(ctx context.Context, req models.OrderRequest, orderID string) (bool, error) {
	ok, err := g.Client.SetNX(ctx, submitKeyPrefix+Fingerprint(req), orderID, g.Window).Result()
	if err != nil {
		return false, fmt.Errorf("submission guard: %w", err)
	}
	return ok, nil
}

// Release frees the fingerprint if orderID still owns it, used when the insert fails.
func (g *SubmissionGuard) Release(ctx context.Context, req models.OrderRequest, orderID string) error {
	key := submitKeyPrefix + Fingerprint(req)
	val, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == orderID {
		return g.Client.Del(ctx, key).Err()
	}
	return nil
}

// Fingerprint identifies a submission by requester, delivery and line items, ignoring item order.
func Fingerprint(req models.OrderRequest) string {
	lines := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, fmt.Sprintf("%s:%d:%s", item.ProductID, item.Quantity, item.Price.StringFixed(2)))
	}
	sort.Strings(lines)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(req.TeacherName)),
		req.DeliveryType,
		strings.TrimSpace(req.Classroom),
		strings.TrimSpace(req.Notes),
		strings.Join(lines, ","))
	return hex.EncodeToString(h.Sum(nil))
}
