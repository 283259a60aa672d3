package notifier

import (
	"sync"

	"cafe-pos/internal/models"
)

// PendingView is a board's local copy of the pending set. Orders acted on locally are hidden
// at once; the next snapshot replaces the whole view, hidden ids included.
type PendingView struct {
	mu     sync.RWMutex
	orders []models.Order
	hidden map[string]struct{}
}

func NewPendingView() *PendingView {
	return &PendingView{hidden: make(map[string]struct{})}
}

func (v *PendingView) Apply(s Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orders = append([]models.Order(nil), s.Orders...)
	v.hidden = make(map[string]struct{})
}

// Remove hides id and reports whether it was visible.
func (v *PendingView) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.hidden[id]; ok {
		return false
	}
	for _, o := range v.orders {
		if o.ID == id {
			v.hidden[id] = struct{}{}
			return true
		}
	}
	return false
}

// Orders returns the visible orders, oldest first.
func (v *PendingView) Orders() []models.Order {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Order, 0, len(v.orders))
	for _, o := range v.orders {
		if _, ok := v.hidden[o.ID]; !ok {
			out = append(out, o)
		}
	}
	return out
}

func (v *PendingView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.orders) - len(v.hidden)
}
