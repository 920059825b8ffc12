// Package ledger keeps an append-only journal of stock movements, fed by the
// projector from StockAdjusted events. It is the audit trail; the relational
// store remains the source of truth for current stock.
package ledger

import (
	"context"
	"sync"
	"time"
)

// Movement is one journal entry. EventID makes replays idempotent: recording
// the same event twice is a no-op.
type Movement struct {
	EventID    string
	ProductID  string
	Delta      int
	StockAfter int
	Reason     string
	RefID      string
	AdjustedAt time.Time
}

type Recorder interface {
	Record(ctx context.Context, m Movement) error
	List(ctx context.Context, productID string) ([]Movement, error)
}

// MemoryRecorder is an in-memory Recorder for tests and local runs.
type MemoryRecorder struct {
	mu        sync.Mutex
	movements []Movement
	seen      map[string]bool
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{seen: make(map[string]bool)}
}

func (r *MemoryRecorder) Record(ctx context.Context, m Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[m.EventID] {
		return nil
	}
	r.seen[m.EventID] = true
	r.movements = append(r.movements, m)
	return nil
}

func (r *MemoryRecorder) List(ctx context.Context, productID string) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}
