// Package projection consumes stock events from Kafka and maintains the
// movement journal and the low-stock alert table.
package projection

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/veststore/internal/events"
	"github.com/example/veststore/internal/ledger"
	"github.com/example/veststore/internal/store"
)

type Projector struct {
	recorder ledger.Recorder
	store    store.Store
}

func NewProjector(rec ledger.Recorder, st store.Store) *Projector {
	return &Projector{recorder: rec, store: st}
}

// HandleEvent is the Kafka consumer callback.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Projector] Skipping undecodable message: %v", err)
		return nil
	}

	log.Printf("[Projector] Received event: %s (%s %s)", env.EventType, env.EntityType, env.EntityID)

	if env.EventType != events.EventStockAdjusted {
		return nil
	}

	var e events.StockAdjusted
	if err := env.Decode(&e); err != nil {
		return err
	}
	return p.applyStockAdjusted(ctx, env.ID, e)
}

func (p *Projector) applyStockAdjusted(ctx context.Context, eventID string, e events.StockAdjusted) error {
	if err := p.recorder.Record(ctx, ledger.Movement{
		EventID:    eventID,
		ProductID:  e.ProductID,
		Delta:      e.Delta,
		StockAfter: e.StockAfter,
		Reason:     e.Reason,
		RefID:      e.RefID,
		AdjustedAt: e.AdjustedAt,
	}); err != nil {
		return err
	}

	// An alert row exists exactly while the product sits at or below its
	// threshold. Both branches are idempotent under replay.
	if e.StockAfter <= e.Threshold {
		log.Printf("[Projector] Low stock for product %s: %d (threshold %d)", e.ProductID, e.StockAfter, e.Threshold)
		return p.store.UpsertStockAlert(ctx, &store.StockAlert{
			ProductID: e.ProductID,
			Stock:     e.StockAfter,
			Threshold: e.Threshold,
		})
	}
	return p.store.DeleteStockAlert(ctx, e.ProductID)
}
