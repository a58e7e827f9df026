package storage

import (
	"context"

	"lmsrMarket/internal/model"
)

// MarketStore persists market state. Load returns found=false for a market
// that was never initialized. Save commits the whole state snapshot
// atomically; a store must never expose a partially applied snapshot.
type MarketStore interface {
	Load(ctx context.Context, id string) (model.MarketState, bool, error)
	Save(ctx context.Context, state model.MarketState) error
	List(ctx context.Context) ([]model.MarketState, error)
}
