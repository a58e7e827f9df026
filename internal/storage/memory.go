package storage

import (
	"context"
	"sync"

	"lmsrMarket/internal/model"
)

// MemoryStore keeps market state in memory. Used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	markets map[string]model.MarketState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markets: make(map[string]model.MarketState)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (model.MarketState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.markets[id]
	if !ok {
		return model.MarketState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (s *MemoryStore) Save(_ context.Context, state model.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markets[state.ID] = state.Clone()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.MarketState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.MarketState, 0, len(s.markets))
	for _, state := range s.markets {
		out = append(out, state.Clone())
	}
	return out, nil
}
