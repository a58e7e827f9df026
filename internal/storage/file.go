package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"lmsrMarket/internal/model"
)

// FileStore persists all markets in a single JSON file, written atomically
// via a temp file and rename so a crash mid-write never leaves a torn state.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// marketSnapshot is the on-disk shape of one market. Numeric fields are
// decimal strings so values survive round-trips without precision loss, and
// balances are a list because JSON objects cannot key on (user, outcome).
type marketSnapshot struct {
	ID              string            `json:"id"`
	Oracle          string            `json:"oracle"`
	CollateralToken string            `json:"collateral_token"`
	LiquidityParam  string            `json:"liquidity_param"`
	MetadataHash    string            `json:"metadata_hash"`
	YesSold         string            `json:"yes_sold"`
	NoSold          string            `json:"no_sold"`
	CollateralPool  string            `json:"collateral_pool"`
	Resolved        bool              `json:"resolved"`
	WinningOutcome  uint32            `json:"winning_outcome"`
	Balances        []balanceSnapshot `json:"balances"`
}

type balanceSnapshot struct {
	User    string `json:"user"`
	Outcome uint32 `json:"outcome"`
	Balance string `json:"balance"`
}

func (s *FileStore) Load(_ context.Context, id string) (model.MarketState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots, err := s.read()
	if err != nil {
		return model.MarketState{}, false, err
	}

	snap, ok := snapshots[id]
	if !ok {
		return model.MarketState{}, false, nil
	}

	state, err := snap.toState()
	if err != nil {
		return model.MarketState{}, false, err
	}
	return state, true, nil
}

func (s *FileStore) Save(_ context.Context, state model.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots, err := s.read()
	if err != nil {
		return err
	}
	snapshots[state.ID] = toSnapshot(state)
	return s.write(snapshots)
}

func (s *FileStore) List(_ context.Context) ([]model.MarketState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots, err := s.read()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.MarketState, 0, len(ids))
	for _, id := range ids {
		state, err := snapshots[id].toState()
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, nil
}

func (s *FileStore) read() (map[string]marketSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]marketSnapshot), nil
		}
		return nil, fmt.Errorf("read market file: %w", err)
	}

	var snapshots map[string]marketSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("%w: parse market file: %v", model.ErrStorageCorrupted, err)
	}
	if snapshots == nil {
		snapshots = make(map[string]marketSnapshot)
	}
	return snapshots, nil
}

func (s *FileStore) write(snapshots map[string]marketSnapshot) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create market dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal markets: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write markets tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename markets: %w", err)
	}
	return nil
}

func toSnapshot(state model.MarketState) marketSnapshot {
	snap := marketSnapshot{
		ID:              state.ID,
		Oracle:          state.Oracle,
		CollateralToken: state.CollateralToken,
		LiquidityParam:  state.LiquidityParam.String(),
		MetadataHash:    state.MetadataHash,
		YesSold:         state.YesSold.String(),
		NoSold:          state.NoSold.String(),
		CollateralPool:  state.CollateralPool.String(),
		Resolved:        state.Resolved,
		WinningOutcome:  uint32(state.WinningOutcome),
	}
	for key, balance := range state.Balances {
		snap.Balances = append(snap.Balances, balanceSnapshot{
			User:    key.User,
			Outcome: uint32(key.Outcome),
			Balance: balance.String(),
		})
	}
	sort.Slice(snap.Balances, func(i, j int) bool {
		if snap.Balances[i].User != snap.Balances[j].User {
			return snap.Balances[i].User < snap.Balances[j].User
		}
		return snap.Balances[i].Outcome < snap.Balances[j].Outcome
	})
	return snap
}

func (snap marketSnapshot) toState() (model.MarketState, error) {
	state := model.MarketState{
		ID:              snap.ID,
		Oracle:          snap.Oracle,
		CollateralToken: snap.CollateralToken,
		MetadataHash:    snap.MetadataHash,
		Resolved:        snap.Resolved,
		WinningOutcome:  model.Outcome(snap.WinningOutcome),
		Balances:        make(map[model.PositionKey]*big.Int, len(snap.Balances)),
	}

	var err error
	if state.LiquidityParam, err = parseField("liquidity_param", snap.LiquidityParam); err != nil {
		return model.MarketState{}, err
	}
	if state.YesSold, err = parseField("yes_sold", snap.YesSold); err != nil {
		return model.MarketState{}, err
	}
	if state.NoSold, err = parseField("no_sold", snap.NoSold); err != nil {
		return model.MarketState{}, err
	}
	if state.CollateralPool, err = parseField("collateral_pool", snap.CollateralPool); err != nil {
		return model.MarketState{}, err
	}

	for _, b := range snap.Balances {
		balance, err := parseField("balance", b.Balance)
		if err != nil {
			return model.MarketState{}, err
		}
		state.Balances[model.PositionKey{User: b.User, Outcome: model.Outcome(b.Outcome)}] = balance
	}

	if err := state.Validate(); err != nil {
		return model.MarketState{}, err
	}
	return state, nil
}

func parseField(name, value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s %q", model.ErrStorageCorrupted, name, value)
	}
	return v, nil
}
