package storage

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"lmsrMarket/internal/model"
)

func testState(id string) model.MarketState {
	state := model.MarketState{
		ID:              id,
		Oracle:          "oracle",
		CollateralToken: "USDX",
		LiquidityParam:  big.NewInt(1_000_000_000),
		MetadataHash:    "QmMeta",
		YesSold:         big.NewInt(250_000_000),
		NoSold:          big.NewInt(100_000_000),
		CollateralPool:  big.NewInt(1_200_000_000),
	}
	state.SetBalance("alice", model.OutcomeYes, big.NewInt(250_000_000))
	state.SetBalance("bob", model.OutcomeNo, big.NewInt(100_000_000))
	return state
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "markets.json")
	store := NewFileStore(path)

	if _, found, err := store.Load(ctx, "m1"); err != nil || found {
		t.Fatalf("load from missing file: found=%v err=%v", found, err)
	}

	want := testState("m1")
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Re-open from disk to prove nothing depended on in-process state.
	store = NewFileStore(path)
	got, found, err := store.Load(ctx, "m1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("saved market not found")
	}

	if got.Oracle != want.Oracle || got.MetadataHash != want.MetadataHash {
		t.Fatalf("identity fields lost: %+v", got)
	}
	if got.YesSold.Cmp(want.YesSold) != 0 || got.NoSold.Cmp(want.NoSold) != 0 {
		t.Fatalf("quantities lost: yes=%s no=%s", got.YesSold, got.NoSold)
	}
	if got.CollateralPool.Cmp(want.CollateralPool) != 0 {
		t.Fatalf("pool lost: %s", got.CollateralPool)
	}
	if got.Balance("alice", model.OutcomeYes).Cmp(big.NewInt(250_000_000)) != 0 {
		t.Fatalf("balance lost: %s", got.Balance("alice", model.OutcomeYes))
	}
	if got.Balance("carol", model.OutcomeYes).Sign() != 0 {
		t.Fatal("unknown user should hold zero")
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "markets.json"))

	for _, id := range []string{"m2", "m1", "m3"} {
		if err := store.Save(ctx, testState(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	states, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("got %d markets, want 3", len(states))
	}
	for i, id := range []string{"m1", "m2", "m3"} {
		if states[i].ID != id {
			t.Fatalf("list order: got %s at %d, want %s", states[i].ID, i, id)
		}
	}
}

func TestFileStoreResolvedRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "markets.json"))

	want := testState("m1")
	want.Resolved = true
	want.WinningOutcome = model.OutcomeNo
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, err := store.Load(ctx, "m1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Resolved || got.WinningOutcome != model.OutcomeNo {
		t.Fatalf("resolution lost: resolved=%v winner=%v", got.Resolved, got.WinningOutcome)
	}
}

func TestFileStoreCorruption(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "markets.json")

	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	if _, _, err := store.Load(ctx, "m1"); !errors.Is(err, model.ErrStorageCorrupted) {
		t.Fatalf("expected ErrStorageCorrupted for malformed file, got %v", err)
	}

	// Parseable JSON with an invalid numeric field is corruption too.
	bad := `{"m1": {"id":"m1","oracle":"oracle","collateral_token":"USDX",` +
		`"liquidity_param":"zzz","yes_sold":"0","no_sold":"0","collateral_pool":"0"}}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Load(ctx, "m1"); !errors.Is(err, model.ErrStorageCorrupted) {
		t.Fatalf("expected ErrStorageCorrupted for bad numeric, got %v", err)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Save(ctx, testState("m1")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, err := store.Load(ctx, "m1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got.CollateralPool.SetInt64(0)

	again, _, err := store.Load(ctx, "m1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if again.CollateralPool.Sign() == 0 {
		t.Fatal("mutating a loaded state leaked into the store")
	}
}
