package journal

import (
	"path/filepath"
	"testing"

	"lmsrMarket/internal/model"
)

func record(market, user string, side model.TradeSide) model.TradeRecord {
	return model.TradeRecord{
		Timestamp:  "2026-08-30T12:00:00Z",
		MarketID:   market,
		User:       user,
		Side:       side,
		Outcome:    "YES",
		Amount:     "10",
		Collateral: "5.1234567",
		PriceYes:   "0.52",
	}
}

func TestJournalAppendAndRead(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "trades.jsonl"))

	if err := j.Append(record("m1", "alice", model.TradeBuy)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(record("m2", "bob", model.TradeBuy)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(record("m1", "alice", model.TradeSell)); err != nil {
		t.Fatalf("append: %v", err)
	}

	records, err := j.ReadMarket("m1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records for m1, want 2", len(records))
	}
	if records[0].Side != model.TradeBuy || records[1].Side != model.TradeSell {
		t.Fatalf("append order lost: %v then %v", records[0].Side, records[1].Side)
	}
	if records[0].Collateral != "5.1234567" {
		t.Fatalf("field lost in round trip: %q", records[0].Collateral)
	}

	other, err := j.ReadMarket("m3")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("got %d records for unknown market, want 0", len(other))
	}
}

func TestJournalMissingFile(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "trades.jsonl"))

	records, err := j.ReadMarket("m1")
	if err != nil {
		t.Fatalf("read before any append: %v", err)
	}
	if records != nil {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
