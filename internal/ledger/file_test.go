package ledger

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
)

func TestFileLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := NewFileLedger(path)

	if err := l.Credit(ctx, "USDX", "alice", big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Transfer(ctx, "USDX", "alice", "bob", big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// Re-open from disk to prove balances persisted.
	l = NewFileLedger(path)
	alice, err := l.BalanceOf(ctx, "USDX", "alice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if alice.Int64() != 60 {
		t.Fatalf("alice = %s, want 60", alice)
	}
	bob, err := l.BalanceOf(ctx, "USDX", "bob")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bob.Int64() != 40 {
		t.Fatalf("bob = %s, want 40", bob)
	}

	if err := l.Transfer(ctx, "USDX", "alice", "bob", big.NewInt(100)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := l.Transfer(ctx, "USDX", "alice", "bob", big.NewInt(-1)); !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("expected ErrInvalidTransfer, got %v", err)
	}
	if err := l.Transfer(ctx, "USDX", "alice", "bob", nil); !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("expected ErrInvalidTransfer, got %v", err)
	}
}

func TestFileLedgerSelfTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewFileLedger(filepath.Join(t.TempDir(), "ledger.json"))

	if err := l.Credit(ctx, "USDX", "alice", big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// Debit and credit on the same account must net to zero, not mint.
	if err := l.Transfer(ctx, "USDX", "alice", "alice", big.NewInt(40)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, err := l.BalanceOf(ctx, "USDX", "alice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 100 {
		t.Fatalf("self transfer changed balance: %s, want 100", balance)
	}

	if err := l.Transfer(ctx, "USDX", "alice", "alice", big.NewInt(200)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestMemoryLedgerSelfTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint("USDX", "alice", big.NewInt(100))

	if err := l.Transfer(ctx, "USDX", "alice", "alice", big.NewInt(40)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, err := l.BalanceOf(ctx, "USDX", "alice")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 100 {
		t.Fatalf("self transfer changed balance: %s, want 100", balance)
	}
}
