package ledger

import (
	"context"
	"math/big"
	"sync"
)

type accountKey struct {
	asset   string
	account string
}

// MemoryLedger keeps asset balances in memory. Used by tests and local
// file-backed runs where no real settlement rail is attached.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[accountKey]*big.Int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[accountKey]*big.Int)}
}

// Mint credits an account, bypassing the transfer checks. Test setup only.
func (l *MemoryLedger) Mint(asset, account string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(asset, account, amount)
}

func (l *MemoryLedger) Transfer(_ context.Context, asset, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	if amount.Sign() == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromKey := accountKey{asset: asset, account: from}
	balance, ok := l.balances[fromKey]
	if !ok || balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	balance.Sub(balance, amount)
	l.credit(asset, to, amount)
	return nil
}

func (l *MemoryLedger) BalanceOf(_ context.Context, asset, account string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.balances[accountKey{asset: asset, account: account}]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (l *MemoryLedger) credit(asset, account string, amount *big.Int) {
	key := accountKey{asset: asset, account: account}
	if b, ok := l.balances[key]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[key] = new(big.Int).Set(amount)
}
