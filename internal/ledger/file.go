package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
)

// FileLedger persists asset balances in a JSON file, written atomically
// via temp file and rename. It backs local file-mode runs where no real
// settlement rail is attached.
type FileLedger struct {
	path string
	mu   sync.Mutex
}

func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// On disk: asset -> account -> decimal balance string.
type fileBalances map[string]map[string]string

func (l *FileLedger) Transfer(_ context.Context, asset, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidTransfer
	}
	if amount.Sign() == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balances, err := l.read()
	if err != nil {
		return err
	}

	fromBalance, err := lookup(balances, asset, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	// Both legs land on the same account; writing them separately would
	// let the credit overwrite the debit.
	if from == to {
		return nil
	}
	toBalance, err := lookup(balances, asset, to)
	if err != nil {
		return err
	}

	set(balances, asset, from, fromBalance.Sub(fromBalance, amount))
	set(balances, asset, to, toBalance.Add(toBalance, amount))
	return l.write(balances)
}

// Credit adds funds to an account outside of a transfer. Operator tooling
// for seeding accounts in local mode.
func (l *FileLedger) Credit(_ context.Context, asset, account string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balances, err := l.read()
	if err != nil {
		return err
	}
	balance, err := lookup(balances, asset, account)
	if err != nil {
		return err
	}
	set(balances, asset, account, balance.Add(balance, amount))
	return l.write(balances)
}

func (l *FileLedger) BalanceOf(_ context.Context, asset, account string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances, err := l.read()
	if err != nil {
		return nil, err
	}
	return lookup(balances, asset, account)
}

func (l *FileLedger) read() (fileBalances, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(fileBalances), nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	var balances fileBalances
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, fmt.Errorf("parse ledger file: %w", err)
	}
	if balances == nil {
		balances = make(fileBalances)
	}
	return balances, nil
}

func (l *FileLedger) write(balances fileBalances) error {
	dir := filepath.Dir(l.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(balances, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger tmp: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}

func lookup(balances fileBalances, asset, account string) (*big.Int, error) {
	accounts, ok := balances[asset]
	if !ok {
		return new(big.Int), nil
	}
	raw, ok := accounts[account]
	if !ok {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance %q for %s/%s", raw, asset, account)
	}
	return v, nil
}

func set(balances fileBalances, asset, account string, amount *big.Int) {
	accounts, ok := balances[asset]
	if !ok {
		accounts = make(map[string]string)
		balances[asset] = accounts
	}
	accounts[account] = amount.String()
}
