package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lmsrMarket/internal/ledger"
)

// Ledger implements asset transfers against a Postgres accounts table.
// Both legs of a transfer run in one transaction with the source row
// locked, so a transfer either fully applies or not at all.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(ctx context.Context, dsn string) (*Ledger, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Ledger{pool: pool}, nil
}

func (l *Ledger) Close() {
	if l.pool != nil {
		l.pool.Close()
	}
}

// EnsureSchema creates the accounts table if absent.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_accounts (
			asset TEXT NOT NULL,
			account TEXT NOT NULL,
			balance NUMERIC(39,0) NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (asset, account)
		);
	`)
	return err
}

// Credit adds funds to an account outside of a transfer. Operator tooling
// for seeding test accounts; production balances arrive via deposits.
func (l *Ledger) Credit(ctx context.Context, asset, account string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ledger.ErrInvalidTransfer
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO ledger_accounts (asset, account, balance, updated_at)
		VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (asset, account) DO UPDATE
		SET balance = ledger_accounts.balance + EXCLUDED.balance, updated_at = now()
	`, asset, account, amount.String())
	return err
}

func (l *Ledger) Transfer(ctx context.Context, asset, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ledger.ErrInvalidTransfer
	}
	if amount.Sign() == 0 {
		return nil
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var balance string
	row := tx.QueryRow(ctx, `
		SELECT balance::text FROM ledger_accounts
		WHERE asset=$1 AND account=$2 FOR UPDATE
	`, asset, from)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrInsufficientFunds
		}
		return err
	}

	current, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return fmt.Errorf("invalid balance %q for %s/%s", balance, asset, from)
	}
	if current.Cmp(amount) < 0 {
		return ledger.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE ledger_accounts SET balance = balance - $3::numeric, updated_at = now()
		WHERE asset=$1 AND account=$2
	`, asset, from, amount.String())
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_accounts (asset, account, balance, updated_at)
		VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (asset, account) DO UPDATE
		SET balance = ledger_accounts.balance + EXCLUDED.balance, updated_at = now()
	`, asset, to, amount.String())
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (l *Ledger) BalanceOf(ctx context.Context, asset, account string) (*big.Int, error) {
	var balance string
	row := l.pool.QueryRow(ctx, `
		SELECT balance::text FROM ledger_accounts WHERE asset=$1 AND account=$2
	`, asset, account)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return new(big.Int), nil
		}
		return nil, err
	}
	v, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance %q for %s/%s", balance, asset, account)
	}
	return v, nil
}
