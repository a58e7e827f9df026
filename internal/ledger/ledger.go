// Package ledger abstracts the external asset-transfer primitive. The
// market engine never holds collateral itself; it instructs a Ledger to
// move value between the user's account and the market's own account.
package ledger

import (
	"context"
	"errors"
	"math/big"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransfer   = errors.New("invalid transfer")
)

// Ledger moves `amount` of `asset` from one account to another. A transfer
// that cannot complete (unknown account, insufficient balance) fails as a
// whole; implementations must never apply a partial movement.
type Ledger interface {
	Transfer(ctx context.Context, asset, from, to string, amount *big.Int) error
	BalanceOf(ctx context.Context, asset, account string) (*big.Int, error)
}
