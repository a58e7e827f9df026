package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Outcome selects one side of a binary market. The wire encoding is
// 0 = YES, 1 = NO; anything else is rejected.
type Outcome uint32

const (
	OutcomeYes Outcome = 0
	OutcomeNo  Outcome = 1
)

// Valid reports whether o is one of the two defined outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "YES"
	case OutcomeNo:
		return "NO"
	default:
		return fmt.Sprintf("Outcome(%d)", uint32(o))
	}
}

// Opposite returns the other side of the market.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// ParseOutcome accepts "yes"/"no" (case-insensitive) or the numeric selector.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "0":
		return OutcomeYes, nil
	case "no", "1":
		return OutcomeNo, nil
	default:
		return 0, ErrInvalidOutcome
	}
}

// PositionKey identifies a user's holding of one outcome token.
type PositionKey struct {
	User    string
	Outcome Outcome
}

// MarketState is the full persisted state of one market: the immutable
// parameters, the mutable AMM quantities, and the per-user token balances.
// Stores load it before an operation and commit it back after; the engine
// never mutates a state it did not load in the same call.
type MarketState struct {
	ID              string
	Oracle          string
	CollateralToken string
	LiquidityParam  *big.Int
	MetadataHash    string

	YesSold        *big.Int
	NoSold         *big.Int
	CollateralPool *big.Int
	Resolved       bool
	WinningOutcome Outcome

	Balances map[PositionKey]*big.Int
}

// MarketID derives a deterministic identifier from the immutable market
// parameters, so re-creating the same market yields the same ID.
func MarketID(oracle, collateralToken, metadataHash string) string {
	h := crypto.Keccak256Hash(
		[]byte(oracle),
		[]byte(collateralToken),
		[]byte(metadataHash),
	)
	return h.Hex()
}

// Balance returns the user's holding of an outcome token, treating an
// absent entry as zero.
func (m *MarketState) Balance(user string, outcome Outcome) *big.Int {
	if b, ok := m.Balances[PositionKey{User: user, Outcome: outcome}]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// SetBalance records the user's holding of an outcome token.
func (m *MarketState) SetBalance(user string, outcome Outcome, amount *big.Int) {
	if m.Balances == nil {
		m.Balances = make(map[PositionKey]*big.Int)
	}
	m.Balances[PositionKey{User: user, Outcome: outcome}] = new(big.Int).Set(amount)
}

// Quantity returns the outstanding issued quantity for an outcome.
func (m *MarketState) Quantity(outcome Outcome) *big.Int {
	if outcome == OutcomeYes {
		return m.YesSold
	}
	return m.NoSold
}

// Validate checks that every required field is present and consistent.
// A persisted state failing this check is reported as corrupted rather
// than acted on.
func (m *MarketState) Validate() error {
	switch {
	case m.ID == "" || m.Oracle == "" || m.CollateralToken == "":
		return fmt.Errorf("%w: missing identity fields", ErrStorageCorrupted)
	case m.LiquidityParam == nil || m.YesSold == nil || m.NoSold == nil || m.CollateralPool == nil:
		return fmt.Errorf("%w: missing numeric fields", ErrStorageCorrupted)
	case m.LiquidityParam.Sign() <= 0:
		return fmt.Errorf("%w: non-positive liquidity parameter", ErrStorageCorrupted)
	case m.YesSold.Sign() < 0 || m.NoSold.Sign() < 0:
		return fmt.Errorf("%w: negative outstanding quantity", ErrStorageCorrupted)
	case m.CollateralPool.Sign() < 0:
		return fmt.Errorf("%w: negative collateral pool", ErrStorageCorrupted)
	case m.Resolved && !m.WinningOutcome.Valid():
		return fmt.Errorf("%w: resolved without a winning outcome", ErrStorageCorrupted)
	}
	return nil
}

// Clone deep-copies the state so a failed operation leaves the loaded
// snapshot untouched.
func (m *MarketState) Clone() MarketState {
	out := *m
	out.LiquidityParam = new(big.Int).Set(m.LiquidityParam)
	out.YesSold = new(big.Int).Set(m.YesSold)
	out.NoSold = new(big.Int).Set(m.NoSold)
	out.CollateralPool = new(big.Int).Set(m.CollateralPool)
	out.Balances = make(map[PositionKey]*big.Int, len(m.Balances))
	for k, v := range m.Balances {
		out.Balances[k] = new(big.Int).Set(v)
	}
	return out
}
