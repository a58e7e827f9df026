// Package market implements the market state machine: it owns the
// lifecycle Uninitialized -> Open -> Resolved and orchestrates pricing,
// authorization, persistence, and settlement for every public operation.
//
// Each operation loads the state snapshot, validates, computes against the
// pricing engine, and only then moves value and commits the new snapshot.
// A failed step aborts the operation with a typed error and commits
// nothing. The hosting environment serializes operations per market, so no
// two operations interleave on the same state.
package market

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"lmsrMarket/internal/auth"
	"lmsrMarket/internal/ledger"
	"lmsrMarket/internal/lmsr"
	"lmsrMarket/internal/model"
	"lmsrMarket/internal/storage"
)

const (
	// DefaultClaimFeeBPS is the claim fee in basis points: 2% of the
	// gross winning balance. The fee stays in the pool and reaches the
	// oracle through WithdrawRemaining.
	DefaultClaimFeeBPS = 200

	bpsDenominator = 10_000
)

// Config controls engine behavior.
type Config struct {
	// FeeBPS overrides the claim fee; non-positive selects the default.
	FeeBPS int64
}

// Engine executes market operations against injected collaborators.
type Engine struct {
	store  storage.MarketStore
	ledger ledger.Ledger
	auth   auth.Authorizer
	logger *zap.Logger
	feeBPS int64
}

func NewEngine(cfg Config, store storage.MarketStore, ledg ledger.Ledger, authz auth.Authorizer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	feeBPS := cfg.FeeBPS
	if feeBPS <= 0 {
		feeBPS = DefaultClaimFeeBPS
	}
	return &Engine{
		store:  store,
		ledger: ledg,
		auth:   authz,
		logger: logger,
		feeBPS: feeBPS,
	}
}

// InitParams are the immutable parameters of a new market.
type InitParams struct {
	Oracle          string
	CollateralToken string
	LiquidityParam  *big.Int
	MetadataHash    string
	InitialFunding  *big.Int
}

// Initialize creates a market. The oracle supplies at least b*ln(2) of
// collateral so the pool can always cover the worst-case payout.
func (e *Engine) Initialize(ctx context.Context, p InitParams) (model.MarketState, error) {
	if p.LiquidityParam == nil || p.LiquidityParam.Sign() <= 0 {
		return model.MarketState{}, model.ErrInvalidLiquidity
	}

	id := model.MarketID(p.Oracle, p.CollateralToken, p.MetadataHash)
	if _, found, err := e.store.Load(ctx, id); err != nil {
		return model.MarketState{}, err
	} else if found {
		return model.MarketState{}, model.ErrAlreadyInitialized
	}

	required, err := lmsr.InitialLiquidity(p.LiquidityParam)
	if err != nil {
		return model.MarketState{}, err
	}
	if p.InitialFunding == nil || p.InitialFunding.Cmp(required) < 0 {
		return model.MarketState{}, fmt.Errorf("%w: initial funding below b*ln(2)", model.ErrInvalidAmount)
	}

	if err := e.auth.RequireAuth(ctx, p.Oracle); err != nil {
		return model.MarketState{}, err
	}

	if err := e.ledger.Transfer(ctx, p.CollateralToken, p.Oracle, id, p.InitialFunding); err != nil {
		return model.MarketState{}, err
	}

	state := model.MarketState{
		ID:              id,
		Oracle:          p.Oracle,
		CollateralToken: p.CollateralToken,
		LiquidityParam:  new(big.Int).Set(p.LiquidityParam),
		MetadataHash:    p.MetadataHash,
		YesSold:         new(big.Int),
		NoSold:          new(big.Int),
		CollateralPool:  new(big.Int).Set(p.InitialFunding),
		Balances:        make(map[model.PositionKey]*big.Int),
	}
	if err := e.store.Save(ctx, state); err != nil {
		e.logger.Error("initialize: funding transferred but state commit failed",
			zap.String("market", id), zap.Error(err))
		return model.MarketState{}, err
	}

	e.logger.Info("market initialized",
		zap.String("market", id),
		zap.String("oracle", p.Oracle),
		zap.String("collateral_token", p.CollateralToken),
		zap.String("liquidity_param", p.LiquidityParam.String()),
		zap.String("initial_funding", p.InitialFunding.String()),
	)
	return state, nil
}

// Buy purchases outcome tokens at the LMSR cost, bounded by maxCost.
// Returns the collateral actually paid.
func (e *Engine) Buy(ctx context.Context, marketID, user string, outcome model.Outcome, amount, maxCost *big.Int) (*big.Int, error) {
	state, err := e.loadOpen(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if !outcome.Valid() {
		return nil, model.ErrInvalidOutcome
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if err := e.auth.RequireAuth(ctx, user); err != nil {
		return nil, err
	}

	cost, err := lmsr.BuyCost(state.YesSold, state.NoSold, amount, outcome, state.LiquidityParam)
	if err != nil {
		return nil, err
	}
	if maxCost != nil && cost.Cmp(maxCost) > 0 {
		return nil, model.ErrSlippageExceeded
	}

	if err := e.ledger.Transfer(ctx, state.CollateralToken, user, state.ID, cost); err != nil {
		return nil, err
	}

	next := state.Clone()
	if outcome == model.OutcomeYes {
		next.YesSold.Add(next.YesSold, amount)
	} else {
		next.NoSold.Add(next.NoSold, amount)
	}
	next.CollateralPool.Add(next.CollateralPool, cost)
	balance := next.Balance(user, outcome)
	next.SetBalance(user, outcome, balance.Add(balance, amount))

	if err := e.store.Save(ctx, next); err != nil {
		e.logger.Error("buy: collateral transferred but state commit failed",
			zap.String("market", marketID), zap.String("user", user), zap.Error(err))
		return nil, err
	}

	e.logger.Info("buy",
		zap.String("market", marketID),
		zap.String("user", user),
		zap.String("outcome", outcome.String()),
		zap.String("amount", amount.String()),
		zap.String("cost", cost.String()),
	)
	return cost, nil
}

// Sell redeems outcome tokens for the LMSR return, bounded below by
// minReturn. Returns the collateral actually received.
func (e *Engine) Sell(ctx context.Context, marketID, user string, outcome model.Outcome, amount, minReturn *big.Int) (*big.Int, error) {
	state, err := e.loadOpen(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if !outcome.Valid() {
		return nil, model.ErrInvalidOutcome
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if err := e.auth.RequireAuth(ctx, user); err != nil {
		return nil, err
	}

	balance := state.Balance(user, outcome)
	if balance.Cmp(amount) < 0 {
		return nil, model.ErrInsufficientBalance
	}

	ret, err := lmsr.SellReturn(state.YesSold, state.NoSold, amount, outcome, state.LiquidityParam)
	if err != nil {
		return nil, err
	}
	if minReturn != nil && ret.Cmp(minReturn) < 0 {
		return nil, model.ErrReturnTooLow
	}
	// Guards against math/state inconsistency; cannot trip if the
	// conservation invariant holds.
	if state.CollateralPool.Cmp(ret) < 0 {
		return nil, model.ErrInsufficientPool
	}

	next := state.Clone()
	if outcome == model.OutcomeYes {
		next.YesSold.Sub(next.YesSold, amount)
	} else {
		next.NoSold.Sub(next.NoSold, amount)
	}
	next.CollateralPool.Sub(next.CollateralPool, ret)
	next.SetBalance(user, outcome, balance.Sub(balance, amount))

	if err := e.store.Save(ctx, next); err != nil {
		return nil, err
	}

	if err := e.ledger.Transfer(ctx, state.CollateralToken, state.ID, user, ret); err != nil {
		e.logger.Error("sell: state committed but payout transfer failed",
			zap.String("market", marketID), zap.String("user", user), zap.Error(err))
		return nil, err
	}

	e.logger.Info("sell",
		zap.String("market", marketID),
		zap.String("user", user),
		zap.String("outcome", outcome.String()),
		zap.String("amount", amount.String()),
		zap.String("return", ret.String()),
	)
	return ret, nil
}

// Resolve fixes the winning outcome. Oracle-only, irreversible.
func (e *Engine) Resolve(ctx context.Context, marketID, oracle string, winning model.Outcome) error {
	state, err := e.loadOpen(ctx, marketID)
	if err != nil {
		return err
	}
	if !winning.Valid() {
		return model.ErrInvalidOutcome
	}
	if oracle != state.Oracle {
		return model.ErrUnauthorized
	}
	if err := e.auth.RequireAuth(ctx, oracle); err != nil {
		return err
	}

	next := state.Clone()
	next.Resolved = true
	next.WinningOutcome = winning
	if err := e.store.Save(ctx, next); err != nil {
		return err
	}

	e.logger.Info("market resolved",
		zap.String("market", marketID),
		zap.String("winning_outcome", winning.String()),
	)
	return nil
}

// Claim pays out the user's winning balance minus the claim fee. The fee
// truncates toward zero, so dust balances below the fee granularity pay no
// fee; that rounding is deliberate and kept as-is. Returns the net payout.
func (e *Engine) Claim(ctx context.Context, marketID, user string) (*big.Int, error) {
	state, err := e.loadResolved(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if err := e.auth.RequireAuth(ctx, user); err != nil {
		return nil, err
	}

	gross := state.Balance(user, state.WinningOutcome)
	if gross.Sign() <= 0 {
		return nil, model.ErrNothingToClaim
	}

	fee := new(big.Int).Mul(gross, big.NewInt(e.feeBPS))
	fee.Quo(fee, big.NewInt(bpsDenominator))
	net := new(big.Int).Sub(gross, fee)

	if state.CollateralPool.Cmp(net) < 0 {
		return nil, model.ErrInsufficientPool
	}

	next := state.Clone()
	next.SetBalance(user, state.WinningOutcome, new(big.Int))
	next.CollateralPool.Sub(next.CollateralPool, net)

	if err := e.store.Save(ctx, next); err != nil {
		return nil, err
	}

	if err := e.ledger.Transfer(ctx, state.CollateralToken, state.ID, user, net); err != nil {
		e.logger.Error("claim: state committed but payout transfer failed",
			zap.String("market", marketID), zap.String("user", user), zap.Error(err))
		return nil, err
	}

	e.logger.Info("claim",
		zap.String("market", marketID),
		zap.String("user", user),
		zap.String("gross", gross.String()),
		zap.String("fee", fee.String()),
		zap.String("net", net.String()),
	)
	return net, nil
}

// WithdrawRemaining drains whatever is left in the pool to the oracle:
// losing-side stakes plus accumulated claim fees. Oracle-only, valid after
// resolution; callable before all winners have claimed, in which case the
// pool simply reflects what remains.
func (e *Engine) WithdrawRemaining(ctx context.Context, marketID, oracle string) (*big.Int, error) {
	state, err := e.loadResolved(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if oracle != state.Oracle {
		return nil, model.ErrUnauthorized
	}
	if err := e.auth.RequireAuth(ctx, oracle); err != nil {
		return nil, err
	}

	if state.CollateralPool.Sign() <= 0 {
		return nil, model.ErrInsufficientPool
	}
	amount := new(big.Int).Set(state.CollateralPool)

	next := state.Clone()
	next.CollateralPool.SetInt64(0)
	if err := e.store.Save(ctx, next); err != nil {
		return nil, err
	}

	if err := e.ledger.Transfer(ctx, state.CollateralToken, state.ID, oracle, amount); err != nil {
		e.logger.Error("withdraw: state committed but transfer failed",
			zap.String("market", marketID), zap.Error(err))
		return nil, err
	}

	e.logger.Info("withdraw remaining",
		zap.String("market", marketID),
		zap.String("amount", amount.String()),
	)
	return amount, nil
}

// Price returns the spot price of an outcome, scaled so that
// fixedpoint.Scale means probability 1.
func (e *Engine) Price(ctx context.Context, marketID string, outcome model.Outcome) (*big.Int, error) {
	state, err := e.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return lmsr.Price(state.YesSold, state.NoSold, outcome, state.LiquidityParam)
}

// BuyQuote previews a buy: cost plus the post-trade price.
func (e *Engine) BuyQuote(ctx context.Context, marketID string, outcome model.Outcome, amount *big.Int) (lmsr.Quote, error) {
	state, err := e.loadOpen(ctx, marketID)
	if err != nil {
		return lmsr.Quote{}, err
	}
	return lmsr.BuyQuote(state.YesSold, state.NoSold, amount, outcome, state.LiquidityParam)
}

// SellQuote previews a sell: return plus the post-trade price.
func (e *Engine) SellQuote(ctx context.Context, marketID string, outcome model.Outcome, amount *big.Int) (lmsr.Quote, error) {
	state, err := e.loadOpen(ctx, marketID)
	if err != nil {
		return lmsr.Quote{}, err
	}
	return lmsr.SellQuote(state.YesSold, state.NoSold, amount, outcome, state.LiquidityParam)
}

// Balance returns the user's holding of an outcome token. An unknown user
// holds zero; this is not an error.
func (e *Engine) Balance(ctx context.Context, marketID, user string, outcome model.Outcome) (*big.Int, error) {
	if !outcome.Valid() {
		return nil, model.ErrInvalidOutcome
	}
	state, err := e.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return state.Balance(user, outcome), nil
}

// State returns the full market state snapshot, covering the remaining
// read queries (oracle, liquidity parameter, metadata hash, collateral
// token, quantities, pool, resolution flag).
func (e *Engine) State(ctx context.Context, marketID string) (model.MarketState, error) {
	return e.load(ctx, marketID)
}

// WinningOutcome is only defined once the market is resolved.
func (e *Engine) WinningOutcome(ctx context.Context, marketID string) (model.Outcome, error) {
	state, err := e.loadResolved(ctx, marketID)
	if err != nil {
		return 0, err
	}
	return state.WinningOutcome, nil
}

func (e *Engine) load(ctx context.Context, marketID string) (model.MarketState, error) {
	state, found, err := e.store.Load(ctx, marketID)
	if err != nil {
		return model.MarketState{}, err
	}
	if !found {
		return model.MarketState{}, model.ErrNotInitialized
	}
	return state, nil
}

func (e *Engine) loadOpen(ctx context.Context, marketID string) (model.MarketState, error) {
	state, err := e.load(ctx, marketID)
	if err != nil {
		return model.MarketState{}, err
	}
	if state.Resolved {
		return model.MarketState{}, model.ErrAlreadyResolved
	}
	return state, nil
}

func (e *Engine) loadResolved(ctx context.Context, marketID string) (model.MarketState, error) {
	state, err := e.load(ctx, marketID)
	if err != nil {
		return model.MarketState{}, err
	}
	if !state.Resolved {
		return model.MarketState{}, model.ErrNotResolved
	}
	return state, nil
}
