// Package lmsr prices a binary market with the Logarithmic Market Scoring
// Rule. The cost function is C(q) = b * ln(e^(qYes/b) + e^(qNo/b)); trades
// are priced as cost differences, which makes the cost of reaching any
// quantity vector independent of the trade sequence.
package lmsr

import (
	"math/big"

	"lmsrMarket/internal/fixedpoint"
	"lmsrMarket/internal/model"
)

var scale = big.NewInt(fixedpoint.Scale)

// Cost evaluates the LMSR cost function for scaled quantities and liquidity
// parameter b. It uses the log-sum-exp identity
//
//	ln(e^a + e^b) = max(a,b) + ln(1 + e^(min-max))
//
// so the exponential is only ever taken of a non-positive argument, keeping
// intermediate magnitudes inside the range where the series approximations
// hold.
func Cost(qYes, qNo, b *big.Int) (*big.Int, error) {
	if b.Sign() <= 0 {
		return nil, model.ErrInvalidLiquidity
	}

	qYesOverB, err := scaledQuo(qYes, b)
	if err != nil {
		return nil, err
	}
	qNoOverB, err := scaledQuo(qNo, b)
	if err != nil {
		return nil, err
	}

	maxQ, minQ := qYesOverB, qNoOverB
	if maxQ.Cmp(minQ) < 0 {
		maxQ, minQ = minQ, maxQ
	}

	diff, err := fixedpoint.Sub(minQ, maxQ)
	if err != nil {
		return nil, err
	}
	expDiff, err := fixedpoint.Exp(diff)
	if err != nil {
		return nil, err
	}
	sum, err := fixedpoint.Add(scale, expDiff)
	if err != nil {
		return nil, err
	}
	lnSum, err := fixedpoint.Ln(sum)
	if err != nil {
		return nil, err
	}

	inside, err := fixedpoint.Add(maxQ, lnSum)
	if err != nil {
		return nil, err
	}

	product, err := fixedpoint.Mul(b, inside)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Quo(product, scale)
}

// BuyCost returns the collateral needed to buy `amount` of `outcome` tokens
// at the given quantities: Cost(after) - Cost(before).
func BuyCost(qYes, qNo, amount *big.Int, outcome model.Outcome, b *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if !outcome.Valid() {
		return nil, model.ErrInvalidOutcome
	}

	costBefore, err := Cost(qYes, qNo, b)
	if err != nil {
		return nil, err
	}

	newYes, newNo, err := shift(qYes, qNo, amount, outcome)
	if err != nil {
		return nil, err
	}
	costAfter, err := Cost(newYes, newNo, b)
	if err != nil {
		return nil, err
	}

	return fixedpoint.Sub(costAfter, costBefore)
}

// SellReturn returns the collateral released by selling `amount` of
// `outcome` tokens: Cost(before) - Cost(after). Selling more than the
// outstanding quantity for that outcome fails.
func SellReturn(qYes, qNo, amount *big.Int, outcome model.Outcome, b *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if !outcome.Valid() {
		return nil, model.ErrInvalidOutcome
	}

	outstanding := qYes
	if outcome == model.OutcomeNo {
		outstanding = qNo
	}
	if outstanding.Cmp(amount) < 0 {
		return nil, model.ErrInsufficientLiquidity
	}

	costBefore, err := Cost(qYes, qNo, b)
	if err != nil {
		return nil, err
	}

	newYes, newNo, err := shift(qYes, qNo, new(big.Int).Neg(amount), outcome)
	if err != nil {
		return nil, err
	}
	costAfter, err := Cost(newYes, newNo, b)
	if err != nil {
		return nil, err
	}

	return fixedpoint.Sub(costBefore, costAfter)
}

// Price returns the spot price (probability) of an outcome, scaled so that
// fixedpoint.Scale means 1.0:
//
//	P(o) = e^(q_o/b) / (e^(qYes/b) + e^(qNo/b))
func Price(qYes, qNo *big.Int, outcome model.Outcome, b *big.Int) (*big.Int, error) {
	if b.Sign() <= 0 {
		return nil, model.ErrInvalidLiquidity
	}
	if !outcome.Valid() {
		return nil, model.ErrInvalidOutcome
	}

	qYesOverB, err := scaledQuo(qYes, b)
	if err != nil {
		return nil, err
	}
	qNoOverB, err := scaledQuo(qNo, b)
	if err != nil {
		return nil, err
	}

	expYes, err := fixedpoint.Exp(qYesOverB)
	if err != nil {
		return nil, err
	}
	expNo, err := fixedpoint.Exp(qNoOverB)
	if err != nil {
		return nil, err
	}
	sum, err := fixedpoint.Add(expYes, expNo)
	if err != nil {
		return nil, err
	}
	if sum.Sign() == 0 {
		return nil, fixedpoint.ErrOverflow
	}

	numerator := expYes
	if outcome == model.OutcomeNo {
		numerator = expNo
	}
	scaled, err := fixedpoint.Mul(numerator, scale)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Quo(scaled, sum)
}

// InitialLiquidity returns b*ln(2), the minimum collateral required to
// seed a market so the pool covers the worst-case payout.
func InitialLiquidity(b *big.Int) (*big.Int, error) {
	if b.Sign() <= 0 {
		return nil, model.ErrInvalidLiquidity
	}
	product, err := fixedpoint.Mul(b, big.NewInt(fixedpoint.Ln2))
	if err != nil {
		return nil, err
	}
	return fixedpoint.Quo(product, scale)
}

// Quote bundles the cost of a prospective buy with the spot price the
// chosen outcome would have once the trade settles, so callers can preview
// slippage before committing.
type Quote struct {
	Collateral *big.Int // cost to pay, or return to receive
	PriceAfter *big.Int // post-trade price of the chosen outcome
}

// BuyQuote prices a prospective buy and the resulting post-trade price.
func BuyQuote(qYes, qNo, amount *big.Int, outcome model.Outcome, b *big.Int) (Quote, error) {
	cost, err := BuyCost(qYes, qNo, amount, outcome, b)
	if err != nil {
		return Quote{}, err
	}
	newYes, newNo, err := shift(qYes, qNo, amount, outcome)
	if err != nil {
		return Quote{}, err
	}
	priceAfter, err := Price(newYes, newNo, outcome, b)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Collateral: cost, PriceAfter: priceAfter}, nil
}

// SellQuote prices a prospective sell and the resulting post-trade price.
func SellQuote(qYes, qNo, amount *big.Int, outcome model.Outcome, b *big.Int) (Quote, error) {
	ret, err := SellReturn(qYes, qNo, amount, outcome, b)
	if err != nil {
		return Quote{}, err
	}
	newYes, newNo, err := shift(qYes, qNo, new(big.Int).Neg(amount), outcome)
	if err != nil {
		return Quote{}, err
	}
	priceAfter, err := Price(newYes, newNo, outcome, b)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Collateral: ret, PriceAfter: priceAfter}, nil
}

// scaledQuo computes q*Scale/b, the scaled exponent argument q/b.
func scaledQuo(q, b *big.Int) (*big.Int, error) {
	product, err := fixedpoint.Mul(q, scale)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Quo(product, b)
}

// shift applies a signed quantity delta to the chosen outcome.
func shift(qYes, qNo, delta *big.Int, outcome model.Outcome) (*big.Int, *big.Int, error) {
	if outcome == model.OutcomeYes {
		newYes, err := fixedpoint.Add(qYes, delta)
		return newYes, qNo, err
	}
	newNo, err := fixedpoint.Add(qNo, delta)
	return qYes, newNo, err
}
