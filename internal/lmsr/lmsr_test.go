package lmsr

import (
	"errors"
	"math/big"
	"testing"

	"lmsrMarket/internal/fixedpoint"
	"lmsrMarket/internal/model"
)

func scaled(v int64) *big.Int {
	return big.NewInt(v * fixedpoint.Scale)
}

func TestPriceAtEquilibrium(t *testing.T) {
	b := scaled(100)
	zero := big.NewInt(0)

	for _, outcome := range []model.Outcome{model.OutcomeYes, model.OutcomeNo} {
		price, err := Price(zero, zero, outcome, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Within 1% of 0.5.
		if price.Int64() < 4_900_000 || price.Int64() > 5_100_000 {
			t.Fatalf("equilibrium %s price = %s, want ~5_000_000", outcome, price)
		}
	}
}

func TestPricesSumToOne(t *testing.T) {
	b := scaled(100)
	qYes := scaled(30)
	qNo := scaled(10)

	priceYes, err := Price(qYes, qNo, model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	priceNo, err := Price(qYes, qNo, model.OutcomeNo, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := new(big.Int).Add(priceYes, priceNo)
	diff := new(big.Int).Sub(sum, big.NewInt(fixedpoint.Scale))
	if diff.CmpAbs(big.NewInt(10_000)) > 0 {
		t.Fatalf("priceYes+priceNo = %s, want ~%d", sum, fixedpoint.Scale)
	}
	if priceYes.Cmp(priceNo) <= 0 {
		t.Fatalf("more-bought side must be dearer: yes=%s no=%s", priceYes, priceNo)
	}
}

func TestRoundTripSymmetry(t *testing.T) {
	b := scaled(100)
	zero := big.NewInt(0)
	amount := scaled(10)

	cost, err := BuyCost(zero, zero, amount, model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost.Sign() <= 0 {
		t.Fatalf("buy cost must be positive, got %s", cost)
	}

	ret, err := SellReturn(amount, zero, amount, model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ret.Cmp(cost) != 0 {
		t.Fatalf("round trip not symmetric: bought for %s, sold for %s", cost, ret)
	}
}

func TestBuyCostMonotonic(t *testing.T) {
	b := scaled(100)
	zero := big.NewInt(0)

	prev := big.NewInt(0)
	for _, units := range []int64{1, 2, 5, 10, 25, 50} {
		cost, err := BuyCost(zero, zero, scaled(units), model.OutcomeYes, b)
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", units, err)
		}
		if cost.Cmp(prev) <= 0 {
			t.Fatalf("cost not strictly increasing: %s after %s", cost, prev)
		}
		prev = cost
	}
}

func TestInitialLiquidity(t *testing.T) {
	b := scaled(100)
	liquidity, err := InitialLiquidity(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 * ln(2) ~ 69.3
	if liquidity.Cmp(scaled(69)) <= 0 || liquidity.Cmp(scaled(70)) >= 0 {
		t.Fatalf("initial liquidity = %s, want in (69, 70) scaled", liquidity)
	}
}

func TestSellMoreThanOutstanding(t *testing.T) {
	b := scaled(100)
	_, err := SellReturn(scaled(5), big.NewInt(0), scaled(10), model.OutcomeYes, b)
	if !errors.Is(err, model.ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestInvalidInputs(t *testing.T) {
	b := scaled(100)
	zero := big.NewInt(0)

	if _, err := Cost(zero, zero, zero); !errors.Is(err, model.ErrInvalidLiquidity) {
		t.Fatalf("expected ErrInvalidLiquidity, got %v", err)
	}
	if _, err := BuyCost(zero, zero, zero, model.OutcomeYes, b); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := BuyCost(zero, zero, scaled(1), model.Outcome(7), b); !errors.Is(err, model.ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
	if _, err := Price(zero, zero, model.Outcome(7), b); !errors.Is(err, model.ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
}

func TestNilAmount(t *testing.T) {
	// A nil bound means "not set" at the CLI layer, so nil can reach the
	// pricing entry points and must fail cleanly, not dereference.
	b := scaled(100)
	zero := big.NewInt(0)

	if _, err := BuyCost(zero, zero, nil, model.OutcomeYes, b); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := SellReturn(scaled(5), zero, nil, model.OutcomeYes, b); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := BuyQuote(zero, zero, nil, model.OutcomeYes, b); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := SellQuote(scaled(5), zero, nil, model.OutcomeYes, b); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBuyQuoteMovesPriceUp(t *testing.T) {
	b := scaled(100)
	zero := big.NewInt(0)

	before, err := Price(zero, zero, model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := BuyQuote(zero, zero, scaled(20), model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PriceAfter.Cmp(before) <= 0 {
		t.Fatalf("post-trade price %s not above spot %s", q.PriceAfter, before)
	}
}

func TestSellQuoteMovesPriceDown(t *testing.T) {
	b := scaled(100)
	qYes := scaled(20)
	zero := big.NewInt(0)

	before, err := Price(qYes, zero, model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := SellQuote(qYes, zero, scaled(10), model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.PriceAfter.Cmp(before) >= 0 {
		t.Fatalf("post-trade price %s not below spot %s", q.PriceAfter, before)
	}
}

func TestCostPathIndependence(t *testing.T) {
	// Two buys reaching the same quantity vector cost the same as one.
	b := scaled(100)
	zero := big.NewInt(0)

	whole, err := BuyCost(zero, zero, scaled(10), model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := BuyCost(zero, zero, scaled(4), model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuyCost(scaled(4), zero, scaled(6), model.OutcomeYes, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	split := new(big.Int).Add(first, second)
	if split.Cmp(whole) != 0 {
		t.Fatalf("path dependence: split %s vs whole %s", split, whole)
	}
}
