// Package fixedpoint implements deterministic fixed-point arithmetic with
// seven decimal places of fractional precision (scale 10^7), matching the
// settlement asset's native precision.
//
// Values are *big.Int restricted to the signed 128-bit range. Every
// arithmetic step is checked against that range; exceeding it fails with
// ErrOverflow instead of wrapping. Division truncates toward zero. Results
// are therefore exact and reproducible across re-execution, which the
// pricing layer depends on.
package fixedpoint

import (
	"errors"
	"math/big"
)

// Scale is the fixed-point unit representing 1.0.
const Scale int64 = 10_000_000 // 10^7

// Ln2 is ln(2) scaled by Scale.
const Ln2 int64 = 6_931_472

const (
	expIterations = 20
	lnIterations  = 30
	expInputCap   = 20 * Scale
)

// ErrOverflow reports that a value left the signed 128-bit range, or that
// a transcendental function was called outside its domain.
var ErrOverflow = errors.New("fixed-point overflow")

var (
	scaleBig = big.NewInt(Scale)
	ln2Big   = big.NewInt(Ln2)
	one      = big.NewInt(1)
	two      = big.NewInt(2)

	// [-2^127, 2^127-1]
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(one, 127), one)
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(one, 127))
)

func checked(z *big.Int) (*big.Int, error) {
	if z.Cmp(maxInt128) > 0 || z.Cmp(minInt128) < 0 {
		return nil, ErrOverflow
	}
	return z, nil
}

// Add returns a+b, checked.
func Add(a, b *big.Int) (*big.Int, error) {
	return checked(new(big.Int).Add(a, b))
}

// Sub returns a-b, checked.
func Sub(a, b *big.Int) (*big.Int, error) {
	return checked(new(big.Int).Sub(a, b))
}

// Mul returns a*b, checked.
func Mul(a, b *big.Int) (*big.Int, error) {
	return checked(new(big.Int).Mul(a, b))
}

// Quo returns a/b truncated toward zero. Division by zero fails with
// ErrOverflow rather than panicking.
func Quo(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrOverflow
	}
	return checked(new(big.Int).Quo(a, b))
}

// Exp approximates e^x for a scaled input via the truncated Taylor series
// term_n = term_{n-1}*x/n, summing until the next term is below one scaled
// unit or the iteration cap is reached.
//
// Inputs below -20*Scale saturate to 0; inputs above +20*Scale fail with
// ErrOverflow since the result would leave the representable range.
func Exp(x *big.Int) (*big.Int, error) {
	if !x.IsInt64() {
		if x.Sign() < 0 {
			return new(big.Int), nil
		}
		return nil, ErrOverflow
	}
	if x.Int64() < -expInputCap {
		return new(big.Int), nil
	}
	if x.Int64() > expInputCap {
		return nil, ErrOverflow
	}

	result := big.NewInt(Scale) // 1.0
	term := big.NewInt(Scale)

	for n := int64(1); n <= expIterations; n++ {
		t, err := Mul(term, x)
		if err != nil {
			return nil, err
		}
		term, err = Quo(t, big.NewInt(n*Scale))
		if err != nil {
			return nil, err
		}

		result, err = Add(result, term)
		if err != nil {
			return nil, err
		}

		if term.CmpAbs(one) < 0 {
			break
		}
	}

	if result.Sign() < 0 {
		return new(big.Int), nil
	}
	return result, nil
}

// Ln approximates the natural logarithm of a scaled input. Non-positive
// inputs fail with ErrOverflow; Ln(Scale) is exactly 0.
//
// The input is range-reduced into [Scale, 2*Scale) by repeated halving or
// doubling while tracking the power-of-two exponent n, then the alternating
// series for ln(1+y) is summed on the reduced value, and n*ln(2) is added
// back using the precomputed Ln2 constant.
func Ln(x *big.Int) (*big.Int, error) {
	if x.Sign() <= 0 {
		return nil, ErrOverflow
	}
	if x.Cmp(scaleBig) == 0 {
		return new(big.Int), nil
	}
	if x.Cmp(maxInt128) > 0 {
		return nil, ErrOverflow
	}

	normalized := new(big.Int).Set(x)
	n := int64(0)

	doubleScale := new(big.Int).Mul(scaleBig, two)
	for normalized.Cmp(doubleScale) >= 0 {
		normalized.Quo(normalized, two)
		n++
	}
	for normalized.Cmp(scaleBig) < 0 {
		normalized.Mul(normalized, two)
		n--
	}

	// ln(1+y) = y - y^2/2 + y^3/3 - ... with y = normalized - Scale
	yNum := new(big.Int).Sub(normalized, scaleBig)

	result := new(big.Int)
	yPower := new(big.Int).Set(yNum)
	sign := int64(1)

	for k := int64(1); k <= lnIterations; k++ {
		term := new(big.Int).Mul(big.NewInt(sign), yPower)
		term.Quo(term, big.NewInt(k))

		var err error
		result, err = Add(result, term)
		if err != nil {
			return nil, err
		}

		p, err := Mul(yPower, yNum)
		if err != nil {
			return nil, err
		}
		yPower, err = Quo(p, scaleBig)
		if err != nil {
			return nil, err
		}

		sign = -sign

		if yPower.CmpAbs(one) < 0 {
			break
		}
	}

	adjustment, err := Mul(big.NewInt(n), ln2Big)
	if err != nil {
		return nil, err
	}
	return Add(result, adjustment)
}
