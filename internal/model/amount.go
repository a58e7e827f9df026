package model

import (
	"fmt"
	"math/big"
	"strings"
)

// Amounts are fixed-point integers scaled by 10^7, matching the settlement
// asset's seven decimal places so engine amounts convert 1:1 to ledger
// amounts. ParseAmount and FormatAmount convert at the CLI boundary only;
// nothing inside the pricing path touches decimal strings or floats.

const amountDecimals = 7

var amountScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(amountDecimals), nil)

// ParseAmount converts a decimal string like "10.5" into a scaled amount.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > amountDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, amountDecimals)
	}
	// Only digits past this point; SetString alone would accept a second
	// sign inside either part.
	if !digitsOnly(whole) || (frac != "" && !digitsOnly(frac)) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	frac = frac + strings.Repeat("0", amountDecimals-len(frac))

	w, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	f, ok := new(big.Int).SetString(frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}

	out := w.Mul(w, amountScale)
	out.Add(out, f)
	if neg {
		out.Neg(out)
	}
	return out, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders a scaled amount as a decimal string with trailing
// zeros trimmed.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Abs(v)
	if v.Sign() < 0 {
		sign = "-"
	}

	whole := new(big.Int)
	frac := new(big.Int)
	whole.QuoRem(abs, amountScale, frac)

	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	digits := fmt.Sprintf("%0*s", amountDecimals, frac.String())
	digits = strings.TrimRight(digits, "0")
	return sign + whole.String() + "." + digits
}
