package fixedpoint

import (
	"errors"
	"math/big"
	"testing"
)

func TestExpZero(t *testing.T) {
	got, err := Exp(big.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != Scale {
		t.Fatalf("Exp(0) = %s, want %d", got, Scale)
	}
}

func TestExpOne(t *testing.T) {
	got, err := Exp(big.NewInt(Scale))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// e ~ 2.7182818
	if got.Int64() < 27_000_000 || got.Int64() > 28_000_000 {
		t.Fatalf("Exp(1) = %s, want ~27_182_818", got)
	}
}

func TestExpNegative(t *testing.T) {
	got, err := Exp(big.NewInt(-Scale))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1/e ~ 0.3678794
	if got.Int64() < 3_600_000 || got.Int64() > 3_750_000 {
		t.Fatalf("Exp(-1) = %s, want ~3_678_794", got)
	}
}

func TestExpUnderflowSaturates(t *testing.T) {
	got, err := Exp(big.NewInt(-21 * Scale))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("Exp(-21) = %s, want 0", got)
	}
}

func TestExpOverflow(t *testing.T) {
	if _, err := Exp(big.NewInt(21 * Scale)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestLnOne(t *testing.T) {
	got, err := Ln(big.NewInt(Scale))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("Ln(1) = %s, want exactly 0", got)
	}
}

func TestLnE(t *testing.T) {
	got, err := Ln(big.NewInt(27_182_818))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() < 9_900_000 || got.Int64() > 10_100_000 {
		t.Fatalf("Ln(e) = %s, want ~%d", got, Scale)
	}
}

func TestLnTwo(t *testing.T) {
	got, err := Ln(big.NewInt(2 * Scale))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() < Ln2-100 || got.Int64() > Ln2+100 {
		t.Fatalf("Ln(2) = %s, want ~%d", got, Ln2)
	}
}

func TestLnSmall(t *testing.T) {
	// ln(0.5) = -ln(2)
	got, err := Ln(big.NewInt(Scale / 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() > -Ln2+100 || got.Int64() < -Ln2-100 {
		t.Fatalf("Ln(0.5) = %s, want ~%d", got, -Ln2)
	}
}

func TestLnNonPositive(t *testing.T) {
	if _, err := Ln(big.NewInt(0)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow for Ln(0), got %v", err)
	}
	if _, err := Ln(big.NewInt(-Scale)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow for Ln(-1), got %v", err)
	}
}

func TestCheckedMulOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	if _, err := Mul(huge, huge); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestQuoTruncatesTowardZero(t *testing.T) {
	got, err := Quo(big.NewInt(-7), big.NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != -3 {
		t.Fatalf("Quo(-7, 2) = %s, want -3", got)
	}
}

func TestQuoByZero(t *testing.T) {
	if _, err := Quo(big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}
