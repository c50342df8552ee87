package game

import (
	"errors"
	"math/rand"
	"testing"
)

func TestParseDiceExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr    string
		want    DiceSpec
		wantErr error
	}{
		{"2d6+3", DiceSpec{Count: 2, Sides: 6, Modifier: 3}, nil},
		{"d20", DiceSpec{Count: 1, Sides: 20}, nil},
		{"4d8-2", DiceSpec{Count: 4, Sides: 8, Modifier: -2}, nil},
		{" 1D12 ", DiceSpec{Count: 1, Sides: 12}, nil},
		{"200d6", DiceSpec{}, ErrTooManyDice},
		{"0d6", DiceSpec{}, ErrInvalidDiceExpr},
		{"2d1", DiceSpec{}, ErrInvalidDiceExpr},
		{"banana", DiceSpec{}, ErrInvalidDiceExpr},
		{"2d", DiceSpec{}, ErrInvalidDiceExpr},
		{"", DiceSpec{}, ErrInvalidDiceExpr},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.expr, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDiceExpr(tc.expr)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ParseDiceExpr(%q) error = %v, want %v", tc.expr, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDiceExpr(%q) error = %v", tc.expr, err)
			}
			if got != tc.want {
				t.Fatalf("ParseDiceExpr(%q) = %+v, want %+v", tc.expr, got, tc.want)
			}
		})
	}
}

func TestRollDiceBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		res, err := RollDice("2d6+3", rng)
		if err != nil {
			t.Fatalf("RollDice() error = %v", err)
		}
		if res.Total < 5 || res.Total > 15 {
			t.Fatalf("RollDice(2d6+3) total = %d, want in [5,15]", res.Total)
		}
		if len(res.Rolls) != 2 {
			t.Fatalf("RollDice(2d6+3) rolls = %v, want 2 dice", res.Rolls)
		}
		for _, v := range res.Rolls {
			if v < 1 || v > 6 {
				t.Fatalf("die value = %d, want in [1,6]", v)
			}
		}
	}
}

func TestRollDiceDeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	a, err := RollDice("3d10", rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("RollDice() error = %v", err)
	}
	b, err := RollDice("3d10", rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("RollDice() error = %v", err)
	}
	if a.Total != b.Total {
		t.Fatalf("same seed totals differ: %d vs %d", a.Total, b.Total)
	}
}
