package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDiceCount caps a single roll request.
const MaxDiceCount = 20

var (
	ErrInvalidDiceExpr = errors.New("invalid dice expression")
	ErrTooManyDice     = errors.New("too many dice")
)

type DiceSpec struct {
	Count    int
	Sides    int
	Modifier int
}

type DiceResult struct {
	Spec  DiceSpec
	Rolls []int
	Total int
}

// ParseDiceExpr parses "<count>d<sides>[+/-modifier]", e.g. "2d6+3".
// A missing count means one die.
func ParseDiceExpr(expr string) (DiceSpec, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return DiceSpec{}, ErrInvalidDiceExpr
	}

	dIdx := strings.IndexByte(expr, 'd')
	if dIdx < 0 {
		return DiceSpec{}, ErrInvalidDiceExpr
	}

	count := 1
	if dIdx > 0 {
		n, err := strconv.Atoi(expr[:dIdx])
		if err != nil {
			return DiceSpec{}, ErrInvalidDiceExpr
		}
		count = n
	}

	rest := expr[dIdx+1:]
	modifier := 0
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		m, err := strconv.Atoi(rest[i:])
		if err != nil {
			return DiceSpec{}, ErrInvalidDiceExpr
		}
		modifier = m
		rest = rest[:i]
	}

	sides, err := strconv.Atoi(rest)
	if err != nil {
		return DiceSpec{}, ErrInvalidDiceExpr
	}

	if count < 1 || sides < 2 {
		return DiceSpec{}, ErrInvalidDiceExpr
	}
	if count > MaxDiceCount {
		return DiceSpec{}, fmt.Errorf("%w: %d > %d", ErrTooManyDice, count, MaxDiceCount)
	}

	return DiceSpec{Count: count, Sides: sides, Modifier: modifier}, nil
}

// RollDice parses and rolls expr using r. The result carries the individual
// rolls, the modifier, and the grand total.
func RollDice(expr string, r Roller) (DiceResult, error) {
	spec, err := ParseDiceExpr(expr)
	if err != nil {
		return DiceResult{}, err
	}

	rolls := make([]int, spec.Count)
	total := spec.Modifier
	for i := 0; i < spec.Count; i++ {
		v := r.Intn(spec.Sides) + 1
		rolls[i] = v
		total += v
	}

	return DiceResult{Spec: spec, Rolls: rolls, Total: total}, nil
}

func (d DiceResult) String() string {
	parts := make([]string, len(d.Rolls))
	for i, v := range d.Rolls {
		parts[i] = strconv.Itoa(v)
	}
	out := fmt.Sprintf("%dd%d", d.Spec.Count, d.Spec.Sides)
	if d.Spec.Modifier != 0 {
		out += fmt.Sprintf("%+d", d.Spec.Modifier)
	}
	return fmt.Sprintf("%s = %d [%s]", out, d.Total, strings.Join(parts, ", "))
}
