package lalr

import (
	"github.com/dvekon/gralt/grammar"
)

// ConflictKind classifies a (state, lookahead) pair with more than one viable
// action.
type ConflictKind int

const (
	ShiftReduce ConflictKind = iota
	ReduceReduce
)

// Resolution records how a conflict was settled. Every resolution, automatic
// or declared, is kept for diagnostics even though the build proceeds.
type Resolution int

const (
	// KeptShift: shift won, by declaration or by the shift-preferring default.
	KeptShift Resolution = iota
	// KeptReduce: the reduction won by a precedence declaration.
	KeptReduce
	// KeptEarlierRule: the earlier-declared rule won a reduce/reduce conflict.
	KeptEarlierRule
	// MadeError: nonassoc at equal precedence turned the cell into an error.
	MadeError
)

// Conflict is one resolved ambiguity.
type Conflict struct {
	State     int
	Lookahead grammar.SymbolID
	Kind      ConflictKind

	// Rules lists the reductions involved; for shift/reduce the single
	// competing rule.
	Rules []grammar.RuleID

	Resolution Resolution

	// Declared is set when a precedence/associativity declaration decided
	// the outcome rather than the default policy.
	Declared bool
}

func (k ConflictKind) String() string {
	if k == ShiftReduce {
		return "shift/reduce"
	}
	return "reduce/reduce"
}

func (r Resolution) String() string {
	switch r {
	case KeptShift:
		return "shift"
	case KeptReduce:
		return "reduce"
	case KeptEarlierRule:
		return "earlier rule"
	default:
		return "error"
	}
}
