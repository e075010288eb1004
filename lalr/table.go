package lalr

import (
	"github.com/dvekon/gralt/grammar"
)

// NoReduction marks an absent default reduction.
const NoReduction = -1

// SymbolInfo is the serializable identity of one grammar symbol.
type SymbolInfo struct {
	Name     string `json:"name"`
	Terminal bool   `json:"terminal"`
	HasValue bool   `json:"has_value"`
}

// TableRule is the serializable form of one production. ActionRef indexes
// the table's action list, or NoReduction for none.
type TableRule struct {
	Lhs       int   `json:"lhs"`
	Rhs       []int `json:"rhs"`
	ActionRef int   `json:"actionRef"`
}

// StateRow is the compacted encoding of one automaton state.
//
// When every lookahead of a row maps to the same reduction the row collapses
// to a single DefaultReduction; a driver applies it without inspecting the
// next token. This delays error detection by at most one token and never
// changes acceptance.
type StateRow struct {
	// Shift maps terminal id to target state.
	Shift map[int]int `json:"shift,omitempty"`

	// Goto maps nonterminal id to target state.
	Goto map[int]int `json:"goto,omitempty"`

	// Reduce maps terminal id to rule id.
	Reduce map[int]int `json:"reduce,omitempty"`

	// Accept is set when end-of-input is accepted in this state.
	Accept bool `json:"accept,omitempty"`

	// DefaultReduction is the unconditional reduction, or NoReduction.
	DefaultReduction int `json:"default_reduction"`

	// ReduceOnly flags a state whose every outcome is the one default
	// reduction. The driver contract requires performing that reduction
	// before requesting another input token, so scanner-mode side effects
	// of the action happen first.
	ReduceOnly bool `json:"reduce_only,omitempty"`
}

// Table is the finished LALR(1) parser table.
type Table struct {
	Symbols []SymbolInfo     `json:"symbols"`
	States  []StateRow       `json:"states"`
	Rules   []TableRule      `json:"rules"`
	Actions []grammar.Action `json:"actions,omitempty"`

	// Start is the initial state index.
	Start int `json:"start"`

	// End is the synthesized end-of-input terminal id.
	End int `json:"end"`
}
