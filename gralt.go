/*
Package gralt is a grammar-table compiler.

It turns a macro/EBNF-extended grammar plus a regular-expression-based lexical
specification into two minimized, serializable automatons: a scanner table and
an LALR(1) parser table. The tables are a language-neutral description meant to
be walked by a runtime driver in any target language; no driver is included.

Consists of subpackages:
  - grammar: normalized grammar model (symbols, rules, actions, precedence);
  - macro: macro expander and EBNF desugarer producing plain BNF with resolved
    semantic references;
  - lalr: LALR(1) automaton builder with conflict resolution and
    default-reduction compaction;
  - scanner: scanner DFA builder with examples/exceptions table compression and
    reserved-word handling;
  - table: versioned output document and its JSON encoding;
  - cmd/graltgen: console utility translating a TOML build manifest to a table
    document.

Typical usage is:

1. Build a grammar.Grammar and a set of macro.Production values (usually from a
front-end of your own; graltgen ships a structural TOML front end).

2. Desugar with macro.Expand, producing plain BNF.

3. Feed the result to lalr.Build and the lexical specification to scanner.Build.

4. Assemble both tables into a table.Document and encode it.
*/
package gralt

import (
	"fmt"
)

// Version of the table document format. The major number changes only with
// incompatible layout changes; decoders reject documents from another major.
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	GrammarErrors = 1   // used by grammar
	MacroErrors   = 101 // used by macro
	LalrErrors    = 201 // used by lalr
	ScannerErrors = 301 // used by scanner
	TableErrors   = 401 // used by table
)

// Error is the error type used by gralt subpackages.
// Besides the code and message it carries enough identity to locate the
// offending specification fragment.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message.
	Message string

	// Rule contains the id of the offending rule, or -1.
	Rule int

	// State contains the index of the offending automaton state, or -1.
	State int

	// Word contains the offending symbol name, reserved word, or macro name.
	Word string

	// StartState contains the offending scanner start state name.
	StartState string
}

// NewError creates a new Error with no fragment identity attached.
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg, Rule: -1, State: -1}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// WithRule attaches a rule id to the error.
func (e *Error) WithRule(rule int) *Error {
	e.Rule = rule
	return e
}

// WithState attaches an automaton state index to the error.
func (e *Error) WithState(state int) *Error {
	e.State = state
	return e
}

// WithWord attaches a symbol name, reserved word, or macro name to the error.
func (e *Error) WithWord(word string) *Error {
	e.Word = word
	return e
}

// WithStartState attaches a scanner start state name to the error.
func (e *Error) WithStartState(name string) *Error {
	e.StartState = name
	return e
}

// FormatError creates an Error.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg)
}
