package lalr

import (
	"github.com/dvekon/gralt"
)

const (
	ConflictError = iota + gralt.LalrErrors
	NoStartError
)

func conflictError(state int, lookahead string, rule int) *gralt.Error {
	return gralt.FormatError(ConflictError,
		"unresolvable precedence conflict on %q", lookahead).WithState(state).WithRule(rule).WithWord(lookahead)
}

func noStartError() *gralt.Error {
	return gralt.FormatError(NoStartError, "grammar has no start symbol")
}
