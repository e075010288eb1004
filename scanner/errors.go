package scanner

import (
	"github.com/dvekon/gralt"
)

const (
	AmbiguousMatchError = iota + gralt.ScannerErrors
	CoverageError
	UnknownClassError
	UnknownNameError
	UnknownStateError
	EmptyMatchError
	BadPatternError
)

func ambiguousMatchError(startState, ruleA, ruleB string) *gralt.Error {
	return gralt.FormatError(AmbiguousMatchError,
		"rules %q and %q accept the same text at the same priority", ruleA, ruleB).
		WithStartState(startState)
}

func coverageError(word, startState string) *gralt.Error {
	return gralt.FormatError(CoverageError,
		"reserved word %q is matched by no rule", word).
		WithWord(word).WithStartState(startState)
}

func unknownClassError(name string) *gralt.Error {
	return gralt.FormatError(UnknownClassError, "unknown character class %q", name).WithWord(name)
}

func unknownNameError(name string) *gralt.Error {
	return gralt.FormatError(UnknownNameError, "unknown subexpression %q", name).WithWord(name)
}

func unknownStateError(name string) *gralt.Error {
	return gralt.FormatError(UnknownStateError, "unknown start state %q", name).WithStartState(name)
}

func emptyMatchError(rule, startState string) *gralt.Error {
	return gralt.FormatError(EmptyMatchError,
		"rule %q matches the empty string", rule).
		WithWord(rule).WithStartState(startState)
}

func badPatternError() *gralt.Error {
	return gralt.FormatError(BadPatternError, "pattern node is nil or of an unknown kind")
}
