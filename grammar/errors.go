package grammar

import (
	"strings"

	"github.com/dvekon/gralt"
)

const (
	DuplicateRuleError = iota + gralt.GrammarErrors
	TerminalLhsError
	NontermPrecedenceError
	PrecedenceRedeclaredError
	BogusTokenError
	IllFoundedError
	UnreachableError
	RenamingLoopError
	EpsilonLoopError
	NoStartSymbolError
)

func duplicateRuleError(lhs string, rule int) *gralt.Error {
	return gralt.FormatError(DuplicateRuleError, "duplicate rule for %q", lhs).WithWord(lhs).WithRule(rule)
}

func terminalLhsError(name string) *gralt.Error {
	return gralt.FormatError(TerminalLhsError, "terminal %q cannot produce anything", name).WithWord(name)
}

func nontermPrecedenceError(name string) *gralt.Error {
	return gralt.FormatError(NontermPrecedenceError, "nonterminal %q cannot have precedence", name).WithWord(name)
}

func precedenceRedeclaredError(name string) *gralt.Error {
	return gralt.FormatError(PrecedenceRedeclaredError, "precedence of %q declared twice", name).WithWord(name)
}

func bogusTokenError(name string, rule int) *gralt.Error {
	return gralt.FormatError(BogusTokenError, "rule %d produces precedence-only token %q", rule, name).WithWord(name).WithRule(rule)
}

func illFoundedError(names []string) *gralt.Error {
	return gralt.FormatError(IllFoundedError, "ill-founded nonterminals: "+strings.Join(names, ", ")).WithWord(names[0])
}

func unreachableError(names []string) *gralt.Error {
	return gralt.FormatError(UnreachableError, "unreachable symbols: "+strings.Join(names, ", ")).WithWord(names[0])
}

func renamingLoopError(names []string) *gralt.Error {
	return gralt.FormatError(RenamingLoopError, "renaming loop through: "+strings.Join(names, ", ")).WithWord(names[0])
}

func epsilonLoopError(names []string) *gralt.Error {
	return gralt.FormatError(EpsilonLoopError, "epsilon loop through: "+strings.Join(names, ", ")).WithWord(names[0])
}

func noStartSymbolError() *gralt.Error {
	return gralt.FormatError(NoStartSymbolError, "no start symbol declared")
}
