package macro

import (
	"github.com/dvekon/gralt"
)

const (
	DefinitionOrderError = iota + gralt.MacroErrors
	MacroHygieneError
	MacroDefinedError
	ArgumentCountError
	ArgumentKindError
	EmptyRepeatError
)

func definitionOrderError(name, prod string) *gralt.Error {
	return gralt.FormatError(DefinitionOrderError, "%q referenced before definition in %q", name, prod).WithWord(name)
}

func macroHygieneError(macro, prod string) *gralt.Error {
	return gralt.FormatError(MacroHygieneError, "reference argument of %q has no zero point at expansion site in %q", macro, prod).WithWord(macro)
}

func macroDefinedError(name string) *gralt.Error {
	return gralt.FormatError(MacroDefinedError, "macro %q already defined", name).WithWord(name)
}

func argumentCountError(name string, want, got int) *gralt.Error {
	return gralt.FormatError(ArgumentCountError, "macro %q expects %d arguments, got %d", name, want, got).WithWord(name)
}

func argumentKindError(name, formal string) *gralt.Error {
	return gralt.FormatError(ArgumentKindError, "argument %q of macro %q has wrong kind", formal, name).WithWord(name)
}

func emptyRepeatError(prod string) *gralt.Error {
	return gralt.FormatError(EmptyRepeatError, "repetition body in %q can match empty input", prod).WithWord(prod)
}
