package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dvekon/gralt"
)

func codesOf(e error) []int {
	codes := make([]int, 0)
	for _, err := range multierr.Errors(e) {
		ge, ok := err.(*gralt.Error)
		if ok {
			codes = append(codes, ge.Code)
		}
	}
	return codes
}

func TestComputeFirst(t *testing.T) {
	g := New()
	s := g.Nonterminal("S")
	a := g.Nonterminal("A")
	b := g.Nonterminal("B")
	x := g.Terminal("x")
	y := g.Terminal("y")

	mustRule(t, g, s, a, b, x)
	mustRule(t, g, a, y)
	mustRule(t, g, a)
	mustRule(t, g, b, x)
	mustRule(t, g, b)

	fs := g.ComputeFirst()

	assert.True(t, fs.Nullable.Test(uint(a)))
	assert.True(t, fs.Nullable.Test(uint(b)))
	assert.False(t, fs.Nullable.Test(uint(s)))

	// S can begin with y (via A), x (via nullable A then B, or nullable A B)
	assert.True(t, fs.First[s].Test(uint(x)))
	assert.True(t, fs.First[s].Test(uint(y)))
	assert.False(t, fs.First[b].Test(uint(y)))

	seq, nullable := fs.FirstOfSeq([]SymbolID{a, b}, uint(g.NumSymbols()))
	assert.True(t, nullable)
	assert.True(t, seq.Test(uint(x)))
	assert.True(t, seq.Test(uint(y)))

	_, nullable = fs.FirstOfSeq([]SymbolID{a, s}, uint(g.NumSymbols()))
	assert.False(t, nullable)
}

func TestValidateHealthyGrammar(t *testing.T) {
	g := New()
	s := g.Nonterminal("S")
	x := g.Terminal("x")
	mustRule(t, g, s, s, x)
	mustRule(t, g, s, x)
	g.SetStart(s)

	assert.NoError(t, g.Validate())
}

func TestValidateNoStart(t *testing.T) {
	g := New()
	s := g.Nonterminal("S")
	mustRule(t, g, s, g.Terminal("x"))

	e := g.Validate()
	require.Error(t, e)
	assert.Equal(t, NoStartSymbolError, e.(*gralt.Error).Code)
}

func TestValidateIllFounded(t *testing.T) {
	// S -> x S can never terminate
	g := New()
	s := g.Nonterminal("S")
	x := g.Terminal("x")
	mustRule(t, g, s, x, s)
	g.SetStart(s)

	assert.Contains(t, codesOf(g.Validate()), IllFoundedError)

	// mutual recursion with no terminal escape
	g = New()
	a := g.Nonterminal("A")
	b := g.Nonterminal("B")
	y := g.Terminal("y")
	mustRule(t, g, a, b, y)
	mustRule(t, g, b, a, g.Terminal("z"))
	g.SetStart(a)

	assert.Contains(t, codesOf(g.Validate()), IllFoundedError)
}

func TestValidateUnreachable(t *testing.T) {
	g := New()
	s := g.Nonterminal("S")
	orphan := g.Nonterminal("Orphan")
	x := g.Terminal("x")
	mustRule(t, g, s, x)
	mustRule(t, g, orphan, x)
	g.SetStart(s)

	e := g.Validate()
	assert.Contains(t, codesOf(e), UnreachableError)
}

func TestValidateRenamingLoop(t *testing.T) {
	g := New()
	a := g.Nonterminal("A")
	b := g.Nonterminal("B")
	x := g.Terminal("x")
	mustRule(t, g, a, b)
	mustRule(t, g, b, a)
	mustRule(t, g, a, x)
	g.SetStart(a)

	assert.Contains(t, codesOf(g.Validate()), RenamingLoopError)
}

func TestValidateEpsilonLoop(t *testing.T) {
	// A -> B A B with everything nullable: A derives itself consuming nothing
	g := New()
	a := g.Nonterminal("A")
	b := g.Nonterminal("B")
	x := g.Terminal("x")
	mustRule(t, g, a, b, a, b)
	mustRule(t, g, a)
	mustRule(t, g, b, x)
	mustRule(t, g, b)
	g.SetStart(a)

	assert.Contains(t, codesOf(g.Validate()), EpsilonLoopError)
}

func TestValidateEpsilonLeftSelfRecursionAllowed(t *testing.T) {
	// A -> A x | ε is the canonical accumulate shape and must pass
	g := New()
	a := g.Nonterminal("A")
	x := g.Terminal("x")
	mustRule(t, g, a, a, x)
	mustRule(t, g, a)
	g.SetStart(a)

	assert.NoError(t, g.Validate())
}

func TestValidateBogusToken(t *testing.T) {
	g := New()
	s := g.Nonterminal("S")
	um := g.Terminal("UMINUS")
	require.NoError(t, g.DeclarePrecedence(BogusAssoc, um))
	mustRule(t, g, s, um)
	g.SetStart(s)

	assert.Contains(t, codesOf(g.Validate()), BogusTokenError)
}
