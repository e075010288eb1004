package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvekon/gralt"
)

type lexeme struct {
	token string
	text  string
}

// lex replays maximal-munch scanning against a table: longest match wins,
// reserved-word guards override the generic action, Jump/Push/Pop switch the
// active start state.
func lex(t *Table, input string) ([]lexeme, bool) {
	var out []lexeme
	var stack []int
	cur := 0

	for len(input) > 0 {
		st := &t.Starts[cur]
		state := 0
		lastState, lastLen := -1, 0

		pos := 0
		for _, r := range input {
			state = st.Step(state, t.ClassOf(r))
			if state < 0 {
				break
			}
			pos += len(string(r))
			if st.Accepts[state] >= 0 {
				lastState, lastLen = state, pos
			}
		}
		if lastState < 0 {
			return out, false
		}

		text := input[:lastLen]
		input = input[lastLen:]

		guarded := false
		for _, g := range st.Guards {
			if g.State == lastState && g.Word == text {
				out = append(out, lexeme{g.Token, text})
				guarded = true
				break
			}
		}
		if guarded {
			continue
		}

		action := t.Rules[st.Accepts[lastState]].Action
		switch action.Kind {
		case Emit:
			out = append(out, lexeme{action.Token, text})
		case Ignore:
		case Error:
			return out, false
		case Jump:
			cur = t.StartIndex(action.Target)
		case Push:
			stack = append(stack, cur)
			cur = t.StartIndex(action.Target)
		case Pop:
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
	}
	return out, true
}

func identSpec() *Spec {
	return &Spec{
		Rules: []Rule{
			{Name: "ident", Pattern: &Plus{Inner: Range('a', 'z')},
				Action: Action{Kind: Emit, Token: "Ident"}},
			{Name: "ws", Pattern: &Plus{Inner: Class("space")},
				Action: Action{Kind: Ignore}},
		},
		Reserved: []ReservedWord{{Word: "foobar", Token: "Foobar"}},
	}
}

func TestLongestMatchBeatsReservedPrefix(t *testing.T) {
	table, e := Build(identSpec())
	require.NoError(t, e)

	toks, ok := lex(table, "foo foobar foobarx")
	require.True(t, ok)
	assert.Equal(t, []lexeme{
		{"Ident", "foo"},
		{"Foobar", "foobar"},
		{"Ident", "foobarx"}, // longer identifier wins over the exact guard
	}, toks)
}

func TestReservedWordAlreadyEmittingNeedsNoGuard(t *testing.T) {
	spec := identSpec()
	spec.Reserved = []ReservedWord{{Word: "while", Token: "Ident"}}
	table, e := Build(spec)
	require.NoError(t, e)
	assert.Empty(t, table.Starts[0].Guards)
}

func TestReservedWordCoverage(t *testing.T) {
	spec := identSpec()
	spec.Reserved = []ReservedWord{{Word: "if2", Token: "If2"}}

	_, e := Build(spec)
	require.Error(t, e)
	ge := e.(*gralt.Error)
	assert.Equal(t, CoverageError, ge.Code)
	assert.Equal(t, "if2", ge.Word)
	assert.Equal(t, "initial", ge.StartState)
}

func TestPriorityAndLongestMatch(t *testing.T) {
	table, e := Build(&Spec{
		Rules: []Rule{
			{Name: "number", Pattern: &Plus{Inner: Range('0', '9')}, Priority: 1,
				Action: Action{Kind: Emit, Token: "Num"}},
			{Name: "word", Pattern: &Plus{Inner: &Chars{Ranges: []RuneRange{{'0', '9'}, {'a', 'z'}}}},
				Action: Action{Kind: Emit, Token: "Word"}},
		},
	})
	require.NoError(t, e)

	// same length: the higher-priority rule takes it
	toks, ok := lex(table, "42")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Num", "42"}}, toks)

	// longest match is decided before priority even matters
	toks, ok = lex(table, "4a2")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Word", "4a2"}}, toks)
}

func TestLiteralPriorityYieldsToLongerClassMatch(t *testing.T) {
	table, e := Build(&Spec{
		Rules: []Rule{
			{Name: "foo", Pattern: Literal("FOO"), Priority: 1,
				Action: Action{Kind: Emit, Token: "Foo"}},
			{Name: "caps", Pattern: &Plus{Inner: Range('A', 'Z')},
				Action: Action{Kind: Emit, Token: "Word"}},
		},
	})
	require.NoError(t, e)

	// equal length: priority picks the literal
	toks, ok := lex(table, "FOO")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Foo", "FOO"}}, toks)

	// the longer class match wins before priority is consulted
	toks, ok = lex(table, "FOOBAR")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Word", "FOOBAR"}}, toks)
}

func TestEqualPriorityOverlapIsAmbiguous(t *testing.T) {
	_, e := Build(&Spec{
		Rules: []Rule{
			{Name: "first", Pattern: Literal("a"), Action: Action{Kind: Emit, Token: "X"}},
			{Name: "second", Pattern: Literal("a"), Action: Action{Kind: Emit, Token: "Y"}},
		},
	})
	require.Error(t, e)
	assert.Equal(t, AmbiguousMatchError, e.(*gralt.Error).Code)
}

func TestAnyStopsAtLineTerminators(t *testing.T) {
	table, e := Build(&Spec{
		Rules: []Rule{
			{Name: "comment", Pattern: &Seq{Items: []Node{Literal("#"), &Star{Inner: &Any{}}}},
				Action: Action{Kind: Ignore}},
			{Name: "nl", Pattern: Literal("\n"), Action: Action{Kind: Ignore}},
			{Name: "ident", Pattern: &Plus{Inner: Range('a', 'z')},
				Action: Action{Kind: Emit, Token: "Ident"}},
		},
	})
	require.NoError(t, e)

	toks, ok := lex(table, "#hi there\nfoo")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Ident", "foo"}}, toks)
}

func TestStartStateSwitching(t *testing.T) {
	table, e := Build(&Spec{
		Starts: []string{"initial", "str"},
		Rules: []Rule{
			{Name: "ident", Pattern: &Plus{Inner: Range('a', 'z')}, States: []string{"initial"},
				Action: Action{Kind: Emit, Token: "Ident"}},
			{Name: "openq", Pattern: Literal(`"`), States: []string{"initial"},
				Action: Action{Kind: Jump, Target: "str"}},
			{Name: "body", Pattern: &Plus{Inner: &Chars{Ranges: []RuneRange{{'"', '"'}}, Negate: true}},
				States: []string{"str"}, Action: Action{Kind: Emit, Token: "Str"}},
			{Name: "closeq", Pattern: Literal(`"`), States: []string{"str"},
				Action: Action{Kind: Jump, Target: "initial"}},
		},
	})
	require.NoError(t, e)

	toks, ok := lex(table, `"ab"x`)
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Str", "ab"}, {"Ident", "x"}}, toks)
}

func TestNestedStatesViaPushPop(t *testing.T) {
	notStarSlash := &Chars{Ranges: []RuneRange{{'*', '*'}, {'/', '/'}}, Negate: true}
	table, e := Build(&Spec{
		Starts: []string{"initial", "com"},
		Rules: []Rule{
			{Name: "ident", Pattern: &Plus{Inner: Range('a', 'z')}, States: []string{"initial"},
				Action: Action{Kind: Emit, Token: "Ident"}},
			{Name: "open", Pattern: Literal("/*"),
				Action: Action{Kind: Push, Target: "com"}},
			{Name: "close", Pattern: Literal("*/"), States: []string{"com"},
				Action: Action{Kind: Pop}},
			{Name: "text", Pattern: &Plus{Inner: notStarSlash}, States: []string{"com"},
				Action: Action{Kind: Ignore}},
			{Name: "stray", Pattern: &Chars{Ranges: []RuneRange{{'*', '*'}, {'/', '/'}}},
				States: []string{"com"}, Action: Action{Kind: Ignore}},
		},
	})
	require.NoError(t, e)

	toks, ok := lex(table, "a/*x/*y*/z*/b")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Ident", "a"}, {"Ident", "b"}}, toks)
}

func TestMinimizationMergesEquivalentStates(t *testing.T) {
	table, e := Build(&Spec{
		Rules: []Rule{
			{Name: "t", Pattern: &Alt{Branches: []Node{
				&Seq{Items: []Node{Literal("a"), Literal("c")}},
				&Seq{Items: []Node{Literal("b"), Literal("c")}},
			}}, Action: Action{Kind: Emit, Token: "T"}},
		},
	})
	require.NoError(t, e)

	// start, merged after-a/after-b, accept
	assert.Len(t, table.Starts[0].Rows, 3)
}

func TestAlphabetPartition(t *testing.T) {
	table, e := Build(&Spec{
		Rules: []Rule{
			{Name: "small", Pattern: &Plus{Inner: Range('a', 'c')}, Priority: 1,
				Action: Action{Kind: Emit, Token: "Small"}},
			{Name: "word", Pattern: &Plus{Inner: Range('a', 'z')},
				Action: Action{Kind: Emit, Token: "Word"}},
		},
	})
	require.NoError(t, e)

	assert.Equal(t, table.ClassOf('a'), table.ClassOf('b'))
	assert.Equal(t, table.ClassOf('d'), table.ClassOf('z'))
	assert.NotEqual(t, table.ClassOf('a'), table.ClassOf('d'))
	assert.NotEqual(t, table.ClassOf('a'), table.ClassOf('A'))

	toks, ok := lex(table, "abc")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Small", "abc"}}, toks)

	toks, ok = lex(table, "abcd")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Word", "abcd"}}, toks)
}

func TestNamedDefsAndClasses(t *testing.T) {
	table, e := Build(&Spec{
		Classes: []NamedClass{
			{Name: "hex", Def: Chars{Ranges: []RuneRange{{'0', '9'}, {'a', 'f'}, {'A', 'F'}}}},
		},
		Defs: []Def{
			{Name: "hexbyte", Pattern: &Seq{Items: []Node{Class("hex"), Class("hex")}}},
		},
		Rules: []Rule{
			{Name: "color", Pattern: &Seq{Items: []Node{Literal("#"), &Ref{Name: "hexbyte"},
				&Ref{Name: "hexbyte"}, &Ref{Name: "hexbyte"}}},
				Action: Action{Kind: Emit, Token: "Color"}},
		},
	})
	require.NoError(t, e)

	toks, ok := lex(table, "#a1B2c3")
	require.True(t, ok)
	assert.Equal(t, []lexeme{{"Color", "#a1B2c3"}}, toks)

	_, ok = lex(table, "#a1B2c")
	assert.False(t, ok)
}

func TestForwardDefReferenceRejected(t *testing.T) {
	_, e := Build(&Spec{
		Defs: []Def{
			{Name: "a", Pattern: &Ref{Name: "b"}},
			{Name: "b", Pattern: Literal("x")},
		},
		Rules: []Rule{
			{Name: "r", Pattern: &Ref{Name: "a"}, Action: Action{Kind: Emit, Token: "R"}},
		},
	})
	require.Error(t, e)
	assert.Equal(t, UnknownNameError, e.(*gralt.Error).Code)
}

func TestEmptyMatchRejected(t *testing.T) {
	_, e := Build(&Spec{
		Rules: []Rule{
			{Name: "bad", Pattern: &Star{Inner: Range('a', 'z')},
				Action: Action{Kind: Emit, Token: "Bad"}},
		},
	})
	require.Error(t, e)
	assert.Equal(t, EmptyMatchError, e.(*gralt.Error).Code)
}

func TestUnknownJumpTarget(t *testing.T) {
	_, e := Build(&Spec{
		Rules: []Rule{
			{Name: "r", Pattern: Literal("x"), Action: Action{Kind: Jump, Target: "nowhere"}},
		},
	})
	require.Error(t, e)
	assert.Equal(t, UnknownStateError, e.(*gralt.Error).Code)
}

func TestUnknownClassName(t *testing.T) {
	_, e := Build(&Spec{
		Rules: []Rule{
			{Name: "r", Pattern: Class("noSuchClass"), Action: Action{Kind: Emit, Token: "R"}},
		},
	})
	require.Error(t, e)
	assert.Equal(t, UnknownClassError, e.(*gralt.Error).Code)
}

func TestNilPatternRejected(t *testing.T) {
	_, e := Build(&Spec{
		Rules: []Rule{
			{Name: "hole", Action: Action{Kind: Emit, Token: "Hole"}},
		},
	})
	require.Error(t, e)
	assert.Equal(t, BadPatternError, e.(*gralt.Error).Code)
}

func TestCompressionPreservesTransitions(t *testing.T) {
	spec := identSpec()
	table, e := Build(spec)
	require.NoError(t, e)

	// rebuild the raw row from the compressed one and cross-check a few runes
	st := &table.Starts[0]
	for _, r := range []rune{'a', 'z', ' ', '\t', '0'} {
		c := table.ClassOf(r)
		got := st.Step(0, c)
		if r >= 'a' && r <= 'z' {
			require.GreaterOrEqual(t, got, 0)
			assert.GreaterOrEqual(t, st.Accepts[got], 0)
		}
	}
	assert.Equal(t, -1, st.Step(0, table.ClassOf('0')))
}
