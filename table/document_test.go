package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvekon/gralt"
	"github.com/dvekon/gralt/grammar"
	"github.com/dvekon/gralt/lalr"
	"github.com/dvekon/gralt/scanner"
)

func buildTables(t *testing.T) (*scanner.Table, *lalr.Table) {
	t.Helper()

	g := grammar.New()
	list := g.Nonterminal("list")
	item := g.Terminal("Ident")
	_, e := g.AddRule(grammar.Rule{LHS: list, Action: &grammar.Action{Constructor: "$list"}})
	require.NoError(t, e)
	_, e = g.AddRule(grammar.Rule{
		LHS: list, RHS: []grammar.SymbolID{list, item},
		Action: &grammar.Action{Constructor: "$append", Refs: []grammar.SemRef{{Offset: 1, Abs: 2}}},
	})
	require.NoError(t, e)
	g.SetStart(list)

	parser, _, e := lalr.Build(g, lalr.Options{})
	require.NoError(t, e)

	sc, e := scanner.Build(&scanner.Spec{
		Rules: []scanner.Rule{
			{Name: "ident", Pattern: &scanner.Plus{Inner: scanner.Class("letter")},
				Action: scanner.Action{Kind: scanner.Emit, Token: "Ident"}},
			{Name: "ws", Pattern: &scanner.Plus{Inner: scanner.Class("space")},
				Action: scanner.Action{Kind: scanner.Ignore}},
		},
	})
	require.NoError(t, e)
	return sc, parser
}

func TestRoundTripIsIdempotent(t *testing.T) {
	sc, parser := buildTables(t)
	doc, e := New(sc, parser)
	require.NoError(t, e)
	doc.Comment = "round trip"

	var first bytes.Buffer
	require.NoError(t, doc.Encode(&first))

	decoded, e := Decode(bytes.NewReader(first.Bytes()))
	require.NoError(t, e)

	var second bytes.Buffer
	require.NoError(t, decoded.Encode(&second))
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, doc.Comment, decoded.Comment)
	assert.Equal(t, parser.End, decoded.Parser.End)
	assert.Equal(t, sc.NumClasses, decoded.Scanner.NumClasses)
}

func TestDocumentNeedsAtLeastOneTable(t *testing.T) {
	_, e := New(nil, nil)
	require.Error(t, e)
	assert.Equal(t, EmptyDocumentError, e.(*gralt.Error).Code)

	_, e = Decode(strings.NewReader(`{"version":[0,1,0]}`))
	require.Error(t, e)
	assert.Equal(t, EmptyDocumentError, e.(*gralt.Error).Code)
}

func TestDecodeRejectsOtherMajorVersion(t *testing.T) {
	doc := `{"version":[9,0,0],"parser":{"symbols":[],"states":[],"rules":[],"start":0,"end":0}}`
	_, e := Decode(strings.NewReader(doc))
	require.Error(t, e)
	assert.Equal(t, VersionError, e.(*gralt.Error).Code)
}
