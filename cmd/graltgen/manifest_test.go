package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvekon/gralt/lalr"
	"github.com/dvekon/gralt/macro"
	"github.com/dvekon/gralt/scanner"
	"github.com/dvekon/gralt/table"
)

func TestManifestEndToEnd(t *testing.T) {
	m, e := loadManifest("testdata/expr.toml")
	require.NoError(t, e)
	assert.Equal(t, "tiny expression language", m.Comment)

	g, e := m.Grammar.buildGrammar()
	require.NoError(t, e)

	parserTable, conflicts, e := lalr.Build(g, lalr.Options{})
	require.NoError(t, e)
	for _, c := range conflicts {
		assert.True(t, c.Declared)
	}

	spec, e := m.Scanner.buildSpec()
	require.NoError(t, e)
	scannerTable, e := scanner.Build(spec)
	require.NoError(t, e)
	require.NotEmpty(t, scannerTable.Starts[0].Guards, "reserved 'let' needs a guard")

	doc, e := table.New(scannerTable, parserTable)
	require.NoError(t, e)
	doc.Comment = m.Comment

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	decoded, e := table.Decode(&buf)
	require.NoError(t, e)
	assert.Equal(t, m.Comment, decoded.Comment)
}

func TestRhsItemSuffixes(t *testing.T) {
	assert.Equal(t, macro.Rep{Items: []macro.Item{macro.Sym{Name: "x"}}}, rhsItem("x*"))
	assert.Equal(t, macro.Rep{Items: []macro.Item{macro.Sym{Name: "x"}}, AtLeastOne: true}, rhsItem("x+"))
	assert.Equal(t, macro.Opt{Items: []macro.Item{macro.Sym{Name: "x"}}}, rhsItem("x?"))
	// bare punctuation stays a plain symbol
	assert.Equal(t, macro.Sym{Name: "*"}, rhsItem("*"))
	assert.Equal(t, macro.Sym{Name: "id"}, rhsItem("id"))
}

func TestRepetitionSuffixBuildsWorkingGrammar(t *testing.T) {
	gm := &grammarManifest{
		Start:     "list",
		Terminals: []string{"id"},
		Rules: []ruleDecl{
			{Lhs: "list", Rhs: []string{"id*"}, Constructor: "list", Refs: []int{0}},
		},
	}
	g, e := gm.buildGrammar()
	require.NoError(t, e)

	_, _, e = lalr.Build(g, lalr.Options{})
	require.NoError(t, e)
}

func TestParseRanges(t *testing.T) {
	got, e := parseRanges([][]string{{"a", "z"}, {"_"}})
	require.NoError(t, e)
	assert.Equal(t, []scanner.RuneRange{{Lo: 'a', Hi: 'z'}, {Lo: '_', Hi: '_'}}, got)

	_, e = parseRanges([][]string{{"ab"}})
	assert.Error(t, e)
	_, e = parseRanges([][]string{{}})
	assert.Error(t, e)
}

func TestUnknownManifestBits(t *testing.T) {
	_, e := parseAssoc("sideways")
	assert.Error(t, e)

	bad := &actionDecl{Kind: "explode"}
	_, e = bad.build()
	assert.Error(t, e)

	node := &patternNode{Kind: "mystery"}
	_, e = node.build()
	assert.Error(t, e)
}
