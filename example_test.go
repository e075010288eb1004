package gralt_test

import (
	"bytes"
	"fmt"

	"github.com/dvekon/gralt/grammar"
	"github.com/dvekon/gralt/lalr"
	"github.com/dvekon/gralt/macro"
	"github.com/dvekon/gralt/scanner"
	"github.com/dvekon/gralt/table"
)

// Compiles a one-production grammar ("a list is any number of ids") and a
// two-rule lexical spec into a table document.
func Example() {
	g := grammar.New()
	g.Terminal("id")

	decls := []macro.Decl{{Prod: &macro.Production{
		Name:   "list",
		Items:  []macro.Item{macro.Rep{Items: []macro.Item{macro.Sym{Name: "id"}}}},
		Action: &macro.ActionExpr{Constructor: "list", Refs: []macro.RefExpr{{Offset: 0}}},
	}}}
	e := macro.Expand(g, decls)
	if e != nil {
		fmt.Println(e)
		return
	}
	g.SetStart(g.Lookup("list"))

	parser, conflicts, e := lalr.Build(g, lalr.Options{})
	if e != nil {
		fmt.Println(e)
		return
	}

	lexical, e := scanner.Build(&scanner.Spec{
		Rules: []scanner.Rule{
			{Name: "ident", Pattern: &scanner.Plus{Inner: scanner.Class("letter")},
				Action: scanner.Action{Kind: scanner.Emit, Token: "id"}},
			{Name: "ws", Pattern: &scanner.Plus{Inner: scanner.Class("space")},
				Action: scanner.Action{Kind: scanner.Ignore}},
		},
	})
	if e != nil {
		fmt.Println(e)
		return
	}

	doc, e := table.New(lexical, parser)
	if e != nil {
		fmt.Println(e)
		return
	}

	out := bytes.Buffer{}
	e = doc.Encode(&out)
	if e != nil {
		fmt.Println(e)
		return
	}

	fmt.Println("rules:", len(parser.Rules))
	fmt.Println("conflicts:", len(conflicts))
	fmt.Println("scanner classes:", lexical.NumClasses)
	// Output:
	// rules: 3
	// conflicts: 0
	// scanner classes: 3
}
