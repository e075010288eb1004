package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"

	"github.com/dvekon/gralt/grammar"
	"github.com/dvekon/gralt/macro"
	"github.com/dvekon/gralt/scanner"
)

// manifest is the TOML build description: grammar and lexical specification
// given structurally, no embedded mini languages beyond the RHS suffixes
// *, + and ?.
type manifest struct {
	Comment string           `toml:"comment"`
	Grammar *grammarManifest `toml:"grammar"`
	Scanner *scannerManifest `toml:"scanner"`
}

type grammarManifest struct {
	Start      string           `toml:"start"`
	Terminals  []string         `toml:"terminals"`
	Void       []string         `toml:"void"` // terminals pushing no value
	Precedence []precedenceDecl `toml:"precedence"`
	Rules      []ruleDecl       `toml:"rule"`
}

type precedenceDecl struct {
	Assoc  string   `toml:"assoc"` // left, right, nonassoc, prec
	Tokens []string `toml:"tokens"`
}

type ruleDecl struct {
	Lhs         string   `toml:"lhs"`
	Rhs         []string `toml:"rhs"`
	Constructor string   `toml:"constructor"`
	Refs        []int    `toml:"refs"`
	Prec        string   `toml:"prec"`
}

type scannerManifest struct {
	States   []string       `toml:"states"`
	Classes  []classDecl    `toml:"class"`
	Defs     []defDecl      `toml:"def"`
	Rules    []scanRuleDecl `toml:"rule"`
	Reserved []reservedDecl `toml:"reserved"`
}

type classDecl struct {
	Name   string     `toml:"name"`
	Ranges [][]string `toml:"ranges"`
	Named  []string   `toml:"named"`
	Negate bool       `toml:"negate"`
}

type defDecl struct {
	Name    string      `toml:"name"`
	Pattern patternNode `toml:"pattern"`
}

type scanRuleDecl struct {
	Name     string      `toml:"name"`
	Pattern  patternNode `toml:"pattern"`
	Priority int         `toml:"priority"`
	Action   actionDecl  `toml:"action"`
	States   []string    `toml:"states"`
	Guard    string      `toml:"guard"`
}

type actionDecl struct {
	Kind   string `toml:"kind"`
	Token  string `toml:"token"`
	Target string `toml:"target"`
}

type reservedDecl struct {
	Word   string   `toml:"word"`
	Token  string   `toml:"token"`
	States []string `toml:"states"`
}

// patternNode is the TOML form of one structured-regex node.
type patternNode struct {
	Kind    string        `toml:"kind"`
	Text    string        `toml:"text"`
	Items   []patternNode `toml:"items"`
	Inner   *patternNode  `toml:"inner"`
	Ranges  [][]string    `toml:"ranges"`
	Named   []string      `toml:"named"`
	Negate  bool          `toml:"negate"`
	Newline bool          `toml:"newline"`
}

func loadManifest(path string) (*manifest, error) {
	m := &manifest{}
	_, e := toml.DecodeFile(path, m)
	return m, errors.Annotatef(e, "reading manifest %s", path)
}

// buildGrammar lowers the grammar section: terminals and precedence first,
// then the productions through the macro expander.
func (gm *grammarManifest) buildGrammar() (*grammar.Grammar, error) {
	g := grammar.New()
	for _, name := range gm.Terminals {
		g.Terminal(name)
	}
	for _, name := range gm.Void {
		g.VoidTerminal(name)
	}

	for _, p := range gm.Precedence {
		assoc, e := parseAssoc(p.Assoc)
		if e != nil {
			return nil, e
		}
		ids := make([]grammar.SymbolID, len(p.Tokens))
		for i, tok := range p.Tokens {
			ids[i] = g.Terminal(tok)
		}
		if e = g.DeclarePrecedence(assoc, ids...); e != nil {
			return nil, e
		}
	}

	decls := make([]macro.Decl, 0, len(gm.Rules))
	for _, r := range gm.Rules {
		items := make([]macro.Item, len(r.Rhs))
		for i, s := range r.Rhs {
			items[i] = rhsItem(s)
		}

		prod := &macro.Production{
			Name: r.Lhs, Items: items, PrecSym: r.Prec, Origin: "manifest",
		}
		if r.Constructor != "" {
			action := macro.ActionExpr{Constructor: r.Constructor}
			for _, off := range r.Refs {
				action.Refs = append(action.Refs, macro.RefExpr{Offset: off})
			}
			prod.Action = &action
		}
		decls = append(decls, macro.Decl{Prod: prod})
	}
	e := macro.Expand(g, decls)
	if e != nil {
		return nil, e
	}

	start := g.Lookup(gm.Start)
	if start == grammar.NoSymbol {
		return nil, errors.Errorf("start symbol %q is not produced by any rule", gm.Start)
	}
	g.SetStart(start)
	return g, nil
}

// rhsItem reads one RHS element; a trailing *, + or ? wraps the symbol in
// the matching EBNF construct. A bare punctuation name stays a symbol.
func rhsItem(s string) macro.Item {
	if len(s) < 2 {
		return macro.Sym{Name: s}
	}
	base := macro.Sym{Name: s[:len(s)-1]}
	switch s[len(s)-1] {
	case '*':
		return macro.Rep{Items: []macro.Item{base}}
	case '+':
		return macro.Rep{Items: []macro.Item{base}, AtLeastOne: true}
	case '?':
		return macro.Opt{Items: []macro.Item{base}}
	}
	return macro.Sym{Name: s}
}

func parseAssoc(s string) (grammar.Assoc, error) {
	switch s {
	case "left":
		return grammar.Left, nil
	case "right":
		return grammar.Right, nil
	case "nonassoc":
		return grammar.NonAssoc, nil
	case "prec":
		return grammar.BogusAssoc, nil
	}
	return 0, errors.Errorf("unknown associativity %q", s)
}

func (sm *scannerManifest) buildSpec() (*scanner.Spec, error) {
	spec := &scanner.Spec{Starts: sm.States}

	for _, c := range sm.Classes {
		ranges, e := parseRanges(c.Ranges)
		if e != nil {
			return nil, e
		}
		spec.Classes = append(spec.Classes, scanner.NamedClass{
			Name: c.Name,
			Def:  scanner.Chars{Ranges: ranges, Named: c.Named, Negate: c.Negate},
		})
	}

	for _, d := range sm.Defs {
		node, e := d.Pattern.build()
		if e != nil {
			return nil, e
		}
		spec.Defs = append(spec.Defs, scanner.Def{Name: d.Name, Pattern: node})
	}

	for _, r := range sm.Rules {
		node, e := r.Pattern.build()
		if e != nil {
			return nil, errors.Annotatef(e, "rule %s", r.Name)
		}
		action, e := r.Action.build()
		if e != nil {
			return nil, errors.Annotatef(e, "rule %s", r.Name)
		}
		spec.Rules = append(spec.Rules, scanner.Rule{
			Name: r.Name, Pattern: node, Priority: r.Priority,
			Action: action, States: r.States, Guard: r.Guard,
		})
	}

	for _, rw := range sm.Reserved {
		spec.Reserved = append(spec.Reserved, scanner.ReservedWord{
			Word: rw.Word, Token: rw.Token, States: rw.States,
		})
	}
	return spec, nil
}

func (a *actionDecl) build() (scanner.Action, error) {
	kinds := map[string]scanner.ActionKind{
		"ignore": scanner.Ignore, "emit": scanner.Emit, "error": scanner.Error,
		"jump": scanner.Jump, "push": scanner.Push, "pop": scanner.Pop,
	}
	kind, has := kinds[a.Kind]
	if !has {
		return scanner.Action{}, errors.Errorf("unknown action kind %q", a.Kind)
	}
	return scanner.Action{Kind: kind, Token: a.Token, Target: a.Target}, nil
}

func (p *patternNode) build() (scanner.Node, error) {
	switch p.Kind {
	case "literal":
		return scanner.Literal(p.Text), nil

	case "ref":
		return &scanner.Ref{Name: p.Text}, nil

	case "chars":
		ranges, e := parseRanges(p.Ranges)
		if e != nil {
			return nil, e
		}
		return &scanner.Chars{Ranges: ranges, Named: p.Named, Negate: p.Negate}, nil

	case "any":
		return &scanner.Any{Newline: p.Newline}, nil

	case "seq", "alt":
		items := make([]scanner.Node, len(p.Items))
		for i := range p.Items {
			n, e := p.Items[i].build()
			if e != nil {
				return nil, e
			}
			items[i] = n
		}
		if p.Kind == "seq" {
			return &scanner.Seq{Items: items}, nil
		}
		return &scanner.Alt{Branches: items}, nil

	case "star", "plus", "opt":
		if p.Inner == nil {
			return nil, errors.Errorf("%s node needs an inner pattern", p.Kind)
		}
		inner, e := p.Inner.build()
		if e != nil {
			return nil, e
		}
		switch p.Kind {
		case "star":
			return &scanner.Star{Inner: inner}, nil
		case "plus":
			return &scanner.Plus{Inner: inner}, nil
		}
		return &scanner.Opt{Inner: inner}, nil
	}
	return nil, errors.Errorf("unknown pattern kind %q", p.Kind)
}

// parseRanges reads rune intervals given as one- or two-element strings.
func parseRanges(in [][]string) ([]scanner.RuneRange, error) {
	out := make([]scanner.RuneRange, 0, len(in))
	for _, pair := range in {
		if len(pair) == 0 || len(pair) > 2 {
			return nil, errors.Errorf("a range needs one or two runes, got %d", len(pair))
		}
		lo, e := oneRune(pair[0])
		if e != nil {
			return nil, e
		}
		hi := lo
		if len(pair) == 2 {
			if hi, e = oneRune(pair[1]); e != nil {
				return nil, e
			}
		}
		out = append(out, scanner.RuneRange{Lo: lo, Hi: hi})
	}
	return out, nil
}

func oneRune(s string) (rune, error) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, errors.Errorf("%q is not a single rune", s)
	}
	return runes[0], nil
}
