package macro

import (
	"fmt"

	"github.com/dvekon/gralt"
	"github.com/dvekon/gralt/grammar"
)

// Constructors of the implied accumulate actions on synthesized repetition
// nonterminals. A runtime action sink is expected to map ListConstructor to
// "push an empty list" and AppendConstructor to "append the referenced values
// to the referenced list".
const (
	ListConstructor   = "$list"
	AppendConstructor = "$append"
)

// Expander is the build-scoped macro expansion environment. It is threaded
// through all expansion calls and must be discarded at build end; synthesized
// names are unique within one Expander only.
type Expander struct {
	g      *grammar.Grammar
	macros map[string]*MacroDef
	seq    int
}

func NewExpander(g *grammar.Grammar) *Expander {
	return &Expander{g: g, macros: make(map[string]*MacroDef)}
}

// Expand processes declarations in specification order. Macros must be
// defined before their first use.
func Expand(g *grammar.Grammar, decls []Decl) error {
	x := NewExpander(g)
	for _, d := range decls {
		var e error
		switch {
		case d.Macro != nil:
			e = x.Define(d.Macro)
		case d.Prod != nil:
			e = x.AddProduction(d.Prod)
		}
		if e != nil {
			return e
		}
	}
	return nil
}

// Define registers a macro. Its rules are generated at each use.
func (x *Expander) Define(m *MacroDef) error {
	_, has := x.macros[m.Name]
	if has {
		return macroDefinedError(m.Name)
	}

	x.macros[m.Name] = m
	return nil
}

// frame is the lowering position: the enclosing named production, the number
// of symbols consumed since its zero point at the current construct's left
// end, and the lexical environment of the innermost macro expansion.
type frame struct {
	prod string
	base int
	env  *env
}

// env binds macro formals at one expansion site. A fresh env is created per
// use; nothing is shared between expansions of the same macro.
type env struct {
	macro   string
	syms    map[string]grammar.SymbolID
	refs    map[string]grammar.SemRef
	actions map[string]*grammar.Action
}

// AddProduction desugars one named production into plain BNF rules. The
// production opens a new zero point; all references declared in its action
// resolve against its left end.
func (x *Expander) AddProduction(p *Production) error {
	lhs := x.g.Nonterminal(p.Name)
	fr := frame{prod: p.Name}

	rhs, e := x.lowerSeq(p.Items, fr)
	if e != nil {
		return e
	}

	action, e := x.resolveAction(p.Action, fr, true)
	if e != nil {
		return e
	}

	if p.PrecSym != "" && x.g.Lookup(p.PrecSym) == grammar.NoSymbol {
		return definitionOrderError(p.PrecSym, p.Name)
	}

	_, e = x.g.AddRule(grammar.Rule{
		LHS: lhs, RHS: rhs, Action: action,
		PrecSym: p.PrecSym, ZeroPoint: true, Origin: p.Origin,
	})
	return e
}

// lowerSeq lowers a sequence of extended items, advancing the consumed-symbol
// count by one per lowered item (a synthesized nonterminal occupies a single
// value slot once reduced).
func (x *Expander) lowerSeq(items []Item, fr frame) ([]grammar.SymbolID, error) {
	rhs := make([]grammar.SymbolID, 0, len(items))
	for _, it := range items {
		sub := fr
		sub.base = fr.base + len(rhs)
		id, e := x.lowerItem(it, sub)
		if e != nil {
			return nil, e
		}
		rhs = append(rhs, id)
	}
	return rhs, nil
}

// lowerItem lowers one item to the symbol that will occupy its RHS slot,
// synthesizing anonymous nonterminals innermost-first.
func (x *Expander) lowerItem(it Item, fr frame) (grammar.SymbolID, error) {
	switch v := it.(type) {
	case Sym:
		return x.lowerSym(v.Name, fr)

	case Group:
		nt := x.anon(fr.prod)
		e := x.anonRule(nt, v.Items, nil, fr)
		return nt, e

	case Opt:
		nt := x.anon(fr.prod)
		e := x.addAnon(nt, nil, nil) // epsilon alternative
		if e == nil {
			e = x.anonRule(nt, v.Items, nil, fr)
		}
		return nt, e

	case Rep:
		return x.lowerRep(v, fr)

	case Alt:
		nt := x.anon(fr.prod)
		for _, branch := range v.Branches {
			e := x.anonRule(nt, branch, nil, fr)
			if e != nil {
				return grammar.NoSymbol, e
			}
		}
		return nt, nil

	case Call:
		return x.lowerCall(v, fr)

	case Inline:
		nt := x.anon(fr.prod)
		action, e := x.resolveAction(&v.Action, fr, true)
		if e != nil {
			return grammar.NoSymbol, e
		}
		return nt, x.addAnon(nt, nil, action)
	}

	return grammar.NoSymbol, gralt.FormatError(DefinitionOrderError, "unknown item in %q", fr.prod)
}

func (x *Expander) lowerSym(name string, fr frame) (grammar.SymbolID, error) {
	if fr.env != nil {
		id, bound := fr.env.syms[name]
		if bound {
			return id, nil
		}

		// inside a macro body unknown names are an ordering fault, not an
		// implicit declaration
		id = x.g.Lookup(name)
		if id == grammar.NoSymbol {
			return grammar.NoSymbol, definitionOrderError(name, fr.prod)
		}
		return id, nil
	}

	id := x.g.Lookup(name)
	if id == grammar.NoSymbol {
		id = x.g.Nonterminal(name)
	}
	return id, nil
}

// lowerRep synthesizes the repetition nonterminal:
//
//	X*  ->  r: ε | r X      X+  ->  r: X | r X
//
// with implied accumulate actions unless the repetition is tagged
// non-accumulating.
func (x *Expander) lowerRep(v Rep, fr frame) (grammar.SymbolID, error) {
	if len(v.Items) == 0 {
		return grammar.NoSymbol, emptyRepeatError(fr.prod)
	}

	nt := x.anon(fr.prod)
	bodyLen := len(v.Items)

	var seedAction, stepAction *grammar.Action
	if !v.NoAccumulate {
		// the loop slot sits right after the consumed prefix; one body
		// iteration follows it
		loopSlot := fr.base + 1
		seedRefs := make([]grammar.SemRef, 0, bodyLen)
		stepRefs := make([]grammar.SemRef, 0, bodyLen+1)
		stepRefs = append(stepRefs, grammar.SemRef{Offset: 0, Abs: loopSlot})
		for i := 0; i < bodyLen; i++ {
			seedRefs = append(seedRefs, grammar.SemRef{Offset: i, Abs: fr.base + i + 1})
			stepRefs = append(stepRefs, grammar.SemRef{Offset: i + 1, Abs: loopSlot + i + 1})
		}
		if v.AtLeastOne {
			seedAction = &grammar.Action{Constructor: ListConstructor, Refs: seedRefs}
		} else {
			seedAction = &grammar.Action{Constructor: ListConstructor}
		}
		stepAction = &grammar.Action{Constructor: AppendConstructor, Refs: stepRefs}
	}

	var e error
	if v.AtLeastOne {
		e = x.anonRule(nt, v.Items, seedAction, fr)
	} else {
		e = x.addAnon(nt, nil, seedAction)
	}
	if e != nil {
		return grammar.NoSymbol, e
	}

	// step rule: nt itself, then one body iteration after it
	step := fr
	step.base = fr.base + 1
	body, e := x.lowerSeq(v.Items, step)
	if e != nil {
		return grammar.NoSymbol, e
	}
	rhs := append([]grammar.SymbolID{nt}, body...)
	return nt, x.addAnon(nt, rhs, stepAction)
}

func (x *Expander) lowerCall(v Call, fr frame) (grammar.SymbolID, error) {
	m, defined := x.macros[v.Macro]
	if !defined {
		return grammar.NoSymbol, definitionOrderError(v.Macro, fr.prod)
	}
	if len(v.Args) != len(m.Formals) {
		return grammar.NoSymbol, argumentCountError(v.Macro, len(m.Formals), len(v.Args))
	}

	// fresh lexical environment per use: no aliasing across expansions
	use := &env{
		macro:   v.Macro,
		syms:    make(map[string]grammar.SymbolID),
		refs:    make(map[string]grammar.SemRef),
		actions: make(map[string]*grammar.Action),
	}
	for i, formal := range m.Formals {
		arg := v.Args[i]
		if arg.Kind != formal.Kind {
			return grammar.NoSymbol, argumentKindError(v.Macro, formal.Name)
		}

		switch formal.Kind {
		case SymbolParam:
			id := grammar.NoSymbol
			if fr.env != nil {
				bound, has := fr.env.syms[arg.Sym]
				if has {
					id = bound
				}
			}
			if id == grammar.NoSymbol {
				id = x.g.Lookup(arg.Sym)
			}
			if id == grammar.NoSymbol {
				return grammar.NoSymbol, definitionOrderError(arg.Sym, fr.prod)
			}
			use.syms[formal.Name] = id

		case RefParam:
			// an actual reference is fixed up to the expansion site's zero
			// point, never the macro body's
			ref, e := x.resolveRef(arg.Ref, fr, true)
			if e != nil {
				return grammar.NoSymbol, macroHygieneError(v.Macro, fr.prod)
			}
			use.refs[formal.Name] = ref

		case ActionParam:
			action, e := x.resolveAction(arg.Action, fr, true)
			if e != nil {
				return grammar.NoSymbol, e
			}
			use.actions[formal.Name] = action
		}
	}

	x.seq++
	nt := x.g.Nonterminal(fmt.Sprintf("%s$%d", v.Macro, x.seq))
	sub := frame{prod: fr.prod, base: fr.base, env: use}
	for _, alt := range m.Alts {
		e := x.anonAlt(nt, alt, sub)
		if e != nil {
			return grammar.NoSymbol, e
		}
	}
	return nt, nil
}

// anon synthesizes a fresh anonymous nonterminal. Anonymous productions never
// open a zero point.
func (x *Expander) anon(prod string) grammar.SymbolID {
	x.seq++
	return x.g.Nonterminal(fmt.Sprintf("%s$%d", prod, x.seq))
}

func (x *Expander) anonRule(nt grammar.SymbolID, items []Item, action *grammar.Action, fr frame) error {
	rhs, e := x.lowerSeq(items, fr)
	if e != nil {
		return e
	}
	return x.addAnon(nt, rhs, action)
}

func (x *Expander) anonAlt(nt grammar.SymbolID, alt MacroAlt, fr frame) error {
	rhs, e := x.lowerSeq(alt.Items, fr)
	if e != nil {
		return e
	}

	action, e := x.resolveAction(alt.Action, fr, false)
	if e != nil {
		return e
	}
	return x.addAnon(nt, rhs, action)
}

func (x *Expander) addAnon(nt grammar.SymbolID, rhs []grammar.SymbolID, action *grammar.Action) error {
	_, e := x.g.AddRule(grammar.Rule{LHS: nt, RHS: rhs, Action: action})
	return e
}

// resolveAction resolves an action expression. zeroRel selects whether
// literal offsets count from the enclosing zero point (named production
// actions, inline actions, macro actuals) or from the current construct's
// left end (macro body alternatives).
func (x *Expander) resolveAction(a *ActionExpr, fr frame, zeroRel bool) (*grammar.Action, error) {
	if a == nil {
		return nil, nil
	}

	if a.Formal != "" {
		if fr.env == nil {
			return nil, definitionOrderError(a.Formal, fr.prod)
		}
		action, bound := fr.env.actions[a.Formal]
		if !bound {
			return nil, definitionOrderError(a.Formal, fr.prod)
		}
		return action, nil
	}

	refs := make([]grammar.SemRef, 0, len(a.Refs))
	for _, r := range a.Refs {
		ref, e := x.resolveRef(r, fr, zeroRel)
		if e != nil {
			return nil, e
		}
		refs = append(refs, ref)
	}
	return &grammar.Action{Constructor: a.Constructor, Refs: refs}, nil
}

// resolveRef turns a declared offset into an absolute 1-based value-stack
// position measured from the zero point. Once resolved it never moves.
func (x *Expander) resolveRef(r RefExpr, fr frame, zeroRel bool) (grammar.SemRef, error) {
	if r.Formal != "" {
		if fr.env == nil {
			return grammar.SemRef{}, definitionOrderError(r.Formal, fr.prod)
		}
		ref, bound := fr.env.refs[r.Formal]
		if !bound {
			return grammar.SemRef{}, macroHygieneError(fr.env.macro, fr.prod)
		}
		return ref, nil
	}

	if r.Offset < 0 {
		return grammar.SemRef{}, macroHygieneError(fr.prod, fr.prod)
	}

	abs := r.Offset + 1
	if !zeroRel {
		abs += fr.base
	}
	return grammar.SemRef{Offset: r.Offset, Abs: abs}, nil
}
