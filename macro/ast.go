// Package macro expands macros and desugars EBNF constructs into plain BNF
// rules with resolved semantic references. The expansion environment is
// scoped to one Expander and discarded with it; nothing survives a build.
package macro

// Item is one element of an extended right-hand side.
type Item interface {
	isItem()
}

// Sym references a grammar symbol by name. Inside a macro body the name may
// be a formal parameter of symbol kind.
type Sym struct {
	Name string
}

// Group is a parenthesized sequence; it desugars to a synthesized anonymous
// nonterminal with a single production.
type Group struct {
	Items []Item
}

// Opt is an optional sequence: anonymous nonterminal with an epsilon
// alternative.
type Opt struct {
	Items []Item
}

// Rep is a repetition. AtLeastOne distinguishes X+ from X*. NoAccumulate
// suppresses the implied accumulate action.
type Rep struct {
	Items        []Item
	AtLeastOne   bool
	NoAccumulate bool
}

// Alt is an alternation between sequences; one synthesized production per
// branch.
type Alt struct {
	Branches [][]Item
}

// Call expands a previously defined macro at this point; the synthesized
// nonterminal is named freshly for every use.
type Call struct {
	Macro string
	Args  []Arg
}

// Inline is an internal action in the middle of a right-hand side, modeled as
// an anonymous epsilon production. Its references read back to the enclosing
// zero point; its reduction consumes no stack symbols.
type Inline struct {
	Action ActionExpr
}

func (Sym) isItem()    {}
func (Group) isItem()  {}
func (Opt) isItem()    {}
func (Rep) isItem()    {}
func (Alt) isItem()    {}
func (Call) isItem()   {}
func (Inline) isItem() {}

// RefExpr is an unresolved semantic reference. Either Formal names a macro
// parameter of reference kind, or Offset is a 0-based position. For a
// production or macro body the offset counts from the construct's left end;
// for an Inline action it counts from the enclosing zero point.
type RefExpr struct {
	Formal string
	Offset int
}

// ActionExpr is an unresolved action: a constructor name (or a formal of
// action kind) plus the references it consumes.
type ActionExpr struct {
	Constructor string
	Formal      string
	Refs        []RefExpr
}

// ParamKind tags a macro parameter: exactly a symbol, a semantic reference,
// or an action.
type ParamKind int

const (
	SymbolParam ParamKind = iota
	RefParam
	ActionParam
)

// Formal is one declared macro parameter.
type Formal struct {
	Name string
	Kind ParamKind
}

// Arg is the actual bound to a formal at an expansion site. Exactly the field
// matching the formal's kind is significant.
type Arg struct {
	Kind   ParamKind
	Sym    string
	Ref    RefExpr
	Action *ActionExpr
}

// SymbolArg builds a symbol actual.
func SymbolArg(name string) Arg {
	return Arg{Kind: SymbolParam, Sym: name}
}

// RefArg builds a semantic-reference actual; offset counts from the expansion
// site's zero point.
func RefArg(offset int) Arg {
	return Arg{Kind: RefParam, Ref: RefExpr{Offset: offset}}
}

// ActionArg builds an action actual.
func ActionArg(a ActionExpr) Arg {
	return Arg{Kind: ActionParam, Action: &a}
}

// MacroAlt is one alternative of a macro body.
type MacroAlt struct {
	Items  []Item
	Action *ActionExpr
}

// MacroDef declares a macro. Rules are generated at each use; uses before the
// definition fail with DefinitionOrderError.
type MacroDef struct {
	Name    string
	Formals []Formal
	Alts    []MacroAlt
	Origin  string
}

// Production is a named extended production; it opens a new zero point.
type Production struct {
	Name   string
	Items  []Item
	Action *ActionExpr
	// PrecSym optionally names the terminal fixing this rule's precedence.
	PrecSym string
	Origin  string
}

// Decl is one declaration in specification order: either a macro definition
// or a production.
type Decl struct {
	Macro *MacroDef
	Prod  *Production
}
