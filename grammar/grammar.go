// Package grammar defines the normalized grammar model: symbols, rules,
// actions, and precedence declarations. Symbols and rules are held in
// append-only arenas and referred to by stable integer ids, so recursive
// grammars need no pointer cycles. A Grammar is built and consumed within a
// single table build and never shared across builds.
package grammar

const (
	// NoSymbol marks an absent symbol reference.
	NoSymbol SymbolID = -1
	// NoRule marks an absent rule reference.
	NoRule RuleID = -1
)

type SymbolID int

type RuleID int

type SymbolKind int

const (
	Terminal SymbolKind = iota
	Nonterminal
)

// Symbol is a terminal or nonterminal identity.
// HasValue records the semantic arity: whether a shift or reduction of this
// symbol pushes a value onto the driver's value stack.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	HasValue bool
}

// Assoc is the associativity of one precedence level.
type Assoc int

const (
	Left Assoc = iota
	Right
	NonAssoc
	// BogusAssoc marks a precedence-only level: its tokens exist solely to be
	// named in explicit rule precedence and must not appear in any RHS.
	BogusAssoc
)

// SemRef is a semantic reference: an offset declared relative to the nearest
// enclosing zero point. Offset is the 0-based RHS position as written; Abs is
// the resolved 1-based value-stack position from the zero point, 0 while
// unresolved. Once a named production is finalized Abs never changes.
type SemRef struct {
	Offset int `json:"offset"`
	Abs    int `json:"abs"`
}

// Action names a constructor on the driver's action sink together with the
// resolved semantic references it consumes.
type Action struct {
	Constructor string   `json:"constructor"`
	Refs        []SemRef `json:"refs,omitempty"`
}

// Rule is a single BNF production.
type Rule struct {
	LHS    SymbolID   `json:"lhs"`
	RHS    []SymbolID `json:"rhs"`
	Action *Action    `json:"action,omitempty"`

	// PrecSym names the terminal fixing this rule's precedence explicitly;
	// empty means the level is inferred from the RHS.
	PrecSym string `json:"-"`

	// ZeroPoint is set on named productions: the rule opens a fresh
	// stack-offset origin for semantic references.
	ZeroPoint bool `json:"-"`

	// Transparent marks an unmodified single-symbol rule with no action;
	// the automaton builder creates no dedicated edge for it.
	Transparent bool `json:"-"`

	// Origin records the provenance of the rule for diagnostics.
	Origin string `json:"-"`
}

// Grammar is the arena holding all symbols and rules of one build.
type Grammar struct {
	symbols  []Symbol
	index    map[string]SymbolID
	rules    []Rule
	rulesFor map[SymbolID][]RuleID
	start    SymbolID

	tokenPrec  map[SymbolID]int
	levelAssoc []Assoc
}

func New() *Grammar {
	return &Grammar{
		index:     make(map[string]SymbolID),
		rulesFor:  make(map[SymbolID][]RuleID),
		start:     NoSymbol,
		tokenPrec: make(map[SymbolID]int),
	}
}

// Terminal returns the id of the named terminal, adding it if needed.
func (g *Grammar) Terminal(name string) SymbolID {
	return g.add(name, Terminal, true)
}

// Nonterminal returns the id of the named nonterminal, adding it if needed.
func (g *Grammar) Nonterminal(name string) SymbolID {
	return g.add(name, Nonterminal, true)
}

// VoidTerminal adds a terminal that pushes no semantic value.
func (g *Grammar) VoidTerminal(name string) SymbolID {
	return g.add(name, Terminal, false)
}

func (g *Grammar) add(name string, kind SymbolKind, hasValue bool) SymbolID {
	id, has := g.index[name]
	if has {
		return id
	}

	id = SymbolID(len(g.symbols))
	g.symbols = append(g.symbols, Symbol{name, kind, hasValue})
	g.index[name] = id
	return id
}

// Lookup returns the id of a previously added symbol, or NoSymbol.
func (g *Grammar) Lookup(name string) SymbolID {
	id, has := g.index[name]
	if !has {
		return NoSymbol
	}
	return id
}

func (g *Grammar) Symbol(id SymbolID) Symbol {
	return g.symbols[id]
}

func (g *Grammar) Name(id SymbolID) string {
	if id == NoSymbol {
		return ""
	}
	return g.symbols[id].Name
}

func (g *Grammar) NumSymbols() int {
	return len(g.symbols)
}

func (g *Grammar) IsTerminal(id SymbolID) bool {
	return g.symbols[id].Kind == Terminal
}

// SetStart declares the start symbol.
func (g *Grammar) SetStart(id SymbolID) {
	g.start = id
}

func (g *Grammar) Start() SymbolID {
	return g.start
}

// AddRule installs a plain BNF rule and returns its id.
// Duplicate rules (same LHS and RHS) are rejected.
func (g *Grammar) AddRule(r Rule) (RuleID, error) {
	if g.symbols[r.LHS].Kind != Nonterminal {
		return NoRule, terminalLhsError(g.Name(r.LHS))
	}
	if _, has := g.tokenPrec[r.LHS]; has {
		return NoRule, nontermPrecedenceError(g.Name(r.LHS))
	}

	for _, id := range g.rulesFor[r.LHS] {
		if sameRHS(g.rules[id].RHS, r.RHS) {
			return NoRule, duplicateRuleError(g.Name(r.LHS), int(id))
		}
	}

	r.Transparent = len(r.RHS) == 1 && r.Action == nil
	id := RuleID(len(g.rules))
	g.rules = append(g.rules, r)
	g.rulesFor[r.LHS] = append(g.rulesFor[r.LHS], id)
	return id, nil
}

func sameRHS(a, b []SymbolID) bool {
	if len(a) != len(b) {
		return false
	}
	for i, s := range a {
		if s != b[i] {
			return false
		}
	}
	return true
}

func (g *Grammar) Rule(id RuleID) *Rule {
	return &g.rules[id]
}

func (g *Grammar) NumRules() int {
	return len(g.rules)
}

// RulesFor returns the ids of all rules producing the given nonterminal.
func (g *Grammar) RulesFor(id SymbolID) []RuleID {
	return g.rulesFor[id]
}

// DeclarePrecedence allocates the next precedence level and assigns it to the
// given terminals. Later declarations bind tighter.
func (g *Grammar) DeclarePrecedence(assoc Assoc, symbols ...SymbolID) error {
	level := len(g.levelAssoc)
	g.levelAssoc = append(g.levelAssoc, assoc)

	for _, id := range symbols {
		if len(g.rulesFor[id]) > 0 || g.symbols[id].Kind == Nonterminal {
			return nontermPrecedenceError(g.Name(id))
		}
		if _, has := g.tokenPrec[id]; has {
			return precedenceRedeclaredError(g.Name(id))
		}
		g.tokenPrec[id] = level
	}
	return nil
}

// TokenPrecedence returns the declared precedence level of a terminal.
func (g *Grammar) TokenPrecedence(id SymbolID) (int, bool) {
	level, has := g.tokenPrec[id]
	return level, has
}

// LevelAssoc returns the associativity of a precedence level.
func (g *Grammar) LevelAssoc(level int) Assoc {
	return g.levelAssoc[level]
}

// InferPrecSym picks the symbol representing a rule's precedence when none was
// declared explicitly: the first RHS terminal with an assigned precedence.
func (g *Grammar) InferPrecSym(id RuleID) SymbolID {
	for _, s := range g.rules[id].RHS {
		if _, has := g.tokenPrec[s]; has {
			return s
		}
	}
	return NoSymbol
}

// RulePrecedence determines the precedence level of a rule, explicit or
// inferred. An explicit name that resolves to no known symbol yields no
// level; it never falls back to inference.
func (g *Grammar) RulePrecedence(id RuleID) (int, bool) {
	var sym SymbolID
	if name := g.rules[id].PrecSym; name != "" {
		sym = g.Lookup(name)
	} else {
		sym = g.InferPrecSym(id)
	}
	if sym == NoSymbol {
		return 0, false
	}
	level, has := g.tokenPrec[sym]
	return level, has
}

// ShiftDecision is the outcome of comparing a lookahead's precedence against
// a conflicting rule's.
type ShiftDecision int

const (
	Undecided ShiftDecision = iota // no declaration applies
	PreferShift
	PreferReduce
	ForbidBoth // nonassoc at equal level: the cell becomes an error
)

// DecideShiftReduce applies the precedence/associativity declarations to a
// shift/reduce conflict between the lookahead terminal and a reduction.
func (g *Grammar) DecideShiftReduce(lookahead SymbolID, rule RuleID) ShiftDecision {
	sp, has := g.tokenPrec[lookahead]
	if !has {
		return Undecided
	}
	rp, has := g.RulePrecedence(rule)
	if !has {
		return Undecided
	}

	switch {
	case rp < sp:
		return PreferShift
	case rp > sp:
		return PreferReduce
	}

	switch g.levelAssoc[rp] {
	case Left:
		return PreferReduce
	case Right:
		return PreferShift
	default:
		return ForbidBoth
	}
}
