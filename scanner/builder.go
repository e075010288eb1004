// Package scanner compiles a structured lexical specification into minimized
// per-start-state DFAs over a shared alphabet partition: class partitioning,
// Thompson construction, subset construction, partition-refinement
// minimization, examples/exceptions compression, then the reserved-word pass.
package scanner

// Def declares a named subexpression usable via Ref in later patterns.
// Forward references are rejected.
type Def struct {
	Name    string
	Pattern Node
}

// NamedClass declares a user character class. Its definition may use builtin
// classes and user classes declared earlier.
type NamedClass struct {
	Name string
	Def  Chars
}

// Rule is one lexical rule. States lists the start states the rule belongs
// to; empty means all. Guard names a driver-side predicate that must hold
// for the match to stand.
type Rule struct {
	Name     string
	Pattern  Node
	Priority int
	Action   Action
	States   []string
	Guard    string
}

// Spec is a complete lexical specification.
type Spec struct {
	Defs     []Def
	Classes  []NamedClass
	Rules    []Rule
	Starts   []string // defaults to just "initial"
	Reserved []ReservedWord
}

type builder struct {
	spec    *Spec
	starts  map[string]int
	defs    map[string]Node
	classes map[string]charSet
	alpha   *alphabet
	nfa     []nfaState
}

// Build compiles the specification. Any fault aborts with no table.
func Build(spec *Spec) (*Table, error) {
	b := &builder{
		spec:    spec,
		starts:  make(map[string]int),
		defs:    make(map[string]Node),
		classes: make(map[string]charSet),
	}

	startNames := spec.Starts
	if len(startNames) == 0 {
		startNames = []string{"initial"}
	}
	for i, name := range startNames {
		b.starts[name] = i
	}

	for _, nc := range spec.Classes {
		def := nc.Def
		set, e := b.resolveChars(&def)
		if e != nil {
			return nil, e
		}
		b.classes[nc.Name] = set
	}

	e := b.checkRules(startNames)
	if e != nil {
		return nil, e
	}

	// gather every leaf set, then freeze the alphabet partition
	var sets []charSet
	for _, d := range spec.Defs {
		e = b.collectSets(d.Pattern, &sets)
		if e != nil {
			return nil, e
		}
		b.defs[d.Name] = d.Pattern
	}
	for i := range spec.Rules {
		e = b.collectSets(spec.Rules[i].Pattern, &sets)
		if e != nil {
			return nil, e
		}
	}
	b.alpha = buildAlphabet(sets)

	entries := make([]int, len(spec.Rules))
	for i := range spec.Rules {
		f, e := b.compile(spec.Rules[i].Pattern)
		if e != nil {
			return nil, e
		}
		b.nfa[f.out].accept = i
		entries[i] = f.start
	}

	t := &Table{
		Classes:    b.alpha.classRanges(),
		NumClasses: b.alpha.n,
	}
	for i := range spec.Rules {
		r := &spec.Rules[i]
		t.Rules = append(t.Rules, RuleInfo{
			Name: r.Name, Priority: r.Priority, Action: r.Action, Guard: r.Guard,
		})
	}

	for _, name := range startNames {
		var member []int
		for i := range spec.Rules {
			if b.ruleInState(&spec.Rules[i], name) {
				member = append(member, entries[i])
			}
		}

		d, e := b.subset(member, name)
		if e != nil {
			return nil, e
		}
		if d.accepts[0] >= 0 {
			return nil, emptyMatchError(spec.Rules[d.accepts[0]].Name, name)
		}
		d = d.minimize()

		t.Starts = append(t.Starts, StartState{
			Name:    name,
			Rows:    compressRows(d.rows),
			Accepts: d.accepts,
		})
	}

	e = b.applyReserved(t)
	if e != nil {
		return nil, e
	}
	return t, nil
}

func (b *builder) ruleInState(r *Rule, name string) bool {
	if len(r.States) == 0 {
		return true
	}
	for _, s := range r.States {
		if s == name {
			return true
		}
	}
	return false
}

func (b *builder) checkRules(startNames []string) error {
	for i := range b.spec.Rules {
		r := &b.spec.Rules[i]
		for _, s := range r.States {
			if _, has := b.starts[s]; !has {
				return unknownStateError(s)
			}
		}
		switch r.Action.Kind {
		case Jump, Push:
			if _, has := b.starts[r.Action.Target]; !has {
				return unknownStateError(r.Action.Target)
			}
		}
	}
	return nil
}

// resolveChars evaluates a class expression to a concrete rune set.
func (b *builder) resolveChars(c *Chars) (charSet, error) {
	var set charSet
	for _, r := range c.Ranges {
		set.add(r.Lo, r.Hi)
	}
	for _, name := range c.Named {
		named, has := b.classes[name]
		if !has {
			named, has = builtinClass(name)
		}
		if !has {
			return charSet{}, unknownClassError(name)
		}
		set.addSet(named)
	}
	set = set.normalized()
	if c.Negate {
		set = set.negated()
	}
	return set, nil
}

func (b *builder) anySet(newline bool) charSet {
	if newline {
		return charSet{}.negated()
	}
	return lineTerminators().negated()
}

func (b *builder) collectSets(n Node, sets *[]charSet) error {
	switch v := n.(type) {
	case *Chars:
		set, e := b.resolveChars(v)
		if e != nil {
			return e
		}
		*sets = append(*sets, set)
	case *Any:
		*sets = append(*sets, b.anySet(v.Newline))
	case *Ref:
		if _, has := b.defs[v.Name]; !has {
			return unknownNameError(v.Name)
		}
		// the definition's own leaves were collected when it was declared
	case *Seq:
		for _, item := range v.Items {
			if e := b.collectSets(item, sets); e != nil {
				return e
			}
		}
	case *Alt:
		for _, branch := range v.Branches {
			if e := b.collectSets(branch, sets); e != nil {
				return e
			}
		}
	case *Star:
		return b.collectSets(v.Inner, sets)
	case *Plus:
		return b.collectSets(v.Inner, sets)
	case *Opt:
		return b.collectSets(v.Inner, sets)
	}
	return nil
}
