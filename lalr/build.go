// Package lalr builds a deterministic LALR(1) parser table from finalized
// BNF: canonical LR(0) item sets, lookaheads by spontaneous generation plus
// propagation to a fixed point, conflict resolution per declared precedence,
// and default-reduction row compaction. All passes run over explicit
// worklists; states and conflicts accumulate in append-only slices, so the
// output is deterministic and reproducible.
package lalr

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/dvekon/gralt/grammar"
	"github.com/dvekon/gralt/internal/queue"
)

// Options controls table construction.
type Options struct {
	// NoDefaultReductions disables row compaction. Compaction only delays
	// error detection by up to one token; it never changes acceptance.
	NoDefaultReductions bool
}

// item is an LR(0) item: the dot sits before RHS position dot.
type item struct {
	rule, dot int
}

// node addresses one lookahead set: a kernel item or a completed epsilon
// item of a state.
type node struct {
	state int
	it    item
}

type stateBuild struct {
	kernel []item
	edges  map[grammar.SymbolID]int
	la     map[item]*bitset.BitSet
	links  map[item][]node
}

type builder struct {
	g    *grammar.Grammar
	fs   *grammar.FirstSets
	opts Options

	end        grammar.SymbolID
	acceptRule int
	bits       uint // lookahead set width: all symbols plus the '#' marker
	hash       uint // bit index of '#'

	transparent []bool
	shiftMemo   map[grammar.SymbolID][]grammar.SymbolID
	expandMemo  map[grammar.SymbolID][]grammar.SymbolID

	states    []*stateBuild
	index     map[string]int
	conflicts []Conflict
}

// Build constructs the parser table for a validated grammar. The returned
// conflict log lists every resolved ambiguity; a non-nil error means no
// usable table exists and nothing must be serialized.
func Build(g *grammar.Grammar, opts Options) (*Table, []Conflict, error) {
	if g.Start() == grammar.NoSymbol {
		return nil, nil, noStartError()
	}
	e := g.Validate()
	if e != nil {
		return nil, nil, e
	}

	b := &builder{
		g:          g,
		opts:       opts,
		end:        g.VoidTerminal("$end"),
		acceptRule: g.NumRules(),
		shiftMemo:  make(map[grammar.SymbolID][]grammar.SymbolID),
		expandMemo: make(map[grammar.SymbolID][]grammar.SymbolID),
		index:      make(map[string]int),
	}
	b.fs = g.ComputeFirst()
	b.bits = uint(g.NumSymbols()) + 1
	b.hash = uint(g.NumSymbols())
	b.markTransparent()

	b.collectStates()
	b.computeLookaheads()

	table, e := b.buildTable()
	if e != nil {
		return nil, nil, e
	}
	return table, b.conflicts, nil
}

// markTransparent flags nonterminals whose every production is a single
// unmodified symbol with no action. Such nonterminals get no edges of their
// own: the underlying symbols shift directly into the successor state.
func (b *builder) markTransparent() {
	b.transparent = make([]bool, b.g.NumSymbols())
	for i := 0; i < b.g.NumSymbols(); i++ {
		id := grammar.SymbolID(i)
		if b.g.IsTerminal(id) {
			continue
		}
		rules := b.g.RulesFor(id)
		if len(rules) == 0 {
			continue
		}
		all := true
		for _, r := range rules {
			if !b.g.Rule(r).Transparent {
				all = false
				break
			}
		}
		b.transparent[i] = all
	}
}

func (b *builder) rhsOf(r int) []grammar.SymbolID {
	if r == b.acceptRule {
		return []grammar.SymbolID{b.g.Start()}
	}
	return b.g.Rule(grammar.RuleID(r)).RHS
}

// shiftSyms lists the symbols that actually appear on edges in place of sym:
// the symbol itself, or the unit targets of an elided nonterminal.
func (b *builder) shiftSyms(sym grammar.SymbolID) []grammar.SymbolID {
	if b.g.IsTerminal(sym) || !b.transparent[sym] {
		return []grammar.SymbolID{sym}
	}
	memo, has := b.shiftMemo[sym]
	if has {
		return memo
	}
	b.shiftMemo[sym] = nil // cycles are rejected by validation; guard anyway

	seen := make(map[grammar.SymbolID]bool)
	result := make([]grammar.SymbolID, 0, 2)
	for _, r := range b.g.RulesFor(sym) {
		for _, u := range b.shiftSyms(b.g.Rule(r).RHS[0]) {
			if !seen[u] {
				seen[u] = true
				result = append(result, u)
			}
		}
	}
	b.shiftMemo[sym] = result
	return result
}

// expandNts lists the non-transparent nonterminals whose rules join the
// closure when sym follows the dot.
func (b *builder) expandNts(sym grammar.SymbolID) []grammar.SymbolID {
	if b.g.IsTerminal(sym) {
		return nil
	}
	if !b.transparent[sym] {
		return []grammar.SymbolID{sym}
	}
	memo, has := b.expandMemo[sym]
	if has {
		return memo
	}
	b.expandMemo[sym] = nil

	seen := make(map[grammar.SymbolID]bool)
	result := make([]grammar.SymbolID, 0, 2)
	for _, r := range b.g.RulesFor(sym) {
		for _, nt := range b.expandNts(b.g.Rule(r).RHS[0]) {
			if !seen[nt] {
				seen[nt] = true
				result = append(result, nt)
			}
		}
	}
	b.expandMemo[sym] = result
	return result
}

func kernelKey(kernel []item) string {
	key := ""
	for _, it := range kernel {
		key += fmt.Sprintf("%d.%d;", it.rule, it.dot)
	}
	return key
}

func (b *builder) intern(kernel []item) (int, bool) {
	sort.Slice(kernel, func(i, j int) bool {
		if kernel[i].rule != kernel[j].rule {
			return kernel[i].rule < kernel[j].rule
		}
		return kernel[i].dot < kernel[j].dot
	})

	key := kernelKey(kernel)
	s, has := b.index[key]
	if has {
		return s, false
	}

	s = len(b.states)
	st := &stateBuild{
		kernel: kernel,
		edges:  make(map[grammar.SymbolID]int),
		la:     make(map[item]*bitset.BitSet),
		links:  make(map[item][]node),
	}
	for _, it := range kernel {
		st.la[it] = bitset.New(b.bits)
	}
	b.states = append(b.states, st)
	b.index[key] = s
	return s, true
}

// closureItems computes the LR(0) closure of a state's kernel.
func (b *builder) closureItems(kernel []item) []item {
	seen := make(map[item]bool)
	work := queue.New[item]()
	for _, it := range kernel {
		seen[it] = true
		work.Append(it)
	}

	for {
		it, fetched := work.First()
		if !fetched {
			break
		}

		rhs := b.rhsOf(it.rule)
		if it.dot == len(rhs) {
			continue
		}
		for _, nt := range b.expandNts(rhs[it.dot]) {
			for _, r := range b.g.RulesFor(nt) {
				next := item{int(r), 0}
				if !seen[next] {
					seen[next] = true
					work.Append(next)
				}
			}
		}
	}

	items := make([]item, 0, len(seen))
	for it := range seen {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].rule != items[j].rule {
			return items[i].rule < items[j].rule
		}
		return items[i].dot < items[j].dot
	})
	return items
}

// collectStates builds the canonical LR(0) collection over a worklist.
// States sharing a core are interned once, which is exactly the LALR merge.
func (b *builder) collectStates() {
	start, _ := b.intern([]item{{b.acceptRule, 0}})
	work := queue.New(start)

	for {
		s, fetched := work.First()
		if !fetched {
			break
		}
		st := b.states[s]

		group := make(map[grammar.SymbolID]map[item]bool)
		for _, it := range b.closureItems(st.kernel) {
			rhs := b.rhsOf(it.rule)
			if it.dot == len(rhs) {
				continue
			}
			next := item{it.rule, it.dot + 1}
			for _, u := range b.shiftSyms(rhs[it.dot]) {
				if group[u] == nil {
					group[u] = make(map[item]bool)
				}
				group[u][next] = true
			}
		}

		syms := make([]grammar.SymbolID, 0, len(group))
		for u := range group {
			syms = append(syms, u)
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })

		for _, u := range syms {
			kernel := make([]item, 0, len(group[u]))
			for it := range group[u] {
				kernel = append(kernel, it)
			}
			t, fresh := b.intern(kernel)
			st.edges[u] = t
			if fresh {
				work.Append(t)
			}
		}
	}
}

// lr1closure closes a single kernel item carrying the '#' marker, yielding
// per-item lookahead sets: symbols are spontaneous, '#' marks propagation
// from the kernel item.
func (b *builder) lr1closure(k item) map[item]*bitset.BitSet {
	la := map[item]*bitset.BitSet{k: bitset.New(b.bits)}
	la[k].Set(b.hash)
	work := queue.New(k)

	for {
		it, fetched := work.First()
		if !fetched {
			break
		}

		rhs := b.rhsOf(it.rule)
		if it.dot == len(rhs) {
			continue
		}
		sym := rhs[it.dot]
		if b.g.IsTerminal(sym) {
			continue
		}

		follow, nullable := b.fs.FirstOfSeq(rhs[it.dot+1:], b.bits)
		if nullable {
			follow.InPlaceUnion(la[it])
		}

		for _, nt := range b.expandNts(sym) {
			for _, r := range b.g.RulesFor(nt) {
				tgt := item{int(r), 0}
				set, has := la[tgt]
				if !has {
					set = bitset.New(b.bits)
					la[tgt] = set
				}
				before := set.Count()
				set.InPlaceUnion(follow)
				if set.Count() != before {
					work.Append(tgt)
				}
			}
		}
	}
	return la
}

// computeLookaheads seeds spontaneous lookaheads and propagation links from
// every kernel item, then propagates to a fixed point.
func (b *builder) computeLookaheads() {
	b.states[0].la[item{b.acceptRule, 0}].Set(uint(b.end))

	for s, st := range b.states {
		for _, k := range st.kernel {
			clos := b.lr1closure(k)
			items := make([]item, 0, len(clos))
			for it := range clos {
				items = append(items, it)
			}
			sort.Slice(items, func(i, j int) bool {
				if items[i].rule != items[j].rule {
					return items[i].rule < items[j].rule
				}
				return items[i].dot < items[j].dot
			})

			for _, it := range items {
				set := clos[it]
				rhs := b.rhsOf(it.rule)

				if it.dot == len(rhs) {
					// completed epsilon items reduce in this very state
					if it == k {
						continue
					}
					b.seed(node{s, it}, set, node{s, k})
					continue
				}

				next := item{it.rule, it.dot + 1}
				for _, u := range b.shiftSyms(rhs[it.dot]) {
					b.seed(node{st.edges[u], next}, set, node{s, k})
				}
			}
		}
	}

	// propagation fixed point
	work := queue.New[node]()
	for s, st := range b.states {
		for it := range st.la {
			work.Append(node{s, it})
		}
	}
	for {
		n, fetched := work.First()
		if !fetched {
			break
		}
		from := b.states[n.state].la[n.it]
		for _, tgt := range b.states[n.state].links[n.it] {
			to := b.states[tgt.state].la[tgt.it]
			before := to.Count()
			to.InPlaceUnion(from)
			if to.Count() != before {
				work.Append(tgt)
			}
		}
	}
}

// seed adds the spontaneous part of set to the target node and installs a
// propagation link from src when the '#' marker is present.
func (b *builder) seed(tgt node, set *bitset.BitSet, src node) {
	st := b.states[tgt.state]
	to, has := st.la[tgt.it]
	if !has {
		to = bitset.New(b.bits)
		st.la[tgt.it] = to
	}
	to.InPlaceUnion(set)
	if to.Test(b.hash) {
		to.Clear(b.hash)
	}

	if set.Test(b.hash) {
		from := b.states[src.state]
		from.links[src.it] = append(from.links[src.it], tgt)
	}
}

func (b *builder) buildTable() (*Table, error) {
	t := &Table{
		Start: 0,
		End:   int(b.end),
	}

	for i := 0; i < b.g.NumSymbols(); i++ {
		sym := b.g.Symbol(grammar.SymbolID(i))
		t.Symbols = append(t.Symbols, SymbolInfo{
			Name:     sym.Name,
			Terminal: sym.Kind == grammar.Terminal,
			HasValue: sym.HasValue,
		})
	}

	for i := 0; i < b.g.NumRules(); i++ {
		rule := b.g.Rule(grammar.RuleID(i))
		tr := TableRule{Lhs: int(rule.LHS), Rhs: make([]int, len(rule.RHS)), ActionRef: NoReduction}
		for j, s := range rule.RHS {
			tr.Rhs[j] = int(s)
		}
		if rule.Action != nil {
			tr.ActionRef = len(t.Actions)
			t.Actions = append(t.Actions, *rule.Action)
		}
		t.Rules = append(t.Rules, tr)
	}

	for s, st := range b.states {
		row := StateRow{DefaultReduction: NoReduction}

		syms := make([]grammar.SymbolID, 0, len(st.edges))
		for u := range st.edges {
			syms = append(syms, u)
		}
		sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
		for _, u := range syms {
			if b.g.IsTerminal(u) {
				if row.Shift == nil {
					row.Shift = make(map[int]int)
				}
				row.Shift[int(u)] = st.edges[u]
			} else {
				if row.Goto == nil {
					row.Goto = make(map[int]int)
				}
				row.Goto[int(u)] = st.edges[u]
			}
		}

		items := make([]item, 0, len(st.la))
		for it := range st.la {
			items = append(items, it)
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].rule != items[j].rule {
				return items[i].rule < items[j].rule
			}
			return items[i].dot < items[j].dot
		})

		for _, it := range items {
			if it.dot != len(b.rhsOf(it.rule)) {
				continue
			}
			if it.rule == b.acceptRule {
				row.Accept = st.la[it].Test(uint(b.end))
				continue
			}

			set := st.la[it]
			for u, ok := set.NextSet(0); ok && u < uint(b.g.NumSymbols()); u, ok = set.NextSet(u + 1) {
				e := b.addReduce(s, &row, grammar.SymbolID(u), grammar.RuleID(it.rule))
				if e != nil {
					return nil, e
				}
			}
		}

		t.States = append(t.States, row)
	}

	if !b.opts.NoDefaultReductions {
		compactRows(t.States)
	}
	return t, nil
}

// addReduce installs one reduction, resolving conflicts per policy:
// precedence/associativity when declared, otherwise shift wins a shift/reduce
// and the earlier rule wins a reduce/reduce. Every resolution is recorded.
func (b *builder) addReduce(s int, row *StateRow, lookahead grammar.SymbolID, rule grammar.RuleID) error {
	term := int(lookahead)

	_, shifts := row.Shift[term]
	if shifts {
		if name := b.g.Rule(rule).PrecSym; name != "" {
			if _, declared := b.g.TokenPrecedence(b.g.Lookup(name)); !declared {
				return conflictError(s, b.g.Name(lookahead), int(rule))
			}
		}

		decision := b.g.DecideShiftReduce(lookahead, rule)
		conflict := Conflict{
			State: s, Lookahead: lookahead, Kind: ShiftReduce,
			Rules: []grammar.RuleID{rule}, Declared: decision != grammar.Undecided,
		}
		switch decision {
		case grammar.PreferReduce:
			delete(row.Shift, term)
			b.setReduce(row, term, rule)
			conflict.Resolution = KeptReduce
		case grammar.ForbidBoth:
			level, _ := b.g.RulePrecedence(rule)
			if b.g.LevelAssoc(level) == grammar.BogusAssoc {
				return conflictError(s, b.g.Name(lookahead), int(rule))
			}
			delete(row.Shift, term)
			conflict.Resolution = MadeError
		default:
			conflict.Resolution = KeptShift
		}
		b.conflicts = append(b.conflicts, conflict)
		return nil
	}

	prev, has := row.Reduce[term]
	if has {
		winner := rule
		if grammar.RuleID(prev) < rule {
			winner = grammar.RuleID(prev)
		}
		b.conflicts = append(b.conflicts, Conflict{
			State: s, Lookahead: lookahead, Kind: ReduceReduce,
			Rules:      []grammar.RuleID{grammar.RuleID(prev), rule},
			Resolution: KeptEarlierRule,
		})
		b.setReduce(row, term, winner)
		return nil
	}

	b.setReduce(row, term, rule)
	return nil
}

func (b *builder) setReduce(row *StateRow, term int, rule grammar.RuleID) {
	if row.Reduce == nil {
		row.Reduce = make(map[int]int)
	}
	row.Reduce[term] = int(rule)
}

// compactRows collapses rows whose every lookahead maps to the same
// reduction into a single unconditional DefaultReduction.
func compactRows(rows []StateRow) {
	for i := range rows {
		row := &rows[i]
		if len(row.Shift) > 0 || row.Accept || len(row.Reduce) == 0 {
			continue
		}

		rule := NoReduction
		same := true
		for _, r := range row.Reduce {
			if rule == NoReduction {
				rule = r
			} else if rule != r {
				same = false
				break
			}
		}
		if same {
			row.DefaultReduction = rule
			row.Reduce = nil
			row.ReduceOnly = true
		}
	}
}
