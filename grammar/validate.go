package grammar

import (
	"github.com/bits-and-blooms/bitset"
	"go.uber.org/multierr"

	"github.com/dvekon/gralt/internal/queue"
)

// FirstSets holds the FIRST sets and the nullable set of a grammar, both
// indexed by SymbolID. First[s] contains terminal ids only.
type FirstSets struct {
	First    []*bitset.BitSet
	Nullable *bitset.BitSet
}

type rulePos struct {
	rule RuleID
	pos  int
}

// ComputeFirst answers two questions as one worklist fixed point: which
// terminals can a symbol begin with, and which symbols can produce the empty
// string. Suspended positions wait in a hangar keyed by the symbol whose
// nullability they need.
func (g *Grammar) ComputeFirst() *FirstSets {
	n := uint(len(g.symbols))
	fs := &FirstSets{
		First:    make([]*bitset.BitSet, n),
		Nullable: bitset.New(n),
	}

	// seed: transitively first[s] starts as {s}, masked to terminals later
	seen := make([]*bitset.BitSet, n)
	for i := range seen {
		seen[i] = bitset.New(n)
		seen[i].Set(uint(i))
	}

	hangar := make(map[SymbolID][]rulePos)
	work := queue.New[rulePos]()
	for r := range g.rules {
		work.Append(rulePos{RuleID(r), 0})
	}

	for {
		rp, fetched := work.First()
		if !fetched {
			break
		}

		rule := &g.rules[rp.rule]
		if rp.pos == len(rule.RHS) {
			if !fs.Nullable.Test(uint(rule.LHS)) {
				fs.Nullable.Set(uint(rule.LHS))
				for _, waiting := range hangar[rule.LHS] {
					work.Append(waiting)
				}
				delete(hangar, rule.LHS)
			}
			continue
		}

		sym := rule.RHS[rp.pos]
		seen[rule.LHS].Set(uint(sym))
		if fs.Nullable.Test(uint(sym)) {
			work.Append(rulePos{rp.rule, rp.pos + 1})
		} else {
			hangar[sym] = append(hangar[sym], rulePos{rp.rule, rp.pos + 1})
		}
	}

	// close over nonterminal members until stable
	changed := true
	for changed {
		changed = false
		for i := range seen {
			for s, ok := seen[i].NextSet(0); ok; s, ok = seen[i].NextSet(s + 1) {
				if SymbolID(s) == SymbolID(i) || g.symbols[s].Kind != Nonterminal {
					continue
				}
				before := seen[i].Count()
				seen[i].InPlaceUnion(seen[s])
				if seen[i].Count() != before {
					changed = true
				}
			}
		}
	}

	for i := range seen {
		fs.First[i] = bitset.New(n)
		for s, ok := seen[i].NextSet(0); ok; s, ok = seen[i].NextSet(s + 1) {
			if g.symbols[s].Kind == Terminal {
				fs.First[i].Set(s)
			}
		}
	}
	return fs
}

// FirstOfSeq returns the FIRST set of a symbol sequence and whether the whole
// sequence is nullable.
func (fs *FirstSets) FirstOfSeq(seq []SymbolID, n uint) (*bitset.BitSet, bool) {
	result := bitset.New(n)
	for _, s := range seq {
		result.InPlaceUnion(fs.First[s])
		if !fs.Nullable.Test(uint(s)) {
			return result, false
		}
	}
	return result, true
}

// Validate checks the structural health of the grammar: no precedence-only
// tokens in right-hand sides, every nonterminal well-founded and reachable
// from the start symbol, no renaming loops, no epsilon loops.
// All faults found are reported together.
func (g *Grammar) Validate() error {
	if g.start == NoSymbol {
		return noStartSymbolError()
	}

	return multierr.Combine(
		g.checkBogons(),
		g.checkWellFounded(),
		g.checkReachable(),
		g.checkRenamingLoops(),
		g.checkEpsilonLoops(),
	)
}

// checkBogons rejects rules mentioning tokens whose precedence level is
// BogusAssoc: such tokens exist only to be named in explicit precedence.
func (g *Grammar) checkBogons() error {
	var errs error
	for r := range g.rules {
		for _, s := range g.rules[r].RHS {
			level, has := g.tokenPrec[s]
			if has && g.levelAssoc[level] == BogusAssoc {
				errs = multierr.Append(errs, bogusTokenError(g.Name(s), r))
			}
		}
	}
	return errs
}

// checkWellFounded verifies every nonterminal can produce a finite terminal
// string. Rules are re-examined in passes until a pass makes no progress.
func (g *Grammar) checkWellFounded() error {
	founded := bitset.New(uint(len(g.symbols)))
	for i, s := range g.symbols {
		if s.Kind == Terminal {
			founded.Set(uint(i))
		}
	}

	black := make([]RuleID, 0, len(g.rules))
	for r := range g.rules {
		black = append(black, RuleID(r))
	}

	for len(black) > 0 {
		red := black[:0:0]
		for _, r := range black {
			rule := &g.rules[r]
			if founded.Test(uint(rule.LHS)) {
				continue
			}

			ok := true
			for _, s := range rule.RHS {
				if !founded.Test(uint(s)) {
					ok = false
					break
				}
			}
			if ok {
				founded.Set(uint(rule.LHS))
			} else {
				red = append(red, r)
			}
		}

		if len(red) == len(black) {
			bad := make(map[SymbolID]bool)
			for _, r := range red {
				if !founded.Test(uint(g.rules[r].LHS)) {
					bad[g.rules[r].LHS] = true
				}
			}
			if len(bad) > 0 {
				return illFoundedError(g.sortedNames(bad))
			}
			return nil
		}
		black = red
	}
	return nil
}

func (g *Grammar) checkReachable() error {
	reached := bitset.New(uint(len(g.symbols)))
	reached.Set(uint(g.start))
	work := queue.New(g.start)
	for {
		sym, fetched := work.First()
		if !fetched {
			break
		}

		for _, r := range g.rulesFor[sym] {
			for _, s := range g.rules[r].RHS {
				if !reached.Test(uint(s)) {
					reached.Set(uint(s))
					work.Append(s)
				}
			}
		}
	}

	// terminals may come from a lexical spec the parser never mentions, and
	// precedence-only tokens appear in no RHS at all; only orphaned
	// nonterminals are faults
	bad := make(map[SymbolID]bool)
	for i, s := range g.symbols {
		if s.Kind == Nonterminal && !reached.Test(uint(i)) {
			bad[SymbolID(i)] = true
		}
	}
	if len(bad) > 0 {
		return unreachableError(g.sortedNames(bad))
	}
	return nil
}

// checkRenamingLoops finds nonterminals that can derive themselves through
// chains of single-symbol rules.
func (g *Grammar) checkRenamingLoops() error {
	renames := make(map[SymbolID][]SymbolID)
	for r := range g.rules {
		rule := &g.rules[r]
		if len(rule.RHS) == 1 && g.symbols[rule.RHS[0]].Kind == Nonterminal {
			renames[rule.LHS] = append(renames[rule.LHS], rule.RHS[0])
		}
	}

	bad := g.onCycle(renames)
	if len(bad) > 0 {
		return renamingLoopError(g.sortedNames(bad))
	}
	return nil
}

// checkEpsilonLoops rejects recursion through nullable prefixes. Epsilon
// left-self-recursion is tolerated; everything else diverges.
func (g *Grammar) checkEpsilonLoops() error {
	fs := g.ComputeFirst()
	reaches := make(map[SymbolID][]SymbolID)
	bad := make(map[SymbolID]bool)

	for r := range g.rules {
		rule := &g.rules[r]
		prefix := make([]SymbolID, 0, len(rule.RHS))
		for _, s := range rule.RHS {
			if !fs.Nullable.Test(uint(s)) {
				break
			}
			prefix = append(prefix, s)
		}
		if len(prefix) == 0 {
			continue
		}
		if prefix[0] == rule.LHS {
			prefix = prefix[1:]
		}
		for _, s := range prefix {
			if s == rule.LHS {
				bad[rule.LHS] = true
			}
			reaches[rule.LHS] = append(reaches[rule.LHS], s)
		}
	}

	for sym := range g.onCycle(reaches) {
		bad[sym] = true
	}
	if len(bad) > 0 {
		return epsilonLoopError(g.sortedNames(bad))
	}
	return nil
}

// onCycle returns the nodes of the graph that can reach themselves.
func (g *Grammar) onCycle(edges map[SymbolID][]SymbolID) map[SymbolID]bool {
	bad := make(map[SymbolID]bool)
	for origin := range edges {
		visited := bitset.New(uint(len(g.symbols)))
		work := queue.New(edges[origin]...)
		for {
			sym, fetched := work.First()
			if !fetched {
				break
			}
			if sym == origin {
				bad[origin] = true
				break
			}
			if visited.Test(uint(sym)) {
				continue
			}
			visited.Set(uint(sym))
			for _, next := range edges[sym] {
				work.Append(next)
			}
		}
	}
	return bad
}

func (g *Grammar) sortedNames(ids map[SymbolID]bool) []string {
	min := SymbolID(len(g.symbols))
	names := make([]string, 0, len(ids))
	for id := range ids {
		if id < min {
			min = id
		}
	}
	for id := min; int(id) < len(g.symbols); id++ {
		if ids[id] {
			names = append(names, g.Name(id))
		}
	}
	return names
}
