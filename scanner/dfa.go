package scanner

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/dvekon/gralt/internal/queue"
)

// dfa is the uncompressed automaton of one start state: a full transition
// row per state (target or -1) and the accepted rule per state (-1 none).
type dfa struct {
	rows    [][]int
	accepts []int
}

// closure extends a state set along eps edges in place.
func (b *builder) closure(set *bitset.BitSet) {
	work := queue.New[int]()
	for s, ok := set.NextSet(0); ok; s, ok = set.NextSet(s + 1) {
		work.Append(int(s))
	}
	for {
		s, fetched := work.First()
		if !fetched {
			break
		}
		for _, t := range b.nfa[s].eps {
			if !set.Test(uint(t)) {
				set.Set(uint(t))
				work.Append(t)
			}
		}
	}
}

// subset runs the subset construction for one start state over the member
// rules' NFA entry points. Accept conflicts resolve by rule priority; a tie
// between distinct rules is a build failure.
func (b *builder) subset(entries []int, startName string) (*dfa, error) {
	d := &dfa{}
	index := make(map[string]int)
	var sets []*bitset.BitSet

	intern := func(set *bitset.BitSet) int {
		key := set.String()
		s, has := index[key]
		if has {
			return s
		}
		s = len(sets)
		index[key] = s
		sets = append(sets, set)
		d.rows = append(d.rows, nil)
		d.accepts = append(d.accepts, -1)
		return s
	}

	initial := bitset.New(uint(len(b.nfa)))
	for _, s := range entries {
		initial.Set(uint(s))
	}
	b.closure(initial)
	work := queue.New(intern(initial))

	for {
		s, fetched := work.First()
		if !fetched {
			break
		}
		set := sets[s]

		accept := -1
		for ns, ok := set.NextSet(0); ok; ns, ok = set.NextSet(ns + 1) {
			rule := b.nfa[ns].accept
			if rule < 0 {
				continue
			}
			switch {
			case accept < 0:
				accept = rule
			case b.spec.Rules[rule].Priority > b.spec.Rules[accept].Priority:
				accept = rule
			case rule != accept && b.spec.Rules[rule].Priority == b.spec.Rules[accept].Priority:
				return nil, ambiguousMatchError(startName,
					b.spec.Rules[accept].Name, b.spec.Rules[rule].Name)
			}
		}
		d.accepts[s] = accept

		row := make([]int, b.alpha.n)
		for c := range row {
			row[c] = -1
		}
		for c := 0; c < b.alpha.n; c++ {
			next := bitset.New(uint(len(b.nfa)))
			for ns, ok := set.NextSet(0); ok; ns, ok = set.NextSet(ns + 1) {
				t, has := b.nfa[ns].trans[c]
				if has {
					next.Set(uint(t))
				}
			}
			if next.None() {
				continue
			}
			b.closure(next)
			before := len(sets)
			t := intern(next)
			row[c] = t
			if t == before {
				work.Append(t)
			}
		}
		d.rows[s] = row
	}
	return d, nil
}

// minimize collapses behaviorally equivalent states by partition refinement:
// states start grouped by accepted rule, then split until every group is
// closed under transitions.
func (d *dfa) minimize() *dfa {
	n := len(d.rows)
	block := make([]int, n)
	byAccept := make(map[int]int)
	blocks := 0
	for s, a := range d.accepts {
		id, has := byAccept[a]
		if !has {
			id = blocks
			blocks++
			byAccept[a] = id
		}
		block[s] = id
	}

	for {
		next := make([]int, n)
		index := make(map[string]int)
		count := 0
		for s := 0; s < n; s++ {
			key := fmt.Sprintf("%d|", block[s])
			for _, t := range d.rows[s] {
				if t < 0 {
					key += "-;"
				} else {
					key += fmt.Sprintf("%d;", block[t])
				}
			}
			id, has := index[key]
			if !has {
				id = count
				count++
				index[key] = id
			}
			next[s] = id
		}
		if count == blocks {
			break
		}
		block = next
		blocks = count
	}

	// renumber so the initial state's block is 0 and numbering follows the
	// first representative of each block
	order := make([]int, blocks)
	for i := range order {
		order[i] = -1
	}
	renum := 0
	reps := make([]int, 0, blocks)
	for s := 0; s < n; s++ {
		if order[block[s]] < 0 {
			order[block[s]] = renum
			renum++
			reps = append(reps, s)
		}
	}

	out := &dfa{
		rows:    make([][]int, blocks),
		accepts: make([]int, blocks),
	}
	for _, s := range reps {
		id := order[block[s]]
		row := make([]int, len(d.rows[s]))
		for c, t := range d.rows[s] {
			if t < 0 {
				row[c] = -1
			} else {
				row[c] = order[block[t]]
			}
		}
		out.rows[id] = row
		out.accepts[id] = d.accepts[s]
	}
	return out
}

// compressRows turns full transition rows into the examples/exceptions
// encoding: the most common target becomes the row default, everything else
// an override.
func compressRows(rows [][]int) []Row {
	out := make([]Row, len(rows))
	for s, row := range rows {
		counts := make(map[int]int)
		for _, t := range row {
			counts[t]++
		}
		def, best := -1, 0
		targets := make([]int, 0, len(counts))
		for t := range counts {
			targets = append(targets, t)
		}
		sort.Ints(targets)
		for _, t := range targets {
			if counts[t] > best {
				def, best = t, counts[t]
			}
		}

		r := Row{Default: def}
		for c, t := range row {
			if t != def {
				r.Exceptions = append(r.Exceptions, Cell{Class: c, Target: t})
			}
		}
		out[s] = r
	}
	return out
}
