package scanner

import (
	"sort"
	"unicode"
)

// RuneRange is a closed rune interval.
type RuneRange struct {
	Lo rune `json:"lo"`
	Hi rune `json:"hi"`
}

// charSet is a set of runes held as sorted disjoint ranges.
type charSet struct {
	ranges []RuneRange
}

func (s *charSet) add(lo, hi rune) {
	s.ranges = append(s.ranges, RuneRange{lo, hi})
}

func (s *charSet) addTable(t *unicode.RangeTable) {
	for _, r := range t.R16 {
		for lo := rune(r.Lo); lo <= rune(r.Hi); lo += rune(r.Stride) {
			if r.Stride == 1 {
				s.add(rune(r.Lo), rune(r.Hi))
				break
			}
			s.add(lo, lo)
		}
	}
	for _, r := range t.R32 {
		for lo := rune(r.Lo); lo <= rune(r.Hi); lo += rune(r.Stride) {
			if r.Stride == 1 {
				s.add(rune(r.Lo), rune(r.Hi))
				break
			}
			s.add(lo, lo)
		}
	}
}

func (s *charSet) addSet(o charSet) {
	s.ranges = append(s.ranges, o.ranges...)
}

// normalized sorts and merges overlapping or adjacent ranges.
func (s charSet) normalized() charSet {
	if len(s.ranges) == 0 {
		return s
	}
	sort.Slice(s.ranges, func(i, j int) bool { return s.ranges[i].Lo < s.ranges[j].Lo })

	merged := s.ranges[:1:1]
	for _, r := range s.ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
		} else {
			merged = append(merged, r)
		}
	}
	return charSet{merged}
}

// negated complements the set within [0, unicode.MaxRune].
func (s charSet) negated() charSet {
	s = s.normalized()
	var out charSet
	next := rune(0)
	for _, r := range s.ranges {
		if r.Lo > next {
			out.add(next, r.Lo-1)
		}
		next = r.Hi + 1
	}
	if next <= unicode.MaxRune {
		out.add(next, unicode.MaxRune)
	}
	return out
}

func (s charSet) contains(r rune) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Hi >= r })
	return i < len(s.ranges) && s.ranges[i].Lo <= r
}

// builtinClass resolves the predefined class names.
func builtinClass(name string) (charSet, bool) {
	var s charSet
	switch name {
	case "letter":
		s.addTable(unicode.L)
	case "upper":
		s.addTable(unicode.Lu)
	case "lower":
		s.addTable(unicode.Ll)
	case "digit":
		s.addTable(unicode.Nd)
	case "space":
		s.addTable(unicode.White_Space)
	case "word":
		s.addTable(unicode.L)
		s.addTable(unicode.Nd)
		s.add('_', '_')
	default:
		return s, false
	}
	return s.normalized(), true
}

// lineTerminators is what "any" refuses to cross.
func lineTerminators() charSet {
	var s charSet
	s.add('\n', '\n')
	s.add('\r', '\r')
	s.add('\u2028', '\u2029')
	return s.normalized()
}

// alphabet maps the full rune space onto a compact set of equivalence class
// ids: two runes share an id exactly when no charSet of the build
// distinguishes them. Automata run over class ids, never over raw runes.
type alphabet struct {
	cuts    []rune // ascending interval starts, cuts[0] == 0
	classes []int  // class id per interval [cuts[i], cuts[i+1])
	n       int
}

func buildAlphabet(sets []charSet) *alphabet {
	points := map[rune]bool{0: true}
	for _, s := range sets {
		for _, r := range s.ranges {
			points[r.Lo] = true
			if r.Hi < unicode.MaxRune {
				points[r.Hi+1] = true
			}
		}
	}

	cuts := make([]rune, 0, len(points))
	for p := range points {
		cuts = append(cuts, p)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })

	a := &alphabet{cuts: cuts, classes: make([]int, len(cuts))}
	intern := make(map[string]int)
	sig := make([]byte, (len(sets)+7)/8)
	for i, p := range cuts {
		for j := range sig {
			sig[j] = 0
		}
		for j, s := range sets {
			if s.contains(p) {
				sig[j/8] |= 1 << (j % 8)
			}
		}
		id, seen := intern[string(sig)]
		if !seen {
			id = a.n
			a.n++
			intern[string(sig)] = id
		}
		a.classes[i] = id
	}
	return a
}

func (a *alphabet) classOf(r rune) int {
	i := sort.Search(len(a.cuts), func(i int) bool { return a.cuts[i] > r })
	return a.classes[i-1]
}

// classesOf lists the distinct class ids covered by a set. Every interval is
// entirely inside or outside the set, so testing the interval start suffices.
func (a *alphabet) classesOf(s charSet) []int {
	seen := make(map[int]bool)
	var out []int
	for i, p := range a.cuts {
		if s.contains(p) && !seen[a.classes[i]] {
			seen[a.classes[i]] = true
			out = append(out, a.classes[i])
		}
	}
	sort.Ints(out)
	return out
}

// classRanges flattens the partition for serialization, merging adjacent
// intervals with the same class id.
func (a *alphabet) classRanges() []ClassRange {
	var out []ClassRange
	for i, p := range a.cuts {
		hi := unicode.MaxRune
		if i+1 < len(a.cuts) {
			hi = a.cuts[i+1] - 1
		}
		if len(out) > 0 && out[len(out)-1].Class == a.classes[i] {
			out[len(out)-1].Hi = hi
			continue
		}
		out = append(out, ClassRange{Lo: p, Hi: hi, Class: a.classes[i]})
	}
	return out
}
