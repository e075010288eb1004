package scanner

// nfaState is one state of the shared Thompson automaton. Transitions are
// keyed by alphabet class id; eps lists the unlabeled successors.
type nfaState struct {
	trans  map[int]int
	eps    []int
	accept int // rule index, -1 when not accepting
}

// frag is a compiled fragment: one entry state, one exit state with no
// outgoing edges yet.
type frag struct {
	start, out int
}

func (b *builder) newNfaState() int {
	b.nfa = append(b.nfa, nfaState{accept: -1})
	return len(b.nfa) - 1
}

func (b *builder) epsEdge(from, to int) {
	b.nfa[from].eps = append(b.nfa[from].eps, to)
}

// compile lowers a pattern into the shared NFA arena, Thompson style: every
// construct contributes a constant number of states and eps edges.
func (b *builder) compile(n Node) (frag, error) {
	switch v := n.(type) {
	case *Chars:
		set, e := b.resolveChars(v)
		if e != nil {
			return frag{}, e
		}
		return b.charFrag(set), nil

	case *Any:
		return b.charFrag(b.anySet(v.Newline)), nil

	case *Ref:
		def, has := b.defs[v.Name]
		if !has {
			return frag{}, unknownNameError(v.Name)
		}
		return b.compile(def)

	case *Seq:
		start := b.newNfaState()
		prev := start
		for _, item := range v.Items {
			f, e := b.compile(item)
			if e != nil {
				return frag{}, e
			}
			b.epsEdge(prev, f.start)
			prev = f.out
		}
		return frag{start, prev}, nil

	case *Alt:
		start := b.newNfaState()
		out := b.newNfaState()
		for _, branch := range v.Branches {
			f, e := b.compile(branch)
			if e != nil {
				return frag{}, e
			}
			b.epsEdge(start, f.start)
			b.epsEdge(f.out, out)
		}
		return frag{start, out}, nil

	case *Star:
		f, e := b.compile(v.Inner)
		if e != nil {
			return frag{}, e
		}
		start := b.newNfaState()
		out := b.newNfaState()
		b.epsEdge(start, f.start)
		b.epsEdge(start, out)
		b.epsEdge(f.out, f.start)
		b.epsEdge(f.out, out)
		return frag{start, out}, nil

	case *Plus:
		f, e := b.compile(v.Inner)
		if e != nil {
			return frag{}, e
		}
		out := b.newNfaState()
		b.epsEdge(f.out, f.start)
		b.epsEdge(f.out, out)
		return frag{f.start, out}, nil

	case *Opt:
		f, e := b.compile(v.Inner)
		if e != nil {
			return frag{}, e
		}
		start := b.newNfaState()
		out := b.newNfaState()
		b.epsEdge(start, f.start)
		b.epsEdge(start, out)
		b.epsEdge(f.out, out)
		return frag{start, out}, nil
	}
	return frag{}, badPatternError()
}

func (b *builder) charFrag(set charSet) frag {
	start := b.newNfaState()
	out := b.newNfaState()
	for _, c := range b.alpha.classesOf(set) {
		if b.nfa[start].trans == nil {
			b.nfa[start].trans = make(map[int]int)
		}
		b.nfa[start].trans[c] = out
	}
	return frag{start, out}
}
