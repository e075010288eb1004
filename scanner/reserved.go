package scanner

// ReservedWord asks for an exact spelling to scan as its own token. States
// lists the start states the word belongs to; empty means all of them.
type ReservedWord struct {
	Word   string
	Token  string
	States []string
}

// applyReserved drives each reserved word through the finished automatons.
// A word whose accepting rule already emits the wanted token needs nothing.
// Any other accepted word gets an exact-text guard ahead of the generic
// action. A word no rule matches is a coverage fault: the scanner would
// never produce its token.
func (b *builder) applyReserved(t *Table) error {
	for _, rw := range b.spec.Reserved {
		states := rw.States
		if len(states) == 0 {
			for _, st := range t.Starts {
				states = append(states, st.Name)
			}
		}

		for _, name := range states {
			si := t.StartIndex(name)
			if si < 0 {
				return unknownStateError(name)
			}
			st := &t.Starts[si]

			state := 0
			for _, r := range rw.Word {
				state = st.Step(state, t.ClassOf(r))
				if state < 0 {
					break
				}
			}
			if state < 0 || st.Accepts[state] < 0 {
				return coverageError(rw.Word, name)
			}

			rule := st.Accepts[state]
			action := b.spec.Rules[rule].Action
			if action.Kind == Emit && action.Token == rw.Token {
				continue
			}
			st.Guards = append(st.Guards, Guard{State: state, Word: rw.Word, Token: rw.Token})
		}
	}
	return nil
}
