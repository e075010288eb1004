package scanner

// Node is one node of a structured regular expression. Patterns are built as
// trees, never parsed from a regex string.
type Node interface {
	node()
}

// Seq matches its items in order. An empty Seq matches the empty string.
type Seq struct {
	Items []Node
}

// Alt matches any one of its branches.
type Alt struct {
	Branches []Node
}

// Star matches zero or more repetitions of Inner.
type Star struct {
	Inner Node
}

// Plus matches one or more repetitions of Inner.
type Plus struct {
	Inner Node
}

// Opt matches Inner or the empty string.
type Opt struct {
	Inner Node
}

// Chars matches one rune from the union of Ranges and the Named classes
// (builtin or user declared). Negate complements the union.
type Chars struct {
	Ranges []RuneRange
	Named  []string
	Negate bool
}

// Any matches one rune. Line terminators are excluded unless Newline is set.
type Any struct {
	Newline bool
}

// Ref names a previously declared subexpression.
type Ref struct {
	Name string
}

func (*Seq) node()   {}
func (*Alt) node()   {}
func (*Star) node()  {}
func (*Plus) node()  {}
func (*Opt) node()   {}
func (*Chars) node() {}
func (*Any) node()   {}
func (*Ref) node()   {}

// Literal builds the pattern matching exactly the given text.
func Literal(text string) Node {
	items := make([]Node, 0, len(text))
	for _, r := range text {
		items = append(items, OneRune(r))
	}
	return &Seq{Items: items}
}

// OneRune matches a single fixed rune.
func OneRune(r rune) Node {
	return &Chars{Ranges: []RuneRange{{r, r}}}
}

// Class matches one rune of the named classes.
func Class(names ...string) Node {
	return &Chars{Named: names}
}

// Range matches one rune of a closed interval.
func Range(lo, hi rune) Node {
	return &Chars{Ranges: []RuneRange{{lo, hi}}}
}
