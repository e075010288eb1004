package scanner

import (
	"sort"
)

// ClassRange assigns one rune interval to an alphabet class.
type ClassRange struct {
	Lo    rune `json:"lo"`
	Hi    rune `json:"hi"`
	Class int  `json:"class"`
}

// Cell is one exception of a compressed row.
type Cell struct {
	Class  int `json:"class"`
	Target int `json:"target"`
}

// Row is the examples/exceptions encoding of one DFA state: the default
// target stands for every class not listed in Exceptions; -1 means no
// transition.
type Row struct {
	Default    int    `json:"default"`
	Exceptions []Cell `json:"exceptions,omitempty"`
}

// Guard pins an exact spelling accepted in a given state to a reserved-word
// token, overriding the generic rule action.
type Guard struct {
	State int    `json:"state"`
	Word  string `json:"word"`
	Token string `json:"token"`
}

// StartState is the minimized automaton of one scanner mode.
type StartState struct {
	Name    string  `json:"name"`
	Rows    []Row   `json:"rows"`
	Accepts []int   `json:"accepts"`
	Guards  []Guard `json:"guards,omitempty"`
}

// ActionKind says what the driver does when a rule wins the match.
type ActionKind int

const (
	Ignore ActionKind = iota
	Emit
	Error
	Jump
	Push
	Pop
)

func (k ActionKind) String() string {
	switch k {
	case Ignore:
		return "ignore"
	case Emit:
		return "emit"
	case Error:
		return "error"
	case Jump:
		return "jump"
	case Push:
		return "push"
	default:
		return "pop"
	}
}

// Action is the driver obligation of one rule. Token is set for Emit,
// Target names the destination start state for Jump and Push.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Token  string     `json:"token,omitempty"`
	Target string     `json:"target,omitempty"`
}

// RuleInfo is the serializable identity of one rule: name, priority, the
// action the driver runs on a match, and an optional named predicate the
// driver must consult before accepting.
type RuleInfo struct {
	Name     string `json:"name"`
	Priority int    `json:"priority,omitempty"`
	Action   Action `json:"action"`
	Guard    string `json:"guard,omitempty"`
}

// Table is the finished scanner automaton: a shared alphabet partition and
// one minimized DFA per start state. Starts[0] is the initial mode.
type Table struct {
	Classes    []ClassRange `json:"classes"`
	NumClasses int          `json:"num_classes"`
	Starts     []StartState `json:"starts"`
	Rules      []RuleInfo   `json:"rules"`
}

// ClassOf maps a rune to its alphabet class.
func (t *Table) ClassOf(r rune) int {
	i := sort.Search(len(t.Classes), func(i int) bool { return t.Classes[i].Hi >= r })
	return t.Classes[i].Class
}

// StartIndex finds a start state by name, -1 when absent.
func (t *Table) StartIndex(name string) int {
	for i := range t.Starts {
		if t.Starts[i].Name == name {
			return i
		}
	}
	return -1
}

// Step follows one transition of a compressed row, -1 when none exists.
func (s *StartState) Step(state, class int) int {
	row := &s.Rows[state]
	for _, cell := range row.Exceptions {
		if cell.Class == class {
			return cell.Target
		}
	}
	return row.Default
}
