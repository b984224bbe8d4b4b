// Package automaton compiles a parsed query into the pushdown machine the
// engine executes: one state per segment boundary, child transitions tested
// on immediate children and descendant transitions that stay live at every
// depth below their owning run frame.
package automaton

import (
	"errors"
	"fmt"

	"github.com/rsonquery/rq/internal/query"
)

// ErrFeature indicates a selector the builder cannot express.
var ErrFeature = errors.New("automaton: unsupported selector")

// State identifies an automaton state. The start state is always 0.
type State uint32

// Transition fires when its selector matches a value; the automaton then
// activates Target for that value's subtree.
type Transition struct {
	Selector query.Selector
	Target   State
}

type state struct {
	children    []Transition
	descendants []Transition
	accepting   bool
}

// Automaton is the compiled, immutable form of a query.
type Automaton struct {
	states []state
}

// Compile builds the automaton in one pass over the segment list: the i-th
// segment emits a transition from state i to state i+1, child or descendant
// per its step kind. The final state accepts.
func Compile(q *query.Query) (*Automaton, error) {
	segs := q.Segments()

	states := make([]state, len(segs)+1)
	for i, seg := range segs {
		if err := validateSelector(seg.Selector); err != nil {
			return nil, err
		}

		tr := Transition{Selector: seg.Selector, Target: State(i + 1)}
		if seg.Kind == query.Descendant {
			states[i].descendants = append(states[i].descendants, tr)
		} else {
			states[i].children = append(states[i].children, tr)
		}
	}
	states[len(segs)].accepting = true

	return &Automaton{states: states}, nil
}

func validateSelector(sel query.Selector) error {
	switch sel.Kind {
	case query.SelectorName, query.SelectorIndex, query.SelectorWildcard:
		return nil
	case query.SelectorSlice:
		if sel.Slice.Step < 1 {
			return fmt.Errorf("%w: slice step %d", ErrFeature, sel.Slice.Step)
		}
		if sel.Slice.Start < 0 || sel.Slice.End < 0 {
			return fmt.Errorf("%w: negative slice bounds", ErrFeature)
		}
		return nil
	default:
		return fmt.Errorf("%w: selector kind %d", ErrFeature, sel.Kind)
	}
}

// Start returns the initial state.
func (a *Automaton) Start() State {
	return 0
}

// IsAccepting reports whether transitioning into s is a match.
func (a *Automaton) IsAccepting(s State) bool {
	return a.states[s].accepting
}

// Children returns the transitions tested on immediate children of the
// container owning s.
func (a *Automaton) Children(s State) []Transition {
	return a.states[s].children
}

// Descendants returns the transitions that stay live at every depth below
// the run frame owning s.
func (a *Automaton) Descendants(s State) []Transition {
	return a.states[s].descendants
}

// HasDescendants reports whether s carries descendant transitions; the
// engine uses it to decide when whole subtrees can be skipped.
func (a *Automaton) HasDescendants(s State) bool {
	return len(a.states[s].descendants) > 0
}

// IsRootOnly reports whether the automaton represents the `$` query.
func (a *Automaton) IsRootOnly() bool {
	return len(a.states) == 1
}

// NumStates returns the state count, including start and accepting states.
func (a *Automaton) NumStates() int {
	return len(a.states)
}
