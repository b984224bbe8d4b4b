package engine

import (
	"bytes"
	"fmt"

	"github.com/rsonquery/rq/internal/automaton"
	"github.com/rsonquery/rq/internal/classify"
	"github.com/rsonquery/rq/internal/input"
	"github.com/rsonquery/rq/internal/query"
	"github.com/rsonquery/rq/internal/result"
	"github.com/rsonquery/rq/internal/simd"
	"github.com/rsonquery/rq/internal/stack"
)

const (
	kindObj containerKind = iota
	kindArr
)

// containerKind identifies the type of an open container.
type containerKind uint8

// containerFrame tracks one open container. idx is the 0-based position of
// the next value in an array frame; the name fields hold the pending member
// name of an object frame, exclusive of the surrounding quotes.
type containerFrame struct {
	kind      containerKind
	idx       int
	nameStart int
	nameEnd   int
	hasName   bool
	fired     []firedKey
}

// firedKey identifies a Name transition that already fired inside an object
// frame; repeats are suppressed so the first duplicate key wins.
type firedKey struct {
	frame      int
	trans      int
	descendant bool
}

// runFrame pairs an automaton state with the depth at which values are its
// immediate children. Child transitions fire at exactly that depth,
// descendant transitions at that depth or below, until the frame is popped.
type runFrame struct {
	state   automaton.State
	entry   int
	hasDesc bool
}

// pendingMatch is a recorded match whose end offset may not be known yet.
// Matches flush to the sink head-first, which preserves document order when
// an enclosing match resolves after its nested ones.
type pendingMatch struct {
	start     int
	end       int
	entry     int
	composite bool
}

type run struct {
	auto   *automaton.Automaton
	data   []byte
	n      int
	cursor *classify.Cursor
	sink   result.Sink

	containers *stack.Stack[containerFrame]
	frames     []runFrame
	descLive   int

	pending []pendingMatch
	scratch []automaton.State
	stopped bool
}

func newRun(caps simd.Capabilities, auto *automaton.Automaton, buf *input.Buffer, sink result.Sink) *run {
	return &run{
		auto:       auto,
		data:       buf.Padded(),
		n:          buf.Len(),
		cursor:     classify.NewCursor(buf, caps),
		sink:       sink,
		containers: stack.NewWithCapacity[containerFrame](16),
		frames:     make([]runFrame, 0, auto.NumStates()+8),
	}
}

func (r *run) execute() error {
	rootStart := r.skipWS(0)
	if rootStart >= r.n {
		return fmt.Errorf("%w: empty document", ErrInput)
	}

	start := r.auto.Start()
	r.pushFrame(runFrame{state: start, entry: 1, hasDesc: r.auto.HasDescendants(start)})

	if b := r.data[rootStart]; b != '{' && b != '[' {
		return r.runAtomicRoot(rootStart)
	}

	if r.auto.IsAccepting(start) {
		r.record(rootStart, true, 1)
	}

	for !r.stopped {
		ev, ok := r.cursor.Next()
		if !ok {
			break
		}

		r.resolveAtom(ev.Offset)
		r.flush()
		if r.stopped {
			return nil
		}

		var err error
		switch ev.Kind {
		case classify.KindOpen:
			err = r.onOpen(ev)
		case classify.KindClose:
			err = r.onClose(ev)
		case classify.KindColon:
			err = r.onColon(ev)
		case classify.KindComma:
			err = r.onComma(ev)
		}
		if err != nil {
			return err
		}
	}
	if r.stopped {
		return nil
	}

	if err := r.cursor.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInput, err)
	}
	r.flush()
	return nil
}

// runAtomicRoot handles documents whose root value is a string, number or
// literal. Such documents yield no structural events.
func (r *run) runAtomicRoot(rootStart int) error {
	if r.auto.IsAccepting(r.auto.Start()) {
		r.record(rootStart, false, 0)
		r.resolveAtom(r.n)
		r.flush()
	}

	for {
		if _, ok := r.cursor.Next(); !ok {
			break
		}
	}
	if err := r.cursor.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInput, err)
	}
	return nil
}

func (r *run) onOpen(ev classify.Event) error {
	cur := r.containers.Size()
	parent := r.containers.PeekRef()

	accepted, targets := r.evaluate(parent, cur, true)
	if parent != nil && parent.kind == kindObj {
		parent.hasName = false
	}
	if accepted {
		r.record(ev.Offset, true, cur+1)
	}

	if len(targets) == 0 && r.descLive == 0 && !r.childrenPossibleAt(cur+1) {
		closeOff, ok := r.skipContainer()
		if !ok {
			return fmt.Errorf("%w: unbalanced container", ErrInput)
		}
		r.resolveComposite(cur+1, closeOff+1)
		r.flush()
		return nil
	}

	for _, tgt := range targets {
		r.pushFrame(runFrame{state: tgt, entry: cur + 1, hasDesc: r.auto.HasDescendants(tgt)})
	}

	kind := kindArr
	if r.data[ev.Offset] == '{' {
		kind = kindObj
	}
	r.containers.Push(containerFrame{kind: kind})

	if kind == kindArr {
		return r.maybeAtomValue(ev.Offset + 1)
	}
	return nil
}

func (r *run) onClose(ev classify.Event) error {
	d := r.containers.Size()
	if d == 0 {
		return fmt.Errorf("%w: unbalanced close", ErrInput)
	}

	r.resolveComposite(d, ev.Offset+1)
	r.flush()

	r.containers.Pop()
	newDepth := d - 1
	for len(r.frames) > 0 && r.frames[len(r.frames)-1].entry > newDepth {
		r.popFrame()
	}
	return nil
}

func (r *run) onColon(ev classify.Event) error {
	parent := r.containers.PeekRef()
	if parent == nil || parent.kind != kindObj {
		return nil // undefined input; keep consuming safely
	}

	nameStart, nameEnd, ok := r.findName(ev.Offset)
	parent.hasName = ok
	parent.nameStart, parent.nameEnd = nameStart, nameEnd

	return r.maybeAtomValue(ev.Offset + 1)
}

func (r *run) onComma(ev classify.Event) error {
	parent := r.containers.PeekRef()
	if parent == nil {
		return nil
	}

	if parent.kind == kindArr {
		parent.idx++
		return r.maybeAtomValue(ev.Offset + 1)
	}

	parent.hasName = false // defensive; consumed by the preceding value
	return nil
}

// maybeAtomValue inspects the first non-whitespace byte at or after from.
// Composite values arrive later as Open events; a closing bracket means an
// empty container; anything else starts an atomic value here.
func (r *run) maybeAtomValue(from int) error {
	vs := r.skipWS(from)
	if vs >= r.n {
		return fmt.Errorf("%w: document ends where a value was expected", ErrInput)
	}

	switch r.data[vs] {
	case '{', '[', '}', ']':
		return nil
	}
	r.onAtomStart(vs)
	return nil
}

func (r *run) onAtomStart(vs int) {
	cur := r.containers.Size()
	parent := r.containers.PeekRef()

	accepted, _ := r.evaluate(parent, cur, false)
	if parent != nil && parent.kind == kindObj {
		parent.hasName = false
	}
	if accepted {
		r.record(vs, false, 0)
	}
}

// evaluate tests every live run frame against the value whose containing
// frame is parent: child transitions when the frame entered at exactly this
// depth, descendant transitions at this depth or above the frame's entry.
// For composite values it returns the fired targets to activate.
func (r *run) evaluate(parent *containerFrame, cur int, composite bool) (bool, []automaton.State) {
	accepted := false
	r.scratch = r.scratch[:0]

	for fi := range r.frames {
		f := &r.frames[fi]

		if f.entry == cur {
			children := r.auto.Children(f.state)
			for ti := range children {
				tr := &children[ti]
				if !r.selectorMatches(&tr.Selector, parent, fi, ti, false) {
					continue
				}
				if r.auto.IsAccepting(tr.Target) {
					accepted = true
				}
				if composite {
					r.addTarget(tr.Target)
				}
			}
		}

		if f.entry <= cur {
			descendants := r.auto.Descendants(f.state)
			for ti := range descendants {
				tr := &descendants[ti]
				if !r.selectorMatches(&tr.Selector, parent, fi, ti, true) {
					continue
				}
				if r.auto.IsAccepting(tr.Target) {
					accepted = true
				}
				if composite {
					r.addTarget(tr.Target)
				}
			}
		}
	}
	return accepted, r.scratch
}

// addTarget collects a fired target once; two frames of the same state at
// different entries may fire into the same target for one value, and a
// duplicate frame would only re-fire the same transitions.
func (r *run) addTarget(tgt automaton.State) {
	for _, existing := range r.scratch {
		if existing == tgt {
			return
		}
	}
	r.scratch = append(r.scratch, tgt)
}

func (r *run) selectorMatches(sel *query.Selector, parent *containerFrame, fi, ti int, descendant bool) bool {
	if parent == nil {
		return false
	}

	switch sel.Kind {
	case query.SelectorWildcard:
		if parent.kind == kindObj && !parent.hasName {
			return false
		}
		return true

	case query.SelectorName:
		if parent.kind != kindObj || !parent.hasName {
			return false
		}
		if !bytes.Equal(r.data[parent.nameStart:parent.nameEnd], sel.Name) {
			return false
		}
		key := firedKey{frame: fi, trans: ti, descendant: descendant}
		for _, k := range parent.fired {
			if k == key {
				return false // duplicate key; first occurrence won
			}
		}
		parent.fired = append(parent.fired, key)
		return true

	case query.SelectorIndex:
		return parent.kind == kindArr && parent.idx == sel.Index

	case query.SelectorSlice:
		if parent.kind != kindArr {
			return false
		}
		i, s := parent.idx, sel.Slice
		return i >= s.Start && i < s.End && (i-s.Start)%s.Step == 0
	}
	return false
}

// childrenPossibleAt reports whether any live frame's child transitions can
// fire on values at the given depth.
func (r *run) childrenPossibleAt(depth int) bool {
	for fi := range r.frames {
		if r.frames[fi].entry == depth && len(r.auto.Children(r.frames[fi].state)) > 0 {
			return true
		}
	}
	return false
}

// skipContainer consumes events to the matching close of a container whose
// open event was just read, without interpretation. Returns the close
// offset.
func (r *run) skipContainer() (int, bool) {
	depth := 1
	for depth > 0 {
		ev, ok := r.cursor.Next()
		if !ok {
			return 0, false
		}
		switch ev.Kind {
		case classify.KindOpen:
			depth++
		case classify.KindClose:
			depth--
			if depth == 0 {
				return ev.Offset, true
			}
		}
	}
	return 0, false
}

func (r *run) pushFrame(f runFrame) {
	r.frames = append(r.frames, f)
	if f.hasDesc {
		r.descLive++
	}
}

func (r *run) popFrame() {
	top := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]
	if top.hasDesc {
		r.descLive--
	}
}

// record notes a match at the given start. Composite matches resolve at
// their matching close; atomic matches at the next structural event.
func (r *run) record(start int, composite bool, entry int) {
	r.pending = append(r.pending, pendingMatch{
		start:     start,
		end:       -1,
		entry:     entry,
		composite: composite,
	})
}

// resolveAtom completes a trailing atomic match: its value runs to the
// terminating event, minus trailing whitespace.
func (r *run) resolveAtom(terminator int) {
	if len(r.pending) == 0 {
		return
	}
	last := &r.pending[len(r.pending)-1]
	if last.composite || last.end >= 0 {
		return
	}

	end := terminator
	if end > r.n {
		end = r.n
	}
	for end > last.start && isWS(r.data[end-1]) {
		end--
	}
	last.end = end
}

// resolveComposite completes the open composite match entered at the given
// inside depth, if any.
func (r *run) resolveComposite(entry, end int) {
	for i := len(r.pending) - 1; i >= 0; i-- {
		p := &r.pending[i]
		if p.end >= 0 {
			continue
		}
		if p.composite && p.entry == entry {
			p.end = end
		}
		return
	}
}

// flush emits resolved matches head-first, preserving document order.
func (r *run) flush() {
	for !r.stopped && len(r.pending) > 0 && r.pending[0].end >= 0 {
		p := r.pending[0]
		r.pending = r.pending[1:]

		span := result.Span{Start: p.start, End: p.end}
		if r.sink.OnMatch(span, r.data[p.start:p.end]) == result.Stop {
			r.stopped = true
		}
	}
}

// findName locates the member name whose colon sits at colonOff, walking
// back over whitespace to the closing quote and then to the opening quote
// with escape parity.
func (r *run) findName(colonOff int) (int, int, bool) {
	j := colonOff - 1
	for j >= 0 && isWS(r.data[j]) {
		j--
	}
	if j < 0 || r.data[j] != '"' {
		return 0, 0, false
	}

	for k := j - 1; k >= 0; k-- {
		if r.data[k] == '"' && !r.isEscaped(k) {
			return k + 1, j, true
		}
	}
	return 0, 0, false
}

// isEscaped reports whether the byte at pos is escaped: the run of
// backslashes directly before it has odd length.
func (r *run) isEscaped(pos int) bool {
	count := 0
	for i := pos - 1; i >= 0 && r.data[i] == '\\'; i-- {
		count++
	}
	return count%2 == 1
}

func (r *run) skipWS(i int) int {
	for i < r.n && isWS(r.data[i]) {
		i++
	}
	return i
}

func isWS(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
