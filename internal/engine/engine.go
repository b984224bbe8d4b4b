// Package engine drives a compiled query automaton over the structural
// event stream of a document. It is single-threaded and synchronous: one
// call to Run consumes the whole document or stops early when the sink asks
// it to.
package engine

import (
	"github.com/rsonquery/rq/internal/automaton"
	"github.com/rsonquery/rq/internal/input"
	"github.com/rsonquery/rq/internal/result"
	"github.com/rsonquery/rq/internal/simd"
)

// Engine executes queries over documents. The capability dispatch is fixed
// at construction; an Engine is stateless between runs and holds no global
// state.
type Engine struct {
	caps simd.Capabilities
}

// New constructs an engine with capabilities detected from the host CPU.
func New() *Engine {
	return &Engine{caps: simd.Detect()}
}

// NewWithCapabilities constructs an engine with a fixed capability set,
// used to exercise the portable kernels.
func NewWithCapabilities(caps simd.Capabilities) *Engine {
	return &Engine{caps: caps}
}

// Capabilities returns the capability set the engine dispatches on.
func (e *Engine) Capabilities() simd.Capabilities {
	return e.caps
}

// Run evaluates the automaton over the document and reports every match to
// the sink in document order. A sink stop signal ends the run without
// error.
func (e *Engine) Run(auto *automaton.Automaton, buf *input.Buffer, sink result.Sink) error {
	r := newRun(e.caps, auto, buf, sink)
	return r.execute()
}
