// Package result defines the sink contract the engine reports matches to,
// plus the three standard sinks: spans, materialized nodes, and a counter.
package result

import "slices"

// Signal tells the engine whether to keep running after an emission.
type Signal uint8

const (
	Continue Signal = iota
	Stop
)

// Span is a half-open byte range [Start, End) in the document.
type Span struct {
	Start int
	End   int
}

// Sink receives matches in strictly increasing Start order. The raw slice
// is a borrowed view of the document, valid only during the call.
type Sink interface {
	OnMatch(span Span, raw []byte) Signal
}

// FuncSink adapts a function to the Sink interface.
type FuncSink func(span Span, raw []byte) Signal

func (f FuncSink) OnMatch(span Span, raw []byte) Signal {
	return f(span, raw)
}

// CountSink counts matches without retaining them.
type CountSink struct {
	count int
}

func (s *CountSink) OnMatch(Span, []byte) Signal {
	s.count++
	return Continue
}

// Count returns the number of matches observed.
func (s *CountSink) Count() int {
	return s.count
}

// SpanSink collects the byte spans of all matches.
type SpanSink struct {
	spans []Span
}

func (s *SpanSink) OnMatch(span Span, _ []byte) Signal {
	s.spans = append(s.spans, span)
	return Continue
}

// Spans returns the collected spans in document order.
func (s *SpanSink) Spans() []Span {
	return s.spans
}

// NodeSink materializes each match; the bytes are copied out of the
// borrowed view.
type NodeSink struct {
	nodes [][]byte
}

func (s *NodeSink) OnMatch(_ Span, raw []byte) Signal {
	s.nodes = append(s.nodes, slices.Clone(raw))
	return Continue
}

// Nodes returns the materialized matches in document order.
func (s *NodeSink) Nodes() [][]byte {
	return s.nodes
}

// Strings returns the materialized matches as strings, for callers that
// format output.
func (s *NodeSink) Strings() []string {
	out := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = string(n)
	}
	return out
}
