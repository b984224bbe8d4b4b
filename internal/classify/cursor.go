package classify

import (
	"errors"

	"github.com/rsonquery/rq/internal/input"
	"github.com/rsonquery/rq/internal/simd"
)

// ErrUnterminatedString reports input exhausted in the middle of a string
// literal.
var ErrUnterminatedString = errors.New("classify: input exhausted inside a string literal")

// Cursor is the pull-based event stream over a document. Each refill
// classifies one block and fills a small ring of events; Next drains it.
type Cursor struct {
	buf        *input.Buffer
	quotes     *QuoteClassifier
	structural func(block []byte) structuralMasks

	block int
	ring  []Event
	pos   int
}

// NewCursor fixes the classification kernels for the given capability set.
func NewCursor(buf *input.Buffer, caps simd.Capabilities) *Cursor {
	c := &Cursor{
		buf:    buf,
		quotes: NewQuoteClassifier(caps),
		ring:   make([]Event, 0, input.BlockSize),
	}
	if caps.Tier == simd.TierScalar {
		c.structural = structuralScalar
	} else {
		c.structural = structuralWord
	}
	return c
}

// Next returns the next structural event in increasing offset order.
// It returns false once the document is exhausted; check Err afterwards.
func (c *Cursor) Next() (Event, bool) {
	for c.pos >= len(c.ring) {
		if !c.refill() {
			return Event{}, false
		}
	}
	ev := c.ring[c.pos]
	c.pos++
	return ev, true
}

// Err reports a classification failure after the stream is exhausted.
func (c *Cursor) Err() error {
	if c.block >= c.buf.NumBlocks() && c.quotes.InString() {
		return ErrUnterminatedString
	}
	return nil
}

func (c *Cursor) refill() bool {
	if c.block >= c.buf.NumBlocks() {
		return false
	}

	block := c.buf.Block(c.block)
	base := c.block * input.BlockSize
	c.block++

	inString := c.quotes.ClassifyBlock(block)
	masks := c.structural(block)

	c.ring = appendEvents(c.ring[:0], masks, inString, base)
	c.pos = 0
	return len(c.ring) > 0 || c.block < c.buf.NumBlocks()
}
