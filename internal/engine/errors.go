package engine

import "errors"

var (
	// ErrInput indicates the classifier or driver ran out of input where
	// the document required more, e.g. an unterminated string literal.
	ErrInput = errors.New("engine: input error")

	// ErrInternal indicates an engine invariant violation. It should be
	// unreachable on any input.
	ErrInternal = errors.New("engine: internal invariant violation")
)
