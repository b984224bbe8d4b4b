package query

import "errors"

var (
	// ErrSyntax indicates a JSONPath expression syntax error.
	ErrSyntax = errors.New("query: syntax error")

	// ErrFeature indicates a syntactically valid JSONPath feature the
	// streaming engine does not support.
	ErrFeature = errors.New("query: feature not supported in streaming mode")
)
