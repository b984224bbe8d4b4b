// Package query parses the JSONPath subset supported by the streaming
// engine into an ordered segment list.
//
// Supported selectors:
//   - Child `.name`, `['name']`, `["name"]` and descendant `..name`
//   - Wildcards `.*`, `[*]`, `..*`, `..[*]`
//   - Non-negative array index `[i]` and `..[i]`
//   - Forward slices `[start:end:step]` with non-negative bounds and
//     step >= 1
//
// Filters, multi-selector unions, negative indices, backward slices and a
// zero slice step raise ErrFeature at compile time; malformed expressions
// raise ErrSyntax.
package query
