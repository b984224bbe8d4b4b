package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse compiles a JSONPath expression into a Query.
func Parse(expr string) (*Query, error) {
	if err := validateExpression(expr); err != nil {
		return nil, err
	}

	if expr == "$" {
		return &Query{}, nil
	}

	i := 1 // current parsing index in expr, after '$'
	var segs []Segment

	for i < len(expr) {
		seg, newIndex, err := parseSegment(expr, i)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		i = newIndex
	}

	return &Query{segments: segs}, nil
}

func validateExpression(expr string) error {
	if expr == "" {
		return fmt.Errorf("%w: expression cannot be empty", ErrSyntax)
	}
	if expr[0] != '$' || (len(expr) > 1 && expr[1] != '.' && expr[1] != '[') {
		return fmt.Errorf("%w: expression must start with '$', '$.', or '$['", ErrSyntax)
	}
	return nil
}

func parseSegment(expr string, i int) (Segment, int, error) {
	if expr[i] == '.' {
		return parseDotSegment(expr, i)
	}
	if expr[i] == '[' {
		return parseBracketSegment(expr, i, Child)
	}

	return Segment{}, i, fmt.Errorf("%w: unexpected token '%c' at position %d, expected '.' or '['", ErrSyntax, expr[i], i)
}

func parseDotSegment(expr string, i int) (Segment, int, error) {
	kind := Child
	if i+1 < len(expr) && expr[i+1] == '.' { // descendant '..'
		kind = Descendant
		i += 2
	} else { // child '.'
		i++
	}

	if i >= len(expr) { // path cannot end with '.' or '..'
		return Segment{}, i, fmt.Errorf("%w: path segment cannot end with '.' or '..'", ErrSyntax)
	}

	if expr[i] == '[' { // bracket form '..[...]'
		return parseBracketSegment(expr, i, kind)
	}

	if expr[i] == '*' { // wildcard
		return Segment{Kind: kind, Selector: Selector{Kind: SelectorWildcard}}, i + 1, nil
	}

	name, newIndex, err := parseName(expr, i)
	if err != nil {
		return Segment{}, i, err
	}
	return Segment{Kind: kind, Selector: Selector{Kind: SelectorName, Name: []byte(name)}}, newIndex, nil
}

func parseName(expr string, i int) (string, int, error) {
	start := i
	for i < len(expr) && idRune(expr[i]) {
		i++
	}
	if start == i { // name cannot be empty
		return "", i, fmt.Errorf("%w: name selector cannot be empty after '.'", ErrSyntax)
	}
	return expr[start:i], i, nil
}

func parseBracketSegment(expr string, i int, kind SegmentKind) (Segment, int, error) {
	i++ // consume '['

	content, newIndex, err := bracketContent(expr, i)
	if err != nil {
		return Segment{}, i, err
	}
	i = newIndex

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return Segment{}, i, fmt.Errorf("%w: empty bracket selector '[]'", ErrSyntax)
	}

	if strings.HasPrefix(trimmed, "?") {
		return Segment{}, i, fmt.Errorf("%w: filter selectors", ErrFeature)
	}
	if hasTopLevelComma(trimmed) {
		return Segment{}, i, fmt.Errorf("%w: multi-selector unions", ErrFeature)
	}

	sel, err := parseBracketSelector(trimmed)
	if err != nil {
		return Segment{}, i, err
	}
	return Segment{Kind: kind, Selector: sel}, i, nil
}

// bracketContent returns the bytes between '[' and its matching ']',
// honoring quoted names, and the index just past the bracket.
func bracketContent(expr string, i int) (string, int, error) {
	start := i
	var quote byte

	for ; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == '\\' {
				i++ // skip the escaped character
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if c == ']' {
			return expr[start:i], i + 1, nil
		}
	}

	return "", i, fmt.Errorf("%w: unterminated bracket selector, missing ']'", ErrSyntax)
}

func hasTopLevelComma(content string) bool {
	var quote byte
	for i := 0; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case ',':
			return true
		}
	}
	return false
}

func parseBracketSelector(p string) (Selector, error) {
	if p == "*" { // wildcard
		return Selector{Kind: SelectorWildcard}, nil
	}

	if isQuotedName(p) {
		return Selector{Kind: SelectorName, Name: []byte(p[1 : len(p)-1])}, nil
	}

	if strings.Contains(p, ":") {
		return parseSlice(p)
	}

	idx, err := strconv.Atoi(p)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: invalid content '%s' in bracket selector", ErrSyntax, p)
	}
	if idx < 0 {
		return Selector{}, fmt.Errorf("%w: negative array index (%d)", ErrFeature, idx)
	}
	return Selector{Kind: SelectorIndex, Index: idx}, nil
}

func isQuotedName(s string) bool {
	return (len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'') ||
		(len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"')
}

func parseSlice(p string) (Selector, error) {
	bounds := strings.Split(p, ":")
	if len(bounds) > 3 {
		return Selector{}, fmt.Errorf("%w: too many colons in slice '%s'", ErrSyntax, p)
	}

	s := Slice{
		Start: 0,
		End:   sliceNoUpperBound,
		Step:  1,
	}

	if err := parseSliceBound(&s.Start, bounds[0], "start", p); err != nil {
		return Selector{}, err
	}

	if len(bounds) > 1 {
		if err := parseSliceBound(&s.End, bounds[1], "end", p); err != nil {
			return Selector{}, err
		}
	}

	if len(bounds) == 3 {
		if err := parseSliceBound(&s.Step, bounds[2], "step", p); err != nil {
			return Selector{}, err
		}
	}

	if s.Start < 0 || s.End < 0 {
		return Selector{}, fmt.Errorf("%w: negative slice bounds in '%s'", ErrFeature, p)
	}
	if s.Step == 0 {
		return Selector{}, fmt.Errorf("%w: slice step of zero in '%s'", ErrFeature, p)
	}
	if s.Step < 0 {
		return Selector{}, fmt.Errorf("%w: backward slice in '%s'", ErrFeature, p)
	}

	return Selector{Kind: SelectorSlice, Slice: s}, nil
}

func parseSliceBound(target *int, valueStr, boundType, fullSlice string) error {
	trimmed := strings.TrimSpace(valueStr)
	if trimmed == "" {
		return nil
	}

	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("%w: slice %s '%s' in '%s' is not a number", ErrSyntax, boundType, trimmed, fullSlice)
	}

	*target = v
	return nil
}

// idRune checks if a byte is valid for unquoted names after '.'.
func idRune(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' || b == '-'
}
