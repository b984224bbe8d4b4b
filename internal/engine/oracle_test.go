package engine

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/theory/jsonpath"
)

// Differential tests against a reference in-memory JSONPath implementation.
// The reference evaluates object wildcards in map order, so comparisons are
// order-insensitive: values canonicalize through encoding/json and sort.

func canonicalize(t *testing.T, values []any) []string {
	t.Helper()
	out := make([]string, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out = append(out, string(b))
	}
	sort.Strings(out)
	return out
}

func TestRun_AgreesWithReferenceImplementation(t *testing.T) {
	docs := []string{
		`{"a":{"b":1},"c":[{"b":2},{"d":3}],"e":"x"}`,
		`[[1,2],[3,[4,5]],{"a":6}]`,
		`{"store":{"book":[{"title":"one","price":1},{"title":"two","price":2}],"bicycle":{"price":3}}}`,
		`{"a":[{"a":[{"a":[1,2]},2]},3]}`,
		`[true,false,null,"s",0]`,
	}

	queries := []string{
		"$",
		"$.a",
		"$..a",
		"$..b",
		"$..*",
		"$.*",
		"$[0]",
		"$[1]",
		"$[0:2]",
		"$..price",
		"$..book[0]",
		"$.store.book[1].title",
		"$..a.*",
	}

	for _, doc := range docs {
		for _, expr := range queries {
			ref, err := jsonpath.Parse(expr)
			if err != nil {
				t.Fatalf("reference Parse(%q) error: %v", expr, err)
			}

			var data any
			if err := json.Unmarshal([]byte(doc), &data); err != nil {
				t.Fatalf("unmarshal %q: %v", doc, err)
			}
			refValues := canonicalize(t, ref.Select(data))

			_, nodes, count := runAll(t, doc, expr)
			if count != len(refValues) {
				t.Errorf("doc %s query %s: count = %d, reference = %d", doc, expr, count, len(refValues))
				continue
			}

			engineValues := make([]any, 0, len(nodes))
			for _, n := range nodes {
				var v any
				if err := json.Unmarshal([]byte(n), &v); err != nil {
					t.Fatalf("doc %s query %s: emitted node %q is not valid JSON: %v", doc, expr, n, err)
				}
				engineValues = append(engineValues, v)
			}

			if diff := cmp.Diff(refValues, canonicalize(t, engineValues)); diff != "" {
				t.Errorf("doc %s query %s: values mismatch (-reference +engine):\n%s", doc, expr, diff)
			}
		}
	}
}
