package execute

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rsonquery/rq/internal/config"
)

func runWith(t *testing.T, cfg *config.Config) (int, string, string) {
	t.Helper()
	r, res := New(cfg)
	if res != nil {
		t.Fatalf("New returned exit result: %+v", res)
	}

	var out, errOut bytes.Buffer
	r.SetOutput(&out)
	r.SetErrorOutput(&errOut)

	code := r.Run(context.Background())
	return code, out.String(), errOut.String()
}

func TestRun_NodesMode(t *testing.T) {
	code, out, _ := runWith(t, &config.Config{
		Query:      "$..a.b",
		InlineJSON: `{"c":{"a":{"b":42}}}`,
		Result:     config.ResultNodes,
	})

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if out != "42\n" {
		t.Errorf("output = %q, want %q", out, "42\n")
	}
}

func TestRun_CountMode(t *testing.T) {
	code, out, _ := runWith(t, &config.Config{
		Query:      "$..*",
		InlineJSON: `[1,2,[3]]`,
		Result:     config.ResultCount,
	})

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if out != "4\n" {
		t.Errorf("output = %q, want %q", out, "4\n")
	}
}

func TestRun_SpansMode(t *testing.T) {
	code, out, _ := runWith(t, &config.Config{
		Query:      "$.a",
		InlineJSON: `{"a":1}`,
		Result:     config.ResultSpans,
	})

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if out != "5:6\n" {
		t.Errorf("output = %q, want %q", out, "5:6\n")
	}
}

func TestRun_QueryErrorExitsNonZero(t *testing.T) {
	code, _, errOut := runWith(t, &config.Config{
		Query:      "$[?(@.x)]",
		InlineJSON: `{}`,
		Result:     config.ResultNodes,
	})

	if code == 0 {
		t.Fatal("exit code = 0, want non-zero for unsupported query")
	}
	if !strings.Contains(errOut, "not supported") {
		t.Errorf("stderr = %q, want feature diagnostic", errOut)
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runWith(t, &config.Config{ShowVersion: true})

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(out, "rq "+Version+" (") {
		t.Errorf("output = %q, want version with capability report", out)
	}
	for _, tier := range []string{"avx2", "ssse3", "scalar"} {
		if strings.Contains(out, tier) {
			return
		}
	}
	t.Errorf("output %q advertises no capability tier", out)
}

func TestRun_VerboseDiagnosticsGoToStderr(t *testing.T) {
	code, out, errOut := runWith(t, &config.Config{
		Query:      "$.a",
		InlineJSON: `{"a":1}`,
		Result:     config.ResultNodes,
		Verbose:    true,
	})

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if out != "1\n" {
		t.Errorf("stdout = %q, want results only", out)
	}
	if !strings.Contains(errOut, "running query") {
		t.Errorf("stderr = %q, want structured diagnostics", errOut)
	}
	if !strings.Contains(errOut, "run_id") {
		t.Errorf("stderr = %q, want run_id field", errOut)
	}
}

func TestRun_CancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := New(&config.Config{
		Query:      "$..*",
		InlineJSON: `[1,2,3]`,
		Result:     config.ResultCount,
	})
	var out bytes.Buffer
	r.SetOutput(&out)
	r.SetErrorOutput(&out)

	if code := r.Run(ctx); code != 0 {
		t.Errorf("exit code = %d, want 0 (cancellation is a normal early exit)", code)
	}
}
