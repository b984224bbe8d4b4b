// Package execute wires the command line to the query pipeline: it loads
// the document, compiles the query, runs the engine and prints results.
package execute

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rsonquery/rq/internal/automaton"
	"github.com/rsonquery/rq/internal/config"
	"github.com/rsonquery/rq/internal/engine"
	"github.com/rsonquery/rq/internal/exit"
	"github.com/rsonquery/rq/internal/input"
	"github.com/rsonquery/rq/internal/progress"
	"github.com/rsonquery/rq/internal/query"
	"github.com/rsonquery/rq/internal/result"
)

// Version is the release version advertised by --version.
const Version = "0.1.0"

// progressPerSecond bounds how often verbose runs report match progress.
const progressPerSecond = 4

// Runner executes one configured query invocation.
type Runner struct {
	cfg       *config.Config
	eng       *engine.Engine
	output    io.Writer
	errOutput io.Writer
}

// New builds a runner; engine capabilities are detected here, once.
func New(cfg *config.Config) (*Runner, *exit.Result) {
	return &Runner{
		cfg:       cfg,
		eng:       engine.New(),
		output:    os.Stdout,
		errOutput: os.Stderr,
	}, nil
}

// SetOutput redirects result output, used by tests.
func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

// SetErrorOutput redirects diagnostics, used by tests.
func (r *Runner) SetErrorOutput(w io.Writer) {
	r.errOutput = w
}

// Run executes the invocation and returns the process exit code. Context
// cancellation stops the engine at the next emission and is not an error.
func (r *Runner) Run(ctx context.Context) int {
	if r.cfg.ShowVersion {
		fmt.Fprintf(r.output, "rq %s (%s)\n", Version, r.eng.Capabilities())
		return 0
	}

	log := r.newLogger()

	doc, source, err := r.loadDocument()
	if err != nil {
		fmt.Fprintf(r.errOutput, "rq: %v\n", err)
		return 1
	}

	q, err := query.Parse(r.cfg.Query)
	if err != nil {
		fmt.Fprintf(r.errOutput, "rq: %v\n", err)
		return 1
	}
	auto, err := automaton.Compile(q)
	if err != nil {
		fmt.Fprintf(r.errOutput, "rq: %v\n", err)
		return 1
	}

	log.Debug().
		Str("source", source).
		Str("size", humanize.Bytes(uint64(len(doc)))).
		Str("simd", r.eng.Capabilities().String()).
		Str("query", r.cfg.Query).
		Msg("running query")

	buf := input.New(doc)
	out := bufio.NewWriter(r.output)
	throttle := progress.New(progressPerSecond)

	started := time.Now()
	matches := 0

	observe := func(span result.Span) result.Signal {
		if ctx.Err() != nil {
			return result.Stop
		}
		matches++
		if throttle.Allow() {
			log.Debug().Int("matches", matches).Int("offset", span.Start).Msg("progress")
		}
		return result.Continue
	}

	var sink result.Sink
	switch r.cfg.Result {
	case config.ResultCount:
		sink = result.FuncSink(func(span result.Span, _ []byte) result.Signal {
			return observe(span)
		})
	case config.ResultSpans:
		sink = result.FuncSink(func(span result.Span, _ []byte) result.Signal {
			fmt.Fprintf(out, "%d:%d\n", span.Start, span.End)
			return observe(span)
		})
	default:
		sink = result.FuncSink(func(span result.Span, raw []byte) result.Signal {
			out.Write(raw)
			out.WriteByte('\n')
			return observe(span)
		})
	}

	runErr := r.eng.Run(auto, buf, sink)

	if r.cfg.Result == config.ResultCount {
		fmt.Fprintf(out, "%d\n", matches)
	}
	if err := out.Flush(); err != nil {
		fmt.Fprintf(r.errOutput, "rq: %v\n", err)
		return 1
	}

	if runErr != nil {
		fmt.Fprintf(r.errOutput, "rq: %v\n", runErr)
		return 1
	}

	elapsed := time.Since(started)
	log.Debug().
		Int("matches", matches).
		Dur("elapsed", elapsed).
		Str("throughput", throughput(len(doc), elapsed)).
		Msg("done")
	return 0
}

func (r *Runner) newLogger() zerolog.Logger {
	if !r.cfg.Verbose {
		return zerolog.New(io.Discard).Level(zerolog.Disabled)
	}
	return zerolog.New(r.errOutput).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

func (r *Runner) loadDocument() ([]byte, string, error) {
	switch {
	case r.cfg.InlineJSON != "":
		return []byte(r.cfg.InlineJSON), "inline", nil
	case r.cfg.FilePath != "":
		doc, err := os.ReadFile(r.cfg.FilePath)
		if err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", r.cfg.FilePath, err)
		}
		return doc, r.cfg.FilePath, nil
	default:
		doc, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading standard input: %w", err)
		}
		return doc, "stdin", nil
	}
}

func throughput(n int, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "n/a"
	}
	perSecond := float64(n) / elapsed.Seconds()
	return humanize.Bytes(uint64(perSecond)) + "/s"
}
