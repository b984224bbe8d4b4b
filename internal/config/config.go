// Package config parses the rq command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rsonquery/rq/internal/exit"
)

// ResultMode selects how matches are reported.
type ResultMode string

const (
	ResultNodes ResultMode = "nodes"
	ResultCount ResultMode = "count"
	ResultSpans ResultMode = "spans"
)

var (
	ErrNoQuery       = errors.New("no query provided")
	ErrTooManyArgs   = errors.New("too many positional arguments")
	ErrConflictInput = errors.New("FILE and --json are mutually exclusive")
	ErrInvalidResult = errors.New("invalid --result mode")
	ErrFileNotFound  = errors.New("input file not found")
)

// Usage is the one-line invocation summary printed on argument errors.
const Usage = "usage: rq <QUERY> [FILE] [--json <INLINE>] [--result nodes|count|spans] [--verbose]\n"

// Config is the validated command-line configuration.
type Config struct {
	Query       string
	FilePath    string // empty means standard input unless InlineJSON is set
	InlineJSON  string
	Result      ResultMode
	Verbose     bool
	ShowVersion bool
}

// Parse turns os.Args-shaped input into a Config. Flags come before the
// positional QUERY and optional FILE.
func Parse(args []string) (*Config, *exit.Result) {
	fs := flag.NewFlagSet("rq", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		inline      = fs.String("json", "", "inline JSON document to query")
		resultMode  = fs.String("result", string(ResultNodes), "result mode: nodes, count or spans")
		verbose     = fs.Bool("verbose", false, "structured diagnostics on standard error")
		showVersion = fs.Bool("version", false, "print version and capability report")
	)

	if len(args) < 1 {
		return nil, exit.Usage("rq: no arguments", Usage)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return nil, exit.Usage(fmt.Sprintf("rq: %v", err), Usage)
	}

	cfg := &Config{
		InlineJSON:  *inline,
		Result:      ResultMode(strings.ToLower(*resultMode)),
		Verbose:     *verbose,
		ShowVersion: *showVersion,
	}

	rest := fs.Args()
	if cfg.ShowVersion {
		return cfg, nil
	}

	switch len(rest) {
	case 0:
		return nil, exit.Usage(fmt.Sprintf("rq: %v", ErrNoQuery), Usage)
	case 1:
		cfg.Query = rest[0]
	case 2:
		cfg.Query = rest[0]
		cfg.FilePath = rest[1]
	default:
		return nil, exit.Usage(fmt.Sprintf("rq: %v", ErrTooManyArgs), Usage)
	}

	if err := cfg.Validate(); err != nil {
		return nil, exit.Errorf("rq: %v\n", err)
	}
	return cfg, nil
}

// Validate checks the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.FilePath != "" && c.InlineJSON != "" {
		return ErrConflictInput
	}

	switch c.Result {
	case ResultNodes, ResultCount, ResultSpans:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResult, c.Result)
	}

	if c.FilePath != "" {
		if _, err := os.Stat(c.FilePath); err != nil {
			return fmt.Errorf("%w: %s", ErrFileNotFound, c.FilePath)
		}
	}
	return nil
}
