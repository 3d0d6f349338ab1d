// Command replay runs recorded advisories through the parser and split
// broadcast reconciler offline, writing one configuration per input line.
// An optional expectations file turns the run into a regression check.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -in data/replay/advisories.jsonl \
//	  -out configs.jsonl \
//	  -expect data/replay/expectations.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/reconcile"
	"github.com/jonboulle/clockwork"
)

// replayClock pins ProcessedAt so repeated runs produce identical output.
var replayClock = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func main() {
	inPath := flag.String("in", "", "JSONL file of raw advisories")
	outPath := flag.String("out", "", "output JSONL file (default stdout)")
	window := flag.Duration("window", reconcile.DefaultWindow, "split broadcast pairing window")
	expectPath := flag.String("expect", "", "JSON expectations file")
	verbose := flag.Bool("v", false, "log every configuration")
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if code := run(*inPath, *outPath, *expectPath, *window, *verbose); code != 0 {
		os.Exit(code)
	}
}

func run(inPath, outPath, expectPath string, window time.Duration, verbose bool) int {
	domain.SetClock(clockwork.NewFakeClockAt(replayClock))
	defer domain.SetClock(nil)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	in, err := os.Open(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		return 1
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create output: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	results, err := replay(context.Background(), in, out, window, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "replayed %d advisories\n", len(results))

	if expectPath == "" {
		return 0
	}
	expectations, err := loadExpectations(expectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load expectations: %v\n", err)
		return 1
	}
	mismatches := check(results, expectations)
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "  FAIL: %s\n", m)
	}
	if len(mismatches) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d expectations failed\n", len(mismatches), len(expectations))
		return 1
	}
	fmt.Fprintf(os.Stderr, "all %d expectations passed\n", len(expectations))
	return 0
}
