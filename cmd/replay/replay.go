package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/runway-config-etl/internal/pipeline"
	"github.com/couchcryptid/runway-config-etl/internal/reconcile"
	"github.com/couchcryptid/runway-config-etl/internal/runway"
)

// maxLineBytes bounds a single advisory line.
const maxLineBytes = 1 << 20

// lineResult is the outcome for one input line. Err is set when the line
// was rejected before parsing.
type lineResult struct {
	Line   int
	Config domain.RunwayConfiguration
	Err    error
}

// expectation describes what a given input line must produce. Merged is
// only checked when present.
type expectation struct {
	Line       int      `json:"line"`
	Arrivals   []string `json:"arrivals"`
	Departures []string `json:"departures"`
	Merged     *bool    `json:"merged,omitempty"`
}

// replay processes advisories in input order. Blank lines are skipped but
// still counted, so line numbers match the file.
func replay(ctx context.Context, in io.Reader, out io.Writer, window time.Duration, logger *slog.Logger) ([]lineResult, error) {
	// Unregistered collectors: a one-shot run has no /metrics endpoint.
	metrics := observability.NewMetricsForTesting()
	store := reconcile.NewMemoryStore(reconcile.DefaultStoreCapacity, reconcile.DefaultHistory)
	transformer := pipeline.NewTransformer(runway.NewParser(), reconcile.New(store, window, logger, metrics), logger, metrics)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)

	var results []lineResult
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		rec, err := decodeAdvisory(raw)
		if err != nil {
			logger.Warn("skipping advisory", "line", line, "error", err)
			results = append(results, lineResult{Line: line, Err: err})
			continue
		}

		cfg := transformer.Process(ctx, rec)
		if err := enc.Encode(cfg); err != nil {
			return results, fmt.Errorf("write line %d: %w", line, err)
		}
		results = append(results, lineResult{Line: line, Config: cfg})
	}
	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("read input: %w", err)
	}
	return results, nil
}

func decodeAdvisory(raw []byte) (domain.AdvisoryRecord, error) {
	return domain.ParseRawEvent(domain.RawEvent{Value: raw})
}

func loadExpectations(path string) ([]expectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []expectation
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// check compares results with expectations and returns one message per
// mismatch.
func check(results []lineResult, expectations []expectation) []string {
	byLine := make(map[int]lineResult, len(results))
	for _, r := range results {
		byLine[r.Line] = r
	}

	var mismatches []string
	for _, e := range expectations {
		r, ok := byLine[e.Line]
		switch {
		case !ok:
			mismatches = append(mismatches, fmt.Sprintf("line %d: no advisory", e.Line))
			continue
		case r.Err != nil:
			mismatches = append(mismatches, fmt.Sprintf("line %d: rejected: %v", e.Line, r.Err))
			continue
		}

		if !sameRunways(r.Config.Arrivals, e.Arrivals) {
			mismatches = append(mismatches, fmt.Sprintf("line %d: arrivals = %v, want %v", e.Line, r.Config.Arrivals, e.Arrivals))
		}
		if !sameRunways(r.Config.Departures, e.Departures) {
			mismatches = append(mismatches, fmt.Sprintf("line %d: departures = %v, want %v", e.Line, r.Config.Departures, e.Departures))
		}
		if e.Merged != nil && r.Config.MergedFromPair != *e.Merged {
			mismatches = append(mismatches, fmt.Sprintf("line %d: merged = %t, want %t", e.Line, r.Config.MergedFromPair, *e.Merged))
		}
	}
	return mismatches
}

// sameRunways compares runway sets ignoring order and designator padding.
func sameRunways(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	a := canonicalAll(got)
	b := canonicalAll(want)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func canonicalAll(runways []string) []string {
	out := make([]string, 0, len(runways))
	for _, r := range runways {
		out = append(out, runway.Canonical(r))
	}
	return out
}
