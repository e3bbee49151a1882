package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Result captures the outcome of a single checked call
type Result struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "pass", "fail"
	N         int       `json:"n"`
	ElapsedMs float64   `json:"elapsed_ms,omitempty"`
	Clock     string    `json:"clock,omitempty"` // "host" or "device"
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// resultLog collects results and mirrors them to a JSON file when a path
// is set.
type resultLog struct {
	mu      sync.Mutex
	results []Result
	file    string
}

func newResultLog(file string) *resultLog {
	return &resultLog{file: file}
}

// add records r and flushes to disk immediately so a crash keeps the
// results gathered so far.
func (l *resultLog) add(r Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r.Timestamp = time.Now()
	l.results = append(l.results, r)
	return l.flush()
}

func (l *resultLog) flush() error {
	if l.file == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(l.file, data, 0644)
}

// failed reports how many recorded results did not pass.
func (l *resultLog) failed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo.CountBy(l.results, func(r Result) bool { return r.Status != "pass" })
}

// printSummary writes one line per result followed by the totals.
func (l *resultLog) printSummary(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	for _, r := range l.results {
		switch r.Status {
		case "pass":
			fmt.Fprintf(w, "✓ %-44s %10.3f ms (%s)\n", r.Name, r.ElapsedMs, r.Clock)
		default:
			fmt.Fprintf(w, "✗ %-44s FAILED: %s\n", r.Name, r.Error)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))

	passed := lo.CountBy(l.results, func(r Result) bool { return r.Status == "pass" })
	fmt.Fprintf(w, "Total: %d | Passed: %d | Failed: %d\n",
		len(l.results), passed, len(l.results)-passed)
}
