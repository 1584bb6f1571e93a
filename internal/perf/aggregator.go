package perf

import (
	"cmp"
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
)

// Aggregator collects outcomes of a measured run.
// Thread-safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	outcomes []dispatch.Outcome
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Add records one outcome.
func (a *Aggregator) Add(o dispatch.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, o)
}

// Clear drops every collected outcome.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = nil
}

// Len returns the number of collected outcomes.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.outcomes)
}

// Outcomes returns a copy of the collected outcomes ordered by Seq.
// Workers may finish out of order; the copy restores input order.
func (a *Aggregator) Outcomes() []dispatch.Outcome {
	a.mu.Lock()
	out := make([]dispatch.Outcome, len(a.outcomes))
	copy(out, a.outcomes)
	a.mu.Unlock()

	slices.SortStableFunc(out, func(x, y dispatch.Outcome) int {
		return cmp.Compare(x.Seq, y.Seq)
	})
	return out
}

// Statistics computes Stats over everything collected so far.
func (a *Aggregator) Statistics() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Compute(a.outcomes)
}

// ExportJSON writes all outcomes, in Seq order, as a JSON array.
func (a *Aggregator) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a.Outcomes())
}

// ExportFile writes all outcomes to a file as a JSON array.
func (a *Aggregator) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.ExportJSON(f)
}

// LoadJSON reads outcomes written by ExportJSON.
func LoadJSON(r io.Reader) ([]dispatch.Outcome, error) {
	var outcomes []dispatch.Outcome
	if err := json.NewDecoder(r).Decode(&outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}
