// Package loader reads recorded events from CSV files.
//
// Each file starts with a header row, which is skipped. Rows may have any
// number of fields; short rows are kept and filtered later by the
// dispatcher. Files are concatenated in the order given, without sorting.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

// Options selects a window of the loaded rows.
type Options struct {
	Skip  int // rows to drop from the start
	Limit int // max rows to keep, 0 means all
}

// Apply returns the window of records selected by o.
func (o Options) Apply(records []event.Record) []event.Record {
	if o.Skip > 0 {
		if o.Skip >= len(records) {
			return nil
		}
		records = records[o.Skip:]
	}
	if o.Limit > 0 && o.Limit < len(records) {
		records = records[:o.Limit]
	}
	return records
}

// want reports how many rows in total are needed to satisfy o, or -1.
func (o Options) want() int {
	if o.Limit <= 0 {
		return -1
	}
	return max(o.Skip, 0) + o.Limit
}

// Read parses one CSV stream, skipping its header row.
func Read(r io.Reader) ([]event.Record, error) {
	return read(r, -1)
}

func read(r io.Reader, limit int) ([]event.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var out []event.Record
	for limit < 0 || len(out) < limit {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("reading row %d: %w", len(out)+1, err)
		}
		out = append(out, event.FromRow(row))
	}
	return out, nil
}

// LoadFiles reads every file in order and returns the selected window of
// the concatenated rows. Reading stops early once the window is full.
func LoadFiles(paths []string, opts Options) ([]event.Record, error) {
	need := opts.want()

	var all []event.Record
	for _, p := range paths {
		if need >= 0 && len(all) >= need {
			break
		}
		recs, err := loadFile(p, remaining(need, len(all)))
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return opts.Apply(all), nil
}

func loadFile(path string, limit int) ([]event.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	recs, err := read(f, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func remaining(need, have int) int {
	if need < 0 {
		return -1
	}
	return need - have
}
