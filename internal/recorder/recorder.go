package recorder

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

// Header is the column row written ahead of recorded events. It matches the
// layout the loader expects, so a recording can be replayed as is.
var Header = []string{
	"event_time", "event_type", "product_id", "category_id",
	"category_code", "brand", "price", "user_id", "user_session",
}

// Recorder captures received events for later replay.
// Thread-safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []event.Record
	csv     *csv.Writer // optional: stream rows as they arrive
	wrote   bool
	file    io.Closer
}

// New creates a new Recorder. If w is non-nil, records are also written to w
// as CSV rows as they arrive, preceded by Header.
func New(w io.Writer) *Recorder {
	r := &Recorder{}
	if w != nil {
		r.csv = csv.NewWriter(w)
	}
	return r
}

// Create opens path and returns a Recorder that streams each event to it as
// it arrives. The header goes out immediately, so a run that receives
// nothing still leaves a file the loader accepts. Close releases the file.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := New(f)
	r.file = f
	if err := r.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Record captures a single event.
func (r *Recorder) Record(rec event.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)

	if r.csv == nil {
		return nil
	}
	if err := r.writeHeader(); err != nil {
		return err
	}
	if err := r.csv.Write(rec.Row()); err != nil {
		return err
	}
	r.csv.Flush()
	return r.csv.Error()
}

// writeHeader emits Header once. Callers hold r.mu or own r exclusively.
func (r *Recorder) writeHeader() error {
	if r.wrote {
		return nil
	}
	if err := r.csv.Write(Header); err != nil {
		return err
	}
	r.csv.Flush()
	r.wrote = true
	return r.csv.Error()
}

// Close stops streaming and closes the file opened by Create. Events
// recorded afterwards are kept in memory only.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.csv = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Records returns a copy of all recorded events.
func (r *Recorder) Records() []event.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]event.Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of recorded items.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// ExportCSV writes all records to w in dataset layout.
func (r *Recorder) ExportCSV(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range r.records {
		if err := cw.Write(rec.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportJSON writes all records to the given writer as a JSON array.
func (r *Recorder) ExportJSON(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.records)
}

// ExportFile writes all records to a CSV file.
func (r *Recorder) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.ExportCSV(f)
}

// LoadJSON reads events from a JSON array written by ExportJSON.
func LoadJSON(r io.Reader) ([]event.Record, error) {
	var records []event.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}
