package recorder

import (
	"io"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
	internalrecorder "github.com/SmitUplenchwar2687/rewind/internal/recorder"
)

// Received pairs an event seen by the target server with its answer.
type Received = internalrecorder.Received

// Recorder captures accepted events in the recorded dataset layout.
type Recorder = internalrecorder.Recorder

// Header is the CSV header row written before any event.
var Header = internalrecorder.Header

// New creates a new Recorder. A nil w keeps events in memory only.
func New(w io.Writer) *Recorder {
	return internalrecorder.New(w)
}

// Create returns a Recorder that streams events to the CSV file at path as
// they arrive. Close it when done.
func Create(path string) (*Recorder, error) {
	return internalrecorder.Create(path)
}

// LoadJSON reads events written by Recorder.ExportJSON.
func LoadJSON(r io.Reader) ([]event.Record, error) {
	return internalrecorder.LoadJSON(r)
}
