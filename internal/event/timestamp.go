package event

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DatasetLayout is the layout used by the recorded dataset, minus the " UTC" suffix.
const DatasetLayout = "2006-01-02 15:04:05"

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("unparseable timestamp")

// ParseError reports a timestamp that matched no known form.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", ErrParse, e.Raw)
}

func (e *ParseError) Unwrap() error { return ErrParse }

var datasetPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} UTC$`)

// isoLayouts are tried in order once the dataset form does not match.
// Inputs without an offset parse as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime normalizes raw timestamp text into an instant.
func ParseTime(raw string) (time.Time, error) {
	if datasetPattern.MatchString(raw) {
		t, err := time.Parse(DatasetLayout, strings.TrimSuffix(raw, " UTC"))
		if err != nil {
			return time.Time{}, &ParseError{Raw: raw}
		}
		return t, nil
	}

	s := raw
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Raw: raw}
}

// FormatTime renders t in the dataset form, e.g. "2019-10-06 19:42:21 UTC".
func FormatTime(t time.Time) string {
	return t.UTC().Format(DatasetLayout) + " UTC"
}
