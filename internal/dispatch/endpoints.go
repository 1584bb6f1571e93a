package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
)

// DefaultBaseURL is the shop API address used when none is configured.
const DefaultBaseURL = "http://localhost:8080"

// Endpoints maps each event type to the URL its events are posted to.
// It is immutable after construction and safe to share between workers.
type Endpoints struct {
	urls map[event.Type]string
}

// Path returns the fixed path for an event type, e.g. "/remove_from_cart".
func Path(t event.Type) string {
	return "/" + string(t)
}

// NewEndpoints builds the table from a base URL plus the fixed per-type
// paths. Overrides replace the URL of individual types.
func NewEndpoints(base string, overrides map[string]string) (Endpoints, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return Endpoints{}, fmt.Errorf("invalid base url %q", base)
	}

	urls := make(map[event.Type]string, len(event.Types()))
	for _, t := range event.Types() {
		urls[t] = base + Path(t)
	}
	for k, v := range overrides {
		t := event.Type(k)
		if !t.Valid() {
			return Endpoints{}, fmt.Errorf("endpoint override for unknown event type %q", k)
		}
		if _, err := url.ParseRequestURI(v); err != nil {
			return Endpoints{}, fmt.Errorf("invalid url for %s: %w", k, err)
		}
		urls[t] = v
	}
	return Endpoints{urls: urls}, nil
}

// DefaultEndpoints returns the table rooted at DefaultBaseURL.
func DefaultEndpoints() Endpoints {
	e, _ := NewEndpoints(DefaultBaseURL, nil)
	return e
}

// URL returns the endpoint for t. Unknown types have none.
func (e Endpoints) URL(t event.Type) (string, bool) {
	u, ok := e.urls[t]
	return u, ok
}

// All returns a copy of the table.
func (e Endpoints) All() map[event.Type]string {
	out := make(map[event.Type]string, len(e.urls))
	for k, v := range e.urls {
		out[k] = v
	}
	return out
}
