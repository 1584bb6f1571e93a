package recorder

import (
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/limiter"
)

// Received pairs an event accepted or rejected by the target server with the
// answer it produced. Used for streaming to the dashboard.
type Received struct {
	Record   event.Record      `json:"record"`
	Status   int               `json:"status"`
	Decision *limiter.Decision `json:"decision,omitempty"` // nil when rate limiting is off
	Time     time.Time         `json:"time"`
}

// Accepted reports whether the server answered 200.
func (r Received) Accepted() bool { return r.Status == 200 }
