package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/perf"
)

// seconds formats d the way every rewind report prints durations.
func seconds(d time.Duration) string {
	return fmt.Sprintf("%.4fs", d.Seconds())
}

// Console writes the performance summary and per-event-type breakdown.
func Console(w io.Writer, st perf.Stats, wall time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "PERFORMANCE STATISTICS")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "  Total requests:   %d\n", st.TotalRequests)
	fmt.Fprintf(w, "  Total duration:   %.2fs\n", st.TotalDuration.Seconds())
	fmt.Fprintf(w, "  Wall time:        %s\n", wall.Round(time.Millisecond))
	fmt.Fprintf(w, "  Avg per request:  %s\n", seconds(st.AvgDuration))
	fmt.Fprintf(w, "  Fastest:          %s\n", seconds(st.MinDuration))
	fmt.Fprintf(w, "  Slowest:          %s\n", seconds(st.MaxDuration))
	fmt.Fprintf(w, "  p50/p90/p99:      %s / %s / %s\n", seconds(st.P50), seconds(st.P90), seconds(st.P99))
	fmt.Fprintf(w, "  Success rate:     %.1f%%\n", st.SuccessRate)
	if wall > 0 && st.TotalRequests > 0 {
		fmt.Fprintf(w, "  Throughput:       %.1f req/s\n", float64(st.TotalRequests)/wall.Seconds())
	}

	if len(st.Endpoints) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Per event type:")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, t := range st.Types() {
		es := st.Endpoints[t]
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(string(t)))
		fmt.Fprintf(w, "  Endpoint:         %s\n", es.Endpoint)
		fmt.Fprintf(w, "  Requests:         %d\n", es.Count)
		fmt.Fprintf(w, "  Avg duration:     %s\n", seconds(es.AvgDuration))
		fmt.Fprintf(w, "  Fastest:          %s\n", seconds(es.MinDuration))
		fmt.Fprintf(w, "  Slowest:          %s\n", seconds(es.MaxDuration))
		fmt.Fprintf(w, "  Success rate:     %.1f%%\n", es.SuccessRate)
		if es.TransportErrors > 0 {
			fmt.Fprintf(w, "  Transport errors: %d\n", es.TransportErrors)
		}
		if codes := statusLine(es.StatusCodes); codes != "" {
			fmt.Fprintf(w, "  Status codes:     %s\n", codes)
		}
	}
}

func statusLine(codes map[int]int) string {
	if len(codes) == 0 {
		return ""
	}
	keys := make([]int, 0, len(codes))
	for c := range codes {
		keys = append(keys, c)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, c := range keys {
		parts[i] = fmt.Sprintf("%d=%d", c, codes[c])
	}
	return strings.Join(parts, " ")
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
