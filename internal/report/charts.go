package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/perf"
)

const (
	barWidth       = 40
	histogramBins  = 10
	sparklineWidth = 60
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Charts renders four text charts: the response-time distribution, response
// time over the request sequence, average duration per event type and
// success rate per event type.
func Charts(w io.Writer, outcomes []dispatch.Outcome, st perf.Stats) {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No data available for charts")
		return
	}
	histogram(w, outcomes, st)
	fmt.Fprintln(w)
	timeline(w, outcomes, st)
	fmt.Fprintln(w)
	avgPerType(w, st)
	fmt.Fprintln(w)
	successPerType(w, st)
}

func histogram(w io.Writer, outcomes []dispatch.Outcome, st perf.Stats) {
	fmt.Fprintln(w, "Response time distribution")
	lo, hi := st.MinDuration, st.MaxDuration
	span := hi - lo
	counts := make([]int, histogramBins)
	for _, o := range outcomes {
		i := 0
		if span > 0 {
			i = int(float64(o.Duration-lo) / float64(span) * histogramBins)
		}
		counts[min(i, histogramBins-1)]++
	}
	avgBin := 0
	if span > 0 {
		avgBin = min(int(float64(st.AvgDuration-lo)/float64(span)*histogramBins), histogramBins-1)
	}
	peak := slices.Max(counts)
	binWidth := span / histogramBins
	for i, c := range counts {
		from := lo + time.Duration(i)*binWidth
		mark := ""
		if i == avgBin {
			mark = "  <- avg " + seconds(st.AvgDuration)
		}
		fmt.Fprintf(w, "  %s | %-*s %d%s\n", seconds(from), barWidth, bar(float64(c), float64(peak)), c, mark)
		if span == 0 {
			break
		}
	}
}

func timeline(w io.Writer, outcomes []dispatch.Outcome, st perf.Stats) {
	fmt.Fprintln(w, "Response time over requests")
	cols := downsample(outcomes, sparklineWidth)
	peak := slices.Max(cols)
	var b strings.Builder
	for _, v := range cols {
		lvl := 0
		if peak > 0 {
			lvl = int(v / peak * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[lvl])
	}
	fmt.Fprintf(w, "  %s\n", b.String())
	fmt.Fprintf(w, "  requests 1..%d, peak %s, avg %s\n",
		len(outcomes), seconds(time.Duration(peak)), seconds(st.AvgDuration))
}

// downsample averages durations into at most n columns.
func downsample(outcomes []dispatch.Outcome, n int) []float64 {
	if len(outcomes) <= n {
		out := make([]float64, len(outcomes))
		for i, o := range outcomes {
			out[i] = float64(o.Duration)
		}
		return out
	}
	out := make([]float64, n)
	for c := 0; c < n; c++ {
		start := c * len(outcomes) / n
		end := (c + 1) * len(outcomes) / n
		var sum float64
		for _, o := range outcomes[start:end] {
			sum += float64(o.Duration)
		}
		out[c] = sum / float64(end-start)
	}
	return out
}

func avgPerType(w io.Writer, st perf.Stats) {
	fmt.Fprintln(w, "Average duration per event type")
	var peak time.Duration
	for _, es := range st.Endpoints {
		peak = max(peak, es.AvgDuration)
	}
	for _, t := range st.Types() {
		es := st.Endpoints[t]
		fmt.Fprintf(w, "  %-16s | %-*s %s\n", t, barWidth, bar(float64(es.AvgDuration), float64(peak)), seconds(es.AvgDuration))
	}
}

func successPerType(w io.Writer, st perf.Stats) {
	fmt.Fprintln(w, "Success rate per event type")
	for _, t := range st.Types() {
		es := st.Endpoints[t]
		fmt.Fprintf(w, "  %-16s | %-*s %.1f%%\n", t, barWidth, bar(es.SuccessRate, 100), es.SuccessRate)
	}
}

func bar(v, peak float64) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(v / peak * barWidth)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
