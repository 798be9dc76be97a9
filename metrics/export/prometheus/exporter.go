package prometheus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	goSeal "github.com/MrEthical07/goSeal"
	"github.com/MrEthical07/goSeal/metrics/export/internaldefs"
)

// Source is satisfied by *goSeal.Engine.
type Source interface {
	MetricsSnapshot() goSeal.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders a Source on demand.
type Exporter struct {
	source Source
}

func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = e.WriteTo(w)
	})
}

// Render returns the exposition text. It is empty when metrics are disabled.
func (e *Exporter) Render() string {
	var buf bytes.Buffer
	_, _ = e.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes the exposition text to w.
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	if e == nil || e.source == nil {
		return 0, nil
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	for _, def := range internaldefs.Counters {
		writeCounter(cw, def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.Histograms {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(cw, def.Name, def.Help, internaldefs.Cumulative(raw))
	}
	writeCounter(cw, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, dropped)

	if err := cw.w.Flush(); err != nil && cw.err == nil {
		cw.err = err
	}
	return cw.n, cw.err
}

func writeHeader(w io.Writer, name, help, kind string) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, escapeHelp(help), name, kind)
}

func writeCounter(w io.Writer, name, help string, value uint64) {
	writeHeader(w, name, help, "counter")
	fmt.Fprintf(w, "%s %d\n", name, value)
}

func writeHistogram(w io.Writer, name, help string, cumulative [internaldefs.BucketCount]uint64) {
	writeHeader(w, name, help, "histogram")
	for i, le := range internaldefs.Bounds {
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", name, le, cumulative[i])
	}
	fmt.Fprintf(w, "%s_count %d\n", name, cumulative[internaldefs.BucketCount-1])
	// Sums are not tracked by the Engine.
	fmt.Fprintf(w, "%s_sum 0\n", name)
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func escapeHelp(help string) string {
	return helpEscaper.Replace(help)
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
