// Package report renders an analysis snapshot as a Markdown document.
package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/speedx-dev/speedx/internal/metrics"
	"github.com/speedx-dev/speedx/internal/orchestrator"
)

// Markdown writes the report for s to w.
func Markdown(w io.Writer, s orchestrator.Snapshot) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, s)
	writeMetrics(md, s)
	writeInsights(md, s)

	return md.Build()
}

func writeHeader(md *markdown.Markdown, s orchestrator.Snapshot) {
	md.H1("SpeedX Performance Report")
	md.PlainText("")

	url := s.MetricsURL
	if url == "" {
		url = s.URL
	}
	if url == "" {
		url = metrics.Placeholder
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", "`" + url + "`"},
			{"Status", statusText(s)},
			{"Updated", s.UpdatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	if s.Err != nil {
		md.Warningf("%s: %s", s.Err.Kind.Title(), s.Err.Kind.Description())
		md.PlainText("")
	}
}

func statusText(s orchestrator.Snapshot) string {
	switch s.Status {
	case orchestrator.Loading:
		return "⏳ Loading"
	case orchestrator.Success:
		return "✅ Complete"
	case orchestrator.Error:
		return "❌ Error"
	}
	return "Idle"
}

func writeMetrics(md *markdown.Markdown, s orchestrator.Snapshot) {
	md.H2("Metrics")
	md.PlainText("")

	if s.Metrics == nil {
		md.PlainText("No metrics collected yet.")
		md.PlainText("")
		return
	}

	fields := metrics.Fields(s.Metrics)
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		optimal := metrics.Placeholder
		if v, ok := metrics.Optimal(f.Key); ok {
			optimal = strconv.FormatFloat(v, 'f', -1, 64)
		}
		rows = append(rows, []string{f.Label, f.Value, optimal})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value", "Optimal"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeInsights(md *markdown.Markdown, s orchestrator.Snapshot) {
	md.H2("Insights")
	md.PlainText("")

	if len(s.Insights) == 0 {
		md.Note("No insights available.")
		md.PlainText("")
		return
	}

	md.BulletList(s.Insights...)
	md.PlainText("")
}
