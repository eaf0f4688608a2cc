package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/models"
)

// Chart is a rendered go-echarts option set.
type Chart struct {
	ID      string
	Options string
}

// ReportData feeds the validation report.
type ReportData struct {
	Charts   []Chart
	Sessions []models.SessionRecord
	Metric   string
	Metrics  []string
	Message  string
}

// Report shows the cross-session validation charts and the archived sessions.
func Report(d ReportData, nonce string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="report"><h1>Validation report</h1>`)
		if d.Message != "" {
			p.raw(`<p class="message">`)
			p.text(d.Message)
			p.raw(`</p></section>`)
			return p.err
		}
		if len(d.Metrics) > 0 {
			p.raw(`<form method="get" action="/report"><label for="metric">Timeline metric</label><select id="metric" name="metric">`)
			for _, m := range d.Metrics {
				selected := ""
				if m == d.Metric {
					selected = " selected"
				}
				p.raw(`<option value="%s"%s>`, templ.EscapeString(m), selected)
				p.text(m)
				p.raw(`</option>`)
			}
			p.raw(`</select><button type="submit">Show</button></form>`)
		}
		for _, c := range d.Charts {
			p.raw(`<div id="%s" class="chart"></div>`, templ.EscapeString(c.ID))
		}
		sessionTable(p, d.Sessions)
		p.raw(`</section>`)
		if len(d.Charts) > 0 {
			p.raw(`<script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"></script>`)
			p.raw(`<script nonce="%s">`, templ.EscapeString(nonce))
			for _, c := range d.Charts {
				p.raw(`echarts.init(document.getElementById(%q)).setOption(%s);`, c.ID, c.Options)
			}
			p.raw(`</script>`)
		}
		return p.err
	})
}

func sessionTable(p *printer, sessions []models.SessionRecord) {
	p.raw(`<h2>Sessions</h2>`)
	if len(sessions) == 0 {
		p.raw(`<p>No sessions archived yet.</p>`)
		return
	}
	p.raw(`<table><thead><tr><th>Subject</th><th>Started</th><th>Duration (s)</th><th>Unique articles</th><th>Aligned</th><th>Misaligned</th></tr></thead><tbody>`)
	for _, s := range sessions {
		p.raw(`<tr><td><a href="/report/sessions/%s">`, templ.EscapeString(s.ID))
		p.text(s.SubjectNumber)
		p.raw(`</a></td><td>%s</td><td>%.1f</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
			s.StartedAt.Format("2006-01-02 15:04"), s.DurationSeconds, s.TotalUniqueArticlesRead, s.AlignedCount, s.MisalignedCount)
	}
	p.raw(`</tbody></table>`)
}

// SessionDetail lists the bias events and metrics of one archived session.
func SessionDetail(s *models.SessionRecord) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="session"><h1>Subject `)
		p.text(s.SubjectNumber)
		p.raw(`</h1><p>Started %s, %.1f seconds, %d unique articles (%d clicks). Completed topics: `,
			s.StartedAt.Format("2006-01-02 15:04:05"), s.DurationSeconds, s.TotalUniqueArticlesRead, s.TotalReadArticleClicks)
		p.text(joinTopics(s.CompletedTopics))
		p.raw(`</p><p>Saved to <code>`)
		p.text(s.FilePath)
		p.raw(`</code></p>`)

		p.raw(`<h2>Bias events</h2><table><thead><tr><th>#</th><th>Article</th><th>Statement</th><th>Type</th><th>Phase 1</th><th>Expected</th><th>Actual</th><th>Alignment</th><th>Surprise</th></tr></thead><tbody>`)
		for _, b := range s.BiasEvents {
			p.raw(`<tr><td>%d</td><td>`, b.Sequence)
			p.text(b.ArticleCode)
			p.raw(`</td><td>`)
			p.text(b.PrimaryStatementCode)
			p.raw(`</td><td>`)
			p.text(b.ArticleType)
			p.raw(`</td><td>%d</td><td>`, b.Phase1Rating)
			p.text(fmt.Sprintf("%s (%.2f)", b.ExpectedResponse, b.ExpectedStrength))
			p.raw(`</td><td>`)
			p.text(b.ActualResponse)
			p.raw(`</td><td>`)
			p.text(b.Alignment)
			p.raw(`</td><td>%.2f</td></tr>`, b.SurpriseScore)
		}
		p.raw(`</tbody></table>`)

		p.raw(`<h2>Metrics</h2><table><tbody>`)
		for _, m := range s.Metrics {
			p.raw(`<tr><td>`)
			p.text(m.MetricKey)
			p.raw(`</td><td>%.3f</td><td>n=%d</td></tr>`, m.MetricValue, m.SampleSize)
		}
		p.raw(`</tbody></table><p><a href="/report">Back to report</a></p></section>`)
		return p.err
	})
}

func joinTopics(t models.TopicList) string {
	if len(t) == 0 {
		return "none"
	}
	return strings.Join(t, ", ")
}
