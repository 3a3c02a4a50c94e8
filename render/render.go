// Package render turns analyses and stored records into HTML.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"training-analyzer/models"
	"training-analyzer/services"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS
	//go:embed static
	staticFS embed.FS
)

// Notice levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// Notice is a transient message that removes itself after DismissAfter.
// A zero DismissAfter uses the renderer default.
type Notice struct {
	Level        string
	Message      string
	DismissAfter time.Duration
}

// PageData fills the full page.
type PageData struct {
	Status         services.StoreStatus
	MaxUploadBytes int64
	MaxLoadRecords int
}

type statRow struct {
	Metric string
	Value  string
	Unit   string
}

type sessionView struct {
	ID       string
	Name     string
	RowCount int
	Time     string
	Stats    []statRow
}

type dayView struct {
	Date    string
	Records []sessionView
}

type noticeView struct {
	Level     string
	Message   string
	DismissMs int64
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl      *template.Template
	formatter *services.Formatter
	dismiss   time.Duration
	loc       *time.Location
	css       template.CSS
}

// New parses the templates. History dates are shown in loc.
func New(formatter *services.Formatter, dismiss time.Duration, loc *time.Location) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	css, err := staticFS.ReadFile("static/style.css")
	if err != nil {
		return nil, fmt.Errorf("render: read stylesheet: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{
		tmpl:      tmpl,
		formatter: formatter,
		dismiss:   dismiss,
		loc:       loc,
		css:       template.CSS(css),
	}, nil
}

// Static serves the stylesheet and script.
func (r *Renderer) Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.FileServer(http.FS(sub))
}

func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.execute(w, "page", struct {
		PageData
		DismissMs int64
	}{data, r.dismiss.Milliseconds()})
}

// Results renders an analysis and embeds it as JSON so the browser can post
// it back to the save and export actions.
func (r *Renderer) Results(w io.Writer, a *models.Analysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("render: encode analysis: %w", err)
	}
	return r.execute(w, "results", struct {
		SourceName    string
		SessionColumn string
		TotalSessions int
		TotalRecords  int
		AnalysisJSON  string
		Sessions      []sessionView
	}{a.SourceName, a.SessionColumn, a.TotalSessions, a.TotalRecords, string(payload), r.sessions(a)})
}

// History renders records grouped by local creation date, keeping their order.
func (r *Renderer) History(w io.Writer, records []*models.StoredRecord) error {
	var days []*dayView
	index := make(map[string]*dayView)

	for _, rec := range records {
		date, clock := "No date", "No time"
		if !rec.CreatedAt.IsZero() {
			local := rec.CreatedAt.In(r.loc)
			date, clock = local.Format("2006-01-02"), local.Format("15:04:05")
		}
		day, ok := index[date]
		if !ok {
			day = &dayView{Date: date}
			index[date] = day
			days = append(days, day)
		}
		day.Records = append(day.Records, sessionView{
			ID:       rec.ID,
			Name:     rec.SessionName,
			RowCount: rec.RowCount,
			Time:     clock,
			Stats:    r.stats(rec.Averages),
		})
	}

	return r.execute(w, "history", struct {
		Days  []*dayView
		Empty noticeView
	}{days, r.notice(Notice{Level: LevelInfo, Message: "No saved data."})})
}

func (r *Renderer) Notice(w io.Writer, n Notice) error {
	return r.execute(w, "notice", r.notice(n))
}

// Report renders a standalone, print-styled document of an analysis.
func (r *Renderer) Report(w io.Writer, a *models.Analysis) error {
	analyzed := ""
	if !a.AnalyzedAt.IsZero() {
		analyzed = a.AnalyzedAt.In(r.loc).Format("2006-01-02 15:04")
	}
	return r.execute(w, "report", struct {
		CSS           template.CSS
		SourceName    string
		AnalyzedAt    string
		TotalSessions int
		TotalRecords  int
		Sessions      []sessionView
	}{r.css, a.SourceName, analyzed, a.TotalSessions, a.TotalRecords, r.sessions(a)})
}

func (r *Renderer) notice(n Notice) noticeView {
	if n.Level == "" {
		n.Level = LevelInfo
	}
	d := n.DismissAfter
	if d == 0 {
		d = r.dismiss
	}
	return noticeView{Level: n.Level, Message: n.Message, DismissMs: d.Milliseconds()}
}

func (r *Renderer) sessions(a *models.Analysis) []sessionView {
	if a == nil || a.Result == nil {
		return nil
	}
	out := make([]sessionView, 0, len(a.Result.Sessions))
	for _, s := range a.Result.Sessions {
		out = append(out, sessionView{Name: s.SessionName, RowCount: s.RowCount, Stats: r.stats(s.Averages)})
	}
	return out
}

func (r *Renderer) stats(averages models.Averages) []statRow {
	out := make([]statRow, 0, len(averages))
	for _, m := range averages {
		out = append(out, statRow{
			Metric: m.Metric,
			Value:  r.formatter.Value(m.Metric, m.Value),
			Unit:   r.formatter.Unit(m.Metric),
		})
	}
	return out
}

// execute renders into a buffer so a failed template writes nothing.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render: %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
