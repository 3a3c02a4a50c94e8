package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MetricStat accumulates the successfully parsed values of one metric
// within one session group.
// The mean is kept as a running value so that large finite inputs do not
// overflow a sum.
type MetricStat struct {
	Mean  float64
	Count int
}

func (m *MetricStat) Add(v float64) {
	m.Count++
	m.Mean += (v - m.Mean) / float64(m.Count)
}

// Average returns the mean; ok is false when nothing was counted or the
// mean is not finite.
func (m MetricStat) Average() (avg float64, ok bool) {
	if m.Count == 0 || math.IsInf(m.Mean, 0) || math.IsNaN(m.Mean) {
		return 0, false
	}
	return m.Mean, true
}

// SessionGroup is the rows sharing one session name, in input order.
type SessionGroup struct {
	Name string
	Rows []Row
}

// MetricAverage is one entry of Averages.
type MetricAverage struct {
	Metric string
	Value  float64
}

// Averages maps metric name to average, keeping first-seen metric order.
// It encodes as a JSON object whose keys keep that order.
type Averages []MetricAverage

func (a Averages) Get(metric string) (float64, bool) {
	for _, m := range a {
		if m.Metric == metric {
			return m.Value, true
		}
	}
	return 0, false
}

func (a Averages) Metrics() []string {
	out := make([]string, len(a))
	for i, m := range a {
		out[i] = m.Metric
	}
	return out
}

func (a Averages) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Metric)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("average of %q: %w", m.Metric, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *Averages) UnmarshalJSON(data []byte) error {
	out := Averages{}
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("average of %q: %w", key, err)
		}
		out = append(out, MetricAverage{Metric: key, Value: f})
		return nil
	})
	if err != nil {
		return err
	}
	*a = out
	return nil
}

// SessionSummary is the aggregate of one session group.
type SessionSummary struct {
	SessionName string   `json:"sessionName"`
	RowCount    int      `json:"rowCount"`
	Averages    Averages `json:"averages"`
	Rows        []Row    `json:"rows,omitempty"`
}

// AnalysisResult holds one summary per session, in first-occurrence order.
type AnalysisResult struct {
	Sessions []*SessionSummary `json:"sessions"`
}

func (r *AnalysisResult) Get(sessionName string) (*SessionSummary, bool) {
	if r == nil {
		return nil, false
	}
	for _, s := range r.Sessions {
		if s.SessionName == sessionName {
			return s, true
		}
	}
	return nil, false
}

func (r *AnalysisResult) SessionNames() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Sessions))
	for i, s := range r.Sessions {
		out[i] = s.SessionName
	}
	return out
}

func (r *AnalysisResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Sessions)
}

// TotalRows is the number of rows that survived the blank-session filter.
func (r *AnalysisResult) TotalRows() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, s := range r.Sessions {
		total += s.RowCount
	}
	return total
}

// Analysis is the outcome of one analyze action. Callers hand it on to the
// save, render and export actions.
type Analysis struct {
	SourceName    string          `json:"sourceName,omitempty"`
	SessionColumn string          `json:"sessionColumn"`
	Result        *AnalysisResult `json:"result"`
	AnalyzedAt    time.Time       `json:"analyzedAt"`
	TotalSessions int             `json:"totalSessions"`
	TotalRecords  int             `json:"totalRecords"`
}

// NewAnalysis fills the totals from result.
func NewAnalysis(source, sessionColumn string, result *AnalysisResult, at time.Time) *Analysis {
	return &Analysis{
		SourceName:    source,
		SessionColumn: sessionColumn,
		Result:        result,
		AnalyzedAt:    at,
		TotalSessions: result.Len(),
		TotalRecords:  result.TotalRows(),
	}
}

// WithoutRawRows returns a copy whose summaries carry no raw rows.
func (a *Analysis) WithoutRawRows() *Analysis {
	if a == nil || a.Result == nil {
		return a
	}
	cp := *a
	cp.Result = &AnalysisResult{Sessions: make([]*SessionSummary, len(a.Result.Sessions))}
	for i, s := range a.Result.Sessions {
		sc := *s
		sc.Rows = nil
		cp.Result.Sessions[i] = &sc
	}
	return &cp
}
