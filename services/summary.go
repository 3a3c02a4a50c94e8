package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"training-analyzer/models"
)

// SummaryPrinter writes an analysis as a terminal report.
type SummaryPrinter struct {
	formatter *Formatter
}

func NewSummaryPrinter(formatter *Formatter) *SummaryPrinter {
	return &SummaryPrinter{formatter: formatter}
}

func (p *SummaryPrinter) Print(w io.Writer, a *models.Analysis) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	title := color.New(color.FgMagenta, color.Bold)
	heading := color.New(color.FgYellow, color.Bold)
	bold := color.New(color.Bold)
	value := color.New(color.FgGreen, color.Bold)

	title.Fprintf(w, "\n%s\n", sep)
	title.Fprintf(w, "  TRAINING SESSION SUMMARY\n")
	title.Fprintf(w, "%s\n\n", sep)

	heading.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if a.SourceName != "" {
		fmt.Fprintf(w, "  File           : %s\n", a.SourceName)
	}
	fmt.Fprintf(w, "  Session column : %s\n", a.SessionColumn)
	fmt.Fprintf(w, "  Sessions       : %s\n", bold.Sprint(a.TotalSessions))
	fmt.Fprintf(w, "  Records        : %s\n", bold.Sprint(a.TotalRecords))
	fmt.Fprintln(w)

	if a.Result != nil {
		for _, s := range a.Result.Sessions {
			heading.Fprintf(w, "  %s", truncate(s.SessionName, 40))
			fmt.Fprintf(w, " (%d rows)\n", s.RowCount)
			fmt.Fprintf(w, "  %s\n", thin)
			if len(s.Averages) == 0 {
				fmt.Fprintf(w, "  No numeric data to analyze\n\n")
				continue
			}
			for _, m := range s.Averages {
				fmt.Fprintf(w, "  %-30s %s %s\n",
					truncate(m.Metric, 30),
					value.Sprintf("%12s", p.formatter.Value(m.Metric, m.Value)),
					p.formatter.Unit(m.Metric))
			}
			fmt.Fprintln(w)
		}
	}

	title.Fprintf(w, "%s\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
