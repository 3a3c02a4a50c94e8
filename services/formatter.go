package services

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"training-analyzer/config"
)

// Formatter renders averages for display. It never changes stored values.
type Formatter struct {
	decimal []string
	units   []config.MetricUnit
	printer *message.Printer
}

// NewFormatter builds a Formatter from the analysis table.
func NewFormatter(table *config.Table) *Formatter {
	return &Formatter{
		decimal: table.DecimalMetrics,
		units:   table.MetricUnits,
		printer: message.NewPrinter(language.English),
	}
}

// IsDecimal reports whether metric is shown with one decimal place.
func (f *Formatter) IsDecimal(metric string) bool {
	for _, d := range f.decimal {
		if strings.Contains(metric, d) {
			return true
		}
	}
	return false
}

// Value formats an average: one decimal place for decimal metrics, otherwise
// rounded half up to an integer with thousands separators.
func (f *Formatter) Value(metric string, v float64) string {
	if f.IsDecimal(metric) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return f.printer.Sprintf("%d", int64(math.Floor(v+0.5)))
}

// Unit returns the unit of the first table entry whose metric is a
// substring of metric, or "".
func (f *Formatter) Unit(metric string) string {
	for _, u := range f.units {
		if strings.Contains(metric, u.Metric) {
			return u.Unit
		}
	}
	return ""
}
