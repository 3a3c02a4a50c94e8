package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"training-analyzer/parser"
)

// MetricUnit maps a metric-name substring to the unit shown next to its average.
type MetricUnit struct {
	Metric string `yaml:"metric" validate:"required"`
	Unit   string `yaml:"unit"`
}

// Table is the static analysis table: which column names a session, which
// columns are never averaged, and how averages are displayed.
type Table struct {
	Collection         string         `yaml:"collection" validate:"required,collection"`
	SessionColumnNames []string       `yaml:"session_column_names" validate:"required,min=1,dive,required"`
	SessionColumnHints []string       `yaml:"session_column_hints" validate:"dive,required"`
	ExcludeColumns     []string       `yaml:"exclude_columns"`
	DecimalMetrics     []string       `yaml:"decimal_metrics" validate:"dive,required"`
	MetricUnits        []MetricUnit   `yaml:"metric_units" validate:"dive"`
	MaxLoadRecords     int            `yaml:"max_load_records" validate:"min=1"`
	NoticeDismiss      time.Duration  `yaml:"notice_dismiss" validate:"gte=0"`
	Parse              parser.Options `yaml:"parse"`
}

// DefaultTable returns the built-in analysis table.
func DefaultTable() *Table {
	return &Table{
		Collection:         "training_data_reports",
		SessionColumnNames: []string{"세션이름", "Session Name", "Session"},
		SessionColumnHints: []string{"세션", "session"},
		ExcludeColumns:     []string{"Timestamp", "Session", "Session Name", "세션이름"},
		DecimalMetrics:     []string{"Pace", "Distance", "Altitude"},
		MetricUnits: []MetricUnit{
			{Metric: "Pace", Unit: "min/km"},
			{Metric: "Distance", Unit: "km"},
			{Metric: "Altitude", Unit: "m"},
			{Metric: "Heart Rate", Unit: "bpm"},
			{Metric: "Speed", Unit: "km/h"},
		},
		MaxLoadRecords: 20,
		NoticeDismiss:  5 * time.Second,
		Parse:          parser.DefaultOptions(),
	}
}

// LoadTable returns DefaultTable overlaid with the YAML file at path.
// An empty path yields the defaults. Lists in the file replace the defaults.
func LoadTable(path string) (*Table, error) {
	t := DefaultTable()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read analysis table %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("config: parse analysis table %q: %w", path, err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the table's constraints.
func (t *Table) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("collection", validCollection); err != nil {
		return err
	}
	if err := v.Struct(t); err != nil {
		return fmt.Errorf("config: invalid analysis table: %w", err)
	}
	return nil
}

// validCollection accepts names usable as a bare SQL table name.
func validCollection(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > 63 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
