package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"norm-check/internal/model"
)

// Formats lists the names New accepts.
var Formats = []string{"console", "json", "yaml"}

// New returns the reporter for format writing to out.
func New(format string, out io.Writer) (model.Reporter, error) {
	switch format {
	case "", "console":
		return NewConsoleReporter(out), nil
	case "json":
		return &JSONReporter{out: out}, nil
	case "yaml", "yml":
		return &YAMLReporter{out: out}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// JSONReporter writes the reports as one indented JSON array
type JSONReporter struct {
	out io.Writer
}

func (r *JSONReporter) Report(reports []model.FileReport) error {
	if reports == nil {
		reports = make([]model.FileReport, 0)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// YAMLReporter writes the reports as a YAML sequence
type YAMLReporter struct {
	out io.Writer
}

func (r *YAMLReporter) Report(reports []model.FileReport) error {
	if reports == nil {
		reports = make([]model.FileReport, 0)
	}
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}
