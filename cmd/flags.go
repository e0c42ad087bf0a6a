package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"policymetrics/internal/charts"
	"policymetrics/internal/report"
)

var (
	_ pflag.Value = (*chartFormatValue)(nil)
	_ pflag.Value = (*exportFormatsValue)(nil)
)

// chartFormatValue is a pflag.Value accepting png, svg or pdf
type chartFormatValue struct {
	format charts.Format
}

func newChartFormatValue(def charts.Format) *chartFormatValue {
	return &chartFormatValue{format: def}
}

func (f *chartFormatValue) String() string {
	return string(f.format)
}

func (f *chartFormatValue) Set(s string) error {
	parsed, err := charts.ParseFormat(s)
	if err != nil {
		return fmt.Errorf("must be one of png, svg or pdf")
	}
	f.format = parsed
	return nil
}

func (f *chartFormatValue) Type() string {
	return "format"
}

// exportFormatsValue is a comma separated list of report formats. Repeated
// flags accumulate.
type exportFormatsValue struct {
	formats []report.Format
	changed bool
}

func (f *exportFormatsValue) String() string {
	names := make([]string, len(f.formats))
	for i, format := range f.formats {
		names[i] = string(format)
	}
	return "[" + strings.Join(names, ",") + "]"
}

func (f *exportFormatsValue) Set(s string) error {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	parsed, err := report.ParseFormats(names)
	if err != nil {
		return fmt.Errorf("must be a list of json, yaml, csv, markdown or xlsx")
	}
	if !f.changed {
		f.formats = nil
		f.changed = true
	}
	for _, p := range parsed {
		if !containsFormat(f.formats, p) {
			f.formats = append(f.formats, p)
		}
	}
	return nil
}

// Type reports stringSlice so bound viper keys decode the value as a list
func (f *exportFormatsValue) Type() string {
	return "stringSlice"
}

func containsFormat(formats []report.Format, f report.Format) bool {
	for _, existing := range formats {
		if existing == f {
			return true
		}
	}
	return false
}
