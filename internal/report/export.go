package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"policymetrics/internal/common"
	"policymetrics/internal/metrics"
	apperrors "policymetrics/pkg/errors"
)

// Format is a report export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
)

// Formats lists the supported export formats
var Formats = []Format{FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatXLSX}

// Extension returns the file extension used for the format
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatYAML:
		return "yaml"
	default:
		return string(f)
	}
}

// ParseFormat validates an export format name. "md" and "yml" are accepted
// as aliases.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case FormatJSON, FormatYAML, FormatCSV, FormatMarkdown, FormatXLSX:
		return f, nil
	}
	return "", apperrors.New(apperrors.ErrCodeInvalidInput, fmt.Sprintf("unsupported export format %q", name)).
		WithSuggestions("Use one of: json, yaml, csv, markdown, xlsx")
}

// ParseFormats validates a list of names, dropping duplicates
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool, len(names))
	var out []Format
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Document is the serialized form of a summary
type Document struct {
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	Source      string           `json:"source,omitempty" yaml:"source,omitempty"`
	Months      []MonthRow       `json:"months" yaml:"months"`
	Summary     *metrics.Summary `json:"summary" yaml:"summary"`
}

// Exporter writes summaries to report files
type Exporter struct {
	Dir      string
	Basename string
	Source   string
	now      func() time.Time
}

// NewExporter creates an exporter writing dir/basename.<ext> files. An
// extension already on basename is replaced.
func NewExporter(dir, basename, source string) *Exporter {
	if basename == "" {
		basename = "policy-metrics"
	}
	return &Exporter{Dir: dir, Basename: basename, Source: source, now: time.Now}
}

// Export writes the summary once per format and returns the written paths
func (e *Exporter) Export(s *metrics.Summary, formats []Format) ([]string, error) {
	doc := Document{
		GeneratedAt: e.now().UTC().Truncate(time.Second),
		Source:      e.Source,
		Months:      Rows(s),
		Summary:     s,
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path, err := common.OutputPath(e.Dir, common.ReplaceExt(e.Basename, f.Extension()))
		if err != nil {
			return paths, apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "invalid report output path").
				WithContext("dir", e.Dir)
		}
		if err := writeReport(path, f, doc); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeReport(path string, f Format, doc Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f, doc); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeReportExport, "failed to encode report").
			WithContext("format", string(f))
	}
	if err := os.WriteFile(path, buf.Bytes(), common.FilePermissionNormal); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFilePermission, "failed to write report").
			WithContext("path", path)
	}
	return nil
}

// Encode serializes doc in the given format
func Encode(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return encodeCSV(w, doc.Months)
	case FormatMarkdown:
		return encodeMarkdown(w, doc)
	case FormatXLSX:
		return encodeXLSX(w, doc)
	default:
		return fmt.Errorf("unsupported export format: %s", f)
	}
}

var monthHeader = []string{"month", "sales", "cancellations", "sales_growth", "starts", "premiums", "ipt", "commission", "top_product"}

func rateText(rate *float64) string {
	if rate == nil {
		return ""
	}
	return strconv.FormatFloat(*rate, 'f', -1, 64)
}

func encodeCSV(w io.Writer, rows []MonthRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(monthHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Month.String(),
			strconv.Itoa(r.Sales),
			strconv.Itoa(r.Cancellations),
			rateText(r.Growth),
			strconv.Itoa(r.Starts),
			r.Premiums.String(),
			r.IPT.String(),
			r.Commission.String(),
			r.TopProduct,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func encodeMarkdown(w io.Writer, doc Document) error {
	var buf bytes.Buffer

	buf.WriteString("# Policy Metrics Report\n\n")
	buf.WriteString(fmt.Sprintf("**Generated:** %s  \n", doc.GeneratedAt.Format(time.RFC3339)))
	if doc.Source != "" {
		buf.WriteString(fmt.Sprintf("**Source:** %s  \n", doc.Source))
	}
	buf.WriteString(fmt.Sprintf("**Records:** %d\n\n", doc.Summary.Records))

	buf.WriteString("## Monthly Metrics\n\n")
	buf.WriteString("| Month | Sales | Cancellations | Sales Growth | Starts | Premiums | IPT | SERL Commission | Top Product |\n")
	buf.WriteString("|-------|------:|--------------:|-------------:|-------:|---------:|----:|----------------:|-------------|\n")
	for _, r := range doc.Months {
		growth := "-"
		if r.Growth != nil {
			growth = fmt.Sprintf("%+.1f%%", *r.Growth*100)
		}
		buf.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %d | %s | %s | %s | %s |\n",
			r.Month, r.Sales, r.Cancellations, growth, r.Starts,
			r.Premiums.StringFixed(2), r.IPT.StringFixed(2), r.Commission.StringFixed(2), r.TopProduct))
	}
	buf.WriteString("\n")

	if len(doc.Summary.ProductCommission) > 0 {
		buf.WriteString("## SERL Commission by Product\n\n")
		buf.WriteString("| Month | Product | SERL Commission |\n")
		buf.WriteString("|-------|---------|----------------:|\n")
		for _, pa := range doc.Summary.ProductCommission {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", pa.Month, pa.Product, pa.Value.StringFixed(2)))
		}
		buf.WriteString("\n")
	}

	if len(doc.Summary.Starts) > 0 {
		buf.WriteString("## Policy Starts\n\n")
		for _, st := range doc.Summary.Starts {
			buf.WriteString(fmt.Sprintf("- **%s** (%d): %s\n", st.Month, st.Count, strings.Join(st.PolicyNumbers, ", ")))
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

const (
	sheetMonthly  = "Monthly"
	sheetProducts = "Products"
	sheetStarts   = "Starts"
)

func encodeXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetMonthly); err != nil {
		return err
	}
	if err := writeSheetHeader(f, sheetMonthly, monthHeader); err != nil {
		return err
	}
	for i, r := range doc.Months {
		row := []interface{}{
			r.Month.String(), r.Sales, r.Cancellations, nil, r.Starts,
			r.Premiums.InexactFloat64(), r.IPT.InexactFloat64(), r.Commission.InexactFloat64(), r.TopProduct,
		}
		if r.Growth != nil {
			row[3] = *r.Growth
		}
		if err := setRow(f, sheetMonthly, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetProducts); err != nil {
		return err
	}
	if err := writeSheetHeader(f, sheetProducts, []string{"month", "product", "commission", "top"}); err != nil {
		return err
	}
	top := make(map[metrics.Month]string, len(doc.Summary.TopProducts))
	for _, pa := range doc.Summary.TopProducts {
		top[pa.Month] = pa.Product
	}
	for i, pa := range doc.Summary.ProductCommission {
		row := []interface{}{pa.Month.String(), pa.Product, pa.Value.InexactFloat64(), top[pa.Month] == pa.Product}
		if err := setRow(f, sheetProducts, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetStarts); err != nil {
		return err
	}
	if err := writeSheetHeader(f, sheetStarts, []string{"month", "count", "policy_numbers"}); err != nil {
		return err
	}
	for i, st := range doc.Summary.Starts {
		row := []interface{}{st.Month.String(), st.Count, strings.Join(st.PolicyNumbers, ", ")}
		if err := setRow(f, sheetStarts, i+2, row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSheetHeader(f *excelize.File, sheet string, header []string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
		col := strings.TrimRight(cell, "0123456789")
		if err := f.SetColWidth(sheet, col, col, 16); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
