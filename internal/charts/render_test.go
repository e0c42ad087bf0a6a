package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"policymetrics/internal/metrics"
	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

func sampleSummary() *metrics.Summary {
	at := func(s string) *time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return &t
	}
	num := func(s string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(s))
	}
	return metrics.Compute([]models.Policy{
		{PolicyNumber: "A", ProductName: "Home", SaleDate: at("2021-01-02"), StartDate: at("2021-01-05"),
			Premium: num("120"), IPTPercent: num("12"), CommissionPercent: num("20")},
		{PolicyNumber: "B", ProductName: "Pet", SaleDate: at("2021-02-02"), StartDate: at("2021-02-05"),
			CancelDate: at("2021-03-01"), Premium: num("60"), IPTPercent: num("12"), CommissionPercent: num("15")},
		{PolicyNumber: "C", ProductName: "Home", SaleDate: at("2021-02-09"), StartDate: at("2021-03-01"),
			Premium: num("90"), IPTPercent: num("12"), CommissionPercent: num("20")},
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" SVG ")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)

	_, err = ParseFormat("gif")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetErrorCode(err))
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(models.Charts{Format: "pdf", WidthIn: 10, HeightIn: 5}, "out")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, opts.Format)
	assert.Equal(t, "policy-metrics", opts.Prefix)
	assert.Equal(t, 10*vg.Inch, opts.Width)

	_, err = OptionsFromConfig(models.Charts{Format: "png", WidthIn: 0, HeightIn: 5}, "out")
	assert.Error(t, err)
}

func TestWriteFormats(t *testing.T) {
	s := sampleSummary()

	var png bytes.Buffer
	require.NoError(t, Write(&png, FormatPNG, 8*vg.Inch, 6*vg.Inch, Figure1(s)))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	var svg bytes.Buffer
	require.NoError(t, Write(&svg, FormatSVG, 8*vg.Inch, 6*vg.Inch, Figure2(s)))
	assert.Contains(t, svg.String(), "<svg")
	assert.Contains(t, svg.String(), "Top Monthly SERL Product")

	var pdf bytes.Buffer
	require.NoError(t, Write(&pdf, FormatPDF, 8*vg.Inch, 6*vg.Inch, Figure1(s)))
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))
}

func TestFigure1Titles(t *testing.T) {
	var svg bytes.Buffer
	require.NoError(t, Write(&svg, FormatSVG, 10*vg.Inch, 8*vg.Inch, Figure1(sampleSummary())))

	for _, title := range []string{
		"Monthly Policy Sales",
		"Monthly Cancellations",
		"Monthly Sales Growth Rate",
		"Monthly Premiums Collected",
	} {
		assert.Contains(t, svg.String(), title)
	}
}

func TestFigure2TitlesAndLegend(t *testing.T) {
	var svg bytes.Buffer
	require.NoError(t, Write(&svg, FormatSVG, 10*vg.Inch, 8*vg.Inch, Figure2(sampleSummary())))

	for _, text := range []string{
		"Monthly IPT Contribution",
		"Monthly SERL Commission",
		"Top Monthly SERL Product",
		"Month/Year",
		"SERL Commission Totals",
		// one legend entry per product
		"Home",
		"Pet",
	} {
		assert.Contains(t, svg.String(), text)
	}

	p := productPanel(sampleSummary())
	assert.True(t, p.Legend.Top)
	assert.True(t, p.Legend.Left)
}

func TestGrowthPanelAxisSymmetric(t *testing.T) {
	rate := func(f float64) *float64 { return &f }
	s := &metrics.Summary{SalesGrowth: []metrics.Growth{
		{Month: metrics.Month{Year: 2021, Month: time.January}},
		{Month: metrics.Month{Year: 2021, Month: time.February}, Rate: rate(0.5)},
		{Month: metrics.Month{Year: 2021, Month: time.April}, Rate: rate(-2)},
	}}

	p := growthPanel(s)
	assert.InDelta(t, -2.2, p.Y.Min, 1e-9)
	assert.InDelta(t, 2.2, p.Y.Max, 1e-9)
	assert.Equal(t, "Monthly Sales Growth Rate", p.Title.Text)

	// no rates yet still centres zero
	p = growthPanel(metrics.Compute(nil))
	assert.InDelta(t, -1.1, p.Y.Min, 1e-9)
	assert.InDelta(t, 1.1, p.Y.Max, 1e-9)
}

func TestRenderEmptySummary(t *testing.T) {
	dir := t.TempDir()
	opts := Options{Dir: dir, Prefix: "empty", Format: FormatSVG, Width: 6 * vg.Inch, Height: 4 * vg.Inch}

	paths, err := Render(metrics.Compute(nil), opts)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	}
}

func TestRenderWritesNamedFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	opts := Options{Dir: dir, Prefix: "q1", Format: FormatPNG, Width: 6 * vg.Inch, Height: 4 * vg.Inch}

	paths, err := Render(sampleSummary(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "q1-1.png"), filepath.Join(dir, "q1-2.png")}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
