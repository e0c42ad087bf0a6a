// Package charts renders the monthly metric figures with gonum/plot.
package charts

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"policymetrics/internal/metrics"
	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

var (
	red  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	blue = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	gray = color.RGBA{R: 127, G: 127, B: 127, A: 255}
)

// Options control where and how figures are written
type Options struct {
	Dir    string
	Prefix string
	Format Format
	Width  vg.Length
	Height vg.Length
}

// OptionsFromConfig converts the charts config section into render options
func OptionsFromConfig(cfg models.Charts, dir string) (Options, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return Options{}, err
	}
	if cfg.WidthIn <= 0 || cfg.HeightIn <= 0 {
		return Options{}, apperrors.ValidationError("charts.size", fmt.Sprintf("%gx%g", cfg.WidthIn, cfg.HeightIn), "width and height must be positive")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "policy-metrics"
	}
	return Options{
		Dir:    dir,
		Prefix: prefix,
		Format: format,
		Width:  vg.Length(cfg.WidthIn) * vg.Inch,
		Height: vg.Length(cfg.HeightIn) * vg.Inch,
	}, nil
}

// Render writes both figures and returns the file paths in figure order
func Render(s *metrics.Summary, opts Options) ([]string, error) {
	figures := []drawFunc{Figure1(s), Figure2(s)}
	paths := make([]string, 0, len(figures))
	for i, fig := range figures {
		name := fmt.Sprintf("%s-%d.%s", opts.Prefix, i+1, opts.Format)
		path, err := writeFile(opts.Dir, name, opts.Format, opts.Width, opts.Height, fig)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Figure1 lays out sales, cancellations, sales growth and premiums in a 2x2 grid
func Figure1(s *metrics.Summary) drawFunc {
	return func(dc draw.Canvas) {
		rows := [][]*plot.Plot{
			{salesPanel(s), cancellationsPanel(s)},
			{growthPanel(s), premiumsPanel(s)},
		}
		drawGrid(rows, dc)
	}
}

// Figure2 shows IPT and commission on the top row and the per product
// commission lines across the bottom half
func Figure2(s *metrics.Summary) drawFunc {
	return func(dc draw.Canvas) {
		half := (dc.Max.Y - dc.Min.Y) / 2
		top := draw.Crop(dc, 0, 0, half, 0)
		bottom := draw.Crop(dc, 0, 0, 0, -half)

		drawGrid([][]*plot.Plot{{iptPanel(s), commissionPanel(s)}}, top)
		productPanel(s).Draw(padded(bottom))
	}
}

func drawGrid(rows [][]*plot.Plot, dc draw.Canvas) {
	tiles := draw.Tiles{
		Rows:      len(rows),
		Cols:      len(rows[0]),
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 3,
		PadBottom: vg.Millimeter * 3,
		PadLeft:   vg.Millimeter * 3,
		PadRight:  vg.Millimeter * 3,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		for j, p := range rows[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
}

func padded(dc draw.Canvas) draw.Canvas {
	pad := vg.Millimeter * 3
	return draw.Crop(dc, pad, -pad, pad, -pad)
}

func salesPanel(s *metrics.Summary) *plot.Plot {
	return barPanel("Monthly Policy Sales", "Number of Sold Policies", countMonths(s.Sales), countValues(s.Sales), blue)
}

func cancellationsPanel(s *metrics.Summary) *plot.Plot {
	return barPanel("Monthly Cancellations", "Number of Cancellations", countMonths(s.Cancellations), countValues(s.Cancellations), blue)
}

func premiumsPanel(s *metrics.Summary) *plot.Plot {
	return barPanel("Monthly Premiums Collected", "Total Monthly Premiums", amountMonths(s.Premiums), amountValues(s.Premiums), red)
}

func iptPanel(s *metrics.Summary) *plot.Plot {
	return barPanel("Monthly IPT Contribution", "Total IPT", amountMonths(s.IPT), amountValues(s.IPT), red)
}

func commissionPanel(s *metrics.Summary) *plot.Plot {
	return barPanel("Monthly SERL Commission", "Total SERL", amountMonths(s.Commission), amountValues(s.Commission), blue)
}

func growthPanel(s *metrics.Summary) *plot.Plot {
	p := newPanel("Monthly Sales Growth Rate", "Month", "Growth Rate")

	months := make([]metrics.Month, len(s.SalesGrowth))
	var pts plotter.XYs
	limit := 0.0
	for i, g := range s.SalesGrowth {
		months[i] = g.Month
		if g.Rate == nil || math.IsNaN(*g.Rate) || math.IsInf(*g.Rate, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: *g.Rate})
		limit = math.Max(limit, math.Abs(*g.Rate))
	}

	if len(pts) > 0 {
		line, points, err := plotter.NewLinePoints(pts)
		if err == nil {
			line.Color = red
			line.Width = vg.Points(1.5)
			points.Color = red
			points.Shape = draw.CircleGlyph{}
			p.Add(line, points)
		}
	}

	if limit == 0 {
		limit = 1
	}
	p.Y.Min, p.Y.Max = -limit*1.1, limit*1.1

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = blue
	zero.Width = vg.Points(1)
	p.Add(zero)

	setMonthAxis(p, months)
	return p
}

func productPanel(s *metrics.Summary) *plot.Plot {
	p := newPanel("Top Monthly SERL Product", "Month/Year", "SERL Commission Totals")
	p.Legend.Top = true
	p.Legend.Left = true

	months := amountMonths(s.Commission)
	index := make(map[metrics.Month]int, len(months))
	for i, m := range months {
		index[m] = i
	}

	for i, product := range s.Products() {
		var pts plotter.XYs
		for _, a := range s.ProductSeries(product) {
			x, ok := index[a.Month]
			if !ok {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(x), Y: a.Value.InexactFloat64()})
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			continue
		}
		c := plotutil.Color(i)
		line.Color = c
		line.Width = vg.Points(1.5)
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(product, line, points)
	}

	setMonthAxis(p, months)
	return p
}

func barPanel(title, yLabel string, months []metrics.Month, values plotter.Values, c color.Color) *plot.Plot {
	p := newPanel(title, "Month", yLabel)
	if len(values) > 0 {
		bars, err := plotter.NewBarChart(values, vg.Points(14))
		if err == nil {
			bars.Color = c
			bars.LineStyle.Width = vg.Length(0)
			p.Add(bars)
		}
	}
	setMonthAxis(p, months)
	return p
}

func newPanel(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func setMonthAxis(p *plot.Plot, months []metrics.Month) {
	if len(months) == 0 {
		return
	}
	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = monthLabel(m)
	}
	p.NominalX(labels...)
	p.X.Min = math.Min(p.X.Min, -0.5)
	p.X.Max = math.Max(p.X.Max, float64(len(months))-0.5)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Color = gray
}

func monthLabel(m metrics.Month) string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

func countMonths(series []metrics.Count) []metrics.Month {
	out := make([]metrics.Month, len(series))
	for i, c := range series {
		out[i] = c.Month
	}
	return out
}

func countValues(series []metrics.Count) plotter.Values {
	out := make(plotter.Values, len(series))
	for i, c := range series {
		out[i] = float64(c.Value)
	}
	return out
}

func amountMonths(series []metrics.Amount) []metrics.Month {
	out := make([]metrics.Month, len(series))
	for i, a := range series {
		out[i] = a.Month
	}
	return out
}

func amountValues(series []metrics.Amount) plotter.Values {
	out := make(plotter.Values, len(series))
	for i, a := range series {
		out[i] = a.Value.InexactFloat64()
	}
	return out
}
