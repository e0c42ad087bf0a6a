package charts

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"policymetrics/internal/common"
	apperrors "policymetrics/pkg/errors"
)

// Format is an output image format
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// Formats lists the supported output formats
var Formats = []Format{FormatPNG, FormatSVG, FormatPDF}

// ParseFormat validates a format name, case insensitively
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", apperrors.New(apperrors.ErrCodeInvalidInput, fmt.Sprintf("unsupported chart format %q", name)).
		WithSuggestions("Use one of: png, svg, pdf")
}

// figureCanvas is a vector or raster surface that can serialize itself
type figureCanvas interface {
	vg.CanvasSizer
	io.WriterTo
}

func newCanvas(format Format, w, h vg.Length) (figureCanvas, error) {
	switch format {
	case FormatPNG:
		return vgimg.PngCanvas{Canvas: vgimg.New(w, h)}, nil
	case FormatSVG:
		return vgsvg.New(w, h), nil
	case FormatPDF:
		return vgpdf.New(w, h), nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, fmt.Sprintf("unsupported chart format %q", format))
	}
}

// drawFunc paints a figure onto the full canvas
type drawFunc func(dc draw.Canvas)

// Write draws a figure in the given format to w
func Write(w io.Writer, format Format, width, height vg.Length, paint drawFunc) error {
	c, err := newCanvas(format, width, height)
	if err != nil {
		return err
	}
	paint(draw.New(c))
	if _, err := c.WriteTo(w); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeChartRender, "failed to encode chart").
			WithContext("format", string(format))
	}
	return nil
}

// writeFile draws a figure into dir/name, replacing any existing file
func writeFile(dir, name string, format Format, width, height vg.Length, paint drawFunc) (string, error) {
	path, err := common.OutputPath(dir, name)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "invalid chart output path").
			WithContext("dir", dir)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, common.FilePermissionNormal)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFilePermission, "failed to create chart file").
			WithContext("path", path)
	}

	if err := Write(f, format, width, height, paint); err != nil {
		f.Close()
		return "", apperrors.Wrap(err, apperrors.ErrCodeChartRender, "failed to write chart").
			WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "failed to close chart file").
			WithContext("path", path)
	}
	return path, nil
}
