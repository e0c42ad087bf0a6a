package dataset

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	apperrors "policymetrics/pkg/errors"
)

// DefaultDateColumns are converted to timestamps before aggregation
func DefaultDateColumns() []string {
	return []string{"sale_date", "cancel_date", "start_date"}
}

// DateOptions control date coercion
type DateOptions struct {
	// Coerce turns unparseable cells into nulls instead of failing
	Coerce bool
	// Location is used for strings without a zone. Defaults to UTC.
	Location *time.Location
}

// DateResult summarises the conversion of one column
type DateResult struct {
	Column    string
	Converted int
	Nulls     int
	Coerced   int
	Skipped   bool
}

// ConvertDates replaces the cells of column with timestamps. Nulls stay
// null. A missing column is reported as skipped.
func ConvertDates(t *Table, column string, opts DateOptions) (DateResult, error) {
	result := DateResult{Column: column}

	col, ok := t.Column(column)
	if !ok {
		result.Skipped = true
		return result, nil
	}

	converted := make([]Value, len(col))
	for row, v := range col {
		ts, present, err := ParseDate(v, opts.Location)
		switch {
		case err != nil && opts.Coerce:
			result.Coerced++
			converted[row] = Null()
		case err != nil:
			return result, apperrors.CellError(apperrors.ErrCodeInvalidDate, column, row, v.Text(), err.Error())
		case !present:
			result.Nulls++
			converted[row] = Null()
		default:
			result.Converted++
			converted[row] = Time(ts)
		}
	}

	if err := t.SetColumn(column, converted); err != nil {
		return result, err
	}
	return result, nil
}

var nullDateTokens = map[string]bool{
	"":     true,
	"nat":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// ParseDate interprets a cell as a timestamp. present is false for empty
// cells. Numbers are Unix epochs whose unit (s, ms, us or ns) is inferred
// from their magnitude; strings go through dateparse, which reads ambiguous
// numeric dates month first.
func ParseDate(v Value, loc *time.Location) (ts time.Time, present bool, err error) {
	if loc == nil {
		loc = time.UTC
	}

	switch v.Kind {
	case KindNull:
		return time.Time{}, false, nil
	case KindTime:
		return v.Time, true, nil
	case KindNumber:
		if math.IsNaN(v.Num) {
			return time.Time{}, false, nil
		}
		ts, err := epoch(v.Num)
		if err != nil {
			return time.Time{}, false, err
		}
		return ts.In(loc), true, nil
	case KindString:
		s := strings.TrimSpace(v.Str)
		if nullDateTokens[strings.ToLower(s)] {
			return time.Time{}, false, nil
		}
		parsed, perr := dateparse.ParseIn(s, loc)
		if perr != nil {
			return time.Time{}, false, fmt.Errorf("unrecognised date %q", s)
		}
		return parsed, true, nil
	default:
		return time.Time{}, false, fmt.Errorf("cannot convert a %s to a date", v.Kind)
	}
}

// maxEpoch is the first float64 that no longer fits in an int64
const maxEpoch = float64(math.MaxInt64)

func epoch(n float64) (time.Time, error) {
	abs := math.Abs(n)
	switch {
	case math.IsInf(n, 0) || abs >= maxEpoch:
		return time.Time{}, fmt.Errorf("epoch %g is out of range", n)
	case abs < 1e11:
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	case abs < 1e14:
		return time.UnixMilli(int64(n)).UTC(), nil
	case abs < 1e17:
		return time.UnixMicro(int64(n)).UTC(), nil
	default:
		return time.Unix(0, int64(n)).UTC(), nil
	}
}
