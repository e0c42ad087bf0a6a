// Package policy turns a cleaned dataset table into typed policy records.
package policy

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"policymetrics/internal/dataset"
	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

// DefaultColumns are the column names used by policy exports
func DefaultColumns() models.Columns {
	return models.Columns{
		PolicyNumber:      "policy_number",
		ProductName:       "product_name",
		SaleDate:          "sale_date",
		CancelDate:        "cancel_date",
		StartDate:         "start_date",
		Premium:           "premium",
		IPTPercent:        "ipt_percent",
		CommissionPercent: "commission_SERL_percent",
		SumInsured:        "sum_insured",
		FirstName:         "first_name",
		LastName:          "last_name",
	}
}

// Options control record extraction
type Options struct {
	Columns models.Columns
	// Coerce turns unparseable numbers and dates into missing values
	Coerce   bool
	Location *time.Location
}

// Stats describes what Extract saw
type Stats struct {
	Records int
	// Coerced counts cells that were dropped because Coerce was set
	Coerced int
	// Duplicates lists policy numbers that occur more than once
	Duplicates []string
	// MissingColumns lists configured columns absent from the table
	MissingColumns []string
}

// Extract builds one Policy per table row
func Extract(t *dataset.Table, opts Options) ([]models.Policy, Stats, error) {
	cols := opts.Columns
	stats := Stats{Records: t.Len()}

	known := map[string]bool{}
	for _, name := range []string{
		cols.PolicyNumber, cols.ProductName, cols.SaleDate, cols.CancelDate, cols.StartDate,
		cols.Premium, cols.IPTPercent, cols.CommissionPercent, cols.SumInsured,
		cols.FirstName, cols.LastName,
	} {
		if name == "" {
			continue
		}
		known[name] = true
		if !t.Has(name) {
			stats.MissingColumns = append(stats.MissingColumns, name)
		}
	}

	x := extractor{table: t, opts: opts, stats: &stats}
	policies := make([]models.Policy, 0, t.Len())
	seen := make(map[string]int)

	for row := 0; row < t.Len(); row++ {
		p := models.Policy{
			Row:          row,
			PolicyNumber: x.text(cols.PolicyNumber, row),
			ProductName:  x.text(cols.ProductName, row),
			FirstName:    x.text(cols.FirstName, row),
			LastName:     x.text(cols.LastName, row),
		}

		var err error
		if p.SaleDate, err = x.date(cols.SaleDate, row); err != nil {
			return nil, stats, err
		}
		if p.CancelDate, err = x.date(cols.CancelDate, row); err != nil {
			return nil, stats, err
		}
		if p.StartDate, err = x.date(cols.StartDate, row); err != nil {
			return nil, stats, err
		}
		if p.Premium, err = x.number(cols.Premium, row); err != nil {
			return nil, stats, err
		}
		if p.IPTPercent, err = x.number(cols.IPTPercent, row); err != nil {
			return nil, stats, err
		}
		if p.CommissionPercent, err = x.number(cols.CommissionPercent, row); err != nil {
			return nil, stats, err
		}
		if p.SumInsured, err = x.number(cols.SumInsured, row); err != nil {
			return nil, stats, err
		}

		for _, name := range t.Columns() {
			if known[name] {
				continue
			}
			v := t.Cell(name, row)
			if v.IsNull() {
				continue
			}
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[name] = v.Interface()
		}

		if p.PolicyNumber != "" {
			seen[p.PolicyNumber]++
			if seen[p.PolicyNumber] == 2 {
				stats.Duplicates = append(stats.Duplicates, p.PolicyNumber)
			}
		}

		policies = append(policies, p)
	}

	return policies, stats, nil
}

type extractor struct {
	table *dataset.Table
	opts  Options
	stats *Stats
}

func (x extractor) text(column string, row int) string {
	if column == "" {
		return ""
	}
	v := x.table.Cell(column, row)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

func (x extractor) date(column string, row int) (*time.Time, error) {
	if column == "" {
		return nil, nil
	}
	v := x.table.Cell(column, row)
	ts, present, err := dataset.ParseDate(v, x.opts.Location)
	if err != nil {
		if x.opts.Coerce {
			x.stats.Coerced++
			return nil, nil
		}
		return nil, apperrors.CellError(apperrors.ErrCodeInvalidDate, column, row, v.Text(), err.Error())
	}
	if !present {
		return nil, nil
	}
	return &ts, nil
}

var nullNumberTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"null": true,
	"none": true,
}

func (x extractor) number(column string, row int) (decimal.NullDecimal, error) {
	if column == "" {
		return decimal.NullDecimal{}, nil
	}
	v := x.table.Cell(column, row)

	var raw string
	switch v.Kind {
	case dataset.KindNull:
		return decimal.NullDecimal{}, nil
	case dataset.KindNumber:
		raw = v.Str
	case dataset.KindString:
		raw = strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		if nullNumberTokens[strings.ToLower(raw)] {
			return decimal.NullDecimal{}, nil
		}
	default:
		return x.invalidNumber(column, row, v, "expected a number, got a "+v.Kind.String())
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return x.invalidNumber(column, row, v, "not a number")
	}
	return decimal.NewNullDecimal(d), nil
}

func (x extractor) invalidNumber(column string, row int, v dataset.Value, reason string) (decimal.NullDecimal, error) {
	if x.opts.Coerce {
		x.stats.Coerced++
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{}, apperrors.CellError(apperrors.ErrCodeInvalidNumber, column, row, v.Text(), reason)
}
