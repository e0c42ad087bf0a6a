// Package report prints metric tables and exports them to files.
package report

import (
	"github.com/shopspring/decimal"

	"policymetrics/internal/metrics"
)

// MonthRow joins every monthly metric for one month. Months missing from a
// series have a zero value there; Growth is nil when undefined.
type MonthRow struct {
	Month         metrics.Month   `json:"month" yaml:"month"`
	Sales         int             `json:"sales" yaml:"sales"`
	Cancellations int             `json:"cancellations" yaml:"cancellations"`
	Growth        *float64        `json:"sales_growth" yaml:"sales_growth"`
	Starts        int             `json:"starts" yaml:"starts"`
	Premiums      decimal.Decimal `json:"premiums" yaml:"premiums"`
	IPT           decimal.Decimal `json:"ipt" yaml:"ipt"`
	Commission    decimal.Decimal `json:"commission" yaml:"commission"`
	TopProduct    string          `json:"top_product" yaml:"top_product"`
}

// Rows flattens a summary into one row per month, ascending
func Rows(s *metrics.Summary) []MonthRow {
	months := s.Months()
	rows := make([]MonthRow, len(months))
	index := make(map[metrics.Month]*MonthRow, len(months))
	for i, m := range months {
		rows[i].Month = m
		index[m] = &rows[i]
	}

	for _, c := range s.Sales {
		index[c.Month].Sales = c.Value
	}
	for _, c := range s.Cancellations {
		index[c.Month].Cancellations = c.Value
	}
	for _, g := range s.SalesGrowth {
		index[g.Month].Growth = g.Rate
	}
	for _, st := range s.Starts {
		index[st.Month].Starts = st.Count
	}
	for _, a := range s.Premiums {
		index[a.Month].Premiums = a.Value
	}
	for _, a := range s.IPT {
		index[a.Month].IPT = a.Value
	}
	for _, a := range s.Commission {
		index[a.Month].Commission = a.Value
	}
	for _, pa := range s.TopProducts {
		index[pa.Month].TopProduct = pa.Product
	}
	return rows
}
