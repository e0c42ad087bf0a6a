// Package metrics computes the monthly policy figures.
//
// Every series is ordered by month and only holds months that occur in the
// data; gaps are not filled. Sales and cancellations are keyed by their own
// dates, everything else by the policy start month.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"policymetrics/pkg/models"
)

// Count is an integer value for one month
type Count struct {
	Month Month `json:"month" yaml:"month"`
	Value int   `json:"value" yaml:"value"`
}

// Amount is a monetary value for one month
type Amount struct {
	Month Month           `json:"month" yaml:"month"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// Growth is the fractional change of monthly sales against the previous
// month present in the data. The first month has no previous value.
type Growth struct {
	Month Month    `json:"month" yaml:"month"`
	Rate  *float64 `json:"rate" yaml:"rate"`
}

// Starts lists the policies starting in a month
type Starts struct {
	Month         Month    `json:"month" yaml:"month"`
	Count         int      `json:"count" yaml:"count"`
	PolicyNumbers []string `json:"policy_numbers" yaml:"policy_numbers"`
}

// ProductAmount is the commission earned by one product in one month
type ProductAmount struct {
	Month   Month           `json:"month" yaml:"month"`
	Product string          `json:"product" yaml:"product"`
	Value   decimal.Decimal `json:"value" yaml:"value"`
}

// Summary holds the eight monthly metrics
type Summary struct {
	Records           int             `json:"records" yaml:"records"`
	Sales             []Count         `json:"sales" yaml:"sales"`
	Cancellations     []Count         `json:"cancellations" yaml:"cancellations"`
	Starts            []Starts        `json:"starts" yaml:"starts"`
	SalesGrowth       []Growth        `json:"sales_growth" yaml:"sales_growth"`
	Premiums          []Amount        `json:"premiums" yaml:"premiums"`
	IPT               []Amount        `json:"ipt" yaml:"ipt"`
	Commission        []Amount        `json:"commission" yaml:"commission"`
	ProductCommission []ProductAmount `json:"product_commission" yaml:"product_commission"`
	TopProducts       []ProductAmount `json:"top_products" yaml:"top_products"`
}

// Months returns every month that appears in any series, ascending
func (s *Summary) Months() []Month {
	set := map[Month]bool{}
	for _, c := range s.Sales {
		set[c.Month] = true
	}
	for _, c := range s.Cancellations {
		set[c.Month] = true
	}
	for _, st := range s.Starts {
		set[st.Month] = true
	}
	return sortedMonths(set)
}

// Products returns the product names in ProductCommission, ascending
func (s *Summary) Products() []string {
	set := map[string]bool{}
	for _, pa := range s.ProductCommission {
		set[pa.Product] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProductSeries returns the commission of one product for each month it has
func (s *Summary) ProductSeries(product string) []Amount {
	var out []Amount
	for _, pa := range s.ProductCommission {
		if pa.Product == product {
			out = append(out, Amount{Month: pa.Month, Value: pa.Value})
		}
	}
	return out
}

func sortedMonths(set map[Month]bool) []Month {
	months := make([]Month, 0, len(set))
	for m := range set {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// Compute aggregates policies into the monthly metrics
func Compute(policies []models.Policy) *Summary {
	sales := map[Month]int{}
	cancels := map[Month]int{}
	starts := map[Month]*Starts{}
	premiums := map[Month]decimal.Decimal{}
	ipt := map[Month]decimal.Decimal{}
	commission := map[Month]decimal.Decimal{}
	type productKey struct {
		month   Month
		product string
	}
	byProduct := map[productKey]decimal.Decimal{}

	for _, p := range policies {
		if p.SaleDate != nil {
			sales[MonthOf(*p.SaleDate)]++
		}
		if p.CancelDate != nil {
			cancels[MonthOf(*p.CancelDate)]++
		}
		if p.StartDate == nil {
			continue
		}

		m := MonthOf(*p.StartDate)
		st, ok := starts[m]
		if !ok {
			st = &Starts{Month: m, PolicyNumbers: []string{}}
			starts[m] = st
		}
		if p.PolicyNumber != "" {
			st.Count++
			st.PolicyNumbers = append(st.PolicyNumbers, p.PolicyNumber)
		}

		premiums[m] = premiums[m].Add(valueOrZero(p.Premium))
		ipt[m] = ipt[m].Add(valueOrZero(p.IPT()))
		c := valueOrZero(p.Commission())
		commission[m] = commission[m].Add(c)

		if p.ProductName != "" {
			k := productKey{month: m, product: p.ProductName}
			byProduct[k] = byProduct[k].Add(c)
		}
	}

	s := &Summary{Records: len(policies)}

	s.Sales = countSeries(sales)
	s.Cancellations = countSeries(cancels)
	s.SalesGrowth = growthSeries(s.Sales)

	startMonths := make(map[Month]bool, len(starts))
	for m := range starts {
		startMonths[m] = true
	}
	for _, m := range sortedMonths(startMonths) {
		s.Starts = append(s.Starts, *starts[m])
		s.Premiums = append(s.Premiums, Amount{Month: m, Value: premiums[m]})
		s.IPT = append(s.IPT, Amount{Month: m, Value: ipt[m]})
		s.Commission = append(s.Commission, Amount{Month: m, Value: commission[m]})
	}

	for k, v := range byProduct {
		s.ProductCommission = append(s.ProductCommission, ProductAmount{Month: k.month, Product: k.product, Value: v})
	}
	sort.Slice(s.ProductCommission, func(i, j int) bool {
		a, b := s.ProductCommission[i], s.ProductCommission[j]
		if a.Month != b.Month {
			return a.Month.Before(b.Month)
		}
		return a.Product < b.Product
	})
	s.TopProducts = topProducts(s.ProductCommission)

	return s
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func countSeries(counts map[Month]int) []Count {
	set := make(map[Month]bool, len(counts))
	for m := range counts {
		set[m] = true
	}
	out := make([]Count, 0, len(counts))
	for _, m := range sortedMonths(set) {
		out = append(out, Count{Month: m, Value: counts[m]})
	}
	return out
}

func growthSeries(sales []Count) []Growth {
	out := make([]Growth, 0, len(sales))
	for i, c := range sales {
		g := Growth{Month: c.Month}
		if i > 0 && sales[i-1].Value != 0 {
			prev := float64(sales[i-1].Value)
			rate := (float64(c.Value) - prev) / prev
			g.Rate = &rate
		}
		out = append(out, g)
	}
	return out
}

// topProducts expects amounts sorted by month then product, so the first
// product reaching the maximum wins ties.
func topProducts(amounts []ProductAmount) []ProductAmount {
	var out []ProductAmount
	for _, pa := range amounts {
		n := len(out)
		if n == 0 || out[n-1].Month != pa.Month {
			out = append(out, pa)
			continue
		}
		if pa.Value.GreaterThan(out[n-1].Value) {
			out[n-1] = pa
		}
	}
	return out
}
