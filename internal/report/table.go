package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"policymetrics/internal/metrics"
)

// Printer renders metric tables for a terminal
type Printer struct {
	out      io.Writer
	useColor bool
	numbers  *message.Printer
}

// NewPrinter creates a printer writing to out. Money and counts are grouped
// using British English conventions.
func NewPrinter(out io.Writer, useColor bool) *Printer {
	return &Printer{
		out:      out,
		useColor: useColor,
		numbers:  message.NewPrinter(language.BritishEnglish),
	}
}

// Money formats an amount with two decimals and thousands separators
func (p *Printer) Money(d decimal.Decimal) string {
	return p.numbers.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Count formats an integer with thousands separators
func (p *Printer) Count(n int) string {
	return p.numbers.Sprintf("%d", n)
}

// Growth formats a rate as a signed percentage, colored by direction
func (p *Printer) Growth(rate *float64) string {
	if rate == nil {
		return "-"
	}
	text := p.numbers.Sprintf("%+.1f%%", *rate*100)
	if !p.useColor {
		return text
	}
	switch {
	case *rate > 0:
		return color.GreenString(text)
	case *rate < 0:
		return color.RedString(text)
	default:
		return text
	}
}

// PrintSummary writes the monthly overview followed by the product tables
func (p *Printer) PrintSummary(s *metrics.Summary) {
	p.PrintMonthly(s)
	if len(s.ProductCommission) > 0 {
		fmt.Fprintln(p.out)
		p.PrintProducts(s)
	}
}

// PrintMonthly writes one row per month with every monthly metric
func (p *Printer) PrintMonthly(s *metrics.Summary) {
	rows := Rows(s)
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "No dated policies found.")
		return
	}

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Month", "Sales", "Cancellations", "Growth", "Starts", "Premiums", "IPT", "SERL", "Top Product"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	var sales, cancels, starts int
	var premiums, ipt, commission decimal.Decimal
	for _, r := range rows {
		table.Append([]string{
			r.Month.String(),
			p.Count(r.Sales),
			p.Count(r.Cancellations),
			p.Growth(r.Growth),
			p.Count(r.Starts),
			p.Money(r.Premiums),
			p.Money(r.IPT),
			p.Money(r.Commission),
			r.TopProduct,
		})
		sales += r.Sales
		cancels += r.Cancellations
		starts += r.Starts
		premiums = premiums.Add(r.Premiums)
		ipt = ipt.Add(r.IPT)
		commission = commission.Add(r.Commission)
	}

	table.SetFooter([]string{
		"Total", p.Count(sales), p.Count(cancels), "", p.Count(starts),
		p.Money(premiums), p.Money(ipt), p.Money(commission), "",
	})
	table.Render()
}

// PrintProducts writes the commission of each product per start month
func (p *Printer) PrintProducts(s *metrics.Summary) {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Month", "Product", "SERL"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	top := make(map[metrics.Month]string, len(s.TopProducts))
	for _, pa := range s.TopProducts {
		top[pa.Month] = pa.Product
	}

	for _, pa := range s.ProductCommission {
		product := pa.Product
		if top[pa.Month] == pa.Product {
			product += " *"
			if p.useColor {
				product = color.New(color.Bold).Sprint(product)
			}
		}
		table.Append([]string{pa.Month.String(), product, p.Money(pa.Value)})
	}
	table.Render()
	fmt.Fprintln(p.out, "* top product of the month")
}

// PrintStarts lists the policy numbers starting in each month
func (p *Printer) PrintStarts(s *metrics.Summary) {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Month", "Count", "Policies"})
	table.SetBorder(false)
	table.SetAutoWrapText(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, st := range s.Starts {
		table.Append([]string{st.Month.String(), p.Count(st.Count), strings.Join(st.PolicyNumbers, ", ")})
	}
	table.Render()
}
