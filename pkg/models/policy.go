package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy is one cleaned insurance policy record. Optional values are nil
// pointers or invalid NullDecimals when the source cell was empty.
type Policy struct {
	Row               int                 `json:"row" yaml:"row"`
	PolicyNumber      string              `json:"policy_number" yaml:"policy_number"`
	ProductName       string              `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	SaleDate          *time.Time          `json:"sale_date,omitempty" yaml:"sale_date,omitempty"`
	CancelDate        *time.Time          `json:"cancel_date,omitempty" yaml:"cancel_date,omitempty"`
	StartDate         *time.Time          `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	Premium           decimal.NullDecimal `json:"premium" yaml:"-"`
	IPTPercent        decimal.NullDecimal `json:"ipt_percent" yaml:"-"`
	CommissionPercent decimal.NullDecimal `json:"commission_percent" yaml:"-"`
	SumInsured        decimal.NullDecimal `json:"sum_insured" yaml:"-"`
	FirstName         string              `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName          string              `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Extra             map[string]any      `json:"extra,omitempty" yaml:"extra,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// IPT is the insurance premium tax carried by the premium. It is only
// valid when both the premium and the tax percentage are present.
func (p Policy) IPT() decimal.NullDecimal {
	if !p.Premium.Valid || !p.IPTPercent.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(p.IPTPercent.Decimal.Div(hundred).Mul(p.Premium.Decimal))
}

// Commission is the SERL commission on the premium net of tax. A missing
// tax value counts as zero; a missing premium or commission rate does not.
func (p Policy) Commission() decimal.NullDecimal {
	if !p.Premium.Valid || !p.CommissionPercent.Valid {
		return decimal.NullDecimal{}
	}
	ipt := decimal.Zero
	if v := p.IPT(); v.Valid {
		ipt = v.Decimal
	}
	net := p.Premium.Decimal.Sub(ipt)
	return decimal.NewNullDecimal(net.Mul(p.CommissionPercent.Decimal.Div(hundred)))
}
