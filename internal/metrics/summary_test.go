package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policymetrics/pkg/models"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func month(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func assertAmounts(t *testing.T, want map[string]string, got []Amount) {
	t.Helper()
	require.Len(t, got, len(want))
	for _, a := range got {
		expected, ok := want[a.Month.String()]
		require.True(t, ok, "unexpected month %s", a.Month)
		assert.True(t, decimal.RequireFromString(expected).Equal(a.Value),
			"%s: want %s got %s", a.Month, expected, a.Value)
	}
}

func samplePolicies() []models.Policy {
	return []models.Policy{
		{
			PolicyNumber: "P1", ProductName: "Home",
			SaleDate: day("2021-01-03"), StartDate: day("2021-01-10"),
			Premium: dec("100"), IPTPercent: dec("12"), CommissionPercent: dec("20"),
		},
		{
			PolicyNumber: "P2", ProductName: "Pet",
			SaleDate: day("2021-01-20"), StartDate: day("2021-02-01"), CancelDate: day("2021-03-02"),
			Premium: dec("50"), IPTPercent: dec("12"), CommissionPercent: dec("10"),
		},
		{
			PolicyNumber: "P3", ProductName: "Home",
			SaleDate: day("2021-02-11"), StartDate: day("2021-02-15"),
			Premium: dec("200"), CommissionPercent: dec("20"),
		},
		{
			PolicyNumber: "P4", ProductName: "Pet",
			SaleDate: day("2021-02-12"), StartDate: day("2021-02-20"), CancelDate: day("2021-03-05"),
			Premium: dec("80"), IPTPercent: dec("12"),
		},
		{
			PolicyNumber: "P5",
			SaleDate:     day("2021-04-01"), StartDate: day("2021-04-02"),
			IPTPercent: dec("12"), CommissionPercent: dec("20"),
		},
		{
			PolicyNumber: "P6", ProductName: "Car",
			SaleDate: day("2021-04-09"),
			Premium:  dec("999"),
		},
	}
}

func TestComputeCounts(t *testing.T) {
	s := Compute(samplePolicies())

	assert.Equal(t, 6, s.Records)
	assert.Equal(t, []Count{
		{Month: month("2021-01"), Value: 2},
		{Month: month("2021-02"), Value: 2},
		{Month: month("2021-04"), Value: 2},
	}, s.Sales)
	assert.Equal(t, []Count{{Month: month("2021-03"), Value: 2}}, s.Cancellations)

	require.Len(t, s.Starts, 3)
	assert.Equal(t, Starts{Month: month("2021-01"), Count: 1, PolicyNumbers: []string{"P1"}}, s.Starts[0])
	assert.Equal(t, Starts{Month: month("2021-02"), Count: 3, PolicyNumbers: []string{"P2", "P3", "P4"}}, s.Starts[1])
	assert.Equal(t, Starts{Month: month("2021-04"), Count: 1, PolicyNumbers: []string{"P5"}}, s.Starts[2])
}

func TestComputeSalesGrowth(t *testing.T) {
	policies := []models.Policy{
		{SaleDate: day("2021-01-01")},
		{SaleDate: day("2021-01-02")},
		{SaleDate: day("2021-02-01")},
		{SaleDate: day("2021-02-02")},
		{SaleDate: day("2021-02-03")},
		// March has no sales: April is compared with February
		{SaleDate: day("2021-04-01")},
	}

	s := Compute(policies)
	require.Len(t, s.SalesGrowth, 3)

	assert.Nil(t, s.SalesGrowth[0].Rate)
	require.NotNil(t, s.SalesGrowth[1].Rate)
	assert.InDelta(t, 0.5, *s.SalesGrowth[1].Rate, 1e-12)
	require.NotNil(t, s.SalesGrowth[2].Rate)
	assert.InDelta(t, -2.0/3.0, *s.SalesGrowth[2].Rate, 1e-12)
	assert.Equal(t, month("2021-04"), s.SalesGrowth[2].Month)
}

func TestComputeMoney(t *testing.T) {
	s := Compute(samplePolicies())

	assertAmounts(t, map[string]string{
		"2021-01": "100",
		"2021-02": "330",
		"2021-04": "0",
	}, s.Premiums)

	// P4 has no commission rate, P3 no tax, P5 no premium
	assertAmounts(t, map[string]string{
		"2021-01": "12",
		"2021-02": "15.6",
		"2021-04": "0",
	}, s.IPT)

	assertAmounts(t, map[string]string{
		"2021-01": "17.6",
		"2021-02": "44.4",
		"2021-04": "0",
	}, s.Commission)
}

func TestComputeProducts(t *testing.T) {
	s := Compute(samplePolicies())

	require.Len(t, s.ProductCommission, 3)
	assert.Equal(t, "Home", s.ProductCommission[0].Product)
	assert.Equal(t, month("2021-01"), s.ProductCommission[0].Month)
	assert.Equal(t, "Home", s.ProductCommission[1].Product)
	assert.True(t, decimal.NewFromInt(40).Equal(s.ProductCommission[1].Value))
	assert.Equal(t, "Pet", s.ProductCommission[2].Product)
	assert.True(t, decimal.RequireFromString("4.4").Equal(s.ProductCommission[2].Value))

	require.Len(t, s.TopProducts, 2)
	assert.Equal(t, "Home", s.TopProducts[0].Product)
	assert.Equal(t, month("2021-02"), s.TopProducts[1].Month)
	assert.Equal(t, "Home", s.TopProducts[1].Product)

	assert.Equal(t, []string{"Home", "Pet"}, s.Products())
	assert.Len(t, s.ProductSeries("Home"), 2)
	assert.Len(t, s.ProductSeries("Car"), 0)
}

func TestTopProductTieBreaksByName(t *testing.T) {
	policies := []models.Policy{
		{StartDate: day("2021-05-01"), ProductName: "Travel", Premium: dec("100"), CommissionPercent: dec("10")},
		{StartDate: day("2021-05-02"), ProductName: "Boat", Premium: dec("100"), CommissionPercent: dec("10")},
	}

	s := Compute(policies)
	require.Len(t, s.TopProducts, 1)
	assert.Equal(t, "Boat", s.TopProducts[0].Product)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)

	assert.Equal(t, 0, s.Records)
	assert.Empty(t, s.Sales)
	assert.Empty(t, s.Starts)
	assert.Empty(t, s.TopProducts)
	assert.Empty(t, s.Months())
}

func TestMonths(t *testing.T) {
	s := Compute(samplePolicies())
	assert.Equal(t, []Month{month("2021-01"), month("2021-02"), month("2021-03"), month("2021-04")}, s.Months())
}

func TestMonthOrderingAndText(t *testing.T) {
	assert.True(t, month("2020-12").Before(month("2021-01")))
	assert.True(t, month("2021-01").Before(month("2021-02")))
	assert.False(t, month("2021-02").Before(month("2021-02")))

	_, err := ParseMonth("2021/02")
	assert.Error(t, err)

	data, err := json.Marshal(struct {
		M Month `json:"m"`
	}{M: month("2021-07")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m": "2021-07"}`, string(data))

	var decoded Month
	require.NoError(t, decoded.UnmarshalText([]byte("1999-11")))
	assert.Equal(t, Month{Year: 1999, Month: time.November}, decoded)
}
