package estimate_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/money"
)

func TestPrice_TotalOnly(t *testing.T) {
	total, items, err := estimate.Price(estimate.Draft{ProjectID: "p1", Total: 500000}, "USD")
	require.NoError(t, err)
	require.Equal(t, money.Money{Amount: 500000, Currency: "USD"}, total)
	require.Empty(t, items)
}

func TestPrice_LineItemsFillTotal(t *testing.T) {
	total, items, err := estimate.Price(estimate.Draft{
		ProjectID: "p1",
		LineItems: []estimate.LineItem{
			{Description: "Drywall", Quantity: 2.5, Unit: "sheet", UnitPrice: 1999},
			{Description: "Labor", Amount: 30000},
		},
	}, "USD")
	require.NoError(t, err)
	require.Equal(t, int64(4998), items[0].Amount)
	require.Equal(t, int64(30000), items[1].Amount)
	require.Equal(t, int64(34998), total.Amount)
}

func TestPrice_ExplicitTotalWins(t *testing.T) {
	total, _, err := estimate.Price(estimate.Draft{
		ProjectID: "p1",
		Total:     100,
		LineItems: []estimate.LineItem{{Description: "Paint", Amount: 5000}},
	}, "USD")
	require.NoError(t, err)
	require.Equal(t, int64(100), total.Amount)
}

func TestPrice_Rejects(t *testing.T) {
	cases := map[string]estimate.Draft{
		"missing project":   {Total: 100},
		"zero total":        {ProjectID: "p1"},
		"negative total":    {ProjectID: "p1", Total: -1},
		"currency mismatch": {ProjectID: "p1", Total: 100, Currency: "EUR"},
		"bad currency":      {ProjectID: "p1", Total: 100, Currency: "DOLLARS"},
		"blank description": {ProjectID: "p1", LineItems: []estimate.LineItem{{Amount: 10}}},
		"negative quantity": {ProjectID: "p1", LineItems: []estimate.LineItem{{Description: "x", Quantity: -1, UnitPrice: 10}}},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := estimate.Price(d, "USD")
			require.ErrorIs(t, err, estimate.ErrInvalidInput)
		})
	}
}

func TestSummarize(t *testing.T) {
	ests := []estimate.Estimate{
		{ChangeOrderNumber: 0, Total: money.Money{Amount: 500000, Currency: "USD"}},
		{ChangeOrderNumber: 1, Total: money.Money{Amount: 25000, Currency: "USD"}},
		{ChangeOrderNumber: 2, Total: money.Money{Amount: 10000, Currency: "USD"}},
	}
	s, err := estimate.Summarize(ests, "USD")
	require.NoError(t, err)
	require.Equal(t, 3, s.Count)
	require.Equal(t, 2, s.LatestChangeOrder)
	require.Equal(t, int64(500000), s.OriginalTotal.Amount)
	require.Equal(t, int64(35000), s.ChangeOrderTotal.Amount)
	require.Equal(t, int64(535000), s.Total.Amount)

	empty, err := estimate.Summarize(nil, "USD")
	require.NoError(t, err)
	require.Zero(t, empty.Count)
	require.Equal(t, money.Zero("USD"), empty.Total)

	_, err = estimate.Summarize([]estimate.Estimate{{Total: money.Money{Amount: 1, Currency: "EUR"}}}, "USD")
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}
