package payments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/money"
)

func TestMercadoPagoGateway_Mock(t *testing.T) {
	g, err := NewMercadoPagoGateway("", true, nil)
	require.NoError(t, err)

	res, err := g.Charge(context.Background(), ChargeRequest{Reference: "inv-1", Amount: money.Money{Amount: 1000, Currency: "USD"}})
	require.NoError(t, err)
	require.True(t, res.Approved())
	require.NotEmpty(t, res.ID)
}

func TestMercadoPagoGateway_RequiresToken(t *testing.T) {
	_, err := NewMercadoPagoGateway(" ", false, nil)
	require.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestMercadoPagoGateway_NilNotConfigured(t *testing.T) {
	var g *MercadoPagoGateway
	_, err := g.Charge(context.Background(), ChargeRequest{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestRequestPayload(t *testing.T) {
	b, err := requestPayload(ChargeRequest{
		Reference:       "inv-1",
		Description:     "Invoice INV-1",
		Amount:          money.Money{Amount: 123456, Currency: "BRL"},
		PayerEmail:      "casey@example.com",
		PaymentMethodID: "pix",
	})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(b, &body))
	require.InDelta(t, 1234.56, body["transaction_amount"], 0.0001)
	require.Equal(t, "inv-1", body["external_reference"])
	require.Equal(t, "pix", body["payment_method_id"])
	require.Equal(t, float64(1), body["installments"])
	require.Equal(t, map[string]any{"email": "casey@example.com"}, body["payer"])
	require.NotContains(t, body, "token")

	_, err = requestPayload(ChargeRequest{Amount: money.Money{Amount: 1, Currency: "??"}})
	require.ErrorIs(t, err, money.ErrInvalidCurrency)
}
