package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/wardadevcode/buildwise-backend/internal/money"
)

// MercadoPagoGateway charges through Mercado Pago. In mock mode every charge
// is approved locally without calling the provider.
type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
	logger   *slog.Logger
}

// NewMercadoPagoGateway creates a gateway. mock skips credential checks.
func NewMercadoPagoGateway(accessToken string, mock bool, logger *slog.Logger) (*MercadoPagoGateway, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if mock {
		logger.Info("payment gateway mock mode enabled")
		return &MercadoPagoGateway{mockMode: true, logger: logger}, nil
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("creating mercado pago config: %w", err)
	}
	logger.Info("mercado pago client initialized")
	return &MercadoPagoGateway{client: payment.NewClient(cfg), logger: logger}, nil
}

// Charge implements Gateway.
func (g *MercadoPagoGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if g != nil && g.mockMode {
		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		g.logger.Debug("mock charge approved", "reference", req.Reference, "payment_id", id, "amount", req.Amount.String())
		return ChargeResult{ID: id, Status: "approved", StatusDetail: "accredited"}, nil
	}
	if g == nil || g.client == nil {
		return ChargeResult{}, ErrNotConfigured
	}

	payload, err := requestPayload(req)
	if err != nil {
		return ChargeResult{}, err
	}
	var mpReq payment.Request
	if err := json.Unmarshal(payload, &mpReq); err != nil {
		return ChargeResult{}, fmt.Errorf("building payment request: %w", err)
	}

	resp, err := g.client.Create(ctx, mpReq)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("creating payment: %w", err)
	}
	g.logger.Info("payment created", "reference", req.Reference, "payment_id", resp.ID, "status", resp.Status)
	return ChargeResult{ID: fmt.Sprintf("%d", resp.ID), Status: resp.Status, StatusDetail: resp.StatusDetail}, nil
}

// requestPayload renders the provider's JSON request. Mercado Pago takes
// amounts in major units.
func requestPayload(req ChargeRequest) ([]byte, error) {
	if err := req.Amount.Validate(); err != nil {
		return nil, err
	}
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}
	body := map[string]any{
		"transaction_amount": float64(req.Amount.Amount) / math.Pow10(money.Scale(req.Amount.Currency)),
		"description":        req.Description,
		"external_reference": req.Reference,
		"installments":       installments,
	}
	if req.PaymentMethodID != "" {
		body["payment_method_id"] = req.PaymentMethodID
	}
	if req.Token != "" {
		body["token"] = req.Token
	}
	if req.PayerEmail != "" {
		body["payer"] = map[string]any{"email": req.PayerEmail}
	}
	return json.Marshal(body)
}
