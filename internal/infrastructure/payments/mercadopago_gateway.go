package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"tabib_ai/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")
var ErrInvalidProviderPaymentID = errors.New("mercado pago payment id must be numeric")

const (
	defaultCurrency  = "IDR"
	mockCheckoutBase = "https://sandbox.mercadopago.local/checkout/"
)

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoGateway creates Checkout Pro preferences for invoices and resolves
// payment notifications back to them through external_reference.
type MercadoPagoGateway struct {
	preferences preferenceCreator
	payments    paymentGetter
	mockMode    bool
	sandbox     bool

	currency        string
	notificationURL string
	backURL         string
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if isPaymentGatewayMockEnabled() {
		log.Printf("[payment][gateway] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true, currency: currencyFromEnv()}, nil
	}

	if accessToken == "" {
		log.Printf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] Mercado Pago client initialized")

	return newGateway(preference.NewClient(cfg), payment.NewClient(cfg), strings.HasPrefix(accessToken, "TEST-")), nil
}

func newGateway(prefs preferenceCreator, pays paymentGetter, sandbox bool) *MercadoPagoGateway {
	return &MercadoPagoGateway{
		preferences:     prefs,
		payments:        pays,
		sandbox:         sandbox,
		currency:        currencyFromEnv(),
		notificationURL: strings.TrimSpace(os.Getenv("MERCADOPAGO_NOTIFICATION_URL")),
		backURL:         strings.TrimSpace(os.Getenv("MERCADOPAGO_BACK_URL")),
	}
}

func (g *MercadoPagoGateway) CreateCheckout(ctx context.Context, invoiceCode string, amount int64, customerName string) (string, error) {
	if g != nil && g.mockMode {
		url := mockCheckoutBase + invoiceCode
		log.Printf("[payment][gateway] mock checkout invoice=%s amount=%d url=%s", invoiceCode, amount, url)
		return url, nil
	}
	if g == nil || g.preferences == nil {
		log.Printf("[payment][gateway] gateway not configured")
		return "", ErrMercadoPagoGatewayNotConfigured
	}
	log.Printf("[payment][gateway] checkout start invoice=%s amount=%d", invoiceCode, amount)

	req := preference.Request{
		ExternalReference: invoiceCode,
		NotificationURL:   g.notificationURL,
		Items: []preference.ItemRequest{
			{
				ID:         invoiceCode,
				Title:      fmt.Sprintf("Racikan Tabib AI %s", invoiceCode),
				CurrencyID: g.currency,
				Quantity:   1,
				UnitPrice:  float64(amount),
			},
		},
	}
	if name := strings.TrimSpace(customerName); name != "" {
		req.Payer = &preference.PayerRequest{Name: name}
	}
	if g.backURL != "" {
		req.BackURLs = &preference.BackURLsRequest{Success: g.backURL, Pending: g.backURL, Failure: g.backURL}
	}

	resp, err := g.preferences.Create(ctx, req)
	if err != nil {
		log.Printf("[payment][gateway] sdk preference create failed invoice=%s err=%v", invoiceCode, err)
		return "", err
	}

	url := resp.InitPoint
	if g.sandbox && resp.SandboxInitPoint != "" {
		url = resp.SandboxInitPoint
	}
	log.Printf("[payment][gateway] checkout success invoice=%s preference_id=%s", invoiceCode, resp.ID)
	return url, nil
}

// LookupPayment resolves a webhook payment id. In mock mode the id is taken to be the invoice code itself.
func (g *MercadoPagoGateway) LookupPayment(ctx context.Context, providerPaymentID string) (string, string, error) {
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	if g != nil && g.mockMode {
		if strings.HasPrefix(providerPaymentID, "INV-") {
			log.Printf("[payment][gateway] mock lookup invoice=%s status=approved", providerPaymentID)
			return providerPaymentID, "approved", nil
		}
		return "", "", nil
	}
	if g == nil || g.payments == nil {
		return "", "", ErrMercadoPagoGatewayNotConfigured
	}

	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return "", "", ErrInvalidProviderPaymentID
	}
	resp, err := g.payments.Get(ctx, id)
	if err != nil {
		log.Printf("[payment][gateway] sdk payment get failed provider_payment_id=%d err=%v", id, err)
		return "", "", err
	}
	log.Printf("[payment][gateway] lookup success provider_payment_id=%d status=%s external_reference=%s", resp.ID, resp.Status, resp.ExternalReference)
	return resp.ExternalReference, resp.Status, nil
}

func currencyFromEnv() string {
	if v := strings.ToUpper(strings.TrimSpace(os.Getenv("MERCADOPAGO_CURRENCY"))); v != "" {
		return v
	}
	return defaultCurrency
}

func isPaymentGatewayMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
