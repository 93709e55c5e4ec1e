package interfaces

import "context"

// IPaymentGateway abstracts external payment providers (e.g. Mercado Pago).
//
// CreateCheckout returns a hosted checkout URL for the invoice; LookupPayment resolves a
// provider payment id (as delivered by provider webhooks) back to our invoice code.
type IPaymentGateway interface {
	CreateCheckout(ctx context.Context, invoiceCode string, amount int64, customerName string) (checkoutURL string, err error)
	LookupPayment(ctx context.Context, providerPaymentID string) (invoiceCode string, providerStatus string, err error)
}
