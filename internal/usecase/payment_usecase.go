package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"tabib_ai/internal/clock"
	"tabib_ai/internal/domain/entities"
	"tabib_ai/internal/domain/pricing"
	"tabib_ai/internal/usecase/interfaces"
)

var (
	ErrInvalidInvoiceCode          = errors.New("invalid invoice code")
	ErrInvalidProviderPaymentID    = errors.New("invalid provider payment id")
	ErrOrderAlreadyPaid            = errors.New("order already paid")
	ErrPaymentGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrPaymentGatewayBadRequest    = errors.New("payment gateway bad request")
	ErrPaymentGatewayUnauthorized  = errors.New("payment gateway unauthorized")
)

// paidProviderStatuses are the provider statuses that settle an invoice
// (Mercado Pago "approved", Midtrans "settlement"/"capture", Xendit "PAID", ...).
var paidProviderStatuses = map[string]bool{
	"approved":   true,
	"paid":       true,
	"settlement": true,
	"capture":    true,
	"succeeded":  true,
	"completed":  true,
}

// IPaymentUseCase encapsulates the payment sub-flow of an order.
//
//   - RequestPayment: price if needed, create checkout, order -> "menunggu_pembayaran"
//   - MarkPaid: gateway callback, "menunggu_pembayaran" -> "paid" (idempotent)

type IPaymentUseCase interface {
	RequestPayment(ctx context.Context, orderID string) (entities.Order, error)
	MarkPaid(ctx context.Context, invoiceCode string, providerStatus string) (entities.Order, error)
	HandleProviderNotification(ctx context.Context, providerPaymentID string) (entities.Order, error)
}

type PaymentUseCase struct {
	repo     interfaces.IOrderRepository
	gateway  interfaces.IPaymentGateway
	notifier interfaces.IOrderNotifier
	clock    clock.Clock
	policy   pricing.Policy
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

func NewPaymentUseCase(repo interfaces.IOrderRepository, gateway interfaces.IPaymentGateway, notifier interfaces.IOrderNotifier, clk clock.Clock, policy pricing.Policy) *PaymentUseCase {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &PaymentUseCase{repo: repo, gateway: gateway, notifier: notifier, clock: clk, policy: policy}
}

func (u *PaymentUseCase) RequestPayment(ctx context.Context, orderID string) (entities.Order, error) {
	orderID = strings.TrimSpace(orderID)
	log.Printf("[payment][usecase] request start order_id=%q", orderID)
	if orderID == "" {
		return entities.Order{}, ErrInvalidOrderID
	}
	if u.gateway == nil {
		log.Printf("[payment][usecase] gateway not configured order_id=%s", orderID)
		return entities.Order{}, ErrPaymentGatewayNotConfigured
	}

	o, err := u.repo.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("[payment][usecase] failed loading order order_id=%s err=%v", orderID, err)
		return entities.Order{}, upstream(err)
	}
	if o.ID == "" {
		log.Printf("[payment][usecase] order not found order_id=%s", orderID)
		return entities.Order{}, ErrOrderNotFound
	}
	switch o.Status {
	case entities.OrderStatusPaid:
		return entities.Order{}, ErrOrderAlreadyPaid
	case entities.OrderStatusMenungguPembayaran:
		log.Printf("[payment][usecase] reusing pending link order_id=%s invoice=%s", o.ID, o.InvoiceCode)
		return o, nil
	}

	price := pricing.Compute(o.Recipe, u.policy)
	if o.Price != nil {
		price = *o.Price
	}

	now := u.clock.Now()
	invoiceCode := invoiceCodeFor(now, o.ID)
	log.Printf("[payment][usecase] calling payment gateway order_id=%s invoice=%s total=%d", o.ID, invoiceCode, price.Total)
	checkoutURL, err := u.gateway.CreateCheckout(ctx, invoiceCode, price.Total, o.PatientName)
	if err != nil {
		log.Printf("[payment][usecase] payment gateway failed order_id=%s err=%v", o.ID, err)
		if isGatewayUnauthorized(err) {
			return entities.Order{}, ErrPaymentGatewayUnauthorized
		}
		if isGatewayBadRequest(err) {
			return entities.Order{}, ErrPaymentGatewayBadRequest
		}
		return entities.Order{}, upstream(err)
	}

	updated, err := u.repo.AttachPayment(ctx, o.ID, invoiceCode, checkoutURL, price, now)
	if err != nil {
		log.Printf("[payment][usecase] attach payment failed order_id=%s err=%v", o.ID, err)
		return entities.Order{}, upstream(err)
	}
	if updated.ID == "" {
		// Lost a race with another request or the callback: report what the store holds now.
		current, err := u.repo.GetByID(ctx, o.ID)
		if err != nil {
			return entities.Order{}, upstream(err)
		}
		switch current.Status {
		case entities.OrderStatusMenungguPembayaran:
			log.Printf("[payment][usecase] concurrent request won order_id=%s invoice=%s", o.ID, current.InvoiceCode)
			return current, nil
		case entities.OrderStatusPaid:
			return entities.Order{}, ErrOrderAlreadyPaid
		}
		return entities.Order{}, ErrOrderNotFound
	}

	log.Printf("[payment][usecase] request success order_id=%s invoice=%s status=%s", updated.ID, updated.InvoiceCode, updated.Status)
	emit(ctx, u.notifier, u.clock, entities.OrderEventAwaitingPayment, updated)
	return updated, nil
}

// MarkPaid applies a gateway callback. Unknown invoices, non-paid statuses and repeated
// deliveries all succeed without changing anything.
func (u *PaymentUseCase) MarkPaid(ctx context.Context, invoiceCode string, providerStatus string) (entities.Order, error) {
	invoiceCode = strings.TrimSpace(invoiceCode)
	log.Printf("[payment][usecase] mark-paid start invoice=%q provider_status=%q", invoiceCode, providerStatus)
	if invoiceCode == "" {
		return entities.Order{}, ErrInvalidInvoiceCode
	}

	o, err := u.repo.GetByInvoiceCode(ctx, invoiceCode)
	if err != nil {
		log.Printf("[payment][usecase] failed loading invoice invoice=%s err=%v", invoiceCode, err)
		return entities.Order{}, upstream(err)
	}
	if o.ID == "" {
		log.Printf("[payment][usecase] invoice not found, ignoring invoice=%s", invoiceCode)
		return entities.Order{}, nil
	}
	if !IsPaidStatus(providerStatus) {
		log.Printf("[payment][usecase] provider status not paid, ignoring invoice=%s provider_status=%q", invoiceCode, providerStatus)
		return o, nil
	}
	if o.Status == entities.OrderStatusPaid {
		log.Printf("[payment][usecase] duplicate callback invoice=%s order_id=%s", invoiceCode, o.ID)
		return o, nil
	}

	updated, err := u.repo.Transition(ctx, o.ID, entities.OrderStatusPaid, u.clock.Now())
	if err != nil {
		log.Printf("[payment][usecase] paid transition failed order_id=%s err=%v", o.ID, err)
		return entities.Order{}, upstream(err)
	}
	if updated.ID == "" {
		current, err := u.repo.GetByID(ctx, o.ID)
		if err != nil {
			return entities.Order{}, upstream(err)
		}
		log.Printf("[payment][usecase] paid transition not applied order_id=%s status=%s", o.ID, current.Status)
		return current, nil
	}

	log.Printf("[payment][usecase] mark-paid success order_id=%s invoice=%s", updated.ID, invoiceCode)
	emit(ctx, u.notifier, u.clock, entities.OrderEventPaid, updated)
	return updated, nil
}

func (u *PaymentUseCase) HandleProviderNotification(ctx context.Context, providerPaymentID string) (entities.Order, error) {
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	if providerPaymentID == "" {
		return entities.Order{}, ErrInvalidProviderPaymentID
	}
	if u.gateway == nil {
		return entities.Order{}, ErrPaymentGatewayNotConfigured
	}

	invoiceCode, status, err := u.gateway.LookupPayment(ctx, providerPaymentID)
	if err != nil {
		log.Printf("[payment][usecase] provider lookup failed provider_payment_id=%s err=%v", providerPaymentID, err)
		return entities.Order{}, upstream(err)
	}
	if strings.TrimSpace(invoiceCode) == "" {
		log.Printf("[payment][usecase] provider payment without invoice, ignoring provider_payment_id=%s", providerPaymentID)
		return entities.Order{}, nil
	}
	return u.MarkPaid(ctx, invoiceCode, status)
}

// invoiceCodeFor joins the request time with the order id so concurrent
// requests for different orders never share an invoice.
func invoiceCodeFor(at time.Time, orderID string) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, orderID)
	return fmt.Sprintf("INV-%d-%s", at.UnixMilli(), id)
}

func IsPaidStatus(status string) bool {
	return paidProviderStatuses[strings.ToLower(strings.TrimSpace(status))]
}

func isGatewayBadRequest(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"bad_request\"") || strings.Contains(msg, "\"status\":400")
}

func isGatewayUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"unauthorized\"") || strings.Contains(msg, "\"status\":401")
}
