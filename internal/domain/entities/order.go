package entities

import (
	"strings"
	"time"
)

// OrderStatus represents the lifecycle of a consultation order.
//
// Domain notes:
//   - proses is the state right after submission, while the recipe is "being prepared".
//   - done is reached through the completion trigger (timer or device signal).
//   - menunggu_pembayaran / paid only exist when a payment link was requested.
type OrderStatus string

const (
	OrderStatusProses             OrderStatus = "proses"
	OrderStatusDone               OrderStatus = "done"
	OrderStatusMenungguPembayaran OrderStatus = "menunggu_pembayaran"
	OrderStatusPaid               OrderStatus = "paid"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusProses:             {OrderStatusDone: true, OrderStatusMenungguPembayaran: true},
	OrderStatusDone:               {OrderStatusMenungguPembayaran: true},
	OrderStatusMenungguPembayaran: {OrderStatusPaid: true},
	OrderStatusPaid:               {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether from->to is a forward move of the lifecycle.
func CanTransition(from, to OrderStatus) bool {
	nexts := orderTransitions[from]
	return nexts != nil && nexts[to]
}

// SourcesOf lists every status from which to can be entered.
// The order is stable so it can be used to build store conditions.
func SourcesOf(to OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, from := range []OrderStatus{OrderStatusProses, OrderStatusDone, OrderStatusMenungguPembayaran, OrderStatusPaid} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Order is one patient submission and its derived pricing/status record.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI patient_key-index: patient_key / created_at
//   - GSI status-index: status / created_at
//   - GSI invoice_code-index: invoice_code
type Order struct {
	ID          string          `json:"id"`
	PatientName string          `json:"patient_name"`
	PatientKey  string          `json:"patient_key"`
	Complaint   string          `json:"complaint"`
	Recipe      Recipe          `json:"recipe"`
	Price       *PriceBreakdown `json:"price,omitempty"`
	Status      OrderStatus     `json:"status"`

	InvoiceCode   string        `json:"invoice_code,omitempty"`
	CheckoutURL   string        `json:"checkout_url,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// Total returns the payable amount, or 0 when the order was never priced.
func (o Order) Total() int64 {
	if o.Price == nil {
		return 0
	}
	return o.Price.Total
}

// NormalizePatientName folds a patient name into the key used for lookups:
// trimmed, lower-cased, inner whitespace collapsed.
func NormalizePatientName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// PaymentLink is what a patient needs to pay an order.
type PaymentLink struct {
	InvoiceCode string `json:"invoice_code"`
	CheckoutURL string `json:"checkout_url"`
	Total       int64  `json:"total"`
}

func (o Order) PaymentLink() PaymentLink {
	return PaymentLink{InvoiceCode: o.InvoiceCode, CheckoutURL: o.CheckoutURL, Total: o.Total()}
}
