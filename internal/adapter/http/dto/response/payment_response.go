package response

import "tabib_ai/internal/domain/entities"

type PaymentLinkResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	InvoiceCode string `json:"invoice_code"`
	CheckoutURL string `json:"checkout_url"`
	Total       int64  `json:"total"`
}

func FromPaymentLink(o entities.Order) PaymentLinkResponse {
	link := o.PaymentLink()
	return PaymentLinkResponse{
		OrderID:     o.ID,
		Status:      string(o.Status),
		InvoiceCode: link.InvoiceCode,
		CheckoutURL: link.CheckoutURL,
		Total:       link.Total,
	}
}

// WebhookResponse is always returned with 200 so the provider stops retrying.
type WebhookResponse struct {
	Received bool   `json:"received"`
	OrderID  string `json:"order_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

func FromWebhook(o entities.Order) WebhookResponse {
	return WebhookResponse{Received: true, OrderID: o.ID, Status: string(o.Status)}
}
