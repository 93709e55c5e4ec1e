package request

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ProviderID decodes MercadoPago ids sent either as JSON numbers or strings.
type ProviderID string

func (p *ProviderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ProviderID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = ProviderID(n.String())
	return nil
}

type WebhookData struct {
	ID ProviderID `json:"id"`
}

// PaymentWebhookRequest covers both callback shapes: the direct
// {invoice_code, status} one and MercadoPago's {type, data: {id}} notification.
type PaymentWebhookRequest struct {
	InvoiceCode string      `json:"invoice_code"`
	Status      string      `json:"status"`
	Type        string      `json:"type"`
	Topic       string      `json:"topic"`
	Action      string      `json:"action"`
	Data        WebhookData `json:"data"`
}

func (r PaymentWebhookRequest) ResolveInvoice() (invoiceCode, status string) {
	return strings.TrimSpace(r.InvoiceCode), strings.TrimSpace(r.Status)
}

// ResolveProviderPaymentID returns the payment id of a MercadoPago payment
// notification. queryID is the data.id / id query parameter fallback.
func (r PaymentWebhookRequest) ResolveProviderPaymentID(queryID string) string {
	kind := strings.ToLower(firstNonBlank(r.Type, r.Topic))
	if kind != "" && kind != "payment" {
		return ""
	}
	return firstNonBlank(string(r.Data.ID), queryID)
}
