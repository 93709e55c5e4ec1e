package response

import (
	"time"

	"tabib_ai/internal/domain/entities"
)

type PriceResponse struct {
	TotalGrams     string `json:"total_grams"`
	BaseCost       string `json:"base_cost"`
	TransactionFee string `json:"transaction_fee"`
	SystemFee      string `json:"system_fee"`
	Total          int64  `json:"total"`
}

func FromPriceBreakdown(p entities.PriceBreakdown) PriceResponse {
	return PriceResponse{
		TotalGrams:     p.TotalGrams.String(),
		BaseCost:       p.BaseCost.String(),
		TransactionFee: p.TransactionFee.String(),
		SystemFee:      p.SystemFee.String(),
		Total:          p.Total,
	}
}

type OrderResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Complaint     string          `json:"complaint"`
	Status        string          `json:"status"`
	Recipe        entities.Recipe `json:"recipe"`
	Price         *PriceResponse  `json:"price,omitempty"`
	Total         int64           `json:"total"`
	InvoiceCode   string          `json:"invoice_code,omitempty"`
	CheckoutURL   string          `json:"checkout_url,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

func FromOrder(o entities.Order) OrderResponse {
	res := OrderResponse{
		ID:            o.ID,
		Name:          o.PatientName,
		Complaint:     o.Complaint,
		Status:        string(o.Status),
		Recipe:        o.Recipe.Clone(),
		Total:         o.Total(),
		InvoiceCode:   o.InvoiceCode,
		CheckoutURL:   o.CheckoutURL,
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		CompletedAt:   o.CompletedAt,
		PaidAt:        o.PaidAt,
	}
	if res.Recipe == nil {
		res.Recipe = entities.Recipe{}
	}
	if o.Price != nil {
		p := FromPriceBreakdown(*o.Price)
		res.Price = &p
	}
	return res
}

func FromOrders(orders []entities.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}

// SubmitResponse flattens the fields the kiosk reads right after submitting.
type SubmitResponse struct {
	Order       OrderResponse   `json:"order"`
	Status      string          `json:"status"`
	Recipe      entities.Recipe `json:"recipe"`
	Total       int64           `json:"total"`
	Price       *PriceResponse  `json:"price,omitempty"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
	InvoiceCode string          `json:"invoice_code,omitempty"`
}

func FromSubmit(o entities.Order, payment *entities.PaymentLink) SubmitResponse {
	order := FromOrder(o)
	res := SubmitResponse{
		Order:  order,
		Status: order.Status,
		Recipe: order.Recipe,
		Total:  order.Total,
		Price:  order.Price,
	}
	if payment != nil {
		res.CheckoutURL = payment.CheckoutURL
		res.InvoiceCode = payment.InvoiceCode
	}
	return res
}

type StatusResponse struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	OrderID string `json:"order_id"`
}

func FromStatus(o entities.Order) StatusResponse {
	return StatusResponse{Name: o.PatientName, Status: string(o.Status), OrderID: o.ID}
}

type QuoteResponse struct {
	Recipe entities.Recipe `json:"recipe"`
	Price  PriceResponse   `json:"price"`
	Total  int64           `json:"total"`
}

func FromQuote(recipe entities.Recipe, p entities.PriceBreakdown) QuoteResponse {
	return QuoteResponse{Recipe: recipe, Price: FromPriceBreakdown(p), Total: p.Total}
}

type AskResponse struct {
	Reply string `json:"reply"`
}
