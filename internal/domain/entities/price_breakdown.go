package entities

import "github.com/shopspring/decimal"

// PriceBreakdown is the derived price of a recipe. Amounts are whole rupiah;
// only Total is rounded.
type PriceBreakdown struct {
	TotalGrams     decimal.Decimal `json:"total_grams"`
	BaseCost       decimal.Decimal `json:"base_cost"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	SystemFee      decimal.Decimal `json:"system_fee"`
	Total          int64           `json:"total"`
}
