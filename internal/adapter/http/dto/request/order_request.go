package request

import (
	"errors"
	"strings"

	"tabib_ai/internal/domain/entities"
)

var (
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// SubmitOrderRequest accepts both the English field names and the Indonesian
// ones sent by the kiosk frontend.
type SubmitOrderRequest struct {
	Name           string `json:"name"`
	Nama           string `json:"nama"`
	Complaint      string `json:"complaint"`
	Keluhan        string `json:"keluhan"`
	RequestPayment bool   `json:"request_payment"`
}

func (r SubmitOrderRequest) ResolveName() string {
	return firstNonBlank(r.Name, r.Nama)
}

func (r SubmitOrderRequest) ResolveComplaint() string {
	return firstNonBlank(r.Complaint, r.Keluhan)
}

type StatusRequest struct {
	Name string `json:"name" form:"name"`
	Nama string `json:"nama" form:"nama"`
}

func (r StatusRequest) ResolveName() string {
	return firstNonBlank(r.Name, r.Nama)
}

type QuoteRequest struct {
	Recipe map[string]any `json:"recipe"`
	Resep  map[string]any `json:"resep"`
}

func (r QuoteRequest) ResolveRecipe() (entities.Recipe, error) {
	switch {
	case r.Recipe != nil:
		return entities.Recipe(r.Recipe).Clone(), nil
	case r.Resep != nil:
		return entities.Recipe(r.Resep).Clone(), nil
	default:
		return nil, ErrInvalidRecipe
	}
}

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
