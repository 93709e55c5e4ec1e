package request

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSubmitOrderRequest_Resolve(t *testing.T) {
	r := SubmitOrderRequest{Name: "  ", Nama: " Siti ", Keluhan: " pusing "}
	if got := r.ResolveName(); got != "Siti" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := r.ResolveComplaint(); got != "pusing" {
		t.Fatalf("unexpected complaint %q", got)
	}

	r = SubmitOrderRequest{Name: "Budi", Nama: "Other", Complaint: "batuk"}
	if r.ResolveName() != "Budi" || r.ResolveComplaint() != "batuk" {
		t.Fatalf("english fields should win: %+v", r)
	}
}

func TestStatusRequest_ResolveName(t *testing.T) {
	if got := (StatusRequest{Nama: "Ani"}).ResolveName(); got != "Ani" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := (StatusRequest{}).ResolveName(); got != "" {
		t.Fatalf("expected empty name, got %q", got)
	}
}

func TestQuoteRequest_ResolveRecipe(t *testing.T) {
	var r QuoteRequest
	if err := json.Unmarshal([]byte(`{"resep":{"jahe":"3 gram"}}`), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	recipe, err := r.ResolveRecipe()
	if err != nil || recipe["jahe"] != "3 gram" {
		t.Fatalf("unexpected recipe %v err=%v", recipe, err)
	}

	if err := json.Unmarshal([]byte(`{"recipe":{}}`), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	recipe, err = r.ResolveRecipe()
	if err != nil || len(recipe) != 0 {
		t.Fatalf("empty recipe should be accepted, got %v err=%v", recipe, err)
	}

	if _, err := (QuoteRequest{}).ResolveRecipe(); !errors.Is(err, ErrInvalidRecipe) {
		t.Fatalf("expected ErrInvalidRecipe, got %v", err)
	}
}
