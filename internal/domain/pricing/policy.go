package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidPolicy = errors.New("invalid pricing policy")

// FeeModel selects how the transaction fee is derived from the base cost.
type FeeModel string

const (
	FeeModelNone            FeeModel = "none"
	FeeModelFlatPlusPercent FeeModel = "flat_plus_percent"
	FeeModelFlatOnly        FeeModel = "flat_only"
)

// RoundingMode selects how the pre-round sum becomes the payable total.
type RoundingMode string

const (
	RoundingCeilToUnit     RoundingMode = "ceil_to_unit"
	RoundingCeilToThousand RoundingMode = "ceil_to_thousand"
)

// Policy controls per-gram rate, fee composition and rounding.
type Policy struct {
	PricePerGram decimal.Decimal
	FeeModel     FeeModel
	FeeFlat      decimal.Decimal
	// FeePercent is a fraction: 0.007 means 0.7%.
	FeePercent decimal.Decimal
	SystemFee  decimal.Decimal
	Rounding   RoundingMode
}

// DefaultPolicy is the tariff used by the current deployment:
// Rp300/gram, Rp750 + 0.7% transaction fee, Rp5000 system fee, rounded up to the rupiah.
func DefaultPolicy() Policy {
	return Policy{
		PricePerGram: decimal.NewFromInt(300),
		FeeModel:     FeeModelFlatPlusPercent,
		FeeFlat:      decimal.NewFromInt(750),
		FeePercent:   decimal.RequireFromString("0.007"),
		SystemFee:    decimal.NewFromInt(5000),
		Rounding:     RoundingCeilToUnit,
	}
}

func (p Policy) Validate() error {
	switch p.FeeModel {
	case FeeModelNone, FeeModelFlatPlusPercent, FeeModelFlatOnly:
	default:
		return fmt.Errorf("%w: unknown fee model %q", ErrInvalidPolicy, p.FeeModel)
	}
	switch p.Rounding {
	case RoundingCeilToUnit, RoundingCeilToThousand:
	default:
		return fmt.Errorf("%w: unknown rounding mode %q", ErrInvalidPolicy, p.Rounding)
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"price per gram", p.PricePerGram},
		{"flat fee", p.FeeFlat},
		{"fee percent", p.FeePercent},
		{"system fee", p.SystemFee},
	} {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidPolicy, f.name)
		}
	}
	return nil
}

// ParseFeeModel accepts snake_case, kebab-case and camelCase spellings.
func ParseFeeModel(s string) (FeeModel, error) {
	switch normalizeName(s) {
	case "", "none":
		return FeeModelNone, nil
	case "flatpluspercent":
		return FeeModelFlatPlusPercent, nil
	case "flatonly", "flat":
		return FeeModelFlatOnly, nil
	}
	return "", fmt.Errorf("%w: unknown fee model %q", ErrInvalidPolicy, s)
}

func ParseRoundingMode(s string) (RoundingMode, error) {
	switch normalizeName(s) {
	case "", "ceiltounit", "unit":
		return RoundingCeilToUnit, nil
	case "ceiltothousand", "thousand":
		return RoundingCeilToThousand, nil
	}
	return "", fmt.Errorf("%w: unknown rounding mode %q", ErrInvalidPolicy, s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
