package pricing

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"tabib_ai/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// MaxTotalGrams bounds the grams a recipe can be billed for; larger quantities are clamped.
const MaxTotalGrams = 1_000_000_000

var (
	maxGrams      = decimal.NewFromInt(MaxTotalGrams)
	maxTotal      = decimal.NewFromInt(math.MaxInt64)
	thousand      = decimal.NewFromInt(1000)
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// Compute prices a recipe. It never fails: quantities that cannot be read count as zero grams,
// so an empty recipe still pays the fees.
func Compute(recipe entities.Recipe, p Policy) entities.PriceBreakdown {
	grams := TotalGrams(recipe)
	base := grams.Mul(p.PricePerGram)

	fee := decimal.Zero
	switch p.FeeModel {
	case FeeModelFlatPlusPercent:
		fee = p.FeeFlat.Add(base.Mul(p.FeePercent))
	case FeeModelFlatOnly:
		fee = p.FeeFlat
	}

	sum := base.Add(fee).Add(p.SystemFee)
	var total decimal.Decimal
	switch p.Rounding {
	case RoundingCeilToThousand:
		total = sum.Div(thousand).Ceil().Mul(thousand)
	default:
		total = sum.Ceil()
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	if total.GreaterThan(maxTotal) {
		total = maxTotal
	}

	return entities.PriceBreakdown{
		TotalGrams:     grams,
		BaseCost:       base,
		TransactionFee: fee,
		SystemFee:      p.SystemFee,
		Total:          total.IntPart(),
	}
}

// TotalGrams sums every quantity, clamped to MaxTotalGrams.
func TotalGrams(recipe entities.Recipe) decimal.Decimal {
	total := decimal.Zero
	for _, v := range recipe {
		total = total.Add(Grams(v))
		if total.GreaterThan(maxGrams) {
			return maxGrams
		}
	}
	return total
}

// Grams reads a single recipe quantity. Strings contribute their leading number
// ("3 gram" -> 3, "2,5 g" -> 2); anything negative or unreadable is zero.
func Grams(v any) decimal.Decimal {
	var d decimal.Decimal
	switch x := v.(type) {
	case float64:
		d = fromFloat(x)
	case float32:
		d = fromFloat(float64(x))
	case int:
		d = decimal.NewFromInt(int64(x))
	case int32:
		d = decimal.NewFromInt32(x)
	case int64:
		d = decimal.NewFromInt(x)
	case decimal.Decimal:
		d = x
	case json.Number:
		d = parseLeading(string(x))
	case string:
		d = parseLeading(x)
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func parseLeading(s string) decimal.Decimal {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return decimal.Zero
	}
	return fromFloat(f)
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
