// Package rating computes indicative insurance premiums. The functions here
// are pure so the same estimate can be produced for instant feedback and for
// the authoritative quote.
package rating

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is an insurance product line.
type Category string

const (
	CategoryMotor  Category = "Motor"
	CategoryHealth Category = "Health"
	CategoryLife   Category = "Life"
	CategoryTravel Category = "Travel"
)

// Categories lists every product line a policy can be issued for.
var Categories = []Category{CategoryMotor, CategoryHealth, CategoryLife, CategoryTravel}

var (
	motorRate       = decimal.RequireFromString("0.035")
	healthPerMember = decimal.NewFromInt(45_000)
	lifeRate        = decimal.RequireFromString("0.01")
	lifePolicyFee   = decimal.NewFromInt(5_000)
	maxPremium      = decimal.NewFromInt(math.MaxInt64)
)

// ParseCategory resolves a category name, ignoring case.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

// EstimatePremium returns the premium in whole currency units.
//
// primaryInput is the vehicle value for Motor, the family size for Health and
// the sum assured for Life. durationUnits is accepted for callers that collect
// it but does not change any current rate. Categories without a rate, and
// inputs that are negative or not finite, yield 0. Premiums beyond the int64
// range saturate at math.MaxInt64.
func EstimatePremium(category Category, primaryInput, durationUnits float64) int64 {
	_ = durationUnits

	v := sanitize(primaryInput)
	var premium decimal.Decimal
	switch category {
	case CategoryMotor:
		premium = v.Mul(motorRate)
	case CategoryHealth:
		premium = healthPerMember.Mul(v)
	case CategoryLife:
		premium = v.Mul(lifeRate).Add(lifePolicyFee)
	default:
		return 0
	}
	premium = premium.Round(0)
	if premium.GreaterThan(maxPremium) {
		return math.MaxInt64
	}
	return premium.IntPart()
}

func sanitize(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
