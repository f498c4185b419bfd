package rating

import (
	"math"
	"testing"
)

func TestEstimatePremium(t *testing.T) {
	cases := []struct {
		name     string
		category Category
		input    float64
		duration float64
		want     int64
	}{
		{"motor 2.5M", CategoryMotor, 2_500_000, 1, 87_500},
		{"motor rounds half up", CategoryMotor, 100, 1, 4},
		{"motor rounds down", CategoryMotor, 1_010, 1, 35},
		{"health single", CategoryHealth, 1, 1, 45_000},
		{"health family of four", CategoryHealth, 4, 1, 180_000},
		{"health ignores duration", CategoryHealth, 4, 7, 180_000},
		{"life 10M", CategoryLife, 10_000_000, 1, 105_000},
		{"life rounds", CategoryLife, 1_250, 1, 5_013},
		{"travel has no rate", CategoryTravel, 1_000_000, 1, 0},
		{"unknown category", Category("Pet"), 1_000_000, 1, 0},
		{"negative input", CategoryMotor, -5_000, 1, 0},
		{"nan input", CategoryMotor, math.NaN(), 1, 0},
		{"inf input", CategoryHealth, math.Inf(1), 1, 0},
		{"life with invalid input keeps the policy fee", CategoryLife, math.NaN(), 1, 5_000},
		{"motor beyond int64 saturates", CategoryMotor, 1e25, 1, math.MaxInt64},
		{"life beyond int64 saturates", CategoryLife, 1e300, 1, math.MaxInt64},
		{"health beyond int64 saturates", CategoryHealth, 1e20, 1, math.MaxInt64},
		{"life large but representable", CategoryLife, 1e17, 1, 1_000_000_000_005_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimatePremium(tc.category, tc.input, tc.duration); got != tc.want {
				t.Fatalf("EstimatePremium(%s, %v, %v) = %d, want %d", tc.category, tc.input, tc.duration, got, tc.want)
			}
		})
	}
}

func TestEstimatePremiumDeterministic(t *testing.T) {
	first := EstimatePremium(CategoryLife, 3_333_333.33, 2)
	for i := 0; i < 1_000; i++ {
		if got := EstimatePremium(CategoryLife, 3_333_333.33, 2); got != first {
			t.Fatalf("iteration %d: got %d, want %d", i, got, first)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" motor "); !ok || c != CategoryMotor {
		t.Fatalf("expected Motor, got %q %v", c, ok)
	}
	if _, ok := ParseCategory("Pet"); ok {
		t.Fatalf("expected unknown category to fail")
	}
}
