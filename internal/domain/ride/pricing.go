package ride

import (
	"math"
	"strconv"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
)

// DefaultETA is shown for every tier; there is no dispatch model behind it.
const DefaultETA = "5 min away"

// Quote is the price of one tier for a route.
type Quote struct {
	Tier    Tier    `json:"tier"`
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
	ETA     string  `json:"eta"`
}

// PricingStrategy prices a tier for a route.
type PricingStrategy interface {
	Estimate(tier Tier, route *place.Route) Quote
}

// PerMinutePricing charges the tier multiplier per minute of route duration.
type PerMinutePricing struct{}

// NewPerMinutePricing creates a PerMinutePricing.
func NewPerMinutePricing() *PerMinutePricing {
	return &PerMinutePricing{}
}

// Estimate implements PricingStrategy.
func (p *PerMinutePricing) Estimate(tier Tier, route *place.Route) Quote {
	return Estimate(tier, route)
}

// Estimate returns multiplier × minutes. A nil route prices at zero.
func Estimate(tier Tier, route *place.Route) Quote {
	amount := tier.PriceMultiplier * route.DurationMinutes()
	return Quote{
		Tier:    tier,
		Amount:  amount,
		Display: FormatPrice(amount),
		ETA:     DefaultETA,
	}
}

// Quotes prices every tier in catalog, preserving its order.
func Quotes(catalog []Tier, route *place.Route) []Quote {
	out := make([]Quote, len(catalog))
	for i, t := range catalog {
		out[i] = Estimate(t, route)
	}
	return out
}

// FormatPrice renders an amount as "$" plus two decimals.
func FormatPrice(amount float64) string {
	return "$" + strconv.FormatFloat(amount, 'f', 2, 64)
}

// PriceCents converts an amount to whole cents.
func PriceCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
