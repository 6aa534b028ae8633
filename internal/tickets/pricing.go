package tickets

import (
	"errors"
	"time"
)

var ErrQuantityNotPurchasable = errors.New("quantity not purchasable")

const DefaultExpirationMinutes = 30

// Pricing is the snapshot frozen onto an order at creation.
type Pricing struct {
	UnitCents  int
	TotalCents int
}

// ResolveTicketPricing picks the tier matching the exact quantity. A single
// seat without a matching tier falls back to the base price; any other
// unmatched quantity is an error, no interpolated pricing is invented.
func ResolveTicketPricing(basePriceCents int, tiers []PriceTier, quantity int) (Pricing, error) {
	if quantity <= 0 {
		return Pricing{}, ErrQuantityNotPurchasable
	}
	for _, t := range tiers {
		if t.Quantity == quantity {
			return Pricing{UnitCents: t.PriceCents / quantity, TotalCents: t.PriceCents}, nil
		}
	}
	if quantity == 1 {
		return Pricing{UnitCents: basePriceCents, TotalCents: basePriceCents}, nil
	}
	return Pricing{}, ErrQuantityNotPurchasable
}

// BuildOrderExpiration returns now + minutes, defaulting when the configured
// value is unset or non-positive.
func BuildOrderExpiration(now time.Time, minutes int) time.Time {
	if minutes <= 0 {
		minutes = DefaultExpirationMinutes
	}
	return now.Add(time.Duration(minutes) * time.Minute)
}
