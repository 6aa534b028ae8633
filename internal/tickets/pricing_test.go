package tickets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTicketPricing_TierMatch(t *testing.T) {
	tiers := []PriceTier{
		{Quantity: 2, PriceCents: 220},
		{Quantity: 3, PriceCents: 300},
	}

	p, err := ResolveTicketPricing(120, tiers, 3)

	require.NoError(t, err)
	assert.Equal(t, 100, p.UnitCents)
	assert.Equal(t, 300, p.TotalCents)
}

func TestResolveTicketPricing_SingleSeatFallback(t *testing.T) {
	p, err := ResolveTicketPricing(120, nil, 1)

	require.NoError(t, err)
	assert.Equal(t, 120, p.UnitCents)
	assert.Equal(t, 120, p.TotalCents)
}

func TestResolveTicketPricing_SingleSeatPrefersTier(t *testing.T) {
	tiers := []PriceTier{{Quantity: 1, PriceCents: 90}}

	p, err := ResolveTicketPricing(120, tiers, 1)

	require.NoError(t, err)
	assert.Equal(t, 90, p.UnitCents)
	assert.Equal(t, 90, p.TotalCents)
}

func TestResolveTicketPricing_UnmatchedQuantity(t *testing.T) {
	tiers := []PriceTier{{Quantity: 3, PriceCents: 300}}

	_, err := ResolveTicketPricing(120, tiers, 2)

	assert.ErrorIs(t, err, ErrQuantityNotPurchasable)
}

func TestResolveTicketPricing_NonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, err := ResolveTicketPricing(120, nil, qty)
		assert.ErrorIs(t, err, ErrQuantityNotPurchasable)
	}
}

func TestBuildOrderExpiration(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(45*time.Minute), BuildOrderExpiration(now, 45))
	// unset or non-positive falls back to the default
	assert.Equal(t, now.Add(30*time.Minute), BuildOrderExpiration(now, 0))
	assert.Equal(t, now.Add(30*time.Minute), BuildOrderExpiration(now, -5))
}
