package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPromoCodeUsable(t *testing.T) {
	now := time.Now()

	p := &PromoCode{DiscountPct: 10}
	assert.True(t, p.Usable(now), "unlimited code")

	p = &PromoCode{MaxUses: 3, UsageCount: 2}
	assert.True(t, p.Usable(now))

	p.UsageCount = 3
	assert.False(t, p.Usable(now), "exhausted code")

	past := now.Add(-time.Hour)
	p = &PromoCode{ExpiresAt: &past}
	assert.False(t, p.Usable(now), "expired code")

	future := now.Add(time.Hour)
	p = &PromoCode{ExpiresAt: &future}
	assert.True(t, p.Usable(now))
}
