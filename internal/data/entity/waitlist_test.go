package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitlistStatusTransitions(t *testing.T) {
	tests := []struct {
		from WaitlistStatus
		to   WaitlistStatus
		want bool
	}{
		{WaitlistStatusWaiting, WaitlistStatusNotified, true},
		{WaitlistStatusWaiting, WaitlistStatusAccepted, false},
		{WaitlistStatusNotified, WaitlistStatusAccepted, true},
		{WaitlistStatusNotified, WaitlistStatusDeclined, true},
		{WaitlistStatusNotified, WaitlistStatusExpired, true},
		{WaitlistStatusAccepted, WaitlistStatusBooked, true},
		{WaitlistStatusAccepted, WaitlistStatusDeclined, false},
		{WaitlistStatusDeclined, WaitlistStatusNotified, false},
		{WaitlistStatusExpired, WaitlistStatusNotified, false},
		{WaitlistStatusBooked, WaitlistStatusWaiting, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestOfferExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	w := &WaitlistEntry{Status: WaitlistStatusNotified, NotificationExpiresAt: &future}
	assert.False(t, w.OfferExpired(now))

	w.NotificationExpiresAt = &past
	assert.True(t, w.OfferExpired(now))

	// Only notified entries hold an expirable offer.
	w.Status = WaitlistStatusAccepted
	assert.False(t, w.OfferExpired(now))

	w = &WaitlistEntry{Status: WaitlistStatusNotified}
	assert.False(t, w.OfferExpired(now))
}
