package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleStatusTransitions(t *testing.T) {
	tests := []struct {
		from ScheduleStatus
		to   ScheduleStatus
		want bool
	}{
		{ScheduleStatusPending, ScheduleStatusProcessing, true},
		{ScheduleStatusPending, ScheduleStatusCancelled, true},
		{ScheduleStatusPending, ScheduleStatusPaid, false},
		{ScheduleStatusProcessing, ScheduleStatusPaid, true},
		{ScheduleStatusProcessing, ScheduleStatusFailed, true},
		{ScheduleStatusProcessing, ScheduleStatusPending, true},
		{ScheduleStatusFailed, ScheduleStatusProcessing, true},
		{ScheduleStatusFailed, ScheduleStatusCancelled, true},
		{ScheduleStatusPaid, ScheduleStatusPending, false},
		{ScheduleStatusPaid, ScheduleStatusFailed, false},
		// Restore path only.
		{ScheduleStatusCancelled, ScheduleStatusPending, true},
		{ScheduleStatusCancelled, ScheduleStatusProcessing, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAttemptsExhausted(t *testing.T) {
	p := &PaymentSchedule{Attempts: 2, MaxAttempts: 3}
	assert.False(t, p.AttemptsExhausted())

	p.Attempts = 3
	assert.True(t, p.AttemptsExhausted())
}
