package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"exact three months", date(2026, 1, 15), date(2026, 4, 15), 3},
		{"one day short of a month", date(2026, 1, 15), date(2026, 2, 14), 0},
		{"exactly one month", date(2026, 1, 15), date(2026, 2, 15), 1},
		{"five weeks", date(2026, 1, 1), date(2026, 2, 5), 1},
		{"end of month rounds down", date(2026, 1, 31), date(2026, 3, 1), 1},
		{"across year boundary", date(2025, 11, 10), date(2026, 2, 10), 3},
		{"same day", date(2026, 1, 15), date(2026, 1, 15), 0},
		{"past never negative", date(2026, 4, 15), date(2026, 1, 15), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsBetween(tt.from, tt.to))
		})
	}
}

func TestPercentOfRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(53), percentOf(105, 50)) // 52.5 rounds up
	assert.Equal(t, int64(52), percentOf(104, 50))
	assert.Equal(t, int64(10), percentOf(100, 10))
	assert.Equal(t, int64(1), percentOf(5, 10)) // 0.5 rounds up
}

func TestComputeScheduleStandardWithEarlyBird(t *testing.T) {
	booking := date(2026, 1, 15)
	start := date(2026, 4, 15)

	plan := ComputeSchedule(ScheduleInput{
		TotalPrice:        100000,
		BookingDate:       booking,
		RetreatStart:      start,
		EarlyBirdEligible: true,
		EarlyBirdPct:      10,
		DepositPct:        10,
	})

	assert.False(t, plan.LateBooking)
	assert.Equal(t, int64(10000), plan.EarlyBirdDiscount)
	assert.Equal(t, int64(90000), plan.TotalAmount)

	require.Len(t, plan.Installments, 3)
	assert.Equal(t, int64(9000), plan.Installments[0].Amount)
	assert.Equal(t, booking, plan.Installments[0].DueDate)
	assert.Equal(t, int64(45000), plan.Installments[1].Amount)
	assert.Equal(t, date(2026, 2, 15), plan.Installments[1].DueDate)
	assert.Equal(t, int64(36000), plan.Installments[2].Amount)
	assert.Equal(t, date(2026, 3, 15), plan.Installments[2].DueDate)
}

func TestComputeScheduleLateBookingForfeitsEarlyBird(t *testing.T) {
	booking := date(2026, 1, 1)
	start := date(2026, 2, 5) // five weeks out

	plan := ComputeSchedule(ScheduleInput{
		TotalPrice:        100000,
		BookingDate:       booking,
		RetreatStart:      start,
		EarlyBirdEligible: true,
		EarlyBirdPct:      10,
	})

	assert.True(t, plan.LateBooking)
	assert.Zero(t, plan.EarlyBirdDiscount)
	assert.Equal(t, int64(100000), plan.TotalAmount)

	require.Len(t, plan.Installments, 2)
	assert.Equal(t, int64(50000), plan.Installments[0].Amount)
	assert.Equal(t, booking, plan.Installments[0].DueDate)
	assert.Equal(t, int64(50000), plan.Installments[1].Amount)
	assert.Equal(t, date(2026, 1, 5), plan.Installments[1].DueDate)
}

func TestComputeScheduleFullPayment(t *testing.T) {
	plan := ComputeSchedule(ScheduleInput{
		TotalPrice:        123457,
		BookingDate:       date(2026, 1, 10),
		RetreatStart:      date(2026, 6, 1),
		EarlyBirdEligible: true,
		EarlyBirdPct:      10,
		FullPayment:       true,
	})

	require.Len(t, plan.Installments, 1)
	assert.Equal(t, plan.TotalAmount, plan.Installments[0].Amount)
	assert.Equal(t, date(2026, 1, 10), plan.Installments[0].DueDate)
}

func TestComputeScheduleInstallmentsSumExactly(t *testing.T) {
	// The last installment absorbs rounding, so the plan must sum to the
	// total for awkward amounts too.
	amounts := []int64{100000, 99999, 33333, 10001, 7, 123457}
	for _, amount := range amounts {
		plan := ComputeSchedule(ScheduleInput{
			TotalPrice:        amount,
			BookingDate:       date(2026, 1, 15),
			RetreatStart:      date(2026, 7, 20),
			EarlyBirdEligible: true,
			EarlyBirdPct:      10,
			DepositPct:        10,
		})

		var sum int64
		for _, inst := range plan.Installments {
			sum += inst.Amount
		}
		assert.Equal(t, plan.TotalAmount, sum, "amount %d", amount)
	}
}

func TestComputeScheduleLateSumsExactly(t *testing.T) {
	for _, amount := range []int64{99999, 33333, 1} {
		plan := ComputeSchedule(ScheduleInput{
			TotalPrice:   amount,
			BookingDate:  date(2026, 1, 1),
			RetreatStart: date(2026, 2, 10),
		})

		require.Len(t, plan.Installments, 2)
		assert.Equal(t, plan.TotalAmount, plan.Installments[0].Amount+plan.Installments[1].Amount)
	}
}

func TestComputeScheduleTwoMonthBoundary(t *testing.T) {
	// Exactly two whole months is the standard path, one day less is late.
	standard := ComputeSchedule(ScheduleInput{
		TotalPrice:   100000,
		BookingDate:  date(2026, 1, 15),
		RetreatStart: date(2026, 3, 15),
	})
	assert.False(t, standard.LateBooking)
	assert.Len(t, standard.Installments, 3)

	late := ComputeSchedule(ScheduleInput{
		TotalPrice:   100000,
		BookingDate:  date(2026, 1, 16),
		RetreatStart: date(2026, 3, 15),
	})
	assert.True(t, late.LateBooking)
	assert.Len(t, late.Installments, 2)
}
