package usecase

import (
	"time"
)

// Payment plan policy:
//   - 2+ whole calendar months before the retreat: deposit now, 50% two
//     months out, remainder one month out. The remainder absorbs all
//     rounding, so the installments always sum exactly to the total.
//   - under 2 months (late booking): 50% now, 50% one month out, and the
//     early-bird discount is forfeited.
//   - full payment: a single installment for the whole amount, due now.
// All amounts are int64 minor units; percentages round half-up to a cent.

type ScheduleInput struct {
	TotalPrice        int64
	BookingDate       time.Time
	RetreatStart      time.Time
	EarlyBirdEligible bool
	EarlyBirdPct      int
	DepositPct        int
	FullPayment       bool
}

type Installment struct {
	Number  int
	Label   string
	Amount  int64
	DueDate time.Time
}

type SchedulePlan struct {
	Installments      []Installment
	TotalAmount       int64
	EarlyBirdDiscount int64
	LateBooking       bool
}

const (
	defaultDepositPct   = 10
	defaultEarlyBirdPct = 10
	lateBookingMonths   = 2
)

// MonthsBetween counts whole calendar months from one date to another,
// day-of-month aware: the 31st to a month with no 31st is not a whole month.
// Never negative.
func MonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// percentOf rounds half-up to the minor unit.
func percentOf(amount int64, pct int) int64 {
	return (amount*int64(pct) + 50) / 100
}

// ComputeSchedule derives the installment plan for a booking. Pure: no I/O,
// no clock reads.
func ComputeSchedule(in ScheduleInput) SchedulePlan {
	depositPct := in.DepositPct
	if depositPct <= 0 {
		depositPct = defaultDepositPct
	}
	earlyBirdPct := in.EarlyBirdPct
	if earlyBirdPct <= 0 {
		earlyBirdPct = defaultEarlyBirdPct
	}

	months := MonthsBetween(in.BookingDate, in.RetreatStart)
	late := months < lateBookingMonths

	total := in.TotalPrice
	var discount int64
	// A late booker forfeits early-bird even when otherwise eligible.
	if in.EarlyBirdEligible && !late {
		discount = percentOf(total, earlyBirdPct)
		total -= discount
	}

	plan := SchedulePlan{
		TotalAmount:       total,
		EarlyBirdDiscount: discount,
		LateBooking:       late,
	}

	if in.FullPayment {
		plan.Installments = []Installment{
			{Number: 1, Label: "Full payment", Amount: total, DueDate: in.BookingDate},
		}
		return plan
	}

	if late {
		first := percentOf(total, 50)
		plan.Installments = []Installment{
			{Number: 1, Label: "First installment", Amount: first, DueDate: in.BookingDate},
			{Number: 2, Label: "Final installment", Amount: total - first, DueDate: in.RetreatStart.AddDate(0, -1, 0)},
		}
		return plan
	}

	deposit := percentOf(total, depositPct)
	second := percentOf(total, 50)
	plan.Installments = []Installment{
		{Number: 1, Label: "Deposit", Amount: deposit, DueDate: in.BookingDate},
		{Number: 2, Label: "Second installment", Amount: second, DueDate: in.RetreatStart.AddDate(0, -2, 0)},
		{Number: 3, Label: "Final installment", Amount: total - deposit - second, DueDate: in.RetreatStart.AddDate(0, -1, 0)},
	}
	return plan
}
