// Package worker hosts the in-process cron jobs driving the payment
// lifecycle: due charges, stale-claim recovery, waitlist expiry, and
// reminders. Jobs delegate to the services and are safe under overlapping
// runs because every claim underneath is a conditional update.
package worker

import (
	"context"
	"time"

	"retreat-booking/internal/usecase"

	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Minute

type Jobs struct {
	payments  usecase.PaymentService
	waitlist  usecase.WaitlistService
	reminders usecase.ReminderService
	log       *zap.Logger
}

func NewJobs(payments usecase.PaymentService, waitlist usecase.WaitlistService, reminders usecase.ReminderService, log *zap.Logger) *Jobs {
	return &Jobs{
		payments:  payments,
		waitlist:  waitlist,
		reminders: reminders,
		log:       log.With(zap.String("component", "worker")),
	}
}

func (j *Jobs) RunDueCharges() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := j.payments.RunDueCharges(ctx); err != nil {
		j.log.Error("Due charge job failed", zap.Error(err))
	}
}

func (j *Jobs) ReclaimStaleProcessing() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.payments.ReclaimStaleProcessing(ctx); err != nil {
		j.log.Error("Stale reclaim job failed", zap.Error(err))
	}
}

func (j *Jobs) SweepWaitlistOffers() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.waitlist.ExpireOffers(ctx); err != nil {
		j.log.Error("Waitlist sweep job failed", zap.Error(err))
	}
}

func (j *Jobs) RunPaymentReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.reminders.RunPaymentReminders(ctx); err != nil {
		j.log.Error("Payment reminder job failed", zap.Error(err))
	}
}

func (j *Jobs) RunTripReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.reminders.RunRetreatReminders(ctx); err != nil {
		j.log.Error("Trip reminder job failed", zap.Error(err))
	}
}
