package worker

import (
	"fmt"

	"retreat-booking/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// cronLogger adapts zap to cron's logging interface.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(jobs *Jobs, config *utils.Config, log *zap.Logger) (*Scheduler, error) {
	logger := cronLogger{log: log.Named("cron").Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(logger)))

	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"due_charges", config.Jobs.DueCharges, jobs.RunDueCharges},
		{"stale_reclaim", config.Jobs.StaleReclaim, jobs.ReclaimStaleProcessing},
		{"waitlist_sweep", config.Jobs.WaitlistSweep, jobs.SweepWaitlistOffers},
		{"payment_reminders", config.Jobs.PaymentReminders, jobs.RunPaymentReminders},
		{"trip_reminders", config.Jobs.TripReminders, jobs.RunTripReminders},
	}

	for _, entry := range entries {
		if _, err := c.AddFunc(entry.spec, entry.fn); err != nil {
			return nil, fmt.Errorf("register job %s with spec %q: %w", entry.name, entry.spec, err)
		}
		log.Info("Job registered",
			zap.String("job", entry.name),
			zap.String("schedule", entry.spec),
		)
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}
