package usecase

import (
	"context"
	"testing"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReminderService(env *testEnv) ReminderService {
	return NewReminderService(env.repo, env.notify, zap.NewNop())
}

func TestReminderBucket(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-5, BucketOverdue},
		{-1, BucketOverdue},
		{0, BucketToday},
		{1, BucketTomorrow},
		{2, BucketThreeDay},
		{3, BucketThreeDay},
		{4, BucketOneWeek},
		{7, BucketOneWeek},
		{8, BucketTwoWeeks},
		{14, BucketTwoWeeks},
		{15, BucketNone},
		{60, BucketNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReminderBucket(tt.days), "days %d", tt.days)
	}
}

func TestRunPaymentRemindersSendsOncePerBucketPerDay(t *testing.T) {
	env := newTestEnv()
	booking := seedBooking(env, true)
	row := seedSchedule(env, booking.ID, 2, 45000, time.Now().AddDate(0, 0, 3), entity.ScheduleStatusPending)
	svc := newReminderService(env)

	sent, err := svc.RunPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.NotNil(t, row.LastReminderBucket)
	assert.Equal(t, BucketThreeDay, *row.LastReminderBucket)
	require.Len(t, env.notify.sent, 1)
	assert.Equal(t, notifier.KindPaymentReminder, env.notify.sent[0].kind)
	assert.Equal(t, BucketThreeDay, env.notify.sent[0].data["urgency"])

	// Second run the same day says nothing new.
	sent, err = svc.RunPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, env.notify.sent, 1)
}

func TestRunPaymentRemindersEscalatesBucket(t *testing.T) {
	env := newTestEnv()
	booking := seedBooking(env, true)
	row := seedSchedule(env, booking.ID, 2, 45000, time.Now().AddDate(0, 0, 1), entity.ScheduleStatusPending)
	// Stamped earlier today from a less urgent bucket.
	bucket := BucketOneWeek
	stamped := utils.DateOnly(time.Now())
	row.LastReminderBucket = &bucket
	row.LastReminderSentOn = &stamped

	sent, err := newReminderService(env).RunPaymentReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	assert.Equal(t, BucketTomorrow, *row.LastReminderBucket)
}

func TestRunPaymentRemindersIncludesOverdue(t *testing.T) {
	env := newTestEnv()
	booking := seedBooking(env, true)
	seedSchedule(env, booking.ID, 2, 45000, time.Now().AddDate(0, 0, -4), entity.ScheduleStatusPending)

	sent, err := newReminderService(env).RunPaymentReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	require.Len(t, env.notify.sent, 1)
	assert.Equal(t, BucketOverdue, env.notify.sent[0].data["urgency"])
}

func TestRunPaymentRemindersSkipsCancelledBooking(t *testing.T) {
	env := newTestEnv()
	booking := seedBooking(env, true)
	booking.Status = entity.BookingStatusCancelled
	seedSchedule(env, booking.ID, 2, 45000, time.Now().AddDate(0, 0, 3), entity.ScheduleStatusPending)

	sent, err := newReminderService(env).RunPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, env.notify.sent)
}

func TestRunPaymentRemindersIgnoresFarFuture(t *testing.T) {
	env := newTestEnv()
	booking := seedBooking(env, true)
	seedSchedule(env, booking.ID, 2, 45000, time.Now().AddDate(0, 2, 0), entity.ScheduleStatusPending)

	sent, err := newReminderService(env).RunPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRunRetreatRemindersStampsOnce(t *testing.T) {
	env := newTestEnv()
	retreat := seedRetreat(env, time.Now().AddDate(0, 0, tripReminderDays))
	booking := seedBooking(env, true)
	booking.RetreatID = retreat.ID
	svc := newReminderService(env)

	sent, err := svc.RunRetreatReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.NotNil(t, booking.TripReminderSentOn)

	require.Len(t, env.notify.sent, 1)
	assert.Equal(t, notifier.KindTripReminder, env.notify.sent[0].kind)
	assert.Equal(t, retreat.Name, env.notify.sent[0].data["retreat_name"])

	sent, err = svc.RunRetreatReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRunRetreatRemindersSkipsOtherStartDates(t *testing.T) {
	env := newTestEnv()
	retreat := seedRetreat(env, time.Now().AddDate(0, 0, tripReminderDays+1))
	booking := seedBooking(env, true)
	booking.RetreatID = retreat.ID

	sent, err := newReminderService(env).RunRetreatReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}
