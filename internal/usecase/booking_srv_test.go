package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/dto/request"
	"retreat-booking/pkg/notifier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingService(env *testEnv) BookingService {
	payments := NewPaymentService(env.repo, env.gateway, env.notify, env.config, zap.NewNop())
	waitlist := NewWaitlistService(env.repo, env.notify, env.tokens, env.config, zap.NewNop())
	return NewBookingService(env.repo, env.gateway, env.notify, payments, waitlist, env.config, zap.NewNop())
}

func seedRetreat(env *testEnv, start time.Time) *entity.Retreat {
	retreat := &entity.Retreat{
		Base:      entity.Base{ID: uuid.New()},
		Name:      "Alpine Yoga Week",
		Location:  "Chamonix",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 7),
		BasePrice: 100000,
	}
	env.retreats.retreats[retreat.ID] = retreat
	return retreat
}

func seedRoom(env *testEnv, retreatID uuid.UUID, capacity, available int) *entity.Room {
	room := &entity.Room{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		RetreatID:    retreatID,
		Name:         "Lakeview Double",
		Capacity:     capacity,
		Available:    available,
	}
	env.rooms.rooms[room.ID] = room
	return room
}

func TestCheckoutCreatesBookingAndPlan(t *testing.T) {
	env := newTestEnv()
	retreat := seedRetreat(env, time.Now().AddDate(0, 4, 0))
	room := seedRoom(env, retreat.ID, 4, 4)

	resp, err := newBookingService(env).Checkout(context.Background(), &request.CheckoutRequest{
		RetreatID:   retreat.ID.String(),
		RoomID:      room.ID.String(),
		GuestName:   "Ben Okafor",
		GuestEmail:  "ben@example.com",
		GuestsCount: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Booking.Status)
	assert.Equal(t, "unpaid", resp.Booking.PaymentStatus)
	assert.Equal(t, "1000.00", resp.Booking.TotalAmount)
	require.Len(t, resp.Schedules, 3)
	assert.Equal(t, "100.00", resp.Schedules[0].Amount)
	assert.Equal(t, "500.00", resp.Schedules[1].Amount)
	assert.Equal(t, "400.00", resp.Schedules[2].Amount)

	// No instrument on file means a hosted payment link instead of a charge.
	assert.NotEmpty(t, resp.PaymentLink)
	assert.Empty(t, env.gateway.requests)

	assert.Equal(t, 3, room.Available)
	assert.Contains(t, env.notify.kinds(), notifier.KindBookingCreated)
	require.Len(t, env.audits.records, 1)
	assert.Equal(t, "booking.created", env.audits.records[0].Action)
}

func TestCheckoutCapacityConflict(t *testing.T) {
	env := newTestEnv()
	retreat := seedRetreat(env, time.Now().AddDate(0, 4, 0))
	room := seedRoom(env, retreat.ID, 2, 1)

	_, err := newBookingService(env).Checkout(context.Background(), &request.CheckoutRequest{
		RetreatID:   retreat.ID.String(),
		RoomID:      room.ID.String(),
		GuestName:   "Ben Okafor",
		GuestEmail:  "ben@example.com",
		GuestsCount: 2,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoomUnavailable))
	assert.Empty(t, env.bookings.bookings)
	assert.Equal(t, 1, room.Available)
}

func TestCheckoutRejectsStartedRetreat(t *testing.T) {
	env := newTestEnv()
	retreat := seedRetreat(env, time.Now().AddDate(0, 0, -1))

	_, err := newBookingService(env).Checkout(context.Background(), &request.CheckoutRequest{
		RetreatID:   retreat.ID.String(),
		GuestName:   "Ben Okafor",
		GuestEmail:  "ben@example.com",
		GuestsCount: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestCheckoutAppliesPromoCode(t *testing.T) {
	env := newTestEnv()
	retreat := seedRetreat(env, time.Now().AddDate(0, 4, 0))
	promo := &entity.PromoCode{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Code:         "SPRING10",
		DiscountPct:  10,
		MaxUses:      5,
	}
	env.promos.codes[promo.Code] = promo

	resp, err := newBookingService(env).Checkout(context.Background(), &request.CheckoutRequest{
		RetreatID:   retreat.ID.String(),
		GuestName:   "Ben Okafor",
		GuestEmail:  "ben@example.com",
		GuestsCount: 1,
		PromoCode:   "SPRING10",
	})
	require.NoError(t, err)

	assert.Equal(t, "900.00", resp.Booking.TotalAmount)
	assert.Equal(t, "100.00", resp.PromoDiscount)
	assert.Equal(t, 1, promo.UsageCount)
	assert.Len(t, env.promos.redemptions, 1)
}

func seedActiveBooking(env *testEnv) (*entity.Booking, *entity.Room) {
	retreat := seedRetreat(env, time.Now().AddDate(0, 3, 0))
	room := seedRoom(env, retreat.ID, 4, 2)
	booking := seedBooking(env, true)
	booking.RetreatID = retreat.ID
	booking.RoomID = &room.ID
	return booking, room
}

func TestCancelRunsAllSideEffects(t *testing.T) {
	env := newTestEnv()
	booking, room := seedActiveBooking(env)
	promo := &entity.PromoCode{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Code:         "SPRING10",
		DiscountPct:  10,
		UsageCount:   1,
	}
	env.promos.codes[promo.Code] = promo
	env.promos.redemptions[booking.ID] = promo.ID
	booking.PromoCodeID = &promo.ID
	open := seedSchedule(env, booking.ID, 2, 45000, time.Now().AddDate(0, 1, 0), entity.ScheduleStatusPending)
	paid := seedSchedule(env, booking.ID, 1, 9000, time.Now().AddDate(0, -1, 0), entity.ScheduleStatusPaid)

	err := newBookingService(env).Cancel(context.Background(), booking.ID.String(), "guest request", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	require.NotNil(t, booking.CancelReason)
	assert.Equal(t, "guest request", *booking.CancelReason)

	assert.Equal(t, entity.ScheduleStatusCancelled, open.Status)
	// Settled money is never touched.
	assert.Equal(t, entity.ScheduleStatusPaid, paid.Status)

	assert.Equal(t, 4, room.Available)
	assert.Zero(t, promo.UsageCount)
	assert.Empty(t, env.promos.redemptions)

	require.Len(t, env.audits.records, 1)
	assert.Equal(t, "booking.cancelled", env.audits.records[0].Action)
	assert.Contains(t, env.notify.kinds(), notifier.KindBookingCancelled)
}

func TestCancelSurvivesRoomReleaseFailure(t *testing.T) {
	env := newTestEnv()
	booking, room := seedActiveBooking(env)
	env.rooms.incrementErr = errors.New("connection reset")

	err := newBookingService(env).Cancel(context.Background(), booking.ID.String(), "guest request", "admin-1")
	require.NoError(t, err)

	// The cancellation stands even though the release failed.
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	assert.Equal(t, 2, room.Available)
}

func TestCancelOffersFreedSlotToWaitlist(t *testing.T) {
	env := newTestEnv()
	booking, room := seedActiveBooking(env)
	entry := &entity.WaitlistEntry{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		RetreatID:    booking.RetreatID,
		RoomID:       &room.ID,
		GuestName:    "Cleo Park",
		GuestEmail:   "cleo@example.com",
		GuestsCount:  1,
		Position:     1,
		Status:       entity.WaitlistStatusWaiting,
	}
	env.waitlist.entries[entry.ID] = entry

	require.NoError(t, newBookingService(env).Cancel(context.Background(), booking.ID.String(), "guest request", "admin-1"))

	assert.Equal(t, entity.WaitlistStatusNotified, entry.Status)
	assert.Len(t, env.tokens.tokens, 1)
	assert.Contains(t, env.notify.kinds(), notifier.KindWaitlistOffer)
}

func TestCancelRejectsCompletedBooking(t *testing.T) {
	env := newTestEnv()
	booking, _ := seedActiveBooking(env)
	booking.Status = entity.BookingStatusCompleted

	err := newBookingService(env).Cancel(context.Background(), booking.ID.String(), "too late", "admin-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cancel")
}

func TestRestoreRevalidatesCapacity(t *testing.T) {
	env := newTestEnv()
	booking, room := seedActiveBooking(env)
	booking.Status = entity.BookingStatusCancelled
	row := seedSchedule(env, booking.ID, 1, 9000, time.Now().AddDate(0, -1, 0), entity.ScheduleStatusCancelled)

	resp, err := newBookingService(env).Restore(context.Background(), booking.ID.String(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusPending, booking.Status)
	assert.Equal(t, 0, room.Available)
	assert.Equal(t, entity.ScheduleStatusPending, row.Status)
	// Past due dates move to today.
	assert.False(t, row.DueDate.Before(time.Now().AddDate(0, 0, -1)))
	assert.NotEmpty(t, resp.PaymentLink)
	assert.Contains(t, env.notify.kinds(), notifier.KindBookingRestored)
}

func TestRestoreConflictsWhenRoomResold(t *testing.T) {
	env := newTestEnv()
	booking, room := seedActiveBooking(env)
	booking.Status = entity.BookingStatusCancelled
	room.Available = 1 // party of two no longer fits

	_, err := newBookingService(env).Restore(context.Background(), booking.ID.String(), "admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoomUnavailable))
	assert.Equal(t, entity.BookingStatusCancelled, booking.Status)
	assert.Equal(t, 1, room.Available)
}

func TestMoveRoomSwapsInventory(t *testing.T) {
	env := newTestEnv()
	booking, oldRoom := seedActiveBooking(env)
	newRoom := seedRoom(env, booking.RetreatID, 4, 3)

	err := newBookingService(env).MoveRoom(context.Background(), booking.ID.String(), newRoom.ID.String(), "admin-1")
	require.NoError(t, err)

	require.NotNil(t, booking.RoomID)
	assert.Equal(t, newRoom.ID, *booking.RoomID)
	assert.Equal(t, 1, newRoom.Available)
	assert.Equal(t, 4, oldRoom.Available)
}

func TestMoveRoomConflictLeavesBookingUntouched(t *testing.T) {
	env := newTestEnv()
	booking, oldRoom := seedActiveBooking(env)
	newRoom := seedRoom(env, booking.RetreatID, 2, 1)

	err := newBookingService(env).MoveRoom(context.Background(), booking.ID.String(), newRoom.ID.String(), "admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRoomUnavailable))

	assert.Equal(t, oldRoom.ID, *booking.RoomID)
	assert.Equal(t, 2, oldRoom.Available)
	assert.Equal(t, 1, newRoom.Available)
}

func TestMoveRoomCompensatesOnPointerUpdateFailure(t *testing.T) {
	env := newTestEnv()
	booking, oldRoom := seedActiveBooking(env)
	newRoom := seedRoom(env, booking.RetreatID, 4, 3)
	env.bookings.updateRoomErr = errors.New("write conflict")

	err := newBookingService(env).MoveRoom(context.Background(), booking.ID.String(), newRoom.ID.String(), "admin-1")
	require.Error(t, err)

	// Destination reservation was rolled back, source untouched.
	assert.Equal(t, 3, newRoom.Available)
	assert.Equal(t, 2, oldRoom.Available)
	assert.Equal(t, oldRoom.ID, *booking.RoomID)
}

func TestCompleteRequiresConfirmedBooking(t *testing.T) {
	env := newTestEnv()
	booking, _ := seedActiveBooking(env)
	svc := newBookingService(env)

	err := svc.Complete(context.Background(), booking.ID.String(), "admin-1")
	require.Error(t, err)

	booking.Status = entity.BookingStatusConfirmed
	require.NoError(t, svc.Complete(context.Background(), booking.ID.String(), "admin-1"))
	assert.Equal(t, entity.BookingStatusCompleted, booking.Status)
}
