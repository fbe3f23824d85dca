package usecase

import (
	"context"
	"sort"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/data/repository"
	"retreat-booking/pkg/gateway"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"github.com/google/uuid"
)

// In-memory fakes. Each embeds its repository interface so only the methods a
// test exercises need an implementation; calling anything else panics, which
// is exactly what we want from a test double.

type fakeRetreatRepo struct {
	repository.RetreatRepository
	retreats map[uuid.UUID]*entity.Retreat
}

func (f *fakeRetreatRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Retreat, error) {
	return f.retreats[id], nil
}

type fakeRoomRepo struct {
	repository.RoomRepository
	rooms        map[uuid.UUID]*entity.Room
	incrementErr error
}

func (f *fakeRoomRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	return f.rooms[id], nil
}

func (f *fakeRoomRepo) TryDecrementAvailable(ctx context.Context, roomID uuid.UUID, amount int) (bool, error) {
	room, ok := f.rooms[roomID]
	if !ok || room.Available < amount {
		return false, nil
	}
	room.Available -= amount
	return true, nil
}

func (f *fakeRoomRepo) IncrementAvailable(ctx context.Context, roomID uuid.UUID, amount int) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.rooms[roomID].Available += amount
	return nil
}

type fakeBookingRepo struct {
	repository.BookingRepository
	bookings      map[uuid.UUID]*entity.Booking
	retreats      map[uuid.UUID]*entity.Retreat
	updateRoomErr error
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return f.bookings[id], nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus, cancelReason *string) error {
	b := f.bookings[bookingID]
	b.Status = status
	b.CancelReason = cancelReason
	return nil
}

func (f *fakeBookingRepo) UpdatePaymentState(ctx context.Context, bookingID uuid.UUID, state entity.PaymentState, balanceDue int64) error {
	b := f.bookings[bookingID]
	b.PaymentState = state
	b.BalanceDue = balanceDue
	return nil
}

func (f *fakeBookingRepo) UpdateRoom(ctx context.Context, bookingID uuid.UUID, roomID *uuid.UUID) error {
	if f.updateRoomErr != nil {
		return f.updateRoomErr
	}
	f.bookings[bookingID].RoomID = roomID
	return nil
}

func (f *fakeBookingRepo) FindTripReminderDue(ctx context.Context, startDate time.Time) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.TripReminderSentOn != nil || b.Status == entity.BookingStatusCancelled {
			continue
		}
		r := f.retreats[b.RetreatID]
		if r != nil && utils.DateOnly(r.StartDate).Equal(utils.DateOnly(startDate)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) StampTripReminder(ctx context.Context, bookingID uuid.UUID, sentOn time.Time) error {
	f.bookings[bookingID].TripReminderSentOn = &sentOn
	return nil
}

type fakeScheduleRepo struct {
	repository.PaymentScheduleRepository
	rows map[uuid.UUID]*entity.PaymentSchedule
}

func (f *fakeScheduleRepo) CreateBatch(ctx context.Context, schedules []*entity.PaymentSchedule) error {
	for _, s := range schedules {
		f.rows[s.ID] = s
	}
	return nil
}

func (f *fakeScheduleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentSchedule, error) {
	return f.rows[id], nil
}

func (f *fakeScheduleRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentSchedule, error) {
	var out []*entity.PaymentSchedule
	for _, s := range f.rows {
		if s.BookingID == bookingID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentNumber < out[j].PaymentNumber })
	return out, nil
}

func (f *fakeScheduleRepo) FindDue(ctx context.Context, asOf time.Time) ([]*entity.PaymentSchedule, error) {
	var out []*entity.PaymentSchedule
	for _, s := range f.rows {
		if s.Status == entity.ScheduleStatusPending && !s.DueDate.After(asOf) && s.PaymentNumber > 1 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentNumber < out[j].PaymentNumber })
	return out, nil
}

func (f *fakeScheduleRepo) FindRetryEligible(ctx context.Context, asOf time.Time) ([]*entity.PaymentSchedule, error) {
	var out []*entity.PaymentSchedule
	for _, s := range f.rows {
		if s.Status == entity.ScheduleStatusFailed && s.Attempts < s.MaxAttempts &&
			s.NextRetryAt != nil && !s.NextRetryAt.After(asOf) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ClaimProcessing(ctx context.Context, id uuid.UUID, from entity.ScheduleStatus, at time.Time) (bool, error) {
	s := f.rows[id]
	if s == nil || s.Status != from {
		return false, nil
	}
	s.Status = entity.ScheduleStatusProcessing
	s.LastAttemptAt = &at
	return true, nil
}

func (f *fakeScheduleRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	s := f.rows[id]
	s.Status = entity.ScheduleStatusPaid
	s.PaidAt = &paidAt
	s.FailureReason = nil
	s.NextRetryAt = nil
	return nil
}

func (f *fakeScheduleRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string, attempts int, nextRetryAt *time.Time) error {
	s := f.rows[id]
	s.Status = entity.ScheduleStatusFailed
	s.FailureReason = &reason
	s.Attempts = attempts
	s.NextRetryAt = nextRetryAt
	return nil
}

func (f *fakeScheduleRepo) RevertToPending(ctx context.Context, id uuid.UUID, reason string) error {
	s := f.rows[id]
	s.Status = entity.ScheduleStatusPending
	s.FailureReason = &reason
	return nil
}

func (f *fakeScheduleRepo) CancelOpen(ctx context.Context, bookingID uuid.UUID, reason string) (int64, error) {
	var n int64
	for _, s := range f.rows {
		if s.BookingID != bookingID {
			continue
		}
		switch s.Status {
		case entity.ScheduleStatusPending, entity.ScheduleStatusProcessing, entity.ScheduleStatusFailed:
			s.Status = entity.ScheduleStatusCancelled
			s.FailureReason = &reason
			n++
		}
	}
	return n, nil
}

func (f *fakeScheduleRepo) ResetForRestore(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	s := f.rows[id]
	s.Status = entity.ScheduleStatusPending
	s.DueDate = dueDate
	s.Attempts = 0
	s.FailureReason = nil
	s.NextRetryAt = nil
	return nil
}

func (f *fakeScheduleRepo) FindReminderCandidates(ctx context.Context, dueBefore time.Time) ([]*entity.PaymentSchedule, error) {
	var out []*entity.PaymentSchedule
	for _, s := range f.rows {
		if s.Status == entity.ScheduleStatusPending && !s.DueDate.After(dueBefore) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakeScheduleRepo) StampReminder(ctx context.Context, id uuid.UUID, bucket string, sentOn time.Time) error {
	s := f.rows[id]
	s.LastReminderBucket = &bucket
	s.LastReminderSentOn = &sentOn
	return nil
}

type fakePaymentRepo struct {
	repository.PaymentRepository
	created []*entity.Payment
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	f.created = append(f.created, payment)
	return nil
}

type fakeWaitlistRepo struct {
	repository.WaitlistRepository
	entries map[uuid.UUID]*entity.WaitlistEntry
}

func (f *fakeWaitlistRepo) Create(ctx context.Context, entry *entity.WaitlistEntry) error {
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeWaitlistRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.WaitlistEntry, error) {
	return f.entries[id], nil
}

func (f *fakeWaitlistRepo) NextPosition(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) (int, error) {
	max := 0
	for _, e := range f.entries {
		if e.RetreatID == retreatID && sameRoom(e.RoomID, roomID) && e.Position > max {
			max = e.Position
		}
	}
	return max + 1, nil
}

func (f *fakeWaitlistRepo) FindNextWaiting(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID) (*entity.WaitlistEntry, error) {
	var next *entity.WaitlistEntry
	for _, e := range f.entries {
		if e.RetreatID != retreatID || !sameRoom(e.RoomID, roomID) || e.Status != entity.WaitlistStatusWaiting {
			continue
		}
		if next == nil || e.Position < next.Position {
			next = e
		}
	}
	return next, nil
}

func (f *fakeWaitlistRepo) HasActiveOffer(ctx context.Context, retreatID uuid.UUID, roomID *uuid.UUID, now time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.RetreatID == retreatID && sameRoom(e.RoomID, roomID) &&
			e.Status == entity.WaitlistStatusNotified &&
			e.NotificationExpiresAt != nil && e.NotificationExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWaitlistRepo) MarkNotified(ctx context.Context, id uuid.UUID, expiresAt time.Time) (bool, error) {
	e := f.entries[id]
	if e == nil || e.Status != entity.WaitlistStatusWaiting {
		return false, nil
	}
	e.Status = entity.WaitlistStatusNotified
	e.NotificationExpiresAt = &expiresAt
	return true, nil
}

func (f *fakeWaitlistRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.WaitlistStatus) (bool, error) {
	e := f.entries[id]
	if e == nil || e.Status != from {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func (f *fakeWaitlistRepo) FindExpiredOffers(ctx context.Context, now time.Time) ([]*entity.WaitlistEntry, error) {
	var out []*entity.WaitlistEntry
	for _, e := range f.entries {
		if e.Status == entity.WaitlistStatusNotified &&
			e.NotificationExpiresAt != nil && !e.NotificationExpiresAt.After(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func sameRoom(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakePromoRepo struct {
	repository.PromoCodeRepository
	codes       map[string]*entity.PromoCode
	redemptions map[uuid.UUID]uuid.UUID // booking -> promo
}

func (f *fakePromoRepo) FindByCode(ctx context.Context, code string) (*entity.PromoCode, error) {
	return f.codes[code], nil
}

func (f *fakePromoRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	for _, p := range f.codes {
		if p.ID == id {
			p.UsageCount++
		}
	}
	return nil
}

func (f *fakePromoRepo) DecrementUsage(ctx context.Context, id uuid.UUID) error {
	for _, p := range f.codes {
		if p.ID == id && p.UsageCount > 0 {
			p.UsageCount--
		}
	}
	return nil
}

func (f *fakePromoRepo) CreateRedemption(ctx context.Context, redemption *entity.PromoCodeRedemption) error {
	f.redemptions[redemption.BookingID] = redemption.PromoCodeID
	return nil
}

func (f *fakePromoRepo) DeleteRedemptionByBookingID(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	if _, ok := f.redemptions[bookingID]; !ok {
		return false, nil
	}
	delete(f.redemptions, bookingID)
	return true, nil
}

type fakeAuditRepo struct {
	repository.AuditRepository
	records []*entity.AuditLog
}

func (f *fakeAuditRepo) Create(ctx context.Context, record *entity.AuditLog) error {
	f.records = append(f.records, record)
	return nil
}

// fakeGateway scripts charge outcomes and records requests.
type fakeGateway struct {
	result   *gateway.ChargeResult
	err      error
	requests []gateway.ChargeRequest
}

func (f *fakeGateway) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	return "cus_test", nil
}

func (f *fakeGateway) CreatePaymentLink(ctx context.Context, reference string, amount int64, currency string) (string, error) {
	return "https://pay.test/" + reference, nil
}

type sentNotification struct {
	kind      notifier.Kind
	recipient string
	data      map[string]any
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Send(ctx context.Context, kind notifier.Kind, recipient string, data map[string]any) error {
	f.sent = append(f.sent, sentNotification{kind: kind, recipient: recipient, data: data})
	return nil
}

func (f *fakeNotifier) Close() {}

func (f *fakeNotifier) kinds() []notifier.Kind {
	out := make([]notifier.Kind, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.kind)
	}
	return out
}

type fakeTokenStore struct {
	tokens map[string]uuid.UUID
}

func (f *fakeTokenStore) StoreOfferToken(ctx context.Context, token string, entryID uuid.UUID, ttl time.Duration) error {
	f.tokens[token] = entryID
	return nil
}

func (f *fakeTokenStore) LookupOfferToken(ctx context.Context, token string) (uuid.UUID, error) {
	return f.tokens[token], nil
}

func (f *fakeTokenStore) ConsumeOfferToken(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

// testEnv bundles the fakes behind a fully assembled Repository.
type testEnv struct {
	repo     *repository.Repository
	retreats *fakeRetreatRepo
	rooms    *fakeRoomRepo
	bookings *fakeBookingRepo
	rows     *fakeScheduleRepo
	payments *fakePaymentRepo
	waitlist *fakeWaitlistRepo
	promos   *fakePromoRepo
	audits   *fakeAuditRepo
	gateway  *fakeGateway
	notify   *fakeNotifier
	tokens   *fakeTokenStore
	config   *utils.Config
}

func newTestEnv() *testEnv {
	env := &testEnv{
		retreats: &fakeRetreatRepo{retreats: map[uuid.UUID]*entity.Retreat{}},
		rooms:    &fakeRoomRepo{rooms: map[uuid.UUID]*entity.Room{}},
		bookings: &fakeBookingRepo{bookings: map[uuid.UUID]*entity.Booking{}},
		rows:     &fakeScheduleRepo{rows: map[uuid.UUID]*entity.PaymentSchedule{}},
		payments: &fakePaymentRepo{},
		waitlist: &fakeWaitlistRepo{entries: map[uuid.UUID]*entity.WaitlistEntry{}},
		promos:   &fakePromoRepo{codes: map[string]*entity.PromoCode{}, redemptions: map[uuid.UUID]uuid.UUID{}},
		audits:   &fakeAuditRepo{},
		gateway:  &fakeGateway{},
		notify:   &fakeNotifier{},
		tokens:   &fakeTokenStore{tokens: map[string]uuid.UUID{}},
		config: &utils.Config{
			App: utils.AppConfig{Currency: "usd"},
			Payments: utils.PaymentsConfig{
				DepositPct:           10,
				EarlyBirdPct:         10,
				MaxAttempts:          3,
				RetryDelayHours:      24,
				ProcessingStaleHours: 2,
				WaitlistHoldHours:    72,
			},
		},
	}
	env.bookings.retreats = env.retreats.retreats
	env.repo = &repository.Repository{
		Retreat:         env.retreats,
		Room:            env.rooms,
		Booking:         env.bookings,
		PaymentSchedule: env.rows,
		Payment:         env.payments,
		Waitlist:        env.waitlist,
		PromoCode:       env.promos,
		Audit:           env.audits,
	}
	return env
}

func strPtr(s string) *string { return &s }
