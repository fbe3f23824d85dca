package usecase

import (
	"context"
	"fmt"
	"time"

	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/data/repository"
	"retreat-booking/internal/dto/request"
	"retreat-booking/internal/dto/response"
	"retreat-booking/pkg/gateway"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	Checkout(ctx context.Context, req *request.CheckoutRequest) (*response.CheckoutResponse, error)
	GetBooking(ctx context.Context, id string) (*response.BookingDetailResponse, error)
	ListBookings(ctx context.Context, page, limit int) (*response.BookingListResponse, error)

	// Admin operations.
	Cancel(ctx context.Context, id, reason, actor string) error
	Restore(ctx context.Context, id, actor string) (*response.RestoreResponse, error)
	MoveRoom(ctx context.Context, id, newRoomID, actor string) error
	Complete(ctx context.Context, id, actor string) error
}

type bookingService struct {
	repo     *repository.Repository
	gateway  gateway.Client
	notify   notifier.Sender
	payments PaymentService
	waitlist WaitlistService
	config   *utils.Config
	log      *zap.Logger
}

func NewBookingService(repo *repository.Repository, gw gateway.Client, notify notifier.Sender, payments PaymentService, waitlist WaitlistService, config *utils.Config, log *zap.Logger) BookingService {
	return &bookingService{
		repo:     repo,
		gateway:  gw,
		notify:   notify,
		payments: payments,
		waitlist: waitlist,
		config:   config,
		log:      log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) Checkout(ctx context.Context, req *request.CheckoutRequest) (*response.CheckoutResponse, error) {
	now := time.Now()

	retreatID, err := uuid.Parse(req.RetreatID)
	if err != nil {
		return nil, fmt.Errorf("invalid retreat ID format %s: %w", req.RetreatID, err)
	}

	retreat, err := s.repo.Retreat.FindByID(ctx, retreatID)
	if err != nil {
		return nil, err
	}
	if retreat == nil {
		return nil, fmt.Errorf("retreat %s not found", req.RetreatID)
	}
	if retreat.HasStarted(now) {
		return nil, fmt.Errorf("retreat %s has already started", retreat.Name)
	}

	var room *entity.Room
	if req.RoomID != "" {
		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			return nil, fmt.Errorf("invalid room ID format %s: %w", req.RoomID, err)
		}
		room, err = s.repo.Room.FindByID(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, fmt.Errorf("room %s not found", req.RoomID)
		}
		if room.RetreatID != retreat.ID {
			return nil, fmt.Errorf("room %s does not belong to retreat %s", room.Name, retreat.Name)
		}
	}

	var wlEntry *entity.WaitlistEntry
	if req.WaitlistToken != "" {
		wlEntry, err = s.waitlist.ResolveToken(ctx, req.WaitlistToken)
		if err != nil {
			return nil, err
		}
		if wlEntry == nil {
			return nil, fmt.Errorf("waitlist token is invalid or expired")
		}
		if wlEntry.Status != entity.WaitlistStatusAccepted {
			return nil, fmt.Errorf("waitlist offer is %s, not accepted", wlEntry.Status)
		}
	}

	perGuest := retreat.BasePrice
	if room != nil {
		perGuest += room.PriceDelta
	}
	price := perGuest * int64(req.GuestsCount)

	var promo *entity.PromoCode
	var promoDiscount int64
	if req.PromoCode != "" {
		promo, err = s.repo.PromoCode.FindByCode(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		if promo == nil {
			return nil, fmt.Errorf("promo code %s not found", req.PromoCode)
		}
		if !promo.Usable(now) {
			return nil, fmt.Errorf("promo code %s is expired or exhausted", req.PromoCode)
		}
		promoDiscount = percentOf(price, promo.DiscountPct)
		price -= promoDiscount
	}

	plan := ComputeSchedule(ScheduleInput{
		TotalPrice:        price,
		BookingDate:       now,
		RetreatStart:      retreat.StartDate,
		EarlyBirdEligible: retreat.EarlyBirdEligible(now),
		EarlyBirdPct:      retreat.EarlyBirdDiscountPct,
		DepositPct:        s.config.Payments.DepositPct,
		FullPayment:       req.FullPayment,
	})

	// A waitlist accept already reserved this room's capacity; decrementing
	// again would double-count the party.
	reserved := wlEntry != nil && room != nil &&
		wlEntry.RoomID != nil && *wlEntry.RoomID == room.ID
	decremented := false
	if room != nil && !reserved {
		ok, err := s.repo.Room.TryDecrementAvailable(ctx, room.ID, req.GuestsCount)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("room %s: %w", room.Name, ErrRoomUnavailable)
		}
		decremented = true
	}

	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:    utils.GenerateReference(),
		RetreatID:    retreat.ID,
		GuestName:    req.GuestName,
		GuestEmail:   req.GuestEmail,
		GuestsCount:  req.GuestsCount,
		Status:       entity.BookingStatusPending,
		PaymentState: entity.PaymentStateUnpaid,
		TotalAmount:  plan.TotalAmount,
		BalanceDue:   plan.TotalAmount,
		Currency:     s.config.App.Currency,
	}
	if room != nil {
		booking.RoomID = &room.ID
	}
	if promo != nil {
		booking.PromoCodeID = &promo.ID
	}
	if req.CustomerRef != "" {
		booking.CustomerRef = &req.CustomerRef
	}
	if req.InstrumentRef != "" {
		booking.InstrumentRef = &req.InstrumentRef
	}
	if wlEntry != nil {
		booking.WaitlistEntryID = &wlEntry.ID
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		if decremented {
			if incErr := s.repo.Room.IncrementAvailable(ctx, room.ID, req.GuestsCount); incErr != nil {
				s.log.Error("Failed to release room after booking create failure",
					zap.Error(incErr),
					zap.String("room_id", room.ID.String()),
				)
			}
		}
		return nil, err
	}

	maxAttempts := s.config.Payments.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	schedules := make([]*entity.PaymentSchedule, 0, len(plan.Installments))
	for _, inst := range plan.Installments {
		schedules = append(schedules, &entity.PaymentSchedule{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID:     booking.ID,
			PaymentNumber: inst.Number,
			Label:         inst.Label,
			Amount:        inst.Amount,
			DueDate:       utils.DateOnly(inst.DueDate),
			Status:        entity.ScheduleStatusPending,
			MaxAttempts:   maxAttempts,
		})
	}
	if err := s.repo.PaymentSchedule.CreateBatch(ctx, schedules); err != nil {
		return nil, fmt.Errorf("create payment plan for booking %s: %w", booking.Reference, err)
	}

	if promo != nil {
		redemption := &entity.PromoCodeRedemption{
			BaseSimple:  entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			BookingID:   booking.ID,
			PromoCodeID: promo.ID,
		}
		if err := s.repo.PromoCode.CreateRedemption(ctx, redemption); err != nil {
			s.log.Error("Failed to record promo redemption",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
		} else if err := s.repo.PromoCode.IncrementUsage(ctx, promo.ID); err != nil {
			s.log.Error("Failed to increment promo usage",
				zap.Error(err),
				zap.String("promo_code_id", promo.ID.String()),
			)
		}
	}

	if wlEntry != nil {
		if err := s.waitlist.MarkBooked(ctx, wlEntry.ID, req.WaitlistToken); err != nil {
			s.log.Error("Failed to mark waitlist entry booked",
				zap.Error(err),
				zap.String("entry_id", wlEntry.ID.String()),
				zap.String("booking_id", booking.ID.String()),
			)
		}
	}

	s.audit(ctx, &booking.ID, "booking.created",
		fmt.Sprintf("booking %s for retreat %s, %d guests, total %s",
			booking.Reference, retreat.Name, booking.GuestsCount, utils.FormatAmount(booking.TotalAmount)),
		booking.GuestEmail)

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.Int64("total_amount", booking.TotalAmount),
		zap.Int("installments", len(schedules)),
		zap.Bool("late_booking", plan.LateBooking),
	)

	// First installment is captured synchronously when an instrument is on
	// file; otherwise the guest gets a hosted payment link.
	var paymentLink string
	if booking.HasInstrument() {
		if err := s.payments.ChargeInstallment(ctx, schedules[0].ID); err != nil {
			s.log.Warn("First installment charge failed at checkout",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
		}
	} else {
		paymentLink, err = s.gateway.CreatePaymentLink(ctx, booking.Reference, schedules[0].Amount, booking.Currency)
		if err != nil {
			s.log.Error("Failed to create payment link",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
			)
			paymentLink = ""
		}
	}

	s.send(ctx, notifier.KindBookingCreated, booking.GuestEmail, map[string]any{
		"booking_reference": booking.Reference,
		"retreat_name":      retreat.Name,
		"total_amount":      utils.FormatAmount(booking.TotalAmount),
		"installments":      len(schedules),
		"first_due":         schedules[0].DueDate.Format("2006-01-02"),
	})

	// Reload so the response reflects the synchronous charge outcome.
	fresh, err := s.repo.Booking.FindByID(ctx, booking.ID)
	if err == nil && fresh != nil {
		booking = fresh
	}
	freshSchedules, err := s.repo.PaymentSchedule.FindByBookingID(ctx, booking.ID)
	if err == nil && len(freshSchedules) > 0 {
		schedules = freshSchedules
	}

	resp := &response.CheckoutResponse{
		Booking:     toBookingResponse(booking),
		Schedules:   toScheduleResponses(schedules),
		PaymentLink: paymentLink,
	}
	if plan.EarlyBirdDiscount > 0 {
		resp.EarlyBirdDiscount = utils.FormatAmount(plan.EarlyBirdDiscount)
	}
	if promoDiscount > 0 {
		resp.PromoDiscount = utils.FormatAmount(promoDiscount)
	}
	return resp, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*response.BookingDetailResponse, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", id, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s not found", id)
	}

	schedules, err := s.repo.PaymentSchedule.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &response.BookingDetailResponse{
		Booking:   toBookingResponse(booking),
		Schedules: toScheduleResponses(schedules),
	}, nil
}

func (s *bookingService) ListBookings(ctx context.Context, page, limit int) (*response.BookingListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	bookings, err := s.repo.Booking.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.Count(ctx)
	if err != nil {
		return nil, err
	}

	resp := &response.BookingListResponse{
		Bookings: make([]response.BookingResponse, 0, len(bookings)),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, toBookingResponse(b))
	}
	return resp, nil
}

// Cancel flips the booking first, then runs the side effects as isolated
// steps. A failed side effect is logged and skipped, never rolled back into
// an un-cancellation.
func (s *bookingService) Cancel(ctx context.Context, id, reason, actor string) error {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid booking ID format %s: %w", id, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", id)
	}
	if !booking.Status.CanTransitionTo(entity.BookingStatusCancelled) {
		return fmt.Errorf("cannot cancel booking in %s state", booking.Status)
	}

	if err := s.repo.Booking.UpdateStatus(ctx, bookingID, entity.BookingStatusCancelled, &reason); err != nil {
		return err
	}

	if _, err := s.repo.PaymentSchedule.CancelOpen(ctx, bookingID, "booking cancelled"); err != nil {
		s.log.Error("Cancellation step failed: open schedules",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
	}

	if booking.RoomID != nil {
		if err := s.repo.Room.IncrementAvailable(ctx, *booking.RoomID, booking.GuestsCount); err != nil {
			s.log.Error("Cancellation step failed: room release",
				zap.Error(err),
				zap.String("booking_id", bookingID.String()),
				zap.String("room_id", booking.RoomID.String()),
			)
		} else {
			s.warnOverRelease(ctx, *booking.RoomID)
		}
	}

	if booking.PromoCodeID != nil {
		deleted, err := s.repo.PromoCode.DeleteRedemptionByBookingID(ctx, bookingID)
		if err != nil {
			s.log.Error("Cancellation step failed: promo redemption",
				zap.Error(err),
				zap.String("booking_id", bookingID.String()),
			)
		} else if deleted {
			if err := s.repo.PromoCode.DecrementUsage(ctx, *booking.PromoCodeID); err != nil {
				s.log.Error("Cancellation step failed: promo usage decrement",
					zap.Error(err),
					zap.String("promo_code_id", booking.PromoCodeID.String()),
				)
			}
		}
	}

	s.audit(ctx, &bookingID, "booking.cancelled", reason, actor)

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("reference", booking.Reference),
		zap.String("reason", reason),
	)

	s.send(ctx, notifier.KindBookingCancelled, booking.GuestEmail, map[string]any{
		"booking_reference": booking.Reference,
		"reason":            reason,
	})

	if booking.RoomID != nil {
		if err := s.waitlist.OfferNext(ctx, booking.RetreatID, booking.RoomID); err != nil {
			s.log.Error("Failed to offer freed slot to waitlist",
				zap.Error(err),
				zap.String("retreat_id", booking.RetreatID.String()),
				zap.String("room_id", booking.RoomID.String()),
			)
		}
	}

	return nil
}

func (s *bookingService) Restore(ctx context.Context, id, actor string) (*response.RestoreResponse, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", id, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s not found", id)
	}
	if booking.Status != entity.BookingStatusCancelled {
		return nil, fmt.Errorf("cannot restore booking in %s state", booking.Status)
	}

	retreat, err := s.repo.Retreat.FindByID(ctx, booking.RetreatID)
	if err != nil {
		return nil, err
	}
	if retreat == nil || retreat.HasStarted(time.Now()) {
		return nil, fmt.Errorf("cannot restore booking %s: retreat already started", booking.Reference)
	}

	// The room may have been resold since the cancellation, so capacity is
	// re-validated through the same atomic path as checkout.
	decremented := false
	if booking.RoomID != nil {
		ok, err := s.repo.Room.TryDecrementAvailable(ctx, *booking.RoomID, booking.GuestsCount)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("restore booking %s: %w", booking.Reference, ErrRoomUnavailable)
		}
		decremented = true
	}

	if err := s.repo.Booking.UpdateStatus(ctx, bookingID, entity.BookingStatusPending, nil); err != nil {
		if decremented {
			if incErr := s.repo.Room.IncrementAvailable(ctx, *booking.RoomID, booking.GuestsCount); incErr != nil {
				s.log.Error("Failed to release room after restore failure",
					zap.Error(incErr),
					zap.String("room_id", booking.RoomID.String()),
				)
			}
		}
		return nil, err
	}

	schedules, err := s.repo.PaymentSchedule.FindByBookingID(ctx, bookingID)
	if err != nil {
		s.log.Error("Failed to load schedules for restore",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		schedules = nil
	}

	today := utils.DateOnly(time.Now())
	for _, row := range schedules {
		if row.Status != entity.ScheduleStatusCancelled && row.Status != entity.ScheduleStatusFailed {
			continue
		}
		due := row.DueDate
		if due.Before(today) {
			due = today
		}
		if err := s.repo.PaymentSchedule.ResetForRestore(ctx, row.ID, due); err != nil {
			s.log.Error("Failed to reset schedule row on restore",
				zap.Error(err),
				zap.String("schedule_id", row.ID.String()),
			)
		}
	}

	if err := s.payments.RefreshBookingState(ctx, bookingID); err != nil {
		s.log.Error("Failed to refresh payment state on restore",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
	}

	fresh, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err == nil && fresh != nil {
		booking = fresh
	}

	var paymentLink string
	if booking.BalanceDue > 0 {
		paymentLink, err = s.gateway.CreatePaymentLink(ctx, booking.Reference, booking.BalanceDue, booking.Currency)
		if err != nil {
			s.log.Error("Failed to create payment link on restore",
				zap.Error(err),
				zap.String("booking_id", bookingID.String()),
			)
			paymentLink = ""
		}
	}

	s.audit(ctx, &bookingID, "booking.restored", "restored from cancellation", actor)

	s.log.Info("Booking restored",
		zap.String("booking_id", bookingID.String()),
		zap.String("reference", booking.Reference),
	)

	data := map[string]any{
		"booking_reference": booking.Reference,
		"balance_due":       utils.FormatAmount(booking.BalanceDue),
	}
	if paymentLink != "" {
		data["payment_link"] = paymentLink
	}
	s.send(ctx, notifier.KindBookingRestored, booking.GuestEmail, data)

	return &response.RestoreResponse{
		Booking:     toBookingResponse(booking),
		PaymentLink: paymentLink,
	}, nil
}

// MoveRoom reserves the destination before anything else, so a conflict
// leaves the booking untouched. Only the pointer update sits between the two
// inventory writes, with a compensating increment if it fails.
func (s *bookingService) MoveRoom(ctx context.Context, id, newRoomID, actor string) error {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid booking ID format %s: %w", id, err)
	}
	roomID, err := uuid.Parse(newRoomID)
	if err != nil {
		return fmt.Errorf("invalid room ID format %s: %w", newRoomID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", id)
	}
	if booking.Status != entity.BookingStatusPending && booking.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("cannot move room for booking in %s state", booking.Status)
	}
	if booking.RoomID != nil && *booking.RoomID == roomID {
		return fmt.Errorf("booking %s is already in that room", booking.Reference)
	}

	newRoom, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if newRoom == nil {
		return fmt.Errorf("room %s not found", newRoomID)
	}
	if newRoom.RetreatID != booking.RetreatID {
		return fmt.Errorf("room %s belongs to a different retreat", newRoom.Name)
	}

	ok, err := s.repo.Room.TryDecrementAvailable(ctx, newRoom.ID, booking.GuestsCount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("room %s: %w", newRoom.Name, ErrRoomUnavailable)
	}

	if err := s.repo.Booking.UpdateRoom(ctx, bookingID, &newRoom.ID); err != nil {
		if incErr := s.repo.Room.IncrementAvailable(ctx, newRoom.ID, booking.GuestsCount); incErr != nil {
			s.log.Error("Failed to compensate destination room after move failure",
				zap.Error(incErr),
				zap.String("room_id", newRoom.ID.String()),
			)
		}
		return err
	}

	if booking.RoomID != nil {
		if err := s.repo.Room.IncrementAvailable(ctx, *booking.RoomID, booking.GuestsCount); err != nil {
			// The move stands; the source room has leaked capacity until an
			// operator fixes it.
			s.log.Error("Failed to release source room after move",
				zap.Error(err),
				zap.String("booking_id", bookingID.String()),
				zap.String("room_id", booking.RoomID.String()),
			)
		} else {
			s.warnOverRelease(ctx, *booking.RoomID)
		}
	}

	s.audit(ctx, &bookingID, "booking.room_moved",
		fmt.Sprintf("moved to room %s", newRoom.Name), actor)

	s.log.Info("Booking moved to new room",
		zap.String("booking_id", bookingID.String()),
		zap.String("new_room_id", newRoom.ID.String()),
	)

	return nil
}

func (s *bookingService) Complete(ctx context.Context, id, actor string) error {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid booking ID format %s: %w", id, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", id)
	}
	if !booking.Status.CanTransitionTo(entity.BookingStatusCompleted) {
		return fmt.Errorf("cannot complete booking in %s state", booking.Status)
	}

	if err := s.repo.Booking.UpdateStatus(ctx, bookingID, entity.BookingStatusCompleted, nil); err != nil {
		return err
	}

	s.audit(ctx, &bookingID, "booking.completed", "retreat attended", actor)

	return nil
}

// warnOverRelease reads the room back after an increment and flags an
// available count above capacity. The count is not clamped: the upstream
// double-release is the bug to find.
func (s *bookingService) warnOverRelease(ctx context.Context, roomID uuid.UUID) {
	room, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil || room == nil {
		return
	}
	if room.Available > room.Capacity {
		s.log.Warn("Room availability exceeds capacity after release",
			zap.String("room_id", roomID.String()),
			zap.Int("available", room.Available),
			zap.Int("capacity", room.Capacity),
		)
	}
}

func (s *bookingService) audit(ctx context.Context, bookingID *uuid.UUID, action, detail, actor string) {
	record := &entity.AuditLog{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		BookingID:  bookingID,
		Action:     action,
		Detail:     detail,
		Actor:      actor,
	}
	if err := s.repo.Audit.Create(ctx, record); err != nil {
		s.log.Error("Failed to write audit record",
			zap.Error(err),
			zap.String("action", action),
		)
	}
}

func (s *bookingService) send(ctx context.Context, kind notifier.Kind, recipient string, data map[string]any) {
	if err := s.notify.Send(ctx, kind, recipient, data); err != nil {
		s.log.Error("Failed to send notification",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.String("recipient", recipient),
		)
	}
}
