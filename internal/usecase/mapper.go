package usecase

import (
	"retreat-booking/internal/data/entity"
	"retreat-booking/internal/dto/response"
	"retreat-booking/pkg/utils"
)

func toBookingResponse(b *entity.Booking) response.BookingResponse {
	resp := response.BookingResponse{
		ID:            b.ID.String(),
		Reference:     b.Reference,
		RetreatID:     b.RetreatID.String(),
		GuestName:     b.GuestName,
		GuestEmail:    b.GuestEmail,
		GuestsCount:   b.GuestsCount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentState),
		TotalAmount:   utils.FormatAmount(b.TotalAmount),
		BalanceDue:    utils.FormatAmount(b.BalanceDue),
		Currency:      b.Currency,
		CancelReason:  b.CancelReason,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.RoomID != nil {
		roomID := b.RoomID.String()
		resp.RoomID = &roomID
	}
	return resp
}

func toScheduleResponse(s *entity.PaymentSchedule) response.ScheduleResponse {
	return response.ScheduleResponse{
		ID:            s.ID.String(),
		PaymentNumber: s.PaymentNumber,
		Label:         s.Label,
		Amount:        utils.FormatAmount(s.Amount),
		DueDate:       s.DueDate.Format("2006-01-02"),
		Status:        string(s.Status),
		Attempts:      s.Attempts,
		MaxAttempts:   s.MaxAttempts,
		FailureReason: s.FailureReason,
		NextRetryAt:   s.NextRetryAt,
		PaidAt:        s.PaidAt,
	}
}

func toScheduleResponses(schedules []*entity.PaymentSchedule) []response.ScheduleResponse {
	out := make([]response.ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleResponse(s))
	}
	return out
}

func toWaitlistResponse(w *entity.WaitlistEntry) response.WaitlistResponse {
	resp := response.WaitlistResponse{
		ID:                    w.ID.String(),
		RetreatID:             w.RetreatID.String(),
		GuestName:             w.GuestName,
		GuestEmail:            w.GuestEmail,
		GuestsCount:           w.GuestsCount,
		Position:              w.Position,
		Status:                string(w.Status),
		NotificationExpiresAt: w.NotificationExpiresAt,
	}
	if w.RoomID != nil {
		roomID := w.RoomID.String()
		resp.RoomID = &roomID
	}
	return resp
}

func toRoomResponse(r *entity.Room) response.RoomResponse {
	return response.RoomResponse{
		ID:         r.ID.String(),
		Name:       r.Name,
		Capacity:   r.Capacity,
		Available:  r.Available,
		PriceDelta: utils.FormatAmount(r.PriceDelta),
	}
}

func toRetreatResponse(r *entity.Retreat, rooms []*entity.Room) response.RetreatResponse {
	resp := response.RetreatResponse{
		ID:                   r.ID.String(),
		Name:                 r.Name,
		Location:             r.Location,
		Description:          r.Description,
		StartDate:            r.StartDate.Format("2006-01-02"),
		EndDate:              r.EndDate.Format("2006-01-02"),
		BasePrice:            utils.FormatAmount(r.BasePrice),
		EarlyBirdDiscountPct: r.EarlyBirdDiscountPct,
	}
	if r.EarlyBirdDeadline != nil {
		deadline := r.EarlyBirdDeadline.Format("2006-01-02")
		resp.EarlyBirdDeadline = &deadline
	}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}
	return resp
}
