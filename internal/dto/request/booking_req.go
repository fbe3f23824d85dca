package request

type CheckoutRequest struct {
	RetreatID     string `json:"retreat_id" validate:"required,uuid"`
	RoomID        string `json:"room_id" validate:"omitempty,uuid"`
	GuestName     string `json:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail    string `json:"guest_email" validate:"required,email"`
	GuestsCount   int    `json:"guests_count" validate:"required,min=1,max=20"`
	PromoCode     string `json:"promo_code" validate:"omitempty,max=50"`
	FullPayment   bool   `json:"full_payment"`
	CustomerRef   string `json:"customer_ref" validate:"omitempty,max=100"`
	InstrumentRef string `json:"instrument_ref" validate:"omitempty,max=100"`
	// WaitlistToken links the checkout to an accepted waitlist offer.
	WaitlistToken string `json:"waitlist_token" validate:"omitempty,max=100"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

type MoveRoomRequest struct {
	NewRoomID string `json:"new_room_id" validate:"required,uuid"`
}

type RetryPaymentRequest struct {
	Force bool `json:"force"`
}
