package response

import "time"

type BookingResponse struct {
	ID            string     `json:"id"`
	Reference     string     `json:"reference"`
	RetreatID     string     `json:"retreat_id"`
	RoomID        *string    `json:"room_id,omitempty"`
	GuestName     string     `json:"guest_name"`
	GuestEmail    string     `json:"guest_email"`
	GuestsCount   int        `json:"guests_count"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	TotalAmount   string     `json:"total_amount"`
	BalanceDue    string     `json:"balance_due"`
	Currency      string     `json:"currency"`
	CancelReason  *string    `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ScheduleResponse struct {
	ID            string     `json:"id"`
	PaymentNumber int        `json:"payment_number"`
	Label         string     `json:"label"`
	Amount        string     `json:"amount"`
	DueDate       string     `json:"due_date"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type BookingDetailResponse struct {
	Booking   BookingResponse    `json:"booking"`
	Schedules []ScheduleResponse `json:"schedules"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type CheckoutResponse struct {
	Booking           BookingResponse    `json:"booking"`
	Schedules         []ScheduleResponse `json:"schedules"`
	EarlyBirdDiscount string             `json:"early_bird_discount,omitempty"`
	PromoDiscount     string             `json:"promo_discount,omitempty"`
	PaymentLink       string             `json:"payment_link,omitempty"`
}

type RestoreResponse struct {
	Booking     BookingResponse `json:"booking"`
	PaymentLink string          `json:"payment_link,omitempty"`
}
