package request

type JoinWaitlistRequest struct {
	RetreatID   string `json:"retreat_id" validate:"required,uuid"`
	RoomID      string `json:"room_id" validate:"omitempty,uuid"`
	GuestName   string `json:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail  string `json:"guest_email" validate:"required,email"`
	GuestsCount int    `json:"guests_count" validate:"required,min=1,max=20"`
}

type WaitlistDecisionRequest struct {
	Token string `json:"token" validate:"required,max=100"`
}
