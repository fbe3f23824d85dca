package response

import "time"

type WaitlistResponse struct {
	ID                    string     `json:"id"`
	RetreatID             string     `json:"retreat_id"`
	RoomID                *string    `json:"room_id,omitempty"`
	GuestName             string     `json:"guest_name"`
	GuestEmail            string     `json:"guest_email"`
	GuestsCount           int        `json:"guests_count"`
	Position              int        `json:"position"`
	Status                string     `json:"status"`
	NotificationExpiresAt *time.Time `json:"notification_expires_at,omitempty"`
}
