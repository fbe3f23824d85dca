package entity

import "github.com/google/uuid"

// Room availability is mutated only through RoomRepository's atomic
// TryDecrementAvailable/IncrementAvailable. Invariant: 0 <= available <= capacity.
type Room struct {
	BaseNoDelete
	RetreatID  uuid.UUID `db:"retreat_id"`
	Name       string    `db:"name"`
	Capacity   int       `db:"capacity"`
	Available  int       `db:"available"`
	PriceDelta int64     `db:"price_delta"` // minor units per guest, on top of retreat base price
}
