package response

type RoomResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	Available  int    `json:"available"`
	PriceDelta string `json:"price_delta"`
}

type RetreatResponse struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Location             string         `json:"location"`
	Description          string         `json:"description"`
	StartDate            string         `json:"start_date"`
	EndDate              string         `json:"end_date"`
	BasePrice            string         `json:"base_price"`
	EarlyBirdDiscountPct int            `json:"early_bird_discount_pct"`
	EarlyBirdDeadline    *string        `json:"early_bird_deadline,omitempty"`
	Rooms                []RoomResponse `json:"rooms,omitempty"`
}

type RetreatListResponse struct {
	Retreats []RetreatResponse `json:"retreats"`
}
