package model

import "time"

// TicketType is a named guest category within one event (VIP, general
// admission, ...). Names are unique per event, not globally.
//
// Price and Limit are optional. When Limit is set it caps the number of
// guests that may hold this ticket type.
type TicketType struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description Optional[string]  `json:"description"`
	Price       Optional[float64] `json:"price"`
	Limit       Optional[int]     `json:"limit"`
	EventID     int64             `json:"eventId"`
	CreatedAt   time.Time         `json:"createdAt"`
}
