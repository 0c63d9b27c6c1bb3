// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// The ownership chain is User → Event → TicketType → Guest. Only Event carries
// an owner (UserID); ticket types and guests are authorised by walking up to
// their event.
package model

import "time"

// Event is a single occasion (party, show) owned by one user.
//
// Duration is in whole hours (1–72). Deleting an event removes its ticket
// types and guests.
type Event struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Date        time.Time        `json:"date"`
	Duration    int              `json:"duration"`
	Description Optional[string] `json:"description"`
	UserID      string           `json:"userId"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// EndsAt is the scheduled end of the event.
func (e *Event) EndsAt() time.Time {
	return e.Date.Add(time.Duration(e.Duration) * time.Hour)
}
