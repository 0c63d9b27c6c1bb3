package model

import "time"

// Guest is a ticket holder registered against one ticket type of one event.
//
// EventID duplicates TicketType.EventID so guest lists can be read without a
// join; the service layer keeps the two equal.
//
// Entered and EntryTime always move together: a guest is either not entered
// with no entry time, or entered with the time of check-in. Check-in happens
// at most once.
type Guest struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	TicketTypeID int64               `json:"ticketTypeId"`
	EventID      int64               `json:"eventId"`
	Observations Optional[string]    `json:"observations"`
	Entered      bool                `json:"entered"`
	EntryTime    Optional[time.Time] `json:"entryTime"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// GuestFilter narrows a guest listing. Zero values mean "no filter".
type GuestFilter struct {
	Entered      Optional[bool]
	TicketTypeID Optional[int64]
	Query        string // case-insensitive substring of the guest name
}
