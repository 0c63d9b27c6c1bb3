package model

import "time"

// EventStats is the check-in dashboard for one event.
//
// TicketTypeCounts contains every ticket type of the event, including the
// ones nobody holds yet (count 0). EntryTimeline is sparse: only hours with at
// least one check-in appear, in ascending order.
type EventStats struct {
	TotalGuests      int            `json:"totalGuests"`
	EnteredGuests    int            `json:"enteredGuests"`
	TicketTypeCounts map[string]int `json:"ticketTypeCounts"`
	EntryTimeline    []HourlyCount  `json:"entryTimeline"`
}

// HourlyCount is the number of check-ins during one hour of the day (0–23).
type HourlyCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// StatsSnapshot is the raw material for EventStats, read by the store in a
// single transaction.
type StatsSnapshot struct {
	TotalGuests      int
	EnteredGuests    int
	TicketTypeCounts []TicketTypeCount
	EntryTimes       []time.Time
}

// TicketTypeCount pairs a ticket type with the number of guests holding it.
type TicketTypeCount struct {
	TicketTypeID int64
	Name         string
	Count        int
}
