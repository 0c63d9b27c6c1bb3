package repository

import (
	"context"
	"time"

	"github.com/sakif/guestlist/internal/model"
)

// Owner is the result of walking an entity up to the event that owns it.
// EventUserID is the owning user. For guests, TicketTypeEventID is the event
// of the guest's ticket type, which must equal EventID.
type Owner struct {
	EventID           int64
	EventUserID       string
	TicketTypeEventID int64
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, id int64) (*model.Event, error)
	ListEventsByUser(ctx context.Context, userID string) ([]model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

type TicketTypeRepository interface {
	CreateTicketType(ctx context.Context, tt *model.TicketType) error
	GetTicketType(ctx context.Context, id int64) (*model.TicketType, error)
	ListTicketTypes(ctx context.Context, eventID int64) ([]model.TicketType, error)
	UpdateTicketType(ctx context.Context, tt *model.TicketType) error
	DeleteTicketType(ctx context.Context, id int64) error
	CountGuestsByTicketType(ctx context.Context, ticketTypeID int64) (int, error)
}

type GuestRepository interface {
	// CreateGuest inserts the guest only while its ticket type has capacity
	// left; a full ticket type yields apperror.ErrConflict.
	CreateGuest(ctx context.Context, guest *model.Guest) error
	GetGuest(ctx context.Context, id int64) (*model.Guest, error)
	ListGuests(ctx context.Context, eventID int64, filter model.GuestFilter) ([]model.Guest, error)
	// UpdateGuest writes name, observations and ticket type. It never
	// changes the check-in state.
	UpdateGuest(ctx context.Context, guest *model.Guest) error
	DeleteGuest(ctx context.Context, id int64) error
	// CheckIn marks a not-yet-entered guest as entered at the given time in
	// one conditional write. A guest already entered yields
	// apperror.ErrAlreadyEntered and keeps its original entry time.
	CheckIn(ctx context.Context, id int64, at time.Time) (*model.Guest, error)
}

// OwnerRepository resolves entities to their owning event.
type OwnerRepository interface {
	EventOwner(ctx context.Context, eventID int64) (*Owner, error)
	TicketTypeOwner(ctx context.Context, ticketTypeID int64) (*Owner, error)
	GuestOwner(ctx context.Context, guestID int64) (*Owner, error)
}

type StatsRepository interface {
	// EventStatsSnapshot reads every figure of the dashboard from one
	// consistent view of the store.
	EventStatsSnapshot(ctx context.Context, eventID int64) (*model.StatsSnapshot, error)
}

// Store is everything the services need from persistence.
type Store interface {
	UserRepository
	EventRepository
	TicketTypeRepository
	GuestRepository
	OwnerRepository
	StatsRepository
	Ping(ctx context.Context) error
}
