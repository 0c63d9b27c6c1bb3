package service

import (
	"context"
	"fmt"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/repository"
)

// Ownership is the outcome of checking a caller against a resolved owner.
type Ownership int

const (
	OwnershipNotFound Ownership = iota
	OwnershipDenied
	OwnershipGranted
)

func (o Ownership) String() string {
	switch o {
	case OwnershipGranted:
		return "granted"
	case OwnershipDenied:
		return "denied"
	default:
		return "not_found"
	}
}

// authorize is the whole authorization rule: the caller must be the user who
// owns the event. A nil owner means the target could not be resolved.
func authorize(owner *repository.Owner, callerID string) Ownership {
	if owner == nil {
		return OwnershipNotFound
	}
	if callerID == "" || owner.EventUserID != callerID {
		return OwnershipDenied
	}
	return OwnershipGranted
}

// guard resolves ticket types and guests up to their event and checks that
// the caller owns it. Lookup failures (including NotFound) are returned as
// is, so "not found" always wins over "forbidden".
type guard struct {
	owners repository.OwnerRepository
}

func (g guard) check(owner *repository.Owner, callerID string) (*repository.Owner, error) {
	switch authorize(owner, callerID) {
	case OwnershipGranted:
		return owner, nil
	case OwnershipDenied:
		return nil, apperror.Forbidden("you do not own this event")
	default:
		return nil, apperror.NotFound("event", "")
	}
}

func (g guard) event(ctx context.Context, callerID string, eventID int64) (*repository.Owner, error) {
	owner, err := g.owners.EventOwner(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return g.check(owner, callerID)
}

func (g guard) ticketType(ctx context.Context, callerID string, ticketTypeID int64) (*repository.Owner, error) {
	owner, err := g.owners.TicketTypeOwner(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	return g.check(owner, callerID)
}

// guest additionally refuses a guest whose ticket type belongs to a
// different event than the guest itself.
func (g guard) guest(ctx context.Context, callerID string, guestID int64) (*repository.Owner, error) {
	owner, err := g.owners.GuestOwner(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if owner.TicketTypeEventID != owner.EventID {
		return nil, apperror.StoreFailure("resolving guest owner",
			fmt.Errorf("guest %d is in event %d but its ticket type is in event %d",
				guestID, owner.EventID, owner.TicketTypeEventID))
	}
	return g.check(owner, callerID)
}
