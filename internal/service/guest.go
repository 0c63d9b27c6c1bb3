package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

// GuestInput is the editable part of a guest. The check-in state is not
// part of it: only CheckIn changes that.
type GuestInput struct {
	Name         string  `json:"name"         validate:"required,max=200"`
	TicketTypeID int64   `json:"ticketTypeId" validate:"required,gt=0"`
	Observations *string `json:"observations" validate:"omitempty,max=1000"`
}

func (in *GuestInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Observations != nil {
		o := strings.TrimSpace(*in.Observations)
		in.Observations = &o
		if o == "" {
			in.Observations = nil
		}
	}
}

// Check-in outcomes, as reported to a CheckInObserver.
const (
	CheckInOK             = "ok"
	CheckInAlreadyEntered = "already_entered"
	CheckInForbidden      = "forbidden"
	CheckInNotFound       = "not_found"
	CheckInError          = "error"
)

// CheckInObserver is told the outcome of every check-in attempt.
type CheckInObserver interface {
	ObserveCheckIn(result string)
}

type nopObserver struct{}

func (nopObserver) ObserveCheckIn(string) {}

type GuestService struct {
	guests   repository.GuestRepository
	guard    guard
	observer CheckInObserver
	now      func() time.Time
	logger   *slog.Logger
}

// NewGuestService wires a GuestService. observer may be nil.
func NewGuestService(guests repository.GuestRepository, owners repository.OwnerRepository, observer CheckInObserver, logger *slog.Logger) *GuestService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &GuestService{
		guests:   guests,
		guard:    guard{owners: owners},
		observer: observer,
		now:      time.Now,
		logger:   logger,
	}
}

// List returns the guests of an event owned by the caller, newest first.
func (s *GuestService) List(ctx context.Context, callerID string, eventID int64, filter model.GuestFilter) ([]model.Guest, error) {
	if _, err := s.guard.event(ctx, callerID, eventID); err != nil {
		return nil, err
	}
	guests, err := s.guests.ListGuests(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing guests: %w", err)
	}
	return guests, nil
}

func (s *GuestService) Get(ctx context.Context, callerID string, id int64) (*model.Guest, error) {
	if _, err := s.guard.guest(ctx, callerID, id); err != nil {
		return nil, err
	}
	return s.guests.GetGuest(ctx, id)
}

// Create registers a guest in an event owned by the caller. The ticket type
// must belong to that event and still have room under its limit.
func (s *GuestService) Create(ctx context.Context, callerID string, eventID int64, in GuestInput) (*model.Guest, error) {
	if _, err := s.guard.event(ctx, callerID, eventID); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	guest := &model.Guest{
		Name:         in.Name,
		TicketTypeID: in.TicketTypeID,
		EventID:      eventID,
		Observations: model.FromPtr(in.Observations),
	}
	if err := s.guests.CreateGuest(ctx, guest); err != nil {
		return nil, fmt.Errorf("creating guest: %w", err)
	}

	s.logger.Info("guest created",
		slog.Int64("guestID", guest.ID),
		slog.Int64("eventID", eventID),
		slog.Int64("ticketTypeID", guest.TicketTypeID),
	)
	return guest, nil
}

// Update changes name, observations and ticket type. The guest stays in its
// event; a new ticket type must belong to the same event.
func (s *GuestService) Update(ctx context.Context, callerID string, id int64, in GuestInput) (*model.Guest, error) {
	if _, err := s.guard.guest(ctx, callerID, id); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	guest, err := s.guests.GetGuest(ctx, id)
	if err != nil {
		return nil, err
	}
	guest.Name = in.Name
	guest.TicketTypeID = in.TicketTypeID
	guest.Observations = model.FromPtr(in.Observations)

	if err := s.guests.UpdateGuest(ctx, guest); err != nil {
		return nil, fmt.Errorf("updating guest: %w", err)
	}

	s.logger.Info("guest updated", slog.Int64("guestID", id))
	return guest, nil
}

func (s *GuestService) Delete(ctx context.Context, callerID string, id int64) error {
	if _, err := s.guard.guest(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.guests.DeleteGuest(ctx, id); err != nil {
		return fmt.Errorf("deleting guest: %w", err)
	}

	s.logger.Info("guest deleted", slog.Int64("guestID", id))
	return nil
}

// CheckIn marks a guest as entered now. It is a one-way transition: a guest
// who already entered yields apperror.ErrAlreadyEntered and keeps the first
// entry time. Not-found and forbidden are reported before any write.
func (s *GuestService) CheckIn(ctx context.Context, callerID string, id int64) (*model.Guest, error) {
	if _, err := s.guard.guest(ctx, callerID, id); err != nil {
		s.observer.ObserveCheckIn(checkInResult(err))
		return nil, err
	}

	guest, err := s.guests.CheckIn(ctx, id, s.now())
	s.observer.ObserveCheckIn(checkInResult(err))
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyEntered) {
			s.logger.Warn("repeated check-in", slog.Int64("guestID", id))
			return nil, err
		}
		return nil, fmt.Errorf("checking in guest: %w", err)
	}

	s.logger.Info("guest checked in",
		slog.Int64("guestID", id),
		slog.Int64("eventID", guest.EventID),
	)
	return guest, nil
}

func checkInResult(err error) string {
	switch {
	case err == nil:
		return CheckInOK
	case errors.Is(err, apperror.ErrAlreadyEntered):
		return CheckInAlreadyEntered
	case errors.Is(err, apperror.ErrForbidden):
		return CheckInForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return CheckInNotFound
	default:
		return CheckInError
	}
}
