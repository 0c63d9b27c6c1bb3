package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

// EventInput is the editable part of an event, as submitted by the organizer.
type EventInput struct {
	Name        string    `json:"name"        validate:"required,min=3,max=100"`
	Date        time.Time `json:"date"        validate:"required"`
	Duration    int       `json:"duration"    validate:"required,min=1,max=72"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
}

func (in *EventInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
		if d == "" {
			in.Description = nil
		}
	}
}

// EventService handles events, the root of the ownership chain.
type EventService struct {
	events repository.EventRepository
	guard  guard
	now    func() time.Time
	logger *slog.Logger
}

func NewEventService(events repository.EventRepository, owners repository.OwnerRepository, logger *slog.Logger) *EventService {
	return &EventService{
		events: events,
		guard:  guard{owners: owners},
		now:    time.Now,
		logger: logger,
	}
}

// List returns the caller's events, latest date first.
func (s *EventService) List(ctx context.Context, callerID string) ([]model.Event, error) {
	events, err := s.events.ListEventsByUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Get returns one event owned by the caller.
func (s *EventService) Get(ctx context.Context, callerID string, id int64) (*model.Event, error) {
	if _, err := s.guard.event(ctx, callerID, id); err != nil {
		return nil, err
	}
	return s.events.GetEvent(ctx, id)
}

// Create validates and stores a new event owned by the caller. The start
// date must be in the future.
func (s *EventService) Create(ctx context.Context, callerID string, in EventInput) (*model.Event, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.Date.After(s.now()) {
		return nil, apperror.ValidationFailed("date", "date must be in the future")
	}

	event := &model.Event{
		Name:        in.Name,
		Date:        in.Date,
		Duration:    in.Duration,
		Description: model.FromPtr(in.Description),
		UserID:      callerID,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.Int64("eventID", event.ID),
		slog.String("userID", callerID),
	)
	return event, nil
}

// Update replaces the editable fields of an event. An unchanged date is
// accepted even if it is already in the past, so a running event can still
// have its description fixed; a changed date must be in the future.
func (s *EventService) Update(ctx context.Context, callerID string, id int64, in EventInput) (*model.Event, error) {
	if _, err := s.guard.event(ctx, callerID, id); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.Date.Equal(event.Date) && !in.Date.After(s.now()) {
		return nil, apperror.ValidationFailed("date", "date must be in the future")
	}

	event.Name = in.Name
	event.Date = in.Date
	event.Duration = in.Duration
	event.Description = model.FromPtr(in.Description)

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}

	s.logger.Info("event updated", slog.Int64("eventID", id))
	return event, nil
}

// Delete removes an event together with its ticket types and guests.
func (s *EventService) Delete(ctx context.Context, callerID string, id int64) error {
	if _, err := s.guard.event(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	s.logger.Info("event deleted", slog.Int64("eventID", id), slog.String("userID", callerID))
	return nil
}
