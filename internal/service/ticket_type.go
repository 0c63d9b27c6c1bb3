package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/guestlist/internal/model"
	"github.com/sakif/guestlist/internal/repository"
)

// TicketTypeInput is the editable part of a ticket type. Price and Limit are
// optional; nil means "not set", which is different from 0.
type TicketTypeInput struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Limit       *int     `json:"limit"       validate:"omitempty,gte=0"`
}

func (in *TicketTypeInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
		if d == "" {
			in.Description = nil
		}
	}
}

type TicketTypeService struct {
	ticketTypes repository.TicketTypeRepository
	guard       guard
	logger      *slog.Logger
}

func NewTicketTypeService(ticketTypes repository.TicketTypeRepository, owners repository.OwnerRepository, logger *slog.Logger) *TicketTypeService {
	return &TicketTypeService{
		ticketTypes: ticketTypes,
		guard:       guard{owners: owners},
		logger:      logger,
	}
}

// List returns the ticket types of an event owned by the caller.
func (s *TicketTypeService) List(ctx context.Context, callerID string, eventID int64) ([]model.TicketType, error) {
	if _, err := s.guard.event(ctx, callerID, eventID); err != nil {
		return nil, err
	}
	tts, err := s.ticketTypes.ListTicketTypes(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing ticket types: %w", err)
	}
	return tts, nil
}

// Create adds a ticket type to an event owned by the caller.
func (s *TicketTypeService) Create(ctx context.Context, callerID string, eventID int64, in TicketTypeInput) (*model.TicketType, error) {
	if _, err := s.guard.event(ctx, callerID, eventID); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	tt := &model.TicketType{
		Name:        in.Name,
		Description: model.FromPtr(in.Description),
		Price:       model.FromPtr(in.Price),
		Limit:       model.FromPtr(in.Limit),
		EventID:     eventID,
	}
	if err := s.ticketTypes.CreateTicketType(ctx, tt); err != nil {
		return nil, fmt.Errorf("creating ticket type: %w", err)
	}

	s.logger.Info("ticket type created",
		slog.Int64("ticketTypeID", tt.ID),
		slog.Int64("eventID", eventID),
	)
	return tt, nil
}

// Update replaces the editable fields of a ticket type. A limit below the
// number of guests already holding it is refused with a conflict.
func (s *TicketTypeService) Update(ctx context.Context, callerID string, id int64, in TicketTypeInput) (*model.TicketType, error) {
	if _, err := s.guard.ticketType(ctx, callerID, id); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	tt, err := s.ticketTypes.GetTicketType(ctx, id)
	if err != nil {
		return nil, err
	}
	tt.Name = in.Name
	tt.Description = model.FromPtr(in.Description)
	tt.Price = model.FromPtr(in.Price)
	tt.Limit = model.FromPtr(in.Limit)

	if err := s.ticketTypes.UpdateTicketType(ctx, tt); err != nil {
		return nil, fmt.Errorf("updating ticket type: %w", err)
	}

	s.logger.Info("ticket type updated", slog.Int64("ticketTypeID", id))
	return tt, nil
}

// Delete removes a ticket type nobody holds. Guests are never removed as a
// side effect; while any guest references the ticket type the delete fails
// with a conflict.
func (s *TicketTypeService) Delete(ctx context.Context, callerID string, id int64) error {
	if _, err := s.guard.ticketType(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.ticketTypes.DeleteTicketType(ctx, id); err != nil {
		return fmt.Errorf("deleting ticket type: %w", err)
	}

	s.logger.Info("ticket type deleted", slog.Int64("ticketTypeID", id))
	return nil
}
