package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/guestlist/internal/apperror"
	"github.com/sakif/guestlist/internal/model"
)

func TestCreateTicketType_OptionalFields(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	event := createTestEvent(t, db, user.ID, "Show")

	free := &model.TicketType{Name: "Cortesia", EventID: event.ID, Price: model.Some(0.0)}
	if err := db.CreateTicketType(context.Background(), free); err != nil {
		t.Fatalf("CreateTicketType() error = %v", err)
	}

	found, err := db.GetTicketType(context.Background(), free.ID)
	if err != nil {
		t.Fatalf("GetTicketType() error = %v", err)
	}
	// A zero price is a free ticket, not a missing price.
	if p, ok := found.Price.Get(); !ok || p != 0 {
		t.Errorf("Price = (%v, %v), want (0, true)", p, ok)
	}
	if found.Limit.IsSet() {
		t.Error("Limit is set, want absent")
	}
	if found.Description.IsSet() {
		t.Error("Description is set, want absent")
	}
}

func TestCreateTicketType_DuplicateNameInEvent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	event := createTestEvent(t, db, user.ID, "Show")
	createTestTicketType(t, db, event.ID, "VIP", model.None[int]())

	err := db.CreateTicketType(context.Background(), &model.TicketType{Name: "VIP", EventID: event.ID})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateTicketType() error = %v, want ErrConflict", err)
	}
}

func TestCreateTicketType_SameNameOtherEvent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	first := createTestEvent(t, db, user.ID, "First")
	second := createTestEvent(t, db, user.ID, "Second")
	createTestTicketType(t, db, first.ID, "VIP", model.None[int]())

	if err := db.CreateTicketType(context.Background(), &model.TicketType{Name: "VIP", EventID: second.ID}); err != nil {
		t.Errorf("CreateTicketType() in another event error = %v, want nil", err)
	}
}

func TestUpdateTicketType_LimitBelowGuestCount(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	event := createTestEvent(t, db, user.ID, "Show")
	tt := createTestTicketType(t, db, event.ID, "Pista", model.None[int]())
	createTestGuest(t, db, tt, "A")
	createTestGuest(t, db, tt, "B")

	tt.Limit = model.Some(1)
	err := db.UpdateTicketType(context.Background(), tt)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("UpdateTicketType() error = %v, want ErrConflict", err)
	}

	tt.Limit = model.Some(2)
	if err := db.UpdateTicketType(context.Background(), tt); err != nil {
		t.Errorf("UpdateTicketType() with limit == guest count error = %v", err)
	}
}

func TestUpdateTicketType_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateTicketType(context.Background(), &model.TicketType{ID: 404, Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateTicketType() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteTicketType_BlockedWhileGuestsHoldIt(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	event := createTestEvent(t, db, user.ID, "Show")
	tt := createTestTicketType(t, db, event.ID, "VIP", model.None[int]())
	guest := createTestGuest(t, db, tt, "Ana")

	err := db.DeleteTicketType(context.Background(), tt.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("DeleteTicketType() error = %v, want ErrConflict", err)
	}

	// The guest must survive the refused delete.
	if _, err := db.GetGuest(context.Background(), guest.ID); err != nil {
		t.Errorf("guest after refused delete: %v", err)
	}

	if err := db.DeleteGuest(context.Background(), guest.ID); err != nil {
		t.Fatalf("DeleteGuest() error = %v", err)
	}
	if err := db.DeleteTicketType(context.Background(), tt.ID); err != nil {
		t.Errorf("DeleteTicketType() once empty error = %v", err)
	}
}

func TestListTicketTypes_ScopedToEvent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	event := createTestEvent(t, db, user.ID, "Show")
	other := createTestEvent(t, db, user.ID, "Other")
	createTestTicketType(t, db, event.ID, "VIP", model.None[int]())
	createTestTicketType(t, db, event.ID, "Pista", model.None[int]())
	createTestTicketType(t, db, other.ID, "VIP", model.None[int]())

	list, err := db.ListTicketTypes(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("ListTicketTypes() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListTicketTypes() returned %d, want 2", len(list))
	}
	if list[0].Name != "VIP" || list[1].Name != "Pista" {
		t.Errorf("order = [%s, %s], want [VIP, Pista]", list[0].Name, list[1].Name)
	}
}

func TestCountGuestsByTicketType(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, 1, "owner")
	event := createTestEvent(t, db, user.ID, "Show")
	tt := createTestTicketType(t, db, event.ID, "VIP", model.None[int]())
	createTestGuest(t, db, tt, "A")
	createTestGuest(t, db, tt, "B")

	n, err := db.CountGuestsByTicketType(context.Background(), tt.ID)
	if err != nil {
		t.Fatalf("CountGuestsByTicketType() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountGuestsByTicketType() = %d, want 2", n)
	}
}
