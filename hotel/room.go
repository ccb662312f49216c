package hotel

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ROOM STATE MACHINE
// =============================================================================
//
//   vacant --Occupy--> occupied --Vacate--> dirty
//   vacant|dirty|cleaning <--housekeeping--> vacant|dirty|cleaning|out_of_order
//   out_of_order --ReturnToService (manager)--> vacant|dirty|cleaning
//
// occupied is entered and left only by the orchestrator (check-in, check-out).

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomVacant, RoomOccupied, RoomDirty, RoomCleaning, RoomOutOfOrder:
		return true
	}
	return false
}

func ParseRoomStatus(s string) (RoomStatus, error) {
	status := RoomStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomStatus, s)
	}
	return status, nil
}

func (r *Room) transitionError(to RoomStatus, err error) error {
	return &TransitionError{
		Entity: "room",
		ID:     r.Number,
		From:   string(r.Status),
		To:     string(to),
		Err:    err,
	}
}

// Occupy assigns the room to a guest. Only a vacant room can be occupied.
func (r *Room) Occupy(guestID GuestID) error {
	if r.Status != RoomVacant {
		return r.transitionError(RoomOccupied, ErrRoomNotVacant)
	}
	g := guestID
	r.Status = RoomOccupied
	r.GuestID = &g
	return nil
}

// Vacate releases an occupied room; it needs cleaning before the next guest.
func (r *Room) Vacate() error {
	if r.Status != RoomOccupied {
		return r.transitionError(RoomDirty, ErrRoomNotOccupied)
	}
	r.Status = RoomDirty
	r.GuestID = nil
	return nil
}

// SetHousekeepingStatus is the housekeeping write path. It never enters or
// leaves occupied and never leaves out_of_order.
func (r *Room) SetHousekeepingStatus(to RoomStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoomStatus, to)
	}
	if to == RoomOccupied {
		return r.transitionError(to, ErrInvalidTransition)
	}
	if r.Status == RoomOccupied || r.Status == RoomOutOfOrder {
		return r.transitionError(to, ErrInvalidTransition)
	}
	r.Status = to
	return nil
}

// ReturnToService releases an out_of_order room. Callers gate it behind the
// manager role.
func (r *Room) ReturnToService(to RoomStatus) error {
	if r.Status != RoomOutOfOrder {
		return r.transitionError(to, ErrInvalidTransition)
	}
	switch to {
	case RoomVacant, RoomDirty, RoomCleaning:
		r.Status = to
		return nil
	case RoomOutOfOrder:
		return nil
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoomStatus, to)
	}
	return r.transitionError(to, ErrInvalidTransition)
}

// CheckInvariant verifies that a guest is set exactly when occupied.
func (r Room) CheckInvariant() error {
	occupied := r.Status == RoomOccupied
	if occupied != (r.GuestID != nil) {
		return fmt.Errorf("room %s: status %s with guest set=%s", r.Number, r.Status, strconv.FormatBool(r.GuestID != nil))
	}
	return nil
}
