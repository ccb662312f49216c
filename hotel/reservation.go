package hotel

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// RESERVATION LIFECYCLE
// =============================================================================
//
//   pending --> confirmed --> checked_in --> checked_out
//      |            |
//      +------------+--> cancelled | no_show
//
// Transitions are monotonic. Terminal states accept nothing.

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCheckedIn,
		ReservationCheckedOut, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCheckedOut || s == ReservationCancelled || s == ReservationNoShow
}

func (s BookingSource) Valid() bool {
	return s == SourceOTA || s == SourceDirect
}

// Validate checks a reservation draft.
func (r *Reservation) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(r.GuestName) == "" {
		fields["guest_name"] = "is required"
	}
	if strings.TrimSpace(r.RoomType) == "" {
		fields["room_type"] = "is required"
	}
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		fields["dates"] = "check_in and check_out are required"
	} else if !r.CheckOut.After(r.CheckIn) {
		fields["check_out"] = "must be after check_in"
	}
	if r.Source == "" {
		r.Source = SourceDirect
	}
	if !r.Source.Valid() {
		fields["source"] = "must be ota or direct"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (r *Reservation) transitionError(to ReservationStatus, err error) error {
	return &TransitionError{
		Entity: "reservation",
		ID:     strconv.FormatInt(int64(r.ID), 10),
		From:   string(r.Status),
		To:     string(to),
		Err:    err,
	}
}

func (r *Reservation) Confirm() error {
	if r.Status != ReservationPending {
		return r.transitionError(ReservationConfirmed, ErrInvalidTransition)
	}
	r.Status = ReservationConfirmed
	return nil
}

// AssignRoom records a room for the stay. The room must be of the requested
// type and vacant. Assignment does not change the room's status.
func (r *Reservation) AssignRoom(room Room) error {
	if r.Status != ReservationPending && r.Status != ReservationConfirmed {
		return r.transitionError(r.Status, ErrInvalidTransition)
	}
	if !strings.EqualFold(room.TypeName, r.RoomType) {
		return fmt.Errorf("room %s is %s, reservation wants %s: %w", room.Number, room.TypeName, r.RoomType, ErrRoomTypeMismatch)
	}
	if room.Status != RoomVacant {
		return fmt.Errorf("room %s is %s: %w", room.Number, room.Status, ErrRoomNotVacant)
	}
	r.RoomAssigned = room.Number
	return nil
}

// StartStay moves a confirmed reservation into the stay. If a room was
// assigned it must be this room; otherwise this room is assigned when its
// type matches.
func (r *Reservation) StartStay(guestID GuestID, room Room) error {
	if r.Status != ReservationConfirmed {
		return r.transitionError(ReservationCheckedIn, ErrInvalidTransition)
	}
	if r.RoomAssigned != "" && r.RoomAssigned != room.Number {
		return fmt.Errorf("reservation holds room %s, check-in is for %s: %w", r.RoomAssigned, room.Number, ErrRoomMismatch)
	}
	if r.RoomAssigned == "" {
		if !strings.EqualFold(room.TypeName, r.RoomType) {
			return fmt.Errorf("room %s is %s, reservation wants %s: %w", room.Number, room.TypeName, r.RoomType, ErrRoomTypeMismatch)
		}
		r.RoomAssigned = room.Number
	}
	g := guestID
	r.GuestID = &g
	r.Status = ReservationCheckedIn
	return nil
}

// EndStay closes a checked-in reservation.
func (r *Reservation) EndStay() error {
	if r.Status != ReservationCheckedIn {
		return r.transitionError(ReservationCheckedOut, ErrInvalidTransition)
	}
	r.Status = ReservationCheckedOut
	return nil
}

func (r *Reservation) Cancel() error {
	if r.Status != ReservationPending && r.Status != ReservationConfirmed {
		return r.transitionError(ReservationCancelled, ErrInvalidTransition)
	}
	r.Status = ReservationCancelled
	return nil
}

func (r *Reservation) MarkNoShow() error {
	if r.Status != ReservationPending && r.Status != ReservationConfirmed {
		return r.transitionError(ReservationNoShow, ErrInvalidTransition)
	}
	r.Status = ReservationNoShow
	return nil
}

// HoldsRoom reports whether the reservation keeps number out of deletion.
func (r Reservation) HoldsRoom(number string) bool {
	if r.RoomAssigned != number {
		return false
	}
	return r.Status == ReservationConfirmed || r.Status == ReservationCheckedIn
}
