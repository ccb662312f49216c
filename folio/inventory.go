package folio

import (
	"context"
	"fmt"
	"strings"

	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// ROOM STATUS
// =============================================================================

// SetRoomStatus is the housekeeping write path. Occupied is never entered or
// left here. A manager may release an out_of_order room.
func (s *Service) SetRoomStatus(ctx context.Context, actor Actor, roomID hotel.RoomID, status string, expected *hotel.Version) (*hotel.Room, hotel.Version, error) {
	to, err := hotel.ParseRoomStatus(status)
	if err != nil {
		return nil, 0, err
	}

	var room *hotel.Room
	version, err := s.write(ctx, "set_room_status", expected, func(tx hotel.Tx) error {
		room, err = tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if room.Status == hotel.RoomOutOfOrder && actor.IsManager() {
			err = room.ReturnToService(to)
		} else {
			err = room.SetHousekeepingStatus(to)
		}
		if err != nil {
			return err
		}
		return tx.SaveRoom(ctx, *room)
	})
	if err != nil {
		return nil, version, err
	}
	return room, version, nil
}

// =============================================================================
// ROOM TYPES
// =============================================================================

func (s *Service) CreateRoomType(ctx context.Context, req RoomTypeRequest) (*hotel.RoomType, hotel.Version, error) {
	if err := s.check(req); err != nil {
		return nil, 0, err
	}
	for currency, rate := range req.Rates {
		if rate.IsNegative() {
			return nil, 0, fmt.Errorf("%w: %s rate is negative", hotel.ErrInvalidAmount, currency)
		}
	}

	var rt hotel.RoomType
	version, err := s.write(ctx, "create_room_type", nil, func(tx hotel.Tx) error {
		name := strings.TrimSpace(req.Name)
		if _, err := tx.GetRoomTypeByName(ctx, name); err == nil {
			return fmt.Errorf("room type %q: %w", name, hotel.ErrDuplicateRoomType)
		} else if !hotel.IsNotFound(err) {
			return err
		}
		id, err := tx.NextID(ctx, hotel.KindRoomType)
		if err != nil {
			return err
		}
		rt = hotel.RoomType{
			ID:       hotel.RoomTypeID(id),
			Name:     name,
			Rates:    make(map[string]hotel.Money, len(req.Rates)),
			Capacity: req.Capacity,
		}
		for currency, rate := range req.Rates {
			rt.Rates[strings.ToUpper(currency)] = rate
		}
		return tx.SaveRoomType(ctx, rt)
	})
	if err != nil {
		return nil, version, err
	}
	return &rt, version, nil
}

// DeleteRoomType removes a room type. When rooms still reference it the call
// is rejected unless cascade is set; a cascade deletes those rooms and is
// itself rejected if any of them is in use.
func (s *Service) DeleteRoomType(ctx context.Context, actor Actor, id hotel.RoomTypeID, cascade bool) (hotel.Version, error) {
	if cascade {
		if err := requireManager(actor); err != nil {
			return 0, err
		}
	}
	return s.write(ctx, "delete_room_type", nil, func(tx hotel.Tx) error {
		rt, err := tx.GetRoomType(ctx, id)
		if err != nil {
			return err
		}
		rooms, err := tx.ListRooms(ctx)
		if err != nil {
			return err
		}
		reservations, err := tx.ListReservations(ctx)
		if err != nil {
			return err
		}

		var dependents []hotel.Room
		for _, r := range rooms {
			if strings.EqualFold(r.TypeName, rt.Name) {
				dependents = append(dependents, r)
			}
		}
		if len(dependents) > 0 && !cascade {
			return fmt.Errorf("room type %q has %d rooms: %w", rt.Name, len(dependents), hotel.ErrRoomTypeInUse)
		}
		for _, r := range dependents {
			if err := roomInUse(r, reservations); err != nil {
				return err
			}
		}
		for _, r := range dependents {
			if err := tx.DeleteRoom(ctx, r.ID); err != nil {
				return err
			}
		}
		return tx.DeleteRoomType(ctx, id)
	})
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Service) CreateRoom(ctx context.Context, req RoomRequest) (*hotel.Room, hotel.Version, error) {
	if err := s.check(req); err != nil {
		return nil, 0, err
	}
	if req.Rate != nil && req.Rate.IsNegative() {
		return nil, 0, fmt.Errorf("%w: rate is negative", hotel.ErrInvalidAmount)
	}

	var room hotel.Room
	version, err := s.write(ctx, "create_room", nil, func(tx hotel.Tx) error {
		if _, err := tx.GetRoomByNumber(ctx, req.Number); err == nil {
			return fmt.Errorf("room %s: %w", req.Number, hotel.ErrDuplicateRoomNumber)
		} else if !hotel.IsNotFound(err) {
			return err
		}
		rt, err := tx.GetRoomTypeByName(ctx, req.RoomType)
		if err != nil {
			return fmt.Errorf("room type %q: %w", req.RoomType, err)
		}
		id, err := tx.NextID(ctx, hotel.KindRoom)
		if err != nil {
			return err
		}
		room = hotel.Room{
			ID:       hotel.RoomID(id),
			Number:   req.Number,
			TypeName: rt.Name,
			Rate:     rt.Rate(hotel.BaseCurrency),
			Status:   hotel.RoomVacant,
		}
		if req.Rate != nil {
			room.Rate = *req.Rate
		}
		if req.Status != "" {
			room.Status = req.Status
		}
		return tx.SaveRoom(ctx, room)
	})
	if err != nil {
		return nil, version, err
	}
	return &room, version, nil
}

// DeleteRoom removes a room that is neither occupied nor held by a
// confirmed or checked-in reservation.
func (s *Service) DeleteRoom(ctx context.Context, id hotel.RoomID) (hotel.Version, error) {
	return s.write(ctx, "delete_room", nil, func(tx hotel.Tx) error {
		room, err := tx.GetRoom(ctx, id)
		if err != nil {
			return err
		}
		reservations, err := tx.ListReservations(ctx)
		if err != nil {
			return err
		}
		if err := roomInUse(*room, reservations); err != nil {
			return err
		}
		return tx.DeleteRoom(ctx, id)
	})
}

func roomInUse(room hotel.Room, reservations []hotel.Reservation) error {
	if room.Status == hotel.RoomOccupied {
		return fmt.Errorf("room %s is occupied: %w", room.Number, hotel.ErrRoomInUse)
	}
	for _, r := range reservations {
		if r.HoldsRoom(room.Number) {
			return fmt.Errorf("room %s is held by reservation %d: %w", room.Number, r.ID, hotel.ErrRoomInUse)
		}
	}
	return nil
}

// =============================================================================
// GUESTS
// =============================================================================

func (s *Service) CreateGuest(ctx context.Context, draft GuestDraft) (*hotel.Guest, hotel.Version, error) {
	if err := s.check(draft); err != nil {
		return nil, 0, err
	}
	var guest *hotel.Guest
	version, err := s.write(ctx, "create_guest", nil, func(tx hotel.Tx) error {
		var err error
		if guest, err = s.newGuest(ctx, tx, draft, s.clock()); err != nil {
			return err
		}
		return tx.SaveGuest(ctx, *guest)
	})
	if err != nil {
		return nil, version, err
	}
	return guest, version, nil
}

// UpdateGuest edits identity and classification fields. Stay and loyalty
// fields are owned by check-in, check-out and the loyalty account.
func (s *Service) UpdateGuest(ctx context.Context, id hotel.GuestID, upd GuestUpdate) (*hotel.Guest, hotel.Version, error) {
	if err := s.check(upd); err != nil {
		return nil, 0, err
	}
	var guest *hotel.Guest
	version, err := s.write(ctx, "update_guest", nil, func(tx hotel.Tx) error {
		var err error
		if guest, err = tx.GetGuest(ctx, id); err != nil {
			return err
		}
		if upd.Name != nil {
			if strings.TrimSpace(*upd.Name) == "" {
				return hotel.NewValidationError("name", "is required")
			}
			guest.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Email != nil {
			guest.Email = *upd.Email
		}
		if upd.Phone != nil {
			guest.Phone = *upd.Phone
		}
		if upd.GovernmentID != nil {
			guest.GovernmentID = *upd.GovernmentID
		}
		if upd.Adults != nil {
			guest.Adults = *upd.Adults
		}
		if upd.Children != nil {
			guest.Children = *upd.Children
		}
		if upd.VIP != nil {
			guest.VIP = *upd.VIP
		}
		if upd.Corporate != nil {
			guest.Corporate = *upd.Corporate
		}
		return tx.SaveGuest(ctx, *guest)
	})
	if err != nil {
		return nil, version, err
	}
	return guest, version, nil
}
