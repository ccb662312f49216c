package folio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/folio-engine/hotel"
)

// CreateReservation books a stay against an existing room type. A room may
// be assigned straight away when RoomNumber is given.
func (s *Service) CreateReservation(ctx context.Context, req ReservationRequest) (*hotel.Reservation, hotel.Version, error) {
	if err := s.check(req); err != nil {
		return nil, 0, err
	}

	var r hotel.Reservation
	version, err := s.write(ctx, "create_reservation", nil, func(tx hotel.Tx) error {
		rt, err := tx.GetRoomTypeByName(ctx, req.RoomType)
		if err != nil {
			return fmt.Errorf("room type %q: %w", req.RoomType, err)
		}
		r = hotel.Reservation{
			GuestName: strings.TrimSpace(req.GuestName),
			Email:     req.Email,
			Phone:     req.Phone,
			CheckIn:   req.CheckIn,
			CheckOut:  req.CheckOut,
			RoomType:  rt.Name,
			Source:    req.Source,
			Status:    hotel.ReservationPending,
			CreatedAt: s.clock(),
		}
		if err := r.Validate(); err != nil {
			return err
		}
		if req.RoomNumber != "" {
			room, err := tx.GetRoomByNumber(ctx, req.RoomNumber)
			if err != nil {
				return fmt.Errorf("room %s: %w", req.RoomNumber, err)
			}
			if err := r.AssignRoom(*room); err != nil {
				return err
			}
		}
		id, err := tx.NextID(ctx, hotel.KindReservation)
		if err != nil {
			return err
		}
		r.ID = hotel.ReservationID(id)
		return tx.SaveReservation(ctx, r)
	})
	if err != nil {
		return nil, version, err
	}
	return &r, version, nil
}

// UpdateReservation confirms, assigns a room, cancels or marks a no-show.
// checked_in and checked_out are reached only through CheckIn and CheckOut.
func (s *Service) UpdateReservation(ctx context.Context, id hotel.ReservationID, upd ReservationUpdate) (*hotel.Reservation, hotel.Version, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, 0, hotel.NewValidationError("status", "unknown reservation status "+strconv.Quote(string(*upd.Status)))
	}

	var r *hotel.Reservation
	version, err := s.write(ctx, "update_reservation", upd.ExpectedVersion, func(tx hotel.Tx) error {
		var err error
		if r, err = tx.GetReservation(ctx, id); err != nil {
			return err
		}
		target := r.Status
		if upd.Status != nil {
			target = *upd.Status
		}

		if target == hotel.ReservationConfirmed && r.Status == hotel.ReservationPending {
			if _, err := tx.GetRoomTypeByName(ctx, r.RoomType); err != nil {
				return fmt.Errorf("room type %q: %w", r.RoomType, err)
			}
			if err := r.Confirm(); err != nil {
				return err
			}
		}

		if upd.RoomNumber != nil && *upd.RoomNumber != r.RoomAssigned {
			room, err := tx.GetRoomByNumber(ctx, *upd.RoomNumber)
			if err != nil {
				return fmt.Errorf("room %s: %w", *upd.RoomNumber, err)
			}
			if err := r.AssignRoom(*room); err != nil {
				return err
			}
		}

		if target != r.Status {
			switch target {
			case hotel.ReservationCancelled:
				err = r.Cancel()
			case hotel.ReservationNoShow:
				err = r.MarkNoShow()
			default:
				err = &hotel.TransitionError{
					Entity: "reservation",
					ID:     strconv.FormatInt(int64(r.ID), 10),
					From:   string(r.Status),
					To:     string(target),
					Err:    hotel.ErrInvalidTransition,
				}
			}
			if err != nil {
				return err
			}
		}
		return tx.SaveReservation(ctx, *r)
	})
	if err != nil {
		return nil, version, err
	}
	return r, version, nil
}
