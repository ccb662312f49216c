package folio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/loyalty"
)

// =============================================================================
// CHECK-IN
// =============================================================================

// CheckIn occupies a vacant room with a new or existing guest, moves the
// linked reservation to checked_in and posts the room charge with its tax.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if (req.Guest == nil) == (req.GuestID == nil) {
		return nil, hotel.NewValidationError("guest", "provide exactly one of guest or guest_id")
	}
	if req.StandardCharge != nil && req.StandardCharge.IsNegative() {
		return nil, fmt.Errorf("%w: standard charge must not be negative", hotel.ErrInvalidAmount)
	}

	now := s.clock()
	res := &CheckInResult{}
	version, err := s.write(ctx, "checkin", req.ExpectedVersion, func(tx hotel.Tx) error {
		room, err := tx.GetRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if room.Status != hotel.RoomVacant {
			return fmt.Errorf("check-in to room %s: %w", room.Number, &hotel.TransitionError{
				Entity: "room", ID: room.Number, From: string(room.Status), To: string(hotel.RoomOccupied), Err: hotel.ErrRoomNotVacant,
			})
		}

		var reservation *hotel.Reservation
		if req.ReservationID != nil {
			if reservation, err = tx.GetReservation(ctx, *req.ReservationID); err != nil {
				return err
			}
		}

		guest, err := s.resolveGuest(ctx, tx, req, now)
		if err != nil {
			return err
		}
		guest.RoomNumber = room.Number
		guest.RoomType = room.TypeName
		if guest.Arrival.IsZero() || req.GuestID != nil {
			guest.Arrival = now
		}
		if reservation != nil && (guest.Departure.IsZero() || !guest.Departure.After(guest.Arrival)) {
			guest.Departure = reservation.CheckOut
		}
		if !guest.Departure.After(guest.Arrival) {
			guest.Departure = guest.Arrival.AddDate(0, 0, 1)
		}

		if reservation != nil {
			if err := reservation.StartStay(guest.ID, *room); err != nil {
				return err
			}
			if err := tx.SaveReservation(ctx, *reservation); err != nil {
				return err
			}
		}

		if err := room.Occupy(guest.ID); err != nil {
			return err
		}
		if err := tx.SaveRoom(ctx, *room); err != nil {
			return err
		}
		if err := tx.SaveGuest(ctx, *guest); err != nil {
			return err
		}

		charge := room.Rate
		if req.StandardCharge != nil {
			charge = *req.StandardCharge
		}
		description := req.ChargeDescription
		if strings.TrimSpace(description) == "" {
			description = "Room charge - Room " + room.Number
		}
		entries, err := s.postWithTax(ctx, tx, guest.ID, description, charge, true, now)
		if err != nil {
			return err
		}

		ledger := hotel.NewLedger(tx)
		balance, err := ledger.BalanceOf(ctx, guest.ID)
		if err != nil {
			return err
		}

		res.Guest = *guest
		res.Room = *room
		res.Reservation = reservation
		res.Entries = entries
		res.Balance = balance
		res.Status = hotel.PaymentStatusOf(balance, room.Rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = version
	s.observePostings(res.Entries)
	return res, nil
}

func (s *Service) resolveGuest(ctx context.Context, tx hotel.Tx, req CheckInRequest, now time.Time) (*hotel.Guest, error) {
	if req.GuestID != nil {
		return tx.GetGuest(ctx, *req.GuestID)
	}
	return s.newGuest(ctx, tx, *req.Guest, now)
}

func (s *Service) newGuest(ctx context.Context, tx hotel.Tx, d GuestDraft, now time.Time) (*hotel.Guest, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, hotel.NewValidationError("name", "is required")
	}
	id, err := tx.NextID(ctx, hotel.KindGuest)
	if err != nil {
		return nil, err
	}
	return &hotel.Guest{
		ID:           hotel.GuestID(id),
		Name:         strings.TrimSpace(d.Name),
		Email:        d.Email,
		Phone:        d.Phone,
		GovernmentID: d.GovernmentID,
		Arrival:      d.Arrival,
		Departure:    d.Departure,
		Adults:       d.Adults,
		Children:     d.Children,
		Tier:         s.program.TierFor(0),
		VIP:          d.VIP,
		Corporate:    d.Corporate,
		CreatedAt:    now,
	}, nil
}

// postWithTax posts a charge and, when taxable and tax is enabled, a tax
// line computed from the settings in force now. Zero charges post nothing.
func (s *Service) postWithTax(ctx context.Context, tx hotel.Tx, guestID hotel.GuestID, description string, amount hotel.Money, taxable bool, at time.Time) ([]hotel.Transaction, error) {
	if amount.IsZero() {
		return nil, nil
	}
	ledger := hotel.NewLedger(tx)
	settings, err := tx.TaxSettings(ctx)
	if err != nil {
		return nil, err
	}

	base, tax := hotel.ChargeWithTax(amount, settings)
	charge, err := ledger.Post(ctx, hotel.Transaction{
		GuestID:     guestID,
		Description: description,
		Amount:      base,
		Kind:        hotel.TxCharge,
		Date:        at,
	})
	if err != nil {
		return nil, err
	}
	entries := []hotel.Transaction{charge}

	if taxable && tax.IsPositive() {
		taxEntry, err := ledger.Post(ctx, hotel.Transaction{
			GuestID:     guestID,
			Description: hotel.TaxDescription(settings, description),
			Amount:      tax,
			Kind:        hotel.TxTax,
			Date:        at,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, taxEntry)
	}
	return entries, nil
}

// =============================================================================
// CHECK-OUT
// =============================================================================

// CheckOut posts the optional payment and loyalty earn, releases the room to
// dirty and closes the linked reservation. A non-zero balance does not block.
func (s *Service) CheckOut(ctx context.Context, req CheckOutRequest) (*CheckOutResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	now := s.clock()
	res := &CheckOutResult{}
	version, err := s.write(ctx, "checkout", req.ExpectedVersion, func(tx hotel.Tx) error {
		room, err := tx.GetRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if room.Status != hotel.RoomOccupied {
			return room.Vacate()
		}
		if room.GuestID == nil || *room.GuestID != req.GuestID {
			return fmt.Errorf("room %s, guest %d: %w", room.Number, req.GuestID, hotel.ErrGuestMismatch)
		}
		guest, err := tx.GetGuest(ctx, req.GuestID)
		if err != nil {
			return err
		}

		reservation, err := s.stayReservation(ctx, tx, req, room.Number)
		if err != nil {
			return err
		}
		if reservation != nil {
			if err := reservation.EndStay(); err != nil {
				return err
			}
			if err := tx.SaveReservation(ctx, *reservation); err != nil {
				return err
			}
		}

		ledger := hotel.NewLedger(tx)
		if req.Payment != nil {
			payment, err := ledger.Post(ctx, hotel.Transaction{
				GuestID:       guest.ID,
				Description:   "Payment - " + req.Payment.Method,
				Amount:        req.Payment.Amount.Neg(),
				Kind:          hotel.TxPayment,
				Date:          now,
				PaymentMethod: req.Payment.Method,
				Reference:     req.Payment.Reference,
			})
			if err != nil {
				return err
			}
			res.Payment = &payment
		}

		if err := room.Vacate(); err != nil {
			return err
		}
		if err := tx.SaveRoom(ctx, *room); err != nil {
			return err
		}

		guest.Departure = now
		if err := tx.SaveGuest(ctx, *guest); err != nil {
			return err
		}

		if req.LoyaltyPoints > 0 {
			earned, err := loyalty.NewAccount(tx, s.program).Earn(ctx, guest.ID, req.LoyaltyPoints, "Stay - Room "+room.Number, now)
			if err != nil {
				return err
			}
			res.Loyalty = &earned
			if guest, err = tx.GetGuest(ctx, guest.ID); err != nil {
				return err
			}
		}

		balance, err := ledger.BalanceOf(ctx, guest.ID)
		if err != nil {
			return err
		}
		res.Guest = *guest
		res.Room = *room
		res.Reservation = reservation
		res.Balance = balance
		res.Status = hotel.PaymentStatusOf(balance, room.Rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = version
	if res.Payment != nil {
		s.observePostings([]hotel.Transaction{*res.Payment})
	}
	return res, nil
}

// stayReservation returns the explicit reservation, or the guest's
// checked-in reservation for the room when none was given.
func (s *Service) stayReservation(ctx context.Context, tx hotel.Tx, req CheckOutRequest, roomNumber string) (*hotel.Reservation, error) {
	if req.ReservationID != nil {
		r, err := tx.GetReservation(ctx, *req.ReservationID)
		if err != nil {
			return nil, err
		}
		if r.RoomAssigned != roomNumber {
			return nil, fmt.Errorf("reservation %d holds room %q, check-out is for %s: %w", r.ID, r.RoomAssigned, roomNumber, hotel.ErrRoomMismatch)
		}
		if r.GuestID == nil || *r.GuestID != req.GuestID {
			return nil, fmt.Errorf("reservation %d, guest %d: %w", r.ID, req.GuestID, hotel.ErrGuestMismatch)
		}
		return r, nil
	}
	all, err := tx.ListReservations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		r := all[i]
		if r.Status == hotel.ReservationCheckedIn && r.RoomAssigned == roomNumber && r.GuestID != nil && *r.GuestID == req.GuestID {
			return &r, nil
		}
	}
	return nil, nil
}
