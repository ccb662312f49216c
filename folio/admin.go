package folio

import (
	"context"
	"fmt"

	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/loyalty"
)

// =============================================================================
// SETTINGS & ADMIN
// =============================================================================

func (s *Service) TaxSettings(ctx context.Context) (hotel.TaxSettings, hotel.Version, error) {
	var settings hotel.TaxSettings
	version, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		settings, err = tx.TaxSettings(ctx)
		return err
	})
	return settings, version, err
}

// UpdateTaxSettings changes the rate used by future postings only.
func (s *Service) UpdateTaxSettings(ctx context.Context, actor Actor, settings hotel.TaxSettings, expected *hotel.Version) (hotel.Version, error) {
	if err := requireManager(actor); err != nil {
		return 0, err
	}
	if err := settings.Validate(); err != nil {
		return 0, err
	}
	return s.write(ctx, "update_tax_settings", expected, func(tx hotel.Tx) error {
		return tx.SaveTaxSettings(ctx, settings)
	})
}

// ClearAll wipes every room, guest, reservation, ledger and loyalty entry.
// Tax settings survive. The store's single writer makes it exclusive.
func (s *Service) ClearAll(ctx context.Context, actor Actor, confirmed bool) (hotel.Version, error) {
	if err := requireManager(actor); err != nil {
		return 0, err
	}
	if !confirmed {
		return 0, fmt.Errorf("clear all data: %w", hotel.ErrConfirmationRequired)
	}
	return s.write(ctx, "clear_all", nil, func(tx hotel.Tx) error {
		return tx.Clear(ctx)
	})
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) Snapshot(ctx context.Context) (hotel.Snapshot, error) {
	var snap hotel.Snapshot
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		snap, err = hotel.TakeSnapshot(ctx, tx)
		return err
	})
	return snap, err
}

// Folio returns the guest's statement, balance and payment status. The
// reference rate is the nightly rate of the guest's room.
func (s *Service) Folio(ctx context.Context, guestID hotel.GuestID) (*FolioView, error) {
	view := &FolioView{}
	version, err := s.read(ctx, func(tx hotel.Tx) error {
		guest, err := tx.GetGuest(ctx, guestID)
		if err != nil {
			return err
		}
		lines, balance, err := hotel.NewLedger(tx).Statement(ctx, guestID)
		if err != nil {
			return err
		}
		rate, err := referenceRate(ctx, tx, *guest)
		if err != nil {
			return err
		}
		view.Guest = *guest
		view.Lines = lines
		view.Balance = balance
		view.ReferenceRate = rate
		view.Status = hotel.PaymentStatusOf(balance, rate)
		return nil
	})
	if err != nil {
		return nil, err
	}
	view.Version = version
	return view, nil
}

func referenceRate(ctx context.Context, tx hotel.Tx, guest hotel.Guest) (hotel.Money, error) {
	if guest.RoomNumber != "" {
		room, err := tx.GetRoomByNumber(ctx, guest.RoomNumber)
		if err == nil {
			return room.Rate, nil
		}
		if !hotel.IsNotFound(err) {
			return 0, err
		}
	}
	if guest.RoomType != "" {
		rt, err := tx.GetRoomTypeByName(ctx, guest.RoomType)
		if err == nil {
			return rt.Rate(hotel.BaseCurrency), nil
		}
		if !hotel.IsNotFound(err) {
			return 0, err
		}
	}
	return 0, nil
}

func (s *Service) Loyalty(ctx context.Context, guestID hotel.GuestID) (*LoyaltyView, error) {
	view := &LoyaltyView{GuestID: guestID}
	version, err := s.read(ctx, func(tx hotel.Tx) error {
		guest, err := tx.GetGuest(ctx, guestID)
		if err != nil {
			return err
		}
		history, err := loyalty.NewAccount(tx, s.program).History(ctx, guestID)
		if err != nil {
			return err
		}
		view.Points = guest.LoyaltyPoints
		view.LifetimePoints = guest.LifetimePoints
		view.Tier = guest.Tier
		if next, needed, ok := s.program.NextTier(guest.LifetimePoints); ok {
			view.NextTier = next
			view.PointsToNext = needed
		}
		view.History = history
		return nil
	})
	if err != nil {
		return nil, err
	}
	view.Version = version
	return view, nil
}

func (s *Service) GetGuest(ctx context.Context, id hotel.GuestID) (*hotel.Guest, error) {
	var guest *hotel.Guest
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		guest, err = tx.GetGuest(ctx, id)
		return err
	})
	return guest, err
}

func (s *Service) ListGuests(ctx context.Context) ([]hotel.Guest, error) {
	var out []hotel.Guest
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		out, err = tx.ListGuests(ctx)
		return err
	})
	return out, err
}

func (s *Service) ListRooms(ctx context.Context) ([]hotel.Room, error) {
	var out []hotel.Room
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		out, err = tx.ListRooms(ctx)
		return err
	})
	return out, err
}

func (s *Service) ListRoomTypes(ctx context.Context) ([]hotel.RoomType, error) {
	var out []hotel.RoomType
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		out, err = tx.ListRoomTypes(ctx)
		return err
	})
	return out, err
}

func (s *Service) ListReservations(ctx context.Context) ([]hotel.Reservation, error) {
	var out []hotel.Reservation
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		var err error
		out, err = tx.ListReservations(ctx)
		return err
	})
	return out, err
}

// Verify checks the cross-aggregate invariants on committed state: occupancy
// matches guest assignment and every loyalty balance matches its history.
func (s *Service) Verify(ctx context.Context) error {
	_, err := s.read(ctx, func(tx hotel.Tx) error {
		rooms, err := tx.ListRooms(ctx)
		if err != nil {
			return err
		}
		for _, r := range rooms {
			if err := r.CheckInvariant(); err != nil {
				return err
			}
		}
		guests, err := tx.ListGuests(ctx)
		if err != nil {
			return err
		}
		for _, g := range guests {
			history, err := tx.LoyaltyByGuest(ctx, g.ID)
			if err != nil {
				return err
			}
			if err := loyalty.Verify(g, history); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}
