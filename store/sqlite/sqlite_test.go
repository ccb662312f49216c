package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/store/sqlite"
)

var day = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

var standardTax = hotel.TaxSettings{Enabled: true, Rate: decimal.RequireFromString("7.5")}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewWithTax(":memory:", standardTax)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// UNIT OF WORK
// =============================================================================

func TestSQLite_CommitIncrementsVersion(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	v1, err := s.WithTx(ctx, func(tx hotel.Tx) error { return nil })
	require.NoError(t, err)
	v2, err := s.WithTx(ctx, func(tx hotel.Tx) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, hotel.Version(1), v1)
	assert.Equal(t, hotel.Version(2), v2)
}

func TestSQLite_ErrorRollsBackEverything(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	v, err := s.WithTx(ctx, func(tx hotel.Tx) error {
		require.NoError(t, tx.SaveRoom(ctx, hotel.Room{ID: 1, Number: "101", TypeName: "Standard", Status: hotel.RoomVacant}))
		_, err := hotel.NewLedger(tx).PostTransaction(ctx, 1, "Room", hotel.Major(100), day)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, hotel.Version(0), v)

	_, err = s.View(ctx, func(tx hotel.Tx) error {
		rooms, err := tx.ListRooms(ctx)
		require.NoError(t, err)
		assert.Empty(t, rooms)
		txs, err := tx.ListTransactions(ctx)
		require.NoError(t, err)
		assert.Empty(t, txs)
		return nil
	})
	require.NoError(t, err)
}

func TestSQLite_CancelledContextCommitsNothing(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := s.WithTx(ctx, func(tx hotel.Tx) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	v, err := s.View(context.Background(), func(hotel.Tx) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, hotel.Version(0), v)
}

func TestSQLite_DoneContextReportsCurrentVersion(t *testing.T) {
	// GIVEN: a store at version 2
	// WHEN: starting a unit of work or a view with an already cancelled context
	// THEN: both fail and report version 2, not zero

	s := newStore(t)
	for i := 0; i < 2; i++ {
		_, err := s.WithTx(context.Background(), func(hotel.Tx) error { return nil })
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := s.WithTx(ctx, func(hotel.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, hotel.Version(2), v)

	v, err = s.View(ctx, func(hotel.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, hotel.Version(2), v)
}

func TestSQLite_ViewIsReadOnly(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.View(ctx, func(tx hotel.Tx) error {
		return tx.SaveGuest(ctx, hotel.Guest{ID: 1, Name: "Ada", Tier: hotel.TierBronze})
	})
	assert.ErrorIs(t, err, hotel.ErrReadOnly)
}

// =============================================================================
// REPOSITORIES
// =============================================================================

func TestSQLite_RoundTripsAggregates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	guestID := hotel.GuestID(1)

	_, err := s.WithTx(ctx, func(tx hotel.Tx) error {
		require.NoError(t, tx.SaveRoomType(ctx, hotel.RoomType{
			ID: 1, Name: "Standard", Capacity: 2,
			Rates: map[string]hotel.Money{"NGN": hotel.Major(20000), "USD": hotel.Major(25)},
		}))
		require.NoError(t, tx.SaveRoom(ctx, hotel.Room{
			ID: 1, Number: "101", TypeName: "Standard", Rate: hotel.Major(20000), Status: hotel.RoomOccupied, GuestID: &guestID,
		}))
		require.NoError(t, tx.SaveGuest(ctx, hotel.Guest{
			ID: guestID, Name: "Ada Obi", Email: "ada@example.com", Arrival: day, Departure: day.AddDate(0, 0, 2),
			RoomNumber: "101", RoomType: "Standard", Adults: 2, Tier: hotel.TierSilver, LoyaltyPoints: 1200,
			LifetimePoints: 1200, VIP: true, CreatedAt: day,
		}))
		return tx.SaveReservation(ctx, hotel.Reservation{
			ID: 1, GuestName: "Ada Obi", CheckIn: day, CheckOut: day.AddDate(0, 0, 2), RoomType: "Standard",
			Source: hotel.SourceOTA, Status: hotel.ReservationCheckedIn, RoomAssigned: "101", GuestID: &guestID, CreatedAt: day,
		})
	})
	require.NoError(t, err)

	_, err = s.View(ctx, func(tx hotel.Tx) error {
		rt, err := tx.GetRoomTypeByName(ctx, "STANDARD")
		require.NoError(t, err)
		assert.Equal(t, hotel.Major(25), rt.Rate("USD"))

		room, err := tx.GetRoomByNumber(ctx, "101")
		require.NoError(t, err)
		require.NotNil(t, room.GuestID)
		assert.Equal(t, guestID, *room.GuestID)

		g, err := tx.GetGuest(ctx, guestID)
		require.NoError(t, err)
		assert.Equal(t, "Ada Obi", g.Name)
		assert.True(t, g.Arrival.Equal(day))
		assert.Equal(t, hotel.TierSilver, g.Tier)
		assert.True(t, g.VIP)

		r, err := tx.GetReservation(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, hotel.ReservationCheckedIn, r.Status)
		assert.Equal(t, "101", r.RoomAssigned)

		_, err = tx.GetGuest(ctx, 99)
		assert.ErrorIs(t, err, hotel.ErrGuestNotFound)
		_, err = tx.GetRoom(ctx, 99)
		assert.ErrorIs(t, err, hotel.ErrRoomNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestSQLite_DuplicateRoomNumber(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.WithTx(ctx, func(tx hotel.Tx) error {
		require.NoError(t, tx.SaveRoom(ctx, hotel.Room{ID: 1, Number: "101", TypeName: "Standard", Status: hotel.RoomVacant}))
		return tx.SaveRoom(ctx, hotel.Room{ID: 2, Number: "101", TypeName: "Standard", Status: hotel.RoomVacant})
	})
	assert.ErrorIs(t, err, hotel.ErrDuplicateRoomNumber)
}

func TestSQLite_LedgerOrderingAndReverse(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var late hotel.Transaction
	_, err := s.WithTx(ctx, func(tx hotel.Tx) error {
		ledger := hotel.NewLedger(tx)
		var err error
		late, err = ledger.PostTransaction(ctx, 1, "Late", hotel.Major(30), day.Add(2*time.Hour))
		require.NoError(t, err)
		_, err = ledger.PostTransaction(ctx, 1, "Early", hotel.Major(10), day)
		require.NoError(t, err)
		_, err = ledger.PostTransaction(ctx, 1, "Same time", hotel.Major(5), day)
		return err
	})
	require.NoError(t, err)

	_, err = s.View(ctx, func(tx hotel.Tx) error {
		lines, balance, err := hotel.NewLedger(tx).Statement(ctx, 1)
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, "Early", lines[0].Description)
		assert.Equal(t, "Same time", lines[1].Description)
		assert.Equal(t, "Late", lines[2].Description)
		assert.Equal(t, hotel.Major(45), balance)
		return nil
	})
	require.NoError(t, err)

	_, err = s.WithTx(ctx, func(tx hotel.Tx) error {
		_, err := hotel.NewLedger(tx).Reverse(ctx, late.ID)
		return err
	})
	require.NoError(t, err)

	_, err = s.WithTx(ctx, func(tx hotel.Tx) error {
		_, err := hotel.NewLedger(tx).Reverse(ctx, late.ID)
		return err
	})
	assert.ErrorIs(t, err, hotel.ErrTransactionNotFound)
}

func TestSQLite_ClearKeepsTaxAndVersion(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.WithTx(ctx, func(tx hotel.Tx) error {
		id, err := tx.NextID(ctx, hotel.KindGuest)
		require.NoError(t, err)
		return tx.SaveGuest(ctx, hotel.Guest{ID: hotel.GuestID(id), Name: "Ada", Tier: hotel.TierBronze, CreatedAt: day})
	})
	require.NoError(t, err)

	v, err := s.WithTx(ctx, func(tx hotel.Tx) error { return tx.Clear(ctx) })
	require.NoError(t, err)
	assert.Equal(t, hotel.Version(2), v)

	_, err = s.View(ctx, func(tx hotel.Tx) error {
		guests, err := tx.ListGuests(ctx)
		require.NoError(t, err)
		assert.Empty(t, guests)
		settings, err := tx.TaxSettings(ctx)
		require.NoError(t, err)
		assert.True(t, settings.Enabled)
		assert.True(t, settings.Rate.Equal(decimal.RequireFromString("7.5")))
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// END TO END
// =============================================================================

func TestSQLite_FrontDeskFlowSurvivesReopen(t *testing.T) {
	// GIVEN: a file-backed store with room 101 and tax 7.5%
	// WHEN: Ada checks in, then the store is closed and reopened
	// THEN: the occupied room and the 21500 balance are still there

	path := filepath.Join(t.TempDir(), "folio.db")
	ctx := context.Background()

	s, err := sqlite.NewWithTax(path, standardTax)
	require.NoError(t, err)
	svc := folio.NewService(s)

	_, _, err = svc.CreateRoomType(ctx, folio.RoomTypeRequest{
		Name: "Standard", Capacity: 2, Rates: map[string]hotel.Money{hotel.BaseCurrency: hotel.Major(20000)},
	})
	require.NoError(t, err)
	room, _, err := svc.CreateRoom(ctx, folio.RoomRequest{Number: "101", RoomType: "Standard"})
	require.NoError(t, err)
	res, err := svc.CheckIn(ctx, folio.CheckInRequest{Guest: &folio.GuestDraft{Name: "Ada Obi"}, RoomID: room.ID})
	require.NoError(t, err)
	assert.Equal(t, hotel.Major(21500), res.Balance)
	require.NoError(t, s.Close())

	// Different initial tax must not override the stored settings.
	reopened, err := sqlite.NewWithTax(path, hotel.TaxSettings{})
	require.NoError(t, err)
	defer reopened.Close()
	svc = folio.NewService(reopened)

	view, err := svc.Folio(ctx, res.Guest.ID)
	require.NoError(t, err)
	assert.Equal(t, hotel.Major(21500), view.Balance)
	assert.Equal(t, hotel.Version(3), view.Version)

	settings, _, err := svc.TaxSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.Enabled)

	require.NoError(t, svc.Verify(ctx))
}
