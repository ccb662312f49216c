/*
store.go - Unit-of-work persistence interfaces

PURPOSE:
  Defines the interface between the folio rules and the database. The whole
  hotel state (rooms, room types, guests, reservations, ledger, loyalty,
  tax settings) is one aggregate. It is only ever written inside a unit of
  work, which either commits every write or none of them.

KEY INTERFACES:
  Store:  WithTx (read-write unit of work) and View (read-only)
  Tx:     the repositories available inside a unit of work

UNIT OF WORK:
  WithTx runs fn with exclusive write access. If fn returns an error, or
  the context is done before commit, nothing fn wrote becomes visible.
  On commit the aggregate Version is incremented and returned.

  Holding exclusive access for the whole unit of work serializes every
  writer. Two check-ins racing for the same room therefore cannot both see
  it vacant, and two redemptions against one guest cannot both pass the
  balance check.

IMPLEMENTATIONS:
  - hotel/store/memory.go: copy-on-write in-memory store
  - store/sqlite/sqlite.go: SQLite store

EXAMPLE:
  version, err := store.WithTx(ctx, func(tx hotel.Tx) error {
      room, err := tx.GetRoom(ctx, roomID)
      if err != nil {
          return err
      }
      if err := room.Occupy(guestID); err != nil {
          return err
      }
      return tx.SaveRoom(ctx, *room)
  })

SEE ALSO:
  - ledger.go: ledger operations over TransactionRepository
  - folio/service.go: the only multi-repository writer
*/
package hotel

import "context"

// =============================================================================
// REPOSITORIES
// =============================================================================

// Get methods return a copy owned by the caller and a *NotFound sentinel
// when the entity does not exist. List methods return entities ordered by id
// (ledger and loyalty entries are ordered by date, then insertion).

type RoomRepository interface {
	GetRoom(ctx context.Context, id RoomID) (*Room, error)
	GetRoomByNumber(ctx context.Context, number string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	SaveRoom(ctx context.Context, room Room) error
	DeleteRoom(ctx context.Context, id RoomID) error
}

type RoomTypeRepository interface {
	GetRoomType(ctx context.Context, id RoomTypeID) (*RoomType, error)
	GetRoomTypeByName(ctx context.Context, name string) (*RoomType, error)
	ListRoomTypes(ctx context.Context) ([]RoomType, error)
	SaveRoomType(ctx context.Context, rt RoomType) error
	DeleteRoomType(ctx context.Context, id RoomTypeID) error
}

type GuestRepository interface {
	GetGuest(ctx context.Context, id GuestID) (*Guest, error)
	ListGuests(ctx context.Context) ([]Guest, error)
	SaveGuest(ctx context.Context, guest Guest) error
}

type ReservationRepository interface {
	GetReservation(ctx context.Context, id ReservationID) (*Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	SaveReservation(ctx context.Context, r Reservation) error
}

// TransactionRepository is the ledger's persistence. Entries are never
// updated; DeleteTransaction exists only for manager-authorized reversal.
type TransactionRepository interface {
	AppendTransaction(ctx context.Context, tx Transaction) error
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
	DeleteTransaction(ctx context.Context, id TransactionID) error
	TransactionsByGuest(ctx context.Context, guestID GuestID) ([]Transaction, error)
	ListTransactions(ctx context.Context) ([]Transaction, error)
}

type LoyaltyRepository interface {
	AppendLoyalty(ctx context.Context, lt LoyaltyTransaction) error
	LoyaltyByGuest(ctx context.Context, guestID GuestID) ([]LoyaltyTransaction, error)
	ListLoyalty(ctx context.Context) ([]LoyaltyTransaction, error)
}

type SettingsRepository interface {
	TaxSettings(ctx context.Context) (TaxSettings, error)
	SaveTaxSettings(ctx context.Context, s TaxSettings) error
}

// =============================================================================
// UNIT OF WORK
// =============================================================================

// Tx is the view of the aggregate inside a unit of work.
type Tx interface {
	RoomRepository
	RoomTypeRepository
	GuestRepository
	ReservationRepository
	TransactionRepository
	LoyaltyRepository
	SettingsRepository

	// NextID allocates the next id of a sequence.
	NextID(ctx context.Context, kind IDKind) (int64, error)

	// Version is the committed version this unit of work started from.
	Version(ctx context.Context) (Version, error)

	// Clear removes every room, room type, guest, reservation, ledger and
	// loyalty entry. Tax settings are configuration and survive.
	Clear(ctx context.Context) error
}

// Store owns the aggregate.
type Store interface {
	// WithTx executes fn within a unit of work and returns the version
	// after commit. On error the returned version is the unchanged one.
	WithTx(ctx context.Context, fn func(Tx) error) (Version, error)

	// View executes fn against committed state. Writes fail with ErrReadOnly.
	View(ctx context.Context, fn func(Tx) error) (Version, error)
}
