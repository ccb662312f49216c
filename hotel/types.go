/*
Package hotel provides the core folio and room-lifecycle engine.

PURPOSE:
  This package contains the data model and single-aggregate rules of the
  guest folio subsystem: rooms and their occupancy state machine,
  reservations and their lifecycle, the signed-amount ledger that makes up a
  guest's folio, and the tax policy applied when charges are posted.
  Multi-aggregate workflows (check-in, check-out) live in package folio.

KEY CONCEPTS IN THIS FILE (types.go):
  - Identifiers: type-safe ids for rooms, guests, reservations, entries
  - Room / RoomType: physical inventory and its rate card
  - Guest: identity, stay and loyalty fields
  - Reservation: a booking moving towards a check-in
  - Transaction: an immutable signed posting against a guest folio
  - LoyaltyTransaction: a signed point movement

DESIGN PRINCIPLES:
  1. Fixed-point money: amounts are Money (integer minor units)
  2. Balances are derived: a folio balance is the sum of its entries
  3. Guarded transitions: state changes go through methods that check
     the source state (see room.go, reservation.go)

SEE ALSO:
  - money.go: Money type and decimal conversion
  - ledger.go: posting, reversal and balance calculation
  - store.go: unit-of-work persistence interfaces
*/
package hotel

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RoomID int64
type RoomTypeID int64
type GuestID int64
type ReservationID int64
type TransactionID string
type LoyaltyTransactionID string

// Version is the committed snapshot version of the whole aggregate.
// It increases by one on every successful unit of work.
type Version uint64

// IDKind names a numeric id sequence.
type IDKind string

const (
	KindRoom        IDKind = "room"
	KindRoomType    IDKind = "room_type"
	KindGuest       IDKind = "guest"
	KindReservation IDKind = "reservation"
)

func NewTransactionID() TransactionID {
	return TransactionID(uuid.NewString())
}

func NewLoyaltyTransactionID() LoyaltyTransactionID {
	return LoyaltyTransactionID(uuid.NewString())
}

// BaseCurrency is the currency of Room.Rate and of every ledger amount.
const BaseCurrency = "NGN"

// =============================================================================
// ROOMS
// =============================================================================

type RoomStatus string

const (
	RoomVacant     RoomStatus = "vacant"
	RoomOccupied   RoomStatus = "occupied"
	RoomDirty      RoomStatus = "dirty"
	RoomCleaning   RoomStatus = "cleaning"
	RoomOutOfOrder RoomStatus = "out_of_order"
)

// Room is a physical room. GuestID is set if and only if Status is occupied.
type Room struct {
	ID       RoomID     `json:"id"`
	Number   string     `json:"room_number"`
	TypeName string     `json:"room_type"`
	Rate     Money      `json:"rate"`
	Status   RoomStatus `json:"status"`
	GuestID  *GuestID   `json:"guest_id,omitempty"`
}

// RoomType is a rate card entry. Name is unique ignoring case.
type RoomType struct {
	ID       RoomTypeID       `json:"id"`
	Name     string           `json:"name"`
	Rates    map[string]Money `json:"rates"`
	Capacity int              `json:"capacity"`
}

// Rate returns the rate for currency, falling back to zero.
func (rt RoomType) Rate(currency string) Money {
	return rt.Rates[currency]
}

// =============================================================================
// GUESTS
// =============================================================================

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

type Guest struct {
	ID           GuestID `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	GovernmentID string  `json:"government_id,omitempty"`

	// Stay fields
	Arrival    time.Time `json:"arrival"`
	Departure  time.Time `json:"departure"`
	RoomNumber string    `json:"room_number,omitempty"`
	RoomType   string    `json:"room_type,omitempty"`
	Adults     int       `json:"adults"`
	Children   int       `json:"children"`

	// Loyalty fields. LoyaltyPoints is a cached projection of the guest's
	// loyalty transactions; LifetimePoints only ever grows.
	LoyaltyPoints  int64 `json:"loyalty_points"`
	LifetimePoints int64 `json:"lifetime_points"`
	Tier           Tier  `json:"tier"`

	VIP       bool      `json:"vip"`
	Corporate bool      `json:"corporate"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
	ReservationNoShow     ReservationStatus = "no_show"
)

type BookingSource string

const (
	SourceOTA    BookingSource = "ota"
	SourceDirect BookingSource = "direct"
)

type Reservation struct {
	ID           ReservationID     `json:"id"`
	GuestName    string            `json:"guest_name"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	CheckIn      time.Time         `json:"check_in"`
	CheckOut     time.Time         `json:"check_out"`
	RoomType     string            `json:"room_type"`
	Source       BookingSource     `json:"source"`
	Status       ReservationStatus `json:"status"`
	RoomAssigned string            `json:"room_assigned,omitempty"`
	GuestID      *GuestID          `json:"guest_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// =============================================================================
// TRANSACTION - Signed posting against a guest folio
// =============================================================================

type TransactionKind string

const (
	TxCharge        TransactionKind = "charge"         // Room, restaurant or service charge
	TxTax           TransactionKind = "tax"            // Tax computed at posting time
	TxPayment       TransactionKind = "payment"        // Cash, card or transfer received
	TxAdjustment    TransactionKind = "adjustment"     // Manual correction
	TxLoyaltyCredit TransactionKind = "loyalty_credit" // Points redeemed against the folio
)

// Transaction is immutable once appended. Positive amounts are charges,
// negative amounts are payments or credits.
type Transaction struct {
	ID            TransactionID   `json:"id"`
	GuestID       GuestID         `json:"guest_id"`
	Description   string          `json:"description"`
	Amount        Money           `json:"amount"`
	Kind          TransactionKind `json:"kind"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// LoyaltyTransaction is a signed point movement: positive earned,
// negative redeemed.
type LoyaltyTransaction struct {
	ID          LoyaltyTransactionID `json:"id"`
	GuestID     GuestID              `json:"guest_id"`
	Points      int64                `json:"points"`
	Description string               `json:"description"`
	Date        time.Time            `json:"date"`
}
