package folio

import (
	"time"

	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/loyalty"
)

// =============================================================================
// STAY
// =============================================================================

// GuestDraft is the identity and stay data captured at the desk.
type GuestDraft struct {
	Name         string    `json:"name" validate:"required"`
	Email        string    `json:"email" validate:"omitempty,email"`
	Phone        string    `json:"phone"`
	GovernmentID string    `json:"government_id"`
	Arrival      time.Time `json:"arrival"`
	Departure    time.Time `json:"departure"`
	Adults       int       `json:"adults" validate:"gte=0"`
	Children     int       `json:"children" validate:"gte=0"`
	VIP          bool      `json:"vip"`
	Corporate    bool      `json:"corporate"`
}

// CheckInRequest either creates a guest from Guest or attaches GuestID.
// StandardCharge defaults to the room's rate when nil.
type CheckInRequest struct {
	Guest             *GuestDraft          `json:"guest"`
	GuestID           *hotel.GuestID       `json:"guest_id"`
	RoomID            hotel.RoomID         `json:"room_id" validate:"required"`
	StandardCharge    *hotel.Money         `json:"standard_charge"`
	ChargeDescription string               `json:"charge_description"`
	ReservationID     *hotel.ReservationID `json:"reservation_id"`
	ExpectedVersion   *hotel.Version       `json:"-"`
}

type CheckInResult struct {
	Guest       hotel.Guest         `json:"guest"`
	Room        hotel.Room          `json:"room"`
	Reservation *hotel.Reservation  `json:"reservation,omitempty"`
	Entries     []hotel.Transaction `json:"entries"`
	Balance     hotel.Money         `json:"balance"`
	Status      hotel.PaymentStatus `json:"payment_status"`
	Version     hotel.Version       `json:"version"`
}

type PaymentInput struct {
	Amount    hotel.Money `json:"amount" validate:"gt=0"`
	Method    string      `json:"method" validate:"required"`
	Reference string      `json:"reference"`
}

// CheckOutRequest settles and releases a room. LoyaltyPoints, when set,
// are earned for the stay in the same unit of work.
type CheckOutRequest struct {
	RoomID          hotel.RoomID         `json:"room_id" validate:"required"`
	GuestID         hotel.GuestID        `json:"guest_id" validate:"required"`
	ReservationID   *hotel.ReservationID `json:"reservation_id"`
	Payment         *PaymentInput        `json:"payment"`
	LoyaltyPoints   int64                `json:"loyalty_points" validate:"gte=0"`
	ExpectedVersion *hotel.Version       `json:"-"`
}

type CheckOutResult struct {
	Guest       hotel.Guest         `json:"guest"`
	Room        hotel.Room          `json:"room"`
	Reservation *hotel.Reservation  `json:"reservation,omitempty"`
	Payment     *hotel.Transaction  `json:"payment,omitempty"`
	Loyalty     *loyalty.Result     `json:"loyalty,omitempty"`
	Balance     hotel.Money         `json:"balance"`
	Status      hotel.PaymentStatus `json:"payment_status"`
	Version     hotel.Version       `json:"version"`
}

// =============================================================================
// LEDGER
// =============================================================================

type ChargeRequest struct {
	GuestID         hotel.GuestID  `json:"guest_id" validate:"required"`
	Description     string         `json:"description" validate:"required"`
	Amount          hotel.Money    `json:"amount" validate:"gt=0"`
	Taxable         bool           `json:"taxable"`
	Date            time.Time      `json:"date"`
	ExpectedVersion *hotel.Version `json:"-"`
}

// TransactionRequest is a raw signed posting: positive charges, negative
// payments or credits.
type TransactionRequest struct {
	GuestID         hotel.GuestID         `json:"guest_id" validate:"required"`
	Description     string                `json:"description" validate:"required"`
	Amount          hotel.Money           `json:"amount"`
	Kind            hotel.TransactionKind `json:"kind" validate:"omitempty,oneof=charge tax payment adjustment loyalty_credit"`
	Date            time.Time             `json:"date"`
	PaymentMethod   string                `json:"payment_method"`
	Reference       string                `json:"reference"`
	ExpectedVersion *hotel.Version        `json:"-"`
}

type PostingResult struct {
	Entries []hotel.Transaction `json:"entries"`
	Balance hotel.Money         `json:"balance"`
	Version hotel.Version       `json:"version"`
}

// =============================================================================
// INVENTORY & GUESTS
// =============================================================================

type RoomTypeRequest struct {
	Name     string                 `json:"name" validate:"required"`
	Rates    map[string]hotel.Money `json:"rates"`
	Capacity int                    `json:"capacity" validate:"gte=1"`
}

type RoomRequest struct {
	Number   string           `json:"room_number" validate:"required,alphanum"`
	RoomType string           `json:"room_type" validate:"required"`
	Rate     *hotel.Money     `json:"rate"`
	Status   hotel.RoomStatus `json:"status" validate:"omitempty,oneof=vacant dirty cleaning out_of_order"`
}

type GuestUpdate struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone"`
	GovernmentID *string `json:"government_id"`
	Adults       *int    `json:"adults" validate:"omitempty,gte=0"`
	Children     *int    `json:"children" validate:"omitempty,gte=0"`
	VIP          *bool   `json:"vip"`
	Corporate    *bool   `json:"corporate"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type ReservationRequest struct {
	GuestName  string              `json:"guest_name" validate:"required"`
	Email      string              `json:"email" validate:"omitempty,email"`
	Phone      string              `json:"phone"`
	CheckIn    time.Time           `json:"check_in" validate:"required"`
	CheckOut   time.Time           `json:"check_out" validate:"required"`
	RoomType   string              `json:"room_type" validate:"required"`
	Source     hotel.BookingSource `json:"source" validate:"omitempty,oneof=ota direct"`
	RoomNumber string              `json:"room_number"`
}

// ReservationUpdate applies, in order: confirm, room assignment, then
// cancellation or no-show.
type ReservationUpdate struct {
	Status          *hotel.ReservationStatus `json:"status"`
	RoomNumber      *string                  `json:"room_number"`
	ExpectedVersion *hotel.Version           `json:"-"`
}

// =============================================================================
// LOYALTY
// =============================================================================

type PointsRequest struct {
	GuestID     hotel.GuestID `json:"guest_id" validate:"required"`
	Points      int64         `json:"points"`
	Description string        `json:"description"`
	// ApplyToFolio posts the redeemed value as a loyalty credit.
	ApplyToFolio bool `json:"apply_to_folio"`
}

type RedeemResult struct {
	loyalty.Result
	Credit  *hotel.Transaction `json:"credit,omitempty"`
	Version hotel.Version      `json:"version"`
}

// =============================================================================
// VIEWS
// =============================================================================

type FolioView struct {
	Guest         hotel.Guest           `json:"guest"`
	Lines         []hotel.StatementLine `json:"lines"`
	Balance       hotel.Money           `json:"balance"`
	ReferenceRate hotel.Money           `json:"reference_rate"`
	Status        hotel.PaymentStatus   `json:"payment_status"`
	Version       hotel.Version         `json:"version"`
}

type LoyaltyView struct {
	GuestID        hotel.GuestID              `json:"guest_id"`
	Points         int64                      `json:"points"`
	LifetimePoints int64                      `json:"lifetime_points"`
	Tier           hotel.Tier                 `json:"tier"`
	NextTier       hotel.Tier                 `json:"next_tier,omitempty"`
	PointsToNext   int64                      `json:"points_to_next_tier,omitempty"`
	History        []hotel.LoyaltyTransaction `json:"history"`
	Version        hotel.Version              `json:"version"`
}
