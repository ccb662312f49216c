package hotel_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// MONEY
// =============================================================================

func TestMoney_ParseAndFormat(t *testing.T) {
	m, err := hotel.ParseMoney("107.50")
	require.NoError(t, err)
	assert.Equal(t, hotel.Minor(10750), m)
	assert.Equal(t, "107.50", m.String())

	_, err = hotel.ParseMoney("abc")
	assert.ErrorIs(t, err, hotel.ErrInvalidAmount)
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(hotel.Major(21500))
	require.NoError(t, err)
	assert.Equal(t, "21500", string(b))

	var m hotel.Money
	require.NoError(t, json.Unmarshal([]byte(`107.5`), &m))
	assert.Equal(t, hotel.Minor(10750), m)

	require.NoError(t, json.Unmarshal([]byte(`"0.005"`), &m))
	assert.Equal(t, hotel.Minor(1), m, "half rounds away from zero")
}

func TestMoney_RejectsOutOfRange(t *testing.T) {
	// GIVEN: amounts whose minor units do not fit in int64
	// WHEN: parsing them from JSON or text
	// THEN: ErrInvalidAmount, never a wrapped value

	var m hotel.Money
	err := json.Unmarshal([]byte(`100000000000000000`), &m)
	assert.ErrorIs(t, err, hotel.ErrInvalidAmount)
	assert.Equal(t, hotel.Money(0), m)

	_, err = hotel.ParseMoney("-100000000000000000")
	assert.ErrorIs(t, err, hotel.ErrInvalidAmount)

	_, err = hotel.MoneyFromDecimal(decimal.RequireFromString("92233720368547758.08"))
	assert.ErrorIs(t, err, hotel.ErrInvalidAmount)

	top, err := hotel.MoneyFromDecimal(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, hotel.Money(math.MaxInt64), top)
}

// =============================================================================
// TAX
// =============================================================================

func taxAt(rate string) hotel.TaxSettings {
	return hotel.TaxSettings{Enabled: true, Rate: decimal.RequireFromString(rate)}
}

func TestComputeTax(t *testing.T) {
	assert.Equal(t, hotel.Major(1500), hotel.ComputeTax(hotel.Major(20000), taxAt("7.5")))
	assert.Equal(t, hotel.Minor(750), hotel.ComputeTax(hotel.Major(100), taxAt("7.5")))

	// Disabled or non-positive rate yields no tax.
	disabled := taxAt("7.5")
	disabled.Enabled = false
	assert.Equal(t, hotel.Money(0), hotel.ComputeTax(hotel.Major(20000), disabled))
	assert.Equal(t, hotel.Money(0), hotel.ComputeTax(hotel.Major(20000), taxAt("0")))
}

func TestComputeTax_RoundsToMinorUnit(t *testing.T) {
	// 0.33 * 7.5% = 0.02475 -> 0.02
	assert.Equal(t, hotel.Minor(2), hotel.ComputeTax(hotel.Minor(33), taxAt("7.5")))
	// 0.34 * 7.5% = 0.0255 -> 0.03
	assert.Equal(t, hotel.Minor(3), hotel.ComputeTax(hotel.Minor(34), taxAt("7.5")))
}

func TestTaxSettings_Validate(t *testing.T) {
	assert.NoError(t, taxAt("7.5").Validate())
	assert.NoError(t, taxAt("100").Validate())
	assert.ErrorIs(t, taxAt("-1").Validate(), hotel.ErrInvalidTaxRate)
	assert.ErrorIs(t, taxAt("100.01").Validate(), hotel.ErrInvalidTaxRate)
}

// =============================================================================
// PAYMENT STATUS
// =============================================================================

func TestPaymentStatusOf(t *testing.T) {
	rate := hotel.Major(20000)
	assert.Equal(t, hotel.PaymentPaid, hotel.PaymentStatusOf(0, rate))
	assert.Equal(t, hotel.PaymentPaid, hotel.PaymentStatusOf(hotel.Major(-5), rate))
	assert.Equal(t, hotel.PaymentPending, hotel.PaymentStatusOf(hotel.Minor(1), rate))
	assert.Equal(t, hotel.PaymentPending, hotel.PaymentStatusOf(rate, rate))
	assert.Equal(t, hotel.PaymentOwing, hotel.PaymentStatusOf(hotel.Major(21500), rate))
}

// =============================================================================
// ROOM STATE MACHINE
// =============================================================================

func TestRoom_OccupyAndVacate(t *testing.T) {
	room := hotel.Room{ID: 1, Number: "101", Status: hotel.RoomVacant}

	require.NoError(t, room.Occupy(7))
	assert.Equal(t, hotel.RoomOccupied, room.Status)
	require.NotNil(t, room.GuestID)
	assert.Equal(t, hotel.GuestID(7), *room.GuestID)
	assert.NoError(t, room.CheckInvariant())

	// Occupied room cannot be occupied again.
	err := room.Occupy(8)
	assert.ErrorIs(t, err, hotel.ErrRoomNotVacant)
	var te *hotel.TransitionError
	assert.ErrorAs(t, err, &te)

	require.NoError(t, room.Vacate())
	assert.Equal(t, hotel.RoomDirty, room.Status)
	assert.Nil(t, room.GuestID)
	assert.NoError(t, room.CheckInvariant())

	assert.ErrorIs(t, room.Vacate(), hotel.ErrRoomNotOccupied)
}

func TestRoom_OccupyRejectedUnlessVacant(t *testing.T) {
	for _, s := range []hotel.RoomStatus{hotel.RoomDirty, hotel.RoomCleaning, hotel.RoomOutOfOrder} {
		room := hotel.Room{Number: "101", Status: s}
		assert.ErrorIs(t, room.Occupy(1), hotel.ErrRoomNotVacant, "from %s", s)
		assert.Nil(t, room.GuestID)
	}
}

func TestRoom_Housekeeping(t *testing.T) {
	room := hotel.Room{Number: "101", Status: hotel.RoomDirty}
	require.NoError(t, room.SetHousekeepingStatus(hotel.RoomCleaning))
	require.NoError(t, room.SetHousekeepingStatus(hotel.RoomVacant))
	require.NoError(t, room.SetHousekeepingStatus(hotel.RoomOutOfOrder))

	// out_of_order is only left through ReturnToService.
	assert.ErrorIs(t, room.SetHousekeepingStatus(hotel.RoomVacant), hotel.ErrInvalidTransition)
	require.NoError(t, room.ReturnToService(hotel.RoomDirty))
	assert.Equal(t, hotel.RoomDirty, room.Status)

	// Housekeeping never enters occupied.
	assert.ErrorIs(t, room.SetHousekeepingStatus(hotel.RoomOccupied), hotel.ErrInvalidTransition)

	// Housekeeping never leaves occupied.
	occupied := hotel.Room{Number: "102", Status: hotel.RoomVacant}
	require.NoError(t, occupied.Occupy(3))
	assert.ErrorIs(t, occupied.SetHousekeepingStatus(hotel.RoomDirty), hotel.ErrInvalidTransition)
	assert.Equal(t, hotel.RoomOccupied, occupied.Status)

	assert.ErrorIs(t, room.SetHousekeepingStatus("flooded"), hotel.ErrInvalidRoomStatus)
}

func TestParseRoomStatus(t *testing.T) {
	s, err := hotel.ParseRoomStatus(" Out_Of_Order ")
	require.NoError(t, err)
	assert.Equal(t, hotel.RoomOutOfOrder, s)

	_, err = hotel.ParseRoomStatus("closed")
	assert.ErrorIs(t, err, hotel.ErrInvalidRoomStatus)
	assert.True(t, hotel.IsClientError(err))
}

// =============================================================================
// RESERVATION LIFECYCLE
// =============================================================================

func newReservation() hotel.Reservation {
	in := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	return hotel.Reservation{
		ID:        1,
		GuestName: "Ada Obi",
		CheckIn:   in,
		CheckOut:  in.AddDate(0, 0, 2),
		RoomType:  "Standard",
		Status:    hotel.ReservationPending,
	}
}

func TestReservation_Validate(t *testing.T) {
	r := newReservation()
	require.NoError(t, r.Validate())
	assert.Equal(t, hotel.SourceDirect, r.Source)

	bad := newReservation()
	bad.CheckOut = bad.CheckIn
	bad.GuestName = ""
	err := bad.Validate()
	var ve *hotel.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "guest_name")
	assert.Contains(t, ve.Fields, "check_out")
}

func TestReservation_HappyPath(t *testing.T) {
	r := newReservation()
	room := hotel.Room{ID: 1, Number: "101", TypeName: "standard", Status: hotel.RoomVacant}

	require.NoError(t, r.Confirm())
	require.NoError(t, r.AssignRoom(room), "type match ignores case")
	assert.Equal(t, "101", r.RoomAssigned)
	assert.Equal(t, hotel.RoomVacant, room.Status, "assignment does not change room status")

	require.NoError(t, r.StartStay(9, room))
	assert.Equal(t, hotel.ReservationCheckedIn, r.Status)
	require.NotNil(t, r.GuestID)

	require.NoError(t, r.EndStay())
	assert.True(t, r.Status.IsTerminal())
}

func TestReservation_TerminalStatesAcceptNothing(t *testing.T) {
	room := hotel.Room{Number: "101", TypeName: "Standard", Status: hotel.RoomVacant}

	r := newReservation()
	require.NoError(t, r.Cancel())
	assert.ErrorIs(t, r.Confirm(), hotel.ErrInvalidTransition)
	assert.ErrorIs(t, r.MarkNoShow(), hotel.ErrInvalidTransition)
	assert.ErrorIs(t, r.StartStay(1, room), hotel.ErrInvalidTransition)
	assert.ErrorIs(t, r.AssignRoom(room), hotel.ErrInvalidTransition)
	assert.Equal(t, hotel.ReservationCancelled, r.Status)
}

func TestReservation_CheckInRequiresConfirmed(t *testing.T) {
	r := newReservation()
	room := hotel.Room{Number: "101", TypeName: "Standard", Status: hotel.RoomVacant}
	assert.ErrorIs(t, r.StartStay(1, room), hotel.ErrInvalidTransition)
	assert.Equal(t, hotel.ReservationPending, r.Status)
}

func TestReservation_AssignRoomGuards(t *testing.T) {
	r := newReservation()

	deluxe := hotel.Room{Number: "201", TypeName: "Deluxe", Status: hotel.RoomVacant}
	assert.ErrorIs(t, r.AssignRoom(deluxe), hotel.ErrRoomTypeMismatch)

	dirty := hotel.Room{Number: "102", TypeName: "Standard", Status: hotel.RoomDirty}
	assert.ErrorIs(t, r.AssignRoom(dirty), hotel.ErrRoomNotVacant)
	assert.Empty(t, r.RoomAssigned)
}

func TestReservation_CheckInRoomMismatch(t *testing.T) {
	r := newReservation()
	require.NoError(t, r.Confirm())
	require.NoError(t, r.AssignRoom(hotel.Room{Number: "101", TypeName: "Standard", Status: hotel.RoomVacant}))

	other := hotel.Room{Number: "102", TypeName: "Standard", Status: hotel.RoomVacant}
	assert.ErrorIs(t, r.StartStay(1, other), hotel.ErrRoomMismatch)
	assert.Equal(t, hotel.ReservationConfirmed, r.Status)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrorCategories(t *testing.T) {
	ip := &hotel.InsufficientPointsError{GuestID: 1, Available: 500, Requested: 600}
	assert.ErrorIs(t, ip, hotel.ErrInsufficientPoints)
	assert.True(t, hotel.IsClientError(ip))
	assert.Contains(t, ip.Error(), "available 500, requested 600")

	vc := &hotel.VersionConflictError{Expected: 3, Actual: 4}
	assert.True(t, hotel.IsConflict(vc))

	assert.True(t, hotel.IsNotFound(hotel.ErrGuestNotFound))
	assert.True(t, hotel.IsForbidden(hotel.ErrForbidden))
	assert.False(t, hotel.IsConflict(hotel.ErrGuestNotFound))
}
