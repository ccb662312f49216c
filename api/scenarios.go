/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the hotel with realistic data
	for demos and front-end development. Every step goes through the folio
	service, so scenario data obeys the same rules as live traffic.

AVAILABLE SCENARIOS:

	front-desk:     Room types, rooms and 7.5% tax; nobody checked in
	occupied-hotel: front-desk plus in-house guests, charges, loyalty
	                points and upcoming reservations

HOW SCENARIOS WORK:
 1. Clear all data (tax settings survive, then get reset to 7.5%)
 2. Create room types and rooms
 3. Optionally check guests in, post charges, earn points
 4. Optionally add reservations in various states

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "occupied-hotel"}

NOTE:

	Scenarios clear the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: the handlers sharing this Handler
  - folio/service.go: the operations used here
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "front-desk",
		Name:        "Front Desk",
		Description: "Three room types, six vacant rooms, tax at 7.5%",
	},
	{
		ID:          "occupied-hotel",
		Name:        "Occupied Hotel",
		Description: "Front desk plus in-house guests, open folios, loyalty points and reservations",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario clears the hotel and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "front-desk":
		load = h.loadFrontDeskScenario
	case "occupied-hotel":
		load = h.loadOccupiedHotelScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if _, err := h.Service.ClearAll(ctx, folio.System, true); err != nil {
		h.writeDomainError(w, r, "Failed to clear data", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		h.writeDomainError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// FRONT DESK
// =============================================================================

var demoRoomTypes = []folio.RoomTypeRequest{
	{Name: "Standard", Capacity: 2, Rates: map[string]hotel.Money{"NGN": hotel.Major(20000), "USD": hotel.Major(25)}},
	{Name: "Deluxe", Capacity: 3, Rates: map[string]hotel.Money{"NGN": hotel.Major(35000), "USD": hotel.Major(45)}},
	{Name: "Suite", Capacity: 4, Rates: map[string]hotel.Money{"NGN": hotel.Major(60000), "USD": hotel.Major(80)}},
}

var demoRooms = []folio.RoomRequest{
	{Number: "101", RoomType: "Standard"},
	{Number: "102", RoomType: "Standard"},
	{Number: "103", RoomType: "Standard"},
	{Number: "201", RoomType: "Deluxe"},
	{Number: "202", RoomType: "Deluxe"},
	{Number: "301", RoomType: "Suite"},
}

func (h *Handler) loadFrontDeskScenario(ctx context.Context) error {
	tax := hotel.TaxSettings{Enabled: true, Rate: decimal.RequireFromString("7.5")}
	if _, err := h.Service.UpdateTaxSettings(ctx, folio.System, tax, nil); err != nil {
		return fmt.Errorf("tax settings: %w", err)
	}
	for _, rt := range demoRoomTypes {
		if _, _, err := h.Service.CreateRoomType(ctx, rt); err != nil {
			return fmt.Errorf("room type %s: %w", rt.Name, err)
		}
	}
	for _, room := range demoRooms {
		if _, _, err := h.Service.CreateRoom(ctx, room); err != nil {
			return fmt.Errorf("room %s: %w", room.Number, err)
		}
	}
	return nil
}

// =============================================================================
// OCCUPIED HOTEL
// =============================================================================

func (h *Handler) loadOccupiedHotelScenario(ctx context.Context) error {
	if err := h.loadFrontDeskScenario(ctx); err != nil {
		return err
	}

	rooms, err := h.Service.ListRooms(ctx)
	if err != nil {
		return err
	}
	byNumber := make(map[string]hotel.RoomID, len(rooms))
	for _, r := range rooms {
		byNumber[r.Number] = r.ID
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	// Ada Obi: two-night stay in 101 with a restaurant bill.
	ada, err := h.Service.CheckIn(ctx, folio.CheckInRequest{
		Guest: &folio.GuestDraft{
			Name: "Ada Obi", Email: "ada.obi@example.com", Phone: "+2348030000001",
			Departure: today.AddDate(0, 0, 2), Adults: 1,
		},
		RoomID: byNumber["101"],
	})
	if err != nil {
		return fmt.Errorf("check in Ada Obi: %w", err)
	}
	if _, err := h.Service.PostCharge(ctx, folio.ChargeRequest{
		GuestID: ada.Guest.ID, Description: "Restaurant - dinner", Amount: hotel.Major(8500), Taxable: true,
	}); err != nil {
		return err
	}

	// Chinedu Okafor: corporate guest in 201, partly prepaid, Silver tier.
	chinedu, err := h.Service.CheckIn(ctx, folio.CheckInRequest{
		Guest: &folio.GuestDraft{
			Name: "Chinedu Okafor", Email: "c.okafor@example.com", Corporate: true,
			Departure: today.AddDate(0, 0, 3), Adults: 2,
		},
		RoomID: byNumber["201"],
	})
	if err != nil {
		return fmt.Errorf("check in Chinedu Okafor: %w", err)
	}
	if _, err := h.Service.PostTransaction(ctx, folio.TransactionRequest{
		GuestID: chinedu.Guest.ID, Description: "Deposit - transfer", Amount: hotel.Major(-20000),
		Kind: hotel.TxPayment, PaymentMethod: "transfer",
	}); err != nil {
		return err
	}
	if _, _, err := h.Service.EarnPoints(ctx, folio.PointsRequest{
		GuestID: chinedu.Guest.ID, Points: 1500, Description: "Previous stays",
	}); err != nil {
		return err
	}

	// Housekeeping states.
	if _, _, err := h.Service.SetRoomStatus(ctx, folio.System, byNumber["102"], string(hotel.RoomDirty), nil); err != nil {
		return err
	}
	if _, _, err := h.Service.SetRoomStatus(ctx, folio.System, byNumber["103"], string(hotel.RoomOutOfOrder), nil); err != nil {
		return err
	}

	// Upcoming bookings.
	if _, _, err := h.Service.CreateReservation(ctx, folio.ReservationRequest{
		GuestName: "Funke Adeyemi", Email: "funke@example.com",
		CheckIn: today.AddDate(0, 0, 1), CheckOut: today.AddDate(0, 0, 4),
		RoomType: "Suite", Source: hotel.SourceOTA,
	}); err != nil {
		return err
	}
	confirmed := hotel.ReservationConfirmed
	number := "202"
	booked, _, err := h.Service.CreateReservation(ctx, folio.ReservationRequest{
		GuestName: "Musa Bello", CheckIn: today, CheckOut: today.AddDate(0, 0, 1),
		RoomType: "Deluxe", Source: hotel.SourceDirect,
	})
	if err != nil {
		return err
	}
	if _, _, err := h.Service.UpdateReservation(ctx, booked.ID, folio.ReservationUpdate{
		Status: &confirmed, RoomNumber: &number,
	}); err != nil {
		return err
	}
	return nil
}
