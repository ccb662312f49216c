/*
handlers.go - HTTP API handlers for the front-desk folio engine

PURPOSE:
  Exposes the folio service via REST API. Handles HTTP request/response,
  JSON serialization, caller identity and optimistic concurrency headers,
  and delegates every rule to package folio.

ENDPOINTS:
  Stay:
    POST   /api/checkin                    Check a guest into a vacant room
    POST   /api/checkout                   Settle and release a room

  Ledger:
    POST   /api/charges                    Post a charge (+ tax line)
    POST   /api/transactions               Post a raw signed entry
    DELETE /api/transactions/{id}          Reverse an entry (manager, ?confirm=true)

  Inventory:
    GET    /api/rooms                      List rooms
    POST   /api/rooms                      Create room
    DELETE /api/rooms/{id}                 Delete room
    PUT    /api/rooms/{id}/status          Housekeeping status change
    GET    /api/room-types                 List room types
    POST   /api/room-types                 Create room type
    DELETE /api/room-types/{id}            Delete room type (?cascade=true)

  Guests & loyalty:
    GET    /api/guests                     List guests
    POST   /api/guests                     Create guest
    GET    /api/guests/{id}                Get guest
    PUT    /api/guests/{id}                Update guest
    GET    /api/guests/{id}/folio          Statement, balance, payment status
    GET    /api/guests/{id}/loyalty        Points, tier, history
    POST   /api/loyalty/earn               Earn points
    POST   /api/loyalty/redeem             Redeem points

  Reservations:
    GET    /api/reservations               List reservations
    POST   /api/reservations               Create reservation
    PUT    /api/reservations/{id}          Confirm / assign / cancel / no-show

  Admin:
    GET    /api/snapshot                   Full state at the current version
    GET    /api/settings/tax               Tax settings
    PUT    /api/settings/tax               Update tax settings (manager)
    POST   /api/admin/clear                Clear all data (manager, ?confirm=true)

CALLER IDENTITY:
  X-Actor-ID and X-Actor-Role identify the caller. A missing role means
  staff. Role checks happen in the service.

OPTIMISTIC CONCURRENCY:
  If-Match: <version> on a write becomes ExpectedVersion. Reads return the
  version in the body and in the ETag header.

ERROR HANDLING:
  Errors are returned as JSON with the status chosen by writeDomainError:
  - 400: Malformed input
  - 403: Manager role required
  - 404: Entity not found
  - 409: Wrong state, duplicate, version conflict
  - 422: Validation failures, insufficient points
  - 428: Destructive action without confirmation
  - 500: Internal errors

SEE ALSO:
  - dto.go: HTTP-only request/response structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *folio.Service
	Logger  *zap.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler for the given service.
func NewHandler(svc *folio.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

// =============================================================================
// STAY HANDLERS
// =============================================================================

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req folio.CheckInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	req.ExpectedVersion = expected

	res, err := h.Service.CheckIn(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Check-in failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req folio.CheckOutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	req.ExpectedVersion = expected

	res, err := h.Service.CheckOut(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Check-out failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

func (h *Handler) PostCharge(w http.ResponseWriter, r *http.Request) {
	var req folio.ChargeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	req.ExpectedVersion = expected

	res, err := h.Service.PostCharge(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to post charge", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var req folio.TransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	req.ExpectedVersion = expected

	res, err := h.Service.PostTransaction(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to post transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ReverseTransaction deletes a ledger entry. Requires ?confirm=true.
func (h *Handler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	id := hotel.TransactionID(chi.URLParam(r, "id"))

	res, err := h.Service.ReverseTransaction(r.Context(), actor, id, queryFlag(r, "confirm"), expected)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reverse transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Service.ListRooms(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list rooms", err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req folio.RoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	room, version, err := h.Service.CreateRoom(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create room", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntityResponse[*hotel.Room]{Data: room, Version: version})
}

func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	version, err := h.Service.DeleteRoom(r.Context(), hotel.RoomID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete room", err)
		return
	}
	writeJSON(w, http.StatusOK, VersionResponse{Status: "deleted", Version: version})
}

func (h *Handler) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req RoomStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, version, err := h.Service.SetRoomStatus(r.Context(), actor, hotel.RoomID(id), req.Status, expected)
	if err != nil {
		h.writeDomainError(w, r, "Failed to update room status", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityResponse[*hotel.Room]{Data: room, Version: version})
}

func (h *Handler) ListRoomTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListRoomTypes(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list room types", err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *Handler) CreateRoomType(w http.ResponseWriter, r *http.Request) {
	var req folio.RoomTypeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rt, version, err := h.Service.CreateRoomType(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create room type", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntityResponse[*hotel.RoomType]{Data: rt, Version: version})
}

// DeleteRoomType removes a room type; ?cascade=true also removes its rooms.
func (h *Handler) DeleteRoomType(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	version, err := h.Service.DeleteRoomType(r.Context(), actor, hotel.RoomTypeID(id), queryFlag(r, "cascade"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete room type", err)
		return
	}
	writeJSON(w, http.StatusOK, VersionResponse{Status: "deleted", Version: version})
}

// =============================================================================
// GUEST HANDLERS
// =============================================================================

func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.Service.ListGuests(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list guests", err)
		return
	}
	writeJSON(w, http.StatusOK, guests)
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req folio.GuestDraft
	if !decodeBody(w, r, &req) {
		return
	}
	guest, version, err := h.Service.CreateGuest(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create guest", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntityResponse[*hotel.Guest]{Data: guest, Version: version})
}

func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	guest, err := h.Service.GetGuest(r.Context(), hotel.GuestID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get guest", err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req folio.GuestUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	guest, version, err := h.Service.UpdateGuest(r.Context(), hotel.GuestID(id), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to update guest", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityResponse[*hotel.Guest]{Data: guest, Version: version})
}

func (h *Handler) GetFolio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Folio(r.Context(), hotel.GuestID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get folio", err)
		return
	}
	setETag(w, view.Version)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) GetLoyalty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Loyalty(r.Context(), hotel.GuestID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get loyalty account", err)
		return
	}
	setETag(w, view.Version)
	writeJSON(w, http.StatusOK, view)
}

// =============================================================================
// LOYALTY HANDLERS
// =============================================================================

func (h *Handler) EarnPoints(w http.ResponseWriter, r *http.Request) {
	var req folio.PointsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, version, err := h.Service.EarnPoints(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to earn points", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityResponse[any]{Data: res, Version: version})
}

// RedeemPoints answers a failed redemption with the result body
// ({success: false, message}) rather than the generic error shape.
func (h *Handler) RedeemPoints(w http.ResponseWriter, r *http.Request) {
	var req folio.PointsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.Service.RedeemPoints(r.Context(), req)
	if err != nil {
		if res != nil && (hotel.IsClientError(err) || hotel.IsConflict(err)) {
			writeJSON(w, statusFor(err), res)
			return
		}
		h.writeDomainError(w, r, "Failed to redeem points", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListReservations(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list reservations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req folio.ReservationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, version, err := h.Service.CreateReservation(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create reservation", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntityResponse[*hotel.Reservation]{Data: res, Version: version})
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req folio.ReservationUpdate
	if !decodeBody(w, r, &req) {
		return
	}
	req.ExpectedVersion = expected

	res, version, err := h.Service.UpdateReservation(r.Context(), hotel.ReservationID(id), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to update reservation", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityResponse[*hotel.Reservation]{Data: res, Version: version})
}

// =============================================================================
// SETTINGS & ADMIN HANDLERS
// =============================================================================

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.Snapshot(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to take snapshot", err)
		return
	}
	setETag(w, snap.Version)
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetTaxSettings(w http.ResponseWriter, r *http.Request) {
	settings, version, err := h.Service.TaxSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to read tax settings", err)
		return
	}
	setETag(w, version)
	writeJSON(w, http.StatusOK, toTaxSettingsDTO(settings, version))
}

func (h *Handler) UpdateTaxSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	expected, ok := expectedVersion(w, r)
	if !ok {
		return
	}
	var req TaxSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	settings := hotel.TaxSettings{Enabled: req.Enabled, Rate: req.Rate}
	version, err := h.Service.UpdateTaxSettings(r.Context(), actor, settings, expected)
	if err != nil {
		h.writeDomainError(w, r, "Failed to update tax settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaxSettingsDTO(settings, version))
}

// ClearAll wipes all data. Requires a manager and ?confirm=true.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	version, err := h.Service.ClearAll(r.Context(), actor, queryFlag(r, "confirm"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to clear data", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, VersionResponse{Status: "cleared", Version: version})
}

// =============================================================================
// HELPERS
// =============================================================================

const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

// actorFromRequest reads the caller from the identity headers.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (folio.Actor, bool) {
	actor := folio.Actor{
		ID:   strings.TrimSpace(r.Header.Get(headerActorID)),
		Role: folio.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(headerActorRole)))),
	}
	if actor.ID == "" {
		actor.ID = "anonymous"
	}
	switch actor.Role {
	case "":
		actor.Role = folio.RoleStaff
	case folio.RoleStaff, folio.RoleManager, folio.RoleAdmin:
	default:
		writeError(w, http.StatusBadRequest, "Invalid "+headerActorRole+" header", fmt.Errorf("unknown role %q", actor.Role))
		return actor, false
	}
	return actor, true
}

// expectedVersion parses If-Match. Both 7 and "7" are accepted.
func expectedVersion(w http.ResponseWriter, r *http.Request) (*hotel.Version, bool) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return nil, true
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid If-Match header", err)
		return nil, false
	}
	v := hotel.Version(n)
	return &v, true
}

func setETag(w http.ResponseWriter, v hotel.Version) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatUint(uint64(v), 10)))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", fmt.Errorf("id %q is not a positive integer", raw))
		return 0, false
	}
	return id, true
}

func queryFlag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	var ve *hotel.ValidationError
	switch {
	case errors.Is(err, hotel.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case hotel.IsForbidden(err):
		return http.StatusForbidden
	case hotel.IsNotFound(err):
		return http.StatusNotFound
	case hotel.IsConflict(err):
		return http.StatusConflict
	case errors.As(err, &ve), errors.Is(err, hotel.ErrInsufficientPoints):
		return http.StatusUnprocessableEntity
	case hotel.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeDomainError is the single place where domain errors become HTTP
// responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	var ve *hotel.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	writeJSON(w, status, resp)
}
