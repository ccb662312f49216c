/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Front-desk flow over HTTP (check-in, charge, check-out)
- Error mapping (404, 409, 403, 422, 428)
- Caller identity and If-Match handling
- Metrics exposure
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/folio-engine/folio"
	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/hotel/store"
	"github.com/warp/folio-engine/metrics"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	t       *testing.T
	router  http.Handler
	handler *Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	m := store.NewMemoryWithTax(hotel.TaxSettings{Enabled: true, Rate: decimal.RequireFromString("7.5")})
	reg := metrics.New()
	svc := folio.NewService(m, folio.WithMetrics(reg))
	h := NewHandler(svc, nil)
	router := NewRouter(h, RouterConfig{Metrics: reg, CORSOrigins: []string{"*"}})
	return &testServer{t: t, router: router, handler: h}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seedRoom creates room type Standard (20000) and room 101.
func (s *testServer) seedRoom() hotel.Room {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/room-types", map[string]any{
		"name": "Standard", "capacity": 2, "rates": map[string]any{"NGN": 20000},
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/rooms", map[string]any{"room_number": "101", "room_type": "Standard"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[EntityResponse[hotel.Room]](s.t, rec).Data
}

func (s *testServer) checkIn(roomID hotel.RoomID) folio.CheckInResult {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/checkin", map[string]any{
		"guest":           map[string]any{"name": "Ada Obi", "email": "ada@example.com"},
		"room_id":         roomID,
		"standard_charge": 20000,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[folio.CheckInResult](s.t, rec)
}

var managerHeaders = []string{headerActorID, "m-1", headerActorRole, "manager"}

// =============================================================================
// FRONT-DESK FLOW
// =============================================================================

func TestHTTP_CheckInChargeCheckOut(t *testing.T) {
	// GIVEN: room 101 at 20000 and tax 7.5%
	// WHEN: checking in, posting a taxable charge, then checking out with payment
	// THEN: balances follow the ledger and the room ends dirty

	s := newTestServer(t)
	room := s.seedRoom()

	in := s.checkIn(room.ID)
	assert.Equal(t, hotel.Major(21500), in.Balance)
	assert.Equal(t, hotel.RoomOccupied, in.Room.Status)
	require.Len(t, in.Entries, 2)

	rec := s.do(http.MethodPost, "/api/charges", map[string]any{
		"guest_id": in.Guest.ID, "description": "Minibar", "amount": 100, "taxable": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	posted := decode[folio.PostingResult](t, rec)
	assert.Equal(t, hotel.Major(21500)+hotel.Minor(10750), posted.Balance)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/guests/%d/folio", in.Guest.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[folio.FolioView](t, rec)
	assert.Len(t, view.Lines, 4)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	rec = s.do(http.MethodPost, "/api/checkout", map[string]any{
		"room_id": room.ID, "guest_id": in.Guest.ID,
		"payment": map[string]any{"amount": "21607.50", "method": "card"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[folio.CheckOutResult](t, rec)
	assert.Equal(t, hotel.Money(0), out.Balance)
	assert.Equal(t, hotel.PaymentPaid, out.Status)
	assert.Equal(t, hotel.RoomDirty, out.Room.Status)
}

func TestHTTP_CheckInOccupiedRoomIsConflict(t *testing.T) {
	s := newTestServer(t)
	room := s.seedRoom()
	s.checkIn(room.ID)

	rec := s.do(http.MethodPost, "/api/checkin", map[string]any{
		"guest": map[string]any{"name": "Bola Ade"}, "room_id": room.ID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Check-in failed", body.Error)
	assert.Contains(t, body.Details, "not vacant")
}

func TestHTTP_ValidationErrorsCarryFields(t *testing.T) {
	s := newTestServer(t)
	room := s.seedRoom()

	rec := s.do(http.MethodPost, "/api/checkin", map[string]any{
		"guest": map[string]any{"email": "nope"}, "room_id": room.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Contains(t, body.Fields, "name")
	assert.Contains(t, body.Fields, "email")
}

func TestHTTP_MalformedInput(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/checkin", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/guests/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/guests/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// AUTHORIZATION & CONFIRMATION
// =============================================================================

func TestHTTP_ReverseTransaction(t *testing.T) {
	s := newTestServer(t)
	room := s.seedRoom()
	in := s.checkIn(room.ID)
	path := "/api/transactions/" + string(in.Entries[1].ID)

	rec := s.do(http.MethodDelete, path+"?confirm=true", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, path, nil, managerHeaders...)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = s.do(http.MethodDelete, path+"?confirm=true", nil, managerHeaders...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, hotel.Major(20000), decode[folio.PostingResult](t, rec).Balance)
}

func TestHTTP_InvalidActorRole(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/admin/clear?confirm=true", nil, headerActorRole, "owner")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_ClearAllRequiresManager(t *testing.T) {
	s := newTestServer(t)
	s.seedRoom()

	rec := s.do(http.MethodPost, "/api/admin/clear?confirm=true", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/clear?confirm=true", nil, managerHeaders...)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/rooms", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

func TestHTTP_IfMatch(t *testing.T) {
	// GIVEN: a snapshot read at version N
	// WHEN: writing with If-Match N after another write moved the state
	// THEN: 409; with the current version the write succeeds

	s := newTestServer(t)
	room := s.seedRoom()

	rec := s.do(http.MethodGet, "/api/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	snap := decode[hotel.Snapshot](t, rec)
	assert.Equal(t, fmt.Sprintf("%q", fmt.Sprint(snap.Version)), etag)

	path := fmt.Sprintf("/api/rooms/%d/status", room.ID)
	rec = s.do(http.MethodPut, path, map[string]string{"status": "dirty"}, "If-Match", etag)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, path, map[string]string{"status": "cleaning"}, "If-Match", etag)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, path, map[string]string{"status": "cleaning"}, "If-Match", "soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// LOYALTY
// =============================================================================

func TestHTTP_RedeemInsufficientPoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/guests", map[string]any{"name": "Ada Obi"})
	require.Equal(t, http.StatusCreated, rec.Code)
	guest := decode[EntityResponse[hotel.Guest]](t, rec).Data

	rec = s.do(http.MethodPost, "/api/loyalty/earn", map[string]any{"guest_id": guest.ID, "points": 500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/loyalty/redeem", map[string]any{"guest_id": guest.ID, "points": 600})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[folio.RedeemResult](t, rec)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Message)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/guests/%d/loyalty", guest.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(500), decode[folio.LoyaltyView](t, rec).Points)
}

// =============================================================================
// SETTINGS & METRICS
// =============================================================================

func TestHTTP_TaxSettings(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/settings/tax", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7.5", decode[TaxSettingsDTO](t, rec).Rate)

	rec = s.do(http.MethodPut, "/api/settings/tax", map[string]any{"is_enabled": true, "rate": "150"}, managerHeaders...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/settings/tax", map[string]any{"is_enabled": false, "rate": "5"}, managerHeaders...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[TaxSettingsDTO](t, rec)
	assert.False(t, dto.Enabled)
	assert.Equal(t, "5", dto.Rate)
}

func TestHTTP_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seedRoom()

	rec := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "folio_http_requests_total")
	assert.Contains(t, rec.Body.String(), `folio_operations_total{operation="create_room",outcome="ok"} 1`)
}
