// Package store provides the in-memory hotel.Store implementation.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for tests and dev)
// =============================================================================

// Memory keeps the aggregate in one state value. A unit of work runs against
// a private clone which replaces the committed state only on success, so a
// failed or cancelled unit of work leaves nothing behind.
type Memory struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	version      hotel.Version
	seq          map[hotel.IDKind]int64
	rooms        map[hotel.RoomID]hotel.Room
	roomTypes    map[hotel.RoomTypeID]hotel.RoomType
	guests       map[hotel.GuestID]hotel.Guest
	reservations map[hotel.ReservationID]hotel.Reservation
	transactions []hotel.Transaction // ordered by Date, then insertion
	loyalty      []hotel.LoyaltyTransaction
	tax          hotel.TaxSettings
}

func newState() *state {
	return &state{
		seq:          make(map[hotel.IDKind]int64),
		rooms:        make(map[hotel.RoomID]hotel.Room),
		roomTypes:    make(map[hotel.RoomTypeID]hotel.RoomType),
		guests:       make(map[hotel.GuestID]hotel.Guest),
		reservations: make(map[hotel.ReservationID]hotel.Reservation),
	}
}

func NewMemory() *Memory {
	return &Memory{state: newState()}
}

// NewMemoryWithTax returns an empty store with initial tax settings.
func NewMemoryWithTax(s hotel.TaxSettings) *Memory {
	m := NewMemory()
	m.state.tax = s
	return m
}

// WithTx executes fn against a clone of the committed state.
func (m *Memory) WithTx(ctx context.Context, fn func(hotel.Tx) error) (hotel.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return m.state.version, err
	}

	work := m.state.clone()
	if err := fn(&view{s: work}); err != nil {
		return m.state.version, err
	}

	// Commit only if the caller is still waiting.
	if err := ctx.Err(); err != nil {
		return m.state.version, err
	}
	work.version = m.state.version + 1
	m.state = work
	return work.version, nil
}

// View executes fn against committed state. Writes fail with ErrReadOnly.
func (m *Memory) View(ctx context.Context, fn func(hotel.Tx) error) (hotel.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return m.state.version, err
	}
	return m.state.version, fn(&view{s: m.state, readOnly: true})
}

func (s *state) clone() *state {
	c := &state{
		version:      s.version,
		seq:          make(map[hotel.IDKind]int64, len(s.seq)),
		rooms:        make(map[hotel.RoomID]hotel.Room, len(s.rooms)),
		roomTypes:    make(map[hotel.RoomTypeID]hotel.RoomType, len(s.roomTypes)),
		guests:       make(map[hotel.GuestID]hotel.Guest, len(s.guests)),
		reservations: make(map[hotel.ReservationID]hotel.Reservation, len(s.reservations)),
		transactions: append([]hotel.Transaction(nil), s.transactions...),
		loyalty:      append([]hotel.LoyaltyTransaction(nil), s.loyalty...),
		tax:          s.tax,
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.rooms {
		c.rooms[k] = copyRoom(v)
	}
	for k, v := range s.roomTypes {
		c.roomTypes[k] = copyRoomType(v)
	}
	for k, v := range s.guests {
		c.guests[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = copyReservation(v)
	}
	return c
}

func copyRoom(r hotel.Room) hotel.Room {
	if r.GuestID != nil {
		g := *r.GuestID
		r.GuestID = &g
	}
	return r
}

func copyRoomType(rt hotel.RoomType) hotel.RoomType {
	rates := make(map[string]hotel.Money, len(rt.Rates))
	for k, v := range rt.Rates {
		rates[k] = v
	}
	rt.Rates = rates
	return rt
}

func copyReservation(r hotel.Reservation) hotel.Reservation {
	if r.GuestID != nil {
		g := *r.GuestID
		r.GuestID = &g
	}
	return r
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

type view struct {
	s        *state
	readOnly bool
}

var _ hotel.Tx = (*view)(nil)

func (v *view) writable() error {
	if v.readOnly {
		return hotel.ErrReadOnly
	}
	return nil
}

func (v *view) NextID(_ context.Context, kind hotel.IDKind) (int64, error) {
	if err := v.writable(); err != nil {
		return 0, err
	}
	v.s.seq[kind]++
	return v.s.seq[kind], nil
}

func (v *view) Version(_ context.Context) (hotel.Version, error) {
	return v.s.version, nil
}

func (v *view) Clear(_ context.Context) error {
	if err := v.writable(); err != nil {
		return err
	}
	fresh := newState()
	fresh.version = v.s.version
	fresh.tax = v.s.tax
	*v.s = *fresh
	return nil
}

// --- rooms ---

func (v *view) GetRoom(_ context.Context, id hotel.RoomID) (*hotel.Room, error) {
	r, ok := v.s.rooms[id]
	if !ok {
		return nil, hotel.ErrRoomNotFound
	}
	r = copyRoom(r)
	return &r, nil
}

func (v *view) GetRoomByNumber(_ context.Context, number string) (*hotel.Room, error) {
	for _, r := range v.s.rooms {
		if r.Number == number {
			r = copyRoom(r)
			return &r, nil
		}
	}
	return nil, hotel.ErrRoomNotFound
}

func (v *view) ListRooms(_ context.Context) ([]hotel.Room, error) {
	out := make([]hotel.Room, 0, len(v.s.rooms))
	for _, r := range v.s.rooms {
		out = append(out, copyRoom(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) SaveRoom(_ context.Context, room hotel.Room) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.s.rooms[room.ID] = copyRoom(room)
	return nil
}

func (v *view) DeleteRoom(_ context.Context, id hotel.RoomID) error {
	if err := v.writable(); err != nil {
		return err
	}
	if _, ok := v.s.rooms[id]; !ok {
		return hotel.ErrRoomNotFound
	}
	delete(v.s.rooms, id)
	return nil
}

// --- room types ---

func (v *view) GetRoomType(_ context.Context, id hotel.RoomTypeID) (*hotel.RoomType, error) {
	rt, ok := v.s.roomTypes[id]
	if !ok {
		return nil, hotel.ErrRoomTypeNotFound
	}
	rt = copyRoomType(rt)
	return &rt, nil
}

func (v *view) GetRoomTypeByName(_ context.Context, name string) (*hotel.RoomType, error) {
	for _, rt := range v.s.roomTypes {
		if strings.EqualFold(rt.Name, name) {
			rt = copyRoomType(rt)
			return &rt, nil
		}
	}
	return nil, hotel.ErrRoomTypeNotFound
}

func (v *view) ListRoomTypes(_ context.Context) ([]hotel.RoomType, error) {
	out := make([]hotel.RoomType, 0, len(v.s.roomTypes))
	for _, rt := range v.s.roomTypes {
		out = append(out, copyRoomType(rt))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) SaveRoomType(_ context.Context, rt hotel.RoomType) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.s.roomTypes[rt.ID] = copyRoomType(rt)
	return nil
}

func (v *view) DeleteRoomType(_ context.Context, id hotel.RoomTypeID) error {
	if err := v.writable(); err != nil {
		return err
	}
	if _, ok := v.s.roomTypes[id]; !ok {
		return hotel.ErrRoomTypeNotFound
	}
	delete(v.s.roomTypes, id)
	return nil
}

// --- guests ---

func (v *view) GetGuest(_ context.Context, id hotel.GuestID) (*hotel.Guest, error) {
	g, ok := v.s.guests[id]
	if !ok {
		return nil, hotel.ErrGuestNotFound
	}
	return &g, nil
}

func (v *view) ListGuests(_ context.Context) ([]hotel.Guest, error) {
	out := make([]hotel.Guest, 0, len(v.s.guests))
	for _, g := range v.s.guests {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) SaveGuest(_ context.Context, g hotel.Guest) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.s.guests[g.ID] = g
	return nil
}

// --- reservations ---

func (v *view) GetReservation(_ context.Context, id hotel.ReservationID) (*hotel.Reservation, error) {
	r, ok := v.s.reservations[id]
	if !ok {
		return nil, hotel.ErrReservationNotFound
	}
	r = copyReservation(r)
	return &r, nil
}

func (v *view) ListReservations(_ context.Context) ([]hotel.Reservation, error) {
	out := make([]hotel.Reservation, 0, len(v.s.reservations))
	for _, r := range v.s.reservations {
		out = append(out, copyReservation(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) SaveReservation(_ context.Context, r hotel.Reservation) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.s.reservations[r.ID] = copyReservation(r)
	return nil
}

// --- ledger ---

func (v *view) AppendTransaction(_ context.Context, tx hotel.Transaction) error {
	if err := v.writable(); err != nil {
		return err
	}
	txs := v.s.transactions

	// Binary search for the insertion point keeps entries in date order.
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].Date.After(tx.Date)
	})
	txs = append(txs, hotel.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	v.s.transactions = txs
	return nil
}

func (v *view) GetTransaction(_ context.Context, id hotel.TransactionID) (*hotel.Transaction, error) {
	for _, tx := range v.s.transactions {
		if tx.ID == id {
			tx := tx
			return &tx, nil
		}
	}
	return nil, hotel.ErrTransactionNotFound
}

func (v *view) DeleteTransaction(_ context.Context, id hotel.TransactionID) error {
	if err := v.writable(); err != nil {
		return err
	}
	for i, tx := range v.s.transactions {
		if tx.ID == id {
			v.s.transactions = append(v.s.transactions[:i:i], v.s.transactions[i+1:]...)
			return nil
		}
	}
	return hotel.ErrTransactionNotFound
}

func (v *view) TransactionsByGuest(_ context.Context, guestID hotel.GuestID) ([]hotel.Transaction, error) {
	var out []hotel.Transaction
	for _, tx := range v.s.transactions {
		if tx.GuestID == guestID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (v *view) ListTransactions(_ context.Context) ([]hotel.Transaction, error) {
	return append([]hotel.Transaction{}, v.s.transactions...), nil
}

// --- loyalty ---

func (v *view) AppendLoyalty(_ context.Context, lt hotel.LoyaltyTransaction) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.s.loyalty = append(v.s.loyalty, lt)
	return nil
}

func (v *view) LoyaltyByGuest(_ context.Context, guestID hotel.GuestID) ([]hotel.LoyaltyTransaction, error) {
	var out []hotel.LoyaltyTransaction
	for _, lt := range v.s.loyalty {
		if lt.GuestID == guestID {
			out = append(out, lt)
		}
	}
	return out, nil
}

func (v *view) ListLoyalty(_ context.Context) ([]hotel.LoyaltyTransaction, error) {
	return append([]hotel.LoyaltyTransaction{}, v.s.loyalty...), nil
}

// --- settings ---

func (v *view) TaxSettings(_ context.Context) (hotel.TaxSettings, error) {
	return v.s.tax, nil
}

func (v *view) SaveTaxSettings(_ context.Context, s hotel.TaxSettings) error {
	if err := v.writable(); err != nil {
		return err
	}
	v.s.tax = s
	return nil
}
