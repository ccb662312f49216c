/*
Package sqlite provides a SQLite-backed implementation of hotel.Store.

PURPOSE:
  Persists the whole folio aggregate (rooms, room types, guests,
  reservations, ledger, loyalty history, tax settings) in one database file
  so that state survives a restart. The memory store in hotel/store is the
  reference behaviour; this store must be indistinguishable from it through
  the hotel.Tx interface.

UNIT OF WORK:
  WithTx opens one SQL transaction, runs the callback against it, bumps the
  aggregate version in the meta table and commits. Any error, or a context
  cancelled before commit, rolls everything back.

KEY TABLES:
  rooms, room_types:     inventory (room type rates as JSON)
  guests, reservations:  people and bookings
  transactions:          folio entries, ordered by date then insertion
  loyalty_transactions:  point movements, insertion order
  settings:              tax settings as JSON
  sequences:             numeric id counters per IDKind
  meta:                  aggregate version

CONCURRENCY:
  A single writer at a time, enforced by sync.RWMutex and a one-connection
  pool. Readers share the lock but queue on the connection.

USAGE:
  store, err := sqlite.New("./data/folio.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := folio.NewService(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - hotel/store.go: interface definitions
  - hotel/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/folio-engine/hotel"
)

// timeLayout is fixed-width so that stored dates sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements hotel.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ hotel.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: required for ":memory:" and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewWithTax opens the store and seeds tax settings when none are stored.
func NewWithTax(dbPath string, settings hotel.TaxSettings) (*Store, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		s.Close()
		return nil, err
	}
	_, err = s.db.Exec(`INSERT INTO settings (key, value) VALUES ('tax', ?) ON CONFLICT(key) DO NOTHING`, string(raw))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to seed tax settings: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		rates_json TEXT NOT NULL,
		capacity INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id INTEGER PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		type_name TEXT NOT NULL,
		rate INTEGER NOT NULL,
		status TEXT NOT NULL,
		guest_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS guests (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		government_id TEXT,
		arrival TEXT,
		departure TEXT,
		room_number TEXT,
		room_type TEXT,
		adults INTEGER NOT NULL DEFAULT 0,
		children INTEGER NOT NULL DEFAULT 0,
		loyalty_points INTEGER NOT NULL DEFAULT 0,
		lifetime_points INTEGER NOT NULL DEFAULT 0,
		tier TEXT NOT NULL,
		vip BOOLEAN NOT NULL DEFAULT FALSE,
		corporate BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY,
		guest_name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		room_type TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		room_assigned TEXT,
		guest_id INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_room
		ON reservations(room_assigned, status);

	-- Folio entries. seq preserves insertion order for equal dates.
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		guest_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		amount INTEGER NOT NULL,
		kind TEXT NOT NULL,
		date TEXT NOT NULL,
		payment_method TEXT,
		reference TEXT,
		created_by TEXT
	);

	-- Statement and balance lookups (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_guest_date
		ON transactions(guest_id, date, seq);

	CREATE TABLE IF NOT EXISTS loyalty_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		guest_id INTEGER NOT NULL,
		points INTEGER NOT NULL,
		description TEXT,
		date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loyalty_guest
		ON loyalty_transactions(guest_id, seq);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sequences (
		kind TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO meta (key, value) VALUES ('version', 0);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UNIT OF WORK (hotel.Store interface)
// =============================================================================

// WithTx executes fn within a database transaction and bumps the version
// on commit.
func (s *Store) WithTx(ctx context.Context, fn func(hotel.Tx) error) (hotel.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return s.committedVersion(), err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	t := &txView{tx: sqlTx}
	current, err := t.Version(ctx)
	if err != nil {
		return 0, err
	}
	if err := fn(t); err != nil {
		return current, err
	}
	if err := ctx.Err(); err != nil {
		return current, err
	}

	next := current + 1
	if _, err := sqlTx.ExecContext(ctx, `UPDATE meta SET value = ? WHERE key = 'version'`, int64(next)); err != nil {
		return current, fmt.Errorf("failed to bump version: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return current, fmt.Errorf("failed to commit: %w", err)
	}
	return next, nil
}

// committedVersion reads the version outside any unit of work. Callers hold
// s.mu; ctx may already be done.
func (s *Store) committedVersion() hotel.Version {
	var v int64
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&v); err != nil {
		return 0
	}
	return hotel.Version(v)
}

// View runs fn against committed state. Writes return hotel.ErrReadOnly.
func (s *Store) View(ctx context.Context, fn func(hotel.Tx) error) (hotel.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return s.committedVersion(), err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	t := &txView{tx: sqlTx, readOnly: true}
	version, err := t.Version(ctx)
	if err != nil {
		return 0, err
	}
	return version, fn(t)
}

// txView implements hotel.Tx on top of one *sql.Tx.
type txView struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *txView) writable() error {
	if t.readOnly {
		return hotel.ErrReadOnly
	}
	return nil
}

func (t *txView) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := t.writable(); err != nil {
		return nil, err
	}
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *txView) Version(ctx context.Context) (hotel.Version, error) {
	var v int64
	if err := t.tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read version: %w", err)
	}
	return hotel.Version(v), nil
}

func (t *txView) NextID(ctx context.Context, kind hotel.IDKind) (int64, error) {
	_, err := t.exec(ctx, `
		INSERT INTO sequences (kind, value) VALUES (?, 1)
		ON CONFLICT(kind) DO UPDATE SET value = value + 1`, string(kind))
	if err != nil {
		return 0, err
	}
	var id int64
	err = t.tx.QueryRowContext(ctx, `SELECT value FROM sequences WHERE kind = ?`, string(kind)).Scan(&id)
	return id, err
}

// Clear deletes all domain rows. Tax settings and the version survive.
func (t *txView) Clear(ctx context.Context) error {
	for _, table := range []string{"rooms", "room_types", "guests", "reservations", "transactions", "loyalty_transactions", "sequences"} {
		if _, err := t.exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// ROOMS
// =============================================================================

const roomColumns = `id, number, type_name, rate, status, guest_id`

func (t *txView) GetRoom(ctx context.Context, id hotel.RoomID) (*hotel.Room, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, int64(id))
	return scanRoom(row)
}

func (t *txView) GetRoomByNumber(ctx context.Context, number string) (*hotel.Room, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE number = ?`, number)
	return scanRoom(row)
}

func (t *txView) ListRooms(ctx context.Context) ([]hotel.Room, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	out := []hotel.Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (t *txView) SaveRoom(ctx context.Context, room hotel.Room) error {
	_, err := t.exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			type_name = excluded.type_name,
			rate = excluded.rate,
			status = excluded.status,
			guest_id = excluded.guest_id`,
		int64(room.ID), room.Number, room.TypeName, int64(room.Rate), string(room.Status), nullGuest(room.GuestID),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("room %s: %w", room.Number, hotel.ErrDuplicateRoomNumber)
	}
	return err
}

func (t *txView) DeleteRoom(ctx context.Context, id hotel.RoomID) error {
	res, err := t.exec(ctx, `DELETE FROM rooms WHERE id = ?`, int64(id))
	return affected(res, err, hotel.ErrRoomNotFound)
}

func scanRoom(row rowScanner) (*hotel.Room, error) {
	var (
		r       hotel.Room
		id      int64
		rate    int64
		status  string
		guestID sql.NullInt64
	)
	if err := row.Scan(&id, &r.Number, &r.TypeName, &rate, &status, &guestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hotel.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}
	r.ID = hotel.RoomID(id)
	r.Rate = hotel.Money(rate)
	r.Status = hotel.RoomStatus(status)
	r.GuestID = guestPtr(guestID)
	return &r, nil
}

// =============================================================================
// ROOM TYPES
// =============================================================================

const roomTypeColumns = `id, name, rates_json, capacity`

func (t *txView) GetRoomType(ctx context.Context, id hotel.RoomTypeID) (*hotel.RoomType, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ?`, int64(id))
	return scanRoomType(row)
}

func (t *txView) GetRoomTypeByName(ctx context.Context, name string) (*hotel.RoomType, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE name = ?`, name)
	return scanRoomType(row)
}

func (t *txView) ListRoomTypes(ctx context.Context) ([]hotel.RoomType, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query room types: %w", err)
	}
	defer rows.Close()

	out := []hotel.RoomType{}
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

func (t *txView) SaveRoomType(ctx context.Context, rt hotel.RoomType) error {
	rates, err := json.Marshal(rt.Rates)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, `
		INSERT INTO room_types (`+roomTypeColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rates_json = excluded.rates_json,
			capacity = excluded.capacity`,
		int64(rt.ID), rt.Name, string(rates), rt.Capacity,
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("room type %q: %w", rt.Name, hotel.ErrDuplicateRoomType)
	}
	return err
}

func (t *txView) DeleteRoomType(ctx context.Context, id hotel.RoomTypeID) error {
	res, err := t.exec(ctx, `DELETE FROM room_types WHERE id = ?`, int64(id))
	return affected(res, err, hotel.ErrRoomTypeNotFound)
}

func scanRoomType(row rowScanner) (*hotel.RoomType, error) {
	var (
		rt    hotel.RoomType
		id    int64
		rates string
	)
	if err := row.Scan(&id, &rt.Name, &rates, &rt.Capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hotel.ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("failed to scan room type: %w", err)
	}
	rt.ID = hotel.RoomTypeID(id)
	rt.Rates = map[string]hotel.Money{}
	if err := json.Unmarshal([]byte(rates), &rt.Rates); err != nil {
		return nil, fmt.Errorf("room type %d rates: %w", id, err)
	}
	return &rt, nil
}

// =============================================================================
// GUESTS
// =============================================================================

const guestColumns = `id, name, email, phone, government_id, arrival, departure, room_number, room_type,
	adults, children, loyalty_points, lifetime_points, tier, vip, corporate, created_at`

func (t *txView) GetGuest(ctx context.Context, id hotel.GuestID) (*hotel.Guest, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = ?`, int64(id))
	return scanGuest(row)
}

func (t *txView) ListGuests(ctx context.Context) ([]hotel.Guest, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+guestColumns+` FROM guests ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	defer rows.Close()

	out := []hotel.Guest{}
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (t *txView) SaveGuest(ctx context.Context, g hotel.Guest) error {
	_, err := t.exec(ctx, `
		INSERT INTO guests (`+guestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			government_id = excluded.government_id,
			arrival = excluded.arrival,
			departure = excluded.departure,
			room_number = excluded.room_number,
			room_type = excluded.room_type,
			adults = excluded.adults,
			children = excluded.children,
			loyalty_points = excluded.loyalty_points,
			lifetime_points = excluded.lifetime_points,
			tier = excluded.tier,
			vip = excluded.vip,
			corporate = excluded.corporate`,
		int64(g.ID), g.Name, g.Email, g.Phone, g.GovernmentID,
		formatTime(g.Arrival), formatTime(g.Departure), g.RoomNumber, g.RoomType,
		g.Adults, g.Children, g.LoyaltyPoints, g.LifetimePoints, string(g.Tier),
		g.VIP, g.Corporate, formatTime(g.CreatedAt),
	)
	return err
}

func scanGuest(row rowScanner) (*hotel.Guest, error) {
	var (
		g                                hotel.Guest
		id                               int64
		email, phone, govID, number, typ sql.NullString
		arrival, departure, createdAt    sql.NullString
		tier                             string
	)
	err := row.Scan(&id, &g.Name, &email, &phone, &govID, &arrival, &departure, &number, &typ,
		&g.Adults, &g.Children, &g.LoyaltyPoints, &g.LifetimePoints, &tier, &g.VIP, &g.Corporate, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hotel.ErrGuestNotFound
		}
		return nil, fmt.Errorf("failed to scan guest: %w", err)
	}
	g.ID = hotel.GuestID(id)
	g.Email = email.String
	g.Phone = phone.String
	g.GovernmentID = govID.String
	g.RoomNumber = number.String
	g.RoomType = typ.String
	g.Tier = hotel.Tier(tier)
	g.Arrival = parseTime(arrival.String)
	g.Departure = parseTime(departure.String)
	g.CreatedAt = parseTime(createdAt.String)
	return &g, nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

const reservationColumns = `id, guest_name, email, phone, check_in, check_out, room_type, source, status,
	room_assigned, guest_id, created_at`

func (t *txView) GetReservation(ctx context.Context, id hotel.ReservationID) (*hotel.Reservation, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, int64(id))
	return scanReservation(row)
}

func (t *txView) ListReservations(ctx context.Context) ([]hotel.Reservation, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	out := []hotel.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (t *txView) SaveReservation(ctx context.Context, r hotel.Reservation) error {
	_, err := t.exec(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			guest_name = excluded.guest_name,
			email = excluded.email,
			phone = excluded.phone,
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			room_type = excluded.room_type,
			source = excluded.source,
			status = excluded.status,
			room_assigned = excluded.room_assigned,
			guest_id = excluded.guest_id`,
		int64(r.ID), r.GuestName, r.Email, r.Phone, formatTime(r.CheckIn), formatTime(r.CheckOut),
		r.RoomType, string(r.Source), string(r.Status), r.RoomAssigned, nullGuest(r.GuestID), formatTime(r.CreatedAt),
	)
	return err
}

func scanReservation(row rowScanner) (*hotel.Reservation, error) {
	var (
		r                  hotel.Reservation
		id                 int64
		email, phone, room sql.NullString
		checkIn, checkOut  string
		source, status, at string
		guestID            sql.NullInt64
	)
	err := row.Scan(&id, &r.GuestName, &email, &phone, &checkIn, &checkOut, &r.RoomType,
		&source, &status, &room, &guestID, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hotel.ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}
	r.ID = hotel.ReservationID(id)
	r.Email = email.String
	r.Phone = phone.String
	r.CheckIn = parseTime(checkIn)
	r.CheckOut = parseTime(checkOut)
	r.Source = hotel.BookingSource(source)
	r.Status = hotel.ReservationStatus(status)
	r.RoomAssigned = room.String
	r.GuestID = guestPtr(guestID)
	r.CreatedAt = parseTime(at)
	return &r, nil
}

// =============================================================================
// LEDGER
// =============================================================================

const transactionColumns = `id, guest_id, description, amount, kind, date, payment_method, reference, created_by`

func (t *txView) AppendTransaction(ctx context.Context, tx hotel.Transaction) error {
	_, err := t.exec(ctx, `INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tx.ID), int64(tx.GuestID), tx.Description, int64(tx.Amount), string(tx.Kind),
		formatTime(tx.Date), nullString(tx.PaymentMethod), nullString(tx.Reference), nullString(tx.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (t *txView) GetTransaction(ctx context.Context, id hotel.TransactionID) (*hotel.Transaction, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, hotel.ErrTransactionNotFound
	}
	return &txs[0], nil
}

func (t *txView) DeleteTransaction(ctx context.Context, id hotel.TransactionID) error {
	res, err := t.exec(ctx, `DELETE FROM transactions WHERE id = ?`, string(id))
	return affected(res, err, hotel.ErrTransactionNotFound)
}

func (t *txView) TransactionsByGuest(ctx context.Context, guestID hotel.GuestID) ([]hotel.Transaction, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE guest_id = ?
		ORDER BY date ASC, seq ASC`, int64(guestID))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (t *txView) ListTransactions(ctx context.Context) ([]hotel.Transaction, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY date ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]hotel.Transaction, error) {
	defer rows.Close()

	var out []hotel.Transaction
	for rows.Next() {
		var (
			tx                     hotel.Transaction
			id, desc, kind, date   string
			guestID, amount        int64
			method, ref, createdBy sql.NullString
		)
		if err := rows.Scan(&id, &guestID, &desc, &amount, &kind, &date, &method, &ref, &createdBy); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.ID = hotel.TransactionID(id)
		tx.GuestID = hotel.GuestID(guestID)
		tx.Description = desc
		tx.Amount = hotel.Money(amount)
		tx.Kind = hotel.TransactionKind(kind)
		tx.Date = parseTime(date)
		tx.PaymentMethod = method.String
		tx.Reference = ref.String
		tx.CreatedBy = createdBy.String
		out = append(out, tx)
	}
	return out, rows.Err()
}

// =============================================================================
// LOYALTY
// =============================================================================

func (t *txView) AppendLoyalty(ctx context.Context, lt hotel.LoyaltyTransaction) error {
	_, err := t.exec(ctx, `INSERT INTO loyalty_transactions (id, guest_id, points, description, date) VALUES (?, ?, ?, ?, ?)`,
		string(lt.ID), int64(lt.GuestID), lt.Points, lt.Description, formatTime(lt.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to append loyalty transaction: %w", err)
	}
	return nil
}

func (t *txView) LoyaltyByGuest(ctx context.Context, guestID hotel.GuestID) ([]hotel.LoyaltyTransaction, error) {
	return t.queryLoyalty(ctx, `
		SELECT id, guest_id, points, description, date FROM loyalty_transactions
		WHERE guest_id = ? ORDER BY seq`, int64(guestID))
}

func (t *txView) ListLoyalty(ctx context.Context) ([]hotel.LoyaltyTransaction, error) {
	return t.queryLoyalty(ctx, `SELECT id, guest_id, points, description, date FROM loyalty_transactions ORDER BY seq`)
}

func (t *txView) queryLoyalty(ctx context.Context, query string, args ...any) ([]hotel.LoyaltyTransaction, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loyalty transactions: %w", err)
	}
	defer rows.Close()

	var out []hotel.LoyaltyTransaction
	for rows.Next() {
		var (
			lt       hotel.LoyaltyTransaction
			id, date string
			guestID  int64
			desc     sql.NullString
		)
		if err := rows.Scan(&id, &guestID, &lt.Points, &desc, &date); err != nil {
			return nil, fmt.Errorf("failed to scan loyalty transaction: %w", err)
		}
		lt.ID = hotel.LoyaltyTransactionID(id)
		lt.GuestID = hotel.GuestID(guestID)
		lt.Description = desc.String
		lt.Date = parseTime(date)
		out = append(out, lt)
	}
	return out, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

func (t *txView) TaxSettings(ctx context.Context) (hotel.TaxSettings, error) {
	var (
		settings hotel.TaxSettings
		raw      string
	)
	err := t.tx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'tax'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read tax settings: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, fmt.Errorf("failed to decode tax settings: %w", err)
	}
	return settings, nil
}

func (t *txView) SaveTaxSettings(ctx context.Context, settings hotel.TaxSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, `
		INSERT INTO settings (key, value) VALUES ('tax', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(raw))
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func affected(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullGuest(id *hotel.GuestID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func guestPtr(v sql.NullInt64) *hotel.GuestID {
	if !v.Valid {
		return nil
	}
	id := hotel.GuestID(v.Int64)
	return &id
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
