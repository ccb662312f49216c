/*
Package folio is the front-desk orchestrator: the only component that writes
more than one aggregate (room, reservation, guest, ledger, loyalty) in a
single operation.

PURPOSE:
  Every operation runs inside exactly one unit of work. Validation happens
  first; any failure rolls the whole unit back, so no partial room or guest
  mutation is ever observable. A cancelled context aborts the unit before
  commit. On success the committed version is returned with the result and
  the new snapshot is pushed to the optional Publisher.

OPERATIONS:
  Stay:         CheckIn, CheckOut
  Ledger:       PostCharge, PostTransaction, ReverseTransaction
  Rooms:        SetRoomStatus, CreateRoom, DeleteRoom, CreateRoomType, DeleteRoomType
  Guests:       CreateGuest, UpdateGuest
  Reservations: CreateReservation, UpdateReservation
  Loyalty:      EarnPoints, RedeemPoints
  Admin:        UpdateTaxSettings, ClearAll
  Reads:        Snapshot, Folio, Loyalty, lists

OPTIMISTIC CONCURRENCY:
  Requests may carry ExpectedVersion. When set, the unit of work fails with
  *hotel.VersionConflictError unless the committed version still matches.

AUTHORIZATION:
  Only the single manager-level gate is modelled. Actor comes from the
  caller (the HTTP layer reads it from headers) and is trusted.

SEE ALSO:
  - hotel/store.go: unit-of-work interfaces
  - loyalty/account.go: earn and redeem
  - api/handlers.go: HTTP surface
*/
package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/loyalty"
	"github.com/warp/folio-engine/metrics"
)

// =============================================================================
// ACTORS
// =============================================================================

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Actor identifies the caller of an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// System is the actor used for seeding and scenarios.
var System = Actor{ID: "system", Role: RoleAdmin}

// Publisher receives the snapshot after each commit.
type Publisher interface {
	Publish(ctx context.Context, snap hotel.Snapshot) error
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store     hotel.Store
	logger    *zap.Logger
	publisher Publisher
	metrics   *metrics.Metrics
	validate  *validator.Validate
	program   loyalty.Program
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }
func WithProgram(p loyalty.Program) Option { return func(s *Service) { s.program = p } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store hotel.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   zap.NewNop(),
		validate: validator.New(),
		program:  loyalty.DefaultProgram(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time { return s.now().UTC() }

// write runs fn as one unit of work, checks the expected version, then
// records, logs and publishes the commit.
func (s *Service) write(ctx context.Context, op string, expected *hotel.Version, fn func(tx hotel.Tx) error) (hotel.Version, error) {
	version, err := s.store.WithTx(ctx, func(tx hotel.Tx) error {
		if expected != nil {
			current, err := tx.Version(ctx)
			if err != nil {
				return err
			}
			if current != *expected {
				return &hotel.VersionConflictError{Expected: *expected, Actual: current}
			}
		}
		return fn(tx)
	})
	s.metrics.ObserveOperation(op, err)
	if err != nil {
		s.logger.Debug("operation rejected",
			zap.String("operation", op),
			zap.Error(err),
		)
		return version, err
	}

	s.logger.Info("operation committed",
		zap.String("operation", op),
		zap.Uint64("version", uint64(version)),
	)
	s.publish(ctx, version)
	return version, nil
}

// read runs fn against committed state.
func (s *Service) read(ctx context.Context, fn func(tx hotel.Tx) error) (hotel.Version, error) {
	return s.store.View(ctx, fn)
}

func (s *Service) publish(ctx context.Context, version hotel.Version) {
	if s.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var snap hotel.Snapshot
	_, err := s.store.View(ctx, func(tx hotel.Tx) error {
		var err error
		snap, err = hotel.TakeSnapshot(ctx, tx)
		return err
	})
	if err == nil {
		err = s.publisher.Publish(ctx, snap)
	}
	if err != nil {
		s.logger.Warn("snapshot publish failed",
			zap.Uint64("version", uint64(version)),
			zap.Error(err),
		)
	}
}

func (s *Service) observePostings(entries []hotel.Transaction) {
	for _, e := range entries {
		s.metrics.ObservePosting(string(e.Kind), int64(e.Amount.Abs()))
	}
}

// check validates a request struct and converts validator errors into
// *hotel.ValidationError keyed by field name.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", hotel.ErrValidation, err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[toSnake(fe.Field())] = describe(fe)
	}
	return &hotel.ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "alphanum":
		return "must be alphanumeric"
	}
	return "failed " + fe.Tag() + " check"
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func requireManager(actor Actor) error {
	if !actor.IsManager() {
		return fmt.Errorf("%w: actor %q has role %q", hotel.ErrForbidden, actor.ID, actor.Role)
	}
	return nil
}
