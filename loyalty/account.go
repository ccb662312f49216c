package loyalty

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/warp/folio-engine/hotel"
)

// Repository is the slice of a unit of work the account needs.
type Repository interface {
	hotel.GuestRepository
	hotel.LoyaltyRepository
}

// Account applies loyalty operations inside a unit of work.
type Account struct {
	repo    Repository
	program Program
}

func NewAccount(repo Repository, program Program) *Account {
	return &Account{repo: repo, program: program}
}

// Result is the outcome of a loyalty operation.
type Result struct {
	Success     bool                      `json:"success"`
	Message     string                    `json:"message"`
	Balance     int64                     `json:"balance"`
	Tier        hotel.Tier                `json:"tier"`
	Transaction *hotel.LoyaltyTransaction `json:"transaction,omitempty"`
}

// Earn credits points to the guest.
func (a *Account) Earn(ctx context.Context, guestID hotel.GuestID, points int64, description string, at time.Time) (Result, error) {
	if points <= 0 {
		return Result{Message: hotel.ErrInvalidPoints.Error()}, hotel.ErrInvalidPoints
	}
	guest, err := a.repo.GetGuest(ctx, guestID)
	if err != nil {
		return Result{}, err
	}
	if guest.LifetimePoints > math.MaxInt64-points || guest.LoyaltyPoints > math.MaxInt64-points {
		err := fmt.Errorf("%w: earning %d points overflows guest %d", hotel.ErrInvalidPoints, points, guestID)
		return Result{Message: err.Error(), Balance: guest.LoyaltyPoints, Tier: guest.Tier}, err
	}
	if description == "" {
		description = "Points earned"
	}

	lt := hotel.LoyaltyTransaction{
		ID:          hotel.NewLoyaltyTransactionID(),
		GuestID:     guestID,
		Points:      points,
		Description: description,
		Date:        at,
	}
	if err := a.repo.AppendLoyalty(ctx, lt); err != nil {
		return Result{}, fmt.Errorf("append loyalty: %w", err)
	}

	guest.LoyaltyPoints += points
	guest.LifetimePoints += points
	guest.Tier = a.program.TierFor(guest.LifetimePoints)
	if err := a.repo.SaveGuest(ctx, *guest); err != nil {
		return Result{}, fmt.Errorf("save guest: %w", err)
	}

	return Result{
		Success:     true,
		Message:     fmt.Sprintf("Earned %d points", points),
		Balance:     guest.LoyaltyPoints,
		Tier:        guest.Tier,
		Transaction: &lt,
	}, nil
}

// Redeem spends points. It checks the balance before writing anything.
func (a *Account) Redeem(ctx context.Context, guestID hotel.GuestID, points int64, description string, at time.Time) (Result, error) {
	if points <= 0 {
		return Result{Message: hotel.ErrInvalidPoints.Error()}, hotel.ErrInvalidPoints
	}
	guest, err := a.repo.GetGuest(ctx, guestID)
	if err != nil {
		return Result{}, err
	}
	if points > guest.LoyaltyPoints {
		perr := &hotel.InsufficientPointsError{
			GuestID:   guestID,
			Available: guest.LoyaltyPoints,
			Requested: points,
		}
		return Result{Message: perr.Error(), Balance: guest.LoyaltyPoints, Tier: guest.Tier}, perr
	}
	if description == "" {
		description = "Points redeemed"
	}

	lt := hotel.LoyaltyTransaction{
		ID:          hotel.NewLoyaltyTransactionID(),
		GuestID:     guestID,
		Points:      -points,
		Description: description,
		Date:        at,
	}
	if err := a.repo.AppendLoyalty(ctx, lt); err != nil {
		return Result{}, fmt.Errorf("append loyalty: %w", err)
	}

	guest.LoyaltyPoints -= points
	if err := a.repo.SaveGuest(ctx, *guest); err != nil {
		return Result{}, fmt.Errorf("save guest: %w", err)
	}

	return Result{
		Success:     true,
		Message:     fmt.Sprintf("Redeemed %d points", points),
		Balance:     guest.LoyaltyPoints,
		Tier:        guest.Tier,
		Transaction: &lt,
	}, nil
}

// History returns the guest's point movements.
func (a *Account) History(ctx context.Context, guestID hotel.GuestID) ([]hotel.LoyaltyTransaction, error) {
	if _, err := a.repo.GetGuest(ctx, guestID); err != nil {
		return nil, err
	}
	return a.repo.LoyaltyByGuest(ctx, guestID)
}

// Verify checks the guest's cached balance against its history.
func Verify(guest hotel.Guest, history []hotel.LoyaltyTransaction) error {
	var sum int64
	for _, lt := range history {
		if lt.GuestID != guest.ID {
			continue
		}
		sum += lt.Points
	}
	if sum != guest.LoyaltyPoints {
		return fmt.Errorf("guest %d: loyalty balance %d does not match history %d", guest.ID, guest.LoyaltyPoints, sum)
	}
	if guest.LoyaltyPoints < 0 {
		return fmt.Errorf("guest %d: negative loyalty balance %d", guest.ID, guest.LoyaltyPoints)
	}
	return nil
}
