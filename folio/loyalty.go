package folio

import (
	"context"
	"fmt"

	"github.com/warp/folio-engine/hotel"
	"github.com/warp/folio-engine/loyalty"
)

// EarnPoints credits loyalty points outside of a check-out.
func (s *Service) EarnPoints(ctx context.Context, req PointsRequest) (*loyalty.Result, hotel.Version, error) {
	if err := s.check(req); err != nil {
		return nil, 0, err
	}
	var res loyalty.Result
	version, err := s.write(ctx, "earn_points", nil, func(tx hotel.Tx) error {
		var err error
		res, err = loyalty.NewAccount(tx, s.program).Earn(ctx, req.GuestID, req.Points, req.Description, s.clock())
		return err
	})
	if err != nil {
		return &res, version, err
	}
	return &res, version, nil
}

// RedeemPoints spends loyalty points. On failure the returned result carries
// a human-readable message and nothing is written. With ApplyToFolio the
// redeemed value is posted as a loyalty credit in the same unit of work.
func (s *Service) RedeemPoints(ctx context.Context, req PointsRequest) (*RedeemResult, error) {
	if err := s.check(req); err != nil {
		return &RedeemResult{Result: loyalty.Result{Message: err.Error()}}, err
	}
	res := &RedeemResult{}
	now := s.clock()
	version, err := s.write(ctx, "redeem_points", nil, func(tx hotel.Tx) error {
		var err error
		res.Result, err = loyalty.NewAccount(tx, s.program).Redeem(ctx, req.GuestID, req.Points, req.Description, now)
		if err != nil {
			return err
		}
		if !req.ApplyToFolio {
			return nil
		}
		value, err := s.program.CreditFor(req.Points)
		if err != nil {
			return err
		}
		credit, err := hotel.NewLedger(tx).Post(ctx, hotel.Transaction{
			GuestID:     req.GuestID,
			Description: fmt.Sprintf("Loyalty redemption - %d points", req.Points),
			Amount:      value.Neg(),
			Kind:        hotel.TxLoyaltyCredit,
			Date:        now,
		})
		if err != nil {
			return err
		}
		res.Credit = &credit
		return nil
	})
	res.Version = version
	if err != nil {
		// A redemption that succeeded before a later step failed was rolled back.
		if res.Success {
			res.Balance += req.Points
		}
		if res.Success || res.Message == "" {
			res.Message = err.Error()
		}
		res.Success = false
		res.Transaction = nil
		res.Credit = nil
		return res, err
	}
	if res.Credit != nil {
		s.observePostings([]hotel.Transaction{*res.Credit})
	}
	return res, nil
}
