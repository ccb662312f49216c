package folio

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/folio-engine/hotel"
)

// PostCharge posts a mid-stay charge (restaurant, minibar, services) and its
// tax line when the charge is taxable and tax is enabled.
func (s *Service) PostCharge(ctx context.Context, req ChargeRequest) (*PostingResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	at := req.Date
	if at.IsZero() {
		at = s.clock()
	}

	res := &PostingResult{}
	version, err := s.write(ctx, "post_charge", req.ExpectedVersion, func(tx hotel.Tx) error {
		if _, err := tx.GetGuest(ctx, req.GuestID); err != nil {
			return err
		}
		entries, err := s.postWithTax(ctx, tx, req.GuestID, req.Description, req.Amount, req.Taxable, at)
		if err != nil {
			return err
		}
		balance, err := hotel.NewLedger(tx).BalanceOf(ctx, req.GuestID)
		if err != nil {
			return err
		}
		res.Entries = entries
		res.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = version
	s.observePostings(res.Entries)
	return res, nil
}

// PostTransaction appends a raw signed entry for an existing guest.
func (s *Service) PostTransaction(ctx context.Context, req TransactionRequest) (*PostingResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	at := req.Date
	if at.IsZero() {
		at = s.clock()
	}

	res := &PostingResult{}
	version, err := s.write(ctx, "post_transaction", req.ExpectedVersion, func(tx hotel.Tx) error {
		if _, err := tx.GetGuest(ctx, req.GuestID); err != nil {
			return err
		}
		ledger := hotel.NewLedger(tx)
		entry, err := ledger.Post(ctx, hotel.Transaction{
			GuestID:       req.GuestID,
			Description:   req.Description,
			Amount:        req.Amount,
			Kind:          req.Kind,
			Date:          at,
			PaymentMethod: req.PaymentMethod,
			Reference:     req.Reference,
		})
		if err != nil {
			return err
		}
		balance, err := ledger.BalanceOf(ctx, req.GuestID)
		if err != nil {
			return err
		}
		res.Entries = []hotel.Transaction{entry}
		res.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = version
	s.observePostings(res.Entries)
	return res, nil
}

// ReverseTransaction deletes an entry. It requires a manager and an explicit
// confirmation from the caller.
func (s *Service) ReverseTransaction(ctx context.Context, actor Actor, id hotel.TransactionID, confirmed bool, expected *hotel.Version) (*PostingResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, fmt.Errorf("reverse transaction %s: %w", id, hotel.ErrConfirmationRequired)
	}

	res := &PostingResult{}
	version, err := s.write(ctx, "reverse_transaction", expected, func(tx hotel.Tx) error {
		ledger := hotel.NewLedger(tx)
		removed, err := ledger.Reverse(ctx, id)
		if err != nil {
			return err
		}
		balance, err := ledger.BalanceOf(ctx, removed.GuestID)
		if err != nil {
			return err
		}
		res.Entries = []hotel.Transaction{removed}
		res.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Version = version
	s.logger.Info("transaction reversed",
		zap.String("transaction_id", string(id)),
		zap.String("actor", actor.ID),
	)
	return res, nil
}
