/*
ledger.go - Signed-amount folio ledger

PURPOSE:
  The ledger is the source of truth for every guest balance. Charges are
  positive, payments and credits negative. A balance is never stored: it is
  always the sum of the guest's entries, so it cannot drift from history.

INVARIANTS:
  1. IMMUTABLE: an appended entry is never edited
  2. DERIVED BALANCE: BalanceOf(g) == sum of g's entry amounts, exactly
  3. REVERSAL IS DELETION: a reversed entry disappears from the folio.
     The ledger does not authorize; folio.Service gates reversal behind the
     manager role and an explicit confirmation.

PAYMENT STATUS:
  paid     balance <= 0
  owing    balance >  reference rate (typically the room's nightly rate)
  pending  otherwise

EXAMPLE FLOW:
  1. Check-in charge:   +20000.00
  2. Tax at 7.5%:       + 1500.00   balance 21500.00 (pending)
  3. Card payment:      -21500.00   balance     0.00 (paid)

SEE ALSO:
  - tax.go: tax line computation
  - folio/service.go: posting inside a unit of work
*/
package hotel

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger wraps a TransactionRepository, usually the Tx of a unit of work.
type Ledger struct {
	repo TransactionRepository
}

func NewLedger(repo TransactionRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Post appends tx, filling in the id, kind and date when they are unset.
func (l *Ledger) Post(ctx context.Context, tx Transaction) (Transaction, error) {
	if strings.TrimSpace(tx.Description) == "" {
		return Transaction{}, NewValidationError("description", "is required")
	}
	if tx.ID == "" {
		tx.ID = NewTransactionID()
	}
	if tx.Kind == "" {
		tx.Kind = TxCharge
		if tx.Amount.IsNegative() {
			tx.Kind = TxPayment
		}
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	if err := l.repo.AppendTransaction(ctx, tx); err != nil {
		return Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return tx, nil
}

// PostTransaction appends a raw signed entry for guestID.
func (l *Ledger) PostTransaction(ctx context.Context, guestID GuestID, description string, amount Money, date time.Time) (Transaction, error) {
	return l.Post(ctx, Transaction{
		GuestID:     guestID,
		Description: description,
		Amount:      amount,
		Date:        date,
	})
}

// Reverse removes the entry. It returns ErrTransactionNotFound when absent.
func (l *Ledger) Reverse(ctx context.Context, id TransactionID) (Transaction, error) {
	tx, err := l.repo.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if err := l.repo.DeleteTransaction(ctx, id); err != nil {
		return Transaction{}, fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return *tx, nil
}

// BalanceOf sums the guest's entries. A guest without entries owes zero.
func (l *Ledger) BalanceOf(ctx context.Context, guestID GuestID) (Money, error) {
	txs, err := l.repo.TransactionsByGuest(ctx, guestID)
	if err != nil {
		return 0, err
	}
	return BalanceOf(txs), nil
}

// BalanceOf sums amounts.
func BalanceOf(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		total += tx.Amount
	}
	return total
}

// =============================================================================
// STATEMENT
// =============================================================================

// StatementLine is a ledger entry with the balance after it.
type StatementLine struct {
	Transaction
	RunningBalance Money `json:"running_balance"`
}

// Statement returns the guest's entries in date order with a running balance.
func (l *Ledger) Statement(ctx context.Context, guestID GuestID) ([]StatementLine, Money, error) {
	txs, err := l.repo.TransactionsByGuest(ctx, guestID)
	if err != nil {
		return nil, 0, err
	}
	lines := make([]StatementLine, 0, len(txs))
	var running Money
	for _, tx := range txs {
		running += tx.Amount
		lines = append(lines, StatementLine{Transaction: tx, RunningBalance: running})
	}
	return lines, running, nil
}

// =============================================================================
// PAYMENT STATUS
// =============================================================================

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOwing   PaymentStatus = "owing"
)

// PaymentStatusOf classifies a balance against a reference rate.
func PaymentStatusOf(balance, referenceRate Money) PaymentStatus {
	switch {
	case balance <= 0:
		return PaymentPaid
	case balance > referenceRate:
		return PaymentOwing
	default:
		return PaymentPending
	}
}
