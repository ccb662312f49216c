package hotel

import (
	"context"
	"time"
)

// Snapshot is the full persisted state at one committed version.
type Snapshot struct {
	Version             Version              `json:"version"`
	TakenAt             time.Time            `json:"taken_at"`
	Rooms               []Room               `json:"rooms"`
	RoomTypes           []RoomType           `json:"room_types"`
	Guests              []Guest              `json:"guests"`
	Reservations        []Reservation        `json:"reservations"`
	Transactions        []Transaction        `json:"transactions"`
	LoyaltyTransactions []LoyaltyTransaction `json:"loyalty_transactions"`
	TaxSettings         TaxSettings          `json:"tax_settings"`
}

// TakeSnapshot reads everything visible to tx.
func TakeSnapshot(ctx context.Context, tx Tx) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Version, err = tx.Version(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Rooms, err = tx.ListRooms(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.RoomTypes, err = tx.ListRoomTypes(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Guests, err = tx.ListGuests(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Reservations, err = tx.ListReservations(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Transactions, err = tx.ListTransactions(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.LoyaltyTransactions, err = tx.ListLoyalty(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.TaxSettings, err = tx.TaxSettings(ctx); err != nil {
		return Snapshot{}, err
	}
	snap.TakenAt = time.Now().UTC()
	return snap, nil
}
