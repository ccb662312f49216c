/*
Package loyalty provides the guest loyalty account: earning points,
redeeming them, and deriving the guest's tier.

PURPOSE:
  Points are a ledger of their own. Every earn or redemption appends a
  signed LoyaltyTransaction, and Guest.LoyaltyPoints is a cached projection
  of that history. The projection and the history are always written in the
  same unit of work, so Verify never fails on committed state.

TIERS:
  Tier is derived from LifetimePoints, the cumulative points ever earned.
  Redemption lowers the spendable balance but never the lifetime total, so a
  guest is never demoted by spending points.

    bronze      0+
    silver   1000+
    gold     5000+
    platinum 10000+

REDEMPTION:
  Redeem requires 0 < points <= balance. A redemption that fails the check
  returns an error carrying a human-readable message and writes nothing.
  CreditFor converts redeemed points to a folio credit at Program.PointValue.

SEE ALSO:
  - account.go: Earn / Redeem over the store's repositories
  - folio/service.go: earn at check-out, redeem-to-folio
*/
package loyalty

import (
	"fmt"
	"math"
	"sort"

	"github.com/warp/folio-engine/hotel"
)

// =============================================================================
// PROGRAM
// =============================================================================

// Threshold is the minimum lifetime points for a tier.
type Threshold struct {
	Tier      hotel.Tier `json:"tier"`
	MinPoints int64      `json:"min_points"`
}

// Program is the loyalty configuration.
type Program struct {
	Tiers      []Threshold `json:"tiers"`
	PointValue hotel.Money `json:"point_value"` // folio credit per redeemed point
}

func DefaultProgram() Program {
	return Program{
		Tiers: []Threshold{
			{Tier: hotel.TierBronze, MinPoints: 0},
			{Tier: hotel.TierSilver, MinPoints: 1000},
			{Tier: hotel.TierGold, MinPoints: 5000},
			{Tier: hotel.TierPlatinum, MinPoints: 10000},
		},
		PointValue: hotel.Major(1),
	}
}

// Validate checks the thresholds start at zero and strictly increase in
// tier order.
func (p Program) Validate() error {
	if len(p.Tiers) == 0 {
		return hotel.NewValidationError("tiers", "at least one tier is required")
	}
	tiers := p.sorted()
	if tiers[0].MinPoints != 0 {
		return hotel.NewValidationError("tiers", "lowest tier must start at 0 points")
	}
	for i := 0; i < len(tiers); i++ {
		if _, ok := tierRank[tiers[i].Tier]; !ok {
			return hotel.NewValidationError("tiers", fmt.Sprintf("unknown tier %q", tiers[i].Tier))
		}
		if i == 0 {
			continue
		}
		prev, cur := tiers[i-1], tiers[i]
		if cur.MinPoints == prev.MinPoints {
			return hotel.NewValidationError("tiers", fmt.Sprintf("%s and %s share threshold %d", prev.Tier, cur.Tier, cur.MinPoints))
		}
		if tierRank[cur.Tier] <= tierRank[prev.Tier] {
			return hotel.NewValidationError("tiers", fmt.Sprintf("%s (%d) must need more points than %s (%d)", prev.Tier, prev.MinPoints, cur.Tier, cur.MinPoints))
		}
	}
	if p.PointValue.IsNegative() {
		return hotel.NewValidationError("point_value", "must not be negative")
	}
	return nil
}

var tierRank = map[hotel.Tier]int{
	hotel.TierBronze:   0,
	hotel.TierSilver:   1,
	hotel.TierGold:     2,
	hotel.TierPlatinum: 3,
}

func (p Program) sorted() []Threshold {
	tiers := append([]Threshold(nil), p.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinPoints < tiers[j].MinPoints })
	return tiers
}

// TierFor returns the highest tier whose threshold lifetime reaches.
func (p Program) TierFor(lifetime int64) hotel.Tier {
	tier := hotel.TierBronze
	for _, t := range p.sorted() {
		if lifetime >= t.MinPoints {
			tier = t.Tier
		}
	}
	return tier
}

// CreditFor is the folio credit for redeeming points. A credit that does
// not fit in Money is rejected with ErrInvalidAmount.
func (p Program) CreditFor(points int64) (hotel.Money, error) {
	if points < 0 {
		return 0, hotel.ErrInvalidPoints
	}
	if p.PointValue > 0 && points > math.MaxInt64/int64(p.PointValue) {
		return 0, fmt.Errorf("%w: %d points at %s overflows", hotel.ErrInvalidAmount, points, p.PointValue)
	}
	return hotel.Money(points) * p.PointValue, nil
}

// NextTier returns the next tier above lifetime and the points still needed.
// ok is false at the top tier.
func (p Program) NextTier(lifetime int64) (tier hotel.Tier, needed int64, ok bool) {
	for _, t := range p.sorted() {
		if t.MinPoints > lifetime {
			return t.Tier, t.MinPoints - lifetime, true
		}
	}
	return "", 0, false
}
