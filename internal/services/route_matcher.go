package services

import (
	"cmp"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fmt"
	"math"
	"slices"
	"strings"
)

// MatchConfig holds the bundling thresholds, all in kilometres.
type MatchConfig struct {
	// Both return-trip distances within this bound always qualify.
	ReturnTripStrictKm float64
	// One return-trip distance below this counts as a near-perfect match...
	ReturnTripPerfectKm float64
	// ...which then qualifies when both distances are within this bound.
	ReturnTripLooseKm float64
	// An endpoint is along the route when inserting it costs at most this much.
	DetourMaxKm float64
	// Default number of candidates returned to callers.
	Limit int
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		ReturnTripStrictKm:  3,
		ReturnTripPerfectKm: 0.5,
		ReturnTripLooseKm:   10,
		DetourMaxKm:         2,
		Limit:               3,
	}
}

// RouteMatcher ranks a driver's pending orders by how cheaply they fold into
// the active trip. It performs no I/O.
type RouteMatcher struct {
	cfg MatchConfig
}

func NewRouteMatcher(cfg MatchConfig) *RouteMatcher {
	return &RouteMatcher{cfg: cfg}
}

func (m *RouteMatcher) DefaultLimit() int { return m.cfg.Limit }

// FindCandidates returns the pending orders that can be bundled with active.
// Return trips rank first, then ascending total detour. limit <= 0 returns all.
func (m *RouteMatcher) FindCandidates(active *domain.Order, pending []*domain.Order, limit int) ([]domain.RouteMatchCandidate, error) {
	if active == nil {
		return nil, &domain.ValidationError{Field: "active", Reason: "active order is required"}
	}
	if err := active.Pickup.Point.Validate("active.pickup"); err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	if err := active.Drop.Point.Validate("active.drop"); err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	a := active.Pickup.Point
	b := active.Drop.Point
	direct := geo.DistanceKm(a, b)

	candidates := make([]domain.RouteMatchCandidate, 0, len(pending))
	for i, p := range pending {
		if p == nil {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("pending[%d]", i), Reason: "order is nil"}
		}
		if p.ID == active.ID {
			continue
		}
		if err := p.Pickup.Point.Validate(fmt.Sprintf("pending[%d].pickup", i)); err != nil {
			return nil, fmt.Errorf("find candidates: %w", err)
		}
		if err := p.Drop.Point.Validate(fmt.Sprintf("pending[%d].drop", i)); err != nil {
			return nil, fmt.Errorf("find candidates: %w", err)
		}

		c := p.Pickup.Point
		d := p.Drop.Point

		// Return trip: the pending order runs roughly back from B to A.
		pickupNearDrop := geo.DistanceKm(b, c)
		dropNearPickup := geo.DistanceKm(a, d)
		if m.isReturnTrip(pickupNearDrop, dropNearPickup) {
			candidates = append(candidates, domain.RouteMatchCandidate{
				Order:        *p,
				IsReturnTrip: true,
				Savings: domain.Savings{
					DistanceSavedKm: geo.DistanceKm(c, d),
					PercentSaved:    100,
				},
			})
			continue
		}

		// Both endpoints are measured against the active A->B segment.
		pickupDetour := detourKm(a, b, c, direct)
		dropDetour := detourKm(a, b, d, direct)
		if pickupDetour > m.cfg.DetourMaxKm && dropDetour > m.cfg.DetourMaxKm {
			continue
		}

		total := pickupDetour + dropDetour
		saved := p.PlannedDistanceKm - total
		pct := 0.0
		if p.PlannedDistanceKm > 0 {
			pct = saved / p.PlannedDistanceKm * 100
		}

		candidates = append(candidates, domain.RouteMatchCandidate{
			Order:          *p,
			PickupDetourKm: pickupDetour,
			DropDetourKm:   dropDetour,
			TotalDetourKm:  total,
			Savings: domain.Savings{
				DistanceSavedKm: saved,
				PercentSaved:    pct,
			},
		})
	}

	slices.SortStableFunc(candidates, compareCandidates)

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (m *RouteMatcher) isReturnTrip(pickupNearDrop, dropNearPickup float64) bool {
	if pickupNearDrop <= m.cfg.ReturnTripStrictKm && dropNearPickup <= m.cfg.ReturnTripStrictKm {
		return true
	}

	perfect := pickupNearDrop < m.cfg.ReturnTripPerfectKm || dropNearPickup < m.cfg.ReturnTripPerfectKm
	return perfect && pickupNearDrop <= m.cfg.ReturnTripLooseKm && dropNearPickup <= m.cfg.ReturnTripLooseKm
}

// detourKm is the extra distance of visiting p on the way from a to b.
func detourKm(a, b, p domain.GeoPoint, direct float64) float64 {
	return math.Max(0, geo.DistanceKm(a, p)+geo.DistanceKm(p, b)-direct)
}

func compareCandidates(x, y domain.RouteMatchCandidate) int {
	if x.IsReturnTrip != y.IsReturnTrip {
		if x.IsReturnTrip {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(x.TotalDetourKm, y.TotalDetourKm); c != 0 {
		return c
	}
	// Tie-breaker ensures deterministic ordering when detours are equal.
	return strings.Compare(x.Order.ID, y.Order.ID)
}
