package services

import (
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func candidateIDs(cs []domain.RouteMatchCandidate) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.Order.ID)
	}
	return ids
}

func TestFindCandidatesReturnTrip(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())

	active := testOrder("active", pt(0, 0), pt(1, 0), 111)
	back := testOrder("back", pt(1, 0.001), pt(0, 0.001), 111)

	got, err := m.FindCandidates(active, []*domain.Order{back}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}

	c := got[0]
	if !c.IsReturnTrip {
		t.Fatalf("expected return trip")
	}
	if c.PickupDetourKm != 0 || c.DropDetourKm != 0 || c.TotalDetourKm != 0 {
		t.Fatalf("return trip should report zero detour, got %+v", c)
	}
	want := geo.DistanceKm(back.Pickup.Point, back.Drop.Point)
	if !approx(c.Savings.DistanceSavedKm, want, 1e-9) || c.Savings.PercentSaved != 100 {
		t.Fatalf("savings = %+v, want %.3f km at 100%%", c.Savings, want)
	}
}

func TestFindCandidatesLooseReturnTrip(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())
	active := testOrder("active", pt(0, 0), pt(1, 0), 111)

	// Pickup sits on the active drop; drop lands about 5.6 km from the active pickup.
	loose := testOrder("loose", pt(1, 0), pt(0.05, 0), 105)
	// Both ends about 5.6 km off: outside the strict bound and not near-perfect.
	neither := testOrder("neither", pt(1, 0.05), pt(0, 0.05), 111)

	got, err := m.FindCandidates(active, []*domain.Order{loose, neither}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range got {
		if c.Order.ID == "neither" {
			t.Fatalf("order without a near-perfect end should not be a candidate: %+v", c)
		}
	}
	if len(got) != 1 || !got[0].IsReturnTrip {
		t.Fatalf("expected loose return trip, got %v", candidateIDs(got))
	}
}

func TestFindCandidatesAlongRoute(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())

	active := testOrder("active", pt(0, 0), pt(10, 0), 1112)
	// Pickup about 1.1 km off the line; drop far off it.
	along := testOrder("along", pt(5, 0.01), pt(5, 1), 110)

	got, err := m.FindCandidates(active, []*domain.Order{along}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}

	c := got[0]
	if c.IsReturnTrip {
		t.Fatalf("did not expect a return trip")
	}
	if c.PickupDetourKm > 0.1 {
		t.Fatalf("pickup detour = %.4f km, want a small detour", c.PickupDetourKm)
	}
	if c.DropDetourKm <= DefaultMatchConfig().DetourMaxKm {
		t.Fatalf("drop detour = %.4f km, want it outside the threshold", c.DropDetourKm)
	}
	if !approx(c.TotalDetourKm, c.PickupDetourKm+c.DropDetourKm, 1e-9) {
		t.Fatalf("total detour %.4f != %.4f + %.4f", c.TotalDetourKm, c.PickupDetourKm, c.DropDetourKm)
	}
	wantSaved := along.PlannedDistanceKm - c.TotalDetourKm
	if !approx(c.Savings.DistanceSavedKm, wantSaved, 1e-9) {
		t.Fatalf("saved = %.4f, want %.4f", c.Savings.DistanceSavedKm, wantSaved)
	}
	if !approx(c.Savings.PercentSaved, wantSaved/along.PlannedDistanceKm*100, 1e-9) {
		t.Fatalf("percent saved = %.4f", c.Savings.PercentSaved)
	}
}

func TestFindCandidatesExcludesFarOrders(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())

	active := testOrder("active", pt(0, 0), pt(10, 0), 1112)
	far := testOrder("far", pt(5, 1), pt(5, 2), 111)

	got, err := m.FindCandidates(active, []*domain.Order{far}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %v", candidateIDs(got))
	}
}

func TestFindCandidatesRankingAndLimit(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())

	active := testOrder("active", pt(0, 0), pt(0, 1), 111)
	pending := []*domain.Order{
		testOrder("z-offset", pt(0.01, 0.5), pt(0, 0.6), 20),
		testOrder("b-online", pt(0, 0.3), pt(0, 0.7), 44),
		testOrder("a-online", pt(0, 0.3), pt(0, 0.7), 44),
		testOrder("return", pt(0, 1.001), pt(0, 0.001), 111),
		active,
	}

	got, err := m.FindCandidates(active, pending, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"return", "a-online", "b-online", "z-offset"}
	if diff := cmp.Diff(want, candidateIDs(got)); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}

	got, err = m.FindCandidates(active, pending, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want[:2], candidateIDs(got)); diff != "" {
		t.Fatalf("limited ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCandidatesZeroPlannedDistance(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())

	active := testOrder("active", pt(0, 0), pt(0, 1), 111)
	unplanned := testOrder("unplanned", pt(0, 0.3), pt(0, 0.7), 0)

	got, err := m.FindCandidates(active, []*domain.Order{unplanned}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Savings.PercentSaved != 0 {
		t.Fatalf("percent saved = %v, want 0", got[0].Savings.PercentSaved)
	}
}

func TestFindCandidatesValidation(t *testing.T) {
	m := NewRouteMatcher(DefaultMatchConfig())

	if _, err := m.FindCandidates(nil, nil, 0); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for nil active order, got %v", err)
	}

	active := testOrder("active", pt(0, 0), pt(0, 1), 111)
	bad := testOrder("bad", pt(91, 0), pt(0, 0), 1)
	if _, err := m.FindCandidates(active, []*domain.Order{bad}, 0); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for out-of-range pickup, got %v", err)
	}
}
