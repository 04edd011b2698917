package services

import (
	"fleet-route-service/internal/domain"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRankDrivers(t *testing.T) {
	a := NewPerformanceAggregator(NewDeviationMonitor(DefaultDeviationConfig()))

	pending := testOrder("pending", pt(0, 0), pt(0, 0.1), 50)
	ordersByDriver := map[string][]*domain.Order{
		"drv-a": {delivered("a1", 10, ptr(10.0)), delivered("a2", 10, ptr(10.0))},
		"drv-b": {delivered("b1", 10, ptr(15.0)), pending},
		"drv-c": {delivered("c1", 10, ptr(25.0))},
		"drv-d": {pending},
		"drv-e": {delivered("e1", 10, ptr(8.0))},
	}
	fixesByOrder := map[string][]domain.GpsFix{
		"a1": {fixAt(0, 0, 0), fixAt(0, 0, 7*time.Minute)},
	}

	got, err := a.RankDrivers([]string{"drv-d", "drv-c", "drv-b", "drv-a", "drv-e"}, ordersByDriver, fixesByOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.DriverID)
	}
	if diff := cmp.Diff([]string{"drv-a", "drv-e", "drv-b", "drv-c", "drv-d"}, ids); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}

	byID := map[string]domain.DriverPerformanceRecord{}
	for _, r := range got {
		byID[r.DriverID] = r
	}

	tests := []struct {
		id         string
		deliveries int
		pct        float64
		score      float64
	}{
		{"drv-a", 2, 100, 100},
		{"drv-b", 1, 150, 50},
		{"drv-c", 1, 250, 0},
		{"drv-d", 0, 0, 0},
		{"drv-e", 1, 80, 100},
	}
	for _, tt := range tests {
		r := byID[tt.id]
		if r.TotalDeliveries != tt.deliveries {
			t.Errorf("%s: deliveries = %d, want %d", tt.id, r.TotalDeliveries, tt.deliveries)
		}
		if !approx(r.AvgFuelEfficiencyPct, tt.pct, 1e-9) {
			t.Errorf("%s: efficiency pct = %v, want %v", tt.id, r.AvgFuelEfficiencyPct, tt.pct)
		}
		if !approx(r.FuelEfficiencyScore, tt.score, 1e-9) {
			t.Errorf("%s: score = %v, want %v", tt.id, r.FuelEfficiencyScore, tt.score)
		}
	}

	if byID["drv-a"].TotalIdleMinutes != 7 {
		t.Errorf("drv-a idle = %d, want 7", byID["drv-a"].TotalIdleMinutes)
	}
	if byID["drv-b"].TotalPlannedDistanceKm != 10 {
		t.Errorf("pending orders must not count toward planned distance, got %v", byID["drv-b"].TotalPlannedDistanceKm)
	}
}

func TestRankDriversEdgeCases(t *testing.T) {
	a := NewPerformanceAggregator(NewDeviationMonitor(DefaultDeviationConfig()))

	ordersByDriver := map[string][]*domain.Order{
		// Missing actual distance counts as zero.
		"drv-nil": {delivered("n1", 10, nil)},
		// No planned distance at all scores as on plan.
		"drv-zero": {delivered("z1", 0, ptr(4.0))},
	}

	got, err := a.RankDrivers([]string{"drv-zero", "drv-nil", "drv-nil"}, ordersByDriver, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("duplicate driver ids should collapse, got %d records", len(got))
	}
	for _, r := range got {
		if r.FuelEfficiencyScore != 100 {
			t.Errorf("%s: score = %v, want 100", r.DriverID, r.FuelEfficiencyScore)
		}
	}
	if got[0].DriverID != "drv-nil" {
		t.Fatalf("equal scores should sort by driver id, got %s first", got[0].DriverID)
	}
}

func TestEfficiencyScore(t *testing.T) {
	tests := map[float64]float64{
		0:   100,
		100: 100,
		120: 80,
		199: 1,
		200: 0,
		350: 0,
	}
	for pct, want := range tests {
		if got := efficiencyScore(pct); got != want {
			t.Errorf("efficiencyScore(%v) = %v, want %v", pct, got, want)
		}
	}
}
