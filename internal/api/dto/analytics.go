package dto

import "fleet-route-service/internal/domain"

type PerformanceResponse struct {
	Rank                   int     `json:"rank"`
	DriverID               string  `json:"driver_id"`
	TotalDeliveries        int     `json:"total_deliveries"`
	TotalPlannedDistanceKm float64 `json:"total_planned_distance_km"`
	TotalActualDistanceKm  float64 `json:"total_actual_distance_km"`
	TotalIdleMinutes       int     `json:"total_idle_minutes"`
	AvgFuelEfficiencyPct   float64 `json:"avg_fuel_efficiency_pct"`
	FuelEfficiencyScore    float64 `json:"fuel_efficiency_score"`
}

type LeaderboardResponse struct {
	Drivers []PerformanceResponse `json:"drivers"`
}

func Leaderboard(records []domain.DriverPerformanceRecord) LeaderboardResponse {
	res := LeaderboardResponse{Drivers: make([]PerformanceResponse, 0, len(records))}
	for i, r := range records {
		res.Drivers = append(res.Drivers, PerformanceResponse{
			Rank:                   i + 1,
			DriverID:               r.DriverID,
			TotalDeliveries:        r.TotalDeliveries,
			TotalPlannedDistanceKm: r.TotalPlannedDistanceKm,
			TotalActualDistanceKm:  r.TotalActualDistanceKm,
			TotalIdleMinutes:       r.TotalIdleMinutes,
			AvgFuelEfficiencyPct:   r.AvgFuelEfficiencyPct,
			FuelEfficiencyScore:    r.FuelEfficiencyScore,
		})
	}
	return res
}

type FleetStatsResponse struct {
	TotalOrders     int     `json:"total_orders"`
	DeliveredOrders int     `json:"delivered_orders"`
	FlaggedOrders   int     `json:"flagged_orders"`
	ActiveDrivers   int     `json:"active_drivers"`
	TotalPlannedKm  float64 `json:"total_planned_km"`
	TotalActualKm   float64 `json:"total_actual_km"`
	TotalFuelLiters float64 `json:"total_fuel_liters"`
	AvgKmPerLiter   float64 `json:"avg_km_per_liter"`
	TotalFuelCost   float64 `json:"total_fuel_cost"`
}

func FleetStats(s domain.FleetStats) FleetStatsResponse {
	return FleetStatsResponse(s)
}

type FuelSavingsResponse struct {
	LitersSaved float64 `json:"liters_saved"`
	CostSaved   float64 `json:"cost_saved"`
}
