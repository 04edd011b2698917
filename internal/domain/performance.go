package domain

// DriverPerformanceRecord aggregates one driver's delivered orders.
// It is recomputed on demand from orders and fixes.
type DriverPerformanceRecord struct {
	DriverID               string
	TotalDeliveries        int
	TotalPlannedDistanceKm float64
	TotalActualDistanceKm  float64
	TotalIdleMinutes       int
	AvgFuelEfficiencyPct   float64
	FuelEfficiencyScore    float64
}

// FleetStats are dashboard totals across every order.
type FleetStats struct {
	TotalOrders     int
	DeliveredOrders int
	FlaggedOrders   int
	ActiveDrivers   int
	TotalPlannedKm  float64
	TotalActualKm   float64
	TotalFuelLiters float64
	AvgKmPerLiter   float64
	TotalFuelCost   float64
}

// FuelSavings compares fuel for the planned distance with fuel actually burned.
// Negative values mean the delivery used more than planned.
type FuelSavings struct {
	LitersSaved float64
	CostSaved   float64
}
