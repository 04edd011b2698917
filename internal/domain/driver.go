package domain

// Driver is a roster entry. Vehicle type is the driver's default for new orders.
type Driver struct {
	ID          string
	FullName    string
	VehicleType VehicleType
}
