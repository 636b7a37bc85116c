package models

// FuelType is the product dispensed by a nozzle.
type FuelType string

const (
	FuelPetrol FuelType = "petrol"
	FuelDiesel FuelType = "diesel"
)

// Valid reports whether f is a known fuel type.
func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel:
		return true
	}
	return false
}

// NozzleRef is the registry view of an active nozzle.
type NozzleRef struct {
	NozzleID  string   `json:"nozzleId"`
	PumpID    string   `json:"pumpId"`
	StationID string   `json:"stationId"`
	FuelType  FuelType `json:"fuelType"`
}
