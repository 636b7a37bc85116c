package models

import "time"

// FuelType is the product a nozzle dispenses.
type FuelType string

const (
	FuelPetrol FuelType = "petrol"
	FuelDiesel FuelType = "diesel"
)

// Valid reports whether f is a known fuel type.
func (f FuelType) Valid() bool {
	return f == FuelPetrol || f == FuelDiesel
}

// Station is a fuel station.
type Station struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Pump groups nozzles at a station.
type Pump struct {
	ID        string    `db:"id" json:"id"`
	StationID string    `db:"station_id" json:"stationId"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Nozzle dispenses one fuel type. Deactivation is a soft delete.
type Nozzle struct {
	ID            string     `db:"id" json:"id"`
	PumpID        string     `db:"pump_id" json:"pumpId"`
	StationID     string     `db:"station_id" json:"stationId"`
	FuelType      FuelType   `db:"fuel_type" json:"fuelType"`
	Label         string     `db:"label" json:"label"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	DeactivatedAt *time.Time `db:"deactivated_at" json:"deactivatedAt,omitempty"`
}
