package repository

import "errors"

var (
	// ErrStationNotFound indicates an unknown station id.
	ErrStationNotFound = errors.New("repository: station not found")
	// ErrPumpNotFound indicates an unknown pump id.
	ErrPumpNotFound = errors.New("repository: pump not found")
	// ErrNozzleNotFound indicates an unknown nozzle id.
	ErrNozzleNotFound = errors.New("repository: nozzle not found")
)

const defaultListLimit = 100
