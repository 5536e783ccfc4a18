package vrp

import "errors"

// Validation errors returned by Solve before any computation starts.
// They are sentinels so callers can branch with errors.Is.
var (
	// ErrNoPoints means the input held no points at all (a depot is required).
	ErrNoPoints = errors.New("vrp: at least one point required")
	// ErrBadVehicleCount means vehicleCount was zero or negative.
	ErrBadVehicleCount = errors.New("vrp: vehicle count must be positive")
	// ErrBadCapacity means capacity was zero or negative.
	ErrBadCapacity = errors.New("vrp: capacity must be positive")
	// ErrDepotDemand means the depot (point 0) carried a non-zero demand.
	ErrDepotDemand = errors.New("vrp: depot demand must be zero")
	// ErrNegativeDemand means some point carried a negative demand.
	ErrNegativeDemand = errors.New("vrp: point demand must be non-negative")
	// ErrShapeMismatch means a supplied distance matrix was not N×N.
	ErrShapeMismatch = errors.New("vrp: distance matrix shape mismatch")
)
