package model

import (
	"time"

	"routeplan/internal/vrp"
)

// PointIn is one demand point of a planning request. Element 0 is the depot
// and must carry zero demand. The demand value typically comes from the
// upstream estimation service and is treated as an opaque quantity here.
type PointIn struct {
	ID     vrp.ID  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Demand float64 `json:"demand,omitempty"`
}

// PlanRequest is the body of POST /v1/plan.
type PlanRequest struct {
	Points         []PointIn   `json:"points"`
	VehicleCount   int         `json:"vehicleCount"`
	Capacity       float64     `json:"capacity"`
	DistanceMatrix [][]float64 `json:"distanceMatrix,omitempty"`
	// ApplyLocalSearch defaults to true when omitted.
	ApplyLocalSearch *bool `json:"applyLocalSearch,omitempty"`
	TimeBudgetMs     int   `json:"timeBudgetMs,omitempty"`
	MaxIterations    int   `json:"maxIterations,omitempty"`
}

// PlanStats mirrors the optimizer's per-call statistics in the wire shape.
type PlanStats struct {
	InitialDistance float64 `json:"initialDistance"`
	FinalDistance   float64 `json:"finalDistance"`
	ImprovementPct  float64 `json:"improvementPct"`
	Iterations      int     `json:"iterations"`
	ElapsedMs       int64   `json:"elapsedMs"`
}

// Plan is a stored planning result. Routes and Unassigned carry the original
// point identifiers, never matrix indices.
type Plan struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	VehicleCount  int        `json:"vehicleCount"`
	Capacity      float64    `json:"capacity"`
	Routes        [][]vrp.ID `json:"routes"`
	Unassigned    []vrp.ID   `json:"unassigned"`
	TotalDistance float64    `json:"totalDistance"`
	Stats         PlanStats  `json:"stats"`
}

// SubscriptionRequest registers a webhook consumer for plan events.
type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}
