package api

import (
	"fmt"

	"routeplan/internal/model"
)

// validatePlanRequest rejects structurally malformed requests before they
// reach the planner. Semantic validation (capacity, depot demand, matrix
// shape) belongs to the planning pipeline itself.
func validatePlanRequest(req *model.PlanRequest) error {
	if len(req.Points) == 0 {
		return fmt.Errorf("points must be non-empty")
	}
	if req.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	if req.MaxIterations < 0 {
		return fmt.Errorf("maxIterations must be >= 0")
	}
	return nil
}
