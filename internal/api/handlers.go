package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"routeplan/internal/buildinfo"
	"routeplan/internal/metrics"
	"routeplan/internal/model"
	"routeplan/internal/store"
	"routeplan/internal/vrp"
	"routeplan/internal/webhooks"
)

// PlanHandler handles POST /v1/plan: runs the planning pipeline, stores the
// result and publishes plan.created.
func (s *Server) PlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.planLimiter != nil && !s.planLimiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "too many planning requests", r.URL.Path)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validatePlanRequest(&req); err != nil {
		metrics.PlanRequests.WithLabelValues("invalid").Inc()
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}

	prob := vrp.Problem{
		Nodes:        make([]vrp.Node, len(req.Points)),
		VehicleCount: req.VehicleCount,
		Capacity:     req.Capacity,
		Matrix:       req.DistanceMatrix,
	}
	for i, pt := range req.Points {
		prob.Nodes[i] = vrp.Node{ID: pt.ID, X: pt.X, Y: pt.Y, Demand: pt.Demand}
	}
	cfg := s.solverConfig(req)

	start := time.Now()
	res, err := vrp.Solve(prob, cfg)
	if err != nil {
		// Solve only fails on input validation; no partial result exists.
		metrics.PlanRequests.WithLabelValues("invalid").Inc()
		writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
		return
	}
	metrics.PlanRequests.WithLabelValues("ok").Inc()
	metrics.PlanDuration.Observe(time.Since(start).Seconds())
	metrics.OptimizerIterations.Add(float64(res.Stats.Iterations))
	metrics.OptimizerImprovement.Observe(res.Stats.ImprovementPct)

	plan := model.Plan{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		VehicleCount:  req.VehicleCount,
		Capacity:      req.Capacity,
		Routes:        res.Routes,
		Unassigned:    res.Unassigned,
		TotalDistance: res.TotalDistance,
		Stats: model.PlanStats{
			InitialDistance: res.Stats.InitialDistance,
			FinalDistance:   res.Stats.FinalDistance,
			ImprovementPct:  res.Stats.ImprovementPct,
			Iterations:      res.Stats.Iterations,
			ElapsedMs:       res.Stats.Elapsed.Milliseconds(),
		},
	}
	if err := s.Store.SavePlan(r.Context(), plan); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save plan failed", err.Error(), r.URL.Path)
		return
	}
	s.Broker.Publish(plan.ID, PlanEvent{Type: webhooks.EventPlanCreated, Data: map[string]any{
		"planId":        plan.ID,
		"totalDistance": plan.TotalDistance,
		"unassigned":    len(plan.Unassigned),
	}})
	s.Pub.Emit(r.Context(), webhooks.EventPlanCreated, plan)
	writeJSON(w, http.StatusOK, plan)
}

// solverConfig merges per-request budgets with the configured defaults.
func (s *Server) solverConfig(req model.PlanRequest) vrp.Config {
	cfg := vrp.DefaultConfig()
	if req.ApplyLocalSearch != nil {
		cfg.ApplyLocalSearch = *req.ApplyLocalSearch
	}
	budgetMs := s.Cfg.Optimizer.TimeBudgetMs
	if req.TimeBudgetMs > 0 {
		budgetMs = req.TimeBudgetMs
	}
	cfg.TimeBudget = time.Duration(budgetMs) * time.Millisecond
	cfg.MaxIterations = s.Cfg.Optimizer.MaxIterations
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	cfg.Workers = s.Cfg.Optimizer.Workers
	return cfg
}

// PlansIndexHandler handles GET /v1/plans
func (s *Server) PlansIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cursor := r.URL.Query().Get("cursor")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, next, err := s.Store.ListPlans(r.Context(), cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles /v1/plans/{id} and /v1/plans/{id}/events/ws
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if id, ok := strings.CutSuffix(rest, "/events/ws"); ok {
		s.PlanEventsWSHandler(w, r, id)
		return
	}
	id := rest
	switch r.Method {
	case http.MethodGet:
		plan, err := s.Store.GetPlan(r.Context(), id)
		if err == store.ErrNotFound {
			writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case http.MethodDelete:
		err := s.Store.DeletePlan(r.Context(), id)
		if err == store.ErrNotFound {
			writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete plan failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.URL == "" || len(req.Events) == 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		sub.Secret = ""
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": subs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" || r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	err := s.Store.DeleteSubscription(r.Context(), id)
	if err == store.ErrNotFound {
		writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthHandler reports liveness plus build info.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler reports readiness (the store is reachable once NewServer returned).
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
