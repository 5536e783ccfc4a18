package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"routeplan/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(config.Config{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

const demoPlanBody = `{
	"points": [
		{"id": "D", "x": 50, "y": 50},
		{"id": 1, "x": 45, "y": 68, "demand": 10},
		{"id": 2, "x": 42, "y": 70, "demand": 7},
		{"id": 3, "x": 60, "y": 60, "demand": 12},
		{"id": 4, "x": 30, "y": 40, "demand": 5},
		{"id": 5, "x": 55, "y": 20, "demand": 9}
	],
	"vehicleCount": 2,
	"capacity": 20
}`

func postPlan(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plan", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	s.PlanHandler(rr, req)
	return rr
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestPlanCreateGetDelete(t *testing.T) {
	s := newTestServer(t)
	rr := postPlan(t, s, demoPlanBody)
	if rr.Code != 200 {
		t.Fatalf("plan: got %d body %s", rr.Code, rr.Body.String())
	}
	var plan struct {
		ID            string            `json:"id"`
		Routes        []json.RawMessage `json:"routes"`
		TotalDistance float64           `json:"totalDistance"`
		Stats         struct {
			FinalDistance float64 `json:"finalDistance"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.ID == "" {
		t.Fatal("plan id missing")
	}
	if len(plan.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(plan.Routes))
	}
	if plan.TotalDistance <= 0 {
		t.Fatalf("totalDistance: %v", plan.TotalDistance)
	}
	if plan.Stats.FinalDistance != plan.TotalDistance {
		t.Fatalf("stats.finalDistance %v != totalDistance %v", plan.Stats.FinalDistance, plan.TotalDistance)
	}

	// GET /v1/plans
	rr = httptest.NewRecorder()
	s.PlansIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans?limit=5", nil))
	if rr.Code != 200 {
		t.Fatalf("plans index: got %d", rr.Code)
	}
	var idx struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &idx); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(idx.Items) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(idx.Items))
	}

	// GET /v1/plans/{id}
	rr = httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("plan get: got %d", rr.Code)
	}

	// DELETE /v1/plans/{id}
	rr = httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/plans/"+plan.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("plan delete: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("plan get after delete: got %d", rr.Code)
	}
}

func TestPlanValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"empty points", `{"points":[],"vehicleCount":1,"capacity":10}`},
		{"zero vehicles", `{"points":[{"id":0,"x":0,"y":0}],"vehicleCount":0,"capacity":10}`},
		{"zero capacity", `{"points":[{"id":0,"x":0,"y":0}],"vehicleCount":1,"capacity":0}`},
		{"depot demand", `{"points":[{"id":0,"x":0,"y":0,"demand":3},{"id":1,"x":1,"y":1,"demand":1}],"vehicleCount":1,"capacity":10}`},
		{"negative demand", `{"points":[{"id":0,"x":0,"y":0},{"id":1,"x":1,"y":1,"demand":-1}],"vehicleCount":1,"capacity":10}`},
		{"ragged matrix", `{"points":[{"id":0,"x":0,"y":0},{"id":1,"x":1,"y":1,"demand":1}],"vehicleCount":1,"capacity":10,"distanceMatrix":[[0,1],[1]]}`},
		{"bad json", `{"points":`},
	}
	for _, tc := range cases {
		rr := postPlan(t, s, tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d body %s", tc.name, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s: content type %q", tc.name, ct)
		}
	}
}

func TestPlanRateLimit(t *testing.T) {
	s, err := NewServer(config.Config{RateLimit: config.RateLimitConfig{RPS: 0.001, Burst: 1}})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if rr := postPlan(t, s, demoPlanBody); rr.Code != 200 {
		t.Fatalf("first plan: got %d", rr.Code)
	}
	if rr := postPlan(t, s, demoPlanBody); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second plan: got %d, want 429", rr.Code)
	}
}

func TestSubscriptionsCRUD(t *testing.T) {
	s := newTestServer(t)
	// missing url rejected
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader([]byte(`{"events":["plan.created"]}`)))
	req.Header.Set("Content-Type", "application/json")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("create sub without url: got %d", rr.Code)
	}

	body := []byte(`{"url":"https://example.invalid/webhook","events":["plan.created"],"secret":"shh"}`)
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: got %d", rr.Code)
	}
	var sub struct {
		ID     string `json:"id"`
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode sub: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("subscription id missing")
	}
	if sub.Secret != "" {
		t.Fatal("secret must not be echoed")
	}

	rr = httptest.NewRecorder()
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil))
	if rr.Code != 200 {
		t.Fatalf("list subs: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete sub: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete sub twice: got %d", rr.Code)
	}
}

func TestPlanCreatedEnqueuesWebhook(t *testing.T) {
	s := newTestServer(t)
	subBody := []byte(`{"url":"https://example.invalid/webhook","events":["plan.created"],"secret":"shh"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(subBody))
	req.Header.Set("Content-Type", "application/json")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: %d", rr.Code)
	}

	if rr := postPlan(t, s, demoPlanBody); rr.Code != 200 {
		t.Fatalf("plan: %d", rr.Code)
	}

	due, err := s.Store.FetchDueWebhookDeliveries(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch deliveries: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(due))
	}
	if due[0].EventType != "plan.created" {
		t.Fatalf("eventType: %q", due[0].EventType)
	}
	var payload struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(due[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Type != "plan.created" || payload.Data.ID == "" {
		t.Fatalf("payload should carry the plan: %s", due[0].Payload)
	}
}

func TestPlanLocalSearchToggle(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"points": [
			{"id": 0, "x": 0, "y": 0},
			{"id": 1, "x": 0, "y": 1, "demand": 1},
			{"id": 2, "x": 1, "y": 1, "demand": 1},
			{"id": 3, "x": 1, "y": 0, "demand": 1}
		],
		"vehicleCount": 1,
		"capacity": 10,
		"applyLocalSearch": false
	}`
	rr := postPlan(t, s, body)
	if rr.Code != 200 {
		t.Fatalf("plan: got %d body %s", rr.Code, rr.Body.String())
	}
	var plan struct {
		Stats struct {
			Iterations      int     `json:"iterations"`
			InitialDistance float64 `json:"initialDistance"`
			FinalDistance   float64 `json:"finalDistance"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.Stats.Iterations != 0 {
		t.Fatalf("iterations with local search off: %d", plan.Stats.Iterations)
	}
	if plan.Stats.InitialDistance != plan.Stats.FinalDistance {
		t.Fatalf("distances should match: %v vs %v", plan.Stats.InitialDistance, plan.Stats.FinalDistance)
	}
}

func TestPlanMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.PlanHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plan", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", rr.Code)
	}
}
