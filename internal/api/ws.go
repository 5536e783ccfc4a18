package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"routeplan/internal/store"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// PlanEventsWSHandler streams broker events for one plan over a websocket.
// The plan must exist; the stream closes when the client goes away.
func (s *Server) PlanEventsWSHandler(w http.ResponseWriter, r *http.Request, planID string) {
	if _, err := s.Store.GetPlan(r.Context(), planID); err != nil {
		if err == store.ErrNotFound {
			writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
		} else {
			writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
		}
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.Broker.Subscribe(planID)
	defer s.Broker.Unsubscribe(planID, ch)

	// detect client close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}
