// Package main runs a demo WebSocket client for plan events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Create a plan from the demo instance
	body := []byte(`{
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
	}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var plan struct {
		ID            string  `json:"id"`
		TotalDistance float64 `json:"totalDistance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		log.Fatal(err)
	}
	log.Printf("Plan %s, total distance %.2f", plan.ID, plan.TotalDistance)

	// Stream its events
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/plans/" + plan.ID + "/events/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var evt struct {
				Type string         `json:"type"`
				Data map[string]any `json:"data"`
			}
			if err := c.ReadJSON(&evt); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %v", evt.Type, evt.Data)
		}
	}()

	// Wait briefly to receive messages
	select {
	case <-time.After(5 * time.Second):
	case <-done:
	}
}
