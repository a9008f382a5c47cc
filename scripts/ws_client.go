// Package main runs a demo client: it starts a year optimization run
// and streams its lifecycle events over WebSocket until completion.
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

	year := time.Now().Year()
	body := []byte(fmt.Sprintf(`{"year":%d}`, year))
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/optimize/year", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var started struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		log.Fatal(err)
	}
	if started.RunID == "" {
		log.Fatalf("year run rejected: HTTP %d", resp.StatusCode)
	}
	log.Printf("run id: %s", started.RunID)

	u := url.URL{
		Scheme:   "ws",
		Host:     "localhost:" + port,
		Path:     "/v1/optimize/year/stream",
		RawQuery: "run_id=" + started.RunID,
	}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for {
		var evt struct {
			Type   string `json:"type"`
			Month  string `json:"month"`
			Status string `json:"status"`
			Score  string `json:"score"`
		}
		if err := c.ReadJSON(&evt); err != nil {
			log.Printf("read: %v", err)
			return
		}
		log.Printf("WS <- %s %s %s %s", evt.Type, evt.Month, evt.Status, evt.Score)
		if evt.Type == "run.completed" {
			return
		}
	}
}
