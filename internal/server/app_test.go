package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"

	"stockwatch/internal/handlers/items"
	"stockwatch/internal/store"
	"stockwatch/internal/testutil"
	"stockwatch/internal/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *App) {
	t.Helper()
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	conn := testutil.SetupTestDB(t)
	hub := websocket.NewHub()
	app := &App{
		DB:    conn,
		Hub:   hub,
		Items: &items.Handler{Store: store.New(conn), Hub: hub},
	}
	srv := httptest.NewServer(app.Handler(nil))
	t.Cleanup(srv.Close)
	return srv, app
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutes_ItemLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	api := srv.URL + "/api/v1"

	steps := []struct {
		method, path, body string
		want               int
	}{
		{"POST", "/items", `{"name":"Bolt","quantity":40,"price":0.25}`, 201},
		{"POST", "/items", `{"name":"Bolt","quantity":40,"price":0.25}`, 409},
		{"GET", "/items", "", 200},
		{"GET", "/items/Bolt", "", 200},
		{"PUT", "/items/Bolt", `{"name":"Bolt","quantity":30,"price":0.25}`, 200},
		{"GET", "/items/export?format=csv", "", 200},
		{"GET", "/chart", "", 200},
		{"GET", "/settings", "", 200},
		{"PUT", "/settings", `{"min_qty_threshold":5,"window_size":3}`, 200},
		{"GET", "/notifications", "", 200},
		{"POST", "/notifications/1/read", "", 404},
		{"GET", "/audit", "", 200},
		{"POST", "/monitor/check", "", 503},
		{"DELETE", "/items/Bolt", "", 200},
		{"GET", "/items/Bolt", "", 404},
		{"PATCH", "/items/Bolt", "", 404},
		{"GET", "/unknown", "", 404},
		{"POST", "/items", `{"name":"export","quantity":1,"price":1}`, 400},
		{"POST", "/items", `{"name":"import","quantity":1,"price":1}`, 400},
	}
	for _, s := range steps {
		resp := do(t, s.method, api+s.path, s.body)
		if resp.StatusCode != s.want {
			b, _ := io.ReadAll(resp.Body)
			t.Errorf("%s %s: expected %d, got %d: %s", s.method, s.path, s.want, resp.StatusCode, b)
		}
	}
}

func TestRoutes_EncodedItemName(t *testing.T) {
	srv, _ := newTestServer(t)
	api := srv.URL + "/api/v1"

	do(t, "POST", api+"/items", `{"name":"M6/zinc bolt","quantity":1,"price":1}`)
	resp := do(t, "GET", api+"/items/M6%2Fzinc%20bolt", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&env)
	if env.Data.Name != "M6/zinc bolt" {
		t.Errorf("name = %q", env.Data.Name)
	}
}

func TestRoutes_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, "GET", srv.URL+"/healthz", "")
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}
}

func TestRoutes_WebSocketReceivesChanges(t *testing.T) {
	srv, app := newTestServer(t)

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for app.Hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	do(t, "POST", srv.URL+"/api/v1/items", `{"name":"Bolt","quantity":1,"price":1}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt websocket.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	if evt.Type != "item_create" || evt.ID != "Bolt" {
		t.Errorf("unexpected event %+v", evt)
	}
}
