package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T) (*httptest.Server, *sim.Scheduler, *Hub) {
	t.Helper()
	sched := sim.New(solar.NewState(), 0.5, quiet)
	hub := NewHub(quiet)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewServer(sched, hub, quiet, Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv, sched, hub
}

func postRPC(t *testing.T, url, body string) Response {
	t.Helper()
	resp, err := http.Post(url+"/", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestRPCUpdateField(t *testing.T) {
	srv, sched, _ := newTestServer(t)

	out := postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"simulation.update_field","params":{"field_name":"ambient_temp","value":12}}`)
	if out.Error != nil {
		t.Fatalf("unexpected error: %v", out.Error)
	}
	if out.Result != "Updated SimulationState::ambient_temp: 25 -> 12" {
		t.Errorf("result = %v", out.Result)
	}
	if string(out.ID) != "1" {
		t.Errorf("id = %s", out.ID)
	}
	if f, _ := sched.Get("ambient_temp"); f.Value != 12 {
		t.Errorf("ambient_temp = %v", f.Value)
	}
}

func TestRPCErrors(t *testing.T) {
	srv, sched, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{"not json", `{{{`, CodeParseError, "Parse error"},
		{"no method", `{"jsonrpc":"2.0","id":1}`, CodeInvalidRequest, "Invalid Request"},
		{"empty params", `{"jsonrpc":"2.0","id":1,"method":"simulation.update_field"}`, CodeInvalidRequest, "simulation.update_field: Request was empty"},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"simulation.update_field","params":{"value":"x"}}`, CodeParseError, "simulation.update_field: Unable to parse request"},
		{"unknown field", `{"jsonrpc":"2.0","id":1,"method":"simulation.update_field","params":{"field_name":"warp","value":1}}`, CodeInternalError, "simulation.update_field: Unknown field"},
		{"read-only", `{"jsonrpc":"2.0","id":1,"method":"simulation.update_field","params":{"field_name":"water_temp_in","value":40}}`, CodeInvalidParams, "simulation.update_field: Field is read-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := postRPC(t, srv.URL, tt.body)
			if out.Error == nil {
				t.Fatalf("expected error, got %v", out.Result)
			}
			if out.Error.Code != tt.wantCode || out.Error.Message != tt.wantMsg {
				t.Errorf("got %d %q, want %d %q", out.Error.Code, out.Error.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}

	if f, _ := sched.Get("water_temp_in"); f.Value != 25 {
		t.Errorf("water_temp_in = %v, want 25", f.Value)
	}
}

func TestFieldRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/fields")
	if err != nil {
		t.Fatal(err)
	}
	var fields []solar.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(fields) != int(solar.NumFields) {
		t.Fatalf("got %d fields", len(fields))
	}

	resp, err = http.Get(srv.URL + "/fields/tank_surface_area")
	if err != nil {
		t.Fatal(err)
	}
	var f solar.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if f.Name != "tank_surface_area" || f.Value != 5 {
		t.Errorf("got %+v", f)
	}

	resp, err = http.Get(srv.URL + "/fields/warp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown field status = %d", resp.StatusCode)
	}
}

func TestPutField(t *testing.T) {
	srv, _, _ := newTestServer(t)

	put := func(name, body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/fields/"+name, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	resp := put("load_temp", `{"value":5}`)
	var change solar.Change
	if err := json.NewDecoder(resp.Body).Decode(&change); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || change.Old != 20 || change.New != 10 {
		t.Errorf("status %d change %+v", resp.StatusCode, change)
	}

	cases := map[string]struct {
		name, body string
		status     int
	}{
		"derived": {"tank_average_temp", `{"value":30}`, http.StatusForbidden},
		"unknown": {"warp", `{"value":1}`, http.StatusNotFound},
		"no body": {"load_temp", `{}`, http.StatusBadRequest},
	}
	for label, c := range cases {
		resp := put(c.name, c.body)
		resp.Body.Close()
		if resp.StatusCode != c.status {
			t.Errorf("%s: status = %d, want %d", label, resp.StatusCode, c.status)
		}
	}
}

func TestCORS(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+"/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
		t.Errorf("Allow-Headers = %q", got)
	}
}

func TestWebSocketReceivesTicksAndUpdates(t *testing.T) {
	srv, sched, hub := newTestServer(t)
	sched.AddObserver(hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("clients = %d", hub.ClientCount())
	}

	sched.Tick()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt struct {
		Type    string       `json:"type"`
		Payload solar.Sample `json:"payload"`
	}
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Type != EventTick || evt.Payload.Time != 0.5 {
		t.Errorf("got %+v", evt)
	}

	postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":2,"method":"simulation.update_field","params":{"field_name":"cloud_factor","value":0.5}}`)
	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var upd struct {
		Type    string       `json:"type"`
		Payload solar.Change `json:"payload"`
	}
	if err := json.Unmarshal(data, &upd); err != nil {
		t.Fatal(err)
	}
	if upd.Type != EventFieldUpdated || upd.Payload.Name != "cloud_factor" || upd.Payload.New != 0.5 {
		t.Errorf("got %+v", upd)
	}
}
