package remote

import (
	"context"
	"errors"
	"testing"
)

func TestNewClientURL(t *testing.T) {
	tests := map[string]string{
		":15702":                 "http://localhost:15702/",
		"10.0.0.2:15702":         "http://10.0.0.2:15702/",
		"http://sim.local:8080/": "http://sim.local:8080/",
	}
	for in, want := range tests {
		if got := NewClient(in).url; got != want {
			t.Errorf("NewClient(%q).url = %q, want %q", in, got, want)
		}
	}
}

func TestClientRoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)
	c := NewClient(srv.URL)
	ctx := context.Background()

	msg, err := c.UpdateField(ctx, "solar_irradiance", 2000)
	if err != nil {
		t.Fatal(err)
	}
	if msg != "Updated SimulationState::solar_irradiance: 800 -> 1365.4" {
		t.Errorf("msg = %q", msg)
	}

	_, err = c.UpdateField(ctx, "tank_average_temp", 40)
	var rpcErr *Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeInvalidParams {
		t.Errorf("err = %v", err)
	}

	fields, err := c.Fields(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range fields {
		if f.Name == "solar_irradiance" && f.Value != 1365.4 {
			t.Errorf("solar_irradiance = %v", f.Value)
		}
	}
}
