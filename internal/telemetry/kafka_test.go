package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/san-kum/solarsim/internal/solar"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestMessage(t *testing.T) {
	p := NewPublisher(&fakeWriter{}, "roof-3", 1, quiet)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	msg, err := p.Message(solar.Sample{Time: 1.5, TankTemp: 31})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Key) != "roof-3" {
		t.Errorf("key = %q", msg.Key)
	}
	if !msg.Time.Equal(fixed) {
		t.Errorf("time = %v", msg.Time)
	}

	var r Reading
	if err := json.Unmarshal(msg.Value, &r); err != nil {
		t.Fatal(err)
	}
	if r.UnitID != "roof-3" || r.Sample.Time != 1.5 || r.Sample.TankTemp != 31 {
		t.Errorf("reading = %+v", r)
	}
}

func TestPublisherDecimatesAndCloses(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, "unit-1", 3, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 1; i <= 9; i++ {
		p.OnTick(solar.Sample{Time: float64(i)})
	}

	deadline := time.Now().Add(2 * time.Second)
	for w.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if w.count() != 3 {
		t.Fatalf("published %d messages, want 3", w.count())
	}
	if !w.closed {
		t.Error("writer not closed")
	}
	var r Reading
	if err := json.Unmarshal(w.msgs[0].Value, &r); err != nil {
		t.Fatal(err)
	}
	if r.Sample.Time != 3 {
		t.Errorf("first published time = %v, want 3", r.Sample.Time)
	}
}

func TestOnTickDropsWhenFull(t *testing.T) {
	p := NewPublisher(&fakeWriter{}, "unit-1", 1, quiet)
	for i := 0; i < cap(p.queue)+10; i++ {
		p.OnTick(solar.Sample{})
	}
	if len(p.queue) != cap(p.queue) {
		t.Errorf("queue len = %d", len(p.queue))
	}
}
