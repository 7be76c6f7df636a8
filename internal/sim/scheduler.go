package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/solarsim/internal/solar"
)

// Scheduler owns a solar.State and advances it in fixed ticks. Field access
// and ticks share one lock, so a tick always sees a consistent state and a
// write never lands halfway through a tick.
type Scheduler struct {
	// tickMu keeps ticks, including observer dispatch, from overlapping.
	tickMu sync.Mutex

	mu    sync.Mutex
	state *solar.State
	dt    float64
	t     float64
	last  solar.Sample

	log       *slog.Logger
	metrics   []Metric
	observers []Observer
}

// New returns a scheduler stepping state by dt seconds. A nil state is
// allowed; ticks are skipped until Attach provides one.
func New(state *solar.State, dt float64, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		state: state,
		dt:    dt,
		log:   log,
	}
	if state != nil {
		s.last = state.SampleAt(0, state.Balance())
	}
	return s
}

// AddMetric and AddObserver are setup calls; make them before the first
// Tick, Run or Simulate.
func (s *Scheduler) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Scheduler) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Dt returns the fixed tick length in seconds.
func (s *Scheduler) Dt() float64 { return s.dt }

// Attach installs the state to simulate.
func (s *Scheduler) Attach(state *solar.State) {
	s.mu.Lock()
	s.state = state
	s.t = 0
	if state != nil {
		s.last = state.SampleAt(0, state.Balance())
	}
	s.mu.Unlock()
}

// Tick runs geometry then thermal with the same dt. It reports false and
// does nothing when no state is attached.
func (s *Scheduler) Tick() (solar.Sample, bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return solar.Sample{}, false
	}
	b := s.state.Step(s.dt)
	s.t += s.dt
	sample := s.state.SampleAt(s.t, b)
	s.last = sample
	s.mu.Unlock()

	for _, m := range s.metrics {
		m.Observe(sample, s.dt)
	}
	for _, o := range s.observers {
		o.OnTick(sample)
	}
	return sample, true
}

// Last returns the output of the most recent tick.
func (s *Scheduler) Last() solar.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Get returns a snapshot of the named field.
func (s *Scheduler) Get(name string) (solar.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return solar.Snapshot{}, false
	}
	return s.state.Get(name)
}

// Set writes a mutable field between ticks.
func (s *Scheduler) Set(name string, v float32) (solar.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return solar.Change{}, ErrNoState
	}
	change, err := s.state.Set(name, v)
	if err != nil {
		return change, err
	}
	s.log.Debug("field updated", "field", change.Name, "old", change.Old, "new", change.New)
	return change, nil
}

// Fields enumerates all fields.
func (s *Scheduler) Fields() []solar.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Fields()
}

// Snapshot returns a copy of the whole state.
func (s *Scheduler) Snapshot() *solar.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Clone()
}

// MetricValues reports every registered metric. It waits for a running
// tick to finish, so it must not be called from an Observer.
func (s *Scheduler) MetricValues() map[string]float64 {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Run ticks in real time until ctx is done. speed scales simulated time
// against wall time; a speed of 2 runs ticks twice as often.
func (s *Scheduler) Run(ctx context.Context, speed float64) error {
	if s.dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", s.dt)
	}
	if speed <= 0 {
		speed = 1
	}
	interval := time.Duration(s.dt / speed * float64(time.Second))
	if interval <= 0 {
		interval = time.Millisecond
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	s.log.Info("scheduler started", "dt", s.dt, "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", "sim_time", s.Last().Time)
			return nil
		case <-t.C:
			s.Tick()
		}
	}
}

// Simulate ticks as fast as possible for duration simulated seconds and
// collects every sample, starting with the initial one.
func (s *Scheduler) Simulate(ctx context.Context, duration float64) (*Result, error) {
	cfg := Config{Dt: s.dt, Duration: duration}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.Snapshot() == nil {
		return nil, ErrNoState
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Samples: make([]solar.Sample, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Samples = append(result.Samples, s.Last())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, _ := s.Tick()
		result.Samples = append(result.Samples, sample)
		result.StepsTaken++
	}

	result.Metrics = s.MetricValues()
	return result, nil
}
