// Package automation runs scripted scenarios and parameter sweeps.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/field"
	"github.com/san-kum/solarsim/internal/metrics"
	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
)

// Scenario is a scripted run: initial conditions plus field writes at fixed
// simulated times.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Preset      string             `yaml:"preset"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Fields      map[string]float32 `yaml:"fields"`
	Events      []Event            `yaml:"events"`
}

// Event writes Value to Field once simulated time reaches At seconds.
type Event struct {
	At    float64 `yaml:"at"`
	Field string  `yaml:"field"`
	Value float32 `yaml:"value"`
}

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

// Config returns the run configuration the scenario starts from.
func (sc *Scenario) Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Preset = sc.Preset
	if sc.Dt > 0 {
		cfg.Dt = sc.Dt
	}
	if sc.Duration > 0 {
		cfg.Duration = sc.Duration
	}
	for k, v := range sc.Fields {
		cfg.Fields[k] = v
	}
	return cfg
}

// Validate checks the run settings and that every event writes a known,
// writable field. Events are sorted by time.
func (sc *Scenario) Validate() error {
	if err := sc.Config().Validate(); err != nil {
		return err
	}
	for i, ev := range sc.Events {
		if ev.At < 0 {
			return fmt.Errorf("event %d: negative time %f", i+1, ev.At)
		}
		if err := writable(ev.Field); err != nil {
			return fmt.Errorf("event %d: %w", i+1, err)
		}
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].At < sc.Events[j].At })
	return nil
}

func writable(name string) error {
	f, ok := solar.NewState().Get(name)
	if !ok {
		return &solar.FieldError{Name: name, Err: solar.ErrUnknownField}
	}
	if f.Kind == field.Derived {
		return &solar.FieldError{Name: name, Err: solar.ErrReadOnlyField}
	}
	return nil
}

// Setter is the write half of named field access.
type Setter interface {
	Set(name string, v float32) (solar.Change, error)
}

// Player applies scenario events as simulated time passes. It is a
// sim.Observer; an event becomes effective on the tick after its time.
type Player struct {
	fields  Setter
	events  []Event
	next    int
	log     *slog.Logger
	applied []solar.Change
}

// NewPlayer expects events sorted by time.
func NewPlayer(fields Setter, events []Event, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	return &Player{fields: fields, events: events, log: log}
}

// Start applies events scheduled at time zero.
func (p *Player) Start() {
	p.apply(0)
}

func (p *Player) OnTick(s solar.Sample) {
	p.apply(s.Time)
}

func (p *Player) apply(t float64) {
	for p.next < len(p.events) && p.events[p.next].At <= t {
		ev := p.events[p.next]
		p.next++
		change, err := p.fields.Set(ev.Field, ev.Value)
		if err != nil {
			p.log.Warn("scenario event failed", "at", ev.At, "field", ev.Field, "error", err)
			continue
		}
		p.applied = append(p.applied, change)
		p.log.Info("scenario event", "at", ev.At, "field", change.Name, "old", change.Old, "new", change.New)
	}
}

// Applied returns the changes made so far.
func (p *Player) Applied() []solar.Change { return p.applied }

// Pending reports how many events have not fired yet.
func (p *Player) Pending() int { return len(p.events) - p.next }

// RunScenario simulates sc from its initial conditions with the default
// metrics and returns the collected result.
func RunScenario(ctx context.Context, sc *Scenario, log *slog.Logger) (*sim.Result, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg := sc.Config()
	state, err := cfg.NewState()
	if err != nil {
		return nil, err
	}

	// Time-zero events are part of the initial sample.
	player := NewPlayer(state, sc.Events, log)
	player.Start()

	sched := sim.New(state, cfg.Dt, log)
	for _, m := range metrics.Defaults() {
		sched.AddMetric(m)
	}
	player.fields = sched
	sched.AddObserver(player)

	result, err := sched.Simulate(ctx, cfg.Duration)
	if err != nil {
		return result, err
	}
	if n := player.Pending(); n > 0 {
		log.Warn("scenario ended with events pending", "pending", n)
	}
	return result, nil
}
