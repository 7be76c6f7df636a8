package automation

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/metrics"
	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
)

// Axis is one swept field and the values it takes.
type Axis struct {
	Field  string
	Values []float32
}

// ParseAxis reads "name=min:max:n" (n evenly spaced values) or
// "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, rng, ok := strings.Cut(s, "=")
	if !ok || name == "" || rng == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=min:max:n or name=v1,v2", s)
	}
	if err := writable(name); err != nil {
		return Axis{}, err
	}

	if parts := strings.Split(rng, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 32)
		hi, err2 := strconv.ParseFloat(parts[1], 32)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("axis %q: bad range", s)
		}
		values := make([]float32, n)
		if n == 1 {
			values[0] = float32(lo)
		}
		for i := 0; n > 1 && i < n; i++ {
			values[i] = float32(lo + (hi-lo)*float64(i)/float64(n-1))
		}
		return Axis{Field: name, Values: values}, nil
	}

	var values []float32
	for _, raw := range strings.Split(rng, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		values = append(values, float32(v))
	}
	return Axis{Field: name, Values: values}, nil
}

// Point is one completed sweep run.
type Point struct {
	Fields  map[string]float32 `json:"fields"`
	Metrics map[string]float64 `json:"metrics"`
	Final   solar.Sample       `json:"final"`
}

// Sweep runs one simulation per grid point over the cartesian product of
// its axes.
type Sweep struct {
	Base    *config.Config
	Axes    []Axis
	Workers int
}

// Grid enumerates every combination of axis values, first axis slowest.
func (s *Sweep) Grid() []map[string]float32 {
	var out []map[string]float32
	var walk func(depth int, current map[string]float32)
	walk = func(depth int, current map[string]float32) {
		if depth == len(s.Axes) {
			out = append(out, maps.Clone(current))
			return
		}
		axis := s.Axes[depth]
		for _, v := range axis.Values {
			current[axis.Field] = v
			walk(depth+1, current)
		}
		delete(current, axis.Field)
	}
	walk(0, map[string]float32{})
	return out
}

// Run simulates every grid point for Base.Duration. Results keep grid order.
func (s *Sweep) Run(ctx context.Context, log *slog.Logger) ([]Point, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := s.Base.Validate(); err != nil {
		return nil, err
	}
	grid := s.Grid()
	workers := s.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(grid))

	points := make([]Point, len(grid))
	errs := make([]error, len(grid))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				points[i], errs[i] = s.runPoint(ctx, grid[i], log)
			}
		}()
	}

feed:
	for i := range grid {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("point %d %v: %w", i+1, grid[i], err)
		}
	}
	return points, nil
}

func (s *Sweep) runPoint(ctx context.Context, fields map[string]float32, log *slog.Logger) (Point, error) {
	state, err := s.Base.NewState()
	if err != nil {
		return Point{}, err
	}
	applied := make(map[string]float32, len(fields))
	for name, v := range fields {
		change, err := state.Set(name, v)
		if err != nil {
			return Point{}, err
		}
		applied[name] = change.New
	}

	sched := sim.New(state, s.Base.Dt, log)
	for _, m := range metrics.Defaults() {
		sched.AddMetric(m)
	}
	result, err := sched.Simulate(ctx, s.Base.Duration)
	if err != nil {
		return Point{}, err
	}
	log.Debug("sweep point done", "fields", applied, "steps", result.StepsTaken)
	return Point{Fields: applied, Metrics: result.Metrics, Final: sched.Last()}, nil
}

// Best returns the point with the highest (or lowest) value of metric.
func Best(points []Point, metric string, maximize bool) (Point, bool) {
	var best Point
	found := false
	for _, p := range points {
		v, ok := p.Metrics[metric]
		if !ok {
			continue
		}
		if !found || (maximize && v > best.Metrics[metric]) || (!maximize && v < best.Metrics[metric]) {
			best, found = p, true
		}
	}
	return best, found
}
