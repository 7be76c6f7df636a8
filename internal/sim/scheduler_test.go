package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/solarsim/internal/solar"
)

type countingMetric struct {
	n int
}

func (c *countingMetric) Name() string                     { return "ticks" }
func (c *countingMetric) Observe(_ solar.Sample, _ float64) { c.n++ }
func (c *countingMetric) Value() float64                   { return float64(c.n) }
func (c *countingMetric) Reset()                           { c.n = 0 }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("Scheduler", func() {
	var (
		state *solar.State
		sched *Scheduler
	)

	BeforeEach(func() {
		state = solar.NewState()
		sched = New(state, 0.5, quiet)
	})

	Describe("Tick", func() {
		It("does nothing without a state", func() {
			empty := New(nil, 0.5, quiet)
			_, ok := empty.Tick()
			Expect(ok).To(BeFalse())
			Expect(empty.Fields()).To(BeNil())
		})

		It("starts ticking once a state is attached", func() {
			sched := New(nil, 0.5, quiet)
			_, ok := sched.Tick()
			Expect(ok).To(BeFalse())

			sched.Attach(solar.NewState())
			Expect(sched.Last().Time).To(Equal(0.0))
			Expect(sched.Last().TankTemp).To(Equal(float32(25)))

			sample, ok := sched.Tick()
			Expect(ok).To(BeTrue())
			Expect(sample.Time).To(Equal(0.5))
			Expect(sched.Fields()).To(HaveLen(int(solar.NumFields)))
		})

		It("restarts time when a new state is attached", func() {
			sched.Tick()
			sched.Tick()
			sched.Attach(solar.NewState())
			sample, _ := sched.Tick()
			Expect(sample.Time).To(Equal(0.5))
		})

		It("runs geometry before the thermal stage", func() {
			_, err := sched.Set("tank_surface_area", 1)
			Expect(err).NotTo(HaveOccurred())

			sample, ok := sched.Tick()
			Expect(ok).To(BeTrue())
			Expect(sample.TankMass).To(Equal(sample.TankCapacity))

			Expect(sample.TankMass).To(BeNumerically("<", 100))
			Expect(state.TankWaterMass.Value()).To(Equal(sample.TankMass))
		})

		It("advances simulated time by dt", func() {
			sched.Tick()
			sample, _ := sched.Tick()
			Expect(sample.Time).To(Equal(1.0))
			Expect(sched.Last()).To(Equal(sample))
		})

		It("keeps the inlet equal to the tank", func() {
			for i := 0; i < 20; i++ {
				sample, _ := sched.Tick()
				Expect(sample.WaterTempIn).To(Equal(sample.TankTemp))
			}
		})

		It("notifies observers and metrics", func() {
			var seen []solar.Sample
			sched.AddObserver(ObserverFunc(func(s solar.Sample) { seen = append(seen, s) }))
			m := &countingMetric{}
			sched.AddMetric(m)

			sched.Tick()
			sched.Tick()
			Expect(seen).To(HaveLen(2))
			Expect(sched.MetricValues()).To(HaveKeyWithValue("ticks", 2.0))
		})
	})

	Describe("field access", func() {
		It("clamps writes", func() {
			change, err := sched.Set("panel_area", 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(change.Old).To(Equal(float32(2)))
			Expect(change.New).To(Equal(float32(3)))

			f, ok := sched.Get("panel_area")
			Expect(ok).To(BeTrue())
			Expect(f.Value).To(Equal(float32(3)))
		})

		It("rejects unknown and derived fields", func() {
			_, err := sched.Set("not_a_field", 1)
			Expect(errors.Is(err, solar.ErrUnknownField)).To(BeTrue())

			_, err = sched.Set("tank_average_temp", 50)
			Expect(errors.Is(err, solar.ErrReadOnlyField)).To(BeTrue())
			Expect(state.TankAverageTemp.Value()).To(Equal(float32(25)))
		})

		It("reports a missing state", func() {
			_, err := New(nil, 0.5, quiet).Set("panel_area", 2)
			Expect(err).To(MatchError(ErrNoState))
		})

		It("serializes writes with ticks", func() {
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					sched.Tick()
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					_, _ = sched.Set("load_temp", float32(10+i%50))
					_ = sched.Fields()
				}
			}()
			wg.Wait()

			snap := sched.Snapshot()
			Expect(snap.WaterTempIn.Value()).To(Equal(snap.TankAverageTemp.Value()))
		})
	})

	Describe("MetricValues", func() {
		It("reads metrics while ticks run", func() {
			m := &countingMetric{}
			sched.AddMetric(m)

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					sched.Tick()
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					_ = sched.MetricValues()
				}
			}()
			wg.Wait()

			Expect(sched.MetricValues()).To(HaveKeyWithValue("ticks", 200.0))
		})
	})

	Describe("Simulate", func() {
		It("collects the initial sample plus one per step", func() {
			m := &countingMetric{}
			sched.AddMetric(m)

			result, err := sched.Simulate(context.Background(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Samples).To(HaveLen(21))
			Expect(result.StepsTaken).To(Equal(20))
			Expect(result.Samples[0].Time).To(Equal(0.0))
			Expect(result.Metrics["ticks"]).To(Equal(20.0))
		})

		It("rejects bad durations", func() {
			_, err := sched.Simulate(context.Background(), 0)
			Expect(err).To(HaveOccurred())
		})

		It("stops on cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := sched.Simulate(ctx, 100)
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.StepsTaken).To(Equal(0))
		})

		It("requires a state", func() {
			_, err := New(nil, 0.5, quiet).Simulate(context.Background(), 10)
			Expect(err).To(MatchError(ErrNoState))
		})
	})

	Describe("Run", func() {
		It("ticks until the context ends", func() {
			fast := New(solar.NewState(), 0.5, quiet)
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- fast.Run(ctx, 100) }()

			Eventually(func() float64 { return fast.Last().Time }).
				WithTimeout(2 * time.Second).
				Should(BeNumerically(">", 0))
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
