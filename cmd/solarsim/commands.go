package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/solarsim/internal/metrics"
	"github.com/san-kum/solarsim/internal/remote"
	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
	"github.com/san-kum/solarsim/internal/storage"
	"github.com/san-kum/solarsim/internal/telemetry"
	"github.com/san-kum/solarsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sched, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}
	initial := sched.Fields()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := sched.Simulate(ctx, cfg.Duration)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		UnitID:   cfg.UnitID,
		Preset:   cfg.Preset,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Fields:   initial,
	}, result)
	if err != nil {
		return err
	}
	log.Info("run stored", "run", runID, "steps", result.StepsTaken, "elapsed", elapsed.String())

	printRun(runID, result, cfg.Dt, elapsed)
	return nil
}

var runMetrics = []string{"peak_tank_temp", "mean_tank_temp", "solar_energy_kwh", "loss_energy_kwh"}

func printRun(runID string, result *sim.Result, dt float64, elapsed time.Duration) {
	fmt.Printf("run: %s\n", runID)
	fmt.Printf("steps: %d  simulated: %s  wall: %s\n",
		result.StepsTaken, time.Duration(float64(result.StepsTaken)*dt*float64(time.Second)), elapsed.Round(time.Millisecond))
	for _, name := range runMetrics {
		if v, ok := result.Metrics[name]; ok {
			fmt.Printf("  %-18s %.3f\n", name, v)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	sched, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := remote.NewHub(log)
	sched.AddObserver(hub)

	var pub *telemetry.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = telemetry.NewPublisher(telemetry.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.UnitID, every, log)
		sched.AddObserver(pub)
		log.Info("publishing telemetry", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	srv := remote.NewServer(sched, hub, log, remote.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		AccessLog:   os.Stderr,
	})

	return serve(ctx, sched, hub, pub, srv, cfg.Server.Addr, cfg.Speed)
}

// serve runs the hub, the optional publisher, the endpoint and the realtime
// scheduler until ctx ends. A failure in any of them stops the rest.
func serve(ctx context.Context, sched *sim.Scheduler, hub *remote.Hub, pub *telemetry.Publisher, srv *remote.Server, addr string, speed float64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { hub.Run(ctx); return nil })
	if pub != nil {
		g.Go(func() error { return pub.Run(ctx) })
	}
	g.Go(func() error { return srv.ListenAndServe(ctx, addr) })
	g.Go(func() error { return sched.Run(ctx, speed) })
	return g.Wait()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The dashboard owns the terminal; logs go to --log-file only.
	log, closer, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	sched, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if serveToo {
		hub := remote.NewHub(log)
		sched.AddObserver(hub)
		srv := remote.NewServer(sched, hub, log, remote.Options{CORSOrigins: cfg.Server.CORSOrigins})
		g.Go(func() error { hub.Run(gctx); return nil })
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })
	}

	title := cfg.UnitID
	if cfg.Preset != "" {
		title += " / " + cfg.Preset
	}
	m := viz.NewModel(sched, title, cfg.Speed).WithTheme(theme)
	_, runErr := tea.NewProgram(m, tea.WithAltScreen()).Run()

	cancel()
	return errors.Join(runErr, g.Wait())
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUNIT\tPRESET\tTIME\tDURATION\tDT\tPEAK")

	for _, run := range runs {
		p := run.Preset
		if p == "" {
			p = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0fs\t%.2fs\t%.2f°C\n",
			run.ID,
			run.UnitID,
			p,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Metrics["peak_tank_temp"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("unit: %s\n", meta.UnitID)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, name := range series {
		data := metrics.Series(samples, name)
		if data == nil {
			return fmt.Errorf("unknown series %q (available: %v)", name, metrics.SeriesNames())
		}
		chart := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(solar.Label(name)))
		fmt.Println(chart)

		s := metrics.Summarize(name, data)
		fmt.Printf("  min %.3f  max %.3f  mean %.3f  std %.3f  final %.3f\n\n", s.Min, s.Max, s.Mean, s.StdDev, s.Final)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteCSV(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	data := storage.NewExport(meta, samples)
	if output != "" {
		if err := storage.ExportJSON(output, data); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", output)
		return nil
	}
	return storage.ExportJSONStdout(data)
}

func listFields(cmd *cobra.Command, args []string) error {
	var fields []solar.Snapshot
	if remoteAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		var err error
		fields, err = remote.NewClient(remoteAddr).Fields(ctx)
		if err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		state, err := cfg.NewState()
		if err != nil {
			return err
		}
		fields = state.Fields()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tKIND\tVALUE\tMIN\tMAX")
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\n", f.Name, f.Kind, f.Value, f.Min, f.Max)
	}
	return w.Flush()
}

func setField(cmd *cobra.Command, args []string) error {
	v, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return fmt.Errorf("value %q: %w", args[1], err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := remote.NewClient(remoteAddr).UpdateField(ctx, args[0], float32(v))
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}
