package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/solarsim/internal/automation"
	"github.com/san-kum/solarsim/internal/export"
	"github.com/san-kum/solarsim/internal/metrics"
	"github.com/san-kum/solarsim/internal/storage"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	cfg := sc.Config()
	cfg.DataDir = dataDir
	cfg.Log.Level = logLevel
	cfg.Log.File = logFile
	cfg.UnitID = unitID
	log, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	initial, err := cfg.NewState()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("running scenario", "name", sc.Name, "events", len(sc.Events), "duration", cfg.Duration)
	start := time.Now()
	result, err := automation.RunScenario(ctx, sc, log)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	preset := sc.Name
	if sc.Preset != "" {
		preset = sc.Preset + "+" + sc.Name
	}
	runID, err := st.Save(storage.RunMetadata{
		UnitID:   cfg.UnitID,
		Preset:   preset,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Fields:   initial.Fields(),
	}, result)
	if err != nil {
		return err
	}

	printRun(runID, result, cfg.Dt, elapsed)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	sweep := &automation.Sweep{Base: cfg, Workers: workers}
	for _, raw := range axes {
		axis, err := automation.ParseAxis(raw)
		if err != nil {
			return err
		}
		sweep.Axes = append(sweep.Axes, axis)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grid := sweep.Grid()
	log.Info("sweep started", "points", len(grid), "duration", cfg.Duration)
	start := time.Now()
	points, err := sweep.Run(ctx, log)
	if err != nil {
		return err
	}
	log.Info("sweep finished", "elapsed", time.Since(start).Round(time.Millisecond).String())

	if _, ok := automation.Best(points, metric, !minimize); !ok {
		return fmt.Errorf("unknown metric %q (available: %v)", metric, runMetrics)
	}
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i].Metrics[metric], points[j].Metrics[metric]
		if minimize {
			return a < b
		}
		return a > b
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"RANK"}
	for _, a := range sweep.Axes {
		header = append(header, strings.ToUpper(a.Field))
	}
	header = append(header, strings.ToUpper(metric), "FINAL_TANK_TEMP")
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i, p := range points {
		row := []string{fmt.Sprint(i + 1)}
		for _, a := range sweep.Axes {
			row = append(row, fmt.Sprintf("%g", p.Fields[a.Field]))
		}
		row = append(row, fmt.Sprintf("%.3f", p.Metrics[metric]), fmt.Sprintf("%.2f", p.Final.TankTemp))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func exportSVG(cmd *cobra.Command, args []string) error {
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

	times := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
	}
	var lines []export.Line
	for _, name := range series {
		data := metrics.Series(samples, name)
		if data == nil {
			return fmt.Errorf("unknown series %q (available: %v)", name, metrics.SeriesNames())
		}
		lines = append(lines, export.Line{Name: name, Values: data})
	}

	svg := export.ChartSVG(fmt.Sprintf("%s  %s", meta.ID, meta.UnitID), times, lines, 960, 480)
	if svg == "" {
		return fmt.Errorf("not enough samples to chart")
	}

	path := output
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}
