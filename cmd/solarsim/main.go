package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/logging"
	"github.com/san-kum/solarsim/internal/metrics"
	"github.com/san-kum/solarsim/internal/sim"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	logFile    string

	dt          float64
	duration    float64
	speed       float64
	preset      string
	unitID      string
	fieldValues []string

	addr    string
	brokers []string
	topic   string
	every   int

	theme    string
	serveToo bool

	series     []string
	output     string
	remoteAddr string

	axes     []string
	metric   string
	minimize bool
	workers  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "solarsim",
		Short:         "solar water heater simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")

	simFlags := func(cmd *cobra.Command) {
		cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "fixed timestep in seconds")
		cmd.Flags().StringVar(&preset, "preset", "", "initial field preset")
		cmd.Flags().StringVar(&unitID, "unit", config.DefaultUnitID, "unit identifier")
		cmd.Flags().StringArrayVar(&fieldValues, "set", nil, "initial field value as name=value (repeatable)")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate as fast as possible and store the run",
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration in seconds")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run in real time and accept remote field writes",
		RunE:  runServe,
	}
	simFlags(serveCmd)
	serveCmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "simulated seconds per wall second")
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringSliceVar(&brokers, "kafka", nil, "kafka brokers for tick telemetry")
	serveCmd.Flags().StringVar(&topic, "topic", config.DefaultTopic, "kafka topic")
	serveCmd.Flags().IntVar(&every, "every", 1, "publish every n-th tick")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the live terminal dashboard",
		RunE:  runLive,
	}
	simFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", config.DefaultSpeed, "simulated seconds per wall second")
	liveCmd.Flags().StringVar(&theme, "theme", "solar", "color theme")
	liveCmd.Flags().BoolVar(&serveToo, "serve", false, "also serve the remote endpoint")
	liveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address with --serve")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"tank_average_temp", "q_net"},
		"series to plot ("+strings.Join(metrics.SeriesNames(), ", ")+")")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list simulation fields and their ranges",
		RunE:  listFields,
	}
	fieldsCmd.Flags().StringVar(&preset, "preset", "", "apply preset before listing")
	fieldsCmd.Flags().StringVar(&remoteAddr, "remote", "", "read fields from a running endpoint")

	setCmd := &cobra.Command{
		Use:   "set [field] [value]",
		Short: "write a field on a running endpoint",
		Args:  cobra.ExactArgs(2),
		RunE:  setField,
	}
	setCmd.Flags().StringVar(&remoteAddr, "remote", config.DefaultAddr, "endpoint address")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-10s %s\n", name, config.GetPreset(name).Description)
			}
			return nil
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run series as an SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringSliceVar(&series, "series", []string{"tank_average_temp", "ambient_temp", "q_net"}, "series to draw")
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.svg)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().StringVar(&unitID, "unit", config.DefaultUnitID, "unit identifier")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "simulate a grid of field values and rank the results",
		RunE:  runSweep,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration per point in seconds")
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "swept field as name=min:max:n or name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "peak_tank_temp", "metric to rank by")
	sweepCmd.Flags().BoolVar(&minimize, "minimize", false, "rank lowest first")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default NumCPU)")
	_ = sweepCmd.MarkFlagRequired("axis")

	rootCmd.AddCommand(runCmd, serveCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		fieldsCmd, setCmd, presetsCmd, scenarioCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file if given, then applies flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("preset") {
		cfg.Preset = preset
	}
	if flags.Changed("unit") {
		cfg.UnitID = unitID
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("kafka") {
		cfg.Kafka.Brokers = brokers
	}
	if flags.Changed("topic") {
		cfg.Kafka.Topic = topic
	}
	if flags.Changed("data") || configFile == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") || configFile == "" {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}

	for _, kv := range fieldValues {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
		if cfg.Fields == nil {
			cfg.Fields = map[string]float32{}
		}
		cfg.Fields[strings.TrimSpace(name)] = float32(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) (*slog.Logger, io.Closer, error) {
	log, closer, err := logging.New(out, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	return log.With("unit", cfg.UnitID), closer, nil
}

// newScheduler builds the initial state from cfg and a scheduler with the
// default metrics attached.
func newScheduler(cfg *config.Config, log *slog.Logger) (*sim.Scheduler, error) {
	state, err := cfg.NewState()
	if err != nil {
		return nil, err
	}
	sched := sim.New(state, cfg.Dt, log)
	for _, m := range metrics.Defaults() {
		sched.AddMetric(m)
	}
	return sched, nil
}
