package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/solarsim/internal/solar"
)

const (
	DefaultDt       = 0.5
	DefaultDuration = 3600.0
	DefaultSpeed    = 1.0
	DefaultAddr     = ":15702"
	DefaultTopic    = "solarsim.telemetry"
	DefaultDataDir  = ".solarsim"
	DefaultUnitID   = "unit-1"
)

type Config struct {
	UnitID   string             `yaml:"unit_id"`
	Dt       float64            `yaml:"dt"`
	Duration float64            `yaml:"duration"`
	Speed    float64            `yaml:"speed"`
	Preset   string             `yaml:"preset"`
	Fields   map[string]float32 `yaml:"fields"`
	DataDir  string             `yaml:"data_dir"`
	Server   ServerConfig       `yaml:"server"`
	Kafka    KafkaConfig        `yaml:"kafka"`
	Log      LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		UnitID:   DefaultUnitID,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Speed:    DefaultSpeed,
		Fields:   map[string]float32{},
		DataDir:  DefaultDataDir,
		Server: ServerConfig{
			Addr:        DefaultAddr,
			CORSOrigins: []string{"*"},
		},
		Kafka: KafkaConfig{
			Topic: DefaultTopic,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks scalar settings and that every field override names a
// known field.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %f", c.Speed)
	}
	if c.Preset != "" && GetPreset(c.Preset) == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", c.Preset, ListPresets())
	}
	for name := range c.Fields {
		if _, ok := solar.Lookup(name); !ok {
			return fmt.Errorf("fields: %w: %q", solar.ErrUnknownField, name)
		}
	}
	return nil
}

// NewState builds the initial simulation state: defaults, then the preset,
// then explicit field overrides. water_temp_in always starts equal to
// tank_average_temp.
func (c *Config) NewState() (*solar.State, error) {
	s := solar.NewState()
	if c.Preset != "" {
		p := GetPreset(c.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", c.Preset, ListPresets())
		}
		if err := apply(s, p.Fields); err != nil {
			return nil, err
		}
	}
	if err := apply(s, c.Fields); err != nil {
		return nil, err
	}
	// The inlet is fully mixed with the tank from the first sample on.
	s.WaterTempIn.Assign(s.TankAverageTemp.Value())
	return s, nil
}

func apply(s *solar.State, fields map[string]float32) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := s.Override(name, fields[name]); err != nil {
			return err
		}
	}
	return nil
}
