package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "polaralign.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POLARALIGN_CONFIG", "")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Observer.LatitudeDeg != 42 || cfg.Alignment.MaxPixelSearchRange != 2 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Simulation.SampleGap != 90*time.Second || cfg.Simulation.Tick != 30*time.Second {
		t.Fatalf("durations = %v, %v", cfg.Simulation.SampleGap, cfg.Simulation.Tick)
	}
	if cfg.Log.Level != "info" || cfg.Tracing.Exporter != "stdout" {
		t.Fatalf("unexpected log/tracing defaults: %+v %+v", cfg.Log, cfg.Tracing)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
observer:
  name: backyard
  latitude: -33.9
  longitude: 151.2
alignment:
  max_pixel_search_range: 5
log:
  level: debug
simulation:
  tick: 10s
`)
	t.Setenv("POLARALIGN_LOG_LEVEL", "warn")
	t.Setenv("POLARALIGN_OBSERVER_LONGITUDE", "150")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Float64(FlagName("observer.latitude"), 0, "")
	fs.Float64(FlagName("alignment.max_pixel_search_range"), 0, "")
	if err := fs.Parse([]string{"--observer-latitude=-30"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Observer.Name != "backyard" {
		t.Fatalf("name = %q, want file value", cfg.Observer.Name)
	}
	if cfg.Observer.LatitudeDeg != -30 {
		t.Fatalf("latitude = %v, want flag value -30", cfg.Observer.LatitudeDeg)
	}
	if cfg.Observer.LongitudeDeg != 150 {
		t.Fatalf("longitude = %v, want env value 150", cfg.Observer.LongitudeDeg)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level = %q, want env value", cfg.Log.Level)
	}
	if cfg.Alignment.MaxPixelSearchRange != 5 {
		t.Fatalf("max range = %v, want file value (unset flag must not win)", cfg.Alignment.MaxPixelSearchRange)
	}
	if cfg.Simulation.Tick != 10*time.Second {
		t.Fatalf("tick = %v", cfg.Simulation.Tick)
	}

	obs := cfg.ObserverModel()
	if obs.Name != "backyard" || obs.LatitudeDeg != -30 {
		t.Fatalf("ObserverModel = %+v", obs)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(writeConfig(t, "{}"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"latitude", func(c *Config) { c.Observer.LatitudeDeg = 91 }, "observer.latitude"},
		{"longitude", func(c *Config) { c.Observer.LongitudeDeg = -181 }, "observer.longitude"},
		{"sample ratio", func(c *Config) { c.Tracing.SampleRatio = 2 }, "tracing.sample_ratio"},
		{"tick", func(c *Config) { c.Simulation.Tick = 0 }, "simulation.tick"},
		{"steps", func(c *Config) { c.Simulation.Steps = 0 }, "simulation.steps"},
		{"start", func(c *Config) { c.Simulation.Start = "yesterday" }, "simulation.start"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestSimulationStart(t *testing.T) {
	c := Config{Simulation: SimulationConfig{Start: "2024-09-14T21:30:00Z"}}
	want := time.Date(2024, 9, 14, 21, 30, 0, 0, time.UTC)
	if got := c.SimulationStart(); !got.Equal(want) {
		t.Fatalf("SimulationStart = %v, want %v", got, want)
	}
}

func TestConversions(t *testing.T) {
	c := Config{
		Log:     LogConfig{Level: "debug", Format: "json"},
		Tracing: TracingConfig{Enabled: true, Exporter: "otlp", Endpoint: "collector:4317", SampleRatio: 0.5},
	}
	if lc := c.LoggingConfig(); lc.Level != "debug" || lc.Format != "json" {
		t.Fatalf("LoggingConfig = %+v", lc)
	}
	if tc := c.TracingSettings(); !tc.Enabled || tc.Endpoint != "collector:4317" || tc.SampleRatio != 0.5 {
		t.Fatalf("TracingSettings = %+v", tc)
	}
}
