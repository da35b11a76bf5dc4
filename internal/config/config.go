// Package config loads polaralign settings from a YAML file, POLARALIGN_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/polaralign/internal/logging"
	"github.com/signalsfoundry/polaralign/internal/observability"
	"github.com/signalsfoundry/polaralign/model"
)

// Config holds application configuration.
type Config struct {
	Observer   ObserverConfig   `mapstructure:"observer"`
	Alignment  AlignmentConfig  `mapstructure:"alignment"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// ObserverConfig is the site the mount stands at.
type ObserverConfig struct {
	Name         string  `mapstructure:"name"`
	LatitudeDeg  float64 `mapstructure:"latitude"`
	LongitudeDeg float64 `mapstructure:"longitude"`
}

// AlignmentConfig tunes the session.
type AlignmentConfig struct {
	MaxPixelSearchRange float64 `mapstructure:"max_pixel_search_range"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// MetricsConfig controls the Prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SimulationConfig drives the simulate command.
type SimulationConfig struct {
	AzErrorDeg  float64       `mapstructure:"az_error"`
	AltErrorDeg float64       `mapstructure:"alt_error"`
	StartAzDeg  float64       `mapstructure:"start_az"`
	StartAltDeg float64       `mapstructure:"start_alt"`
	RotationDeg float64       `mapstructure:"rotation"`
	SampleGap   time.Duration `mapstructure:"sample_gap"`
	Tick        time.Duration `mapstructure:"tick"`
	Steps       int           `mapstructure:"steps"`
	Start       string        `mapstructure:"start"`
	Accelerated bool          `mapstructure:"accelerated"`
	ScaleArcsec float64       `mapstructure:"scale_arcsec"`
	FrameWidth  int           `mapstructure:"frame_width"`
	FrameHeight int           `mapstructure:"frame_height"`
}

// Defaults are applied before any file, environment or flag value.
var Defaults = map[string]any{
	"observer.name":                    "site",
	"observer.latitude":                42.0,
	"observer.longitude":               -71.0,
	"alignment.max_pixel_search_range": 2.0,
	"log.level":                        "info",
	"log.format":                       "text",
	"log.add_source":                   false,
	"tracing.enabled":                  false,
	"tracing.service_name":             "polaralign",
	"tracing.exporter":                 "stdout",
	"tracing.endpoint":                 "",
	"tracing.sample_ratio":             1.0,
	"metrics.addr":                     "",
	"simulation.az_error":              0.6,
	"simulation.alt_error":             -0.4,
	"simulation.start_az":              150.0,
	"simulation.start_alt":             55.0,
	"simulation.rotation":              -30.0,
	"simulation.sample_gap":            "90s",
	"simulation.tick":                  "30s",
	"simulation.steps":                 8,
	"simulation.start":                 "",
	"simulation.accelerated":           true,
	"simulation.scale_arcsec":          2.0,
	"simulation.frame_width":           3000,
	"simulation.frame_height":          2000,
}

// Load reads configuration. path may be empty, in which case
// $POLARALIGN_CONFIG or ./polaralign.yaml is used when present. A .env file
// in the working directory is loaded into the environment first. Flags that
// were set on fs override everything else; flag names use the key with
// dots replaced by dashes, e.g. --observer-latitude.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv("POLARALIGN_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "polaralign"))
		v.SetConfigName("polaralign")
	}

	v.SetEnvPrefix("POLARALIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		for key := range Defaults {
			if f := fs.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FlagName is the command-line flag bound to a configuration key.
func FlagName(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, ".", "-"), "_", "-")
}

// Validate rejects settings no alignment could run with.
func (c Config) Validate() error {
	var errs []error
	if c.Observer.LatitudeDeg < -90 || c.Observer.LatitudeDeg > 90 {
		errs = append(errs, fmt.Errorf("observer.latitude %v outside [-90, 90]", c.Observer.LatitudeDeg))
	}
	if c.Observer.LongitudeDeg < -180 || c.Observer.LongitudeDeg > 180 {
		errs = append(errs, fmt.Errorf("observer.longitude %v outside [-180, 180]", c.Observer.LongitudeDeg))
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio %v outside [0, 1]", r))
	}
	if c.Simulation.Tick <= 0 {
		errs = append(errs, errors.New("simulation.tick must be positive"))
	}
	if c.Simulation.Steps < 1 {
		errs = append(errs, errors.New("simulation.steps must be at least 1"))
	}
	if c.Simulation.Start != "" {
		if _, err := time.Parse(time.RFC3339, c.Simulation.Start); err != nil {
			errs = append(errs, fmt.Errorf("simulation.start: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ObserverModel returns the configured site.
func (c Config) ObserverModel() model.Observer {
	return model.Observer{
		Name:         c.Observer.Name,
		LatitudeDeg:  c.Observer.LatitudeDeg,
		LongitudeDeg: c.Observer.LongitudeDeg,
	}
}

// LoggingConfig converts the log section.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, AddSource: c.Log.AddSource}
}

// TracingSettings converts the tracing section.
func (c Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
		Observer:    c.ObserverModel(),
	}
}

// SimulationStart is the configured start instant, or now when unset.
func (c Config) SimulationStart() time.Time {
	if t, err := time.Parse(time.RFC3339, c.Simulation.Start); err == nil {
		return t
	}
	return time.Now().UTC()
}
