package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/signalsfoundry/polaralign/internal/config"
	"github.com/signalsfoundry/polaralign/internal/logging"
)

// app is the state shared by subcommands once flags are parsed.
type app struct {
	cfgPath string
	output  string
	cfg     config.Config
	log     logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "polaralign",
		Short: "Three-point polar alignment for equatorial mounts",
		Long: `polaralign fits the rotation axis of an equatorial mount from three
plate-solved positions taken between RA rotations, reports its offset from the
celestial pole and guides the altitude and azimuth knob corrections.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			switch a.output {
			case "text", "yaml":
			default:
				return fmt.Errorf("unsupported output format: %s", a.output)
			}
			lc := cfg.LoggingConfig()
			lc.Output = cmd.ErrOrStderr()
			a.cfg = cfg
			a.log = logging.New(lc)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "Path to a YAML config file (default ./polaralign.yaml)")
	pf.StringVarP(&a.output, "output", "o", "text", "Output format (text or yaml)")
	stringFlag(pf, "observer.name", "Observing site name")
	floatFlag(pf, "observer.latitude", "Site latitude in degrees, north positive")
	floatFlag(pf, "observer.longitude", "Site longitude in degrees, east positive")
	stringFlag(pf, "log.level", "Log level (debug, info, warn, error)")
	stringFlag(pf, "log.format", "Log format (text or json)")
	boolFlag(pf, "tracing.enabled", "Export OpenTelemetry spans")
	stringFlag(pf, "tracing.exporter", "Span exporter (stdout or otlp)")
	stringFlag(pf, "tracing.endpoint", "OTLP/gRPC collector endpoint")

	cmd.AddCommand(newFitCmd(a))
	cmd.AddCommand(newSimulateCmd(a))
	return cmd
}

// The flag defaults mirror config.Defaults; viper only reads flags that were
// set explicitly.

func stringFlag(fs *pflag.FlagSet, key, usage string) {
	def, _ := config.Defaults[key].(string)
	fs.String(config.FlagName(key), def, usage)
}

func floatFlag(fs *pflag.FlagSet, key, usage string) {
	def, _ := config.Defaults[key].(float64)
	fs.Float64(config.FlagName(key), def, usage)
}

func intFlag(fs *pflag.FlagSet, key, usage string) {
	def, _ := config.Defaults[key].(int)
	fs.Int(config.FlagName(key), def, usage)
}

func boolFlag(fs *pflag.FlagSet, key, usage string) {
	def, _ := config.Defaults[key].(bool)
	fs.Bool(config.FlagName(key), def, usage)
}

func durationFlag(fs *pflag.FlagSet, key, usage string) {
	fs.String(config.FlagName(key), fmt.Sprint(config.Defaults[key]), usage)
}
