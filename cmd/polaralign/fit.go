package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/polaralign/align"
	"github.com/signalsfoundry/polaralign/internal/astro"
	"github.com/signalsfoundry/polaralign/internal/logging"
	"github.com/signalsfoundry/polaralign/internal/observability"
	"github.com/signalsfoundry/polaralign/internal/wcs"
	"github.com/signalsfoundry/polaralign/model"
)

func newFitCmd(a *app) *cobra.Command {
	var samples []string
	var at string

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the mount axis from three horizontal positions",
		Long: `Fit the mount's RA axis from three positions the telescope pointed at, given
as azimuth,altitude in degrees, and print the polar error and the positions
a refresh image should show after a full or altitude-only correction.`,
		Example: `  # Three positions taken 30 degrees of RA apart
  polaralign fit --observer-latitude 42.36 --observer-longitude -71.06 \
    --sample 150,55 --sample 127.5,48.1 --sample 110.2,38.9

  # The same as YAML
  polaralign fit -o yaml --sample 150,55 --sample 127.5,48.1 --sample 110.2,38.9`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(samples) != align.MaxSamples {
				return fmt.Errorf("need exactly %d --sample values, got %d", align.MaxSamples, len(samples))
			}
			t := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				t = parsed
			}
			var coords []model.HorizontalCoord
			for _, s := range samples {
				h, err := parseAzAlt(s)
				if err != nil {
					return err
				}
				coords = append(coords, h)
			}

			ctx := logging.ContextWithLogger(cmd.Context(), a.log)
			tracing, err := observability.InitTracing(ctx, a.cfg.TracingSettings())
			if err != nil {
				return err
			}
			defer tracing.Shutdown(context.Background())

			rep, err := runFit(ctx, a, coords, t)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), a.output, rep)
		},
	}

	cmd.Flags().StringArrayVar(&samples, "sample", nil, "Horizontal position as az,alt in degrees (repeat three times)")
	cmd.Flags().StringVar(&at, "at", "", "Time the positions were observed, RFC 3339 (default now)")
	return cmd
}

func runFit(ctx context.Context, a *app, coords []model.HorizontalCoord, t time.Time) (fitReport, error) {
	obs := a.cfg.ObserverModel()
	s := align.New(obs, align.WithLogger(a.log)).
		WithMaxPixelSearchRange(a.cfg.Alignment.MaxPixelSearchRange)
	ctx = logging.ContextWithSessionID(ctx, s.ID())

	var err error
	for _, h := range coords {
		frame := wcs.NewFrame(horizontalToCatalog(h, obs, t), 1.0, 0, 1000, 1000, t)
		if s, err = s.AddSample(ctx, frame); err != nil {
			return fitReport{}, err
		}
	}
	if s, err = s.ComputeAxis(ctx); err != nil {
		return fitReport{}, err
	}
	return newFitReport(s)
}

func horizontalToCatalog(h model.HorizontalCoord, obs model.Observer, t time.Time) model.SkyCoord {
	apparent := astro.Horizontal{}.ToEquatorial(h, obs, t)
	return astro.Precession{}.ToCatalog(apparent, t)
}

func parseAzAlt(s string) (model.HorizontalCoord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.HorizontalCoord{}, fmt.Errorf("sample %q: want az,alt", s)
	}
	az, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.HorizontalCoord{}, fmt.Errorf("sample %q: azimuth: %w", s, err)
	}
	alt, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.HorizontalCoord{}, fmt.Errorf("sample %q: altitude: %w", s, err)
	}
	if alt < -90 || alt > 90 {
		return model.HorizontalCoord{}, fmt.Errorf("sample %q: altitude outside [-90, 90]", s)
	}
	return model.HorizontalCoord{AzDeg: az, AltDeg: alt}, nil
}
