package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/polaralign/align"
	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/internal/logging"
	"github.com/signalsfoundry/polaralign/internal/mountsim"
	"github.com/signalsfoundry/polaralign/internal/observability"
	"github.com/signalsfoundry/polaralign/model"
	"github.com/signalsfoundry/polaralign/timectrl"
)

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an alignment against a simulated misaligned mount",
		Long: `Simulate a full alignment: a mount with a known polar error takes three
frames between RA rotations, the session fits its axis, and a simulated user
then turns the knobs a little on every clock tick while refresh frames
report the remaining error.`,
		Example: `  # Half a degree off in azimuth, watched in accelerated time
  polaralign simulate --simulation-az-error 0.5 --simulation-alt-error -0.2

  # Southern site, with Prometheus metrics on :9100
  polaralign simulate --observer-latitude -33.87 --observer-longitude 151.21 \
    --simulation-start-az 30 --metrics-addr :9100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.ContextWithLogger(cmd.Context(), a.log)
			tracing, err := observability.InitTracing(ctx, a.cfg.TracingSettings())
			if err != nil {
				return err
			}
			defer tracing.Shutdown(context.Background())

			rep, err := runSimulate(ctx, a)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), a.output, rep)
		},
	}

	fs := cmd.Flags()
	floatFlag(fs, "alignment.max_pixel_search_range", "Half-range in degrees of the first progress search pass")
	stringFlag(fs, "metrics.addr", "Serve Prometheus metrics on this address while running")
	floatFlag(fs, "simulation.az_error", "Simulated azimuth error in degrees")
	floatFlag(fs, "simulation.alt_error", "Simulated altitude error in degrees")
	floatFlag(fs, "simulation.start_az", "Azimuth of the first frame in degrees")
	floatFlag(fs, "simulation.start_alt", "Altitude of the first frame in degrees")
	floatFlag(fs, "simulation.rotation", "RA rotation between frames in degrees")
	durationFlag(fs, "simulation.sample_gap", "Time between sample frames")
	durationFlag(fs, "simulation.tick", "Time between refresh frames")
	intFlag(fs, "simulation.steps", "Number of refresh frames the correction is spread over")
	stringFlag(fs, "simulation.start", "Start time, RFC 3339 (default now)")
	boolFlag(fs, "simulation.accelerated", "Advance the clock as fast as possible instead of in real time")
	floatFlag(fs, "simulation.scale_arcsec", "Plate scale in arcseconds per pixel")
	intFlag(fs, "simulation.frame_width", "Frame width in pixels")
	intFlag(fs, "simulation.frame_height", "Frame height in pixels")
	return cmd
}

func runSimulate(ctx context.Context, a *app) (simulateReport, error) {
	sc := a.cfg.Simulation
	obs := a.cfg.ObserverModel()
	misalignment := model.PolarError{AzDeg: sc.AzErrorDeg, AltDeg: sc.AltErrorDeg}

	mode := timectrl.RealTime
	if sc.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(a.cfg.SimulationStart(), sc.Tick, mode)

	mount := mountsim.New(obs, misalignment, model.HorizontalCoord{AzDeg: sc.StartAzDeg, AltDeg: sc.StartAltDeg}, tc.Now())
	mount.Camera = mountsim.Camera{Width: sc.FrameWidth, Height: sc.FrameHeight, ScaleArcsecPerPx: sc.ScaleArcsec}

	collector, err := observability.NewAlignCollector(prometheus.NewRegistry())
	if err != nil {
		return simulateReport{}, err
	}
	stop := serveMetrics(ctx, a.cfg.Metrics.Addr, collector, a.log)
	defer stop()

	s := align.New(obs, align.WithLogger(a.log), align.WithMetricsRecorder(collector)).
		WithMaxPixelSearchRange(a.cfg.Alignment.MaxPixelSearchRange)
	ctx = logging.ContextWithSessionID(ctx, s.ID())

	for i := 0; i < align.MaxSamples; i++ {
		if i > 0 {
			mount.RotateRA(tc.Now(), sc.RotationDeg)
			tc.SetTime(tc.Now().Add(sc.SampleGap))
		}
		if s, err = s.AddSample(ctx, mount.Frame(tc.Now())); err != nil {
			return simulateReport{}, err
		}
	}
	if s, err = s.ComputeAxis(ctx); err != nil {
		return simulateReport{}, err
	}
	fit, err := newFitReport(s)
	if err != nil {
		return simulateReport{}, err
	}
	rep := simulateReport{fitReport: fit, Misalignment: misalignment}

	frame := mount.Frame(tc.Now())
	w, h := frame.Size()
	star := model.Pixel{X: 0.6 * float64(w), Y: 0.4 * float64(h)}
	target, err := s.GuidanceTarget(ctx, frame, star, false)
	if err != nil {
		return simulateReport{}, err
	}
	if rep.RemainingGuess, err = s.EstimateProgress(ctx, frame, star, target); err != nil {
		return simulateReport{}, err
	}
	a.log.Info(ctx, "guidance target",
		logging.Any("star", star),
		logging.Any("target", target),
	)

	hemisphere := core.HemisphereOf(obs.LatitudeDeg)
	full := hemisphere.GuidanceRotation(fit.Error, false)
	step := model.KnobAdjustment{AzDeg: full.AzDeg / float64(sc.Steps), AltDeg: full.AltDeg / float64(sc.Steps)}
	var turned model.KnobAdjustment

	tc.AddListener(func(now time.Time) {
		mount.AdjustKnobs(now, step)
		turned.AzDeg += step.AzDeg
		turned.AltDeg += step.AltDeg
		row := stepReport{Time: now, KnobsTurned: turned}

		centre, err := frameCentre(mount, now)
		if err == nil {
			var res align.RefreshResult
			if res, err = s.ProcessRefresh(ctx, centre, now); err == nil {
				row.Measured = res.Error
				row.ResidualArcsec = res.ResidualDeg * 3600
			}
		}
		if err != nil {
			row.Failure = err.Error()
		}
		rep.Steps = append(rep.Steps, row)
	})
	<-tc.Start(ctx, time.Duration(sc.Steps)*sc.Tick)

	rep.MountError = hemisphere.PolarError(mount.Axis(), obs.LatitudeDeg)
	return rep, nil
}

func frameCentre(m *mountsim.Mount, t time.Time) (model.SkyCoord, error) {
	f := m.Frame(t)
	w, h := f.Size()
	return f.PixelToSky(model.Pixel{X: float64(w) / 2, Y: float64(h) / 2})
}

// serveMetrics exposes collector on addr until the returned function is
// called. An empty addr serves nothing.
func serveMetrics(ctx context.Context, addr string, collector *observability.AlignCollector, log logging.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving metrics", logging.String("addr", fmt.Sprintf("http://%s/metrics", addr)))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "metrics server shutdown failed", logging.Err(err))
		}
	}
}
