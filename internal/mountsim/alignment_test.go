package mountsim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/polaralign/align"
	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/model"
)

func near(a, b model.PolarError, tol float64) bool {
	return math.Abs(a.AzDeg-b.AzDeg) <= tol && math.Abs(a.AltDeg-b.AltDeg) <= tol
}

// sampledSession takes three frames 90 s apart with -30 degree RA turns
// between them and fits the axis. It returns the time of the last frame.
func sampledSession(t *testing.T, obs model.Observer, m *Mount) (align.Session, time.Time) {
	t.Helper()
	ctx := context.Background()
	s := align.New(obs)
	now := epoch
	var err error
	for i := 0; i < align.MaxSamples; i++ {
		if i > 0 {
			m.RotateRA(now, -30)
			now = now.Add(90 * time.Second)
		}
		if s, err = s.AddSample(ctx, m.Frame(now)); err != nil {
			t.Fatalf("AddSample %d: %v", i, err)
		}
	}
	if s, err = s.ComputeAxis(ctx); err != nil {
		t.Fatalf("ComputeAxis: %v", err)
	}
	return s, now
}

// TestAlignmentRun drives a session against a simulated mount with the real
// sky transforms: three samples, a guided correction and a refresh.
func TestAlignmentRun(t *testing.T) {
	for _, obs := range []model.Observer{
		{Name: "north", LatitudeDeg: 42.36, LongitudeDeg: -71.06},
		{Name: "south", LatitudeDeg: -33.87, LongitudeDeg: 151.21},
	} {
		t.Run(obs.Name, func(t *testing.T) {
			ctx := context.Background()
			misalignment := model.PolarError{AzDeg: 0.5, AltDeg: -0.3}
			m := New(obs, misalignment, model.HorizontalCoord{AzDeg: 150, AltDeg: 55}, epoch)
			s, now := sampledSession(t, obs, m)

			perr, err := s.CurrentError()
			if err != nil {
				t.Fatalf("CurrentError: %v", err)
			}
			if !near(perr, misalignment, 0.001) {
				t.Fatalf("polar error %+v, want %+v", perr, misalignment)
			}

			frame := m.Frame(now)
			star := model.Pixel{X: 1800, Y: 700}
			target, err := s.GuidanceTarget(ctx, frame, star, false)
			if err != nil {
				t.Fatalf("GuidanceTarget: %v", err)
			}
			remaining, err := s.EstimateProgress(ctx, frame, star, target)
			if err != nil {
				t.Fatalf("EstimateProgress: %v", err)
			}
			if !near(remaining, misalignment, 0.01) {
				t.Fatalf("remaining error %+v, want %+v", remaining, misalignment)
			}

			// Before any correction the refresh sees the original error.
			at := now.Add(30 * time.Second)
			res, err := s.ProcessRefresh(ctx, frameCenter(t, m, at), at)
			if err != nil {
				t.Fatalf("ProcessRefresh before correction: %v", err)
			}
			if !near(res.Error, misalignment, 0.005) {
				t.Fatalf("refresh error %+v before correction, want %+v", res.Error, misalignment)
			}

			h := core.HemisphereOf(obs.LatitudeDeg)
			m.AdjustKnobs(now.Add(60*time.Second), h.GuidanceRotation(perr, false))
			at = now.Add(90 * time.Second)
			res, err = s.ProcessRefresh(ctx, frameCenter(t, m, at), at)
			if err != nil {
				t.Fatalf("ProcessRefresh after correction: %v", err)
			}
			if !near(res.Error, model.PolarError{}, 0.02) {
				t.Fatalf("refresh error %+v after correction", res.Error)
			}
			actual := h.PolarError(m.Axis(), obs.LatitudeDeg)
			if !near(res.Error, actual, 0.005) {
				t.Fatalf("refresh error %+v, mount error %+v", res.Error, actual)
			}
		})
	}
}

// The coarse progress pass can settle in the wrong part of a long, narrow
// valley of the pixel distance. Here the exact offset projects onto the
// target, yet the 0.2 degree grid leads the refinement away from it.
func TestAlignmentProgressMissesNarrowValley(t *testing.T) {
	obs := model.Observer{Name: "south", LatitudeDeg: -33.87, LongitudeDeg: 151.21}
	misalignment := model.PolarError{AzDeg: 0.5, AltDeg: -0.3}
	m := New(obs, misalignment, model.HorizontalCoord{AzDeg: 30, AltDeg: 55}, epoch)
	s, now := sampledSession(t, obs, m)

	perr, err := s.CurrentError()
	if err != nil {
		t.Fatalf("CurrentError: %v", err)
	}
	if !near(perr, misalignment, 0.001) {
		t.Fatalf("polar error %+v, want %+v", perr, misalignment)
	}

	ctx := context.Background()
	frame := m.Frame(now)
	star := model.Pixel{X: 1800, Y: 700}
	target, err := s.GuidanceTarget(ctx, frame, star, false)
	if err != nil {
		t.Fatalf("GuidanceTarget: %v", err)
	}
	if _, err := s.EstimateProgress(ctx, frame, star, target); !errors.Is(err, align.ErrNoProgressMatch) {
		t.Fatalf("EstimateProgress err = %v, want ErrNoProgressMatch", err)
	}
}
