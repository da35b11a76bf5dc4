package align

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/internal/logging"
	"github.com/signalsfoundry/polaralign/model"
)

// progressPass is one grid of EstimateProgress, centred on the previous
// pass's best offsets.
type progressPass struct {
	span float64 // half-range in degrees; zero means the session's max range
	step float64
}

var progressPasses = [...]progressPass{
	{span: 0, step: 0.2},
	{span: 0.2, step: 0.02},
	{span: 0.02, step: 0.002},
}

// EstimateProgress returns the polar error whose correction carries the
// star at px onto target. With px the star's current position and target
// from GuidanceTarget, this is the error still to be removed. The search is
// a three-pass grid over knob offsets, coarse to fine.
func (s Session) EstimateProgress(ctx context.Context, img Image, px, target model.Pixel) (model.PolarError, error) {
	ctx, span := s.startSpan(ctx, "align.EstimateProgress")
	defer span.End()

	if s.axis == nil {
		return model.PolarError{}, s.fail(ctx, span, "progress not estimated", ErrAxisUnknown)
	}
	from, err := s.resolve(img, px)
	if err != nil {
		return model.PolarError{}, s.fail(ctx, span, "progress not estimated", err)
	}

	start := time.Now()
	var (
		best    model.PolarError
		bestPix model.Pixel
		found   bool
	)
	for _, pass := range progressPasses {
		half := pass.span
		if half == 0 {
			half = s.maxRange
		}
		if off, pix, ok := s.progressGrid(img, from.Horizontal, target, best, half, pass.step); ok {
			best, bestPix, found = off, pix, true
		}
	}
	s.env.metrics.ObserveSearch("progress", time.Since(start))

	dist := math.Hypot(bestPix.X-target.X, bestPix.Y-target.Y)
	span.SetAttributes(attribute.Float64("pixel_distance", dist))
	if !found || dist > maxProgressPixelDistance {
		return model.PolarError{}, s.fail(ctx, span, "progress not estimated",
			fmt.Errorf("%w: best match %.1f px away", ErrNoProgressMatch, dist))
	}

	s.env.log.Debug(ctx, "progress estimated",
		logging.Group("error_arcmin", logging.Arcmin("az", best.AzDeg), logging.Arcmin("alt", best.AltDeg)),
		logging.Float64("pixel_distance", dist),
	)
	return best, nil
}

// progressGrid evaluates offsets on [c-half, c+half) in both axes. Offsets
// whose pixel cannot be projected are skipped. ok is false when none could.
func (s Session) progressGrid(img Image, from model.HorizontalCoord, target model.Pixel, center model.PolarError, half, step float64) (best model.PolarError, bestPix model.Pixel, ok bool) {
	n := int(math.Round(2 * half / step))
	minDistSq := math.Inf(1)
	best = center
	for i := 0; i < n; i++ {
		azOff := center.AzDeg - half + float64(i)*step
		for j := 0; j < n; j++ {
			altOff := center.AltDeg - half + float64(j)*step
			offset := model.PolarError{AzDeg: azOff, AltDeg: altOff}
			pix, err := s.correctedPixel(img, from, s.env.hemisphere.GuidanceRotation(offset, false))
			if err != nil {
				continue
			}
			dx, dy := pix.X-target.X, pix.Y-target.Y
			if d := dx*dx + dy*dy; d < minDistSq {
				minDistSq = d
				best, bestPix, ok = offset, pix, true
			}
		}
	}
	return best, bestPix, ok
}

// RefreshResult is the outcome of ProcessRefresh.
type RefreshResult struct {
	// Adjustment is the knob movement the user has made since the third
	// sample.
	Adjustment  model.KnobAdjustment
	ResidualDeg float64
	// Axis is the mount's current rotation axis.
	Axis  model.HorizontalCoord
	Error model.PolarError
}

// ProcessRefresh infers the mount's current polar error from a freshly
// plate-solved image centre. The third sample is carried forward by sidereal
// tracking about the fitted axis; the knob adjustment that takes it to coord
// is applied to the fitted axis. The session itself is not changed, so every
// refresh is measured against the original samples.
func (s Session) ProcessRefresh(ctx context.Context, coord model.SkyCoord, t time.Time) (RefreshResult, error) {
	ctx, span := s.startSpan(ctx, "align.ProcessRefresh")
	defer span.End()

	if s.axis == nil {
		s.env.metrics.RecordRefresh(false, 0)
		return RefreshResult{}, s.fail(ctx, span, "refresh failed", ErrAxisUnknown)
	}

	apparent := s.env.epoch.ToApparent(coord, t)
	now := s.env.horizontal.ToHorizontal(apparent, s.env.observer, t)

	p3 := s.samples[MaxSamples-1]
	trackDeg := s.env.hemisphere.TrackingDeg(SiderealRateArcsecPerSec, t.Sub(p3.ObservedAt).Seconds())
	origAxis := core.FromHorizontal(s.axis.Axis)
	predicted := core.RotateAroundAxis(core.FromHorizontal(p3.Horizontal), origAxis, trackDeg)

	start := time.Now()
	fit := core.BestRotation(predicted, core.FromHorizontal(now))
	s.env.metrics.ObserveSearch("refresh", time.Since(start))
	span.SetAttributes(attribute.Float64("residual_arcsec", fit.ResidualDeg*3600))

	if fit.ResidualDeg > maxRefreshResidualDeg {
		s.env.metrics.RecordRefresh(false, fit.ResidualDeg)
		return RefreshResult{}, s.fail(ctx, span, "refresh failed",
			fmt.Errorf("%w: residual %.1f arcmin", ErrRefreshNoSolution, fit.ResidualDeg*60))
	}

	newAxis := core.ApplyKnobs(origAxis, fit.Adjustment).Horizontal()
	res := RefreshResult{
		Adjustment:  fit.Adjustment,
		ResidualDeg: fit.ResidualDeg,
		Axis:        newAxis,
		Error:       s.env.hemisphere.PolarError(newAxis, s.env.observer.LatitudeDeg),
	}
	s.env.metrics.RecordRefresh(true, fit.ResidualDeg)
	s.env.metrics.SetPolarError(res.Error)
	s.env.log.Info(ctx, "refresh processed",
		logging.Float64("ra0_deg", coord.RADeg),
		logging.Float64("dec0_deg", coord.DecDeg),
		logging.Float64("az_deg", now.AzDeg),
		logging.Float64("alt_deg", now.AltDeg),
		logging.Group("adjust_arcmin", logging.Arcmin("az", fit.Adjustment.AzDeg), logging.Arcmin("alt", fit.Adjustment.AltDeg)),
		logging.Arcsec("residual_arcsec", fit.ResidualDeg),
		logging.Group("error_arcmin", logging.Arcmin("az", res.Error.AzDeg), logging.Arcmin("alt", res.Error.AltDeg)),
	)
	return res, nil
}
