// Package align implements the polar-alignment session: it collects three
// plate-solved samples taken between RA rotations, fits the mount's rotation
// axis and guides the user in correcting it.
//
// A Session is a value. Operations that change state return a new Session
// and leave the receiver untouched. A Session is not safe for concurrent use.
package align

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/internal/astro"
	"github.com/signalsfoundry/polaralign/internal/logging"
	"github.com/signalsfoundry/polaralign/model"
)

const tracerName = "github.com/signalsfoundry/polaralign/align"

const (
	// MaxSamples is the number of samples an axis is fitted from.
	MaxSamples = 3

	// SiderealRateArcsecPerSec is the apparent rotation of the sky about the
	// pole. Negative is westward in the horizon frame.
	SiderealRateArcsecPerSec = -15.041067

	// DefaultMaxPixelSearchRange is the initial half-range of the first
	// EstimateProgress pass, in degrees.
	DefaultMaxPixelSearchRange = 2.0
	minPixelSearchRange        = 2.0
	maxPixelSearchRange        = 10.0

	// maxRefreshResidualDeg rejects refresh images the knob model cannot
	// explain.
	maxRefreshResidualDeg = 0.5
	// maxProgressPixelDistance rejects EstimateProgress matches further than
	// this from the target.
	maxProgressPixelDistance = 10.0
)

// State is the position of a Session in its sampling lifecycle.
type State int

const (
	StateEmpty State = iota
	StateCollecting
	StateReady
	StateAxisKnown
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateCollecting:
		return "collecting"
	case StateReady:
		return "ready"
	case StateAxisKnown:
		return "axis_known"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// environment is shared, read-only, by every Session derived from New.
type environment struct {
	id         string
	observer   model.Observer
	hemisphere core.Hemisphere
	epoch      EpochConverter
	horizontal HorizontalTransform
	log        logging.Logger
	metrics    MetricsRecorder
	tracer     trace.Tracer
}

// Session is one polar-alignment attempt.
type Session struct {
	env      *environment
	samples  []model.Sample
	axis     *model.AxisEstimate
	maxRange float64
}

// New starts an empty session for an observer. Without options the session
// uses the astro package's precession and horizon transforms, the global
// tracer provider and a no-op logger.
func New(observer model.Observer, opts ...Option) Session {
	env := &environment{
		id:         logging.NewSessionID(),
		observer:   observer,
		hemisphere: core.HemisphereOf(observer.LatitudeDeg),
		epoch:      astro.Precession{},
		horizontal: astro.Horizontal{},
		log:        logging.Noop(),
		metrics:    noopMetrics{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(env)
	}
	env.log = env.log.With(
		logging.String(logging.SessionIDKey, env.id),
		logging.String("hemisphere", env.hemisphere.String()),
	)
	return Session{env: env, maxRange: DefaultMaxPixelSearchRange}
}

// ID identifies the session in logs and traces.
func (s Session) ID() string { return s.env.id }

// Observer returns the location the session aligns for.
func (s Session) Observer() model.Observer { return s.env.observer }

// State reports the lifecycle state.
func (s Session) State() State {
	switch {
	case s.axis != nil:
		return StateAxisKnown
	case len(s.samples) == 0:
		return StateEmpty
	case len(s.samples) == MaxSamples:
		return StateReady
	default:
		return StateCollecting
	}
}

// Samples returns a copy of the samples in insertion order.
func (s Session) Samples() []model.Sample {
	return slices.Clone(s.samples)
}

// Axis returns the fitted axis. ok is false until ComputeAxis succeeds.
func (s Session) Axis() (axis model.HorizontalCoord, ok bool) {
	if s.axis == nil {
		return model.HorizontalCoord{}, false
	}
	return s.axis.Axis, true
}

// MaxPixelSearchRange is the half-range of the first EstimateProgress pass.
func (s Session) MaxPixelSearchRange() float64 { return s.maxRange }

// WithMaxPixelSearchRange returns a session whose EstimateProgress starts
// from ±|deg|, clamped to [2, 10] degrees.
func (s Session) WithMaxPixelSearchRange(deg float64) Session {
	s.maxRange = math.Min(maxPixelSearchRange, math.Max(minPixelSearchRange, math.Abs(deg)))
	return s
}

// Reset drops samples and the fitted axis.
func (s Session) Reset() Session {
	s.samples = nil
	s.axis = nil
	s.env.metrics.SetSampleCount(0)
	return s
}

// AddSample resolves the centre of a plate-solved image to the observer's
// horizon at the image's timestamp and appends it.
func (s Session) AddSample(ctx context.Context, img Image) (Session, error) {
	ctx, span := s.startSpan(ctx, "align.AddSample")
	defer span.End()

	if len(s.samples) >= MaxSamples {
		return s, s.fail(ctx, span, "sample rejected", ErrTooManySamples)
	}

	w, h := img.Size()
	sample, err := s.resolve(img, model.Pixel{X: float64(w) / 2, Y: float64(h) / 2})
	if err != nil {
		return s, s.fail(ctx, span, "sample rejected", err)
	}

	s.samples = append(slices.Clone(s.samples), sample)
	s.env.metrics.SetSampleCount(len(s.samples))
	span.SetAttributes(attribute.Int("samples", len(s.samples)))
	s.env.log.Info(ctx, "sample added",
		logging.Int("index", len(s.samples)),
		logging.Float64("ra0_deg", sample.Catalog.RADeg),
		logging.Float64("dec0_deg", sample.Catalog.DecDeg),
		logging.Float64("ra_deg", sample.Apparent.RADeg),
		logging.Float64("dec_deg", sample.Apparent.DecDeg),
		logging.Float64("az_deg", sample.Horizontal.AzDeg),
		logging.Float64("alt_deg", sample.Horizontal.AltDeg),
	)
	return s, nil
}

// ComputeAxis fits the mount's rotation axis to the three samples.
func (s Session) ComputeAxis(ctx context.Context) (Session, error) {
	ctx, span := s.startSpan(ctx, "align.ComputeAxis")
	defer span.End()

	if len(s.samples) != MaxSamples {
		return s, s.fail(ctx, span, "axis not computed",
			fmt.Errorf("%w: have %d", ErrInsufficientSamples, len(s.samples)))
	}

	axis, err := core.FitAxis(
		core.FromHorizontal(s.samples[0].Horizontal),
		core.FromHorizontal(s.samples[1].Horizontal),
		core.FromHorizontal(s.samples[2].Horizontal),
		s.env.hemisphere,
	)
	if err != nil {
		s.env.metrics.RecordAxisFit(false)
		return s, s.fail(ctx, span, "axis not computed", fmt.Errorf("fit mount axis: %w", err))
	}

	hz := axis.Horizontal()
	s.axis = &model.AxisEstimate{
		Axis:  hz,
		Error: s.env.hemisphere.PolarError(hz, s.env.observer.LatitudeDeg),
	}
	s.env.metrics.RecordAxisFit(true)
	s.env.metrics.SetPolarError(s.axis.Error)
	span.SetAttributes(
		attribute.Float64("axis.az_deg", hz.AzDeg),
		attribute.Float64("axis.alt_deg", hz.AltDeg),
	)
	s.env.log.Info(ctx, "mount axis computed",
		logging.Float64("axis_az_deg", hz.AzDeg),
		logging.Float64("axis_alt_deg", hz.AltDeg),
		logging.Group("error_arcmin", logging.Arcmin("az", s.axis.Error.AzDeg), logging.Arcmin("alt", s.axis.Error.AltDeg)),
	)
	return s, nil
}

// CurrentError returns the polar error of the fitted axis.
func (s Session) CurrentError() (model.PolarError, error) {
	if s.axis == nil {
		return model.PolarError{}, ErrAxisUnknown
	}
	return s.axis.Error, nil
}

// GuidanceTarget returns where the star at px must be moved, by turning the
// altitude knob and then the azimuth knob, so that the mount's axis lands on
// the pole. With altOnly the azimuth correction is left out.
func (s Session) GuidanceTarget(ctx context.Context, img Image, px model.Pixel, altOnly bool) (model.Pixel, error) {
	ctx, span := s.startSpan(ctx, "align.GuidanceTarget", attribute.Bool("alt_only", altOnly))
	defer span.End()

	perr, err := s.CurrentError()
	if err != nil {
		return model.Pixel{}, s.fail(ctx, span, "no guidance target", err)
	}
	from, err := s.resolve(img, px)
	if err != nil {
		return model.Pixel{}, s.fail(ctx, span, "no guidance target", err)
	}
	target, err := s.correctedPixel(img, from.Horizontal, s.env.hemisphere.GuidanceRotation(perr, altOnly))
	if err != nil {
		return model.Pixel{}, s.fail(ctx, span, "no guidance target", err)
	}
	s.env.log.Debug(ctx, "guidance target",
		logging.Any("from", px),
		logging.Any("to", target),
	)
	return target, nil
}

// RefreshSolution returns the catalog coordinates the mount should point at
// after a full correction and after an altitude-only correction, derived by
// moving the third sample by the current error.
func (s Session) RefreshSolution() (full, altOnly model.SkyCoord, err error) {
	perr, err := s.CurrentError()
	if err != nil {
		return model.SkyCoord{}, model.SkyCoord{}, err
	}
	p3 := s.samples[MaxSamples-1]
	t := p3.ObservedAt

	fullPoint := core.RotateAzAlt(p3.Horizontal, s.env.hemisphere.GuidanceRotation(perr, false))
	altPoint := core.RotateAzAlt(p3.Horizontal, s.env.hemisphere.GuidanceRotation(perr, true))
	return s.toCatalog(fullPoint, t), s.toCatalog(altPoint, t), nil
}

// resolve maps a pixel to a sample for the image's timestamp.
func (s Session) resolve(img Image, px model.Pixel) (model.Sample, error) {
	catalog, err := img.PixelToSky(px)
	if err != nil {
		return model.Sample{}, fmt.Errorf("%w: pixel (%.1f, %.1f): %v", ErrCoordinatesUnavailable, px.X, px.Y, err)
	}
	t := img.ObservedAt()
	apparent := s.env.epoch.ToApparent(catalog, t)
	return model.Sample{
		Catalog:    catalog,
		Apparent:   apparent,
		Horizontal: s.env.horizontal.ToHorizontal(apparent, s.env.observer, t),
		ObservedAt: t,
	}, nil
}

// correctedPixel applies a knob adjustment to a horizon position and maps
// the result back onto img.
func (s Session) correctedPixel(img Image, from model.HorizontalCoord, adj model.KnobAdjustment) (model.Pixel, error) {
	rotated := core.RotateAzAlt(from, adj)
	catalog := s.toCatalog(rotated, img.ObservedAt())
	px, err := img.SkyToPixel(catalog)
	if err != nil {
		return model.Pixel{}, fmt.Errorf("%w: az %.4f alt %.4f: %v", ErrCoordinatesUnavailable, rotated.AzDeg, rotated.AltDeg, err)
	}
	return px, nil
}

func (s Session) toCatalog(h model.HorizontalCoord, t time.Time) model.SkyCoord {
	apparent := s.env.horizontal.ToEquatorial(h, s.env.observer, t)
	return s.env.epoch.ToCatalog(apparent, t)
}

func (s Session) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	attrs = append(attrs,
		attribute.String("session_id", s.env.id),
		attribute.String("state", s.State().String()),
	)
	return s.env.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s Session) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.env.log.Info(ctx, msg, logging.Err(err), logging.String("state", s.State().String()))
	return err
}
