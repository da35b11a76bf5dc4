// Package mountsim simulates an equatorial mount with a misaligned RA axis
// and produces plate-solved frames of where it points.
package mountsim

import (
	"time"

	"github.com/signalsfoundry/polaralign/align"
	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/internal/astro"
	"github.com/signalsfoundry/polaralign/internal/wcs"
	"github.com/signalsfoundry/polaralign/model"
)

// Camera describes the frames a Mount produces.
type Camera struct {
	Width, Height    int
	ScaleArcsecPerPx float64
	RotationDeg      float64
}

// DefaultCamera is a small-refractor field of roughly 1.7 x 1.1 degrees.
var DefaultCamera = Camera{Width: 3000, Height: 2000, ScaleArcsecPerPx: 2.0}

// Mount is a tracking equatorial mount. Its pointing at any instant is the
// reference pointing carried about the RA axis at the sidereal rate.
type Mount struct {
	Observer model.Observer
	Camera   Camera

	hemisphere core.Hemisphere
	axis       core.Vec3
	ref        core.Vec3
	refTime    time.Time

	epoch      align.EpochConverter
	horizontal align.HorizontalTransform
}

// New returns a mount whose RA axis is the observer's pole displaced by
// misalignment, pointing at start in the horizon frame at time t.
func New(obs model.Observer, misalignment model.PolarError, start model.HorizontalCoord, t time.Time) *Mount {
	h := core.HemisphereOf(obs.LatitudeDeg)
	pole := model.HorizontalCoord{AzDeg: 0, AltDeg: obs.LatitudeDeg}
	if h == core.Southern {
		pole = model.HorizontalCoord{AzDeg: 180, AltDeg: -obs.LatitudeDeg}
	}
	axis := model.HorizontalCoord{
		AzDeg:  pole.AzDeg + misalignment.AzDeg,
		AltDeg: pole.AltDeg + misalignment.AltDeg,
	}
	return &Mount{
		Observer:   obs,
		Camera:     DefaultCamera,
		hemisphere: h,
		axis:       core.FromHorizontal(axis),
		ref:        core.FromHorizontal(start),
		refTime:    t,
		epoch:      astro.Precession{},
		horizontal: astro.Horizontal{},
	}
}

// Axis returns the mount's current RA axis.
func (m *Mount) Axis() model.HorizontalCoord { return m.axis.Horizontal() }

// PointingAt returns where the telescope points at t.
func (m *Mount) PointingAt(t time.Time) core.Vec3 {
	deg := m.hemisphere.TrackingDeg(align.SiderealRateArcsecPerSec, t.Sub(m.refTime).Seconds())
	return core.RotateAroundAxis(m.ref, m.axis, deg)
}

// RotateRA turns the telescope about the RA axis by deg at time t.
func (m *Mount) RotateRA(t time.Time, deg float64) {
	m.ref = core.RotateAroundAxis(m.PointingAt(t), m.axis, deg)
	m.refTime = t
}

// AdjustKnobs turns the altitude and then the azimuth knob at time t. Both
// the axis and the telescope move with the mount head.
func (m *Mount) AdjustKnobs(t time.Time, adj model.KnobAdjustment) {
	m.ref = core.ApplyKnobs(m.PointingAt(t), adj)
	m.axis = core.ApplyKnobs(m.axis, adj)
	m.refTime = t
}

// Frame returns a plate-solved frame centred where the mount points at t.
func (m *Mount) Frame(t time.Time) wcs.Frame {
	h := m.PointingAt(t).Horizontal()
	apparent := m.horizontal.ToEquatorial(h, m.Observer, t)
	catalog := m.epoch.ToCatalog(apparent, t)
	return wcs.NewFrame(catalog, m.Camera.ScaleArcsecPerPx, m.Camera.RotationDeg, m.Camera.Width, m.Camera.Height, t)
}
