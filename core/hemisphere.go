package core

import "github.com/signalsfoundry/polaralign/model"

// Hemisphere selects which celestial pole an observer aligns to. All the
// hemisphere-dependent sign flips of the alignment math live here.
type Hemisphere int

const (
	Northern Hemisphere = iota
	Southern
)

// HemisphereOf returns Northern for positive latitudes and Southern
// otherwise.
func HemisphereOf(latDeg float64) Hemisphere {
	if latDeg > 0 {
		return Northern
	}
	return Southern
}

func (h Hemisphere) String() string {
	if h == Northern {
		return "northern"
	}
	return "southern"
}

// OrientAxis picks the one of v and -v that points toward this hemisphere's
// pole, judged by the component along the north horizon (X).
func (h Hemisphere) OrientAxis(v Vec3) Vec3 {
	if (h == Northern && v.X < 0) || (h == Southern && v.X > 0) {
		return v.Neg()
	}
	return v
}

// PolarError returns the azimuth and altitude error of a rotation axis
// relative to the pole for an observer at latDeg. Azimuth error is in
// (-180, 180].
func (h Hemisphere) PolarError(axis model.HorizontalCoord, latDeg float64) model.PolarError {
	if h == Northern {
		return model.PolarError{
			AzDeg:  NormalizeSigned(axis.AzDeg),
			AltDeg: axis.AltDeg - latDeg,
		}
	}
	return model.PolarError{
		AzDeg:  NormalizeSigned(axis.AzDeg + 180),
		AltDeg: axis.AltDeg + latDeg,
	}
}

// GuidanceRotation is the knob adjustment that removes err when applied to a
// point on the sky. The altitude component flips sign in the south.
func (h Hemisphere) GuidanceRotation(err model.PolarError, altOnly bool) model.KnobAdjustment {
	adj := model.KnobAdjustment{AzDeg: err.AzDeg, AltDeg: err.AltDeg}
	if altOnly {
		adj.AzDeg = 0
	}
	if h == Southern {
		adj.AltDeg = -adj.AltDeg
	}
	return adj
}

// TrackingDeg is the rotation about an axis oriented by OrientAxis that the
// sky makes in secs at rateArcsecPerSec. The sky turns the opposite way
// about the southern pole.
func (h Hemisphere) TrackingDeg(rateArcsecPerSec, secs float64) float64 {
	deg := rateArcsecPerSec * secs / 3600.0
	if h == Southern {
		return -deg
	}
	return deg
}
