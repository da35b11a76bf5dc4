package core

import (
	"math"

	"github.com/signalsfoundry/polaralign/model"
)

// Vec3 is a point in the horizon frame: +X toward the north horizon, +Y toward
// the west horizon and +Z toward the zenith. Directions are unit vectors.
type Vec3 struct {
	X, Y, Z float64
}

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// FromAzAlt converts an azimuth/altitude pair in degrees to a unit vector.
func FromAzAlt(azDeg, altDeg float64) Vec3 {
	az := azDeg * degToRad
	alt := altDeg * degToRad
	cosAlt := math.Cos(alt)
	return Vec3{
		X: math.Cos(az) * cosAlt,
		Y: -math.Sin(az) * cosAlt,
		Z: math.Sin(alt),
	}
}

// FromHorizontal is FromAzAlt for a model coordinate.
func FromHorizontal(h model.HorizontalCoord) Vec3 {
	return FromAzAlt(h.AzDeg, h.AltDeg)
}

// AzAlt returns the azimuth in [0, 360) and altitude of v in degrees. v need
// not be normalized.
func (v Vec3) AzAlt() (azDeg, altDeg float64) {
	n := v.Norm()
	if n == 0 {
		return 0, 0
	}
	z := v.Z / n
	if z > 1 {
		z = 1
	} else if z < -1 {
		z = -1
	}
	altDeg = math.Asin(z) * radToDeg
	if v.X == 0 && v.Y == 0 {
		return 0, altDeg
	}
	return NormalizeAzimuth(math.Atan2(-v.Y, v.X) * radToDeg), altDeg
}

// Horizontal is AzAlt as a model coordinate.
func (v Vec3) Horizontal() model.HorizontalCoord {
	az, alt := v.AzAlt()
	return model.HorizontalCoord{AzDeg: az, AltDeg: alt}
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged, so callers detect a failed normalization by checking Norm.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n < 1e-15 {
		return v
	}
	return v.Scale(1 / n)
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg returns the antipode of v.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// RotateY rotates v about the Y axis. A positive angle lowers a point on the
// north horizon.
func RotateY(v Vec3, deg float64) Vec3 {
	s, c := math.Sincos(deg * degToRad)
	return Vec3{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// RotateZ rotates v about the zenith. A positive angle decreases azimuth.
func RotateZ(v Vec3, deg float64) Vec3 {
	s, c := math.Sincos(deg * degToRad)
	return Vec3{
		X: v.X*c - v.Y*s,
		Y: v.X*s + v.Y*c,
		Z: v.Z,
	}
}

// RotateAroundAxis rotates p about the unit vector axis by deg degrees
// (right-handed, Rodrigues' formula).
func RotateAroundAxis(p, axis Vec3, deg float64) Vec3 {
	s, c := math.Sincos(deg * degToRad)
	k := axis.Normalize()
	return p.Scale(c).
		Add(k.Cross(p).Scale(s)).
		Add(k.Scale(k.Dot(p) * (1 - c)))
}

// AngleBetween returns the great-circle separation of a and b in degrees.
func AngleBetween(a, b Vec3) float64 {
	return math.Atan2(a.Cross(b).Norm(), a.Dot(b)) * radToDeg
}

// ApplyKnobs applies a knob adjustment to v: altitude (Y) first, then
// azimuth (Z). The order matters.
func ApplyKnobs(v Vec3, adj model.KnobAdjustment) Vec3 {
	return RotateZ(RotateY(v, adj.AltDeg), adj.AzDeg)
}

// RotateAzAlt applies a knob adjustment to a horizontal coordinate.
func RotateAzAlt(h model.HorizontalCoord, adj model.KnobAdjustment) model.HorizontalCoord {
	return ApplyKnobs(FromHorizontal(h), adj).Horizontal()
}

// NormalizeAzimuth maps an angle into [0, 360).
func NormalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// NormalizeSigned maps an angle into (-180, 180].
func NormalizeSigned(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
