package core

import "errors"

// ErrDegenerateGeometry is returned when three samples do not determine a
// rotation axis.
var ErrDegenerateGeometry = errors.New("samples do not determine a rotation axis")

// minSampleSeparationDeg bounds how close two samples may come to each other
// or to each other's antipode.
const minSampleSeparationDeg = 1.0 / 3600.0

// FitAxis returns the axis about which p1, p2 and p3 rotate: the normal of
// the plane through the three points, oriented toward h's pole.
func FitAxis(p1, p2, p3 Vec3, h Hemisphere) (Vec3, error) {
	pts := [3]Vec3{p1, p2, p3}
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			sep := AngleBetween(pts[i], pts[j])
			// Antipodal pairs only arise from a half turn between frames and
			// leave the circle fixed by the remaining point alone.
			if sep < minSampleSeparationDeg || sep > 180-minSampleSeparationDeg {
				return Vec3{}, ErrDegenerateGeometry
			}
		}
	}

	axis := p2.Sub(p1).Cross(p3.Sub(p1)).Normalize()
	if axis.Norm() < 0.9 {
		return Vec3{}, ErrDegenerateGeometry
	}
	return h.OrientAxis(axis), nil
}
