// Package astro provides the default coordinate collaborators of an alignment
// session: precession between J2000 and the observation instant, and the
// equatorial to horizon transform.
package astro

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

const (
	j2000JD = 2451545.0

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// JulianDay returns the Julian day of t (UTC), including sub-second time.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	return jd + float64(t.Nanosecond())/86400e9
}

// GMST returns Greenwich mean sidereal time at t in degrees, [0, 360).
func GMST(t time.Time) float64 {
	return wrap360(satellite.ThetaG_JD(JulianDay(t)) * radToDeg)
}

// LocalSiderealTime returns the local sidereal time in degrees for an
// east-positive longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return wrap360(GMST(t) + lonDeg)
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
