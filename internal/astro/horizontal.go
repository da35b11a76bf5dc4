package astro

import (
	"math"
	"time"

	"github.com/signalsfoundry/polaralign/model"
)

// Horizontal converts equatorial coordinates of date to azimuth/altitude
// for an observer, ignoring refraction.
type Horizontal struct{}

// ToHorizontal returns the azimuth (clockwise from north) and altitude of c.
func (Horizontal) ToHorizontal(c model.SkyCoord, obs model.Observer, t time.Time) model.HorizontalCoord {
	ha := (LocalSiderealTime(t, obs.LongitudeDeg) - c.RADeg) * degToRad
	az, alt := rotateFrame(ha, c.DecDeg*degToRad, obs.LatitudeDeg*degToRad)
	return model.HorizontalCoord{AzDeg: wrap360(-az * radToDeg), AltDeg: alt * radToDeg}
}

// ToEquatorial inverts ToHorizontal.
func (Horizontal) ToEquatorial(h model.HorizontalCoord, obs model.Observer, t time.Time) model.SkyCoord {
	ha, dec := rotateFrame(-h.AzDeg*degToRad, h.AltDeg*degToRad, obs.LatitudeDeg*degToRad)
	return model.SkyCoord{
		RADeg:  wrap360(LocalSiderealTime(t, obs.LongitudeDeg) - ha*radToDeg),
		DecDeg: dec * radToDeg,
	}
}

// rotateFrame maps (hour angle, dec) to (-azimuth, altitude) for latitude
// phi. The same rotation maps (-azimuth, altitude) to (hour angle, dec).
func rotateFrame(lon, lat, phi float64) (float64, float64) {
	sLon, cLon := math.Sincos(lon)
	sLat, cLat := math.Sincos(lat)
	sPhi, cPhi := math.Sincos(phi)

	sOut := sLat*sPhi + cLat*cPhi*cLon
	out := math.Asin(math.Max(-1, math.Min(1, sOut)))
	lonOut := math.Atan2(cLat*sLon, cPhi*sLat-sPhi*cLat*cLon)
	return lonOut, out
}
