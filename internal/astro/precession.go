package astro

import (
	"math"
	"time"

	"github.com/signalsfoundry/polaralign/model"
)

// Precession converts between J2000 catalog coordinates and mean
// coordinates of date using the IAU 1976 precession angles. Nutation and
// aberration are below the resolution the alignment searches work at and
// are left out.
type Precession struct{}

// ToApparent precesses a J2000 coordinate to t.
func (Precession) ToApparent(c model.SkyCoord, t time.Time) model.SkyCoord {
	return fromVector(precessionMatrix(t).apply(toVector(c)))
}

// ToCatalog precesses a coordinate of date t back to J2000.
func (Precession) ToCatalog(c model.SkyCoord, t time.Time) model.SkyCoord {
	return fromVector(precessionMatrix(t).transpose().apply(toVector(c)))
}

type mat3 [3][3]float64

func (m mat3) apply(v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

func (m mat3) transpose() mat3 {
	var out mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// precessionMatrix rotates J2000 equatorial vectors to the mean equator and
// equinox of t.
func precessionMatrix(t time.Time) mat3 {
	T := (JulianDay(t) - j2000JD) / 36525.0
	arcsec := degToRad / 3600.0
	zeta := (2306.2181*T + 0.30188*T*T + 0.017998*T*T*T) * arcsec
	z := (2306.2181*T + 1.09468*T*T + 0.018203*T*T*T) * arcsec
	theta := (2004.3109*T - 0.42665*T*T - 0.041833*T*T*T) * arcsec

	sz, cz := math.Sincos(z)
	sZeta, cZeta := math.Sincos(zeta)
	sTh, cTh := math.Sincos(theta)
	return mat3{
		{cZeta*cTh*cz - sZeta*sz, -sZeta*cTh*cz - cZeta*sz, -sTh * cz},
		{cZeta*cTh*sz + sZeta*cz, -sZeta*cTh*sz + cZeta*cz, -sTh * sz},
		{cZeta * sTh, -sZeta * sTh, cTh},
	}
}

func toVector(c model.SkyCoord) [3]float64 {
	sa, ca := math.Sincos(c.RADeg * degToRad)
	sd, cd := math.Sincos(c.DecDeg * degToRad)
	return [3]float64{cd * ca, cd * sa, sd}
}

func fromVector(v [3]float64) model.SkyCoord {
	r := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if r == 0 {
		return model.SkyCoord{}
	}
	return model.SkyCoord{
		RADeg:  wrap360(math.Atan2(v[1], v[0]) * radToDeg),
		DecDeg: math.Asin(math.Max(-1, math.Min(1, v[2]/r))) * radToDeg,
	}
}
