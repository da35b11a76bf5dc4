package core

import (
	"math"

	"github.com/signalsfoundry/polaralign/model"
)

// Grid parameters of the two-pass knob search, in degrees.
const (
	pass1Resolution = 1.0 / 60.0
	pass2Resolution = 5.0 / 3600.0
	pass2Range      = 4.0 / 60.0
	minPass1Range   = 1.0
	maxPass1Range   = 10.0
)

// RotationFit is the result of BestRotation.
type RotationFit struct {
	Adjustment  model.KnobAdjustment
	ResidualDeg float64
}

// BestRotation finds the knob adjustment that brings from closest to goal.
//
// The loss surface is non-convex in the (alt, az) pair, so searching the best
// azimuth and then the best altitude lands in poor local optima. Instead a
// coarse 1' grid spanning a radius derived from the great-circle separation
// is refined by a 5" grid around its best point.
func BestRotation(from, goal Vec3) RotationFit {
	pass1Range := math.Max(minPass1Range, math.Min(maxPass1Range, 2.5*AngleBetween(from, goal)))
	coarse := gridSearch(from, goal, model.KnobAdjustment{}, pass1Range, pass1Resolution)
	return gridSearch(from, goal, coarse.Adjustment, pass2Range, pass2Resolution)
}

// Residual is the separation between goal and from after adj is applied.
func Residual(from, goal Vec3, adj model.KnobAdjustment) float64 {
	return AngleBetween(ApplyKnobs(from, adj), goal)
}

func gridSearch(from, goal Vec3, center model.KnobAdjustment, span, step float64) RotationFit {
	n := int(math.Round(math.Abs(span) / step))

	// Z rotations are reused for every altitude row.
	sinZ := make([]float64, 2*n+1)
	cosZ := make([]float64, 2*n+1)
	for j := -n; j <= n; j++ {
		sinZ[j+n], cosZ[j+n] = math.Sincos((center.AzDeg + float64(j)*step) * degToRad)
	}

	best := RotationFit{ResidualDeg: math.Inf(1)}
	for i := -n; i <= n; i++ {
		alt := center.AltDeg + float64(i)*step
		p := RotateY(from, alt)
		for j := -n; j <= n; j++ {
			s, c := sinZ[j+n], cosZ[j+n]
			q := Vec3{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c, Z: p.Z}
			if d := AngleBetween(q, goal); d < best.ResidualDeg {
				best = RotationFit{
					Adjustment:  model.KnobAdjustment{AzDeg: center.AzDeg + float64(j)*step, AltDeg: alt},
					ResidualDeg: d,
				}
			}
		}
	}
	return best
}
