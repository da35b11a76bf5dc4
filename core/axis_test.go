package core

import (
	"errors"
	"math"
	"testing"
)

// samplesAround returns a star rotated about axis by three RA offsets.
func samplesAround(axis, star Vec3, offsets ...float64) []Vec3 {
	out := make([]Vec3, 0, len(offsets))
	for _, deg := range offsets {
		out = append(out, RotateAroundAxis(star, axis, deg))
	}
	return out
}

func TestFitAxisRecoversRotationAxis(t *testing.T) {
	cases := []struct {
		name string
		axis Vec3
		star Vec3
		h    Hemisphere
	}{
		{"north pole", FromAzAlt(0, 40), FromAzAlt(30, 60), Northern},
		{"misaligned north", FromAzAlt(1.5, 38.7), FromAzAlt(120, 35), Northern},
		{"south pole", FromAzAlt(180, 35), FromAzAlt(200, 50), Southern},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := samplesAround(tc.axis, tc.star, 0, -15, -30)
			got, err := FitAxis(p[0], p[1], p[2], tc.h)
			if err != nil {
				t.Fatalf("FitAxis error: %v", err)
			}
			if d := AngleBetween(got, tc.axis); d > 1e-6 {
				t.Fatalf("fitted axis off by %v deg", d)
			}
		})
	}
}

func TestFitAxisRotationInvariant(t *testing.T) {
	axis := FromAzAlt(0, 40)
	p := samplesAround(axis, FromAzAlt(60, 45), 0, 20, 40)

	rigid := func(v Vec3) Vec3 { return RotateZ(RotateY(v, 5), 10) }
	got, err := FitAxis(rigid(p[0]), rigid(p[1]), rigid(p[2]), Northern)
	if err != nil {
		t.Fatalf("FitAxis error: %v", err)
	}
	if d := AngleBetween(got, rigid(axis)); d > 1e-6 {
		t.Fatalf("fitted axis off by %v deg after rigid rotation", d)
	}
}

func TestFitAxisSampleOrderOnlyAffectsSign(t *testing.T) {
	axis := FromAzAlt(359, 41)
	p := samplesAround(axis, FromAzAlt(80, 30), 0, 25, 50)
	a, err := FitAxis(p[0], p[1], p[2], Northern)
	if err != nil {
		t.Fatalf("FitAxis error: %v", err)
	}
	b, err := FitAxis(p[2], p[1], p[0], Northern)
	if err != nil {
		t.Fatalf("FitAxis error: %v", err)
	}
	if d := AngleBetween(a, b); d > 1e-9 {
		t.Fatalf("reversed samples gave a different axis (%v deg)", d)
	}
}

func TestFitAxisDegenerate(t *testing.T) {
	cases := []struct {
		name       string
		p1, p2, p3 Vec3
	}{
		{"antipodal", Vec3{X: 1}, Vec3{X: -1}, Vec3{Y: 1}},
		{"coincident", FromAzAlt(10, 20), FromAzAlt(10, 20), FromAzAlt(30, 20)},
		{"all equal", FromAzAlt(10, 20), FromAzAlt(10, 20), FromAzAlt(10, 20)},
		{"zero vectors", Vec3{}, Vec3{}, Vec3{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FitAxis(tc.p1, tc.p2, tc.p3, Northern)
			if !errors.Is(err, ErrDegenerateGeometry) {
				t.Fatalf("FitAxis error = %v, want ErrDegenerateGeometry", err)
			}
		})
	}
}

// Closely spaced samples give a short raw normal; only the normalised
// length is checked, so the fit still succeeds. Points climbing 1 degree
// per 5 degrees of azimuth lie on a circle about a steep axis, not the pole.
func TestFitAxisAcceptsCloselySpacedSamples(t *testing.T) {
	p1, p2, p3 := FromAzAlt(90, 45), FromAzAlt(95, 46), FromAzAlt(100, 47)
	if raw := p2.Sub(p1).Cross(p3.Sub(p1)).Norm(); raw > 1e-3 {
		t.Fatalf("raw normal length = %v, want a short normal", raw)
	}
	got, err := FitAxis(p1, p2, p3, Northern)
	if err != nil {
		t.Fatalf("FitAxis error: %v", err)
	}
	h := got.Horizontal()
	if math.Abs(h.AzDeg-15.82) > 0.01 || math.Abs(h.AltDeg-78.90) > 0.01 {
		t.Fatalf("axis = %+v, want az 15.82 alt 78.90", h)
	}
}
