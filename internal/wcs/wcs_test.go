package wcs

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/polaralign/model"
)

func testFrame() Frame {
	return NewFrame(model.SkyCoord{RADeg: 37.95, DecDeg: 85}, 1.5, 20, 4000, 3000,
		time.Date(2026, time.October, 18, 21, 0, 0, 0, time.UTC))
}

func TestCenterPixelIsCenter(t *testing.T) {
	f := testFrame()
	w, h := f.Size()
	got, err := f.PixelToSky(model.Pixel{X: float64(w) / 2, Y: float64(h) / 2})
	if err != nil {
		t.Fatalf("PixelToSky: %v", err)
	}
	if got != f.Solution.Center {
		t.Fatalf("centre pixel = %+v, want %+v", got, f.Solution.Center)
	}
}

func TestPixelSkyRoundTrip(t *testing.T) {
	f := testFrame()
	for _, p := range []model.Pixel{{X: 0, Y: 0}, {X: 3999, Y: 10}, {X: 1234.5, Y: 2900.25}, {X: -500, Y: 4000}} {
		sky, err := f.PixelToSky(p)
		if err != nil {
			t.Fatalf("PixelToSky(%+v): %v", p, err)
		}
		back, err := f.SkyToPixel(sky)
		if err != nil {
			t.Fatalf("SkyToPixel(%+v): %v", sky, err)
		}
		if math.Hypot(back.X-p.X, back.Y-p.Y) > 1e-6 {
			t.Fatalf("round trip of %+v = %+v", p, back)
		}
	}
}

func TestNorthUpEastLeft(t *testing.T) {
	f := NewFrame(model.SkyCoord{RADeg: 180, DecDeg: 0}, 3.6, 0, 1000, 1000, time.Time{})

	north, err := f.SkyToPixel(model.SkyCoord{RADeg: 180, DecDeg: 0.1})
	if err != nil {
		t.Fatalf("SkyToPixel: %v", err)
	}
	if math.Abs(north.X-500) > 1e-6 || math.Abs(north.Y-600) > 0.01 {
		t.Fatalf("0.1 deg north at %+v, want ~(500, 600)", north)
	}

	east, err := f.SkyToPixel(model.SkyCoord{RADeg: 180.1, DecDeg: 0})
	if err != nil {
		t.Fatalf("SkyToPixel: %v", err)
	}
	if east.X >= 500 {
		t.Fatalf("east of centre at x=%v, want left of 500", east.X)
	}
}

func TestBehindTangentPlane(t *testing.T) {
	f := testFrame()
	_, err := f.SkyToPixel(model.SkyCoord{RADeg: 217.95, DecDeg: -10})
	if !errors.Is(err, ErrBehindTangentPlane) {
		t.Fatalf("error = %v, want ErrBehindTangentPlane", err)
	}
}

func TestMissingSolution(t *testing.T) {
	var f Frame
	if _, err := f.PixelToSky(model.Pixel{}); !errors.Is(err, ErrNoSolution) {
		t.Fatalf("PixelToSky error = %v, want ErrNoSolution", err)
	}
	if _, err := f.SkyToPixel(model.SkyCoord{}); !errors.Is(err, ErrNoSolution) {
		t.Fatalf("SkyToPixel error = %v, want ErrNoSolution", err)
	}
}
