// Package wcs implements the gnomonic (TAN) plate solution of an image and a
// frame type that satisfies align.Image.
package wcs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/polaralign/model"
)

var (
	// ErrNoSolution is returned by a frame without a valid plate solution.
	ErrNoSolution = errors.New("image has no plate solution")
	// ErrBehindTangentPlane is returned for sky positions 90° or more from
	// the image centre.
	ErrBehindTangentPlane = errors.New("position is behind the tangent plane")
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Solution is a TAN projection centred on the middle of a Width x Height
// image. RotationDeg turns the image's +Y axis east of north. The X axis
// is mirrored, as in a camera image with north up and east left.
type Solution struct {
	Center           model.SkyCoord
	ScaleArcsecPerPx float64
	RotationDeg      float64
	Width, Height    int
}

func (s Solution) valid() bool {
	return s.ScaleArcsecPerPx > 0 && s.Width > 0 && s.Height > 0
}

func (s Solution) refPixel() model.Pixel {
	return model.Pixel{X: float64(s.Width) / 2, Y: float64(s.Height) / 2}
}

// PixelToSky returns the catalog coordinate of a pixel.
func (s Solution) PixelToSky(p model.Pixel) (model.SkyCoord, error) {
	if !s.valid() {
		return model.SkyCoord{}, ErrNoSolution
	}
	ref := s.refPixel()
	scale := s.ScaleArcsecPerPx / 3600.0 * degToRad
	sr, cr := math.Sincos(s.RotationDeg * degToRad)
	dx, dy := (p.X-ref.X)*scale, (p.Y-ref.Y)*scale
	xi := -cr*dx + sr*dy
	eta := sr*dx + cr*dy

	sd0, cd0 := math.Sincos(s.Center.DecDeg * degToRad)
	rho := math.Hypot(xi, eta)
	if rho == 0 {
		return s.Center, nil
	}
	c := math.Atan(rho)
	sc, cc := math.Sincos(c)
	dec := math.Asin(cc*sd0 + eta*sc*cd0/rho)
	ra := s.Center.RADeg*degToRad + math.Atan2(xi*sc, rho*cd0*cc-eta*sd0*sc)
	return model.SkyCoord{RADeg: wrap360(ra * radToDeg), DecDeg: dec * radToDeg}, nil
}

// SkyToPixel returns the pixel of a catalog coordinate. Pixels outside the
// image bounds are returned without error.
func (s Solution) SkyToPixel(c model.SkyCoord) (model.Pixel, error) {
	if !s.valid() {
		return model.Pixel{}, ErrNoSolution
	}
	sd0, cd0 := math.Sincos(s.Center.DecDeg * degToRad)
	sd, cd := math.Sincos(c.DecDeg * degToRad)
	sda, cda := math.Sincos((c.RADeg - s.Center.RADeg) * degToRad)

	cosc := sd0*sd + cd0*cd*cda
	if cosc <= 0 {
		return model.Pixel{}, fmt.Errorf("%w: ra %.4f dec %.4f", ErrBehindTangentPlane, c.RADeg, c.DecDeg)
	}
	xi := cd * sda / cosc
	eta := (cd0*sd - sd0*cd*cda) / cosc

	scale := s.ScaleArcsecPerPx / 3600.0 * degToRad
	sr, cr := math.Sincos(s.RotationDeg * degToRad)
	ref := s.refPixel()
	return model.Pixel{
		X: ref.X + (-cr*xi+sr*eta)/scale,
		Y: ref.Y + (sr*xi+cr*eta)/scale,
	}, nil
}

// Frame is a plate-solved image taken at a known instant.
type Frame struct {
	Solution Solution
	Taken    time.Time
}

// NewFrame returns a frame of the given size centred on center.
func NewFrame(center model.SkyCoord, scaleArcsecPerPx, rotationDeg float64, width, height int, taken time.Time) Frame {
	return Frame{
		Solution: Solution{
			Center:           center,
			ScaleArcsecPerPx: scaleArcsecPerPx,
			RotationDeg:      rotationDeg,
			Width:            width,
			Height:           height,
		},
		Taken: taken,
	}
}

func (f Frame) PixelToSky(p model.Pixel) (model.SkyCoord, error) { return f.Solution.PixelToSky(p) }
func (f Frame) SkyToPixel(c model.SkyCoord) (model.Pixel, error) { return f.Solution.SkyToPixel(c) }
func (f Frame) Size() (int, int)                                 { return f.Solution.Width, f.Solution.Height }
func (f Frame) ObservedAt() time.Time                            { return f.Taken }

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
