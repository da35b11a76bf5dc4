package align

import (
	"errors"
	"sync"
	"time"

	"github.com/signalsfoundry/polaralign/core"
	"github.com/signalsfoundry/polaralign/model"
)

// identityEpoch treats catalog and apparent coordinates as the same.
type identityEpoch struct{}

func (identityEpoch) ToApparent(c model.SkyCoord, _ time.Time) model.SkyCoord { return c }
func (identityEpoch) ToCatalog(c model.SkyCoord, _ time.Time) model.SkyCoord  { return c }

// flatSky maps RA onto azimuth and Dec onto altitude.
type flatSky struct{}

func (flatSky) ToHorizontal(c model.SkyCoord, _ model.Observer, _ time.Time) model.HorizontalCoord {
	return model.HorizontalCoord{AzDeg: c.RADeg, AltDeg: c.DecDeg}
}

func (flatSky) ToEquatorial(h model.HorizontalCoord, _ model.Observer, _ time.Time) model.SkyCoord {
	return model.SkyCoord{RADeg: h.AzDeg, DecDeg: h.AltDeg}
}

// linearImage is a plate with a constant degrees-per-pixel scale centred on
// a sky position.
type linearImage struct {
	center model.SkyCoord
	scale  float64
	w, h   int
	at     time.Time
	err    error
}

func imageAt(h model.HorizontalCoord, at time.Time) linearImage {
	return linearImage{
		center: model.SkyCoord{RADeg: h.AzDeg, DecDeg: h.AltDeg},
		scale:  0.001,
		w:      2000,
		h:      1500,
		at:     at,
	}
}

func (im linearImage) PixelToSky(p model.Pixel) (model.SkyCoord, error) {
	if im.err != nil {
		return model.SkyCoord{}, im.err
	}
	return model.SkyCoord{
		RADeg:  im.center.RADeg + (p.X-float64(im.w)/2)*im.scale,
		DecDeg: im.center.DecDeg - (p.Y-float64(im.h)/2)*im.scale,
	}, nil
}

func (im linearImage) SkyToPixel(c model.SkyCoord) (model.Pixel, error) {
	if im.err != nil {
		return model.Pixel{}, im.err
	}
	return model.Pixel{
		X: float64(im.w)/2 + core.NormalizeSigned(c.RADeg-im.center.RADeg)/im.scale,
		Y: float64(im.h)/2 - (c.DecDeg-im.center.DecDeg)/im.scale,
	}, nil
}

func (im linearImage) Size() (int, int)      { return im.w, im.h }
func (im linearImage) ObservedAt() time.Time { return im.at }

var errNoSolve = errors.New("plate not solved")

type recordingMetrics struct {
	mu       sync.Mutex
	samples  int
	fits     map[bool]int
	errors   []model.PolarError
	refresh  map[bool]int
	searches map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		fits:     map[bool]int{},
		refresh:  map[bool]int{},
		searches: map[string]int{},
	}
}

func (m *recordingMetrics) SetSampleCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = n
}

func (m *recordingMetrics) RecordAxisFit(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fits[ok]++
}

func (m *recordingMetrics) SetPolarError(e model.PolarError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, e)
}

func (m *recordingMetrics) RecordRefresh(ok bool, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[ok]++
}

func (m *recordingMetrics) ObserveSearch(kind string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches[kind]++
}
