package align

import (
	"time"

	"github.com/signalsfoundry/polaralign/model"
)

// Projection maps between pixels of one plate-solved image and catalog-epoch
// sky coordinates.
type Projection interface {
	PixelToSky(p model.Pixel) (model.SkyCoord, error)
	SkyToPixel(c model.SkyCoord) (model.Pixel, error)
}

// Image is a plate-solved frame.
type Image interface {
	Projection
	Size() (width, height int)
	ObservedAt() time.Time
}

// EpochConverter converts between catalog-epoch and apparent coordinates at
// an instant.
type EpochConverter interface {
	ToApparent(c model.SkyCoord, t time.Time) model.SkyCoord
	ToCatalog(c model.SkyCoord, t time.Time) model.SkyCoord
}

// HorizontalTransform converts apparent equatorial coordinates to the
// observer's horizon frame and back. Implementations derive local sidereal
// time from t and the observer's longitude.
type HorizontalTransform interface {
	ToHorizontal(c model.SkyCoord, obs model.Observer, t time.Time) model.HorizontalCoord
	ToEquatorial(h model.HorizontalCoord, obs model.Observer, t time.Time) model.SkyCoord
}

// MetricsRecorder receives alignment progress. All methods must be cheap.
type MetricsRecorder interface {
	SetSampleCount(n int)
	RecordAxisFit(ok bool)
	SetPolarError(e model.PolarError)
	RecordRefresh(ok bool, residualDeg float64)
	ObserveSearch(kind string, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) SetSampleCount(int)                  {}
func (noopMetrics) RecordAxisFit(bool)                  {}
func (noopMetrics) SetPolarError(model.PolarError)      {}
func (noopMetrics) RecordRefresh(bool, float64)         {}
func (noopMetrics) ObserveSearch(string, time.Duration) {}
