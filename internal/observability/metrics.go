package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/polaralign/model"
)

// AlignCollector bundles Prometheus metrics for alignment sessions. It
// satisfies align.MetricsRecorder.
type AlignCollector struct {
	gatherer prometheus.Gatherer

	Samples         prometheus.Gauge
	AzErrorArcmin   prometheus.Gauge
	AltErrorArcmin  prometheus.Gauge
	AxisFits        *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
	RefreshResidual prometheus.Histogram
	SearchDurations *prometheus.HistogramVec
}

// NewAlignCollector registers alignment metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewAlignCollector(reg prometheus.Registerer) (*AlignCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "polaralign_samples",
		Help: "Number of samples held by the current session.",
	}), "polaralign_samples")
	if err != nil {
		return nil, err
	}
	azErr, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "polaralign_az_error_arcmin",
		Help: "Latest azimuth polar error in arcminutes.",
	}), "polaralign_az_error_arcmin")
	if err != nil {
		return nil, err
	}
	altErr, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "polaralign_alt_error_arcmin",
		Help: "Latest altitude polar error in arcminutes.",
	}), "polaralign_alt_error_arcmin")
	if err != nil {
		return nil, err
	}

	fits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polaralign_axis_fits_total",
		Help: "Axis fits attempted, labeled by result.",
	}, []string{"result"})
	fits, err = registerCounterVec(reg, fits, "polaralign_axis_fits_total")
	if err != nil {
		return nil, err
	}

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "polaralign_refreshes_total",
		Help: "Refresh images processed, labeled by result.",
	}, []string{"result"})
	refreshes, err = registerCounterVec(reg, refreshes, "polaralign_refreshes_total")
	if err != nil {
		return nil, err
	}

	residual, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "polaralign_refresh_residual_arcsec",
		Help:    "Angular residual of the best knob adjustment found for a refresh image.",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 300, 1800, 3600},
	}), "polaralign_refresh_residual_arcsec")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polaralign_search_duration_seconds",
		Help:    "Duration of grid searches, labeled by kind.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"kind"})
	durations, err = registerHistogramVec(reg, durations, "polaralign_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &AlignCollector{
		gatherer:        gatherer,
		Samples:         samples,
		AzErrorArcmin:   azErr,
		AltErrorArcmin:  altErr,
		AxisFits:        fits,
		Refreshes:       refreshes,
		RefreshResidual: residual,
		SearchDurations: durations,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *AlignCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *AlignCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetSampleCount updates the sample gauge.
func (c *AlignCollector) SetSampleCount(n int) {
	if c == nil || c.Samples == nil {
		return
	}
	c.Samples.Set(float64(n))
}

// RecordAxisFit counts an axis fit attempt.
func (c *AlignCollector) RecordAxisFit(ok bool) {
	if c == nil || c.AxisFits == nil {
		return
	}
	c.AxisFits.WithLabelValues(result(ok)).Inc()
}

// SetPolarError updates the error gauges.
func (c *AlignCollector) SetPolarError(e model.PolarError) {
	if c == nil {
		return
	}
	if c.AzErrorArcmin != nil {
		c.AzErrorArcmin.Set(e.AzDeg * 60)
	}
	if c.AltErrorArcmin != nil {
		c.AltErrorArcmin.Set(e.AltDeg * 60)
	}
}

// RecordRefresh counts a refresh and, when one was found, the residual of
// its best adjustment.
func (c *AlignCollector) RecordRefresh(ok bool, residualDeg float64) {
	if c == nil {
		return
	}
	if c.Refreshes != nil {
		c.Refreshes.WithLabelValues(result(ok)).Inc()
	}
	if c.RefreshResidual != nil && residualDeg > 0 {
		c.RefreshResidual.Observe(residualDeg * 3600)
	}
}

// ObserveSearch records the duration of one grid search.
func (c *AlignCollector) ObserveSearch(kind string, d time.Duration) {
	if c == nil || c.SearchDurations == nil {
		return
	}
	c.SearchDurations.WithLabelValues(kind).Observe(d.Seconds())
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
