package model

import "time"

// Sample is one plate-solved sky position resolved for the observer at the
// moment the image was taken.
type Sample struct {
	Catalog    SkyCoord        `json:"catalog" yaml:"catalog"`
	Apparent   SkyCoord        `json:"apparent" yaml:"apparent"`
	Horizontal HorizontalCoord `json:"horizontal" yaml:"horizontal"`
	ObservedAt time.Time       `json:"observed_at" yaml:"observed_at"`
}

// PolarError is the offset of a mount's rotation axis from the celestial
// pole. AzDeg lies in (-180, 180].
type PolarError struct {
	AzDeg  float64 `json:"az_deg" yaml:"az_deg"`
	AltDeg float64 `json:"alt_deg" yaml:"alt_deg"`
}

// AxisEstimate is the fitted RA axis of the mount and its polar error.
type AxisEstimate struct {
	Axis  HorizontalCoord `json:"axis" yaml:"axis"`
	Error PolarError      `json:"error" yaml:"error"`
}

// KnobAdjustment is a turn of the mount's altitude knob followed by a turn of
// its azimuth knob, in degrees. The two rotations do not commute and are
// always applied altitude first.
type KnobAdjustment struct {
	AzDeg  float64 `json:"az_deg" yaml:"az_deg"`
	AltDeg float64 `json:"alt_deg" yaml:"alt_deg"`
}
