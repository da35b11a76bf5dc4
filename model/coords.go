package model

// SkyCoord is an equatorial coordinate in degrees. Whether it is a catalog
// (J2000) or apparent coordinate depends on where it came from.
type SkyCoord struct {
	RADeg  float64 `json:"ra_deg" yaml:"ra_deg"`
	DecDeg float64 `json:"dec_deg" yaml:"dec_deg"`
}

// HorizontalCoord is a horizon-referenced direction in degrees. Azimuth is
// measured clockwise from north, altitude up from the horizon.
type HorizontalCoord struct {
	AzDeg  float64 `json:"az_deg" yaml:"az_deg"`
	AltDeg float64 `json:"alt_deg" yaml:"alt_deg"`
}

// Pixel is a position on an image.
type Pixel struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Observer is the geographic location of the telescope. A positive latitude
// is the northern hemisphere.
type Observer struct {
	Name         string  `json:"name,omitempty" yaml:"name,omitempty"`
	LatitudeDeg  float64 `json:"latitude_deg" yaml:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg" yaml:"longitude_deg"`
}
