package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// DefaultCRS is the reference system assumed when none is given.
const DefaultCRS = "EPSG:4326"

// CoordinateQuality describes where a coordinate came from and how much it
// can be trusted.
type CoordinateQuality struct {
	Precision  int        `json:"precision"`
	AccuracyM  float64    `json:"accuracy_m"`
	Source     string     `json:"source"`
	Method     string     `json:"method"`
	Confidence float64    `json:"confidence"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	CRS        string     `json:"crs"`
}

// NewQuality returns quality metadata with the default values and the given
// provenance tags. Empty tags fall back to "unknown".
func NewQuality(source, method string) *CoordinateQuality {
	if source == "" {
		source = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return &CoordinateQuality{
		Precision:  6,
		Source:     source,
		Method:     method,
		Confidence: 1.0,
		CRS:        DefaultCRS,
	}
}

// MeetsTolerance reports whether the estimated accuracy is within t metres.
func (q *CoordinateQuality) MeetsTolerance(t float64) bool {
	return q.AccuracyM <= t
}

// Validate checks the invariants of the quality record.
func (q *CoordinateQuality) Validate() []string {
	var issues []string
	if q.AccuracyM < 0 {
		issues = append(issues, "accuracy_m must be >= 0")
	}
	if q.Confidence < 0 || q.Confidence > 1 {
		issues = append(issues, "confidence must be within [0, 1]")
	}
	return issues
}

// GeoPoint is a single coordinate in a named reference system. X is the
// longitude or easting, Y the latitude or northing.
type GeoPoint struct {
	X       float64            `json:"x"`
	Y       float64            `json:"y"`
	Z       *float64           `json:"z,omitempty"`
	CRS     string             `json:"crs"`
	Quality *CoordinateQuality `json:"quality,omitempty"`
}

// NewGeoPoint returns a WGS84 point.
func NewGeoPoint(x, y float64) GeoPoint {
	return GeoPoint{X: x, Y: y, CRS: DefaultCRS}
}

// WithZ returns a copy of p carrying an elevation.
func (p GeoPoint) WithZ(z float64) GeoPoint {
	p.Z = &z
	return p
}

// Tuple returns (x, y) or (x, y, z) when an elevation is present.
func (p GeoPoint) Tuple() []float64 {
	if p.Z != nil {
		return []float64{p.X, p.Y, *p.Z}
	}
	return []float64{p.X, p.Y}
}

// Point drops the elevation and returns the planar position.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Transform returns a copy of p expressed in the target reference system.
func (p GeoPoint) Transform(r Reprojector, target string) (GeoPoint, error) {
	if p.CRS == target {
		return p, nil
	}
	fn, err := r.Transformer(p.crs(), target)
	if err != nil {
		return GeoPoint{}, err
	}
	x, y, z, err := fn(p.X, p.Y, p.Z)
	if err != nil {
		return GeoPoint{}, err
	}
	out := GeoPoint{X: x, Y: y, Z: z, CRS: target, Quality: p.Quality}
	return out, nil
}

// ToWGS84 is Transform with the target fixed to EPSG:4326.
func (p GeoPoint) ToWGS84(r Reprojector) (GeoPoint, error) {
	return p.Transform(r, DefaultCRS)
}

func (p GeoPoint) crs() string {
	if p.CRS == "" {
		return DefaultCRS
	}
	return p.CRS
}
