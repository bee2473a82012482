package crs

import (
	"math"
	"testing"

	"github.com/wroge/wgs84"
)

func TestObliqueProjections(t *testing.T) {
	tests := []struct {
		name          string
		p             wgs84.Projection
		lon0, lat0    float64
		eastf, northf float64
	}{
		{
			name: "oblique mercator",
			p:    newObliqueMercator(wgs84.Bessel{}, 46.9524055555556, 7.43958333333333, 2600000, 1200000),
			lon0: 7.43958333333333, lat0: 46.9524055555556, eastf: 2600000, northf: 1200000,
		},
		{
			name: "oblique stereographic",
			p:    newObliqueStereographic(wgs84.Bessel{}, 52.1561605555556, 5.38763888888889, 0.9999079, 155000, 463000),
			lon0: 5.38763888888889, lat0: 52.1561605555556, eastf: 155000, northf: 463000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, n := tt.p.FromLonLat(tt.lon0, tt.lat0, wgs84.Bessel{})
			if math.Abs(e-tt.eastf) > 1e-6 || math.Abs(n-tt.northf) > 1e-6 {
				t.Errorf("origin maps to (%v, %v)", e, n)
			}
			for dlon := -2.0; dlon <= 2; dlon++ {
				for dlat := -1.5; dlat <= 1.5; dlat += 0.5 {
					lon, lat := tt.lon0+dlon, tt.lat0+dlat
					e, n := tt.p.FromLonLat(lon, lat, wgs84.Bessel{})
					gotLon, gotLat := tt.p.ToLonLat(e, n, wgs84.Bessel{})
					if math.Abs(gotLon-lon) > 1e-9 || math.Abs(gotLat-lat) > 1e-9 {
						t.Errorf("(%v, %v) -> (%v, %v) -> (%v, %v)", lon, lat, e, n, gotLon, gotLat)
					}
				}
			}
			if e, _ := tt.p.FromLonLat(tt.lon0+1, tt.lat0, wgs84.Bessel{}); e <= tt.eastf {
				t.Errorf("easting should grow eastwards, got %v", e)
			}
			if _, n := tt.p.FromLonLat(tt.lon0, tt.lat0+1, wgs84.Bessel{}); n <= tt.northf {
				t.Errorf("northing should grow northwards, got %v", n)
			}
		})
	}
}
