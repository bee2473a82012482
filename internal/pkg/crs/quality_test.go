package crs_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/pkg/crs"
)

func TestEstimatePrecision(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{40.7128, 4},
		{-74.006, 3},
		{12, 0},
		{0.5, 1},
		{51.123456789, 9},
	}
	for _, tt := range tests {
		if got := crs.EstimatePrecision(tt.in); got != tt.want {
			t.Errorf("EstimatePrecision(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPrecisionToAccuracy(t *testing.T) {
	if got := crs.PrecisionToAccuracy(6, true); math.Abs(got-0.11132) > 1e-9 {
		t.Errorf("got %v", got)
	}
	if got := crs.PrecisionToAccuracy(2, false); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("got %v", got)
	}
}

func TestWebMercator(t *testing.T) {
	x, y := crs.LonLatToWebMercator(180, 0)
	if math.Abs(x-20037508.34) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("unexpected extent (%v, %v)", x, y)
	}

	x, y = crs.LonLatToWebMercator(-74.006, 40.7128)
	lon, lat := crs.WebMercatorToLonLat(x, y)
	if math.Abs(lon+74.006) > 1e-9 || math.Abs(lat-40.7128) > 1e-9 {
		t.Errorf("round trip drifted: (%v, %v)", lon, lat)
	}

	p := crs.ProjectToWebMercator(orb.Point{-74.006, 40.7128}).(orb.Point)
	if math.Abs(p[0]-x) > 1 || math.Abs(p[1]-y) > 1 {
		t.Errorf("projection %v disagrees with closed form (%v, %v)", p, x, y)
	}
	back := crs.ProjectFromWebMercator(p).(orb.Point)
	if math.Abs(back[1]-40.7128) > 1e-6 {
		t.Errorf("unexpected inverse %v", back)
	}
}
