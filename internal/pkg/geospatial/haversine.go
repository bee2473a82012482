package geospatial

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two
// lon/lat points on a sphere of mean Earth radius.
func Haversine(p1, p2 orb.Point) float64 {
	lon1, lat1 := p1[0], p1[1]
	lon2, lat2 := p2[0], p2[1]
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Around returns a WGS84 box around a point with the given radius in meters.
func Around(center orb.Point, radiusMeters float64) domain.BoundingBox {
	latDelta := MetersToDegrees(radiusMeters, 0)
	lonDelta := MetersToDegrees(radiusMeters, center[1])

	return domain.BoundingBox{
		MinX: center[0] - lonDelta,
		MinY: center[1] - latDelta,
		MaxX: center[0] + lonDelta,
		MaxY: center[1] + latDelta,
		CRS:  domain.DefaultCRS,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
