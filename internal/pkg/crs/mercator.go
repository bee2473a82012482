package crs

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// webMercatorExtent is half the circumference of the EPSG:3857 sphere.
const webMercatorExtent = 20037508.34

// LonLatToWebMercator is the closed-form EPSG:4326 -> EPSG:3857 conversion.
func LonLatToWebMercator(lon, lat float64) (x, y float64) {
	x = lon * webMercatorExtent / 180
	y = math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * webMercatorExtent / 180
	return x, y
}

// WebMercatorToLonLat is the inverse of LonLatToWebMercator.
func WebMercatorToLonLat(x, y float64) (lon, lat float64) {
	lon = x / webMercatorExtent * 180
	lat = y / webMercatorExtent * 180
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180)) - math.Pi/2)
	return lon, lat
}

// ProjectToWebMercator converts a WGS84 geometry to web mercator without
// going through the transformer cache.
func ProjectToWebMercator(g orb.Geometry) orb.Geometry {
	return project.Geometry(orb.Clone(g), project.WGS84.ToMercator)
}

// ProjectFromWebMercator is the inverse of ProjectToWebMercator.
func ProjectFromWebMercator(g orb.Geometry) orb.Geometry {
	return project.Geometry(orb.Clone(g), project.Mercator.ToWGS84)
}
