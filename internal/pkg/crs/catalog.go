package crs

import (
	"fmt"

	"github.com/wroge/wgs84"
)

// AreaOfUse is the region a reference system is defined for, in degrees.
type AreaOfUse struct {
	Name  string  `json:"name"`
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// catalogEntry is the built-in description of an EPSG code.
type catalogEntry struct {
	name       string
	geographic bool
	datum      string
	ellipsoid  string
	unit       string
	area       *AreaOfUse
	proj4      string

	// system backs projections the PROJ.4 engine has no method for.
	system func(*AreaOfUse) wgs84.CoordinateReferenceSystem
}

// catalog covers the alias table and everything generated for UTM. Codes
// outside it are still usable when a registered definition or the EPSG
// repository knows them.
var catalog = map[int]catalogEntry{
	4326: {
		name:  "WGS 84", geographic: true,
		datum: "World Geodetic System 1984", ellipsoid: "WGS 84", unit: "degree",
		area:  &AreaOfUse{Name: "World", West: -180, South: -90, East: 180, North: 90},
		proj4: "+proj=longlat +datum=WGS84 +no_defs",
	},
	4269: {
		name:  "NAD83", geographic: true,
		datum: "North American Datum 1983", ellipsoid: "GRS 1980", unit: "degree",
		area:  &AreaOfUse{Name: "North America - NAD83", West: -172.54, South: 14.92, East: -47.74, North: 86.46},
		proj4: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	},
	4267: {
		name:  "NAD27", geographic: true,
		datum: "North American Datum 1927", ellipsoid: "Clarke 1866", unit: "degree",
		area:  &AreaOfUse{Name: "North America - NAD27", West: -172.54, South: 7.15, East: -47.74, North: 83.17},
		proj4: "+proj=longlat +ellps=clrk66 +towgs84=-8,160,176,0,0,0,0 +no_defs",
	},
	4258: {
		name:  "ETRS89", geographic: true,
		datum: "European Terrestrial Reference System 1989", ellipsoid: "GRS 1980", unit: "degree",
		area:  &AreaOfUse{Name: "Europe - ETRF89", West: -16.1, South: 32.88, East: 40.18, North: 84.73},
		proj4: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	},
	27700: {
		name:  "OSGB36 / British National Grid",
		datum: "Ordnance Survey of Great Britain 1936", ellipsoid: "Airy 1830", unit: "metre",
		area:  &AreaOfUse{Name: "UK - Britain and UKCS", West: -9.01, South: 49.75, East: 2.01, North: 61.01},
		proj4: "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 +ellps=airy " +
			"+towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs",
	},
	29903: {
		name:  "TM75 / Irish Grid",
		datum: "Geodetic Datum of 1965", ellipsoid: "Airy Modified 1849", unit: "metre",
		area:  &AreaOfUse{Name: "Europe - Ireland", West: -10.56, South: 51.39, East: -5.34, North: 55.43},
		proj4: "+proj=tmerc +lat_0=53.5 +lon_0=-8 +k=1.000035 +x_0=200000 +y_0=250000 +ellps=mod_airy " +
			"+towgs84=482.5,-130.6,564.6,-1.042,-0.214,-0.631,8.15 +units=m +no_defs",
	},
	2056: {
		name:  "CH1903+ / LV95",
		datum: "CH1903+", ellipsoid: "Bessel 1841", unit: "metre",
		area:  &AreaOfUse{Name: "Europe - Liechtenstein and Switzerland", West: 5.96, South: 45.82, East: 10.49, North: 47.81},
		proj4: "+proj=somerc +lat_0=46.9524055555556 +lon_0=7.43958333333333 +k_0=1 +x_0=2600000 +y_0=1200000 " +
			"+ellps=bessel +towgs84=674.374,15.056,405.346,0,0,0,0 +units=m +no_defs",
		system: swissLV95,
	},
	28992: {
		name:  "Amersfoort / RD New",
		datum: "Amersfoort", ellipsoid: "Bessel 1841", unit: "metre",
		area:  &AreaOfUse{Name: "Netherlands - onshore", West: 3.2, South: 50.75, East: 7.22, North: 53.7},
		proj4: "+proj=sterea +lat_0=52.1561605555556 +lon_0=5.38763888888889 +k=0.9999079 +x_0=155000 +y_0=463000 " +
			"+ellps=bessel +towgs84=565.417,50.3319,465.552,-0.398957,0.343988,-1.8774,4.0725 +units=m +no_defs",
		system: dutchRD,
	},
	7844: {
		name:  "GDA2020", geographic: true,
		datum: "Geocentric Datum of Australia 2020", ellipsoid: "GRS 1980", unit: "degree",
		area:  &AreaOfUse{Name: "Australia including Lord Howe Island, Macquarie Island, Ashmore and Cartier Islands, Christmas Island, Cocos (Keeling) Islands, Norfolk Island", West: 93.41, South: -60.55, East: 173.35, North: -8.47},
		proj4: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	},
	4283: {
		name:  "GDA94", geographic: true,
		datum: "Geocentric Datum of Australia 1994", ellipsoid: "GRS 1980", unit: "degree",
		area:  &AreaOfUse{Name: "Australia - GDA", West: 93.41, South: -60.56, East: 173.35, North: -8.47},
		proj4: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	},
	2193: {
		name:  "NZGD2000 / New Zealand Transverse Mercator 2000",
		datum: "New Zealand Geodetic Datum 2000", ellipsoid: "GRS 1980", unit: "metre",
		area:  &AreaOfUse{Name: "New Zealand - onshore", West: 166.37, South: -47.33, East: 178.63, North: -34.1},
		proj4: "+proj=tmerc +lat_0=0 +lon_0=173 +k=0.9996 +x_0=1600000 +y_0=10000000 +ellps=GRS80 " +
			"+towgs84=0,0,0,0,0,0,0 +units=m +no_defs",
	},
	6668: {
		name:  "JGD2011", geographic: true,
		datum: "Japanese Geodetic Datum 2011", ellipsoid: "GRS 1980", unit: "degree",
		area:  &AreaOfUse{Name: "Japan", West: 122.38, South: 17.09, East: 157.65, North: 46.05},
		proj4: "+proj=longlat +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +no_defs",
	},
	3857: {
		name:  "WGS 84 / Pseudo-Mercator",
		datum: "World Geodetic System 1984", ellipsoid: "WGS 84", unit: "metre",
		area:  &AreaOfUse{Name: "World between 85.06°S and 85.06°N", West: -180, South: -85.06, East: 180, North: 85.06},
		proj4: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs",
	},
}

// lookupCatalog returns the built-in entry for code, generating UTM zones on
// the fly.
func lookupCatalog(code int) (catalogEntry, bool) {
	if e, ok := catalog[code]; ok {
		return e, true
	}
	zone, south, ok := utmFromCode(code)
	if !ok {
		return catalogEntry{}, false
	}
	hemi, flag := "N", ""
	area := &AreaOfUse{West: float64(zone-1)*6 - 180, East: float64(zone)*6 - 180, South: 0, North: 84}
	if south {
		hemi, flag = "S", " +south"
		area.South, area.North = -80, 0
	}
	area.Name = fmt.Sprintf("UTM zone %d%s", zone, hemi)
	return catalogEntry{
		name:      fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, hemi),
		datum:     "World Geodetic System 1984",
		ellipsoid: "WGS 84",
		unit:      "metre",
		area:      area,
		proj4:     fmt.Sprintf("+proj=utm +zone=%d%s +datum=WGS84 +units=m +no_defs", zone, flag),
	}, true
}

// utmFromCode decodes 326zz / 327zz.
func utmFromCode(code int) (zone int, south bool, ok bool) {
	switch {
	case code > 32600 && code <= 32660:
		return code - 32600, false, true
	case code > 32700 && code <= 32760:
		return code - 32700, true, true
	}
	return 0, false, false
}
