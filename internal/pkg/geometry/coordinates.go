package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// countryBounds holds rough extents as min lon, min lat, max lon, max lat.
var countryBounds = map[string][4]float64{
	"US": {-125, 24, -66, 50},
	"GB": {-8, 49.9, 2, 61},
	"DE": {5.87, 47.27, 15.04, 55.06},
	"FR": {-5.14, 41.36, 9.56, 51.09},
	"AU": {113, -44, 154, -10},
	"CA": {-141, 41.7, -52.6, 83.1},
	"BR": {-73.99, -33.75, -34.79, 5.27},
	"IN": {68.18, 6.75, 97.4, 35.5},
	"CN": {73.5, 18.15, 134.77, 53.56},
	"JP": {129.5, 31, 145.8, 45.5},
}

func ValidateLatLon(lat, lon float64) domain.ValidationResult {
	var issues []string
	if lat < -90 || lat > 90 {
		issues = append(issues, fmt.Sprintf("Latitude %s out of range [-90.0, 90.0]", formatNumber(lat)))
	}
	if lon < -180 || lon > 180 {
		issues = append(issues, fmt.Sprintf("Longitude %s out of range [-180.0, 180.0]", formatNumber(lon)))
	}
	return domain.NewValidationResult(issues)
}

// ValidateUTM checks a zone number and easting/northing pair against the
// ranges a UTM grid reference can plausibly take.
func ValidateUTM(zone int, easting, northing float64) domain.ValidationResult {
	var issues []string
	if zone < 1 || zone > 60 {
		issues = append(issues, fmt.Sprintf("UTM zone %d out of range [1, 60]", zone))
	}
	if easting < 100000 || easting > 900000 {
		issues = append(issues, fmt.Sprintf("Easting %s out of typical range [100000, 900000]", formatNumber(easting)))
	}
	if northing < 0 || northing > 10000000 {
		issues = append(issues, fmt.Sprintf("Northing %s out of range [0, 10000000]", formatNumber(northing)))
	}
	return domain.NewValidationResult(issues)
}

// ValidatePrecision reports whether coord carries at least minDecimals
// decimal places.
func ValidatePrecision(coord float64, minDecimals int) bool {
	s := strconv.FormatFloat(coord, 'g', 15, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 || strings.ContainsAny(s, "eE") {
		return minDecimals <= 0
	}
	return len(s)-i-1 >= minDecimals
}

// CheckOnLand is a coarse test that rules out Antarctica's surrounding
// ocean and the open central Atlantic and western Pacific.
func CheckOnLand(lat, lon float64) bool {
	switch {
	case lat < -60:
		return false
	case lat > -30 && lat < 30 && lon > -40 && lon < -10:
		return false
	case lat > -20 && lat < 20 && lon > 160 && lon <= 180:
		return false
	}
	return true
}

// CheckInCountry tests the point against a bounding box for an ISO 3166
// alpha-2 code. Unknown codes pass.
func CheckInCountry(lat, lon float64, country string) bool {
	b, ok := countryBounds[strings.ToUpper(country)]
	if !ok {
		return true
	}
	return lon >= b[0] && lon <= b[2] && lat >= b[1] && lat <= b[3]
}

// formatNumber always shows a decimal part for whole values, e.g. 95.0.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
