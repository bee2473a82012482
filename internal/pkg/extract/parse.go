package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// ParseDMS converts a degrees-minutes-seconds string such as 40°42'46"N to
// decimal degrees. Degrees and decimal minutes (40°42.766'N) are accepted as
// a fallback. S and W give negative values.
func ParseDMS(s string) (float64, error) {
	if m := dmsPattern.FindStringSubmatch(s); m != nil {
		d, _ := strconv.ParseFloat(group(dmsPattern, m, "d"), 64)
		mins, _ := strconv.ParseFloat(group(dmsPattern, m, "m"), 64)
		sec, _ := strconv.ParseFloat(group(dmsPattern, m, "s"), 64)
		return signed(d+mins/60+sec/3600, group(dmsPattern, m, "h")), nil
	}
	if m := ddmPattern.FindStringSubmatch(s); m != nil {
		d, _ := strconv.ParseFloat(group(ddmPattern, m, "d"), 64)
		mins, _ := strconv.ParseFloat(group(ddmPattern, m, "m"), 64)
		return signed(d+mins/60, group(ddmPattern, m, "h")), nil
	}
	return 0, &domain.ParseFormatError{Kind: "DMS", Input: s}
}

func signed(v float64, hemi string) float64 {
	switch strings.ToUpper(hemi) {
	case "S", "W":
		return -v
	}
	return v
}

// ParseUTM converts a reference such as "18T 583960 4507523" to WGS84
// latitude and longitude. Band letters N and above are northern; zones
// outside 1..60 are a format error.
func (e *Extractor) ParseUTM(s string) (lat, lon float64, err error) {
	m := utmPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, &domain.ParseFormatError{Kind: "UTM", Input: s}
	}
	zone, _ := strconv.Atoi(group(utmPattern, m, "zone"))
	if zone < 1 || zone > 60 {
		return 0, 0, &domain.ParseFormatError{Kind: "UTM", Input: s}
	}
	letter := strings.ToUpper(group(utmPattern, m, "letter"))
	easting, _ := strconv.ParseFloat(group(utmPattern, m, "easting"), 64)
	northing, _ := strconv.ParseFloat(group(utmPattern, m, "northing"), 64)

	code := fmt.Sprintf("EPSG:327%02d", zone)
	if letter >= "N" {
		code = fmt.Sprintf("EPSG:326%02d", zone)
	}
	out, err := e.projector.Transform([]orb.Point{{easting, northing}}, code, domain.DefaultCRS)
	if err != nil {
		return 0, 0, err
	}
	return out[0][1], out[0][0], nil
}

// ParseMGRS converts an MGRS grid reference to latitude and longitude using
// the configured decoder.
func (e *Extractor) ParseMGRS(s string) (lat, lon float64, err error) {
	if e.mgrs == nil {
		return 0, 0, &domain.DependencyUnavailableError{Dependency: "mgrs"}
	}
	ref := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if !mgrsPattern.MatchString(ref) {
		return 0, 0, &domain.ParseFormatError{Kind: "MGRS", Input: s}
	}
	lat, lon, err = e.mgrs(ref)
	if err != nil {
		e.logger.Debug("mgrs decode failed", "input", s, "error", err)
		return 0, 0, &domain.ParseFormatError{Kind: "MGRS", Input: s}
	}
	return lat, lon, nil
}

// FindGeohashes returns geohash-shaped tokens. Ordinary words made of the
// geohash alphabet match too; callers decide what to trust.
func FindGeohashes(text string) []string {
	return geohashPattern.FindAllString(text, -1)
}

// FindMGRS returns MGRS-shaped tokens without decoding them.
func FindMGRS(text string) []string {
	return mgrsPattern.FindAllString(text, -1)
}
