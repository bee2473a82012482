package extract

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/akhenakh/mgrs"
	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// Projector transforms coordinates between reference systems. *crs.Manager
// implements it.
type Projector interface {
	Transform(coords []orb.Point, from, to string) ([]orb.Point, error)
}

// MGRSDecoder turns an MGRS grid reference into latitude and longitude.
type MGRSDecoder func(s string) (lat, lon float64, err error)

// Extractor finds coordinates in free text, HTML and structured formats.
type Extractor struct {
	projector  Projector
	defaultCRS string
	mgrs       MGRSDecoder
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDefaultCRS labels free-text points with code instead of EPSG:4326.
func WithDefaultCRS(code string) Option {
	return func(e *Extractor) {
		if code != "" {
			e.defaultCRS = code
		}
	}
}

// WithMGRSDecoder replaces the MGRS decoder. A nil decoder disables MGRS
// parsing.
func WithMGRSDecoder(d MGRSDecoder) Option {
	return func(e *Extractor) { e.mgrs = d }
}

// WithLogger sets the logger used for skipped matches.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an extractor that uses p for UTM conversion.
func New(p Projector, opts ...Option) *Extractor {
	e := &Extractor{
		projector:  p,
		defaultCRS: domain.DefaultCRS,
		mgrs:       mgrs.MGRSToLatLng,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultCRS returns the identifier attached to free-text points.
func (e *Extractor) DefaultCRS() string { return e.defaultCRS }

// ExtractFromText finds DMS pairs, decimal-degree pairs and UTM references,
// in that order. The passes are independent, so one location written in two
// notations is reported twice.
func (e *Extractor) ExtractFromText(text string) []domain.GeoPoint {
	var points []domain.GeoPoint
	points = append(points, e.dmsPairs(text)...)
	points = append(points, e.ddPairs(text)...)
	points = append(points, e.utmRefs(text)...)
	return points
}

type dmsMatch struct {
	text string
	hemi byte
}

// dmsPairs pairs a N/S match with the E/W match right after it. A match is
// used at most once and a trailing unpaired match is dropped.
func (e *Extractor) dmsPairs(text string) []domain.GeoPoint {
	var matches []dmsMatch
	for _, m := range dmsPattern.FindAllStringSubmatch(text, -1) {
		h := strings.ToUpper(group(dmsPattern, m, "h"))
		matches = append(matches, dmsMatch{text: m[0], hemi: h[0]})
	}

	var out []domain.GeoPoint
	used := make(map[int]bool)
	for i := 0; i < len(matches)-1; i++ {
		if used[i] {
			continue
		}
		m1, m2 := matches[i], matches[i+1]
		if !isLatHemisphere(m1.hemi) || !isLonHemisphere(m2.hemi) {
			continue
		}
		lat, err := ParseDMS(m1.text)
		if err != nil {
			continue
		}
		lon, err := ParseDMS(m2.text)
		if err != nil {
			continue
		}
		out = append(out, e.point(lon, lat, "text-dms"))
		used[i], used[i+1] = true, true
	}
	return out
}

func (e *Extractor) ddPairs(text string) []domain.GeoPoint {
	var out []domain.GeoPoint
	for _, m := range ddPairPattern.FindAllStringSubmatch(text, -1) {
		lat, err := strconv.ParseFloat(group(ddPairPattern, m, "lat"), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(group(ddPairPattern, m, "lon"), 64)
		if err != nil {
			continue
		}
		if strings.EqualFold(group(ddPairPattern, m, "lat_h"), "S") {
			lat = -lat
		}
		if strings.EqualFold(group(ddPairPattern, m, "lon_h"), "W") {
			lon = -lon
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		out = append(out, e.point(lon, lat, "text-dd"))
	}
	return out
}

func (e *Extractor) utmRefs(text string) []domain.GeoPoint {
	var out []domain.GeoPoint
	for _, m := range utmPattern.FindAllString(text, -1) {
		lat, lon, err := e.ParseUTM(m)
		if err != nil {
			e.logger.Debug("skipping UTM match", "match", m, "error", err)
			continue
		}
		out = append(out, e.point(lon, lat, "text-utm"))
	}
	return out
}

func (e *Extractor) point(lon, lat float64, source string) domain.GeoPoint {
	p := domain.GeoPoint{X: lon, Y: lat, CRS: e.defaultCRS}
	p.Quality = domain.NewQuality(source, "parsed")
	return p
}

func isLatHemisphere(h byte) bool { return h == 'N' || h == 'S' }

func isLonHemisphere(h byte) bool { return h == 'E' || h == 'W' }
