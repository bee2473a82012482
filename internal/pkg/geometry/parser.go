package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/geodesic"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/geospatial"
)

// Distance methods.
const (
	MethodGeodesic  = "geodesic"
	MethodEuclidean = "euclidean"
	MethodHaversine = "haversine"
)

// bufferQuadSegs is the number of segments per quarter circle in buffers.
const bufferQuadSegs = 16

// CRSResolver answers the reference system questions measurements need.
// *crs.Manager implements it.
type CRSResolver interface {
	IsGeographic(code string) (bool, error)
	Transformer(from, to string) (crs.TransformFunc, error)
}

// Parser parses, builds and measures geometries.
type Parser struct {
	crs       CRSResolver
	validator *Validator
}

// NewParser returns a parser backed by r.
func NewParser(r CRSResolver) *Parser {
	return &Parser{crs: r, validator: NewValidator()}
}

// Validator returns the validator used by Validate.
func (p *Parser) Validator() *Validator { return p.validator }

func (p *Parser) ParseWKT(s string) (orb.Geometry, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: wkt: %v", domain.ErrParseFormat, err)
	}
	return g, nil
}

func (p *Parser) ParseWKB(b []byte) (orb.Geometry, error) {
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("%w: wkb: %v", domain.ErrParseFormat, err)
	}
	return g, nil
}

func (p *Parser) ParseGeoJSONGeometry(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("%w: geojson geometry: %v", domain.ErrParseFormat, err)
	}
	return g.Geometry(), nil
}

// PointsToLine joins points in order.
func PointsToLine(points []domain.GeoPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, pt := range points {
		ls = append(ls, pt.Point())
	}
	return ls
}

// PointsToPolygon builds a single-ring polygon, closing the ring when the
// first and last points differ.
func PointsToPolygon(points []domain.GeoPoint) orb.Polygon {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, pt := range points {
		ring = append(ring, pt.Point())
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// Distance returns the distance between two lon/lat points. Geodesic and
// haversine results are metres on WGS84; any other method is the planar
// distance in coordinate units.
func Distance(p1, p2 orb.Point, method string) float64 {
	switch method {
	case "", MethodGeodesic:
		var s12 float64
		geodesic.WGS84.Inverse(p1[1], p1[0], p2[1], p2[0], &s12, nil, nil)
		return math.Abs(s12)
	case MethodHaversine:
		return geospatial.Haversine(p1, p2)
	}
	return planar.Distance(p1, p2)
}

// Area returns the area of g in square metres for geographic reference
// systems and in squared coordinate units otherwise.
func (p *Parser) Area(g orb.Geometry, code string) (float64, error) {
	geographic, err := p.crs.IsGeographic(code)
	if err != nil {
		return 0, err
	}
	if geographic {
		return math.Abs(geodesicArea(g)), nil
	}
	return planar.Area(g), nil
}

func geodesicArea(g orb.Geometry) float64 {
	switch g := g.(type) {
	case orb.Ring:
		return ringArea(g)
	case orb.Polygon:
		if len(g) == 0 {
			return 0
		}
		area := ringArea(g[0])
		for _, hole := range g[1:] {
			area -= ringArea(hole)
		}
		return area
	case orb.MultiPolygon:
		var area float64
		for _, poly := range g {
			area += geodesicArea(poly)
		}
		return area
	case orb.Collection:
		var area float64
		for _, c := range g {
			area += geodesicArea(c)
		}
		return area
	case orb.Bound:
		return geodesicArea(g.ToPolygon())
	}
	return 0
}

// ringArea is the unsigned ellipsoidal area enclosed by r.
func ringArea(r orb.Ring) float64 {
	if r.Closed() {
		r = r[:len(r)-1]
	}
	if len(r) < 3 {
		return 0
	}
	var poly geodesic.Polygon
	geodesic.WGS84.PolygonInit(&poly, false)
	for _, pt := range r {
		poly.AddPoint(pt[1], pt[0])
	}
	var area, perimeter float64
	poly.Compute(false, true, &area, &perimeter)
	return math.Abs(area)
}

// Simplify runs topology-preserving Douglas-Peucker with the tolerance in
// coordinate units.
func (p *Parser) Simplify(g orb.Geometry, tolerance float64) (orb.Geometry, error) {
	gg, err := toGEOS(g)
	if err != nil {
		return nil, err
	}
	return fromGEOS(gg.TopologyPreserveSimplify(tolerance))
}

// Buffer grows g by distanceM metres. Geographic input is buffered in the
// UTM zone of its centroid and projected back.
func (p *Parser) Buffer(g orb.Geometry, distanceM float64, code string) (orb.Geometry, error) {
	geographic, err := p.crs.IsGeographic(code)
	if err != nil {
		return nil, err
	}
	if !geographic {
		return bufferPlanar(g, distanceM)
	}

	centroid, _ := planar.CentroidArea(g)
	zone := crs.UTMZone(centroid[0], centroid[1])
	toUTM, err := p.crs.Transformer(code, zone)
	if err != nil {
		return nil, err
	}
	toGeo, err := p.crs.Transformer(zone, code)
	if err != nil {
		return nil, err
	}
	projected, err := domain.MapGeometry(g, toUTM)
	if err != nil {
		return nil, err
	}
	buffered, err := bufferPlanar(projected, distanceM)
	if err != nil {
		return nil, err
	}
	return domain.MapGeometry(buffered, toGeo)
}

func bufferPlanar(g orb.Geometry, distance float64) (orb.Geometry, error) {
	gg, err := toGEOS(g)
	if err != nil {
		return nil, err
	}
	return fromGEOS(gg.Buffer(distance, bufferQuadSegs))
}

// Validate delegates to the parser's Validator.
func (p *Parser) Validate(g orb.Geometry) (domain.ValidationResult, error) {
	return p.validator.Validate(g)
}
