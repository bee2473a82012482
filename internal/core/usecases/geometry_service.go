package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/pkg/geometry"
	"github.com/samirrijal/geoscrape/internal/pkg/geospatial"
	"github.com/samirrijal/geoscrape/internal/pkg/metrics"
	"github.com/samirrijal/geoscrape/internal/pkg/telemetry"
)

// GeometryInput carries a geometry as GeoJSON or WKT. GeoJSON wins when
// both are set.
type GeometryInput struct {
	GeoJSON json.RawMessage `json:"geojson,omitempty"`
	WKT     string          `json:"wkt,omitempty"`
}

// GeometryService handles geometry parsing, validation and measurement.
type GeometryService struct {
	parser    *geometry.Parser
	reproject domain.Reprojector
}

// NewGeometryService creates a new GeometryService.
func NewGeometryService(parser *geometry.Parser, reproject domain.Reprojector) *GeometryService {
	return &GeometryService{parser: parser, reproject: reproject}
}

// Parse decodes in into an orb geometry.
func (s *GeometryService) Parse(in GeometryInput) (orb.Geometry, error) {
	switch {
	case len(in.GeoJSON) > 0 && string(in.GeoJSON) != "null":
		return s.parser.ParseGeoJSONGeometry(in.GeoJSON)
	case strings.TrimSpace(in.WKT) != "":
		return s.parser.ParseWKT(in.WKT)
	}
	return nil, fmt.Errorf("%w: geometry input is empty", domain.ErrParseFormat)
}

// Validate reports every problem found with g.
func (s *GeometryService) Validate(ctx context.Context, g orb.Geometry) (domain.ValidationResult, error) {
	_, span := telemetry.StartSpan(ctx, "geometry.Validate", attribute.String("geometry.type", typeName(g)))
	res, err := s.parser.Validate(g)
	telemetry.EndSpan(span, err)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	if !res.Valid {
		metrics.ValidationFailures.WithLabelValues(typeName(g)).Inc()
	}
	return res, nil
}

// Fix returns a topologically valid version of g.
func (s *GeometryService) Fix(ctx context.Context, g orb.Geometry) (orb.Geometry, error) {
	_, span := telemetry.StartSpan(ctx, "geometry.Fix", attribute.String("geometry.type", typeName(g)))
	out, err := s.parser.Validator().FixTopology(g)
	telemetry.EndSpan(span, err)
	return out, err
}

// Simplify removes vertices closer than tolerance while keeping topology.
func (s *GeometryService) Simplify(ctx context.Context, g orb.Geometry, tolerance float64) (orb.Geometry, error) {
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative")
	}
	_, span := telemetry.StartSpan(ctx, "geometry.Simplify", attribute.Float64("geometry.tolerance", tolerance))
	out, err := s.parser.Simplify(g, tolerance)
	telemetry.EndSpan(span, err)
	return out, err
}

// Buffer grows g by distanceM metres.
func (s *GeometryService) Buffer(ctx context.Context, g orb.Geometry, distanceM float64, code string) (orb.Geometry, error) {
	_, span := telemetry.StartSpan(ctx, "geometry.Buffer",
		attribute.Float64("geometry.distance_m", distanceM),
		attribute.String("crs", code),
	)
	out, err := s.parser.Buffer(g, distanceM, orDefaultCRS(code))
	telemetry.EndSpan(span, err)
	return out, err
}

// Area measures g in square metres, or squared CRS units for projected
// systems.
func (s *GeometryService) Area(ctx context.Context, g orb.Geometry, code string) (float64, error) {
	_, span := telemetry.StartSpan(ctx, "geometry.Area", attribute.String("crs", code))
	area, err := s.parser.Area(g, orDefaultCRS(code))
	telemetry.EndSpan(span, err)
	return area, err
}

// Distance measures between two WGS84 points with the given method.
func (s *GeometryService) Distance(p1, p2 domain.GeoPoint, method string) (float64, error) {
	a, err := p1.ToWGS84(s.reproject)
	if err != nil {
		return 0, err
	}
	b, err := p2.ToWGS84(s.reproject)
	if err != nil {
		return 0, err
	}
	return geometry.Distance(a.Point(), b.Point(), method), nil
}

// Bounds returns the envelope of points.
func (s *GeometryService) Bounds(points []domain.GeoPoint, code string) (domain.BoundingBox, error) {
	return domain.BoundsFromPoints(points, orDefaultCRS(code))
}

// Around returns a WGS84 box reaching radiusM metres from center.
func (s *GeometryService) Around(center domain.GeoPoint, radiusM float64) (domain.BoundingBox, error) {
	if radiusM < 0 {
		return domain.BoundingBox{}, fmt.Errorf("radius must not be negative")
	}
	c, err := center.ToWGS84(s.reproject)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	return geospatial.Around(c.Point(), radiusM), nil
}

// Union returns the envelope of two boxes in a's reference system.
func (s *GeometryService) Union(a, b domain.BoundingBox) (domain.BoundingBox, error) {
	return a.Union(s.reproject, b)
}

// Intersection returns the overlap of two boxes and whether there is one.
func (s *GeometryService) Intersection(a, b domain.BoundingBox) (domain.BoundingBox, bool, error) {
	return a.Intersection(s.reproject, b)
}

// ValidateCoordinate checks a WGS84 position and, when country is set,
// whether it falls within that country's rough extent.
func (s *GeometryService) ValidateCoordinate(lat, lon float64, country string) domain.ValidationResult {
	res := geometry.ValidateLatLon(lat, lon)
	if !res.Valid {
		return res
	}
	issues := res.Issues
	if !geometry.CheckOnLand(lat, lon) {
		issues = append(issues, "Coordinate appears to be in open ocean")
	}
	if country != "" && !geometry.CheckInCountry(lat, lon, country) {
		issues = append(issues, fmt.Sprintf("Coordinate is outside %s", strings.ToUpper(country)))
	}
	return domain.NewValidationResult(issues)
}

func typeName(g orb.Geometry) string {
	if g == nil {
		return "nil"
	}
	return g.GeoJSONType()
}

func orDefaultCRS(code string) string {
	if code == "" {
		return domain.DefaultCRS
	}
	return code
}
