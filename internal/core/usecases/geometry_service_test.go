package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/geometry"
)

func newGeometryService() *usecases.GeometryService {
	m := crs.NewManager()
	return usecases.NewGeometryService(geometry.NewParser(m), m)
}

func TestGeometryService_Parse(t *testing.T) {
	svc := newGeometryService()

	g, err := svc.Parse(usecases.GeometryInput{GeoJSON: []byte(`{"type":"Point","coordinates":[1,2]}`)})
	if err != nil || g != (orb.Point{1, 2}) {
		t.Errorf("unexpected geojson parse: %v, %v", g, err)
	}
	g, err = svc.Parse(usecases.GeometryInput{WKT: "POINT(3 4)"})
	if err != nil || g != (orb.Point{3, 4}) {
		t.Errorf("unexpected wkt parse: %v, %v", g, err)
	}
	if _, err := svc.Parse(usecases.GeometryInput{}); !errors.Is(err, domain.ErrParseFormat) {
		t.Errorf("expected parse format error, got %v", err)
	}
}

func TestGeometryService_ValidateAndFix(t *testing.T) {
	svc := newGeometryService()
	ctx := context.Background()
	bowtie, err := svc.Parse(usecases.GeometryInput{WKT: "POLYGON((0 0, 1 1, 1 0, 0 1, 0 0))"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := svc.Validate(ctx, bowtie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid {
		t.Fatal("expected bowtie to be invalid")
	}

	fixed, err := svc.Fix(ctx, bowtie)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fixed.(orb.MultiPolygon); !ok {
		t.Errorf("expected the repaired bowtie to be a MultiPolygon, got %T", fixed)
	}
}

func TestGeometryService_Area(t *testing.T) {
	svc := newGeometryService()
	square := orb.Polygon{{{500000, 0}, {500100, 0}, {500100, 100}, {500000, 100}, {500000, 0}}}

	area, err := svc.Area(context.Background(), square, "EPSG:32631")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(area-10000) > 1e-6 {
		t.Errorf("expected 10000, got %v", area)
	}
}

func TestGeometryService_Distance(t *testing.T) {
	svc := newGeometryService()
	nyc := domain.NewGeoPoint(-74.0060, 40.7128)
	london := domain.NewGeoPoint(-0.1278, 51.5074)

	d, err := svc.Distance(nyc, london, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-5.57e6)/5.57e6 > 0.02 {
		t.Errorf("unexpected distance %v", d)
	}

	// A projected input point is brought to WGS84 first.
	utm := domain.GeoPoint{X: 583959.37, Y: 4507351.0, CRS: "EPSG:32618"}
	d2, err := svc.Distance(utm, london, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d2-d) > 5 {
		t.Errorf("expected %v within 5 m, got %v", d, d2)
	}
}

func TestGeometryService_BBox(t *testing.T) {
	svc := newGeometryService()
	a, err := svc.Bounds([]domain.GeoPoint{domain.NewGeoPoint(0, 0), domain.NewGeoPoint(1, 1)}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := domain.BoundingBox{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2, CRS: "EPSG:4326"}

	inter, ok, err := svc.Intersection(a, b)
	if err != nil || !ok {
		t.Fatalf("expected touching boxes to intersect: %v", err)
	}
	if inter.MinX != 1 || inter.MaxX != 1 {
		t.Errorf("expected degenerate intersection at 1, got %+v", inter)
	}

	u, err := svc.Union(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Tuple() != [4]float64{0, 0, 2, 2} {
		t.Errorf("unexpected union %v", u.Tuple())
	}

	if _, err := svc.Bounds(nil, ""); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestGeometryService_Around(t *testing.T) {
	svc := newGeometryService()

	// Centre given in web mercator is brought to WGS84 first.
	x, y := crs.LonLatToWebMercator(10, 60)
	b, err := svc.Around(domain.GeoPoint{X: x, Y: y, CRS: "EPSG:3857"}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Contains(domain.NewGeoPoint(10, 60)) || b.CRS != "EPSG:4326" {
		t.Errorf("unexpected box %+v", b)
	}
	if _, err := svc.Around(domain.NewGeoPoint(0, 0), -1); err == nil {
		t.Error("expected error for negative radius")
	}
}

func TestGeometryService_ValidateCoordinate(t *testing.T) {
	svc := newGeometryService()

	if res := svc.ValidateCoordinate(48.85, 2.35, "FR"); !res.Valid {
		t.Errorf("expected Paris valid in FR, got %v", res.Issues)
	}
	res := svc.ValidateCoordinate(48.85, 2.35, "JP")
	if res.Valid || res.Issues[0] != "Coordinate is outside JP" {
		t.Errorf("unexpected result %+v", res)
	}
	res = svc.ValidateCoordinate(91, 0, "")
	if res.Valid || len(res.Issues) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if res := svc.ValidateCoordinate(0, -25, ""); res.Valid {
		t.Error("expected mid-Atlantic point to be flagged")
	}
}
