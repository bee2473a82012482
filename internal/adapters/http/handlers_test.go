package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/geoscrape/internal/adapters/http"
	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/extract"
	"github.com/samirrijal/geoscrape/internal/pkg/geometry"
)

// ---- Mocks ----

type mockCache struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, errors.New("miss")
}
func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error { return nil }
func (m *mockCache) Delete(ctx context.Context, key string) error                     { return nil }

type mockQueue struct {
	mu   sync.Mutex
	docs []domain.ScrapedDocument
	err  error
}

func (m *mockQueue) PublishDocument(ctx context.Context, doc *domain.ScrapedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.docs = append(m.docs, *doc)
	return nil
}

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps, handler.RouteOptions{RequestsPerMinute: 10000})
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	m := crs.NewManager()
	d := &handler.Dependencies{
		CRS:        usecases.NewCRSService(m, nil),
		Extraction: usecases.NewExtractionService(extract.New(m), m, usecases.ExtractionConfig{}),
		Geometry:   usecases.NewGeometryService(geometry.NewParser(m), m),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	var buf []byte
	switch b := body.(type) {
	case string:
		buf = []byte(b)
	default:
		var err error
		if buf, err = json.Marshal(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func decode(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, b)
	}
}

func expectErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	expectStatus(t, resp, status)
	var apiErr handler.APIError
	decode(t, resp.Body, &apiErr)
	if apiErr.Code != code {
		t.Errorf("expected %s error, got %s (%s)", code, apiErr.Code, apiErr.Message)
	}
}

// ---- CRS handler tests ----

func TestResolveCRS(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/crs/resolve?name=web%20mercator")
	expectStatus(t, resp, 200)
	var out struct{ Code string }
	decode(t, resp.Body, &out)
	if out.Code != "EPSG:3857" {
		t.Errorf("expected EPSG:3857, got %s", out.Code)
	}

	expectErrorCode(t, get(t, app, "/v1/crs/resolve"), 400, "bad_request")
}

func TestCRSInfo(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/crs/info?code=EPSG:4326")
	expectStatus(t, resp, 200)
	var info crs.Info
	decode(t, resp.Body, &info)
	if !info.IsGeographic || info.IsProjected {
		t.Errorf("unexpected info %+v", info)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestCRSInfo_Unknown(t *testing.T) {
	app := setupApp(makeDeps())
	resp := get(t, app, "/v1/crs/info?code=EPSG:999999")
	expectErrorCode(t, resp, 400, "bad_request")
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected errors to be uncached, got %q", cc)
	}
}

func TestListAliases_Pagination(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/crs/aliases?offset=0&limit=5")
	expectStatus(t, resp, 200)

	var result struct {
		Data       []crs.Alias `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	decode(t, resp.Body, &result)
	if len(result.Data) != 5 {
		t.Errorf("expected 5 aliases in page, got %d", len(result.Data))
	}
	if result.Pagination.Total != len(crs.DefaultAliases) {
		t.Errorf("expected total %d, got %d", len(crs.DefaultAliases), result.Pagination.Total)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
	if strings.Contains(link, `rel="prev"`) {
		t.Errorf("unexpected prev link on first page: %s", link)
	}
}

func TestListAliases_PastEnd(t *testing.T) {
	app := setupApp(makeDeps())
	resp := get(t, app, "/v1/crs/aliases?offset=1000")
	expectStatus(t, resp, 200)
	var result struct {
		Data []crs.Alias `json:"data"`
	}
	decode(t, resp.Body, &result)
	if len(result.Data) != 0 {
		t.Errorf("expected empty page, got %d", len(result.Data))
	}
}

func TestRegisterAlias(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/crs/aliases", map[string]string{"name": "Scraper Mercator", "code": "EPSG:3857"})
	expectStatus(t, resp, 201)

	resp = get(t, app, "/v1/crs/search?q=scraper")
	expectStatus(t, resp, 200)
	var found []crs.Alias
	decode(t, resp.Body, &found)
	if len(found) != 1 || found[0].Code != "EPSG:3857" {
		t.Errorf("expected the new alias, got %+v", found)
	}

	expectErrorCode(t, postJSON(t, app, "/v1/crs/aliases", map[string]string{"name": "", "code": "EPSG:4326"}), 400, "bad_request")
	expectErrorCode(t, postJSON(t, app, "/v1/crs/aliases", map[string]string{"name": "Nowhere", "code": "EPSG:999999"}), 400, "bad_request")
}

func TestUTMZone(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/crs/utm-zone?lon=-74.006&lat=40.7128")
	expectStatus(t, resp, 200)
	var out struct{ CRS string }
	decode(t, resp.Body, &out)
	if out.CRS != "EPSG:32618" {
		t.Errorf("expected EPSG:32618, got %s", out.CRS)
	}

	expectErrorCode(t, get(t, app, "/v1/crs/utm-zone?lon=abc&lat=1"), 400, "bad_request")
	expectErrorCode(t, get(t, app, "/v1/crs/utm-zone?lon=0&lat=95"), 400, "bad_request")
}

func TestGeoid(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/geoid?lat=0&lon=0&height=100")
	expectStatus(t, resp, 200)
	var out struct {
		GeoidHeight       float64  `json:"geoid_height"`
		OrthometricHeight *float64 `json:"orthometric_height"`
	}
	decode(t, resp.Body, &out)
	if out.OrthometricHeight == nil || math.Abs(*out.OrthometricHeight-(100-out.GeoidHeight)) > 1e-9 {
		t.Errorf("unexpected geoid response %+v", out)
	}
}

// ---- Transform handler tests ----

func TestTransform(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/transform", map[string]interface{}{
		"points": [][]float64{{0, 0}, {2.35, 48.85}},
		"from":   "WGS84",
		"to":     "EPSG:3857",
	})
	expectStatus(t, resp, 200)
	var out struct {
		Points [][]float64 `json:"points"`
		CRS    string      `json:"crs"`
	}
	decode(t, resp.Body, &out)
	if out.CRS != "EPSG:3857" || len(out.Points) != 2 {
		t.Fatalf("unexpected response %+v", out)
	}
	wantX, wantY := crs.LonLatToWebMercator(2.35, 48.85)
	if math.Abs(out.Points[1][0]-wantX) > 0.01 || math.Abs(out.Points[1][1]-wantY) > 0.01 {
		t.Errorf("expected (%v, %v), got %v", wantX, wantY, out.Points[1])
	}
}

func TestTransform_UTM(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/transform", map[string]interface{}{
		"points": [][]float64{{-74.006, 40.7128}},
		"to":     "utm",
	})
	expectStatus(t, resp, 200)
	var out struct {
		Points [][]float64 `json:"points"`
		CRS    string      `json:"crs"`
	}
	decode(t, resp.Body, &out)
	if out.CRS != "EPSG:32618" {
		t.Errorf("expected EPSG:32618, got %s", out.CRS)
	}
	if math.Abs(out.Points[0][0]-583960) > 5 {
		t.Errorf("unexpected easting %v", out.Points[0][0])
	}
}

func TestTransform_BadInput(t *testing.T) {
	app := setupApp(makeDeps())

	expectErrorCode(t, postJSON(t, app, "/v1/transform", `{"points":[[0,0]]}`), 400, "bad_request")
	expectErrorCode(t, postJSON(t, app, "/v1/transform", `{"points":[],"to":"EPSG:3857"}`), 400, "bad_request")
	expectErrorCode(t, postJSON(t, app, "/v1/transform", `{"points":[[1]],"to":"EPSG:3857"}`), 400, "bad_request")
	expectErrorCode(t, postJSON(t, app, "/v1/transform", `{"points":[[0,0]],"to":"EPSG:999999"}`), 400, "bad_request")
}

func TestTransformFeature(t *testing.T) {
	app := setupApp(makeDeps())

	feature := `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"name":"null island"}}`
	resp := postJSON(t, app, "/v1/transform/feature?target=EPSG:3857", feature)
	expectStatus(t, resp, 200)

	var f domain.GeoFeature
	decode(t, resp.Body, &f)
	if f.CRS != "EPSG:3857" {
		t.Errorf("expected EPSG:3857, got %s", f.CRS)
	}
	if v, _ := f.Properties.Get("name"); v != "null island" {
		t.Errorf("properties lost: %v", v)
	}

	expectErrorCode(t, postJSON(t, app, "/v1/transform/feature", feature), 400, "bad_request")
}

// ---- Extraction handler tests ----

func TestExtractText(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/extract/text", strings.NewReader("Located at 40.7128, -74.0060 downtown"))
	resp, _ := app.Test(req, -1)
	expectStatus(t, resp, 200)

	var res domain.ExtractionResult
	decode(t, resp.Body, &res)
	if len(res.Points) != 1 || res.Points[0].X != -74.006 {
		t.Errorf("unexpected extraction %+v", res.Points)
	}
}

func TestExtractGeoJSON_Reproject(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}`
	req := httptest.NewRequest("POST", "/v1/extract/geojson?target_crs=EPSG:3857", strings.NewReader(body))
	resp, _ := app.Test(req, -1)
	expectStatus(t, resp, 200)

	var res domain.ExtractionResult
	decode(t, resp.Body, &res)
	if res.CRS != "EPSG:3857" || len(res.Features) != 1 {
		t.Errorf("unexpected extraction %+v", res)
	}
}

func TestExtract_Errors(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		m := crs.NewManager()
		d.Extraction = usecases.NewExtractionService(extract.New(m), m, usecases.ExtractionConfig{MaxDocumentBytes: 16})
	}))

	resp, _ := app.Test(httptest.NewRequest("POST", "/v1/extract/pdf", strings.NewReader("x")), -1)
	expectErrorCode(t, resp, 400, "bad_request")

	resp, _ = app.Test(httptest.NewRequest("POST", "/v1/extract/text", strings.NewReader("this body is longer than the limit")), -1)
	expectErrorCode(t, resp, 413, "payload_too_large")

	resp, _ = app.Test(httptest.NewRequest("POST", "/v1/extract/geojson", strings.NewReader(`{"type":`)), -1)
	expectErrorCode(t, resp, 400, "bad_request")

	resp, _ = app.Test(httptest.NewRequest("POST", "/v1/extract/text", nil), -1)
	expectErrorCode(t, resp, 400, "bad_request")
}

func TestParseCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/parse", map[string]string{"kind": "dms", "value": `40°42'46"N`})
	expectStatus(t, resp, 200)
	var out usecases.ParsedCoordinate
	decode(t, resp.Body, &out)
	if out.Value == nil || math.Abs(*out.Value-40.712778) > 1e-5 {
		t.Errorf("unexpected value %+v", out)
	}

	expectErrorCode(t, postJSON(t, app, "/v1/parse", map[string]string{"kind": "dms", "value": "nonsense"}), 400, "bad_request")
	expectErrorCode(t, postJSON(t, app, "/v1/parse", map[string]string{"kind": "w3w", "value": "a.b.c"}), 400, "bad_request")
}

func TestParseCoordinate_MGRSWithoutDecoder(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		m := crs.NewManager()
		d.Extraction = usecases.NewExtractionService(extract.New(m, extract.WithMGRSDecoder(nil)), m, usecases.ExtractionConfig{})
	}))
	resp := postJSON(t, app, "/v1/parse", map[string]string{"kind": "mgrs", "value": "18TWL8395907350"})
	expectErrorCode(t, resp, 501, "not_implemented")
}

func TestSubmitDocument(t *testing.T) {
	q := &mockQueue{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Documents = q }))

	resp := postJSON(t, app, "/v1/documents", map[string]string{"source": "news", "body": "at 40.7128, -74.0060"})
	expectStatus(t, resp, 202)
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, resp.Body, &out)
	if out.ID == "" || out.Status != "queued" {
		t.Errorf("unexpected response %+v", out)
	}
	if len(q.docs) != 1 || q.docs[0].Format != domain.FormatText || q.docs[0].ID != out.ID {
		t.Errorf("unexpected queued documents %+v", q.docs)
	}

	expectErrorCode(t, postJSON(t, app, "/v1/documents", map[string]string{"body": "x", "format": "pdf"}), 400, "bad_request")
}

func TestSubmitDocument_NoQueue(t *testing.T) {
	app := setupApp(makeDeps())
	resp := postJSON(t, app, "/v1/documents", map[string]string{"body": "x"})
	expectErrorCode(t, resp, 503, "unavailable")
}

// ---- Geometry handler tests ----

func TestValidateGeometry_Bowtie(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/geometry/validate", map[string]string{"wkt": "POLYGON((0 0, 1 1, 1 0, 0 1, 0 0))"})
	expectStatus(t, resp, 200)
	var res domain.ValidationResult
	decode(t, resp.Body, &res)
	if res.Valid || len(res.Issues) == 0 {
		t.Errorf("expected bowtie invalid, got %+v", res)
	}

	resp = postJSON(t, app, "/v1/geometry/fix", map[string]string{"wkt": "POLYGON((0 0, 1 1, 1 0, 0 1, 0 0))"})
	expectStatus(t, resp, 200)
	var fixed struct {
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
	}
	decode(t, resp.Body, &fixed)
	if fixed.Geometry.Type != "MultiPolygon" {
		t.Errorf("expected MultiPolygon, got %s", fixed.Geometry.Type)
	}
}

func TestValidateGeometry_BadInput(t *testing.T) {
	app := setupApp(makeDeps())
	expectErrorCode(t, postJSON(t, app, "/v1/geometry/validate", `{}`), 400, "bad_request")
	expectErrorCode(t, postJSON(t, app, "/v1/geometry/validate", `{"wkt":"POLYGON((0 0"}`), 400, "bad_request")
}

func TestGeometryArea(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/geometry/area", map[string]interface{}{
		"geojson": json.RawMessage(`{"type":"Polygon","coordinates":[[[500000,0],[500100,0],[500100,100],[500000,100],[500000,0]]]}`),
		"crs":     "EPSG:32631",
	})
	expectStatus(t, resp, 200)
	var out struct {
		Area     float64 `json:"area"`
		CRS      string  `json:"crs"`
		Hectares float64 `json:"hectares"`
	}
	decode(t, resp.Body, &out)
	if math.Abs(out.Area-10000) > 1e-6 || out.CRS != "EPSG:32631" {
		t.Errorf("unexpected area %+v", out)
	}
	if math.Abs(out.Hectares-1) > 1e-9 {
		t.Errorf("expected 1 ha, got %v", out.Hectares)
	}
}

func TestGeometrySimplify_NegativeTolerance(t *testing.T) {
	app := setupApp(makeDeps())
	resp := postJSON(t, app, "/v1/geometry/simplify", map[string]interface{}{"wkt": "LINESTRING(0 0, 1 1)", "tolerance": -1})
	expectErrorCode(t, resp, 400, "bad_request")
}

func TestGeometryBuffer(t *testing.T) {
	app := setupApp(makeDeps())
	resp := postJSON(t, app, "/v1/geometry/buffer", map[string]interface{}{
		"wkt":      "POINT(500000 0)",
		"distance": 10,
		"crs":      "EPSG:32631",
	})
	expectStatus(t, resp, 200)
	var out struct {
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
	}
	decode(t, resp.Body, &out)
	if out.Geometry.Type != "Polygon" {
		t.Errorf("expected Polygon, got %s", out.Geometry.Type)
	}
}

func TestDistance(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/distance", map[string]interface{}{
		"from": domain.NewGeoPoint(-74.0060, 40.7128),
		"to":   domain.NewGeoPoint(-0.1278, 51.5074),
	})
	expectStatus(t, resp, 200)
	var out struct {
		Distance float64 `json:"distance"`
		Feet     float64 `json:"feet"`
		Method   string  `json:"method"`
	}
	decode(t, resp.Body, &out)
	if math.Abs(out.Distance-5.57e6)/5.57e6 > 0.02 || out.Method != "geodesic" {
		t.Errorf("unexpected distance %+v", out)
	}
	if math.Abs(out.Feet*0.3048-out.Distance) > 1e-6 {
		t.Errorf("feet %v does not match %v m", out.Feet, out.Distance)
	}
}

func TestBBox(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/bbox", map[string]interface{}{
		"points": []domain.GeoPoint{domain.NewGeoPoint(0, 0), domain.NewGeoPoint(1, 1)},
	})
	expectStatus(t, resp, 200)
	var b domain.BoundingBox
	decode(t, resp.Body, &b)
	if b.Tuple() != [4]float64{0, 0, 1, 1} || b.CRS != "EPSG:4326" {
		t.Errorf("unexpected bbox %+v", b)
	}

	expectErrorCode(t, postJSON(t, app, "/v1/bbox", `{"points":[]}`), 400, "bad_request")
}

func TestBBoxAround(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/bbox/around", map[string]interface{}{
		"center":   domain.NewGeoPoint(0, 0),
		"radius_m": 111320,
	})
	expectStatus(t, resp, 200)
	var b domain.BoundingBox
	decode(t, resp.Body, &b)
	if math.Abs(b.MaxY-1) > 1e-9 || math.Abs(b.MinX+1) > 1e-9 || b.CRS != "EPSG:4326" {
		t.Errorf("unexpected box %+v", b)
	}

	resp = postJSON(t, app, "/v1/bbox/around", map[string]interface{}{
		"center":   domain.NewGeoPoint(0, 0),
		"radius_m": -5,
	})
	expectErrorCode(t, resp, 400, "bad_request")
}

func TestBBoxIntersection_Touching(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/bbox/intersection", map[string]interface{}{
		"a": domain.BoundingBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1, CRS: "EPSG:4326"},
		"b": domain.BoundingBox{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2, CRS: "EPSG:4326"},
	})
	expectStatus(t, resp, 200)
	var out struct {
		Intersects bool               `json:"intersects"`
		BBox       domain.BoundingBox `json:"bbox"`
	}
	decode(t, resp.Body, &out)
	if !out.Intersects || out.BBox.MinX != 1 || out.BBox.MaxX != 1 {
		t.Errorf("unexpected intersection %+v", out)
	}

	resp = postJSON(t, app, "/v1/bbox/intersection", map[string]interface{}{
		"a": domain.BoundingBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1, CRS: "EPSG:4326"},
		"b": domain.BoundingBox{MinX: 5, MinY: 5, MaxX: 6, MaxY: 6, CRS: "EPSG:4326"},
	})
	expectStatus(t, resp, 200)
	out.Intersects = true
	decode(t, resp.Body, &out)
	if out.Intersects {
		t.Error("expected disjoint boxes not to intersect")
	}
}

func TestValidateCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/v1/coordinates/validate", map[string]interface{}{"lat": 48.85, "lon": 2.35, "country": "JP"})
	expectStatus(t, resp, 200)
	var res domain.ValidationResult
	decode(t, resp.Body, &res)
	if res.Valid || len(res.Issues) != 1 || res.Issues[0] != "Coordinate is outside JP" {
		t.Errorf("unexpected result %+v", res)
	}

	expectErrorCode(t, postJSON(t, app, "/v1/coordinates/validate", `{"lat": 1}`), 400, "bad_request")
}

// ---- GraphQL ----

func TestGraphQL_Query(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/graphql", map[string]string{
		"query": `{ utmZone(lon: -74.006, lat: 40.7128) crsInfo(code: "EPSG:4326") { is_geographic authority { code } } }`,
	})
	expectStatus(t, resp, 200)
	var out struct {
		Data struct {
			UTMZone string `json:"utmZone"`
			CRSInfo struct {
				IsGeographic bool `json:"is_geographic"`
				Authority    struct {
					Code string `json:"code"`
				} `json:"authority"`
			} `json:"crsInfo"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	decode(t, resp.Body, &out)
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors %v", out.Errors)
	}
	if out.Data.UTMZone != "EPSG:32618" || !out.Data.CRSInfo.IsGeographic {
		t.Errorf("unexpected data %+v", out.Data)
	}
}

func TestGraphQL_RegisterAlias(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/graphql", map[string]string{
		"query": `mutation { registerAlias(name: "Tiles", code: "EPSG:3857") { code } }`,
	})
	expectStatus(t, resp, 200)

	resp = postJSON(t, app, "/graphql", map[string]string{"query": `{ resolveCRS(name: "tiles") }`})
	expectStatus(t, resp, 200)
	var out struct {
		Data struct {
			ResolveCRS string `json:"resolveCRS"`
		} `json:"data"`
	}
	decode(t, resp.Body, &out)
	if out.Data.ResolveCRS != "EPSG:3857" {
		t.Errorf("expected EPSG:3857, got %q", out.Data.ResolveCRS)
	}
}

func TestGraphQL_ExtractText(t *testing.T) {
	app := setupApp(makeDeps())

	resp := postJSON(t, app, "/graphql", map[string]string{
		"query": `{ extractText(text: "meet at 40.7128, -74.0060") { crs points { x y source } } }`,
	})
	expectStatus(t, resp, 200)
	var out struct {
		Data struct {
			ExtractText struct {
				CRS    string `json:"crs"`
				Points []struct {
					X float64 `json:"x"`
					Y float64 `json:"y"`
				} `json:"points"`
			} `json:"extractText"`
		} `json:"data"`
	}
	decode(t, resp.Body, &out)
	if len(out.Data.ExtractText.Points) != 1 || out.Data.ExtractText.Points[0].Y != 40.7128 {
		t.Errorf("unexpected extraction %+v", out.Data.ExtractText)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/health")
	expectStatus(t, resp, 200)

	var result map[string]interface{}
	decode(t, resp.Body, &result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
	if _, ok := result["transformer_cache"]; !ok {
		t.Error("expected transformer cache stats")
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	app := setupApp(makeDeps())
	resp := get(t, app, "/v1/ready")
	expectStatus(t, resp, 200)
}

func TestReady_CacheDown(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Cache = &mockCache{getFn: func(ctx context.Context, key string) ([]byte, error) {
			return nil, errors.New("connection refused")
		}}
	}))

	resp := get(t, app, "/v1/ready")
	expectStatus(t, resp, 503)
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp.Body, &result)
	if !strings.HasPrefix(result.Checks["cache"], "error") {
		t.Errorf("expected cache error, got %v", result.Checks)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())
	resp := get(t, app, "/v1/health")
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	resp := get(t, app, "/v1/crs/utm-zone?lon=2&lat=48")
	expectStatus(t, resp, 200)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/crs/utm-zone?lon=2&lat=48", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	expectStatus(t, resp, 304)
}

func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
