package http

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/geospatial"
)

// queryFloat reads a required float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	return v, nil
}

// ---- CRS ----

// ResolveCRSHandler maps a name or code onto its canonical code.
func ResolveCRSHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return errBadRequest(c, "name query parameter is required")
		}
		return c.JSON(fiber.Map{"input": name, "code": deps.CRS.Resolve(name)})
	}
}

// SearchCRSHandler finds aliases whose name or code contains q.
func SearchCRSHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		return c.JSON(deps.CRS.Search(q))
	}
}

// ListAliasesHandler returns the alias table, paginated.
func ListAliasesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		aliases := deps.CRS.Aliases()
		offset, limit := pageParams(c)

		pg := Pagination{Offset: offset, Limit: limit, Total: len(aliases)}
		start, end := pageBounds(pg)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: aliases[start:end], Pagination: pg})
	}
}

type registerAliasRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// RegisterAliasHandler adds a runtime alias.
func RegisterAliasHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerAliasRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.CRS.RegisterAlias(req.Name, req.Code); err != nil {
			if errors.Is(err, domain.ErrCRSResolution) {
				return errFromDomain(c, err)
			}
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"name": req.Name,
			"code": deps.CRS.Resolve(req.Code),
		})
	}
}

// CRSInfoHandler describes one reference system.
func CRSInfoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Query("code")
		if code == "" {
			return errBadRequest(c, "code query parameter is required")
		}
		info, err := deps.CRS.Info(c.UserContext(), code)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(info)
	}
}

// UTMZoneHandler returns the UTM EPSG code for a WGS84 position.
func UTMZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lon, err := queryFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat/lon out of range")
		}
		return c.JSON(fiber.Map{"lon": lon, "lat": lat, "crs": deps.CRS.UTMZone(lon, lat)})
	}
}

// ---- Transform ----

type transformRequest struct {
	Points [][]float64 `json:"points"`
	From   string      `json:"from"`
	To     string      `json:"to"`
}

type transformResponse struct {
	Points [][]float64 `json:"points"`
	CRS    string      `json:"crs"`
}

// maxTransformPoints bounds one request.
const maxTransformPoints = 10000

// TransformHandler reprojects a batch of points. A target of "utm" picks
// the zone of the first point.
func TransformHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req transformRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.To == "" {
			return errBadRequest(c, "to is required")
		}
		if len(req.Points) == 0 {
			return errBadRequest(c, "points must not be empty")
		}
		if len(req.Points) > maxTransformPoints {
			return errBadRequest(c, "too many points (max "+strconv.Itoa(maxTransformPoints)+")")
		}
		pts := make([]orb.Point, len(req.Points))
		for i, p := range req.Points {
			if len(p) < 2 {
				return errBadRequest(c, "point "+strconv.Itoa(i)+" needs at least two values")
			}
			pts[i] = orb.Point{p[0], p[1]}
		}

		var (
			out    []orb.Point
			target = req.To
			err    error
		)
		if strings.EqualFold(req.To, "utm") {
			out, target, err = deps.CRS.ToUTM(c.UserContext(), pts, req.From)
		} else {
			out, err = deps.CRS.Transform(c.UserContext(), pts, req.From, req.To)
		}
		if err != nil {
			return errFromDomain(c, err)
		}

		resp := transformResponse{Points: make([][]float64, len(out)), CRS: deps.CRS.Resolve(target)}
		for i, p := range out {
			resp.Points[i] = []float64{p[0], p[1]}
		}
		return c.JSON(resp)
	}
}

// TransformFeatureHandler reprojects a single GeoJSON feature. The source
// system is the feature's "crs" member, defaulting to WGS84.
func TransformFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Query("target")
		if target == "" {
			return errBadRequest(c, "target query parameter is required")
		}
		var f domain.GeoFeature
		if err := f.UnmarshalJSON(c.Body()); err != nil {
			return errBadRequest(c, "invalid feature: "+err.Error())
		}
		if f.Geometry == nil {
			return errBadRequest(c, "feature has no geometry")
		}
		out, err := deps.CRS.TransformFeature(c.UserContext(), &f, target)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(out)
	}
}

// GeoidHandler returns the geoid undulation at a point and, when height is
// given, the orthometric height for that ellipsoidal height.
func GeoidHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := queryFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := queryFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		model := c.Query("model")

		body := fiber.Map{
			"lat":          lat,
			"lon":          lon,
			"geoid_height": deps.CRS.GeoidHeight(lat, lon, model),
		}
		if c.Query("height") != "" {
			h, err := queryFloat(c, "height")
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			body["orthometric_height"] = deps.CRS.Orthometric(lat, lon, h, model)
		}
		return c.JSON(body)
	}
}

// ---- Extraction ----

// ExtractHandler pulls coordinates out of the request body. The format
// comes from the path; source_crs, target_crs, source and publish from
// the query string.
func ExtractHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := domain.DocumentFormat(strings.ToLower(c.Params("format")))
		body := c.Body()
		if len(body) == 0 {
			return errBadRequest(c, "request body is empty")
		}
		opts := usecases.ExtractOptions{
			Source:    c.Query("source"),
			SourceCRS: c.Query("source_crs"),
			TargetCRS: c.Query("target_crs"),
			Publish:   c.QueryBool("publish", false),
		}
		res, err := deps.Extraction.Extract(c.UserContext(), format, body, opts)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

type parseRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// ParseCoordinateHandler parses one DMS, UTM or MGRS string.
func ParseCoordinateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req parseRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Kind == "" || req.Value == "" {
			return errBadRequest(c, "kind and value are required")
		}
		out, err := deps.Extraction.ParseSingle(req.Kind, req.Value)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(out)
	}
}

type gridsRequest struct {
	Text string `json:"text"`
}

// GridsHandler lists geohash and MGRS tokens found in free text.
func GridsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req gridsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		geohashes, mgrs := deps.Extraction.FindGrids(req.Text)
		if geohashes == nil {
			geohashes = []string{}
		}
		if mgrs == nil {
			mgrs = []string{}
		}
		return c.JSON(fiber.Map{"geohashes": geohashes, "mgrs": mgrs})
	}
}

// SubmitDocumentHandler queues a scraped document for the extraction
// workers and answers 202 with its ID.
func SubmitDocumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Documents == nil {
			return errUnavailable(c, "document queue not configured")
		}
		var doc domain.ScrapedDocument
		if err := c.BodyParser(&doc); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if doc.Body == "" {
			return errBadRequest(c, "body is required")
		}
		if doc.Format == "" {
			doc.Format = domain.FormatText
		}
		if !doc.Format.Valid() {
			return errFromDomain(c, domain.ErrUnsupportedFormat)
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.FetchedAt.IsZero() {
			doc.FetchedAt = time.Now().UTC()
		}
		if err := deps.Documents.PublishDocument(c.UserContext(), &doc); err != nil {
			LoggerFromCtx(c.UserContext()).Error("queue document failed", "id", doc.ID, "error", err)
			return errUnavailable(c, "could not queue document")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": doc.ID, "status": "queued"})
	}
}

// ---- Geometry ----

type geometryRequest struct {
	usecases.GeometryInput
	Tolerance float64 `json:"tolerance"`
	Distance  float64 `json:"distance"`
	CRS       string  `json:"crs"`
}

func parseGeometry(c *fiber.Ctx, deps *Dependencies) (geometryRequest, orb.Geometry, error) {
	var req geometryRequest
	if err := c.BodyParser(&req); err != nil {
		return req, nil, errBadRequest(c, "invalid request body")
	}
	g, err := deps.Geometry.Parse(req.GeometryInput)
	if err != nil {
		return req, nil, errFromDomain(c, err)
	}
	return req, g, nil
}

func geometryJSON(g orb.Geometry) *geojson.Geometry {
	if g == nil {
		return nil
	}
	return geojson.NewGeometry(g)
}

// ValidateGeometryHandler reports every problem found with a geometry.
func ValidateGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, g, err := parseGeometry(c, deps)
		if g == nil {
			return err
		}
		res, err := deps.Geometry.Validate(c.UserContext(), g)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// FixGeometryHandler returns a repaired geometry.
func FixGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, g, err := parseGeometry(c, deps)
		if g == nil {
			return err
		}
		out, err := deps.Geometry.Fix(c.UserContext(), g)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"geometry": geometryJSON(out)})
	}
}

// SimplifyGeometryHandler simplifies with a topology-preserving tolerance.
func SimplifyGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, g, err := parseGeometry(c, deps)
		if g == nil {
			return err
		}
		if req.Tolerance < 0 {
			return errBadRequest(c, "tolerance must not be negative")
		}
		out, err := deps.Geometry.Simplify(c.UserContext(), g, req.Tolerance)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"geometry": geometryJSON(out)})
	}
}

// BufferGeometryHandler grows a geometry by distance metres.
func BufferGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, g, err := parseGeometry(c, deps)
		if g == nil {
			return err
		}
		out, err := deps.Geometry.Buffer(c.UserContext(), g, req.Distance, req.CRS)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"geometry": geometryJSON(out)})
	}
}

// AreaGeometryHandler measures a geometry's area.
func AreaGeometryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, g, err := parseGeometry(c, deps)
		if g == nil {
			return err
		}
		area, err := deps.Geometry.Area(c.UserContext(), g, req.CRS)
		if err != nil {
			return errFromDomain(c, err)
		}
		code := req.CRS
		if code == "" {
			code = domain.DefaultCRS
		}
		resp := fiber.Map{"area": area, "crs": code}
		// Geographic areas are square metres; projected ones are in CRS units.
		if info, err := deps.CRS.Info(c.UserContext(), code); err == nil && (info.IsGeographic || info.Units == "metre") {
			resp["hectares"] = geospatial.SqMetersToHectares(area)
			resp["acres"] = geospatial.SqMetersToAcres(area)
		}
		return c.JSON(resp)
	}
}

type distanceRequest struct {
	From   domain.GeoPoint `json:"from"`
	To     domain.GeoPoint `json:"to"`
	Method string          `json:"method"`
}

// DistanceHandler measures between two points in metres.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req distanceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		d, err := deps.Geometry.Distance(req.From, req.To, req.Method)
		if err != nil {
			return errFromDomain(c, err)
		}
		method := req.Method
		if method == "" {
			method = "geodesic"
		}
		return c.JSON(fiber.Map{"distance": d, "feet": geospatial.MetersToFeet(d), "method": method})
	}
}

type bboxRequest struct {
	Points []domain.GeoPoint `json:"points"`
	CRS    string            `json:"crs"`
}

// BBoxHandler returns the envelope of a list of points.
func BBoxHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bboxRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		b, err := deps.Geometry.Bounds(req.Points, req.CRS)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(b)
	}
}

type aroundRequest struct {
	Center  domain.GeoPoint `json:"center"`
	RadiusM float64         `json:"radius_m"`
}

// BBoxAroundHandler returns the WGS84 box within radius_m of a point.
func BBoxAroundHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req aroundRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.RadiusM < 0 {
			return errBadRequest(c, "radius_m must not be negative")
		}
		b, err := deps.Geometry.Around(req.Center, req.RadiusM)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(b)
	}
}

type bboxPairRequest struct {
	A domain.BoundingBox `json:"a"`
	B domain.BoundingBox `json:"b"`
}

// BBoxUnionHandler returns the envelope of two boxes in a's system.
func BBoxUnionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bboxPairRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		u, err := deps.Geometry.Union(req.A, req.B)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(u)
	}
}

// BBoxIntersectionHandler returns the overlap of two boxes, if any.
func BBoxIntersectionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bboxPairRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		b, ok, err := deps.Geometry.Intersection(req.A, req.B)
		if err != nil {
			return errFromDomain(c, err)
		}
		if !ok {
			return c.JSON(fiber.Map{"intersects": false})
		}
		return c.JSON(fiber.Map{"intersects": true, "bbox": b})
	}
}

type coordinateRequest struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Country string   `json:"country"`
}

// ValidateCoordinateHandler sanity-checks a WGS84 position.
func ValidateCoordinateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req coordinateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}
		return c.JSON(deps.Geometry.ValidateCoordinate(*req.Lat, *req.Lon, req.Country))
	}
}
