package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geoscrape/internal/pkg/metrics"
)

// RouteOptions tunes the router. The zero value is usable.
type RouteOptions struct {
	// RequestsPerMinute per client IP. Zero uses the default of 120.
	RequestsPerMinute int
	// RequestTimeout for /v1 handlers. Zero uses 15s.
	RequestTimeout time.Duration
	// SpecPath is the OpenAPI document served under /docs.
	SpecPath string
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts ...RouteOptions) {
	var o RouteOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = 120
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 15 * time.Second
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        o.RequestsPerMinute,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	t := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, o.RequestTimeout)
	}

	v1 := app.Group("/v1")

	// Reference systems
	v1.Get("/crs/resolve", t(ResolveCRSHandler(deps)))
	v1.Get("/crs/search", t(SearchCRSHandler(deps)))
	v1.Get("/crs/aliases", t(ListAliasesHandler(deps)))
	v1.Post("/crs/aliases", t(RegisterAliasHandler(deps)))
	v1.Get("/crs/info", t(CRSInfoHandler(deps)))
	v1.Get("/crs/utm-zone", t(UTMZoneHandler(deps)))
	v1.Get("/geoid", t(GeoidHandler(deps)))

	// Transformation
	v1.Post("/transform", t(TransformHandler(deps)))
	v1.Post("/transform/feature", t(TransformFeatureHandler(deps)))

	// Extraction
	v1.Post("/extract/:format", t(ExtractHandler(deps)))
	v1.Post("/parse", t(ParseCoordinateHandler(deps)))
	v1.Post("/grids", t(GridsHandler(deps)))
	v1.Post("/documents", t(SubmitDocumentHandler(deps)))

	// Geometry
	v1.Post("/geometry/validate", t(ValidateGeometryHandler(deps)))
	v1.Post("/geometry/fix", t(FixGeometryHandler(deps)))
	v1.Post("/geometry/simplify", t(SimplifyGeometryHandler(deps)))
	v1.Post("/geometry/buffer", t(BufferGeometryHandler(deps)))
	v1.Post("/geometry/area", t(AreaGeometryHandler(deps)))
	v1.Post("/distance", t(DistanceHandler(deps)))
	v1.Post("/bbox", t(BBoxHandler(deps)))
	v1.Post("/bbox/around", t(BBoxAroundHandler(deps)))
	v1.Post("/bbox/union", t(BBoxUnionHandler(deps)))
	v1.Post("/bbox/intersection", t(BBoxIntersectionHandler(deps)))
	v1.Post("/coordinates/validate", t(ValidateCoordinateHandler(deps)))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, o.SpecPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
