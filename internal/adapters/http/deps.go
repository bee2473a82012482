package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoscrape/internal/adapters/postgres"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. Everything
// below the services is optional.
type Dependencies struct {
	CRS        *usecases.CRSService
	Extraction *usecases.ExtractionService
	Geometry   *usecases.GeometryService
	Documents  ports.DocumentQueue
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      ports.CacheService
}
