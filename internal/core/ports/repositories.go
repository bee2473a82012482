package ports

import (
	"context"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// SRSCatalog lists reference systems defined outside the built-in tables.
type SRSCatalog interface {
	Definitions(ctx context.Context) ([]domain.SRSDefinition, error)
}
