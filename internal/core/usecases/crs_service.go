package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/metrics"
	"github.com/samirrijal/geoscrape/internal/pkg/telemetry"
)

// crsInfoTTL is how long reference system metadata stays cached. Aliases
// can be re-pointed at runtime, so the key uses the resolved code.
const crsInfoTTL = 3600

// CRSService handles reference system lookups and coordinate transforms.
type CRSService struct {
	manager *crs.Manager
	cache   ports.CacheService
}

// NewCRSService creates a new CRSService. cache may be nil.
func NewCRSService(manager *crs.Manager, cache ports.CacheService) *CRSService {
	return &CRSService{manager: manager, cache: cache}
}

// Manager exposes the underlying transformer cache owner.
func (s *CRSService) Manager() *crs.Manager { return s.manager }

// Resolve maps an alias to its code. Unknown names come back unchanged.
func (s *CRSService) Resolve(nameOrCode string) string {
	return s.manager.Registry().Resolve(nameOrCode)
}

func (s *CRSService) Search(keyword string) []crs.Alias {
	return s.manager.Registry().Search(keyword)
}

func (s *CRSService) Aliases() []crs.Alias {
	return s.manager.Registry().ListAliases()
}

// RegisterAlias adds or re-points an alias after checking the target code
// can be parsed.
func (s *CRSService) RegisterAlias(name, code string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("alias name must not be empty")
	}
	if _, err := s.manager.Registry().GetCRS(code); err != nil {
		return err
	}
	s.manager.Registry().RegisterAlias(name, code)
	return nil
}

// Info returns metadata for a reference system.
func (s *CRSService) Info(ctx context.Context, code string) (*crs.Info, error) {
	if code == "" {
		code = s.manager.DefaultCRS()
	}
	cacheKey := "crs:info:" + s.Resolve(code)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var info crs.Info
			if err := json.Unmarshal(data, &info); err == nil {
				metrics.CacheHits.WithLabelValues("crs_info").Inc()
				return &info, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("crs_info").Inc()
	}

	info, err := s.manager.Info(code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(info); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, crsInfoTTL)
		}
	}
	return info, nil
}

// UTMZone returns the UTM code covering (lon, lat).
func (s *CRSService) UTMZone(lon, lat float64) string {
	return crs.UTMZone(lon, lat)
}

// Transform maps coords from one reference system to another, keeping
// their order. Empty identifiers fall back to the default CRS.
func (s *CRSService) Transform(ctx context.Context, coords []orb.Point, from, to string) ([]orb.Point, error) {
	_, span := telemetry.StartSpan(ctx, "crs.Transform",
		attribute.String("crs.from", from),
		attribute.String("crs.to", to),
		attribute.Int("crs.points", len(coords)),
	)
	out, err := s.manager.Transform(coords, from, to)
	telemetry.EndSpan(span, err)

	metrics.TransformsTotal.WithLabelValues("points").Inc()
	if err != nil {
		metrics.TransformErrors.WithLabelValues("points").Inc()
		return nil, err
	}
	return out, nil
}

// ToUTM transforms coords into the UTM zone of the first one.
func (s *CRSService) ToUTM(ctx context.Context, coords []orb.Point, from string) ([]orb.Point, string, error) {
	_, span := telemetry.StartSpan(ctx, "crs.ToUTM", attribute.String("crs.from", from))
	out, zone, err := s.manager.ToUTM(coords, from)
	telemetry.EndSpan(span, err)

	metrics.TransformsTotal.WithLabelValues("utm").Inc()
	if err != nil {
		metrics.TransformErrors.WithLabelValues("utm").Inc()
	}
	return out, zone, err
}

// TransformFeature returns f reprojected into target.
func (s *CRSService) TransformFeature(ctx context.Context, f *domain.GeoFeature, target string) (*domain.GeoFeature, error) {
	if target == "" {
		target = s.manager.DefaultCRS()
	}
	_, span := telemetry.StartSpan(ctx, "crs.TransformFeature",
		attribute.String("crs.from", f.CRS),
		attribute.String("crs.to", target),
	)
	out, err := f.Transform(s.manager, target)
	telemetry.EndSpan(span, err)

	metrics.TransformsTotal.WithLabelValues("feature").Inc()
	if err != nil {
		metrics.TransformErrors.WithLabelValues("feature").Inc()
		return nil, err
	}
	return out, nil
}

// GeoidHeight returns the geoid undulation in metres.
func (s *CRSService) GeoidHeight(lat, lon float64, model string) float64 {
	return s.manager.GeoidHeight(lat, lon, model)
}

// Orthometric converts an ellipsoidal height to a height above the geoid.
func (s *CRSService) Orthometric(lat, lon, h float64, model string) float64 {
	return s.manager.EllipsoidalToOrthometric(lat, lon, h, model)
}

// LoadCatalog defines every reference system listed by catalog and returns
// how many were accepted. Definitions that fail to parse are skipped and
// reported together.
func (s *CRSService) LoadCatalog(ctx context.Context, catalog ports.SRSCatalog) (int, error) {
	defs, err := catalog.Definitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list srs definitions: %w", err)
	}
	engine := s.manager.Registry().Engine()
	var (
		loaded int
		failed []string
	)
	for _, d := range defs {
		if err := engine.Define(d.Code, d.Name, d.Proj4); err != nil {
			failed = append(failed, fmt.Sprintf("%d", d.Code))
			continue
		}
		loaded++
	}
	if len(failed) > 0 {
		return loaded, fmt.Errorf("%d srs definitions rejected: %s", len(failed), strings.Join(failed, ", "))
	}
	return loaded, nil
}
