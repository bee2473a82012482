package crs

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// DefaultCacheSize is the number of transformer pairs kept by a Manager.
const DefaultCacheSize = 64

// DefaultGeoidModel is used when GeoidHeight is called without a model.
const DefaultGeoidModel = "egm96"

// TransformFunc maps one vertex. z is passed through untouched when nil.
type TransformFunc = domain.VertexFunc

type pairKey struct {
	from, to string
}

// Manager transforms coordinates between reference systems and caches the
// transformer built for each (from, to) pair.
type Manager struct {
	registry   *Registry
	defaultCRS string
	geoid      GeoidModel
	cacheSize  int
	cache      *lruCache[pairKey, TransformFunc]
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultCRS sets the reference system assumed for empty identifiers.
func WithDefaultCRS(code string) Option {
	return func(m *Manager) {
		if code != "" {
			m.defaultCRS = code
		}
	}
}

// WithCacheSize sets the transformer cache capacity.
func WithCacheSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cacheSize = n
		}
	}
}

// WithGeoidModel plugs in a geoid grid source.
func WithGeoidModel(g GeoidModel) Option {
	return func(m *Manager) { m.geoid = g }
}

// WithRegistry shares an existing registry.
func WithRegistry(r *Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// NewManager returns a manager with a fresh registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{defaultCRS: domain.DefaultCRS, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = NewRegistry(nil)
	}
	m.cache = newLRUCache[pairKey, TransformFunc](m.cacheSize)
	return m
}

// Registry returns the registry used for identifier resolution.
func (m *Manager) Registry() *Registry { return m.registry }

// DefaultCRS returns the identifier assumed for empty inputs.
func (m *Manager) DefaultCRS() string { return m.defaultCRS }

// Stats reports transformer cache usage.
func (m *Manager) Stats() CacheStats { return m.cache.stats() }

// Reset drops every cached transformer.
func (m *Manager) Reset() { m.cache.purge() }

// Transformer returns the cached vertex function for the (from, to) pair,
// building it on a miss. The cache is keyed on resolved identifiers, so an
// alias re-pointed with RegisterAlias never reuses a stale transformer. Two
// callers racing on the same miss may both build; the first insert wins and
// both receive it.
func (m *Manager) Transformer(from, to string) (TransformFunc, error) {
	key := pairKey{m.registry.Resolve(from), m.registry.Resolve(to)}
	if fn, ok := m.cache.get(key); ok {
		return fn, nil
	}
	src, err := m.registry.GetCRS(from)
	if err != nil {
		return nil, err
	}
	dst, err := m.registry.GetCRS(to)
	if err != nil {
		return nil, err
	}
	pipe, err := m.registry.Engine().Pipeline(src, dst)
	if err != nil {
		return nil, &domain.TransformError{From: from, To: to, Err: err}
	}
	fn := func(x, y float64, z *float64) (float64, float64, *float64, error) {
		ox, oy, oz, err := pipe(x, y, z)
		if err != nil {
			return 0, 0, nil, &domain.TransformError{From: from, To: to, Err: err}
		}
		return ox, oy, oz, nil
	}
	return m.cache.add(key, fn), nil
}

// Transform maps coords one to one, keeping their order.
func (m *Manager) Transform(coords []orb.Point, from, to string) ([]orb.Point, error) {
	fn, err := m.Transformer(m.orDefault(from), m.orDefault(to))
	if err != nil {
		return nil, err
	}
	out := make([]orb.Point, len(coords))
	for i, c := range coords {
		x, y, _, err := fn(c[0], c[1], nil)
		if err != nil {
			return nil, err
		}
		out[i] = orb.Point{x, y}
	}
	return out, nil
}

// ToWGS84 transforms coords into EPSG:4326.
func (m *Manager) ToWGS84(coords []orb.Point, from string) ([]orb.Point, error) {
	return m.Transform(coords, from, domain.DefaultCRS)
}

// ToUTM transforms coords into the UTM zone of the first coordinate and
// returns the zone's code. Later coordinates are not checked against it.
func (m *Manager) ToUTM(coords []orb.Point, from string) ([]orb.Point, string, error) {
	if len(coords) == 0 {
		return nil, "", fmt.Errorf("to utm: %w", domain.ErrEmptyInput)
	}
	from = m.orDefault(from)
	first := coords[0]
	if m.registry.Resolve(from) != domain.DefaultCRS {
		ll, err := m.Transform(coords[:1], from, domain.DefaultCRS)
		if err != nil {
			return nil, "", err
		}
		first = ll[0]
	}
	zone := UTMZone(first[0], first[1])
	out, err := m.Transform(coords, from, zone)
	if err != nil {
		return nil, "", err
	}
	return out, zone, nil
}

// UTMZone returns the WGS84 UTM code covering (lon, lat). Zones are six
// degrees wide from -180; lon 180 falls into zone 60 and lat 0 counts as
// north.
func UTMZone(lon, lat float64) string {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	if lat >= 0 {
		return fmt.Sprintf("EPSG:326%02d", zone)
	}
	return fmt.Sprintf("EPSG:327%02d", zone)
}

// ToLocalGrid transforms coords into a national grid given by alias or code.
func (m *Manager) ToLocalGrid(coords []orb.Point, grid, from string) ([]orb.Point, error) {
	return m.Transform(coords, from, grid)
}

// DatumTransform shifts coords between two datums given by alias or code.
func (m *Manager) DatumTransform(coords []orb.Point, fromDatum, toDatum string) ([]orb.Point, error) {
	return m.Transform(coords, fromDatum, toDatum)
}

// TransformGeometry returns a reprojected copy of g.
func (m *Manager) TransformGeometry(g orb.Geometry, from, to string) (orb.Geometry, error) {
	fn, err := m.Transformer(m.orDefault(from), m.orDefault(to))
	if err != nil {
		return nil, err
	}
	return domain.MapGeometry(g, fn)
}

// GeoidHeight returns the geoid undulation at (lat, lon). Any lookup failure
// falls back to a smooth approximation, so it never fails.
func (m *Manager) GeoidHeight(lat, lon float64, model string) float64 {
	if model == "" {
		model = DefaultGeoidModel
	}
	if m.geoid == nil {
		return FallbackUndulation(lat)
	}
	n, err := m.geoid.Undulation(model, lat, lon)
	if err != nil || !finite(n) {
		return FallbackUndulation(lat)
	}
	return n
}

// EllipsoidalToOrthometric converts an ellipsoidal height to a height above
// the geoid.
func (m *Manager) EllipsoidalToOrthometric(lat, lon, h float64, model string) float64 {
	return h - m.GeoidHeight(lat, lon, model)
}

// DetectCRS parses s as an alias, EPSG code, URN, PROJ.4 string or WKT.
func (m *Manager) DetectCRS(s string) (*Definition, error) {
	return m.registry.GetCRS(s)
}

// Info returns metadata for a reference system.
func (m *Manager) Info(code string) (*Info, error) {
	def, err := m.registry.GetCRS(m.orDefault(code))
	if err != nil {
		return nil, err
	}
	info := def.Info()
	return &info, nil
}

// IsGeographic reports whether code uses angular units.
func (m *Manager) IsGeographic(code string) (bool, error) {
	def, err := m.registry.GetCRS(m.orDefault(code))
	if err != nil {
		return false, err
	}
	return def.IsGeographic(), nil
}

// IsProjected is the complement of IsGeographic.
func (m *Manager) IsProjected(code string) (bool, error) {
	geo, err := m.IsGeographic(code)
	return !geo, err
}

func (m *Manager) orDefault(code string) string {
	if code == "" {
		return m.defaultCRS
	}
	return code
}
