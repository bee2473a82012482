package crs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom/proj"
	"github.com/wroge/wgs84"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

const wgs84LonLat = "+proj=longlat +datum=WGS84 +no_defs"

// epsgRepository is the pure-Go EPSG repository, built once on first use.
var epsgRepository = sync.OnceValue(wgs84.EPSG)

var errNonFinite = errors.New("non-finite coordinate")

// Definition is a parsed reference system. It is backed either by a PROJ.4 /
// WKT definition or by a wgs84 system (the oblique grids and codes only the
// EPSG repository knows).
type Definition struct {
	// Input is the identifier the definition was parsed from.
	Input string
	// Code is "EPSG:n" when the definition has an authority code.
	Code string

	epsg  int
	wgs   wgs84.CoordinateReferenceSystem
	sr    *proj.SR
	entry *catalogEntry
	title string

	geoOnce sync.Once
	geo     bool
}

// EPSG returns the numeric authority code, or 0 for raw definitions.
func (d *Definition) EPSG() int { return d.epsg }

// IsGeographic reports whether coordinates are angular (longitude/latitude).
func (d *Definition) IsGeographic() bool {
	d.geoOnce.Do(func() {
		switch {
		case d.entry != nil:
			d.geo = d.entry.geographic
		case d.sr != nil:
			d.geo = isLongLat(d.sr)
		case d.wgs != nil:
			d.geo = sampleGeographic(d.wgs)
		}
	})
	return d.geo
}

// Info describes the reference system.
func (d *Definition) Info() Info {
	geo := d.IsGeographic()
	info := Info{
		Name:         d.Input,
		IsGeographic: geo,
		IsProjected:  !geo,
		Units:        "metre",
	}
	if geo {
		info.Units = "degree"
	}
	if d.epsg != 0 {
		info.Authority = &Authority{Name: "EPSG", Code: strconv.Itoa(d.epsg)}
		info.Name = d.Code
	}
	if d.title != "" {
		info.Name = d.title
	}
	switch {
	case d.entry != nil:
		info.Name = d.entry.name
		info.Datum = d.entry.datum
		info.Ellipsoid = d.entry.ellipsoid
		info.Units = d.entry.unit
		info.AreaOfUse = d.entry.area
	case d.sr != nil:
		info.Datum = d.sr.DatumCode
		info.Ellipsoid = d.sr.Ellps
		if d.sr.Units != "" && !geo {
			info.Units = unitName(d.sr.Units)
		}
	}
	return info
}

// Authority is the registry and code a reference system is known by.
type Authority struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Info is the metadata reported for a reference system.
type Info struct {
	Name         string     `json:"name"`
	Authority    *Authority `json:"authority"`
	IsGeographic bool       `json:"is_geographic"`
	IsProjected  bool       `json:"is_projected"`
	Datum        string     `json:"datum,omitempty"`
	Ellipsoid    string     `json:"ellipsoid,omitempty"`
	AreaOfUse    *AreaOfUse `json:"area_of_use"`
	Units        string     `json:"units"`
}

// Engine parses reference systems and builds transform pipelines. Catalog
// codes and registered definitions go through PROJ.4; the EPSG repository
// only serves codes neither of them knows.
type Engine struct {
	mu      sync.RWMutex
	defined map[int]definedEntry

	wgsOnce sync.Once
	wgsSR   *proj.SR
	wgsErr  error
}

type definedEntry struct {
	name string
	sr   *proj.SR
}

// NewEngine returns an engine with the built-in catalog only.
func NewEngine() *Engine {
	return &Engine{defined: make(map[int]definedEntry)}
}

// Define registers a PROJ.4 or WKT definition under an EPSG code. It is
// consulted after the built-in catalog and before the EPSG repository.
func (e *Engine) Define(code int, name, definition string) error {
	sr, err := proj.Parse(strings.TrimSpace(definition))
	if err != nil {
		return &domain.CRSResolutionError{Input: fmt.Sprintf("EPSG:%d", code), Err: err}
	}
	e.mu.Lock()
	e.defined[code] = definedEntry{name: name, sr: sr}
	e.mu.Unlock()
	return nil
}

// Defined returns the number of registered definitions.
func (e *Engine) Defined() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.defined)
}

// Parse interprets an EPSG code, an OGC URN/URL, a PROJ.4 string or WKT.
func (e *Engine) Parse(input string) (*Definition, error) {
	s := NormalizeIdentifier(input)
	if s == "" {
		return nil, &domain.CRSResolutionError{Input: input, Err: errors.New("empty identifier")}
	}
	if isEPSG(s) {
		code, err := strconv.Atoi(strings.TrimSpace(s[len("EPSG:"):]))
		if err != nil || code <= 0 {
			return nil, &domain.CRSResolutionError{Input: input, Err: errors.New("invalid EPSG code")}
		}
		return e.parseEPSG(input, code)
	}
	sr, err := proj.Parse(s)
	if err != nil {
		return nil, &domain.CRSResolutionError{Input: input, Err: err}
	}
	return &Definition{Input: input, sr: sr}, nil
}

func (e *Engine) parseEPSG(input string, code int) (*Definition, error) {
	def := &Definition{Input: input, Code: fmt.Sprintf("EPSG:%d", code), epsg: code}
	if entry, ok := lookupCatalog(code); ok {
		def.entry = &entry
		if entry.system != nil {
			def.wgs = entry.system(entry.area)
			return def, nil
		}
		sr, err := proj.Parse(entry.proj4)
		if err != nil {
			return nil, &domain.CRSResolutionError{Input: input, Err: err}
		}
		def.sr = sr
		return def, nil
	}
	e.mu.RLock()
	d, ok := e.defined[code]
	e.mu.RUnlock()
	if ok {
		def.sr = d.sr
		def.title = d.name
		return def, nil
	}
	if c := epsgRepository().Code(code); c != nil {
		def.wgs = c
		return def, nil
	}
	return nil, &domain.CRSResolutionError{Input: input, Err: fmt.Errorf("unknown EPSG code %d", code)}
}

// Pipeline builds a vertex function from one definition to another. Axis
// order is always x (longitude/easting) then y. Unless both sides are wgs84
// systems the pipeline meets in WGS84 longitude/latitude.
func (e *Engine) Pipeline(from, to *Definition) (domain.VertexFunc, error) {
	if from.wgs != nil && to.wgs != nil {
		return wgsVertex(wgs84.Transform(from.wgs, to.wgs)), nil
	}
	in, err := e.toLonLat(from)
	if err != nil {
		return nil, err
	}
	out, err := e.fromLonLat(to)
	if err != nil {
		return nil, err
	}
	return func(x, y float64, z *float64) (float64, float64, *float64, error) {
		lx, ly, lz, err := in(x, y, z)
		if err != nil {
			return 0, 0, nil, err
		}
		return out(lx, ly, lz)
	}, nil
}

func (e *Engine) toLonLat(d *Definition) (domain.VertexFunc, error) {
	if d.wgs != nil {
		return wgsVertex(wgs84.Transform(d.wgs, wgs84.WGS84().LonLat())), nil
	}
	ll, err := e.lonLatSR()
	if err != nil {
		return nil, err
	}
	t, err := d.sr.NewTransform(ll)
	if err != nil {
		return nil, err
	}
	return srVertex(t), nil
}

func (e *Engine) fromLonLat(d *Definition) (domain.VertexFunc, error) {
	if d.wgs != nil {
		return wgsVertex(wgs84.Transform(wgs84.WGS84().LonLat(), d.wgs)), nil
	}
	ll, err := e.lonLatSR()
	if err != nil {
		return nil, err
	}
	t, err := ll.NewTransform(d.sr)
	if err != nil {
		return nil, err
	}
	return srVertex(t), nil
}

func (e *Engine) lonLatSR() (*proj.SR, error) {
	e.wgsOnce.Do(func() {
		e.wgsSR, e.wgsErr = proj.Parse(wgs84LonLat)
	})
	return e.wgsSR, e.wgsErr
}

func wgsVertex(f func(a, b, c float64) (float64, float64, float64)) domain.VertexFunc {
	return func(x, y float64, z *float64) (float64, float64, *float64, error) {
		var h float64
		if z != nil {
			h = *z
		}
		a, b, c := f(x, y, h)
		if !finite(a) || !finite(b) {
			return 0, 0, nil, fmt.Errorf("%w for (%g, %g)", errNonFinite, x, y)
		}
		if z == nil {
			return a, b, nil, nil
		}
		return a, b, &c, nil
	}
}

// srVertex wraps a PROJ.4 transformer. A nil transformer means both sides
// are the same system.
func srVertex(t proj.Transformer) domain.VertexFunc {
	return func(x, y float64, z *float64) (float64, float64, *float64, error) {
		if t == nil {
			if !finite(x) || !finite(y) {
				return 0, 0, nil, fmt.Errorf("%w for (%g, %g)", errNonFinite, x, y)
			}
			return x, y, z, nil
		}
		a, b, err := t(x, y)
		if err != nil {
			return 0, 0, nil, err
		}
		if !finite(a) || !finite(b) {
			return 0, 0, nil, fmt.Errorf("%w for (%g, %g)", errNonFinite, x, y)
		}
		return a, b, z, nil
	}
}

// sampleGeographic decides whether a wgs84 system is angular by projecting
// a mid-latitude point into it.
func sampleGeographic(c wgs84.CoordinateReferenceSystem) bool {
	f := wgs84.Transform(wgs84.WGS84().LonLat(), c)
	x, y, _ := f(10, 45, 0)
	return math.Abs(x) <= 360 && math.Abs(y) <= 360
}

func isLongLat(sr *proj.SR) bool {
	switch sr.Name {
	case "longlat", "latlong", "lonlat", "latlon":
		return true
	}
	return false
}

func unitName(u string) string {
	switch strings.ToLower(u) {
	case "m", "metre", "meter":
		return "metre"
	case "ft", "foot":
		return "foot"
	case "us-ft":
		return "US survey foot"
	case "degrees", "degree":
		return "degree"
	}
	return u
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isEPSG(s string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s)), "EPSG:")
}
