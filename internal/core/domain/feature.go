package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Properties is a string-keyed mapping that remembers insertion order.
type Properties struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewProperties returns an empty mapping.
func NewProperties() *Properties {
	return &Properties{m: orderedmap.New[string, any]()}
}

// PropertiesFromMap copies m with keys in sorted order, since Go maps carry
// no order of their own.
func PropertiesFromMap(m map[string]any) *Properties {
	p := NewProperties()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// Set inserts or overwrites a key. Overwriting keeps the original position.
func (p *Properties) Set(key string, value any) {
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
	p.m.Set(key, value)
}

// Get returns the value stored under key.
func (p *Properties) Get(key string) (any, bool) {
	if p == nil || p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	if p == nil || p.m == nil {
		return nil
	}
	out := make([]string, 0, p.m.Len())
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Len returns the number of entries.
func (p *Properties) Len() int {
	if p == nil || p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Map returns an unordered copy, as used by GeoJSON encoders.
func (p *Properties) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil || p.m == nil {
		return out
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// MarshalJSON writes the entries in insertion order.
func (p *Properties) MarshalJSON() ([]byte, error) {
	if p == nil || p.m == nil {
		return []byte("{}"), nil
	}
	data, err := p.m.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	return data, nil
}

// UnmarshalJSON reads an object, keeping the order the keys appear in.
func (p *Properties) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := m.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("properties: %w", err)
		}
	}
	p.m = m
	return nil
}

// GeoFeature is a geometry with attributes in a named reference system.
type GeoFeature struct {
	Geometry   orb.Geometry       `json:"-"`
	Properties *Properties        `json:"properties"`
	CRS        string             `json:"crs"`
	ID         string             `json:"id,omitempty"`
	Quality    *CoordinateQuality `json:"quality,omitempty"`
}

// NewFeature wraps g in a WGS84 feature with empty properties.
func NewFeature(g orb.Geometry) *GeoFeature {
	return &GeoFeature{Geometry: g, Properties: NewProperties(), CRS: DefaultCRS}
}

// Transform returns f itself when it is already in target, otherwise a new
// feature whose vertices were passed through the reprojector.
func (f *GeoFeature) Transform(r Reprojector, target string) (*GeoFeature, error) {
	if f.CRS == target {
		return f, nil
	}
	from := f.CRS
	if from == "" {
		from = DefaultCRS
	}
	fn, err := r.Transformer(from, target)
	if err != nil {
		return nil, err
	}
	g, err := MapGeometry(f.Geometry, fn)
	if err != nil {
		return nil, err
	}
	return &GeoFeature{
		Geometry:   g,
		Properties: f.Properties,
		CRS:        target,
		ID:         f.ID,
		Quality:    f.Quality,
	}, nil
}

// ToGeoJSON converts the feature into its GeoJSON representation.
func (f *GeoFeature) ToGeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	if f.ID != "" {
		gf.ID = f.ID
	}
	gf.Properties = geojson.Properties(f.Properties.Map())
	return gf
}

// MarshalJSON encodes the feature as a GeoJSON Feature with the CRS and
// quality carried as foreign members.
func (f *GeoFeature) MarshalJSON() ([]byte, error) {
	type doc struct {
		Type       string             `json:"type"`
		ID         string             `json:"id,omitempty"`
		Geometry   *geojson.Geometry  `json:"geometry"`
		Properties *Properties        `json:"properties"`
		CRS        string             `json:"crs"`
		Quality    *CoordinateQuality `json:"quality,omitempty"`
	}
	props := f.Properties
	if props == nil {
		props = NewProperties()
	}
	var g *geojson.Geometry
	if f.Geometry != nil {
		g = geojson.NewGeometry(f.Geometry)
	}
	return json.Marshal(doc{
		Type:       "Feature",
		ID:         f.ID,
		Geometry:   g,
		Properties: props,
		CRS:        f.CRS,
		Quality:    f.Quality,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (f *GeoFeature) UnmarshalJSON(data []byte) error {
	var doc struct {
		ID         string             `json:"id"`
		Geometry   *geojson.Geometry  `json:"geometry"`
		Properties *Properties        `json:"properties"`
		CRS        string             `json:"crs"`
		Quality    *CoordinateQuality `json:"quality"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*f = GeoFeature{
		Properties: doc.Properties,
		CRS:        doc.CRS,
		ID:         doc.ID,
		Quality:    doc.Quality,
	}
	if f.Properties == nil {
		f.Properties = NewProperties()
	}
	if f.CRS == "" {
		f.CRS = DefaultCRS
	}
	if doc.Geometry != nil {
		f.Geometry = doc.Geometry.Geometry()
	}
	return nil
}
