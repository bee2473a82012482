package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// toGEOS hands g to GEOS through WKB.
func toGEOS(g orb.Geometry) (*geos.Geom, error) {
	data, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encoding %T as wkb: %w", g, err)
	}
	gg, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("loading geometry into geos: %w", err)
	}
	return gg, nil
}

func fromGEOS(gg *geos.Geom) (orb.Geometry, error) {
	if gg == nil {
		return nil, fmt.Errorf("geos returned no geometry")
	}
	g, err := wkb.Unmarshal(gg.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("decoding geos result: %w", err)
	}
	return g, nil
}

// isEmpty reports whether g has no vertices at all.
func isEmpty(g orb.Geometry) bool {
	switch g := g.(type) {
	case nil:
		return true
	case orb.Point, orb.Bound:
		return false
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.Ring:
		return len(g) == 0
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Polygon:
		return len(g) == 0 || len(g[0]) == 0
	case orb.MultiPolygon:
		for _, p := range g {
			if !isEmpty(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if !isEmpty(c) {
				return false
			}
		}
		return true
	}
	return false
}
