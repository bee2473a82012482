package extract

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// ExtractFromKML returns one feature per Placemark with a geometry, at any
// folder depth. Properties are name and description, nil when absent.
func (e *Extractor) ExtractFromKML(data []byte) ([]*domain.GeoFeature, error) {
	root, err := parseXML(data, "kml")
	if err != nil {
		return nil, err
	}

	var out []*domain.GeoFeature
	var walkErr error
	root.walk(func(n *xmlNode) bool {
		if walkErr != nil {
			return false
		}
		if n.local() != "Placemark" {
			return true
		}
		g, err := placemarkGeometry(n)
		if err != nil {
			walkErr = err
			return false
		}
		if g == nil {
			return false
		}
		f := domain.NewFeature(g)
		f.Properties.Set("name", optionalText(n.child("name")))
		f.Properties.Set("description", optionalText(n.child("description")))
		if id, ok := n.attr("id"); ok {
			f.ID = id
		}
		out = append(out, f)
		return false
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func optionalText(n *xmlNode) any {
	if n == nil {
		return nil
	}
	return n.text()
}

func placemarkGeometry(pm *xmlNode) (orb.Geometry, error) {
	for i := range pm.Nodes {
		g, err := kmlGeometry(&pm.Nodes[i])
		if err != nil || g != nil {
			return g, err
		}
	}
	return nil, nil
}

func kmlGeometry(n *xmlNode) (orb.Geometry, error) {
	switch n.local() {
	case "Point":
		pts, err := kmlCoords(n.child("coordinates"))
		if err != nil || len(pts) == 0 {
			return nil, err
		}
		return pts[0], nil
	case "LineString":
		pts, err := kmlCoords(n.child("coordinates"))
		if err != nil || len(pts) < 2 {
			return nil, err
		}
		return orb.LineString(pts), nil
	case "LinearRing":
		pts, err := kmlCoords(n.child("coordinates"))
		if err != nil || len(pts) == 0 {
			return nil, err
		}
		return orb.Polygon{closeRing(pts)}, nil
	case "Polygon":
		return kmlPolygon(n)
	case "MultiGeometry":
		return kmlMulti(n)
	}
	return nil, nil
}

func kmlPolygon(n *xmlNode) (orb.Geometry, error) {
	var poly orb.Polygon
	outer := n.child("outerBoundaryIs")
	if outer == nil {
		return nil, nil
	}
	ring, err := kmlRing(outer)
	if err != nil || ring == nil {
		return nil, err
	}
	poly = append(poly, ring)
	for i := range n.Nodes {
		if n.Nodes[i].local() != "innerBoundaryIs" {
			continue
		}
		ring, err := kmlRing(&n.Nodes[i])
		if err != nil {
			return nil, err
		}
		if ring != nil {
			poly = append(poly, ring)
		}
	}
	return poly, nil
}

func kmlRing(boundary *xmlNode) (orb.Ring, error) {
	lr := boundary.child("LinearRing")
	if lr == nil {
		return nil, nil
	}
	pts, err := kmlCoords(lr.child("coordinates"))
	if err != nil || len(pts) == 0 {
		return nil, err
	}
	return closeRing(pts), nil
}

// kmlMulti folds homogeneous members into the matching multi type and
// anything else into a collection.
func kmlMulti(n *xmlNode) (orb.Geometry, error) {
	var parts []orb.Geometry
	for i := range n.Nodes {
		g, err := kmlGeometry(&n.Nodes[i])
		if err != nil {
			return nil, err
		}
		if g != nil {
			parts = append(parts, g)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	var (
		mp  orb.MultiPoint
		mls orb.MultiLineString
		mpg orb.MultiPolygon
	)
	for _, p := range parts {
		switch g := p.(type) {
		case orb.Point:
			mp = append(mp, g)
		case orb.LineString:
			mls = append(mls, g)
		case orb.Polygon:
			mpg = append(mpg, g)
		}
	}
	switch len(parts) {
	case len(mp):
		return mp, nil
	case len(mls):
		return mls, nil
	case len(mpg):
		return mpg, nil
	}
	return orb.Collection(parts), nil
}

// kmlCoords parses "lon,lat[,alt]" tuples separated by whitespace.
func kmlCoords(n *xmlNode) ([]orb.Point, error) {
	if n == nil {
		return nil, nil
	}
	var out []orb.Point
	for _, tuple := range strings.Fields(n.Content) {
		vals, err := parseFloats(strings.Split(tuple, ","))
		if err != nil || len(vals) < 2 {
			return nil, fmt.Errorf("%w: kml coordinates: bad tuple %q", domain.ErrParseFormat, tuple)
		}
		out = append(out, orb.Point{vals[0], vals[1]})
	}
	return out, nil
}
