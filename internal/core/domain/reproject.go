package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// VertexFunc maps a single vertex from one reference system to another.
// x is always the longitude or easting. z is passed through when nil.
type VertexFunc func(x, y float64, z *float64) (float64, float64, *float64, error)

// Reprojector builds vertex functions for an ordered pair of reference
// system identifiers.
type Reprojector interface {
	Transformer(from, to string) (VertexFunc, error)
}

// MapGeometry returns a copy of g with every vertex passed through fn. The
// input geometry is never modified.
func MapGeometry(g orb.Geometry, fn VertexFunc) (orb.Geometry, error) {
	switch g := g.(type) {
	case nil:
		return nil, nil
	case orb.Point:
		return mapPoint(g, fn)
	case orb.MultiPoint:
		out, err := mapPoints(g, fn)
		return orb.MultiPoint(out), err
	case orb.LineString:
		out, err := mapPoints(g, fn)
		return orb.LineString(out), err
	case orb.Ring:
		out, err := mapPoints(g, fn)
		return orb.Ring(out), err
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i, ls := range g {
			pts, err := mapPoints(ls, fn)
			if err != nil {
				return nil, err
			}
			out[i] = pts
		}
		return out, nil
	case orb.Polygon:
		return mapPolygon(g, fn)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			mp, err := mapPolygon(p, fn)
			if err != nil {
				return nil, err
			}
			out[i] = mp
		}
		return out, nil
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i, c := range g {
			mc, err := MapGeometry(c, fn)
			if err != nil {
				return nil, err
			}
			out[i] = mc
		}
		return out, nil
	case orb.Bound:
		return mapPolygon(g.ToPolygon(), fn)
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
}

func mapPoint(p orb.Point, fn VertexFunc) (orb.Point, error) {
	x, y, _, err := fn(p[0], p[1], nil)
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{x, y}, nil
}

func mapPoints(pts []orb.Point, fn VertexFunc) ([]orb.Point, error) {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		mp, err := mapPoint(p, fn)
		if err != nil {
			return nil, err
		}
		out[i] = mp
	}
	return out, nil
}

func mapPolygon(p orb.Polygon, fn VertexFunc) (orb.Polygon, error) {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		pts, err := mapPoints(r, fn)
		if err != nil {
			return nil, err
		}
		out[i] = pts
	}
	return out, nil
}
