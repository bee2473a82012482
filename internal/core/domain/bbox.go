package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// BoundingBox is an axis-aligned envelope. The min <= max ordering is the
// caller's responsibility and is not checked here.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	CRS  string  `json:"crs"`
}

// BoundsFromPoints returns the envelope of points, labelled with crs.
func BoundsFromPoints(points []GeoPoint, crs string) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, fmt.Errorf("bounding box from points: %w", ErrEmptyInput)
	}
	if crs == "" {
		crs = DefaultCRS
	}
	b := BoundingBox{
		MinX: points[0].X, MinY: points[0].Y,
		MaxX: points[0].X, MaxY: points[0].Y,
		CRS:  crs,
	}
	for _, p := range points[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, nil
}

// Tuple returns (min_x, min_y, max_x, max_y).
func (b BoundingBox) Tuple() [4]float64 {
	return [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

// Polygon returns the box as a closed counter-clockwise ring.
func (b BoundingBox) Polygon() orb.Polygon {
	return orb.Polygon{orb.Ring{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
		{b.MinX, b.MaxY},
		{b.MinX, b.MinY},
	}}
}

// Contains reports whether p lies inside or on the edge of the box.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return b.MinX <= p.X && p.X <= b.MaxX && b.MinY <= p.Y && p.Y <= b.MaxY
}

// Intersects uses closed intervals, so boxes that share only an edge or a
// corner intersect.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return !(o.MinX > b.MaxX || o.MaxX < b.MinX || o.MinY > b.MaxY || o.MaxY < b.MinY)
}

// Union returns the smallest box containing b and o, in b's reference
// system.
func (b BoundingBox) Union(r Reprojector, o BoundingBox) (BoundingBox, error) {
	o, err := b.align(r, o)
	if err != nil {
		return BoundingBox{}, err
	}
	return BoundingBox{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
		CRS:  b.CRS,
	}, nil
}

// Intersection returns the overlap of b and o in b's reference system. The
// boolean is false when the boxes are disjoint.
func (b BoundingBox) Intersection(r Reprojector, o BoundingBox) (BoundingBox, bool, error) {
	o, err := b.align(r, o)
	if err != nil {
		return BoundingBox{}, false, err
	}
	if !b.Intersects(o) {
		return BoundingBox{}, false, nil
	}
	return BoundingBox{
		MinX: math.Max(b.MinX, o.MinX),
		MinY: math.Max(b.MinY, o.MinY),
		MaxX: math.Min(b.MaxX, o.MaxX),
		MaxY: math.Min(b.MaxY, o.MaxY),
		CRS:  b.CRS,
	}, true, nil
}

// Transform reprojects the four corners and returns their envelope. This is
// not the true reprojected boundary, which can differ near singularities.
func (b BoundingBox) Transform(r Reprojector, target string) (BoundingBox, error) {
	if b.CRS == target {
		return b, nil
	}
	from := b.CRS
	if from == "" {
		from = DefaultCRS
	}
	fn, err := r.Transformer(from, target)
	if err != nil {
		return BoundingBox{}, err
	}
	corners := [4]orb.Point{
		{b.MinX, b.MinY},
		{b.MinX, b.MaxY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
	}
	out := BoundingBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
		CRS:  target,
	}
	for _, c := range corners {
		x, y, _, err := fn(c[0], c[1], nil)
		if err != nil {
			return BoundingBox{}, err
		}
		out.MinX = math.Min(out.MinX, x)
		out.MinY = math.Min(out.MinY, y)
		out.MaxX = math.Max(out.MaxX, x)
		out.MaxY = math.Max(out.MaxY, y)
	}
	return out, nil
}

func (b BoundingBox) align(r Reprojector, o BoundingBox) (BoundingBox, error) {
	if b.CRS == o.CRS {
		return o, nil
	}
	return o.Transform(r, b.CRS)
}
