package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

const (
	nsGML   = "http://www.opengis.net/gml"
	nsGML32 = "http://www.opengis.net/gml/3.2"
)

// ExtractFromGML reads feature members of a GML 2, 3 or 3.2 document. Each
// child of a member becomes the feature geometry when a geometry is found in
// it, otherwise a property holding its text. Members without a geometry are
// dropped.
func (e *Extractor) ExtractFromGML(data []byte) ([]*domain.GeoFeature, error) {
	root, err := parseXML(data, "gml")
	if err != nil {
		return nil, err
	}

	var members []*xmlNode
	root.walk(func(n *xmlNode) bool {
		switch {
		case n.local() == "featureMember" && inSpaces(n.XMLName.Space, []string{nsGML, nsGML32, ""}),
			n.local() == "featureMembers" && inSpaces(n.XMLName.Space, []string{nsGML, nsGML32}):
			for i := range n.Nodes {
				members = append(members, &n.Nodes[i])
			}
		}
		return true
	})

	var out []*domain.GeoFeature
	for _, member := range members {
		props := domain.NewProperties()
		var geom orb.Geometry
		for i := range member.Nodes {
			child := &member.Nodes[i]
			g, err := gmlGeometry(child)
			if err != nil {
				return nil, err
			}
			if g != nil {
				geom = g
				continue
			}
			if t := child.text(); t != "" {
				props.Set(child.local(), t)
			} else {
				props.Set(child.local(), nil)
			}
		}
		if geom == nil {
			continue
		}
		f := domain.NewFeature(geom)
		f.Properties = props
		if id, ok := member.attr("id"); ok {
			f.ID = id
		}
		out = append(out, f)
	}
	return out, nil
}

// gmlGeometry parses n when it is a geometry element, otherwise the first
// geometry found among its descendants.
func gmlGeometry(n *xmlNode) (orb.Geometry, error) {
	switch n.local() {
	case "Point":
		coords, err := gmlCoords(n)
		if err != nil || len(coords) < 1 {
			return nil, err
		}
		return coords[0], nil
	case "LineString", "Curve":
		coords, err := gmlCoords(n)
		if err != nil || len(coords) < 2 {
			return nil, err
		}
		return orb.LineString(coords), nil
	case "Polygon", "Surface":
		return gmlPolygon(n)
	}
	for i := range n.Nodes {
		g, err := gmlGeometry(&n.Nodes[i])
		if err != nil {
			return nil, err
		}
		if g != nil {
			return g, nil
		}
	}
	return nil, nil
}

func gmlPolygon(n *xmlNode) (orb.Geometry, error) {
	var exterior []orb.Point
	var interiors []orb.Ring
	var walkErr error
	n.walk(func(c *xmlNode) bool {
		if walkErr != nil {
			return false
		}
		switch c.local() {
		case "exterior", "outerBoundaryIs":
			coords, err := gmlCoords(c)
			if err != nil {
				walkErr = err
				return false
			}
			if len(coords) > 0 {
				exterior = coords
			}
		case "interior", "innerBoundaryIs":
			coords, err := gmlCoords(c)
			if err != nil {
				walkErr = err
				return false
			}
			if len(coords) > 0 {
				interiors = append(interiors, closeRing(coords))
			}
		}
		return true
	})
	if walkErr != nil || len(exterior) == 0 {
		return nil, walkErr
	}
	poly := orb.Polygon{closeRing(exterior)}
	return append(poly, interiors...), nil
}

// gmlCoords collects positions from pos, then posList, then GML 2
// coordinates elements below n. Heights are dropped.
func gmlCoords(n *xmlNode) ([]orb.Point, error) {
	var out []orb.Point
	for _, tag := range []string{"pos", "posList"} {
		for _, el := range n.descendants(tag, nsGML, nsGML32, "") {
			if el.text() == "" {
				continue
			}
			dim := 2
			if v, ok := el.attr("srsDimension"); ok {
				d, err := strconv.Atoi(strings.TrimSpace(v))
				if err != nil || d < 1 {
					return nil, fmt.Errorf("%w: gml: bad srsDimension %q", domain.ErrParseFormat, v)
				}
				dim = d
			}
			vals, err := parseFloats(strings.Fields(el.text()))
			if err != nil {
				return nil, fmt.Errorf("%w: gml %s: %v", domain.ErrParseFormat, tag, err)
			}
			for i := 0; i < len(vals); i += dim {
				end := i + dim
				if end > len(vals) {
					end = len(vals)
				}
				if end-i < 2 {
					return nil, fmt.Errorf("%w: gml %s: incomplete position", domain.ErrParseFormat, tag)
				}
				out = append(out, orb.Point{vals[i], vals[i+1]})
			}
		}
	}
	for _, el := range n.descendants("coordinates", nsGML, "") {
		if el.text() == "" {
			continue
		}
		cs, ts := ",", " "
		if v, ok := el.attr("cs"); ok && v != "" {
			cs = v
		}
		if v, ok := el.attr("ts"); ok && v != "" {
			ts = v
		}
		for _, tuple := range splitTuples(el.text(), ts) {
			vals, err := parseFloats(strings.Split(tuple, cs))
			if err != nil || len(vals) < 2 {
				return nil, fmt.Errorf("%w: gml coordinates: bad tuple %q", domain.ErrParseFormat, tuple)
			}
			out = append(out, orb.Point{vals[0], vals[1]})
		}
	}
	return out, nil
}

// splitTuples splits on ts, treating any whitespace run as one separator
// when ts itself is whitespace.
func splitTuples(s, ts string) []string {
	if strings.TrimFunc(ts, unicode.IsSpace) == "" {
		return strings.Fields(s)
	}
	var out []string
	for _, t := range strings.Split(s, ts) {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
