package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// xmlNode is a generic element tree; GML and KML documents vary too much in
// schema to bind to fixed structs.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func parseXML(data []byte, kind string) (*xmlNode, error) {
	var root xmlNode
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrParseFormat, kind, err)
	}
	return &root, nil
}

func (n *xmlNode) local() string { return n.XMLName.Local }

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) text() string { return strings.TrimSpace(n.Content) }

// walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func (n *xmlNode) walk(fn func(*xmlNode) bool) {
	if !fn(n) {
		return
	}
	for i := range n.Nodes {
		n.Nodes[i].walk(fn)
	}
}

// descendants returns every node below and including n whose local name is
// name and whose namespace is one of spaces.
func (n *xmlNode) descendants(name string, spaces ...string) []*xmlNode {
	var out []*xmlNode
	n.walk(func(c *xmlNode) bool {
		if c.local() == name && inSpaces(c.XMLName.Space, spaces) {
			out = append(out, c)
		}
		return true
	})
	return out
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].local() == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func inSpaces(space string, spaces []string) bool {
	if len(spaces) == 0 {
		return true
	}
	for _, s := range spaces {
		if s == space {
			return true
		}
	}
	return false
}

// closeRing appends the first vertex when the ring is open.
func closeRing(pts []orb.Point) orb.Ring {
	r := orb.Ring(pts)
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
