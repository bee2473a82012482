package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// Document is the read-only view of an HTML page the extractor needs.
type Document interface {
	// Attr returns the attribute value of every element matching selector
	// that carries it, in document order.
	Attr(selector, attr string) []string
	// Text returns the text content of every element matching selector.
	Text(selector string) []string
	// Rows returns, for each element matching rowSelector, the text of its
	// descendants matching cellSelector.
	Rows(rowSelector, cellSelector string) [][]string
	// BodyText returns the visible text of the body.
	BodyText() string
}

// HTMLDocument implements Document on top of goquery.
type HTMLDocument struct {
	doc *goquery.Document
}

// NewHTMLDocument parses an HTML page.
func NewHTMLDocument(r io.Reader) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &HTMLDocument{doc: doc}, nil
}

func (d *HTMLDocument) Attr(selector, attr string) []string {
	var out []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			out = append(out, v)
		}
	})
	return out
}

func (d *HTMLDocument) Text(selector string) []string {
	var out []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func (d *HTMLDocument) Rows(rowSelector, cellSelector string) [][]string {
	var out [][]string
	d.doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find(cellSelector).Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(c.Text()))
		})
		out = append(out, cells)
	})
	return out
}

// BodyText joins the text nodes under <body>, skipping scripts and styles.
func (d *HTMLDocument) BodyText() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range d.doc.Find("body").Nodes {
		walk(n)
	}
	return b.String()
}

// ExtractFromHTML reads, in order, the geo.position meta tag, the
// place:location meta pair, schema.org GeoCoordinates in JSON-LD blocks and
// finally the visible body text. Results are not deduplicated.
func (e *Extractor) ExtractFromHTML(doc Document) []domain.GeoPoint {
	var points []domain.GeoPoint

	if vals := doc.Attr(`meta[name="geo.position"]`, "content"); len(vals) > 0 && vals[0] != "" {
		parts := metaSeparator.Split(vals[0], -1)
		if len(parts) == 2 {
			lat, err1 := parseNumber(parts[0])
			lon, err2 := parseNumber(parts[1])
			if err1 == nil && err2 == nil {
				points = append(points, htmlPoint(lon, lat, "meta-geo.position"))
			}
		}
	}

	lats := doc.Attr(`meta[property="place:location:latitude"]`, "content")
	lons := doc.Attr(`meta[property="place:location:longitude"]`, "content")
	if len(lats) > 0 && len(lons) > 0 && lats[0] != "" && lons[0] != "" {
		lat, err1 := parseNumber(lats[0])
		lon, err2 := parseNumber(lons[0])
		if err1 == nil && err2 == nil {
			points = append(points, htmlPoint(lon, lat, "meta-og"))
		}
	}

	for _, script := range doc.Text(`script[type="application/ld+json"]`) {
		found, err := geoCoordinatesFromJSONLD(script)
		if err != nil {
			e.logger.Debug("skipping malformed JSON-LD block", "error", err)
			continue
		}
		points = append(points, found...)
	}

	if body := doc.BodyText(); body != "" {
		points = append(points, e.ExtractFromText(body)...)
	}
	return points
}

func htmlPoint(lon, lat float64, source string) domain.GeoPoint {
	p := domain.NewGeoPoint(lon, lat)
	p.Quality = domain.NewQuality(source, "")
	return p
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ExtractFromTable reads the first header row of every table on the page
// and turns rows with parseable latitude and longitude columns into point
// features carrying the row's cells as properties.
func (e *Extractor) ExtractFromTable(doc Document) []*domain.GeoFeature {
	var headers []string
	for _, h := range doc.Text("table th") {
		headers = append(headers, strings.ToLower(strings.TrimSpace(h)))
	}
	var rows [][]string
	for _, cells := range doc.Rows("table tr", "td") {
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	if len(headers) == 0 || len(rows) == 0 {
		return nil
	}
	if len(headers) > len(rows[0]) {
		headers = headers[:len(rows[0])]
	}

	latCol, lonCol := -1, -1
	for i, h := range headers {
		switch h {
		case "lat", "latitude", "y":
			latCol = i
		case "lon", "lng", "longitude", "x":
			lonCol = i
		}
	}
	if latCol < 0 || lonCol < 0 {
		return nil
	}

	var out []*domain.GeoFeature
	for _, row := range rows {
		if latCol >= len(row) || lonCol >= len(row) {
			continue
		}
		lat, err1 := parseNumber(row[latCol])
		lon, err2 := parseNumber(row[lonCol])
		if err1 != nil || err2 != nil {
			continue
		}
		f := domain.NewFeature(domain.NewGeoPoint(lon, lat).Point())
		for i, h := range headers {
			if i >= len(row) {
				break
			}
			switch i {
			case latCol:
				f.Properties.Set(h, lat)
			case lonCol:
				f.Properties.Set(h, lon)
			default:
				f.Properties.Set(h, row[i])
			}
		}
		f.Quality = domain.NewQuality("html-table", "parsed")
		out = append(out, f)
	}
	return out
}
