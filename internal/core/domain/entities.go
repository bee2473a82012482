package domain

import (
	"time"
)

// DocumentFormat identifies how a scraped payload should be read.
type DocumentFormat string

const (
	FormatText    DocumentFormat = "text"
	FormatHTML    DocumentFormat = "html"
	FormatGeoJSON DocumentFormat = "geojson"
	FormatGML     DocumentFormat = "gml"
	FormatKML     DocumentFormat = "kml"
)

// Valid reports whether f is one of the known formats.
func (f DocumentFormat) Valid() bool {
	switch f {
	case FormatText, FormatHTML, FormatGeoJSON, FormatGML, FormatKML:
		return true
	}
	return false
}

// ScrapedDocument is a page or file handed over by the scraping layer.
type ScrapedDocument struct {
	ID        string         `json:"id"`
	URL       string         `json:"url,omitempty"`
	Source    string         `json:"source"`
	Format    DocumentFormat `json:"format"`
	Body      string         `json:"body"`
	SourceCRS string         `json:"source_crs,omitempty"`
	TargetCRS string         `json:"target_crs,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// ExtractionResult groups everything pulled from one document.
type ExtractionResult struct {
	DocumentID  string         `json:"document_id,omitempty"`
	Format      DocumentFormat `json:"format"`
	CRS         string         `json:"crs"`
	Points      []GeoPoint     `json:"points"`
	Features    []*GeoFeature  `json:"features"`
	ExtractedAt time.Time      `json:"extracted_at"`
}

// Count is the number of points and features found.
func (r *ExtractionResult) Count() int {
	return len(r.Points) + len(r.Features)
}

// AsFeatures returns the features followed by one point feature per
// extracted point.
func (r *ExtractionResult) AsFeatures() []*GeoFeature {
	out := make([]*GeoFeature, 0, r.Count())
	out = append(out, r.Features...)
	for _, p := range r.Points {
		f := NewFeature(p.Point())
		f.CRS = p.CRS
		f.Quality = p.Quality
		out = append(out, f)
	}
	return out
}

// SRSDefinition is an externally catalogued reference system, e.g. a row
// of PostGIS spatial_ref_sys.
type SRSDefinition struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Proj4 string `json:"proj4"`
}
