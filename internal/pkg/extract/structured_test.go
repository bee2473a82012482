package extract_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

func TestExtractFromGeoJSON_FeatureCollection(t *testing.T) {
	e := newExtractor()
	data := []byte(`{"type": "FeatureCollection", "features": [
		{"type": "Feature", "id": 7, "geometry": {"type": "Point", "coordinates": [1, 2]},
		 "properties": {"zeta": 1, "alpha": "a"}},
		{"type": "Feature", "geometry": null, "properties": {"skipped": true}},
		{"type": "Feature", "id": "road-1",
		 "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}}
	]}`)

	feats, err := e.ExtractFromGeoJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(feats) != 2 {
		t.Fatalf("expected 2 features, got %d", len(feats))
	}
	if feats[0].ID != "7" || feats[1].ID != "road-1" {
		t.Errorf("unexpected ids %q %q", feats[0].ID, feats[1].ID)
	}
	if keys := feats[0].Properties.Keys(); len(keys) != 2 || keys[0] != "zeta" {
		t.Errorf("property order lost: %v", keys)
	}
	if feats[1].Properties.Len() != 0 {
		t.Errorf("expected empty properties, got %v", feats[1].Properties.Map())
	}
	if _, ok := feats[1].Geometry.(orb.LineString); !ok {
		t.Errorf("unexpected geometry %T", feats[1].Geometry)
	}
}

func TestExtractFromGeoJSON_SingleAndBare(t *testing.T) {
	e := newExtractor()

	feats, err := e.ExtractFromGeoJSON([]byte(`{"type": "Feature", "geometry": {"type": "Point", "coordinates": [3, 4]}, "properties": {"n": 1}}`))
	if err != nil || len(feats) != 1 {
		t.Fatalf("unexpected result %v, %v", feats, err)
	}

	feats, err = e.ExtractFromGeoJSON([]byte(`{"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}`))
	if err != nil || len(feats) != 1 {
		t.Fatalf("unexpected result %v, %v", feats, err)
	}
	if feats[0].Properties.Len() != 0 || feats[0].CRS != "EPSG:4326" {
		t.Errorf("unexpected bare feature %+v", feats[0])
	}

	if _, err := e.ExtractFromGeoJSON([]byte(`{"type": `)); !errors.Is(err, domain.ErrParseFormat) {
		t.Errorf("expected ErrParseFormat, got %v", err)
	}
}

const sampleGML32 = `<?xml version="1.0" encoding="UTF-8"?>
<gml:FeatureCollection xmlns:gml="http://www.opengis.net/gml/3.2" xmlns:app="http://example.com/app">
  <gml:featureMember>
    <app:Site gml:id="site.1">
      <app:name>Well</app:name>
      <app:depth>12</app:depth>
      <app:geom><gml:Point srsName="EPSG:4326"><gml:pos>10.5 20.25</gml:pos></gml:Point></app:geom>
    </app:Site>
  </gml:featureMember>
  <gml:featureMember>
    <app:Parcel>
      <app:name>Lot</app:name>
      <app:geom>
        <gml:Polygon>
          <gml:exterior><gml:LinearRing>
            <gml:posList srsDimension="3">0 0 1 4 0 1 4 4 1 0 4 1</gml:posList>
          </gml:LinearRing></gml:exterior>
          <gml:interior><gml:LinearRing>
            <gml:posList>1 1 2 1 2 2 1 1</gml:posList>
          </gml:LinearRing></gml:interior>
        </gml:Polygon>
      </app:geom>
    </app:Parcel>
  </gml:featureMember>
  <gml:featureMember>
    <app:Note><app:text>no geometry</app:text></app:Note>
  </gml:featureMember>
</gml:FeatureCollection>`

func TestExtractFromGML(t *testing.T) {
	e := newExtractor()
	feats, err := e.ExtractFromGML([]byte(sampleGML32))
	if err != nil {
		t.Fatal(err)
	}
	if len(feats) != 2 {
		t.Fatalf("expected 2 features, got %d", len(feats))
	}

	pt, ok := feats[0].Geometry.(orb.Point)
	if !ok || pt != (orb.Point{10.5, 20.25}) {
		t.Errorf("unexpected point %v", feats[0].Geometry)
	}
	name, _ := feats[0].Properties.Get("name")
	depth, _ := feats[0].Properties.Get("depth")
	if name != "Well" || depth != "12" || feats[0].ID != "site.1" {
		t.Errorf("unexpected feature %+v / %v", feats[0], feats[0].Properties.Map())
	}

	poly, ok := feats[1].Geometry.(orb.Polygon)
	if !ok || len(poly) != 2 {
		t.Fatalf("unexpected polygon %v", feats[1].Geometry)
	}
	if len(poly[0]) != 5 || poly[0][1] != (orb.Point{4, 0}) {
		t.Errorf("3D posList not grouped by srsDimension: %v", poly[0])
	}
}

func TestExtractFromGML2Coordinates(t *testing.T) {
	e := newExtractor()
	doc := `<wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs" xmlns:gml="http://www.opengis.net/gml">
	  <gml:featureMember>
	    <Road>
	      <name>Main</name>
	      <the_geom><gml:LineString><gml:coordinates cs=";" ts="|">1;2|3;4|5;6</gml:coordinates></gml:LineString></the_geom>
	    </Road>
	  </gml:featureMember>
	  <featureMember>
	    <Stop><geom><gml:Point><gml:coordinates>7,8</gml:coordinates></gml:Point></geom></Stop>
	  </featureMember>
	</wfs:FeatureCollection>`

	feats, err := e.ExtractFromGML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(feats) != 2 {
		t.Fatalf("expected 2 features, got %d", len(feats))
	}
	ls, ok := feats[0].Geometry.(orb.LineString)
	if !ok || len(ls) != 3 || ls[2] != (orb.Point{5, 6}) {
		t.Errorf("unexpected line %v", feats[0].Geometry)
	}
	if feats[1].Geometry != (orb.Point{7, 8}) {
		t.Errorf("unexpected point %v", feats[1].Geometry)
	}
}

func TestExtractFromGML_Malformed(t *testing.T) {
	e := newExtractor()
	if _, err := e.ExtractFromGML([]byte("not xml")); !errors.Is(err, domain.ErrParseFormat) {
		t.Errorf("expected ErrParseFormat, got %v", err)
	}
	bad := `<gml:FeatureCollection xmlns:gml="http://www.opengis.net/gml">
	  <gml:featureMember><F><g><gml:Point><gml:pos>1 north</gml:pos></gml:Point></g></F></gml:featureMember>
	</gml:FeatureCollection>`
	if _, err := e.ExtractFromGML([]byte(bad)); !errors.Is(err, domain.ErrParseFormat) {
		t.Errorf("expected ErrParseFormat, got %v", err)
	}
}

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <Placemark id="pm1">
        <name>Office</name>
        <Point><coordinates>-122.0822,37.4222,0</coordinates></Point>
      </Placemark>
      <Folder>
        <Placemark>
          <name>Park</name>
          <description>Green</description>
          <Polygon><outerBoundaryIs><LinearRing>
            <coordinates>0,0 1,0 1,1 0,1</coordinates>
          </LinearRing></outerBoundaryIs></Polygon>
        </Placemark>
      </Folder>
      <Placemark>
        <name>Stops</name>
        <MultiGeometry>
          <Point><coordinates>1,1</coordinates></Point>
          <Point><coordinates>2,2</coordinates></Point>
        </MultiGeometry>
      </Placemark>
      <Placemark><name>Nowhere</name></Placemark>
    </Folder>
  </Document>
</kml>`

func TestExtractFromKML(t *testing.T) {
	e := newExtractor()
	feats, err := e.ExtractFromKML([]byte(sampleKML))
	if err != nil {
		t.Fatal(err)
	}
	if len(feats) != 3 {
		t.Fatalf("expected 3 features, got %d", len(feats))
	}

	if feats[0].Geometry != (orb.Point{-122.0822, 37.4222}) || feats[0].ID != "pm1" {
		t.Errorf("unexpected first feature %+v", feats[0])
	}
	desc, ok := feats[0].Properties.Get("description")
	if !ok || desc != nil {
		t.Errorf("missing description should be nil, got %v (%v)", desc, ok)
	}

	poly, ok := feats[1].Geometry.(orb.Polygon)
	if !ok || len(poly[0]) != 5 {
		t.Errorf("expected a closed polygon, got %v", feats[1].Geometry)
	}
	if d, _ := feats[1].Properties.Get("description"); d != "Green" {
		t.Errorf("unexpected description %v", d)
	}

	if mp, ok := feats[2].Geometry.(orb.MultiPoint); !ok || len(mp) != 2 {
		t.Errorf("unexpected multi geometry %v", feats[2].Geometry)
	}
}
