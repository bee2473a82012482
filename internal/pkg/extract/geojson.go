package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

type rawFeature struct {
	ID         json.RawMessage    `json:"id"`
	Geometry   json.RawMessage    `json:"geometry"`
	Properties *domain.Properties `json:"properties"`
}

// ExtractFromGeoJSON reads a FeatureCollection, a single Feature or a bare
// geometry. Features without a geometry are dropped.
func (e *Extractor) ExtractFromGeoJSON(data []byte) ([]*domain.GeoFeature, error) {
	var head struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: geojson: %v", domain.ErrParseFormat, err)
	}

	var raws []json.RawMessage
	switch head.Type {
	case "FeatureCollection":
		raws = head.Features
	case "Feature":
		raws = []json.RawMessage{data}
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: geojson geometry: %v", domain.ErrParseFormat, err)
		}
		return []*domain.GeoFeature{domain.NewFeature(g.Geometry())}, nil
	}

	out := make([]*domain.GeoFeature, 0, len(raws))
	for i, raw := range raws {
		var rf rawFeature
		if err := json.Unmarshal(raw, &rf); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", domain.ErrParseFormat, i, err)
		}
		if isNull(rf.Geometry) {
			continue
		}
		g, err := geojson.UnmarshalGeometry(rf.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d geometry: %v", domain.ErrParseFormat, i, err)
		}
		f := domain.NewFeature(g.Geometry())
		if rf.Properties != nil {
			f.Properties = rf.Properties
		}
		f.ID = featureID(rf.ID)
		out = append(out, f)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// featureID renders string ids verbatim and numeric ids in their source
// form.
func featureID(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
