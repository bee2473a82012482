package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// jsonObject keeps members in document order so nested GeoCoordinates are
// reported in the order they appear.
type jsonObject []jsonMember

type jsonMember struct {
	key   string
	value any
}

// get returns the last value stored under key, as a JSON parser would.
func (o jsonObject) get(key string) (any, bool) {
	var v any
	found := false
	for _, m := range o {
		if m.key == key {
			v, found = m.value, true
		}
	}
	return v, found
}

func geoCoordinatesFromJSONLD(script string) ([]domain.GeoPoint, error) {
	dec := json.NewDecoder(strings.NewReader(script))
	root, err := decodeOrdered(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON-LD value")
	}
	var out []domain.GeoPoint
	walkJSONLD(root, &out)
	return out, nil
}

func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := jsonObject{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			v, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, jsonMember{key: key, value: v})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

func walkJSONLD(v any, out *[]domain.GeoPoint) {
	switch v := v.(type) {
	case jsonObject:
		if t, ok := v.get("@type"); ok && t == "GeoCoordinates" {
			lat, okLat := jsonFloat(v, "latitude")
			lon, okLon := jsonFloat(v, "longitude")
			if okLat && okLon {
				*out = append(*out, htmlPoint(lon, lat, "json-ld"))
			}
		}
		for _, m := range v {
			walkJSONLD(m.value, out)
		}
	case []any:
		for _, item := range v {
			walkJSONLD(item, out)
		}
	}
}

// jsonFloat accepts numbers and numeric strings.
func jsonFloat(o jsonObject, key string) (float64, bool) {
	v, ok := o.get(key)
	if !ok {
		return 0, false
	}
	switch v := v.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
