package natsadapter

import (
	"errors"
	"testing"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		source, want string
	}{
		{"cadastre", "geo.features.cadastre"},
		{"News Site", "geo.features.news_site"},
		{"a.b.>", "geo.features.a_b__"},
		{"", "geo.features.unknown"},
	}
	for _, tt := range tests {
		if got := FeatureSubject(tt.source); got != tt.want {
			t.Errorf("FeatureSubject(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
	if got := DocumentSubject("osm"); got != "scrape.documents.osm" {
		t.Errorf("DocumentSubject = %q", got)
	}
}

func TestDecodeDocument(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"id":"1","source":"x","body":"40.7128, -74.0060"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Format != domain.FormatText || doc.ID != "1" {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := DecodeDocument([]byte(`{"format":"pdf"}`)); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format error, got %v", err)
	}
	if _, err := DecodeDocument([]byte(`not json`)); err == nil {
		t.Error("expected decode error")
	}
}
