package crs_test

import (
	"errors"
	"testing"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
)

func TestRegistry_Resolve(t *testing.T) {
	r := crs.NewRegistry(nil)

	tests := []struct {
		in, want string
	}{
		{"WGS84", "EPSG:4326"},
		{"wgs84", "EPSG:4326"},
		{"  osgb36 ", "EPSG:27700"},
		{"Google", "EPSG:3857"},
		{"epsg:4326", "epsg:4326"},
		{"EPSG:32618", "EPSG:32618"},
		{"Mars 2000", "Mars 2000"},
	}
	for _, tt := range tests {
		got := r.Resolve(tt.in)
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := r.Resolve(got); again != got {
			t.Errorf("Resolve is not idempotent for %q: %q then %q", tt.in, got, again)
		}
	}
}

func TestRegistry_RegisterAlias(t *testing.T) {
	r := crs.NewRegistry(nil)
	before := len(r.ListAliases())

	r.RegisterAlias("Lambert 93", "EPSG:2154")
	if got := r.Resolve("LAMBERT 93"); got != "EPSG:2154" {
		t.Errorf("expected EPSG:2154, got %s", got)
	}

	r.RegisterAlias("WGS84", "EPSG:4979")
	aliases := r.ListAliases()
	if len(aliases) != before+1 {
		t.Fatalf("expected %d aliases, got %d", before+1, len(aliases))
	}
	if aliases[0].Code != "EPSG:4979" {
		t.Errorf("overwritten alias should keep its position, got %+v", aliases[0])
	}
	if aliases[len(aliases)-1].Name != "Lambert 93" {
		t.Errorf("new alias should be appended, got %+v", aliases[len(aliases)-1])
	}
}

func TestRegistry_Search(t *testing.T) {
	r := crs.NewRegistry(nil)

	got := r.Search("mercator")
	if len(got) != 2 || got[0].Name != "Web Mercator" || got[1].Name != "Pseudo-Mercator" {
		t.Errorf("unexpected results %+v", got)
	}

	got = r.Search("3857")
	if len(got) != 3 {
		t.Errorf("expected 3 aliases for EPSG:3857, got %+v", got)
	}

	if got := r.Search("nothing like this"); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestRegistry_GetCRS(t *testing.T) {
	r := crs.NewRegistry(nil)

	def, err := r.GetCRS("RD Netherlands")
	if err != nil {
		t.Fatal(err)
	}
	if def.EPSG() != 28992 || def.IsGeographic() {
		t.Errorf("unexpected definition %+v", def.Info())
	}

	again, err := r.GetCRS("RD Netherlands")
	if err != nil {
		t.Fatal(err)
	}
	if again != def {
		t.Error("expected the cached definition")
	}

	if _, err := r.GetCRS("EPSG:999999"); !errors.Is(err, domain.ErrCRSResolution) {
		t.Errorf("expected ErrCRSResolution, got %v", err)
	}
	if _, err := r.GetCRS("EPSG:abc"); !errors.Is(err, domain.ErrCRSResolution) {
		t.Errorf("expected ErrCRSResolution, got %v", err)
	}
}

func TestRegistry_DefinedCodes(t *testing.T) {
	engine := crs.NewEngine()
	r := crs.NewRegistry(engine)

	if _, err := r.GetCRS("EPSG:990001"); err == nil {
		t.Fatal("expected unknown code to fail before it is defined")
	}
	err := engine.Define(990001, "Test TM", "+proj=tmerc +lat_0=0 +lon_0=3 +k=1 +x_0=500000 +y_0=0 +datum=WGS84 +units=m +no_defs")
	if err != nil {
		t.Fatal(err)
	}
	def, err := r.GetCRS("EPSG:990001")
	if err != nil {
		t.Fatal(err)
	}
	if info := def.Info(); info.Name != "Test TM" || info.IsGeographic {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"urn:ogc:def:crs:EPSG::4326", "EPSG:4326"},
		{"urn:ogc:def:crs:EPSG:6.6:27700", "EPSG:27700"},
		{"http://www.opengis.net/def/crs/EPSG/0/3857", "EPSG:3857"},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", "EPSG:4326"},
		{"epsg: 32618", "EPSG:32618"},
		{"+proj=longlat", "+proj=longlat"},
	}
	for _, tt := range tests {
		if got := crs.NormalizeIdentifier(tt.in); got != tt.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
