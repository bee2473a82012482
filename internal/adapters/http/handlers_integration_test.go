//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/geoscrape/internal/adapters/http"
	"github.com/samirrijal/geoscrape/internal/adapters/postgres"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/config"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/extract"
	"github.com/samirrijal/geoscrape/internal/pkg/geometry"
)

const testSRID = 990101

// setupTestDB connects to the PostGIS test database.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("geoscrape-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// seedTestSRS inserts a user-defined transverse mercator system.
func seedTestSRS(t *testing.T, db *postgres.DB) {
	ctx := context.Background()
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO spatial_ref_sys (srid, auth_name, auth_srid, srtext, proj4text)
		VALUES ($1, 'GEOSCRAPE', $1, 'PROJCS["Integration local grid"]',
			'+proj=tmerc +lat_0=0 +lon_0=3 +k=1 +x_0=500000 +y_0=0 +datum=WGS84 +units=m +no_defs')
		ON CONFLICT (srid) DO UPDATE SET proj4text = EXCLUDED.proj4text, srtext = EXCLUDED.srtext
	`, testSRID); err != nil {
		t.Fatalf("seed spatial_ref_sys: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM spatial_ref_sys WHERE srid = $1`, testSRID)
	})
}

// setupTestDeps wires real services with the catalog loaded from db.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	m := crs.NewManager()
	svc := usecases.NewCRSService(m, nil)
	if _, err := svc.LoadCatalog(context.Background(), postgres.NewSRSCatalog(db, postgres.DefaultMinSRID)); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return &http.Dependencies{
		CRS:        svc,
		Extraction: usecases.NewExtractionService(extract.New(m), m, usecases.ExtractionConfig{}),
		Geometry:   usecases.NewGeometryService(geometry.NewParser(m), m),
		DB:         db,
	}
}

// TestCRSInfo_Integration_Catalog resolves a system defined only in PostGIS.
func TestCRSInfo_Integration_Catalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	seedTestSRS(t, db)

	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/crs/info?code=EPSG:990101", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var info crs.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.Name != "Integration local grid" || info.IsGeographic {
		t.Errorf("unexpected info %+v", info)
	}
}

// TestReady_Integration checks readiness against a live database.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
