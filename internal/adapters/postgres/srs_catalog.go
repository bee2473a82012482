package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// DefaultMinSRID is where PostGIS user-defined reference systems start.
const DefaultMinSRID = 900000

// SRSCatalog implements ports.SRSCatalog over PostGIS spatial_ref_sys.
type SRSCatalog struct {
	db      *DB
	minSRID int
}

// NewSRSCatalog reads rows with srid >= minSRID. Pass 0 for the whole
// table.
func NewSRSCatalog(db *DB, minSRID int) *SRSCatalog {
	return &SRSCatalog{db: db, minSRID: minSRID}
}

// Definitions returns every catalogued system with a PROJ.4 definition.
func (c *SRSCatalog) Definitions(ctx context.Context) ([]domain.SRSDefinition, error) {
	rows, err := c.db.Pool.Query(ctx, `
		SELECT srid, COALESCE(srtext, ''), COALESCE(proj4text, '')
		FROM spatial_ref_sys
		WHERE srid >= $1 AND COALESCE(proj4text, '') <> ''
		ORDER BY srid
	`, c.minSRID)
	if err != nil {
		return nil, fmt.Errorf("query spatial_ref_sys: %w", err)
	}
	defer rows.Close()

	var defs []domain.SRSDefinition
	for rows.Next() {
		var (
			srid          int
			srtext, proj4 string
		)
		if err := rows.Scan(&srid, &srtext, &proj4); err != nil {
			return nil, fmt.Errorf("scan spatial_ref_sys: %w", err)
		}
		defs = append(defs, domain.SRSDefinition{
			Code:  srid,
			Name:  wktName(srtext, srid),
			Proj4: strings.TrimSpace(proj4),
		})
	}
	return defs, rows.Err()
}

// wktName returns the first quoted string of a WKT definition, which is
// the system's name, or "EPSG:<srid>" when there is none.
func wktName(srtext string, srid int) string {
	start := strings.IndexByte(srtext, '"')
	if start >= 0 {
		if end := strings.IndexByte(srtext[start+1:], '"'); end > 0 {
			return srtext[start+1 : start+1+end]
		}
	}
	return fmt.Sprintf("EPSG:%d", srid)
}

// Upsert writes defs into spatial_ref_sys under the EPSG authority and
// returns the number of rows written. Codes below the catalog's minimum
// SRID are refused so standard systems cannot be overwritten.
func (c *SRSCatalog) Upsert(ctx context.Context, defs []domain.SRSDefinition) (int, error) {
	for _, d := range defs {
		if d.Code < c.minSRID {
			return 0, fmt.Errorf("srid %d is below %d", d.Code, c.minSRID)
		}
		if strings.TrimSpace(d.Proj4) == "" {
			return 0, fmt.Errorf("srid %d has no proj4 definition", d.Code)
		}
	}

	tx, err := c.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, d := range defs {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("EPSG:%d", d.Code)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO spatial_ref_sys (srid, auth_name, auth_srid, srtext, proj4text)
			VALUES ($1, 'EPSG', $1, $2, $3)
			ON CONFLICT (srid) DO UPDATE
			SET srtext = EXCLUDED.srtext, proj4text = EXCLUDED.proj4text
		`, d.Code, fmt.Sprintf("LOCAL_CS[%q]", name), strings.TrimSpace(d.Proj4))
		if err != nil {
			return 0, fmt.Errorf("upsert srid %d: %w", d.Code, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(defs), nil
}
