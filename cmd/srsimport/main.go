package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/geoscrape/internal/adapters/postgres"
	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/pkg/config"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: srsimport <import FILE|list>")
	}

	cfg, err := config.Load("geoscrape-srsimport")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	catalog := postgres.NewSRSCatalog(db, postgres.DefaultMinSRID)

	switch os.Args[1] {
	case "import":
		if len(os.Args) < 3 {
			log.Fatal("usage: srsimport import FILE")
		}
		runImport(ctx, catalog, os.Args[2])
	case "list":
		runList(ctx, catalog)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// runImport reads a JSON array of definitions, checks each one builds a
// working transformer, then writes them all in one transaction.
func runImport(ctx context.Context, catalog *postgres.SRSCatalog, file string) {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("read %s: %v", file, err)
	}

	var defs []domain.SRSDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		log.Fatalf("decode %s: %v", file, err)
	}

	engine := crs.NewEngine()
	for _, d := range defs {
		if err := engine.Define(d.Code, d.Name, d.Proj4); err != nil {
			log.Fatalf("srid %d: %v", d.Code, err)
		}
	}

	n, err := catalog.Upsert(ctx, defs)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	log.Printf("imported %d definitions from %s", n, file)
}

func runList(ctx context.Context, catalog *postgres.SRSCatalog) {
	defs, err := catalog.Definitions(ctx)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	for _, d := range defs {
		fmt.Printf("EPSG:%-8d %-40s %s\n", d.Code, d.Name, d.Proj4)
	}
}
