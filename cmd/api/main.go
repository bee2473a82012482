package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geoscrape/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoscrape/internal/adapters/nats"
	"github.com/samirrijal/geoscrape/internal/adapters/postgres"
	"github.com/samirrijal/geoscrape/internal/adapters/valkey"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/config"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/extract"
	"github.com/samirrijal/geoscrape/internal/pkg/geometry"
	"github.com/samirrijal/geoscrape/internal/pkg/logging"
	"github.com/samirrijal/geoscrape/internal/pkg/metrics"
	"github.com/samirrijal/geoscrape/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geoscrape-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Geodesy
	crsOpts := []crs.Option{
		crs.WithDefaultCRS(cfg.CRS.Default),
		crs.WithCacheSize(cfg.CRS.CacheSize),
	}
	if cfg.CRS.GeoidDir != "" {
		crsOpts = append(crsOpts, crs.WithGeoidModel(crs.NewPGMGeoids(cfg.CRS.GeoidDir)))
	}
	manager := crs.NewManager(crsOpts...)
	metrics.RegisterTransformerCache(func() (uint64, uint64, int) {
		s := manager.Stats()
		return s.Hits, s.Misses, s.Size
	})

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	// NATS
	var (
		publisher ports.EventPublisher
		documents ports.DocumentQueue
	)
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		documents = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	crsSvc := usecases.NewCRSService(manager, cache)

	// Database (optional): user-defined systems from spatial_ref_sys
	var db *postgres.DB
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()

		n, err := crsSvc.LoadCatalog(ctx, postgres.NewSRSCatalog(db, postgres.DefaultMinSRID))
		if err != nil {
			slog.Warn("srs catalog load failed", "error", err)
		} else {
			slog.Info("srs catalog loaded", "definitions", n)
		}
		go reportPool(ctx, db)
	}

	extractor := extract.New(manager,
		extract.WithDefaultCRS(cfg.CRS.Default),
		extract.WithLogger(slog.Default()),
	)

	deps := &http.Dependencies{
		CRS: crsSvc,
		Extraction: usecases.NewExtractionService(extractor, manager, usecases.ExtractionConfig{
			Cache:            cache,
			Publisher:        publisher,
			CacheTTL:         cfg.Extract.CacheTTL,
			MaxDocumentBytes: cfg.Extract.MaxDocumentBytes,
		}),
		Geometry:  usecases.NewGeometryService(geometry.NewParser(manager), manager),
		Documents: documents,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "Geoscrape API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPool copies pool statistics into the metrics gauges until ctx ends.
func reportPool(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		case <-ctx.Done():
			return
		}
	}
}
