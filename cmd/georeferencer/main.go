package main

import (
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geoscrape/internal/adapters/nats"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/config"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/extract"
	"github.com/samirrijal/geoscrape/internal/pkg/geometry"
	"github.com/samirrijal/geoscrape/internal/pkg/logging"
	"github.com/samirrijal/geoscrape/internal/workflows"
)

func main() {
	cfg, err := config.Load("geoscrape-georeferencer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	manager := crs.NewManager(
		crs.WithDefaultCRS(cfg.CRS.Default),
		crs.WithCacheSize(cfg.CRS.CacheSize),
	)

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, publish activity will fail", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.GeoreferenceWorkflow)
	w.RegisterActivity(&workflows.GeoreferenceActivities{
		Extraction: usecases.NewExtractionService(
			extract.New(manager, extract.WithDefaultCRS(cfg.CRS.Default)),
			manager,
			usecases.ExtractionConfig{MaxDocumentBytes: cfg.Extract.MaxDocumentBytes},
		),
		CRS:       usecases.NewCRSService(manager, nil),
		Geometry:  usecases.NewGeometryService(geometry.NewParser(manager), manager),
		Publisher: publisher,
	})

	slog.Info("georeferencer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
