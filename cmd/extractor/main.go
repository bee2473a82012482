package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/geoscrape/internal/adapters/nats"
	"github.com/samirrijal/geoscrape/internal/adapters/valkey"
	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
	"github.com/samirrijal/geoscrape/internal/pkg/config"
	"github.com/samirrijal/geoscrape/internal/pkg/crs"
	"github.com/samirrijal/geoscrape/internal/pkg/extract"
	"github.com/samirrijal/geoscrape/internal/pkg/logging"
	"github.com/samirrijal/geoscrape/internal/pkg/metrics"
)

func main() {
	cfg, err := config.Load("geoscrape-extractor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	crsOpts := []crs.Option{
		crs.WithDefaultCRS(cfg.CRS.Default),
		crs.WithCacheSize(cfg.CRS.CacheSize),
	}
	if cfg.CRS.GeoidDir != "" {
		crsOpts = append(crsOpts, crs.WithGeoidModel(crs.NewPGMGeoids(cfg.CRS.GeoidDir)))
	}
	manager := crs.NewManager(crsOpts...)

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, extracting without cache", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "")
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	svc := usecases.NewExtractionService(
		extract.New(manager, extract.WithDefaultCRS(cfg.CRS.Default), extract.WithLogger(slog.Default())),
		manager,
		usecases.ExtractionConfig{
			Cache:            cache,
			Publisher:        pub,
			CacheTTL:         cfg.Extract.CacheTTL,
			MaxDocumentBytes: cfg.Extract.MaxDocumentBytes,
		},
	)

	err = sub.SubscribeDocuments(ctx, func(ctx context.Context, doc *domain.ScrapedDocument) error {
		res, err := svc.ProcessDocument(ctx, doc)
		if err != nil {
			if permanent(err) {
				// Redelivery cannot help a document that does not parse.
				metrics.DocumentsProcessed.WithLabelValues(string(doc.Format), "rejected").Inc()
				slog.Warn("document rejected", "id", doc.ID, "source", doc.Source, "error", err)
				return nil
			}
			metrics.DocumentsProcessed.WithLabelValues(string(doc.Format), "error").Inc()
			slog.Error("document failed", "id", doc.ID, "source", doc.Source, "error", err)
			return err
		}
		metrics.DocumentsProcessed.WithLabelValues(string(doc.Format), "ok").Inc()
		slog.Info("document processed",
			"id", doc.ID,
			"source", doc.Source,
			"points", len(res.Points),
			"features", len(res.Features),
			"crs", res.CRS,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("extractor started", "nats", cfg.NATS.URL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("extractor stopping")
}

func permanent(err error) bool {
	return errors.Is(err, domain.ErrParseFormat) ||
		errors.Is(err, domain.ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrDocumentTooLarge) ||
		errors.Is(err, domain.ErrCRSResolution)
}
