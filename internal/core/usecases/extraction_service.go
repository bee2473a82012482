package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/pkg/extract"
	"github.com/samirrijal/geoscrape/internal/pkg/metrics"
	"github.com/samirrijal/geoscrape/internal/pkg/telemetry"
)

// ExtractOptions controls one extraction request.
type ExtractOptions struct {
	// Source tags published events, e.g. the scraper that fetched the page.
	Source string
	// SourceCRS labels features read from structured formats. Empty keeps
	// the extractor's default.
	SourceCRS string
	// TargetCRS reprojects every result when set.
	TargetCRS string
	// Publish sends the extracted features to the event publisher.
	Publish bool
}

// ParsedCoordinate is the result of parsing a single coordinate string.
type ParsedCoordinate struct {
	Kind  string           `json:"kind"`
	Input string           `json:"input"`
	Value *float64         `json:"value,omitempty"`
	Point *domain.GeoPoint `json:"point,omitempty"`
}

// ExtractionService handles coordinate extraction from scraped documents.
type ExtractionService struct {
	extractor *extract.Extractor
	reproject domain.Reprojector
	cache     ports.CacheService
	publisher ports.EventPublisher
	cacheTTL  int
	maxBytes  int
	now       func() time.Time
}

// ExtractionConfig holds the optional collaborators and limits.
type ExtractionConfig struct {
	Cache     ports.CacheService
	Publisher ports.EventPublisher
	// CacheTTL is in seconds. Zero disables result caching.
	CacheTTL int
	// MaxDocumentBytes rejects larger payloads. Zero means no limit.
	MaxDocumentBytes int
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(extractor *extract.Extractor, reproject domain.Reprojector, cfg ExtractionConfig) *ExtractionService {
	return &ExtractionService{
		extractor: extractor,
		reproject: reproject,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		cacheTTL:  cfg.CacheTTL,
		maxBytes:  cfg.MaxDocumentBytes,
		now:       time.Now,
	}
}

func (s *ExtractionService) ExtractText(ctx context.Context, text string, opts ExtractOptions) (*domain.ExtractionResult, error) {
	return s.Extract(ctx, domain.FormatText, []byte(text), opts)
}

func (s *ExtractionService) ExtractHTML(ctx context.Context, html string, opts ExtractOptions) (*domain.ExtractionResult, error) {
	return s.Extract(ctx, domain.FormatHTML, []byte(html), opts)
}

func (s *ExtractionService) ExtractGeoJSON(ctx context.Context, data []byte, opts ExtractOptions) (*domain.ExtractionResult, error) {
	return s.Extract(ctx, domain.FormatGeoJSON, data, opts)
}

func (s *ExtractionService) ExtractGML(ctx context.Context, data []byte, opts ExtractOptions) (*domain.ExtractionResult, error) {
	return s.Extract(ctx, domain.FormatGML, data, opts)
}

func (s *ExtractionService) ExtractKML(ctx context.Context, data []byte, opts ExtractOptions) (*domain.ExtractionResult, error) {
	return s.Extract(ctx, domain.FormatKML, data, opts)
}

// ProcessDocument extracts from a scraped document using its own format,
// CRS hints and source, and publishes the result.
func (s *ExtractionService) ProcessDocument(ctx context.Context, doc *domain.ScrapedDocument) (*domain.ExtractionResult, error) {
	res, err := s.Extract(ctx, doc.Format, []byte(doc.Body), ExtractOptions{
		Source:    doc.Source,
		SourceCRS: doc.SourceCRS,
		TargetCRS: doc.TargetCRS,
		Publish:   true,
	})
	if err != nil {
		return nil, err
	}
	res.DocumentID = doc.ID
	return res, nil
}

// Extract runs the reader for format over body. Identical requests are
// served from the result cache; publishing happens on every call.
func (s *ExtractionService) Extract(ctx context.Context, format domain.DocumentFormat, body []byte, opts ExtractOptions) (*domain.ExtractionResult, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if s.maxBytes > 0 && len(body) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrDocumentTooLarge, len(body), s.maxBytes)
	}

	ctx, span := telemetry.StartSpan(ctx, "extract."+string(format),
		attribute.Int("extract.bytes", len(body)),
		attribute.String("extract.target_crs", opts.TargetCRS),
	)
	res, err := s.extractCached(ctx, format, body, opts)
	if err == nil {
		span.SetAttributes(attribute.Int("extract.count", res.Count()))
	}
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	if opts.Publish && s.publisher != nil && res.Count() > 0 {
		source := opts.Source
		if source == "" {
			source = string(format)
		}
		// Best-effort; the extraction itself succeeded.
		_ = s.publisher.PublishFeatures(ctx, source, res.AsFeatures())
	}
	return res, nil
}

func (s *ExtractionService) extractCached(ctx context.Context, format domain.DocumentFormat, body []byte, opts ExtractOptions) (*domain.ExtractionResult, error) {
	cacheKey := resultCacheKey(format, body, opts)
	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var res domain.ExtractionResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("extract").Inc()
				return &res, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("extract").Inc()
	}

	start := s.now()
	res, err := s.run(format, body, opts)
	if err != nil {
		return nil, err
	}
	metrics.ExtractionDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	metrics.PointsExtracted.WithLabelValues(string(format)).Add(float64(res.Count()))

	if opts.TargetCRS != "" {
		if err := s.reprojectResult(res, opts.TargetCRS); err != nil {
			return nil, err
		}
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return res, nil
}

func (s *ExtractionService) run(format domain.DocumentFormat, body []byte, opts ExtractOptions) (*domain.ExtractionResult, error) {
	res := &domain.ExtractionResult{
		Format:      format,
		CRS:         s.extractor.DefaultCRS(),
		Points:      []domain.GeoPoint{},
		Features:    []*domain.GeoFeature{},
		ExtractedAt: s.now().UTC(),
	}

	var (
		features []*domain.GeoFeature
		err      error
	)
	switch format {
	case domain.FormatText:
		res.Points = append(res.Points, s.extractor.ExtractFromText(string(body))...)
		return res, nil
	case domain.FormatHTML:
		doc, err := extract.NewHTMLDocument(strings.NewReader(string(body)))
		if err != nil {
			return nil, err
		}
		res.Points = append(res.Points, s.extractor.ExtractFromHTML(doc)...)
		res.Features = append(res.Features, s.extractor.ExtractFromTable(doc)...)
		return res, nil
	case domain.FormatGeoJSON:
		features, err = s.extractor.ExtractFromGeoJSON(body)
	case domain.FormatGML:
		features, err = s.extractor.ExtractFromGML(body)
	case domain.FormatKML:
		features, err = s.extractor.ExtractFromKML(body)
	}
	if err != nil {
		return nil, err
	}
	if opts.SourceCRS != "" {
		res.CRS = opts.SourceCRS
		for _, f := range features {
			f.CRS = opts.SourceCRS
		}
	}
	res.Features = append(res.Features, features...)
	return res, nil
}

func (s *ExtractionService) reprojectResult(res *domain.ExtractionResult, target string) error {
	for i, p := range res.Points {
		out, err := p.Transform(s.reproject, target)
		if err != nil {
			metrics.TransformErrors.WithLabelValues("extract").Inc()
			return err
		}
		res.Points[i] = out
	}
	for i, f := range res.Features {
		out, err := f.Transform(s.reproject, target)
		if err != nil {
			metrics.TransformErrors.WithLabelValues("extract").Inc()
			return err
		}
		res.Features[i] = out
	}
	metrics.TransformsTotal.WithLabelValues("extract").Add(float64(res.Count()))
	res.CRS = target
	return nil
}

// ParseSingle parses one coordinate string. kind is "dms", "utm" or
// "mgrs"; DMS yields a single value, the grid formats a WGS84 point.
func (s *ExtractionService) ParseSingle(kind, value string) (*ParsedCoordinate, error) {
	out := &ParsedCoordinate{Kind: strings.ToLower(kind), Input: value}
	switch out.Kind {
	case "dms":
		v, err := extract.ParseDMS(value)
		if err != nil {
			return nil, err
		}
		out.Value = &v
	case "utm", "mgrs":
		parse := s.extractor.ParseUTM
		if out.Kind == "mgrs" {
			parse = s.extractor.ParseMGRS
		}
		lat, lon, err := parse(value)
		if err != nil {
			return nil, err
		}
		p := domain.NewGeoPoint(lon, lat)
		p.Quality = domain.NewQuality("parse-"+out.Kind, "parsed")
		out.Point = &p
	default:
		return nil, fmt.Errorf("%w: parser %q", domain.ErrUnsupportedFormat, kind)
	}
	return out, nil
}

// FindGrids lists geohash-like and MGRS-like tokens in text without
// decoding them.
func (s *ExtractionService) FindGrids(text string) (geohashes, mgrs []string) {
	return extract.FindGeohashes(text), extract.FindMGRS(text)
}

func resultCacheKey(format domain.DocumentFormat, body []byte, opts ExtractOptions) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(opts.SourceCRS))
	h.Write([]byte{0})
	h.Write([]byte(opts.TargetCRS))
	h.Write([]byte{0})
	h.Write(body)
	return "extract:" + hex.EncodeToString(h.Sum(nil))
}
