package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/geoscrape/internal/core/domain"
	"github.com/samirrijal/geoscrape/internal/core/ports"
	"github.com/samirrijal/geoscrape/internal/core/usecases"
)

// Application error types that retrying cannot fix.
const (
	ErrTypeParse = "ParseFormat"
	ErrTypeCRS   = "CRSResolution"
)

// GeoreferenceActivities holds the activity implementations for the
// georeference workflow.
type GeoreferenceActivities struct {
	Extraction *usecases.ExtractionService
	CRS        *usecases.CRSService
	Geometry   *usecases.GeometryService
	Publisher  ports.EventPublisher
}

// ExtractDocument returns every point and feature found in doc as features.
func (a *GeoreferenceActivities) ExtractDocument(ctx context.Context, doc domain.ScrapedDocument) ([]*domain.GeoFeature, error) {
	res, err := a.Extraction.Extract(ctx, doc.Format, []byte(doc.Body), usecases.ExtractOptions{
		Source:    doc.Source,
		SourceCRS: doc.SourceCRS,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("extract document %s: %w", doc.ID, err))
	}
	return res.AsFeatures(), nil
}

// ReprojectFeatures moves every feature into target.
func (a *GeoreferenceActivities) ReprojectFeatures(ctx context.Context, features []*domain.GeoFeature, target string) ([]*domain.GeoFeature, error) {
	out := make([]*domain.GeoFeature, len(features))
	for i, f := range features {
		t, err := a.CRS.TransformFeature(ctx, f, target)
		if err != nil {
			return nil, classify(fmt.Errorf("reproject feature %d: %w", i, err))
		}
		out[i] = t
	}
	return out, nil
}

// ValidateFeatures returns one result per feature, in order.
func (a *GeoreferenceActivities) ValidateFeatures(ctx context.Context, features []*domain.GeoFeature) ([]domain.ValidationResult, error) {
	out := make([]domain.ValidationResult, len(features))
	for i, f := range features {
		res, err := a.Geometry.Validate(ctx, f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("validate feature %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}

// FixFeature returns a copy of f with its geometry repaired.
func (a *GeoreferenceActivities) FixFeature(ctx context.Context, f *domain.GeoFeature) (*domain.GeoFeature, error) {
	g, err := a.Geometry.Fix(ctx, f.Geometry)
	if err != nil {
		return nil, fmt.Errorf("fix feature %s: %w", f.ID, err)
	}
	fixed := *f
	fixed.Geometry = g
	return &fixed, nil
}

// PublishFeatures sends features to the event stream.
func (a *GeoreferenceActivities) PublishFeatures(ctx context.Context, source string, features []*domain.GeoFeature) error {
	if a.Publisher == nil {
		return temporal.NewNonRetryableApplicationError("no publisher configured", "Configuration", nil)
	}
	return a.Publisher.PublishFeatures(ctx, source, features)
}

// classify marks errors that retrying cannot fix as non-retryable.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrParseFormat), errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, domain.ErrDocumentTooLarge):
		return temporal.NewApplicationError(err.Error(), ErrTypeParse, err)
	case errors.Is(err, domain.ErrCRSResolution), errors.Is(err, domain.ErrTransform):
		return temporal.NewApplicationError(err.Error(), ErrTypeCRS, err)
	}
	return err
}
