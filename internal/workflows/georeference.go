package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

// TaskQueue is the default queue the georeferencer worker polls.
const TaskQueue = "georeference"

// GeoreferenceInput is the input for the georeference workflow.
type GeoreferenceInput struct {
	Document  domain.ScrapedDocument
	TargetCRS string
	// FixInvalid repairs invalid geometries instead of dropping them.
	FixInvalid bool
	// Publish sends the surviving features to the event stream.
	Publish bool
}

// GeoreferenceOutput summarises one run.
type GeoreferenceOutput struct {
	DocumentID string
	CRS        string
	Extracted  int
	Invalid    int
	Fixed      int
	Features   []*domain.GeoFeature
}

// GeoreferenceWorkflow extracts coordinates from a scraped document,
// reprojects them, checks every geometry and publishes what survives.
// Invalid geometries are either repaired or dropped; a failed repair drops
// the feature too.
func GeoreferenceWorkflow(ctx workflow.Context, input GeoreferenceInput) (*GeoreferenceOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting georeference workflow", "document", input.Document.ID, "format", input.Document.Format)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
			NonRetryableErrorTypes: []string{
				ErrTypeParse,
				ErrTypeCRS,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Extract
	var features []*domain.GeoFeature
	if err := workflow.ExecuteActivity(ctx, "ExtractDocument", input.Document).Get(ctx, &features); err != nil {
		return nil, err
	}
	out := &GeoreferenceOutput{
		DocumentID: input.Document.ID,
		CRS:        input.Document.SourceCRS,
		Extracted:  len(features),
	}
	if len(features) == 0 {
		logger.Info("No coordinates found", "document", input.Document.ID)
		out.Features = []*domain.GeoFeature{}
		return out, nil
	}

	// Step 2: Reproject
	if input.TargetCRS != "" {
		if err := workflow.ExecuteActivity(ctx, "ReprojectFeatures", features, input.TargetCRS).Get(ctx, &features); err != nil {
			return nil, err
		}
		out.CRS = input.TargetCRS
	}

	// Step 3: Validate, then repair or drop
	var results []domain.ValidationResult
	if err := workflow.ExecuteActivity(ctx, "ValidateFeatures", features).Get(ctx, &results); err != nil {
		return nil, err
	}
	kept := make([]*domain.GeoFeature, 0, len(features))
	for i, f := range features {
		if results[i].Valid {
			kept = append(kept, f)
			continue
		}
		out.Invalid++
		if !input.FixInvalid {
			continue
		}
		var fixed *domain.GeoFeature
		if err := workflow.ExecuteActivity(ctx, "FixFeature", f).Get(ctx, &fixed); err != nil {
			logger.Warn("repair failed, dropping feature", "feature", f.ID, "error", err)
			continue
		}
		out.Fixed++
		kept = append(kept, fixed)
	}
	out.Features = kept

	// Step 4: Publish
	if input.Publish && len(kept) > 0 {
		source := input.Document.Source
		if source == "" {
			source = string(input.Document.Format)
		}
		if err := workflow.ExecuteActivity(ctx, "PublishFeatures", source, kept).Get(ctx, nil); err != nil {
			return nil, err
		}
	}

	logger.Info("Georeference complete", "extracted", out.Extracted, "kept", len(kept), "invalid", out.Invalid)
	return out, nil
}
