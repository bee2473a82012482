package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCRSResolution is returned when an identifier cannot be interpreted
	// as a coordinate reference system.
	ErrCRSResolution = errors.New("crs resolution failed")
	// ErrTransform is returned when no pipeline can be built or applied
	// between two reference systems.
	ErrTransform = errors.New("transform failed")
	// ErrParseFormat is returned by the single-value coordinate parsers.
	ErrParseFormat = errors.New("coordinate format not recognised")
	// ErrDependencyUnavailable is returned when an optional decoder is not
	// configured.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrEmptyInput is returned by batch operations given no coordinates.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnsupportedFormat is returned for document formats with no reader.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrDocumentTooLarge is returned when a payload exceeds the configured
	// extraction limit.
	ErrDocumentTooLarge = errors.New("document too large")
)

// CRSResolutionError records the identifier that failed to parse.
type CRSResolutionError struct {
	Input string
	Err   error
}

func (e *CRSResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve CRS %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("cannot resolve CRS %q", e.Input)
}

func (e *CRSResolutionError) Is(target error) bool { return target == ErrCRSResolution }

func (e *CRSResolutionError) Unwrap() error { return e.Err }

// TransformError records the reference system pair that failed.
type TransformError struct {
	From, To string
	Err      error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s -> %s: %v", e.From, e.To, e.Err)
	}
	return fmt.Sprintf("transform %s -> %s failed", e.From, e.To)
}

func (e *TransformError) Is(target error) bool { return target == ErrTransform }

func (e *TransformError) Unwrap() error { return e.Err }

// ParseFormatError is raised when a single-value parser is handed input it
// does not recognise.
type ParseFormatError struct {
	Kind  string
	Input string
}

func (e *ParseFormatError) Error() string {
	return fmt.Sprintf("Cannot parse %s string: %q", e.Kind, e.Input)
}

func (e *ParseFormatError) Is(target error) bool { return target == ErrParseFormat }

// DependencyUnavailableError names the decoder that is missing.
type DependencyUnavailableError struct {
	Dependency string
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("%s decoder is not configured", e.Dependency)
}

func (e *DependencyUnavailableError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

// ValidationResult is the outcome of a geometry or coordinate check.
// Invalid input is reported here, never as an error.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// NewValidationResult derives validity from the collected issues.
func NewValidationResult(issues []string) ValidationResult {
	if issues == nil {
		issues = []string{}
	}
	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}
