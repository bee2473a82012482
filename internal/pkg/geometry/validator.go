package geometry

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoscrape/internal/core/domain"
)

const (
	issueEmpty            = "Geometry is empty"
	issueWinding          = "Exterior ring is not counter-clockwise (RFC 7946)"
	issueSelfIntersection = "Geometry has self-intersections"
)

// Validator checks geometries for OGC validity and GeoJSON winding order.
type Validator struct{}

// NewValidator returns a Validator.
func NewValidator() *Validator { return &Validator{} }

// Validate lists every problem found with g. An empty geometry stops the
// checks early. A polygon with a clockwise exterior is reported as invalid
// even though GEOS accepts it.
func (v *Validator) Validate(g orb.Geometry) (domain.ValidationResult, error) {
	if isEmpty(g) {
		return domain.NewValidationResult([]string{issueEmpty}), nil
	}
	valid, reason, err := validity(g)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	var issues []string
	if !valid {
		issues = append(issues, "Invalid geometry: "+reason)
	}
	if _, ok := g.(orb.Polygon); ok {
		if !v.CheckWindingOrder(g) {
			issues = append(issues, issueWinding)
		}
		if !valid && strings.Contains(reason, "Self-intersection") {
			issues = append(issues, issueSelfIntersection)
		}
	}
	return domain.NewValidationResult(issues), nil
}

// FixTopology returns g unchanged when it is valid, otherwise the GEOS
// make-valid repair of it. The repaired type may differ from the input.
func (v *Validator) FixTopology(g orb.Geometry) (orb.Geometry, error) {
	gg, err := toGEOS(g)
	if err != nil {
		return nil, err
	}
	if gg.IsValid() {
		return g, nil
	}
	return fromGEOS(gg.MakeValid())
}

// CheckWindingOrder reports whether a polygon's exterior ring runs
// counter-clockwise. It is true for every other geometry type.
func (v *Validator) CheckWindingOrder(g orb.Geometry) bool {
	p, ok := g.(orb.Polygon)
	if !ok || len(p) == 0 || len(p[0]) == 0 {
		return true
	}
	return p[0].Orientation() == orb.CCW
}

// CheckSelfIntersection reports whether GEOS rejects g because of a
// self-intersection.
func (v *Validator) CheckSelfIntersection(g orb.Geometry) (bool, error) {
	valid, reason, err := validity(g)
	if err != nil || valid {
		return false, err
	}
	return strings.Contains(reason, "Self-intersection"), nil
}

func validity(g orb.Geometry) (bool, string, error) {
	gg, err := toGEOS(g)
	if err != nil {
		return false, "", err
	}
	if gg.IsValid() {
		return true, "", nil
	}
	return false, gg.IsValidReason(), nil
}
