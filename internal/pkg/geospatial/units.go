package geospatial

import "math"

const (
	metersPerFoot    = 0.3048
	metersPerDegree  = 111320.0
	sqMetersPerAcre  = 4046.8564224
	sqMetersPerHecta = 10000.0
)

func MetersToFeet(m float64) float64  { return m / metersPerFoot }
func FeetToMeters(ft float64) float64 { return ft * metersPerFoot }

// DegreesToMeters approximates the ground length of deg degrees of
// longitude at latitude. Pass 0 for degrees of latitude.
func DegreesToMeters(deg, latitude float64) float64 {
	return deg * metersPerDegree * math.Cos(toRad(latitude))
}

// MetersToDegrees is the inverse of DegreesToMeters.
func MetersToDegrees(m, latitude float64) float64 {
	return m / (metersPerDegree * math.Cos(toRad(latitude)))
}

func SqMetersToAcres(sqm float64) float64    { return sqm / sqMetersPerAcre }
func SqMetersToHectares(sqm float64) float64 { return sqm / sqMetersPerHecta }
func AcresToSqMeters(acres float64) float64  { return acres * sqMetersPerAcre }
func HectaresToSqMeters(ha float64) float64  { return ha * sqMetersPerHecta }
