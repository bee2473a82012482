package crs

import (
	"math"
	"strconv"
	"strings"
)

// EstimatePrecision counts the decimal places of v in its shortest
// 15-significant-digit form.
func EstimatePrecision(v float64) int {
	s := strconv.FormatFloat(v, 'g', 15, 64)
	if strings.ContainsAny(s, "eE") {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(strings.TrimRight(s[i+1:], "0"))
}

// PrecisionToAccuracy converts decimal places into an approximate accuracy in
// metres. Geographic places are degrees, one degree being about 111.32 km.
func PrecisionToAccuracy(places int, geographic bool) float64 {
	if geographic {
		return 111320 / math.Pow(10, float64(places))
	}
	return math.Pow(10, -float64(places))
}
