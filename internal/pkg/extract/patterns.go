package extract

import "regexp"

var (
	// ddPairPattern matches "40.7128, -74.0060" and "40.7128° N, 74.0060° W".
	ddPairPattern = regexp.MustCompile(
		`(?P<lat>[+-]?\d{1,3}\.\d{2,10})\s*°?\s*(?P<lat_h>[NSns])?` +
			`\s*[,;\s/]+\s*` +
			`(?P<lon>[+-]?\d{1,3}\.\d{2,10})\s*°?\s*(?P<lon_h>[EWew])?`)

	// dmsPattern matches 40°42'46"N.
	dmsPattern = regexp.MustCompile(
		`(?P<d>\d{1,3})\s*[°]\s*` +
			`(?P<m>\d{1,2})\s*[′']\s*` +
			`(?P<s>\d{1,2}(?:\.\d+)?)\s*[″"]?\s*` +
			`(?P<h>[NSEWnsew])`)

	// ddmPattern matches 40°42.766'N.
	ddmPattern = regexp.MustCompile(
		`(?P<d>\d{1,3})\s*[°]\s*` +
			`(?P<m>\d{1,2}(?:\.\d+)?)\s*[′']\s*` +
			`(?P<h>[NSEWnsew])`)

	// utmPattern matches 18T 583960 4507523.
	utmPattern = regexp.MustCompile(
		`(?P<zone>\d{1,2})\s*(?P<letter>[C-Xc-x])\s+` +
			`(?P<easting>\d{5,7}(?:\.\d+)?)\s+` +
			`(?P<northing>\d{5,8}(?:\.\d+)?)`)

	// mgrsPattern matches 18TWL8396007523 at any precision.
	mgrsPattern = regexp.MustCompile(`\d{1,2}[C-Xc-x][A-Za-z]{2}\d{4,10}`)

	geohashPattern = regexp.MustCompile(`(?i)\b[0-9b-hjkmnp-z]{5,12}\b`)

	metaSeparator = regexp.MustCompile(`[;,]`)
)

// group returns the named submatch, or "" when it did not participate.
func group(re *regexp.Regexp, m []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(m) {
		return ""
	}
	return m[i]
}
