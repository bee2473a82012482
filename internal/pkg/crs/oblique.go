package crs

import (
	"math"

	"github.com/wroge/wgs84"
)

const (
	deg = math.Pi / 180
	qpi = math.Pi / 4
)

func eccentricity(s wgs84.Spheroid) float64 {
	f := 1 / s.Fi()
	return math.Sqrt(2*f - f*f)
}

// latitudeFromIsometric inverts psi = ln tan(pi/4 + phi/2) - e*atanh(e sin phi).
func latitudeFromIsometric(psi, e float64) float64 {
	phi := 2*math.Atan(math.Exp(psi)) - math.Pi/2
	for i := 0; i < 20; i++ {
		next := 2*math.Atan(math.Exp(psi+e*math.Atanh(e*math.Sin(phi)))) - math.Pi/2
		if math.Abs(next-phi) < 1e-15 {
			return next
		}
		phi = next
	}
	return phi
}

// obliqueMercator is the Swiss double projection: ellipsoid to Gauss sphere,
// then a Mercator projection about an oblique axis through the origin.
type obliqueMercator struct {
	lon0, e         float64
	r, alpha, b0, k float64
	eastf, northf   float64
	sinB0, cosB0    float64
}

func newObliqueMercator(s wgs84.Spheroid, lat0, lon0, eastf, northf float64) obliqueMercator {
	e := eccentricity(s)
	e2 := e * e
	phi0 := lat0 * deg
	sin0 := math.Sin(phi0)
	om := obliqueMercator{lon0: lon0 * deg, e: e, eastf: eastf, northf: northf}
	om.r = s.A() * math.Sqrt(1-e2) / (1 - e2*sin0*sin0)
	om.alpha = math.Sqrt(1 + e2/(1-e2)*math.Pow(math.Cos(phi0), 4))
	om.b0 = math.Asin(sin0 / om.alpha)
	om.k = math.Log(math.Tan(qpi+om.b0/2)) - om.alpha*math.Log(math.Tan(qpi+phi0/2)) +
		om.alpha*e*math.Atanh(e*sin0)
	om.sinB0, om.cosB0 = math.Sincos(om.b0)
	return om
}

func (p obliqueMercator) FromLonLat(lon, lat float64, _ wgs84.Spheroid) (east, north float64) {
	phi := lat * deg
	s := p.alpha*math.Log(math.Tan(qpi+phi/2)) - p.alpha*p.e*math.Atanh(p.e*math.Sin(phi)) + p.k
	b := 2 * (math.Atan(math.Exp(s)) - qpi)
	l := p.alpha * (lon*deg - p.lon0)

	lb := math.Atan2(math.Sin(l), p.sinB0*math.Tan(b)+p.cosB0*math.Cos(l))
	bb := math.Asin(p.cosB0*math.Sin(b) - p.sinB0*math.Cos(b)*math.Cos(l))

	return p.eastf + p.r*lb, p.northf + p.r*math.Atanh(math.Sin(bb))
}

func (p obliqueMercator) ToLonLat(east, north float64, _ wgs84.Spheroid) (lon, lat float64) {
	y, x := east-p.eastf, north-p.northf
	lb := y / p.r
	bb := 2 * (math.Atan(math.Exp(x/p.r)) - qpi)

	b := math.Asin(p.cosB0*math.Sin(bb) + p.sinB0*math.Cos(bb)*math.Cos(lb))
	l := math.Atan2(math.Sin(lb), p.cosB0*math.Cos(lb)-p.sinB0*math.Tan(bb))

	psi := (math.Log(math.Tan(qpi+b/2)) - p.k) / p.alpha
	return (p.lon0 + l/p.alpha) / deg, latitudeFromIsometric(psi, p.e) / deg
}

// obliqueStereographic maps the ellipsoid conformally onto a sphere and
// projects that stereographically from the origin (EPSG method 9809).
type obliqueStereographic struct {
	lon0, e, n, c    float64
	rk2              float64
	sinChi0, cosChi0 float64
	eastf, northf    float64
}

func newObliqueStereographic(s wgs84.Spheroid, lat0, lon0, scale, eastf, northf float64) obliqueStereographic {
	e := eccentricity(s)
	e2 := e * e
	phi0 := lat0 * deg
	sin0 := math.Sin(phi0)
	w := 1 - e2*sin0*sin0

	rho0 := s.A() * (1 - e2) / math.Pow(w, 1.5)
	nu0 := s.A() / math.Sqrt(w)
	n := math.Sqrt(1 + e2*math.Pow(math.Cos(phi0), 4)/(1-e2))

	w1 := math.Pow((1+sin0)/(1-sin0)*math.Pow((1-e*sin0)/(1+e*sin0), e), n)
	sinChi := (w1 - 1) / (w1 + 1)
	c := (n + sin0) * (1 - sinChi) / ((n - sin0) * (1 + sinChi))
	w2 := c * w1
	chi0 := math.Asin((w2 - 1) / (w2 + 1))

	st := obliqueStereographic{
		lon0:   lon0 * deg,
		e:      e,
		n:      n,
		c:      c,
		rk2:    2 * math.Sqrt(rho0*nu0) * scale,
		eastf:  eastf,
		northf: northf,
	}
	st.sinChi0, st.cosChi0 = math.Sincos(chi0)
	return st
}

func (p obliqueStereographic) conformal(phi float64) float64 {
	sin := math.Sin(phi)
	sa := (1 + sin) / (1 - sin)
	sb := math.Pow((1-p.e*sin)/(1+p.e*sin), p.e)
	w := p.c * math.Pow(sa*sb, p.n)
	return math.Asin((w - 1) / (w + 1))
}

func (p obliqueStereographic) FromLonLat(lon, lat float64, _ wgs84.Spheroid) (east, north float64) {
	chi := p.conformal(lat * deg)
	dl := p.n * (lon*deg - p.lon0)
	sinChi, cosChi := math.Sincos(chi)
	b := 1 + sinChi*p.sinChi0 + cosChi*p.cosChi0*math.Cos(dl)
	east = p.eastf + p.rk2*cosChi*math.Sin(dl)/b
	north = p.northf + p.rk2*(sinChi*p.cosChi0-cosChi*p.sinChi0*math.Cos(dl))/b
	return east, north
}

func (p obliqueStereographic) ToLonLat(east, north float64, _ wgs84.Spheroid) (lon, lat float64) {
	x, y := east-p.eastf, north-p.northf
	rho := math.Hypot(x, y)
	chi, dl := math.Asin(p.sinChi0), 0.0
	if rho > 0 {
		cc := 2 * math.Atan(rho/p.rk2)
		sinC, cosC := math.Sincos(cc)
		chi = math.Asin(cosC*p.sinChi0 + y*sinC*p.cosChi0/rho)
		dl = math.Atan2(x*sinC, rho*p.cosChi0*cosC-y*p.sinChi0*sinC)
	}
	sinChi := math.Sin(chi)
	psi := 0.5 * math.Log((1+sinChi)/(p.c*(1-sinChi))) / p.n
	return (p.lon0 + dl/p.n) / deg, latitudeFromIsometric(psi, p.e) / deg
}

// besselSystem builds a projected system on the Bessel 1841 ellipsoid with a
// Helmert shift to WGS84.
func besselSystem(projection wgs84.Projection, area *AreaOfUse, towgs84 ...float64) wgs84.CoordinateReferenceSystem {
	p := make([]float64, 7)
	copy(p, towgs84)
	datum := wgs84.Helmert(wgs84.Bessel{}.A(), wgs84.Bessel{}.Fi(), p[0], p[1], p[2], p[3], p[4], p[5], p[6])
	if area != nil {
		datum.Area = wgs84.AreaFunc(func(lon, lat float64) bool {
			return lon >= area.West && lon <= area.East && lat >= area.South && lat <= area.North
		})
	}
	return wgs84.ProjectedReferenceSystem{Datum: datum, Projection: projection}
}

func swissLV95(area *AreaOfUse) wgs84.CoordinateReferenceSystem {
	return besselSystem(
		newObliqueMercator(wgs84.Bessel{}, 46.9524055555556, 7.43958333333333, 2600000, 1200000),
		area, 674.374, 15.056, 405.346)
}

func dutchRD(area *AreaOfUse) wgs84.CoordinateReferenceSystem {
	return besselSystem(
		newObliqueStereographic(wgs84.Bessel{}, 52.1561605555556, 5.38763888888889, 0.9999079, 155000, 463000),
		area, 565.417, 50.3319, 465.552, -0.398957, 0.343988, -1.8774, 4.0725)
}
