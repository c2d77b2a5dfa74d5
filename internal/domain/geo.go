package domain

import "math"

// EarthRadiusKm is the mean spherical Earth radius used by all
// great-circle math in this package.
const EarthRadiusKm = 6371.0

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi

	// kmPerDegLat is the meridional length of one degree of latitude on
	// the spherical Earth, also used for the equirectangular approximation
	// in segment distances and pixel areas.
	kmPerDegLat = 111.0
)

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLam := (lon2 - lon1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLam := math.Sin(dLam / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLam*sinLam
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BearingDeg returns the initial great-circle bearing from the first point
// to the second, degrees clockwise from north in [0, 360). Coincident
// points yield 0.
func BearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dLam := (lon2 - lon1) * degToRad

	y := math.Sin(dLam) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLam)
	if y == 0 && x == 0 {
		return 0
	}
	return normalizeDeg(math.Atan2(y, x) * radToDeg)
}

// DestinationPoint projects from (lat, lon) along the given bearing for
// distKm along a great circle. The returned longitude is normalized to
// [-180, 180).
func DestinationPoint(lat, lon, bearingDeg, distKm float64) (destLat, destLon float64) {
	phi1 := lat * degToRad
	lam1 := lon * degToRad
	theta := bearingDeg * degToRad
	delta := distKm / EarthRadiusKm

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)
	lam2 := lam1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)
	return phi2 * radToDeg, NormalizeLon(lam2 * radToDeg)
}

// PointToSegmentKm returns the shortest distance from point p to the
// segment ab, using an equirectangular projection centered on the mean
// latitude of the three points. Accurate to a few percent at the sub-100 km
// scales of a storm's forecast leg. A degenerate segment (a == b) reduces
// to point distance.
func PointToSegmentKm(p, a, b Point) float64 {
	meanLat := (p.Lat + a.Lat + b.Lat) / 3
	kx := kmPerDegLat * math.Cos(meanLat*degToRad)

	px, py := p.Lon*kx, p.Lat*kmPerDegLat
	ax, ay := a.Lon*kx, a.Lat*kmPerDegLat
	bx, by := b.Lon*kx, b.Lat*kmPerDegLat

	dx, dy := bx-ax, by-ay
	segLen2 := dx*dx + dy*dy
	if segLen2 == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / segLen2
	t = math.Max(0, math.Min(1, t))
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

// NormalizeLon wraps a longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// normalizeDeg wraps an angle into [0, 360).
func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// angularDiffDeg returns the absolute circular difference between two
// directions in degrees, in [0, 180].
func angularDiffDeg(a, b float64) float64 {
	d := math.Mod(b-a+180, 360)
	if d < 0 {
		d += 360
	}
	return math.Abs(d - 180)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
