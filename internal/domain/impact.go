package domain

import (
	"math"
	"sort"
)

// DefaultImpactRadiusKm is the path-to-target distance gate for impact hits.
const DefaultImpactRadiusKm = 50.0

// ForecastHorizon selects which forecast leg ImpactHits evaluates.
type ForecastHorizon int

const (
	Horizon30Min ForecastHorizon = 30
	Horizon60Min ForecastHorizon = 60
)

// ImpactHits intersects each object's current-to-forecast segment with the
// target list. A target within radiusKm of the segment produces a hit;
// objects without a forecast at the chosen horizon are skipped. ETA is the
// straight-line current-to-target distance over smoothed speed, a
// deliberate approximation of along-path timing. Hits sort by distance
// ascending, ties by max intensity descending.
func ImpactHits(objects []StormObject, targets []Target, radiusKm float64, horizon ForecastHorizon) []ImpactHit {
	if radiusKm <= 0 {
		radiusKm = DefaultImpactRadiusKm
	}

	var hits []ImpactHit
	for _, obj := range objects {
		forecast := obj.Forecast60
		if horizon == Horizon30Min {
			forecast = obj.Forecast30
		}
		if forecast == nil {
			continue
		}
		cur := Point{Lat: obj.Lat, Lon: obj.Lon}

		for _, tgt := range targets {
			p := Point{Lat: tgt.Lat, Lon: tgt.Lon}
			d := PointToSegmentKm(p, cur, *forecast)
			if d > radiusKm {
				continue
			}

			hit := ImpactHit{
				StormID:      obj.ID,
				Target:       tgt.Name,
				DistKm:       math.Round(d*10) / 10,
				MaxComposite: obj.MaxComposite,
			}
			if m := obj.Motion; m != nil && m.SpeedKmh > 0 {
				eta := math.Round(HaversineKm(obj.Lat, obj.Lon, tgt.Lat, tgt.Lon) / m.SpeedKmh * 60)
				speed := m.SpeedKmh
				bearing := m.BearingDeg
				hit.EtaMin = &eta
				hit.SpeedKmh = &speed
				hit.BearingDeg = &bearing
			}
			hits = append(hits, hit)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistKm != hits[j].DistKm {
			return hits[i].DistKm < hits[j].DistKm
		}
		return hits[i].MaxComposite > hits[j].MaxComposite
	})
	return hits
}
