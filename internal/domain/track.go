package domain

import (
	"fmt"
	"sort"
)

// DefaultMaxMatchKm is the centroid-distance gate for track association.
const DefaultMaxMatchKm = 60.0

// TrackObjects assigns persistent IDs to this cycle's detections by greedy
// nearest-centroid matching against the previous cycle's objects.
//
// Detections are visited in detector order (strongest first). Each claims
// the closest previous object not yet claimed, if it lies within
// maxMatchKm; otherwise a fresh "S%02d" ID is minted from the detection's
// 1-based position. A previous object is consumed by at most one
// detection. The second return value lists previous IDs left unclaimed,
// sorted, so callers can observe dissipated tracks.
func TrackObjects(current []RawObject, previous []StormObject, maxMatchKm float64) ([]StormObject, []string) {
	if maxMatchKm <= 0 {
		maxMatchKm = DefaultMaxMatchKm
	}

	used := make([]bool, len(previous))
	objects := make([]StormObject, 0, len(current))
	for i, cur := range current {
		bestIdx := -1
		bestDist := 0.0
		for j, prev := range previous {
			if used[j] {
				continue
			}
			d := HaversineKm(cur.Lat, cur.Lon, prev.Lat, prev.Lon)
			if bestIdx == -1 || d < bestDist {
				bestIdx, bestDist = j, d
			}
		}

		id := fmt.Sprintf("S%02d", i+1)
		if bestIdx >= 0 && bestDist <= maxMatchKm {
			used[bestIdx] = true
			if prevID := previous[bestIdx].ID; prevID != "" {
				id = prevID
			}
		}

		objects = append(objects, StormObject{
			ID:            id,
			Lat:           cur.Lat,
			Lon:           cur.Lon,
			AreaKm2:       cur.AreaKm2,
			MaxComposite:  cur.MaxComposite,
			MeanComposite: cur.MeanComposite,
		})
	}

	var dissipated []string
	for j, prev := range previous {
		if !used[j] && prev.ID != "" {
			dissipated = append(dissipated, prev.ID)
		}
	}
	sort.Strings(dissipated)
	return objects, dissipated
}
