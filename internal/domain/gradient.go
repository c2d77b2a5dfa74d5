package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"
)

// DefaultNeighbors is the neighbor count for gradient scoring.
const DefaultNeighbors = 6

// GradientScores estimates a robust local gradient magnitude at every
// station: the median of |Δvalue|/distance over the k nearest neighbors,
// in value units per degree. Inputs are co-indexed; values may hold NaN
// for stations missing the variable. Stations with no valid neighbor pair
// score 0.
func GradientScores(lons, lats, values []float64, k int) []float64 {
	return knnScores(lons, lats, values, k, func(vi, vj float64) float64 {
		return math.Abs(vj - vi)
	})
}

// WindShiftScores is the angular variant of GradientScores for wind
// direction: circular difference in degrees-of-turn per degree of
// distance, wrap-safe at 0/360.
func WindShiftScores(lons, lats, dirs []float64, k int) []float64 {
	return knnScores(lons, lats, dirs, k, angularDiffDeg)
}

// knnScores runs a k-nearest-neighbor query per station and reduces the
// per-neighbor diff/distance ratios with a median. diff must return NaN
// when either value is NaN so invalid pairs drop out.
func knnScores(lons, lats, values []float64, k int, diff func(vi, vj float64) float64) []float64 {
	scores := make([]float64, len(values))
	if len(values) < 2 || k < 1 {
		return scores
	}

	tree := newStationTree(lons, lats)
	ratios := make([]float64, 0, k)
	for i := range values {
		if !isFinite(values[i]) {
			continue
		}

		// k+1 because the query point is its own nearest neighbor.
		keep := kdtree.NewNKeeper(k + 1)
		tree.NearestSet(keep, stationPoint{Point: kdtree.Point{lons[i], lats[i]}, index: i})

		ratios = ratios[:0]
		for _, c := range keep.Heap {
			sp, ok := c.Comparable.(stationPoint)
			if !ok || sp.index == i {
				continue
			}
			// c.Dist is squared degrees; zero-distance pairs are degenerate.
			if c.Dist <= 0 {
				continue
			}
			d := diff(values[i], values[sp.index])
			if !isFinite(d) {
				continue
			}
			ratios = append(ratios, d/math.Sqrt(c.Dist))
		}
		if len(ratios) == 0 {
			continue
		}
		sort.Float64s(ratios)
		scores[i] = stat.Quantile(0.5, stat.LinInterp, ratios, nil)
	}
	return scores
}
