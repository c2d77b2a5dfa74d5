package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"
)

// Boundary detection defaults.
const (
	DefaultTopCandidates     = 8
	DefaultBoundaryResDeg    = 0.25
	DefaultBoundaryRadiusDeg = 1.0
)

// ScoredStations carries the per-station boundary scoring that backs both
// the ranked candidate list and the gridded likelihood field. Combined is
// the max score across available variables, with unusable scores as 0.
type ScoredStations struct {
	Lons     []float64
	Lats     []float64
	Combined []float64
}

// DetectBoundaries scores every usable station for surface gradients in
// dewpoint, temperature and wind direction, and returns the top-N ranked
// boundary candidates along with the scored station set for gridding.
//
// Stations without finite latitude/longitude are dropped; a variable
// nobody reports is skipped. A non-empty input in which no station has
// geometry returns ErrMissingGeometry.
func DetectBoundaries(stations []StationObservation, topN, neighbors int) ([]BoundaryCandidate, *ScoredStations, error) {
	if topN <= 0 {
		topN = DefaultTopCandidates
	}
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}

	ids := make([]string, 0, len(stations))
	lons := make([]float64, 0, len(stations))
	lats := make([]float64, 0, len(stations))
	dew := make([]float64, 0, len(stations))
	temp := make([]float64, 0, len(stations))
	wind := make([]float64, 0, len(stations))
	for _, st := range stations {
		if !isFinite(st.Lat) || !isFinite(st.Lon) {
			continue
		}
		ids = append(ids, st.StationID)
		lons = append(lons, NormalizeLon(st.Lon))
		lats = append(lats, st.Lat)
		dew = append(dew, optValue(st.DewpointC))
		temp = append(temp, optValue(st.TempC))
		wind = append(wind, optValue(st.WindDirDeg))
	}
	if len(lons) == 0 {
		if len(stations) == 0 {
			return nil, &ScoredStations{}, nil
		}
		return nil, nil, ErrMissingGeometry
	}

	scored := &ScoredStations{
		Lons:     lons,
		Lats:     lats,
		Combined: make([]float64, len(lons)),
	}

	var candidates []BoundaryCandidate
	for _, v := range []struct {
		kind   BoundaryKind
		values []float64
		score  func(lons, lats, values []float64, k int) []float64
	}{
		{KindDewpoint, dew, GradientScores},
		{KindTemp, temp, GradientScores},
		{KindWindShift, wind, WindShiftScores},
	} {
		if !anyFinite(v.values) {
			continue
		}
		scores := v.score(lons, lats, v.values, neighbors)
		for i, s := range scores {
			if isFinite(s) && s > scored.Combined[i] {
				scored.Combined[i] = s
			}
		}
		candidates = append(candidates, topCandidates(ids, lons, lats, scores, v.kind, topN)...)
	}

	// Rank across variables and keep the overall top-N. Ties break on
	// kind then position for determinism.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates, scored, nil
}

// topCandidates picks the top-N stations by score for one variable.
// Scores must be finite and positive to qualify.
func topCandidates(ids []string, lons, lats, scores []float64, kind BoundaryKind, topN int) []BoundaryCandidate {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	out := make([]BoundaryCandidate, 0, topN)
	for _, i := range order {
		if len(out) == topN {
			break
		}
		if !isFinite(scores[i]) || scores[i] <= 0 {
			break
		}
		out = append(out, BoundaryCandidate{
			StationID: ids[i],
			Lat:       lats[i],
			Lon:       lons[i],
			Score:     scores[i],
			Kind:      kind,
		})
	}
	return out
}

// BoundaryGrid rasterizes scored stations onto a regular grid over bbox.
// Each cell takes the max combined score of stations within radiusDeg
// (planar degrees), then the grid is normalized to [0,1] against the 95th
// percentile of its non-zero cells. An all-zero grid stays all zero.
func BoundaryGrid(scored *ScoredStations, bbox BBox, resDeg, radiusDeg float64) GridField {
	if resDeg <= 0 {
		resDeg = DefaultBoundaryResDeg
	}
	if radiusDeg <= 0 {
		radiusDeg = DefaultBoundaryRadiusDeg
	}

	lats := degRange(bbox.LatMin, bbox.LatMax, resDeg)
	lons := degRange(bbox.LonMin, bbox.LonMax, resDeg)
	grid := GridField{Lons: lons, Lats: lats, Values: make([][]float64, len(lats))}
	for i := range grid.Values {
		grid.Values[i] = make([]float64, len(lons))
	}
	if scored == nil || len(scored.Lons) == 0 {
		return grid
	}

	tree := newStationTree(scored.Lons, scored.Lats)
	r2 := radiusDeg * radiusDeg
	for i, lat := range lats {
		for j, lon := range lons {
			keep := kdtree.NewDistKeeper(r2)
			tree.NearestSet(keep, stationPoint{Point: kdtree.Point{lon, lat}, index: -1})

			best := 0.0
			for _, c := range keep.Heap {
				sp, ok := c.Comparable.(stationPoint)
				if !ok {
					continue
				}
				if s := scored.Combined[sp.index]; s > best {
					best = s
				}
			}
			grid.Values[i][j] = best
		}
	}

	normalizeGrid(grid)
	return grid
}

// normalizeGrid scales values by the 95th percentile of non-zero cells
// and clips to [0,1]. No positive cells means nothing to scale.
func normalizeGrid(grid GridField) {
	var nonzero []float64
	for _, row := range grid.Values {
		for _, v := range row {
			if v > 0 {
				nonzero = append(nonzero, v)
			}
		}
	}
	if len(nonzero) == 0 {
		return
	}
	sort.Float64s(nonzero)
	p95 := stat.Quantile(0.95, stat.LinInterp, nonzero, nil)
	if p95 <= 0 {
		p95 = 1.0
	}
	for _, row := range grid.Values {
		for j, v := range row {
			row[j] = math.Min(1, math.Max(0, v/p95))
		}
	}
}

// degRange is an inclusive arange over [lo, hi] with the given step.
func degRange(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func optValue(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func anyFinite(values []float64) bool {
	for _, v := range values {
		if isFinite(v) {
			return true
		}
	}
	return false
}
