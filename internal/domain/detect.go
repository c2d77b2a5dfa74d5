package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Object detection defaults.
const (
	DefaultThreshold = 6.0
	DefaultMinPixels = 12
)

// DetectObjects thresholds the composite field and labels 4-connected
// regions of finite cells at or above threshold. Regions smaller than
// minPixels are discarded. The result is ordered strongest first: max
// value descending, area descending on ties.
func DetectObjects(grid GridField, threshold float64, minPixels int) []RawObject {
	if minPixels <= 0 {
		minPixels = DefaultMinPixels
	}
	rows, cols := len(grid.Lats), len(grid.Lons)
	if rows == 0 || cols == 0 {
		return nil
	}

	labels := make([]int, rows*cols)
	pxArea := pixelAreaKm2(grid.Lats, grid.Lons)

	var objects []RawObject
	next := 0
	stack := make([][2]int, 0, 64)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if labels[y*cols+x] != 0 || !cellOn(grid, y, x, threshold) {
				continue
			}
			next++

			// Flood fill one 4-connected region.
			var (
				sumY, sumX, sum float64
				maxVal          = math.Inf(-1)
				count           int
			)
			stack = append(stack[:0], [2]int{y, x})
			labels[y*cols+x] = next
			for len(stack) > 0 {
				c := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cy, cx := c[0], c[1]

				v := grid.Values[cy][cx]
				sumY += float64(cy)
				sumX += float64(cx)
				sum += v
				if v > maxVal {
					maxVal = v
				}
				count++

				for _, n := range [4][2]int{{cy - 1, cx}, {cy + 1, cx}, {cy, cx - 1}, {cy, cx + 1}} {
					ny, nx := n[0], n[1]
					if ny < 0 || ny >= rows || nx < 0 || nx >= cols {
						continue
					}
					if labels[ny*cols+nx] != 0 || !cellOn(grid, ny, nx, threshold) {
						continue
					}
					labels[ny*cols+nx] = next
					stack = append(stack, [2]int{ny, nx})
				}
			}

			if count < minPixels {
				continue
			}

			// Centroid snaps to the nearest whole grid index before the
			// coordinate lookup; no sub-pixel interpolation.
			cy := int(math.Round(sumY / float64(count)))
			cx := int(math.Round(sumX / float64(count)))
			cy = min(max(cy, 0), rows-1)
			cx = min(max(cx, 0), cols-1)

			objects = append(objects, RawObject{
				Lat:           grid.Lats[cy],
				Lon:           grid.Lons[cx],
				AreaKm2:       float64(count) * pxArea,
				MaxComposite:  maxVal,
				MeanComposite: sum / float64(count),
			})
		}
	}

	sort.SliceStable(objects, func(i, j int) bool {
		if objects[i].MaxComposite != objects[j].MaxComposite {
			return objects[i].MaxComposite > objects[j].MaxComposite
		}
		return objects[i].AreaKm2 > objects[j].AreaKm2
	})
	return objects
}

func cellOn(grid GridField, y, x int, threshold float64) bool {
	v := grid.Values[y][x]
	return isFinite(v) && v >= threshold
}

// pixelAreaKm2 estimates the area of one grid cell from the median axis
// spacing, scaled by 111 km per degree latitude and 111·cos(lat) km per
// degree longitude at the grid's median latitude. Floored at 0.1 km² so
// degenerate spacing cannot zero out object areas.
func pixelAreaKm2(lats, lons []float64) float64 {
	dLat := medianSpacing(lats)
	dLon := medianSpacing(lons)
	midLat := lats[len(lats)/2]
	area := dLat * kmPerDegLat * dLon * kmPerDegLat * math.Cos(midLat*degToRad)
	return math.Max(area, 0.1)
}

func medianSpacing(coords []float64) float64 {
	if len(coords) < 2 {
		return 1.0
	}
	diffs := make([]float64, len(coords)-1)
	for i := 1; i < len(coords); i++ {
		diffs[i-1] = math.Abs(coords[i] - coords[i-1])
	}
	sort.Float64s(diffs)
	return stat.Quantile(0.5, stat.LinInterp, diffs, nil)
}
