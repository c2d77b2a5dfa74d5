package domain

import "gonum.org/v1/gonum/spatial/kdtree"

// stationPoint ties a kd-tree coordinate to the index of the station it
// came from, so query results can be mapped back to co-indexed value
// arrays.
type stationPoint struct {
	kdtree.Point
	index int
}

func (p stationPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.Point.Compare(c.(stationPoint).Point, d)
}

func (p stationPoint) Dims() int { return p.Point.Dims() }

// Distance returns the squared Euclidean distance, per kdtree convention.
func (p stationPoint) Distance(c kdtree.Comparable) float64 {
	return p.Point.Distance(c.(stationPoint).Point)
}

// stationPoints implements kdtree.Interface for tree construction.
type stationPoints []stationPoint

func (p stationPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p stationPoints) Len() int                      { return len(p) }
func (p stationPoints) Pivot(d kdtree.Dim) int {
	return stationPlane{stationPoints: p, Dim: d}.Pivot()
}
func (p stationPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// stationPlane implements kdtree.SortSlicer over a single dimension.
type stationPlane struct {
	kdtree.Dim
	stationPoints
}

func (p stationPlane) Less(i, j int) bool {
	return p.stationPoints[i].Point[p.Dim] < p.stationPoints[j].Point[p.Dim]
}

func (p stationPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p stationPlane) Slice(start, end int) kdtree.SortSlicer {
	p.stationPoints = p.stationPoints[start:end]
	return p
}

func (p stationPlane) Swap(i, j int) {
	p.stationPoints[i], p.stationPoints[j] = p.stationPoints[j], p.stationPoints[i]
}

// newStationTree builds a kd-tree over (lon, lat) pairs in degree space.
func newStationTree(lons, lats []float64) *kdtree.Tree {
	pts := make(stationPoints, len(lons))
	for i := range lons {
		pts[i] = stationPoint{Point: kdtree.Point{lons[i], lats[i]}, index: i}
	}
	return kdtree.New(pts, false)
}
