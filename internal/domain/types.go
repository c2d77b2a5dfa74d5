package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingGeometry reports a station set with no usable latitude/longitude.
var ErrMissingGeometry = errors.New("station set has no usable latitude/longitude")

// GridField is a rectilinear scalar field. Values is row-major:
// Values[i][j] is the sample at (Lats[i], Lons[j]).
type GridField struct {
	Lons   []float64   `json:"lons"`
	Lats   []float64   `json:"lats"`
	Values [][]float64 `json:"field"`
}

// Validate checks the row-major shape invariant.
func (g GridField) Validate() error {
	if len(g.Lats) == 0 || len(g.Lons) == 0 {
		return fmt.Errorf("grid has empty axes: %d lats, %d lons", len(g.Lats), len(g.Lons))
	}
	if len(g.Values) != len(g.Lats) {
		return fmt.Errorf("grid has %d rows, want %d (one per latitude)", len(g.Values), len(g.Lats))
	}
	for i, row := range g.Values {
		if len(row) != len(g.Lons) {
			return fmt.Errorf("grid row %d has %d columns, want %d (one per longitude)", i, len(row), len(g.Lons))
		}
	}
	return nil
}

// StationObservation is one surface observation. Optional variables are
// pointers; nil means the station did not report that variable.
type StationObservation struct {
	StationID  string   `json:"station_id"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	TempC      *float64 `json:"temp_c,omitempty"`
	DewpointC  *float64 `json:"dewpoint_c,omitempty"`
	WindDirDeg *float64 `json:"wind_dir_degrees,omitempty"`
}

// BoundaryKind names the surface variable whose gradient produced a
// boundary candidate.
type BoundaryKind string

const (
	KindDewpoint  BoundaryKind = "dewpoint"
	KindTemp      BoundaryKind = "temp"
	KindWindShift BoundaryKind = "windshift"
)

// BoundaryCandidate is a station flagged as sitting on a sharp surface
// gradient, with the variable that flagged it.
type BoundaryCandidate struct {
	StationID string       `json:"station_id,omitempty"`
	Lat       float64      `json:"lat"`
	Lon       float64      `json:"lon"`
	Score     float64      `json:"score"`
	Kind      BoundaryKind `json:"kind"`
}

// Point is a geographic position.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RawObject is a detected storm object before tracking assigns identity.
type RawObject struct {
	Lat           float64
	Lon           float64
	AreaKm2       float64
	MaxComposite  float64
	MeanComposite float64
}

// Motion describes displacement between an object's previous and current
// centroid, with the smoothed speed and bearing derived from it.
type Motion struct {
	From       Point   `json:"from"`
	To         Point   `json:"to"`
	DistKm     float64 `json:"dist_km"`
	BearingDeg float64 `json:"bearing_deg"`
	SpeedKmh   float64 `json:"speed_kmh"`
	DtMin      float64 `json:"dt_min"`
}

// Motion confidence labels, ordered best to worst.
const (
	ConfidenceHigh = "high"
	ConfidenceMed  = "med"
	ConfidenceLow  = "low"
)

// StormObject is a tracked storm cell. Motion and the forecast fields are
// nil for objects with no matched predecessor (first appearance).
type StormObject struct {
	ID            string   `json:"id"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	AreaKm2       float64  `json:"area_km2"`
	MaxComposite  float64  `json:"max_composite"`
	MeanComposite float64  `json:"mean_composite"`
	Motion        *Motion  `json:"motion,omitempty"`
	Forecast30    *Point   `json:"forecast_30min,omitempty"`
	Forecast60    *Point   `json:"forecast_60min,omitempty"`
	Cone30Km      float64  `json:"cone_30_km,omitempty"`
	Cone60Km      float64  `json:"cone_60_km,omitempty"`
	Confidence    string   `json:"motion_confidence,omitempty"`
}

// TrackState is the persisted tracker snapshot carried between cycles.
type TrackState struct {
	UpdatedAt time.Time     `json:"updated_at_utc"`
	Threshold float64       `json:"threshold"`
	MinPixels int           `json:"min_pixels"`
	Objects   []StormObject `json:"objects"`
}

// Target is a fixed point of interest for impact assessment.
type Target struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// ImpactHit records a storm whose projected path passes near a target.
// EtaMin, SpeedKmh and BearingDeg are nil when the storm has no usable
// motion estimate.
type ImpactHit struct {
	StormID      string   `json:"storm_id"`
	Target       string   `json:"target"`
	DistKm       float64  `json:"dist_km"`
	EtaMin       *float64 `json:"eta_min,omitempty"`
	MaxComposite float64  `json:"max_composite"`
	SpeedKmh     *float64 `json:"speed_kmh,omitempty"`
	BearingDeg   *float64 `json:"bearing_deg,omitempty"`
}

// BBox is a latitude/longitude bounding box, degrees.
type BBox struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Nowcast is one complete analysis cycle: the tracked objects plus the
// boundary and impact products derived from them.
type Nowcast struct {
	UpdatedAt          time.Time           `json:"updated_at_utc"`
	Threshold          float64             `json:"threshold"`
	MinPixels          int                 `json:"min_pixels"`
	Objects            []StormObject       `json:"objects"`
	DissipatedIDs      []string            `json:"dissipated_ids,omitempty"`
	BoundaryCandidates []BoundaryCandidate `json:"boundary_candidates,omitempty"`
	BoundaryGrid       *GridField          `json:"boundary_grid,omitempty"`
	ImpactHits         []ImpactHit         `json:"impact_hits,omitempty"`
}

// TrackState extracts the persistable tracker snapshot from a nowcast.
func (n Nowcast) TrackState() TrackState {
	return TrackState{
		UpdatedAt: n.UpdatedAt,
		Threshold: n.Threshold,
		MinPixels: n.MinPixels,
		Objects:   n.Objects,
	}
}
