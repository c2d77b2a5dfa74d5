// Package domain implements the storm nowcasting core: storm-object
// detection on a composite reflectivity grid, centroid tracking across
// refresh cycles, motion extrapolation, boundary detection from surface
// observations, and impact assessment against fixed targets.
//
// # Coordinate and Unit Conventions
//
// Latitudes and longitudes are decimal degrees, longitudes normalized to
// [-180, 180). Distances are kilometers on a spherical Earth of radius
// 6371 km. Bearings are degrees clockwise from true north in [0, 360).
// Speeds are km/h, durations minutes. Gradient scoring and the boundary
// grid work in planar lon/lat degree space, consistent with the
// equirectangular treatment used for segment distances; scores are field
// units per degree of separation.
//
// # Grid Layout
//
// [GridField] is row-major: Values[i][j] holds the sample at latitude
// Lats[i] and longitude Lons[j]. Both axes are expected to be monotonic;
// cells may hold NaN where the mosaic has no coverage. NaN cells never
// satisfy a detection threshold and never join a storm object.
//
// # Storm IDs
//
// Objects are identified as "S01", "S02", ... where the number is the
// 1-based position of the object in the detection ordering (strongest
// first) at the cycle that minted it. An object keeps its ID for as long
// as the tracker matches it cycle over cycle, so the digits say nothing
// about current rank. IDs are reused after an object dissipates; consumers
// that need global uniqueness should key on (cycle timestamp, ID).
//
// # Tracking Semantics
//
// [TrackObjects] is a greedy one-pass matcher: current detections are
// visited in detection order and each claims its nearest unclaimed
// predecessor within the gate distance. It is deliberately not an optimal
// assignment; storm counts are small and the greedy result is stable and
// cheap. Previous IDs left unclaimed are reported as dissipated.
//
// # Motion Confidence
//
// Motion estimates carry a confidence label ("high", "med", "low") driven
// by displacement magnitude and cycle cadence. Forecast uncertainty cones
// inflate for med and low confidence. A clamped cycle gap at the low end
// (observations closer than 5 minutes apart) reuses the previous motion
// rather than trusting a near-zero baseline.
package domain
