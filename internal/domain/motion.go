package domain

import (
	"math"
	"time"
)

// Motion estimation constants.
const (
	// smoothingAlpha is the blend weight for the newest measurement in
	// the exponential speed/bearing smoother.
	smoothingAlpha = 0.30

	// minDtMin and maxDtMin clamp the elapsed time between cycles to
	// reject pathological timestamps.
	minDtMin = 5.0
	maxDtMin = 120.0
)

// EstimateMotion enriches tracked objects with motion, 30/60-minute
// forecast positions and uncertainty cones, by comparing each object
// against its same-ID predecessor in the previous cycle. Objects with no
// predecessor are returned untouched: a single observation has no
// velocity. now is the current cycle's timestamp.
func EstimateMotion(objects []StormObject, previous TrackState, now time.Time) []StormObject {
	prevByID := make(map[string]StormObject, len(previous.Objects))
	for _, p := range previous.Objects {
		if p.ID != "" {
			prevByID[p.ID] = p
		}
	}

	dtMin := now.Sub(previous.UpdatedAt).Minutes()
	dtMin = math.Max(minDtMin, math.Min(maxDtMin, dtMin))

	out := make([]StormObject, len(objects))
	for i, obj := range objects {
		out[i] = obj
		pred, ok := prevByID[obj.ID]
		if !ok {
			continue
		}

		distKm := HaversineKm(pred.Lat, pred.Lon, obj.Lat, obj.Lon)
		rawBearing := BearingDeg(pred.Lat, pred.Lon, obj.Lat, obj.Lon)
		rawSpeed := distKm / (dtMin / 60)

		var speed, bearing float64
		switch {
		case dtMin <= minDtMin && pred.Motion != nil:
			// Re-run within the clamp floor: the instantaneous estimate
			// is dominated by timestamp noise, carry the previous motion.
			speed = pred.Motion.SpeedKmh
			bearing = pred.Motion.BearingDeg
		case pred.Motion != nil:
			speed = (1-smoothingAlpha)*pred.Motion.SpeedKmh + smoothingAlpha*rawSpeed
			bearing = blendBearing(pred.Motion.BearingDeg, rawBearing)
		default:
			speed = rawSpeed
			bearing = rawBearing
		}

		confidence := classifyConfidence(distKm, dtMin)

		out[i].Motion = &Motion{
			From:       Point{Lat: pred.Lat, Lon: pred.Lon},
			To:         Point{Lat: obj.Lat, Lon: obj.Lon},
			DistKm:     distKm,
			BearingDeg: bearing,
			SpeedKmh:   speed,
			DtMin:      dtMin,
		}
		out[i].Confidence = confidence

		lat30, lon30 := DestinationPoint(obj.Lat, obj.Lon, bearing, speed*0.5)
		lat60, lon60 := DestinationPoint(obj.Lat, obj.Lon, bearing, speed*1.0)
		out[i].Forecast30 = &Point{Lat: lat30, Lon: lon30}
		out[i].Forecast60 = &Point{Lat: lat60, Lon: lon60}

		cone30, cone60 := coneRadiiKm(obj.AreaKm2, speed, confidence)
		out[i].Cone30Km = cone30
		out[i].Cone60Km = cone60
	}
	return out
}

// blendBearing smooths two bearings on the unit circle with
// smoothingAlpha weight on the new one. A (near) zero resultant vector
// means the angles cancel; fall back to the new bearing.
func blendBearing(prevDeg, newDeg float64) float64 {
	ux := (1-smoothingAlpha)*math.Cos(prevDeg*degToRad) + smoothingAlpha*math.Cos(newDeg*degToRad)
	uy := (1-smoothingAlpha)*math.Sin(prevDeg*degToRad) + smoothingAlpha*math.Sin(newDeg*degToRad)
	if math.Hypot(ux, uy) < 1e-9 {
		return newDeg
	}
	return normalizeDeg(math.Atan2(uy, ux) * radToDeg)
}

func classifyConfidence(distKm, dtMin float64) string {
	switch {
	case distKm <= 30 && dtMin >= 15 && dtMin <= 90:
		return ConfidenceHigh
	case distKm <= 60 && dtMin >= 10 && dtMin <= 110:
		return ConfidenceMed
	default:
		return ConfidenceLow
	}
}

// coneRadiiKm derives uncertainty-cone radii from object size and speed,
// inflated for lower confidence.
func coneRadiiKm(areaKm2, speedKmh float64, confidence string) (cone30, cone60 float64) {
	sizeTerm := math.Min(math.Sqrt(areaKm2)*0.15, 40)
	speedTerm := math.Min(speedKmh*0.25, 60)
	cone30 = 20 + 0.5*sizeTerm + 0.5*speedTerm
	cone60 = 35 + 0.8*sizeTerm + 0.8*speedTerm

	switch confidence {
	case ConfidenceMed:
		cone30 *= 1.15
		cone60 *= 1.15
	case ConfidenceLow:
		cone30 *= 1.35
		cone60 *= 1.35
	}
	return cone30, cone60
}
