package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cycleTime = time.Date(2026, time.May, 4, 22, 0, 0, 0, time.UTC)

func prevState(updatedAt time.Time, objs ...StormObject) TrackState {
	return TrackState{UpdatedAt: updatedAt, Threshold: 6.0, MinPixels: 12, Objects: objs}
}

func TestEstimateMotion(t *testing.T) {
	t.Run("60 km due east over 60 minutes", func(t *testing.T) {
		start := StormObject{ID: "S01", Lat: 0, Lon: 0, AreaKm2: 100, MaxComposite: 8}
		destLat, destLon := DestinationPoint(0, 0, 90, 60)
		cur := []StormObject{{ID: "S01", Lat: destLat, Lon: destLon, AreaKm2: 100, MaxComposite: 8}}

		out := EstimateMotion(cur, prevState(cycleTime.Add(-60*time.Minute), start), cycleTime)
		require.Len(t, out, 1)
		m := out[0].Motion
		require.NotNil(t, m)

		assert.InDelta(t, 60.0, m.DistKm, 1e-6)
		assert.InDelta(t, 60.0, m.DtMin, 1e-9)
		// No prior motion: smoothed values equal the raw measurement.
		assert.InDelta(t, 60.0, m.SpeedKmh, 1e-6)
		assert.InDelta(t, 90.0, m.BearingDeg, 0.5)
	})

	t.Run("no predecessor means no motion", func(t *testing.T) {
		cur := []StormObject{{ID: "S02", Lat: 35, Lon: -97, AreaKm2: 50}}
		prev := prevState(cycleTime.Add(-30*time.Minute), StormObject{ID: "S01", Lat: 34, Lon: -98})

		out := EstimateMotion(cur, prev, cycleTime)
		require.Len(t, out, 1)
		assert.Nil(t, out[0].Motion)
		assert.Nil(t, out[0].Forecast30)
		assert.Nil(t, out[0].Forecast60)
		assert.Zero(t, out[0].Cone30Km)
		assert.Empty(t, out[0].Confidence)
	})

	t.Run("smoothing blends prior and new speed", func(t *testing.T) {
		destLat, destLon := DestinationPoint(35, -97, 90, 30)
		prev := prevState(cycleTime.Add(-30*time.Minute), StormObject{
			ID: "S01", Lat: 35, Lon: -97, AreaKm2: 100,
			Motion: &Motion{SpeedKmh: 40, BearingDeg: 90},
		})
		cur := []StormObject{{ID: "S01", Lat: destLat, Lon: destLon, AreaKm2: 100}}

		out := EstimateMotion(cur, prev, cycleTime)
		m := out[0].Motion
		require.NotNil(t, m)
		// Raw speed is 60 km/h; smoothed = 0.7*40 + 0.3*60 = 46.
		assert.InDelta(t, 46.0, m.SpeedKmh, 0.1)
		assert.InDelta(t, 90.0, m.BearingDeg, 1.0)
	})

	t.Run("bearing smoothing is wrap-safe", func(t *testing.T) {
		// Prior bearing 350, new movement due north-northeast of it at 10:
		// blend must land near due north, not near 248.
		got := blendBearing(350, 10)
		assert.True(t, got >= 350 || got <= 10, "blend of 350 and 10 stays near north, got %v", got)
	})

	t.Run("immediate rerun reuses previous motion", func(t *testing.T) {
		prev := prevState(cycleTime.Add(-1*time.Minute), StormObject{
			ID: "S01", Lat: 35, Lon: -97, AreaKm2: 100,
			Motion: &Motion{SpeedKmh: 42, BearingDeg: 65},
		})
		cur := []StormObject{{ID: "S01", Lat: 35.01, Lon: -97, AreaKm2: 100}}

		out := EstimateMotion(cur, prev, cycleTime)
		m := out[0].Motion
		require.NotNil(t, m)
		assert.Equal(t, 42.0, m.SpeedKmh)
		assert.Equal(t, 65.0, m.BearingDeg)
		assert.Equal(t, 5.0, m.DtMin, "dt clamps to the floor")
	})

	t.Run("dt clamps to the ceiling", func(t *testing.T) {
		prev := prevState(cycleTime.Add(-6*time.Hour), StormObject{ID: "S01", Lat: 35, Lon: -97})
		cur := []StormObject{{ID: "S01", Lat: 35.2, Lon: -97}}

		out := EstimateMotion(cur, prev, cycleTime)
		require.NotNil(t, out[0].Motion)
		assert.Equal(t, 120.0, out[0].Motion.DtMin)
	})

	t.Run("forecast extrapolates along the smoothed bearing", func(t *testing.T) {
		destLat, destLon := DestinationPoint(35, -97, 90, 30)
		prev := prevState(cycleTime.Add(-30*time.Minute), StormObject{ID: "S01", Lat: 35, Lon: -97, AreaKm2: 100})
		cur := []StormObject{{ID: "S01", Lat: destLat, Lon: destLon, AreaKm2: 100}}

		out := EstimateMotion(cur, prev, cycleTime)
		obj := out[0]
		require.NotNil(t, obj.Forecast30)
		require.NotNil(t, obj.Forecast60)

		// Speed 60 km/h: 30 km out at 30 min, 60 km at 60 min.
		d30 := HaversineKm(obj.Lat, obj.Lon, obj.Forecast30.Lat, obj.Forecast30.Lon)
		d60 := HaversineKm(obj.Lat, obj.Lon, obj.Forecast60.Lat, obj.Forecast60.Lon)
		assert.InDelta(t, 30.0, d30, 0.01)
		assert.InDelta(t, 60.0, d60, 0.01)
	})
}

func TestClassifyConfidence(t *testing.T) {
	tests := []struct {
		name   string
		distKm float64
		dtMin  float64
		want   string
	}{
		{"short hop mid cadence", 20, 30, ConfidenceHigh},
		{"high boundary", 30, 15, ConfidenceHigh},
		{"moderate hop", 45, 30, ConfidenceMed},
		{"fast cadence", 20, 12, ConfidenceMed},
		{"long hop", 80, 30, ConfidenceLow},
		{"stale gap", 20, 115, ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyConfidence(tt.distKm, tt.dtMin))
		})
	}
}

func TestConeRadiiKm(t *testing.T) {
	t.Run("baseline", func(t *testing.T) {
		// area 400 → size term 3; speed 40 → speed term 10.
		cone30, cone60 := coneRadiiKm(400, 40, ConfidenceHigh)
		assert.InDelta(t, 20+0.5*3+0.5*10, cone30, 1e-9)
		assert.InDelta(t, 35+0.8*3+0.8*10, cone60, 1e-9)
	})

	t.Run("terms are capped", func(t *testing.T) {
		cone30, _ := coneRadiiKm(1e8, 1000, ConfidenceHigh)
		assert.InDelta(t, 20+0.5*40+0.5*60, cone30, 1e-9)
	})

	t.Run("inflated at lower confidence", func(t *testing.T) {
		base30, base60 := coneRadiiKm(400, 40, ConfidenceHigh)
		med30, med60 := coneRadiiKm(400, 40, ConfidenceMed)
		low30, low60 := coneRadiiKm(400, 40, ConfidenceLow)
		assert.InDelta(t, base30*1.15, med30, 1e-9)
		assert.InDelta(t, base60*1.15, med60, 1e-9)
		assert.InDelta(t, base30*1.35, low30, 1e-9)
		assert.InDelta(t, base60*1.35, low60, 1e-9)
	})
}
