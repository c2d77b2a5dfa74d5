package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineKm(35.2, -97.4, 35.2, -97.4))
	})

	t.Run("symmetric", func(t *testing.T) {
		d1 := HaversineKm(35.0, -97.0, 36.5, -95.2)
		d2 := HaversineKm(36.5, -95.2, 35.0, -97.0)
		assert.InDelta(t, d1, d2, 1e-9)
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		d := HaversineKm(35.0, -97.0, 36.0, -97.0)
		assert.InDelta(t, 111.2, d, 0.5)
	})

	t.Run("never negative", func(t *testing.T) {
		assert.GreaterOrEqual(t, HaversineKm(-33.9, 151.2, 40.7, -74.0), 0.0)
	})
}

func TestBearingDeg(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"due north", 35.0, -97.0, 36.0, -97.0, 0},
		{"due south", 36.0, -97.0, 35.0, -97.0, 180},
		{"due east on equator", 0, 0, 0, 1, 90},
		{"due west on equator", 0, 1, 0, 0, 270},
		{"identical points", 35.0, -97.0, 35.0, -97.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDeg(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		})
	}
}

func TestDestinationPoint(t *testing.T) {
	t.Run("zero distance stays put", func(t *testing.T) {
		lat, lon := DestinationPoint(35.2, -97.4, 123.0, 0)
		assert.InDelta(t, 35.2, lat, 1e-9)
		assert.InDelta(t, -97.4, lon, 1e-9)
	})

	t.Run("inverse of bearing and distance", func(t *testing.T) {
		const (
			startLat, startLon = 34.5, -98.1
			bearing, dist      = 62.0, 85.0
		)
		lat, lon := DestinationPoint(startLat, startLon, bearing, dist)
		assert.InDelta(t, dist, HaversineKm(startLat, startLon, lat, lon), 1e-6)
		assert.InDelta(t, bearing, BearingDeg(startLat, startLon, lat, lon), 1e-3)
	})

	t.Run("longitude wraps across the antimeridian", func(t *testing.T) {
		_, lon := DestinationPoint(0, 179.5, 90, 200)
		assert.GreaterOrEqual(t, lon, -180.0)
		assert.Less(t, lon, 180.0)
	})
}

func TestPointToSegmentKm(t *testing.T) {
	t.Run("point on segment is zero", func(t *testing.T) {
		a := Point{Lat: 35.0, Lon: -98.0}
		b := Point{Lat: 35.0, Lon: -96.0}
		p := Point{Lat: 35.0, Lon: -97.0}
		assert.InDelta(t, 0, PointToSegmentKm(p, a, b), 1e-9)
	})

	t.Run("degenerate segment collapses to point distance", func(t *testing.T) {
		a := Point{Lat: 35.0, Lon: -97.0}
		p := Point{Lat: 36.0, Lon: -97.0}
		d := PointToSegmentKm(p, a, a)
		assert.InDelta(t, 111.0, d, 0.5)
	})

	t.Run("perpendicular offset", func(t *testing.T) {
		a := Point{Lat: 35.0, Lon: -98.0}
		b := Point{Lat: 35.0, Lon: -96.0}
		p := Point{Lat: 35.5, Lon: -97.0}
		assert.InDelta(t, 55.5, PointToSegmentKm(p, a, b), 1.0)
	})

	t.Run("beyond endpoint clamps to endpoint", func(t *testing.T) {
		a := Point{Lat: 35.0, Lon: -98.0}
		b := Point{Lat: 35.0, Lon: -97.0}
		p := Point{Lat: 35.0, Lon: -95.0}
		want := PointToSegmentKm(p, b, b)
		assert.InDelta(t, want, PointToSegmentKm(p, a, b), 1e-9)
	})
}

func TestNormalizeLon(t *testing.T) {
	assert.InDelta(t, -170.0, NormalizeLon(190), 1e-9)
	assert.InDelta(t, 170.0, NormalizeLon(-190), 1e-9)
	assert.InDelta(t, -180.0, NormalizeLon(180), 1e-9)
	assert.InDelta(t, -97.4, NormalizeLon(-97.4), 1e-9)
}

func TestAngularDiffDeg(t *testing.T) {
	assert.InDelta(t, 20.0, angularDiffDeg(350, 10), 1e-9)
	assert.InDelta(t, 20.0, angularDiffDeg(10, 350), 1e-9)
	assert.InDelta(t, 180.0, angularDiffDeg(0, 180), 1e-9)
	assert.InDelta(t, 0.0, angularDiffDeg(90, 90), 1e-9)
}
