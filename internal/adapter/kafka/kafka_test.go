package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

func sampleNowcast() domain.Nowcast {
	eta := 25.0
	return domain.Nowcast{
		UpdatedAt: time.Date(2026, time.May, 4, 21, 30, 0, 0, time.UTC),
		Threshold: 6.0,
		MinPixels: 12,
		Objects: []domain.StormObject{
			{ID: "S01", Lat: 35.21, Lon: -97.44, AreaKm2: 312.5, MaxComposite: 9.1},
			{ID: "S02", Lat: 36.0, Lon: -95.5, AreaKm2: 88.0, MaxComposite: 6.4},
		},
		ImpactHits: []domain.ImpactHit{
			{StormID: "S01", Target: "Norman", DistKm: 4.2, EtaMin: &eta, MaxComposite: 9.1},
		},
		BoundaryCandidates: []domain.BoundaryCandidate{
			{Lat: 34.8, Lon: -98.2, Score: 11.3, Kind: domain.KindDewpoint},
		},
	}
}

func TestSerializeNowcast(t *testing.T) {
	msgs, err := serializeNowcast(sampleNowcast())
	require.NoError(t, err)
	require.Len(t, msgs, 4, "two objects, one hit, one boundary summary")

	t.Run("objects are keyed by storm id", func(t *testing.T) {
		assert.Equal(t, []byte("S01"), msgs[0].Key)
		assert.Equal(t, []byte("S02"), msgs[1].Key)
		assert.Contains(t, string(msgs[0].Value), `"id":"S01"`)
	})

	t.Run("headers carry kind and cycle timestamp", func(t *testing.T) {
		require.Len(t, msgs[0].Headers, 2)
		assert.Equal(t, "kind", msgs[0].Headers[0].Key)
		assert.Equal(t, []byte(KindStormObject), msgs[0].Headers[0].Value)
		assert.Equal(t, "updated_at", msgs[0].Headers[1].Key)
		assert.Equal(t, []byte("2026-05-04T21:30:00Z"), msgs[0].Headers[1].Value)
	})

	t.Run("impact hit keyed by storm id", func(t *testing.T) {
		assert.Equal(t, []byte("S01"), msgs[2].Key)
		assert.Equal(t, []byte(KindImpactHit), msgs[2].Headers[0].Value)
		assert.Contains(t, string(msgs[2].Value), `"target":"Norman"`)
		assert.Contains(t, string(msgs[2].Value), `"eta_min":25`)
	})

	t.Run("boundary candidates travel as one summary", func(t *testing.T) {
		assert.Equal(t, []byte(KindBoundaries), msgs[3].Headers[0].Value)
		assert.Contains(t, string(msgs[3].Value), `"kind":"dewpoint"`)
	})
}

func TestSerializeNowcastEmpty(t *testing.T) {
	msgs, err := serializeNowcast(domain.Nowcast{UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
