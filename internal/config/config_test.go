package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 6.0, cfg.CompositeThreshold)
	assert.Equal(t, 12, cfg.MinPixels)
	assert.Equal(t, 60.0, cfg.MaxMatchKm)
	assert.Equal(t, 50.0, cfg.ImpactRadiusKm)
	assert.Equal(t, domain.Horizon60Min, cfg.ImpactHorizon)
	assert.Equal(t, 0.25, cfg.BoundaryResDeg)
	assert.Equal(t, domain.BBox{LatMin: 31.0, LatMax: 37.5, LonMin: -103.0, LonMax: -94.0}, cfg.BBox)
	assert.Empty(t, cfg.MetarURL)
	assert.Equal(t, 20*time.Second, cfg.MetarTimeout)
	assert.Equal(t, 5*time.Minute, cfg.MetarCacheTTL)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "nowcast-events", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/lib/nowcast")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REFRESH_INTERVAL", "10m")
	t.Setenv("COMPOSITE_THRESHOLD", "7.5")
	t.Setenv("MIN_PIXELS", "20")
	t.Setenv("MAX_MATCH_KM", "45")
	t.Setenv("IMPACT_RADIUS_KM", "80")
	t.Setenv("IMPACT_HORIZON", "30m")
	t.Setenv("BOUNDARY_RES_DEG", "0.5")
	t.Setenv("BBOX_LAT_MIN", "30")
	t.Setenv("BBOX_LAT_MAX", "40")
	t.Setenv("BBOX_LON_MIN", "-105")
	t.Setenv("BBOX_LON_MAX", "-90")
	t.Setenv("METAR_URL", "https://example.com/metars.cache.csv.gz")
	t.Setenv("METAR_TIMEOUT", "5s")
	t.Setenv("METAR_CACHE_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/nowcast", cfg.DataDir)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 7.5, cfg.CompositeThreshold)
	assert.Equal(t, 20, cfg.MinPixels)
	assert.Equal(t, 45.0, cfg.MaxMatchKm)
	assert.Equal(t, 80.0, cfg.ImpactRadiusKm)
	assert.Equal(t, domain.Horizon30Min, cfg.ImpactHorizon)
	assert.Equal(t, 0.5, cfg.BoundaryResDeg)
	assert.Equal(t, domain.BBox{LatMin: 30, LatMax: 40, LonMin: -105, LonMax: -90}, cfg.BBox)
	assert.Equal(t, "https://example.com/metars.cache.csv.gz", cfg.MetarURL)
	assert.Equal(t, 5*time.Second, cfg.MetarTimeout)
	assert.Equal(t, 90*time.Second, cfg.MetarCacheTTL)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_RefreshIntervalTooShort(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "5s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("COMPOSITE_THRESHOLD", "zero")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPOSITE_THRESHOLD")
}

func TestLoad_NegativeThreshold(t *testing.T) {
	t.Setenv("COMPOSITE_THRESHOLD", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPOSITE_THRESHOLD")
}

func TestLoad_InvalidMinPixels(t *testing.T) {
	t.Setenv("MIN_PIXELS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_PIXELS")
}

func TestLoad_InvalidHorizon(t *testing.T) {
	t.Setenv("IMPACT_HORIZON", "90m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPACT_HORIZON")
}

func TestLoad_InvertedBBox(t *testing.T) {
	t.Setenv("BBOX_LAT_MIN", "40")
	t.Setenv("BBOX_LAT_MAX", "30")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounding box")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaBrokersImplyEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
