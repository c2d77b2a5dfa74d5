package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Analysis cycle.
	RefreshInterval    time.Duration
	CompositeThreshold float64
	MinPixels          int
	MaxMatchKm         float64
	ImpactRadiusKm     float64
	ImpactHorizon      domain.ForecastHorizon
	BoundaryResDeg     float64
	BBox               domain.BBox

	// METAR ingest.
	MetarURL      string
	MetarTimeout  time.Duration
	MetarCacheTTL time.Duration

	// Kafka sink (optional).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}
	metarTimeout, err := parseDuration("METAR_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	metarCacheTTL, err := parseDuration("METAR_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	threshold, err := parseFloat("COMPOSITE_THRESHOLD", domain.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	maxMatchKm, err := parseFloat("MAX_MATCH_KM", domain.DefaultMaxMatchKm)
	if err != nil {
		return nil, err
	}
	impactRadiusKm, err := parseFloat("IMPACT_RADIUS_KM", domain.DefaultImpactRadiusKm)
	if err != nil {
		return nil, err
	}
	boundaryResDeg, err := parseFloat("BOUNDARY_RES_DEG", domain.DefaultBoundaryResDeg)
	if err != nil {
		return nil, err
	}

	minPixels, err := parseInt("MIN_PIXELS", domain.DefaultMinPixels)
	if err != nil {
		return nil, err
	}

	horizon, err := parseHorizon("IMPACT_HORIZON", domain.Horizon60Min)
	if err != nil {
		return nil, err
	}

	bbox, err := parseBBox()
	if err != nil {
		return nil, err
	}

	kafkaTopic := envOrDefault("KAFKA_SINK_TOPIC", "nowcast-events")
	kafkaBrokers := splitList(envOrDefault("KAFKA_BROKERS", ""))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:         envOrDefault("DATA_DIR", "./data"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RefreshInterval:    refreshInterval,
		CompositeThreshold: threshold,
		MinPixels:          minPixels,
		MaxMatchKm:         maxMatchKm,
		ImpactRadiusKm:     impactRadiusKm,
		ImpactHorizon:      horizon,
		BoundaryResDeg:     boundaryResDeg,
		BBox:               bbox,

		MetarURL:      os.Getenv("METAR_URL"),
		MetarTimeout:  metarTimeout,
		MetarCacheTTL: metarCacheTTL,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   kafkaBrokers,
		KafkaSinkTopic: kafkaTopic,
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR is required")
	}
	if cfg.RefreshInterval < time.Minute {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be at least 1m, got %s", cfg.RefreshInterval)
	}
	if cfg.MinPixels < 1 {
		return nil, fmt.Errorf("MIN_PIXELS must be positive, got %d", cfg.MinPixels)
	}
	if cfg.BBox.LatMin >= cfg.BBox.LatMax || cfg.BBox.LonMin >= cfg.BBox.LonMax {
		return nil, fmt.Errorf("bounding box is inverted: lat [%v, %v], lon [%v, %v]",
			cfg.BBox.LatMin, cfg.BBox.LatMax, cfg.BBox.LonMin, cfg.BBox.LonMax)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, fmt.Errorf("KAFKA_SINK_TOPIC is required when the Kafka sink is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseHorizon(key string, def domain.ForecastHorizon) (domain.ForecastHorizon, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	switch s {
	case "30m", "30":
		return domain.Horizon30Min, nil
	case "60m", "60":
		return domain.Horizon60Min, nil
	}
	return 0, fmt.Errorf("invalid %s: %q (want 30m or 60m)", key, s)
}

// parseBBox reads the analysis bounding box; defaults cover the southern
// Plains domain the composite mosaic is produced for.
func parseBBox() (domain.BBox, error) {
	var bbox domain.BBox
	for _, f := range []struct {
		key  string
		def  float64
		dest *float64
	}{
		{"BBOX_LAT_MIN", 31.0, &bbox.LatMin},
		{"BBOX_LAT_MAX", 37.5, &bbox.LatMax},
		{"BBOX_LON_MIN", -103.0, &bbox.LonMin},
		{"BBOX_LON_MAX", -94.0, &bbox.LonMax},
	} {
		s := os.Getenv(f.key)
		if s == "" {
			*f.dest = f.def
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.BBox{}, fmt.Errorf("invalid %s: %q", f.key, s)
		}
		*f.dest = v
	}
	return bbox, nil
}
