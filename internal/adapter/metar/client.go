// Package metar fetches surface observations from the aviationweather.gov
// METAR cache, an alternative station source to the file-based snapshot.
package metar

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

// DefaultURL is the public METAR cache, a gzipped CSV refreshed every
// few minutes.
const DefaultURL = "https://aviationweather.gov/data/cache/metars.cache.csv.gz"

// Client downloads and parses the METAR cache CSV.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a METAR cache client. An empty url selects DefaultURL.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// LatestObservations fetches and parses the current METAR snapshot.
func (c *Client) LatestObservations(ctx context.Context) ([]domain.StationObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metar cache request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("metar cache error: status %d: %s", resp.StatusCode, body)
	}

	body := io.Reader(resp.Body)
	if strings.HasSuffix(c.url, ".gz") && resp.Header.Get("Content-Encoding") != "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decompress metar cache: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	obs, err := parseCSV(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched metar snapshot", "stations", len(obs))
	return obs, nil
}

// parseCSV reads the METAR cache format: a short preamble (error/warning
// counts, result count) followed by a header row and one row per station.
func parseCSV(r io.Reader) ([]domain.StationObservation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	// Skip the preamble; the header row is the first line naming station_id.
	var headerLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "station_id") {
			headerLine = line
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metar cache: %w", err)
	}
	if headerLine == "" {
		return nil, fmt.Errorf("metar cache has no header row")
	}

	cols := map[string]int{}
	for i, name := range strings.Split(headerLine, ",") {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"station_id", "latitude", "longitude"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("metar cache header missing %q: %w", required, domain.ErrMissingGeometry)
		}
	}

	var obs []domain.StationObservation
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		// Raw METAR text may contain quotes; parse each line independently
		// so one bad row cannot desynchronize the rest of the file.
		reader := csv.NewReader(strings.NewReader(line))
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		fields, err := reader.Read()
		if err != nil {
			continue
		}

		lat, okLat := fieldFloat(fields, cols, "latitude")
		lon, okLon := fieldFloat(fields, cols, "longitude")
		if !okLat || !okLon {
			continue
		}
		o := domain.StationObservation{
			StationID: fieldString(fields, cols, "station_id"),
			Lat:       lat,
			Lon:       lon,
		}
		if v, ok := fieldFloat(fields, cols, "temp_c"); ok {
			o.TempC = &v
		}
		if v, ok := fieldFloat(fields, cols, "dewpoint_c"); ok {
			o.DewpointC = &v
		}
		if v, ok := fieldFloat(fields, cols, "wind_dir_degrees"); ok {
			o.WindDirDeg = &v
		}
		obs = append(obs, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metar cache: %w", err)
	}
	return obs, nil
}

func fieldString(fields []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func fieldFloat(fields []string, cols map[string]int, name string) (float64, bool) {
	s := fieldString(fields, cols, name)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
