// Package filestore reads and writes the nowcast data directory: the
// composite grid and station snapshot dropped there by the ingest
// collaborators, the target list, and the persisted track state carried
// between cycles.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

// File names within the data directory.
const (
	GridFile     = "composite_latest.json"
	StationsFile = "stations_latest.json"
	TargetsFile  = "targets.json"
	TracksFile   = "storm_tracks_latest.json"
)

// ErrNoGrid reports a missing composite grid file. A cycle cannot run
// without one.
var ErrNoGrid = errors.New("no composite grid available")

// Store is a file-backed exchange point between the ingest collaborators
// and the nowcast pipeline.
type Store struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// LatestComposite loads the most recent composite grid. Returns ErrNoGrid
// (wrapped) when the ingest side has not produced one yet.
func (s *Store) LatestComposite(_ context.Context) (domain.GridField, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, GridFile))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.GridField{}, fmt.Errorf("%w: %s", ErrNoGrid, GridFile)
		}
		return domain.GridField{}, fmt.Errorf("reading %s: %w", GridFile, err)
	}

	var grid domain.GridField
	if err := json.Unmarshal(raw, &grid); err != nil {
		return domain.GridField{}, fmt.Errorf("parsing %s: %w", GridFile, err)
	}
	if err := grid.Validate(); err != nil {
		return domain.GridField{}, fmt.Errorf("invalid %s: %w", GridFile, err)
	}
	return grid, nil
}

// LatestObservations loads the station snapshot. Feeds from different
// sources disagree on column names, so fields are resolved through alias
// lists and non-numeric values become missing rather than failing the
// load. Records without both latitude and longitude columns anywhere in
// the snapshot mean the feed is broken: that is ErrMissingGeometry.
func (s *Store) LatestObservations(_ context.Context) ([]domain.StationObservation, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, StationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", StationsFile, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", StationsFile, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	sawGeometry := false
	out := make([]domain.StationObservation, 0, len(records))
	for _, rec := range records {
		lat, okLat := pickFloat(rec, "lat", "latitude")
		lon, okLon := pickFloat(rec, "lon", "longitude")
		if okLat || okLon {
			sawGeometry = true
		}
		if !okLat || !okLon {
			continue
		}
		obs := domain.StationObservation{
			StationID: pickString(rec, "station", "station_id", "icao"),
			Lat:       lat,
			Lon:       lon,
		}
		if v, ok := pickFloat(rec, "temp_c", "temperature_c"); ok {
			obs.TempC = &v
		}
		if v, ok := pickFloat(rec, "dewpoint_c", "dew_point_c"); ok {
			obs.DewpointC = &v
		}
		if v, ok := pickFloat(rec, "wind_dir_degrees", "wind_dir_deg"); ok {
			obs.WindDirDeg = &v
		}
		out = append(out, obs)
	}
	if !sawGeometry {
		return nil, fmt.Errorf("%s: %w", StationsFile, domain.ErrMissingGeometry)
	}
	return out, nil
}

// Targets loads the impact target list. No file means no targets, which
// is a legitimate deployment (impact assessment disabled).
func (s *Store) Targets(_ context.Context) ([]domain.Target, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, TargetsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", TargetsFile, err)
	}

	var targets []domain.Target
	if err := json.Unmarshal(raw, &targets); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", TargetsFile, err)
	}
	return targets, nil
}

// LoadTracks loads the previous cycle's track state. The second return
// value is false when no state has been persisted yet (first cycle).
func (s *Store) LoadTracks(_ context.Context) (domain.TrackState, bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, TracksFile))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.TrackState{}, false, nil
		}
		return domain.TrackState{}, false, fmt.Errorf("reading %s: %w", TracksFile, err)
	}

	var state domain.TrackState
	if err := json.Unmarshal(raw, &state); err != nil {
		// A corrupt state file should not wedge the pipeline forever;
		// treat it as absent and let the next write replace it.
		s.logger.Warn("discarding corrupt track state", "file", TracksFile, "error", err)
		return domain.TrackState{}, false, nil
	}
	return state, true, nil
}

// StoreTracks persists the track state atomically via temp file + rename,
// so a crashed write never leaves a half-written state behind.
func (s *Store) StoreTracks(_ context.Context, state domain.TrackState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding track state: %w", err)
	}

	path := filepath.Join(s.dir, TracksFile)
	tmp, err := os.CreateTemp(s.dir, TracksFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing track state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing track state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", TracksFile, err)
	}
	return nil
}

// pickFloat resolves the first alias present in the record and coerces
// it to a float. JSON numbers and numeric strings both qualify; anything
// else is missing.
func pickFloat(rec map[string]any, aliases ...string) (float64, bool) {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t, true
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func pickString(rec map[string]any, aliases ...string) string {
	for _, key := range aliases {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
