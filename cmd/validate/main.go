// Command validate performs integrity checks across a nowcast data
// directory: the composite grid, the station snapshot, the target list,
// and the persisted track state. It verifies shapes, coordinate sanity,
// field consistency, and that the track state agrees with what detection
// produces from the grid.
//
// Usage:
//
//	go run ./cmd/validate -data-dir ./data
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/couchcryptid/storm-nowcast-service/internal/adapter/filestore"
	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "nowcast data directory to validate")
	threshold := flag.Float64("threshold", domain.DefaultThreshold, "composite detection threshold")
	minPixels := flag.Int("min-pixels", domain.DefaultMinPixels, "minimum connected pixels per object")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *threshold, *minPixels); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string, threshold float64, minPixels int) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := filestore.New(dataDir, logger)

	fmt.Println("=== Nowcast Data Integrity Validation ===")
	fmt.Println()

	grid, err := store.LatestComposite(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load composite grid: %v\n", err)
		return 1
	}
	stations, err := store.LatestObservations(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load stations: %v\n", err)
		return 1
	}
	targets, err := store.Targets(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load targets: %v\n", err)
		return 1
	}
	state, hasState, err := loadTracksStrict(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load track state: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateGrid(grid),
		validateStations(stations),
		validateTargets(targets),
		validateTracks(state, hasState, grid, threshold, minPixels),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Data: %dx%d grid, %d stations, %d targets, %d tracked objects\n",
		len(grid.Lats), len(grid.Lons), len(stations), len(targets), len(state.Objects))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadTracksStrict reads the track file directly so a corrupt file fails
// validation instead of being silently discarded as the service does.
func loadTracksStrict(dataDir string) (domain.TrackState, bool, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, filestore.TracksFile))
	if os.IsNotExist(err) {
		return domain.TrackState{}, false, nil
	}
	if err != nil {
		return domain.TrackState{}, false, err
	}
	var state domain.TrackState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.TrackState{}, false, fmt.Errorf("corrupt track state: %w", err)
	}
	return state, true, nil
}

// ── Phase 1: Grid Integrity ──

func validateGrid(grid domain.GridField) *phase {
	p := &phase{name: "Phase 1: Grid Integrity"}

	if err := grid.Validate(); err != nil {
		p.errorf("shape: %v", err)
		return p
	}

	checkMonotone(p, "lats", grid.Lats)
	checkMonotone(p, "lons", grid.Lons)

	total, finite := 0, 0
	for i, row := range grid.Values {
		for j, v := range row {
			total++
			if math.IsInf(v, 0) {
				p.errorf("cell [%d][%d] is infinite", i, j)
				continue
			}
			if !math.IsNaN(v) {
				finite++
			}
		}
	}
	if total > 0 && float64(finite)/float64(total) < 0.5 {
		p.errorf("only %d/%d cells are finite; grid is mostly missing data", finite, total)
	}

	for _, lat := range grid.Lats {
		if lat < -90 || lat > 90 {
			p.errorf("latitude %v out of range", lat)
		}
	}
	for _, lon := range grid.Lons {
		if lon < -180 || lon >= 360 {
			p.errorf("longitude %v out of range", lon)
		}
	}
	return p
}

func checkMonotone(p *phase, name string, coords []float64) {
	for i := 1; i < len(coords); i++ {
		if coords[i] <= coords[i-1] {
			p.errorf("%s not strictly increasing at index %d: %v <= %v", name, i, coords[i], coords[i-1])
			return
		}
	}
}

// ── Phase 2: Station Integrity ──

func validateStations(stations []domain.StationObservation) *phase {
	p := &phase{name: "Phase 2: Station Integrity"}

	seen := map[string]bool{}
	withVariable := 0
	for i, s := range stations {
		if s.StationID == "" {
			p.errorf("station %d: empty station id", i)
		} else if seen[s.StationID] {
			p.errorf("station %d: duplicate station id %q", i, s.StationID)
		}
		seen[s.StationID] = true

		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon >= 180 {
			p.errorf("station %s: coordinates (%v, %v) out of range", s.StationID, s.Lat, s.Lon)
		}
		if s.TempC != nil || s.DewpointC != nil || s.WindDirDeg != nil {
			withVariable++
		}
		if s.WindDirDeg != nil && (*s.WindDirDeg < 0 || *s.WindDirDeg > 360) {
			p.errorf("station %s: wind direction %v out of [0, 360]", s.StationID, *s.WindDirDeg)
		}
		if s.TempC != nil && s.DewpointC != nil && *s.DewpointC > *s.TempC+1.0 {
			p.errorf("station %s: dewpoint %v exceeds temperature %v", s.StationID, *s.DewpointC, *s.TempC)
		}
	}
	if len(stations) > 0 && withVariable == 0 {
		p.errorf("no station reports any surface variable; boundary detection would be empty")
	}
	return p
}

// ── Phase 3: Target Integrity ──

func validateTargets(targets []domain.Target) *phase {
	p := &phase{name: "Phase 3: Target Integrity"}

	seen := map[string]bool{}
	for i, t := range targets {
		if t.Name == "" {
			p.errorf("target %d: empty name", i)
		} else if seen[t.Name] {
			p.errorf("target %d: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true

		if t.Lat < -90 || t.Lat > 90 || t.Lon < -180 || t.Lon >= 180 {
			p.errorf("target %q: coordinates (%v, %v) out of range", t.Name, t.Lat, t.Lon)
		}
	}
	return p
}

// ── Phase 4: Track State Consistency ──

var stormIDPattern = regexp.MustCompile(`^S\d{2,}$`)

func validateTracks(state domain.TrackState, hasState bool, grid domain.GridField, threshold float64, minPixels int) *phase {
	p := &phase{name: "Phase 4: Track State Consistency"}
	if !hasState {
		fmt.Println("  Note: no track state file; skipping phase 4 checks")
		return p
	}

	if state.UpdatedAt.IsZero() {
		p.errorf("updated_at_utc is zero")
	} else if state.UpdatedAt.After(time.Now().UTC().Add(time.Minute)) {
		p.errorf("updated_at_utc %s is in the future", state.UpdatedAt.Format(time.RFC3339))
	}
	if state.Threshold <= 0 {
		p.errorf("threshold %v is not positive", state.Threshold)
	}
	if state.MinPixels < 1 {
		p.errorf("min_pixels %d is not positive", state.MinPixels)
	}

	seen := map[string]bool{}
	for _, obj := range state.Objects {
		checkTrackedObject(p, obj, seen)
	}

	// The persisted object count should be in the same ballpark as a fresh
	// detection pass; a large mismatch usually means the grid and state
	// files are from different cycles.
	raw := domain.DetectObjects(grid, threshold, minPixels)
	diff := len(state.Objects) - len(raw)
	if diff < 0 {
		diff = -diff
	}
	if diff > len(raw)+2 {
		p.errorf("state has %d objects but detection on the current grid finds %d", len(state.Objects), len(raw))
	}
	return p
}

func checkTrackedObject(p *phase, obj domain.StormObject, seen map[string]bool) {
	if !stormIDPattern.MatchString(obj.ID) {
		p.errorf("object id %q does not match S## format", obj.ID)
	}
	if seen[obj.ID] {
		p.errorf("duplicate object id %q", obj.ID)
	}
	seen[obj.ID] = true

	if obj.AreaKm2 <= 0 {
		p.errorf("object %s: area %v is not positive", obj.ID, obj.AreaKm2)
	}

	if obj.Motion == nil {
		if obj.Forecast30 != nil || obj.Forecast60 != nil {
			p.errorf("object %s: forecast positions present without a motion estimate", obj.ID)
		}
		return
	}

	if obj.Motion.SpeedKmh < 0 {
		p.errorf("object %s: negative speed %v", obj.ID, obj.Motion.SpeedKmh)
	}
	if obj.Motion.BearingDeg < 0 || obj.Motion.BearingDeg >= 360 {
		p.errorf("object %s: bearing %v out of [0, 360)", obj.ID, obj.Motion.BearingDeg)
	}
	if obj.Forecast30 == nil || obj.Forecast60 == nil {
		p.errorf("object %s: motion estimate without forecast positions", obj.ID)
	}
	switch obj.Confidence {
	case domain.ConfidenceHigh, domain.ConfidenceMed, domain.ConfidenceLow:
	default:
		p.errorf("object %s: confidence %q not in {high, med, low}", obj.ID, obj.Confidence)
	}
	if obj.Cone30Km <= 0 || obj.Cone60Km <= obj.Cone30Km {
		p.errorf("object %s: cone radii (%v, %v) are not increasing", obj.ID, obj.Cone30Km, obj.Cone60Km)
	}
}
