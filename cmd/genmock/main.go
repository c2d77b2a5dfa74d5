// Command genmock generates a synthetic data directory for local runs and
// demos: a composite grid with storm cells, a surface station snapshot with
// a dewpoint front and wind shift line, an impact target list, and a prior
// track state so the first cycle produces motion estimates. It runs the
// actual detection code against the generated grid so the printed stats
// match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out ./data -storms 3 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/storm-nowcast-service/internal/adapter/filestore"
	"github.com/couchcryptid/storm-nowcast-service/internal/domain"
)

const (
	latMin, latMax = 33.0, 37.0
	lonMin, lonMax = -99.5, -94.5
	gridResDeg     = 0.05
	stationResDeg  = 0.5
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "./data", "output data directory")
	storms := flag.Int("storms", 3, "number of storm cells to paint onto the grid")
	seed := flag.Int64("seed", 42, "random seed for cell placement and station jitter")
	flag.Parse()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	grid, cells := buildGrid(rng, *storms)
	stations := buildStations(rng)
	targets := []domain.Target{
		{Name: "Norman", Lat: 35.2226, Lon: -97.4395},
		{Name: "Oklahoma City", Lat: 35.4676, Lon: -97.5164},
		{Name: "Wichita Falls", Lat: 33.9137, Lon: -98.4934},
		{Name: "Tulsa", Lat: 36.1540, Lon: -95.9928},
	}
	state := buildPriorTracks(rng, cells)

	files := map[string]any{
		filestore.GridFile:     grid,
		filestore.StationsFile: stations,
		filestore.TargetsFile:  targets,
		filestore.TracksFile:   state,
	}
	for name, v := range files {
		path := filepath.Join(*out, name)
		if err := writeJSON(path, v); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}

	printStats(grid, stations, state)
	return nil
}

// cell is a painted storm: center plus peak intensity.
type cell struct {
	lat, lon float64
	peak     float64
}

// buildGrid paints Gaussian storm cells over a low-intensity background.
func buildGrid(rng *rand.Rand, storms int) (domain.GridField, []cell) {
	grid := domain.GridField{}
	for lat := latMin; lat <= latMax+1e-9; lat += gridResDeg {
		grid.Lats = append(grid.Lats, math.Round(lat*100)/100)
	}
	for lon := lonMin; lon <= lonMax+1e-9; lon += gridResDeg {
		grid.Lons = append(grid.Lons, math.Round(lon*100)/100)
	}

	cells := make([]cell, 0, storms)
	for n := 0; n < storms; n++ {
		cells = append(cells, cell{
			lat:  latMin + 0.5 + rng.Float64()*(latMax-latMin-1.0),
			lon:  lonMin + 0.5 + rng.Float64()*(lonMax-lonMin-1.0),
			peak: 7.0 + rng.Float64()*3.0,
		})
	}

	grid.Values = make([][]float64, len(grid.Lats))
	for i, lat := range grid.Lats {
		row := make([]float64, len(grid.Lons))
		for j, lon := range grid.Lons {
			v := 0.5 + rng.Float64()*0.5
			for _, c := range cells {
				dLat := lat - c.lat
				dLon := lon - c.lon
				// ~0.15 degree standard deviation, roughly a 15 km cell.
				v += c.peak * math.Exp(-(dLat*dLat+dLon*dLon)/(2*0.15*0.15))
			}
			row[j] = v
		}
		grid.Values[i] = row
	}
	return grid, cells
}

// buildStations lays a jittered station grid with a dewpoint front along
// -97 and a wind shift across it: southeast flow in the moist air, west
// winds behind the dryline.
func buildStations(rng *rand.Rand) []domain.StationObservation {
	var out []domain.StationObservation
	id := 0
	for lat := latMin; lat <= latMax+1e-9; lat += stationResDeg {
		for lon := lonMin; lon <= lonMax+1e-9; lon += stationResDeg {
			id++
			sLat := lat + (rng.Float64()-0.5)*0.1
			sLon := lon + (rng.Float64()-0.5)*0.1

			moist := sLon > -97.0
			dew := 2.0 + rng.Float64()*3.0
			wind := 260.0 + rng.Float64()*20.0
			if moist {
				dew = 18.0 + rng.Float64()*4.0
				wind = 150.0 + rng.Float64()*20.0
			}
			temp := 28.0 + rng.Float64()*4.0

			obs := domain.StationObservation{
				StationID:  fmt.Sprintf("SYN%03d", id),
				Lat:        math.Round(sLat*1000) / 1000,
				Lon:        math.Round(sLon*1000) / 1000,
				TempC:      &temp,
				DewpointC:  &dew,
				WindDirDeg: &wind,
			}
			// A few stations report no optional variables, as real feeds do.
			if rng.Float64() < 0.05 {
				obs.TempC, obs.DewpointC, obs.WindDirDeg = nil, nil, nil
			}
			out = append(out, obs)
		}
	}
	return out
}

// buildPriorTracks places each cell's previous position slightly to the
// southwest so the first cycle estimates northeast storm motion.
func buildPriorTracks(rng *rand.Rand, cells []cell) domain.TrackState {
	state := domain.TrackState{
		UpdatedAt: time.Now().UTC().Add(-30 * time.Minute).Truncate(time.Second),
		Threshold: domain.DefaultThreshold,
		MinPixels: domain.DefaultMinPixels,
	}
	for i, c := range cells {
		state.Objects = append(state.Objects, domain.StormObject{
			ID:           fmt.Sprintf("S%02d", i+1),
			Lat:          c.lat - 0.08 - rng.Float64()*0.04,
			Lon:          c.lon - 0.12 - rng.Float64()*0.06,
			AreaKm2:      250 + rng.Float64()*200,
			MaxComposite: c.peak,
		})
	}
	return state
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(grid domain.GridField, stations []domain.StationObservation, state domain.TrackState) {
	raw := domain.DetectObjects(grid, domain.DefaultThreshold, domain.DefaultMinPixels)
	candidates, _, err := domain.DetectBoundaries(stations, domain.DefaultTopCandidates, domain.DefaultNeighbors)
	if err != nil {
		log.Printf("boundary detection: %v", err)
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Grid: %dx%d cells, threshold %.1f\n", len(grid.Lats), len(grid.Lons), domain.DefaultThreshold)
	fmt.Printf("Detected objects: %d\n", len(raw))
	for i, obj := range raw {
		fmt.Printf("  #%d: lat=%.3f lon=%.3f area=%.1fkm2 max=%.2f\n",
			i+1, obj.Lat, obj.Lon, obj.AreaKm2, obj.MaxComposite)
	}
	fmt.Printf("Stations: %d\n", len(stations))
	fmt.Printf("Boundary candidates: %d\n", len(candidates))
	for _, c := range candidates {
		fmt.Printf("  %s lat=%.3f lon=%.3f score=%.2f (%s)\n", c.StationID, c.Lat, c.Lon, c.Score, c.Kind)
	}
	fmt.Printf("Prior tracks: %d (updated %s)\n", len(state.Objects), state.UpdatedAt.Format(time.RFC3339))
}
