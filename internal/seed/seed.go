// Package seed loads municipalities and charging stations from a YAML file
// into the store.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/store"
)

// File is a parsed seed file.
type File struct {
	Municipalities []model.Municipality
	Stations       []model.ChargingStation
}

// stationNamespace derives stable IDs for stations seeded without one, so
// re-seeding the same file updates rows instead of duplicating them.
var stationNamespace = uuid.MustParse("6f1d4c2a-3b7e-4a59-9c0d-8e2f5b1a7d34")

type stationEntry struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Operator       string  `yaml:"operator"`
	MunicipalityID string  `yaml:"municipality_id"`
	Lat            float64 `yaml:"lat"`
	Lon            float64 `yaml:"lon"`
	PowerKW        float64 `yaml:"power_kw"`
	Active         *bool   `yaml:"active"` // nil = active
}

type fileEntry struct {
	Municipalities []model.Municipality `yaml:"municipalities"`
	Stations       []stationEntry       `yaml:"stations"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML.
func Parse(data []byte) (*File, error) {
	var raw fileEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "seed: parse")
	}

	f := &File{Municipalities: raw.Municipalities}

	var errs []string
	seen := make(map[string]bool, len(raw.Municipalities))
	for i, m := range raw.Municipalities {
		switch {
		case m.ID == "":
			errs = append(errs, fmt.Sprintf("municipalities[%d]: id is required", i))
		case seen[m.ID]:
			errs = append(errs, fmt.Sprintf("municipalities[%d]: duplicate id %s", i, m.ID))
		}
		seen[m.ID] = true
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("municipalities[%d]: name is required", i))
		}
		if len(m.State) != 2 {
			errs = append(errs, fmt.Sprintf("municipalities[%d]: state must be a two-letter UF", i))
		}
		if m.Population < 0 {
			errs = append(errs, fmt.Sprintf("municipalities[%d]: population must be >= 0", i))
		}
		if (m.Lat == nil) != (m.Lon == nil) {
			errs = append(errs, fmt.Sprintf("municipalities[%d]: lat and lon must be set together", i))
		}
	}

	stationSeen := make(map[string]int, len(raw.Stations))
	for i, e := range raw.Stations {
		if e.Lat < -90 || e.Lat > 90 || e.Lon < -180 || e.Lon > 180 {
			errs = append(errs, fmt.Sprintf("stations[%d]: coordinates out of range", i))
		}
		if e.PowerKW < 0 {
			errs = append(errs, fmt.Sprintf("stations[%d]: power_kw must be >= 0", i))
		}

		st := model.ChargingStation{
			ID:             e.ID,
			Name:           e.Name,
			Operator:       e.Operator,
			MunicipalityID: e.MunicipalityID,
			Lat:            e.Lat,
			Lon:            e.Lon,
			PowerKW:        e.PowerKW,
			Active:         e.Active == nil || *e.Active,
		}
		if st.ID == "" {
			st.ID = StationID(st)
		}
		if j, ok := stationSeen[st.ID]; ok {
			errs = append(errs, fmt.Sprintf("stations[%d]: duplicate of stations[%d] (id %s)", i, j, st.ID))
		} else {
			stationSeen[st.ID] = i
		}
		f.Stations = append(f.Stations, st)
	}

	if len(errs) > 0 {
		return nil, eris.Errorf("seed: validation failed: %s", strings.Join(errs, "; "))
	}
	return f, nil
}

// StationID returns a deterministic ID for a station from its name,
// operator and coordinates.
func StationID(st model.ChargingStation) string {
	key := fmt.Sprintf("%s|%s|%.6f|%.6f", st.Name, st.Operator, st.Lat, st.Lon)
	return uuid.NewSHA1(stationNamespace, []byte(key)).String()
}

// Apply upserts the file's municipalities, then its stations.
func Apply(ctx context.Context, st store.Store, f *File) error {
	if err := st.UpsertMunicipalities(ctx, f.Municipalities); err != nil {
		return eris.Wrap(err, "seed: municipalities")
	}
	if err := st.UpsertStations(ctx, f.Stations); err != nil {
		return eris.Wrap(err, "seed: stations")
	}

	zap.L().Info("seed: applied",
		zap.Int("municipalities", len(f.Municipalities)),
		zap.Int("stations", len(f.Stations)),
	)
	return nil
}
