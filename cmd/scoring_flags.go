package main

import (
	"github.com/spf13/cobra"

	"github.com/infrabrasil/vazios/internal/scorer"
)

// scoringFlags lets a command override the configured scoring thresholds.
type scoringFlags struct {
	minPopulation int64
	minPoints     int
	maxDistanceKM float64
	idealRatio    float64
	gapThreshold  int
}

func (f *scoringFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int64Var(&f.minPopulation, "min-population", 0, "minimum relevant population (default from config)")
	fs.IntVar(&f.minPoints, "min-points", 0, "minimum charging points (default from config)")
	fs.Float64Var(&f.maxDistanceKM, "max-distance-km", 0, "maximum reasonable distance in km (default from config)")
	fs.Float64Var(&f.idealRatio, "ideal-ratio", 0, "ideal charging points per 100k inhabitants (default from config)")
	fs.IntVar(&f.gapThreshold, "gap-threshold", 0, "score above which a municipality is a gap (default from config)")
}

// params merges explicitly set flags over the configured parameters.
func (f *scoringFlags) params(cmd *cobra.Command) (scorer.Parameters, error) {
	p := cfg.Scoring.Parameters()
	fs := cmd.Flags()

	if fs.Changed("min-population") {
		p.MinRelevantPopulation = f.minPopulation
	}
	if fs.Changed("min-points") {
		p.MinChargingPoints = f.minPoints
	}
	if fs.Changed("max-distance-km") {
		p.MaxReasonableDistanceKM = f.maxDistanceKM
	}
	if fs.Changed("ideal-ratio") {
		p.IdealRatioPer100k = f.idealRatio
	}
	if fs.Changed("gap-threshold") {
		p.GapScoreThreshold = f.gapThreshold
	}

	if err := scorer.ValidateParameters(p); err != nil {
		return p, err
	}
	return p, nil
}
