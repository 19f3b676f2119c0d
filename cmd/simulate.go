package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/infrabrasil/vazios/internal/scorer"
)

var (
	simulateID      string
	simulateAdd     int
	simulateScoring scoringFlags
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Estimate the effect of adding charging points to a municipality",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := simulateScoring.params(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, "scoring")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m, err := st.GetMunicipality(ctx, simulateID)
		if err != nil {
			return err
		}
		ind, err := st.GetIndicator(ctx, simulateID)
		if err != nil {
			return err
		}

		sim, err := scorer.SimulateAddingChargingPoints(*m, ind, simulateAdd, p)
		if err != nil {
			return err
		}
		formatSimulation(cmd.OutOrStdout(), m.Name, sim)
		return nil
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateID, "id", "", "municipality ID (IBGE code)")
	_ = simulateCmd.MarkFlagRequired("id")
	simulateCmd.Flags().IntVar(&simulateAdd, "add", 1, "charging points to add")
	simulateScoring.register(simulateCmd)
	rootCmd.AddCommand(simulateCmd)
}

// formatSimulation writes a before/after comparison to out.
func formatSimulation(out io.Writer, name string, sim *scorer.Simulation) {
	_, _ = fmt.Fprintf(out, "%s (%s): +%d charging point(s)\n", name, sim.MunicipalityID, sim.Additional)
	_, _ = fmt.Fprintf(out, "  before: %d points, %.2f/100k, %s, score %d (%s)\n",
		sim.Before.ChargingPoints, sim.Before.RatioPer100k, sim.Before.Status, sim.Before.Score, sim.Before.Level)
	_, _ = fmt.Fprintf(out, "  after:  %d points, %.2f/100k, %s, score %d (%s)\n",
		sim.After.ChargingPoints, sim.After.RatioPer100k, sim.After.Status, sim.After.Score, sim.After.Level)
	_, _ = fmt.Fprintf(out, "  score reduction: %d, population benefited: %d\n", sim.ScoreReduction, sim.PopulationBenefited)
}
