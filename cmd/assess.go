package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/infrabrasil/vazios/internal/scorer"
)

var (
	assessID      string
	assessJSON    bool
	assessScoring scoringFlags
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Show the criticality assessment for one municipality",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := assessScoring.params(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, "scoring")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		m, err := st.GetMunicipality(ctx, assessID)
		if err != nil {
			return err
		}
		ind, err := st.GetIndicator(ctx, assessID)
		if err != nil {
			return err
		}

		a := scorer.Assess(*m, ind, p)
		if assessJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(a), "assess: encode json")
		}
		formatAssessment(cmd.OutOrStdout(), a)
		return nil
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessID, "id", "", "municipality ID (IBGE code)")
	_ = assessCmd.MarkFlagRequired("id")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "print JSON")
	assessScoring.register(assessCmd)
	rootCmd.AddCommand(assessCmd)
}

// formatAssessment writes a human-readable assessment to out.
func formatAssessment(out io.Writer, a scorer.Assessment) {
	m := a.Municipality
	_, _ = fmt.Fprintf(out, "%s (%s) %s, population %d\n", m.Name, m.ID, m.State, m.Population)
	if !a.HasData {
		_, _ = fmt.Fprintln(out, "  no coverage data")
	} else {
		_, _ = fmt.Fprintf(out, "  charging points: %d (%s)\n", a.Indicator.ChargingPoints, a.Indicator.Status)
	}
	_, _ = fmt.Fprintf(out, "  score: %d (%s)\n", a.Score, a.Level)
	_, _ = fmt.Fprintf(out, "    coverage %.1f + population %.1f + distance %.1f\n",
		a.Breakdown.Coverage, a.Breakdown.Population, a.Breakdown.Distance)
	_, _ = fmt.Fprintf(out, "  territorial gap: %t\n", a.IsGap)
	if a.Justification != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", a.Justification)
	}
}
