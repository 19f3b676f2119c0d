package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/infrabrasil/vazios/internal/recalc"
	"github.com/infrabrasil/vazios/internal/store"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute coverage indicators for every municipality",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "recalc")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := newRecalculator(st).Run(ctx)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"run %s: %d municipalities, %d stations (%d orphaned), %d gaps in %s\n",
			res.RunID, res.Municipalities, res.Stations, res.Orphans, res.Gaps, res.Duration.Round(time.Millisecond))
		return nil
	},
}

func newRecalculator(st store.Store) *recalc.Recalculator {
	return recalc.New(st, cfg.Scoring.Parameters(), recalc.Options{
		AssignRadiusKM: cfg.Recalc.AssignRadiusKM,
		Workers:        cfg.Recalc.Workers,
	})
}

func init() {
	rootCmd.AddCommand(recalcCmd)
}
