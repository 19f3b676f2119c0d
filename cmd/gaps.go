package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/infrabrasil/vazios/internal/geo"
	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/scorer"
	"github.com/infrabrasil/vazios/internal/store"
)

var (
	gapsState   string
	gapsRegion  string
	gapsLimit   int
	gapsFormat  string
	gapsOutput  string
	gapsScoring scoringFlags
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List territorial gaps ordered by criticality",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := gapsScoring.params(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, "scoring")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ms, err := st.ListMunicipalities(ctx, store.MunicipalityFilter{
			State:  gapsState,
			Region: model.Region(gapsRegion),
		})
		if err != nil {
			return eris.Wrap(err, "gaps: list municipalities")
		}
		inds, err := st.ListIndicators(ctx)
		if err != nil {
			return eris.Wrap(err, "gaps: list indicators")
		}

		gaps, adequate := scorer.IdentifyTerritorialGaps(ms, inds, p)
		if gapsLimit > 0 && len(gaps) > gapsLimit {
			gaps = gaps[:gapsLimit]
		}

		out := cmd.OutOrStdout()
		if gapsOutput != "" {
			f, err := os.Create(gapsOutput)
			if err != nil {
				return eris.Wrapf(err, "gaps: create %s", gapsOutput)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		switch gapsFormat {
		case "table":
			formatGapsTable(out, gaps)
			_, _ = fmt.Fprintf(out, "\n%d gaps, %d adequate (params %s)\n",
				len(gaps), len(adequate), scorer.ParametersHash(p))
			return nil
		case "csv":
			return writeGapsCSV(out, gaps)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(gaps), "gaps: encode json")
		case "geojson":
			data, err := geo.MarshalAssessments(gaps)
			if err != nil {
				return err
			}
			_, err = out.Write(append(data, '\n'))
			return eris.Wrap(err, "gaps: write geojson")
		default:
			return eris.Errorf("gaps: unknown format %q (want table, csv, json or geojson)", gapsFormat)
		}
	},
}

func init() {
	gapsCmd.Flags().StringVar(&gapsState, "state", "", "filter by state (UF)")
	gapsCmd.Flags().StringVar(&gapsRegion, "region", "", "filter by macro-region")
	gapsCmd.Flags().IntVar(&gapsLimit, "limit", 0, "maximum gaps to print (0 = all)")
	gapsCmd.Flags().StringVar(&gapsFormat, "format", "table", "output format: table, csv, json or geojson")
	gapsCmd.Flags().StringVar(&gapsOutput, "output", "", "write to file instead of stdout")
	gapsScoring.register(gapsCmd)
	rootCmd.AddCommand(gapsCmd)
}

// formatGapsTable writes a tabular representation of gaps to out.
func formatGapsTable(out io.Writer, gaps []scorer.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tMUNICIPALITY\tUF\tPOPULATION\tPOINTS\tSCORE\tLEVEL\tJUSTIFICATION")
	_, _ = fmt.Fprintln(w, "--\t------------\t--\t----------\t------\t-----\t-----\t-------------")

	for _, a := range gaps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			a.Municipality.ID,
			a.Municipality.Name,
			a.Municipality.State,
			a.Municipality.Population,
			a.Indicator.ChargingPoints,
			a.Score,
			a.Level,
			truncate(a.Justification, 80),
		)
	}
	_ = w.Flush()
}

var gapsCSVHeader = []string{
	"id", "name", "state", "region", "population", "charging_points", "ratio_per_100k",
	"nearest_distance_km", "status", "score", "level", "justification",
}

// writeGapsCSV writes gaps as CSV with a header row.
func writeGapsCSV(out io.Writer, gaps []scorer.Assessment) error {
	w := csv.NewWriter(out)
	if err := w.Write(gapsCSVHeader); err != nil {
		return eris.Wrap(err, "gaps: write csv header")
	}
	for _, a := range gaps {
		row := []string{
			a.Municipality.ID,
			a.Municipality.Name,
			a.Municipality.State,
			string(a.Municipality.Region),
			strconv.FormatInt(a.Municipality.Population, 10),
			strconv.Itoa(a.Indicator.ChargingPoints),
			formatOptional(a.Indicator.RatioPer100k),
			formatOptional(a.Indicator.NearestDistanceKM),
			string(a.Indicator.Status),
			strconv.Itoa(a.Score),
			string(a.Level),
			a.Justification,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "gaps: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "gaps: flush csv")
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
