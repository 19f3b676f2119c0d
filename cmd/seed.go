package main

import (
	"github.com/spf13/cobra"

	"github.com/infrabrasil/vazios/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load municipalities and charging stations from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := seed.Load(seedFile)
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return seed.Apply(cmd.Context(), st, f)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "path to the seed YAML file")
	rootCmd.AddCommand(seedCmd)
}
