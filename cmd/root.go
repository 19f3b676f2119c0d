package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/infrabrasil/vazios/internal/config"
	"github.com/infrabrasil/vazios/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "vazios",
	Short:        "Territorial-gap scoring for EV charging coverage",
	Long:         "Scores Brazilian municipalities by EV charging coverage, identifies territorial gaps and simulates new charging points.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore validates the config section a command needs, opens the
// configured store and applies the schema.
func openStore(ctx context.Context, section string) (store.Store, error) {
	if err := cfg.Validate(section); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
