package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/infrabrasil/vazios/internal/api"
	"github.com/infrabrasil/vazios/internal/recalc"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		st, err := openStore(ctx, "serve")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rc := newRecalculator(st)
		srv := api.New(st, rc, cfg.Scoring.Parameters(), cfg.Server)

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
		}

		interval := time.Duration(cfg.Recalc.IntervalMins) * time.Minute
		if interval > 0 {
			zap.L().Info("scheduled recalculation enabled", zap.Int("interval_mins", cfg.Recalc.IntervalMins))
		}
		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		return runServer(ctx, httpSrv, rc, interval)
	},
}

// runServer serves HTTP and, when interval > 0, runs scheduled
// recalculations until ctx is done or the listener fails. It returns only
// after the server has shut down and any in-flight recalculation has
// returned, so the caller may close the store afterwards.
func runServer(ctx context.Context, httpSrv *http.Server, rc *recalc.Recalculator, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	if interval > 0 {
		g.Go(func() error {
			rc.RunEvery(gctx, interval)
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return nil
	})

	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
