package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/infrabrasil/vazios/internal/config"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// connectMaxElapsed bounds how long Open keeps retrying a Postgres connect.
var connectMaxElapsed = 30 * time.Second

// Open returns the Store selected by cfg.Driver. Postgres connects are
// retried with exponential backoff; a malformed DSN fails immediately.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		s, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		return openPostgres(ctx, cfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	pgxCfg, err := parsePoolConfig(cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	if err != nil {
		return nil, err
	}

	var s *PostgresStore
	operation := func() error {
		var connErr error
		s, connErr = connectPostgres(ctx, pgxCfg)
		return connErr
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed
	notify := func(err error, wait time.Duration) {
		zap.L().Warn("store: postgres connect failed, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, eris.Wrap(err, "store: open postgres")
	}
	return s, nil
}
