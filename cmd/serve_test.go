package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infrabrasil/vazios/internal/model"
	"github.com/infrabrasil/vazios/internal/recalc"
	"github.com/infrabrasil/vazios/internal/scorer"
	"github.com/infrabrasil/vazios/internal/store"
)

// slowStore holds ListMunicipalities open until the run's context is done.
type slowStore struct {
	store.Store
	started  chan struct{}
	finished atomic.Bool
	calls    atomic.Int32
}

func (s *slowStore) ListMunicipalities(ctx context.Context, _ store.MunicipalityFilter) ([]model.Municipality, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	s.finished.Store(true)
	return nil, ctx.Err()
}

func newSlowStore(t *testing.T) *slowStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return &slowStore{Store: st, started: make(chan struct{})}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRunServer_WaitsForScheduledRun(t *testing.T) {
	st := newSlowStore(t)
	rc := recalc.New(st, scorer.DefaultParameters(), recalc.Options{})
	httpSrv := &http.Server{Addr: freeAddr(t), Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- runServer(ctx, httpSrv, rc, 10*time.Millisecond) }()

	select {
	case <-st.started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled recalculation never started")
	}
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
	assert.True(t, st.finished.Load(), "runServer returned before the recalculation finished")
}

func TestRunServer_ListenErrorStopsScheduler(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close() //nolint:errcheck

	st := newSlowStore(t)
	rc := recalc.New(st, scorer.DefaultParameters(), recalc.Options{})
	httpSrv := &http.Server{Addr: l.Addr().String(), Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- runServer(context.Background(), httpSrv, rc, time.Hour) }()

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server listen")
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not return after a listen failure")
	}
}
