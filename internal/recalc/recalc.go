package recalc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/infrabrasil/vazios/internal/metrics"
	"github.com/infrabrasil/vazios/internal/scorer"
	"github.com/infrabrasil/vazios/internal/store"
)

// Result reports a completed recalculation.
type Result struct {
	RunID          string        `json:"run_id"`
	Municipalities int           `json:"municipalities"`
	Stations       int           `json:"stations"`
	Orphans        int           `json:"orphans"`
	Gaps           int           `json:"gaps"`
	Duration       time.Duration `json:"duration_ns"`
}

// Recalculator recomputes and persists coverage indicators. Runs are
// serialized; concurrent callers wait for the run in progress to finish.
type Recalculator struct {
	store  store.Store
	params scorer.Parameters
	opts   Options

	mu         sync.Mutex
	onComplete []func(*Result)
	now        func() time.Time
}

// New creates a Recalculator.
func New(st store.Store, p scorer.Parameters, opts Options) *Recalculator {
	return &Recalculator{
		store:  st,
		params: p.WithDefaults(),
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// OnComplete registers fn to be called after every successful run.
func (r *Recalculator) OnComplete(fn func(*Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onComplete = append(r.onComplete, fn)
}

// Run loads municipalities and stations, computes indicators and upserts
// them in a single call.
func (r *Recalculator) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("recalc: starting")

	res, err := r.run(ctx, runID)
	elapsed := time.Since(start)
	metrics.RecalcDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.RecalcRunsTotal.WithLabelValues("error").Inc()
		log.Error("recalc: failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return nil, err
	}
	res.Duration = elapsed

	metrics.RecalcRunsTotal.WithLabelValues("success").Inc()
	metrics.TerritorialGaps.Set(float64(res.Gaps))
	metrics.OrphanStations.Set(float64(res.Orphans))

	log.Info("recalc: complete",
		zap.Int("municipalities", res.Municipalities),
		zap.Int("stations", res.Stations),
		zap.Int("orphans", res.Orphans),
		zap.Int("gaps", res.Gaps),
		zap.Duration("elapsed", elapsed),
	)

	for _, fn := range r.onComplete {
		fn(res)
	}
	return res, nil
}

func (r *Recalculator) run(ctx context.Context, runID string) (*Result, error) {
	ms, err := r.store.ListMunicipalities(ctx, store.MunicipalityFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "recalc: load municipalities")
	}
	stations, err := r.store.ListStations(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "recalc: load stations")
	}

	inds, sum, err := ComputeIndicators(ctx, ms, stations, r.params, r.opts, r.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := r.store.UpsertIndicators(ctx, inds); err != nil {
		return nil, eris.Wrap(err, "recalc: upsert indicators")
	}

	return &Result{
		RunID:          runID,
		Municipalities: len(ms),
		Stations:       sum.Stations,
		Orphans:        sum.Orphans,
		Gaps:           sum.Gaps,
	}, nil
}

// RunEvery runs a recalculation every interval until ctx is cancelled.
// Failed runs are logged and retried on the next tick.
func (r *Recalculator) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
				zap.L().Warn("recalc: scheduled run failed", zap.Error(err))
			}
		}
	}
}
