// Package runner drives the scheduling loop: one ticker per tracked pair,
// each tick re-reading position state, running the exit pipeline and
// dispatching executions.
package runner

import (
	"context"
	"sync"
	"time"

	"trade_guard/internal/execution"
	"trade_guard/internal/models"
	"trade_guard/internal/modules/config"
	healthsvc "trade_guard/internal/modules/health/service"
	"trade_guard/internal/modules/venue"
	"trade_guard/internal/store"
	"trade_guard/pkg/logger"
)

// Notifier is the alert channel this core consumes. Failures are logged,
// never escalated into trade decisions.
type Notifier interface {
	IsReady() bool
	Send(ctx context.Context, msg string) error
	Sendf(ctx context.Context, format string, args ...any) error
}

const signalQueueMax = 32

type Runner struct {
	cfg      *config.Config
	presets  *config.Presets
	venue    venue.Adapter
	store    store.Store
	exec     *execution.Pipeline
	notifier Notifier
	state    *healthsvc.State

	signals chan models.Signal
	wg      sync.WaitGroup
}

func New(
	cfg *config.Config,
	presets *config.Presets,
	v venue.Adapter,
	s store.Store,
	exec *execution.Pipeline,
	n Notifier,
	state *healthsvc.State,
) *Runner {
	return &Runner{
		cfg:      cfg,
		presets:  presets,
		venue:    v,
		store:    s,
		exec:     exec,
		notifier: n,
		state:    state,
		signals:  make(chan models.Signal, signalQueueMax),
	}
}

// Submit queues an entry signal. Non-blocking: a full queue drops the
// signal and reports false.
func (r *Runner) Submit(sig models.Signal) bool {
	select {
	case r.signals <- sig:
		return true
	default:
		logger.Warn("signal queue full, dropping %s", sig.Pair)
		return false
	}
}

// Start launches one loop per pair plus the signal worker. Loops stop when
// ctx is cancelled; Wait blocks until in-flight ticks drain.
func (r *Runner) Start(ctx context.Context) {
	interval := r.cfg.TickInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	r.state.SetReady(true)

	for _, pair := range r.cfg.Pairs {
		pair := pair
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					r.tick(ctx, pair)
				}
			}
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-r.signals:
				r.onSignal(ctx, sig)
			}
		}
	}()
}

// Wait blocks until every loop has finished its current tick. In-flight
// venue calls run on detached contexts, so shutdown reconciles fills
// instead of orphaning them.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// execContext detaches the execution leg from the scheduling context: a
// cancelled tick must still let the venue call finish and settle.
func execContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
