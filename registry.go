package offload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/offloadkit/offload/pool"
)

// Registry owns the three execution lanes and their lifecycle. Lane
// handles live exactly as long as the registry; callers never construct
// or stop them directly.
type Registry struct {
	cpu        *pool.Fixed
	io         *pool.Dynamic
	background *pool.Serial

	logger *zap.Logger

	// baseCtx is threaded into every work invocation; it is cancelled
	// once the shutdown grace period expires so still-running work can
	// stop cooperatively.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	once sync.Once
}

func newRegistry(cfg *config) *Registry {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	return &Registry{
		cpu:        pool.NewFixed(cfg.CPUPoolSize, cfg.CPUQueueCapacity, cfg.Logger),
		io:         pool.NewDynamic(cfg.IOIdleTimeout, cfg.Logger),
		background: pool.NewSerial(cfg.BackgroundQueueCapacity, cfg.Logger),
		logger:     cfg.Logger,
		baseCtx:    baseCtx,
		cancelBase: cancelBase,
	}
}

// lane returns the executor servicing l. It never fails: the mapping is
// deterministic and the handles exist for the registry's whole lifetime.
// Unrouted values default to the I/O lane, which has no admission bound.
func (r *Registry) lane(l Lane) pool.Executor {
	switch l {
	case LaneCPU:
		return r.cpu
	case LaneBackground:
		return r.background
	default:
		return r.io
	}
}

// Shutdown stops accepting new work on all lanes immediately, waits up to
// gracePeriod for already-accepted work to finish, then cancels the work
// context shared by whatever is still running. It is idempotent: the
// second call is a no-op.
//
// Goroutines cannot be killed; "forcible" cancellation here means the
// registry stops waiting and the leftover work only sees its context
// cancelled. Work that ignores the context runs detached until it
// returns on its own.
func (r *Registry) Shutdown(gracePeriod time.Duration) {
	r.once.Do(func() {
		r.logger.Info("registry shutting down", zap.Duration("grace_period", gracePeriod))

		ctx, cancel := context.WithTimeout(context.Background(), gracePeriod)
		defer cancel()

		// Lanes close intake concurrently so the grace period covers
		// only already-accepted work, not a drain queue of lanes.
		var wg sync.WaitGroup
		for _, ex := range []pool.Executor{r.cpu, r.io, r.background} {
			wg.Add(1)
			go func(ex pool.Executor) {
				defer wg.Done()
				if err := ex.Shutdown(ctx); err != nil {
					r.logger.Warn("lane did not drain within grace period", zap.Error(err))
				}
			}(ex)
		}
		wg.Wait()

		r.cancelBase()
		r.logger.Info("registry shut down")
	})
}
