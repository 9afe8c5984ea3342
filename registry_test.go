package offload

import (
	"errors"
	"testing"
	"time"

	"github.com/offloadkit/offload/pool"
)

func TestRegistry_LaneMappingIsDeterministic(t *testing.T) {
	cfg := defaultConfig()
	r := newRegistry(&cfg)
	defer r.Shutdown(time.Second)

	if r.lane(LaneCPU) != pool.Executor(r.cpu) {
		t.Fatal("LaneCPU does not resolve to the CPU pool")
	}
	if r.lane(LaneIO) != pool.Executor(r.io) {
		t.Fatal("LaneIO does not resolve to the I/O pool")
	}
	if r.lane(LaneBackground) != pool.Executor(r.background) {
		t.Fatal("LaneBackground does not resolve to the background lane")
	}
	// Handles are stable across acquisitions.
	if r.lane(LaneCPU) != r.lane(LaneCPU) {
		t.Fatal("lane handle changed between acquisitions")
	}
}

func TestRegistry_ShutdownStopsIntakeAndCancelsBase(t *testing.T) {
	cfg := defaultConfig()
	r := newRegistry(&cfg)

	r.Shutdown(time.Second)

	select {
	case <-r.baseCtx.Done():
	default:
		t.Fatal("base context not cancelled after shutdown")
	}

	for _, lane := range []Lane{LaneCPU, LaneIO, LaneBackground} {
		if err := r.lane(lane).Submit(func() {}); !errors.Is(err, pool.ErrClosed) {
			t.Fatalf("lane %s Submit after shutdown = %v; want ErrClosed", lane, err)
		}
	}
}

func TestRegistry_ShutdownIsIdempotent(t *testing.T) {
	cfg := defaultConfig()
	r := newRegistry(&cfg)

	r.Shutdown(time.Second)

	// The second call must be a no-op, not a second drain.
	start := time.Now()
	r.Shutdown(10 * time.Second)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("second Shutdown took %v; want immediate no-op", elapsed)
	}
}
