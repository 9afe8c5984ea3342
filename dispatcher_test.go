package offload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Shutdown(time.Second) })
	return d
}

func TestSubmit_CompletedBeforeTimeout(t *testing.T) {
	d := newTestDispatcher(t)

	var onErrorCalls atomic.Int32
	start := time.Now()
	out, err := Submit(context.Background(), d, Descriptor[string]{
		Kind:    IOBound,
		Timeout: 5 * time.Second,
		Work: func(ctx context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond) // simulated lookup latency
			return "ADMIN", nil
		},
		Fallback: FallbackValue("UNKNOWN"),
		OnError:  func(error) { onErrorCalls.Add(1) },
	})

	require.NoError(t, err)
	require.Equal(t, Completed, out.State)
	require.Equal(t, "ADMIN", out.Value)
	require.NoError(t, out.Cause)
	require.Less(t, time.Since(start), time.Second)
	require.Zero(t, onErrorCalls.Load(), "onError must not fire on success")
}

func TestSubmit_WorkErrorAppliesFallback(t *testing.T) {
	d := newTestDispatcher(t)

	workErr := errors.New("connection refused")
	var observed []error
	out, err := Submit(context.Background(), d, Descriptor[string]{
		Kind:     IOBound,
		Timeout:  time.Second,
		Work:     func(ctx context.Context) (string, error) { return "", workErr },
		Fallback: FallbackValue("UNKNOWN"),
		OnError:  func(e error) { observed = append(observed, e) },
	})

	require.NoError(t, err)
	require.Equal(t, FallbackApplied, out.State)
	require.Equal(t, "UNKNOWN", out.Value)
	require.ErrorIs(t, out.Cause, workErr)
	require.Len(t, observed, 1, "onError fires exactly once")
	require.ErrorIs(t, observed[0], workErr)
}

func TestSubmit_TimeoutAppliesFallback(t *testing.T) {
	d := newTestDispatcher(t)

	const timeout = 30 * time.Millisecond
	workCancelled := make(chan error, 1)
	var observed atomic.Int32

	start := time.Now()
	out, err := Submit(context.Background(), d, Descriptor[string]{
		Kind:    IOBound,
		Timeout: timeout,
		Work: func(ctx context.Context) (string, error) {
			<-ctx.Done()
			workCancelled <- ctx.Err()
			return "", ctx.Err()
		},
		Fallback: func(cause error) string {
			require.ErrorIs(t, cause, ErrTimeout)
			return "UNKNOWN"
		},
		OnError: func(e error) {
			observed.Add(1)
			require.ErrorIs(t, e, ErrTimeout)
		},
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, FallbackApplied, out.State)
	require.Equal(t, "UNKNOWN", out.Value)
	require.ErrorIs(t, out.Cause, ErrTimeout)
	require.GreaterOrEqual(t, elapsed, timeout)
	require.EqualValues(t, 1, observed.Load())

	// The detached work sees its context cancelled once the race is lost.
	select {
	case cancelErr := <-workCancelled:
		require.ErrorIs(t, cancelErr, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("work context was never cancelled after timeout")
	}
}

func TestSubmit_LateResultDiscarded(t *testing.T) {
	d := newTestDispatcher(t)

	workDone := make(chan struct{})
	out, err := Submit(context.Background(), d, Descriptor[string]{
		Kind:    IOBound,
		Timeout: 20 * time.Millisecond,
		Work: func(ctx context.Context) (string, error) {
			// Ignores its context: keeps running detached past the timeout.
			time.Sleep(80 * time.Millisecond)
			close(workDone)
			return "late", nil
		},
		Fallback: FallbackValue("UNKNOWN"),
	})

	require.NoError(t, err)
	require.Equal(t, FallbackApplied, out.State)
	require.Equal(t, "UNKNOWN", out.Value)

	// The caller already holds the only outcome; the late value has
	// nowhere to land.
	select {
	case <-workDone:
	case <-time.After(time.Second):
		t.Fatal("detached work never finished")
	}
	require.Equal(t, "UNKNOWN", out.Value)
}

func TestSubmit_CancelledByCaller(t *testing.T) {
	d := newTestDispatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var fallbackCalls, onErrorCalls atomic.Int32
	out, err := Submit(ctx, d, Descriptor[string]{
		Kind:    IOBound,
		Timeout: 5 * time.Second,
		Work: func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		Fallback: func(error) string {
			fallbackCalls.Add(1)
			return "UNKNOWN"
		},
		OnError: func(error) { onErrorCalls.Add(1) },
	})

	require.NoError(t, err)
	require.Equal(t, Cancelled, out.State)
	require.ErrorIs(t, out.Cause, ErrCancelled)
	require.ErrorIs(t, out.Cause, context.Canceled)
	require.Zero(t, fallbackCalls.Load(), "fallback must not run on cancellation")
	require.Zero(t, onErrorCalls.Load(), "onError must not fire on cancellation")
}

func TestSubmit_WorkPanicRoutedThroughFallback(t *testing.T) {
	d := newTestDispatcher(t)

	var observed atomic.Int32
	out, err := Submit(context.Background(), d, Descriptor[string]{
		Kind:     CPUBound,
		Timeout:  time.Second,
		Work:     func(ctx context.Context) (string, error) { panic("boom") },
		Fallback: FallbackValue("COMPUTATION_FAILED"),
		OnError: func(e error) {
			observed.Add(1)
			require.ErrorIs(t, e, ErrWorkPanicked)
		},
	})

	require.NoError(t, err)
	require.Equal(t, FallbackApplied, out.State)
	require.Equal(t, "COMPUTATION_FAILED", out.Value)
	require.ErrorIs(t, out.Cause, ErrWorkPanicked)
	require.EqualValues(t, 1, observed.Load())
}

func TestSubmit_FallbackPanicIsFatal(t *testing.T) {
	d := newTestDispatcher(t)

	out, err := Submit(context.Background(), d, Descriptor[string]{
		Kind:     IOBound,
		Timeout:  time.Second,
		Work:     func(ctx context.Context) (string, error) { return "", errors.New("dependency down") },
		Fallback: func(error) string { panic("broken fallback") },
	})

	require.ErrorIs(t, err, ErrFallbackFailed)
	require.Zero(t, out)
}

func TestSubmit_UnroutedKindRejected(t *testing.T) {
	d := newTestDispatcher(t)

	desc := validDescriptor()
	desc.Kind = Kind(42)
	_, err := Submit(context.Background(), d, desc)
	require.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestSubmit_CapacityExceededOnlyForCPULane(t *testing.T) {
	d := newTestDispatcher(t, WithCPUPoolSize(1), WithCPUQueueCapacity(1))

	started := make(chan struct{})
	release := make(chan struct{})
	blockedDone := make(chan struct{})
	go func() {
		defer close(blockedDone)
		_, _ = Submit(context.Background(), d, Descriptor[string]{
			Kind:    CPUBound,
			Timeout: 5 * time.Second,
			Work: func(ctx context.Context) (string, error) {
				close(started)
				<-release
				return "done", nil
			},
			Fallback: FallbackValue("UNKNOWN"),
		})
	}()
	<-started

	// The single worker is busy; this occupies the one queue slot.
	require.NoError(t, d.registry.cpu.Submit(func() {}))

	desc := validDescriptor()
	desc.Kind = CPUBound
	_, err := Submit(context.Background(), d, desc)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// I/O-kind submissions must not fail under the same CPU load.
	out, err := Submit(context.Background(), d, validDescriptor())
	require.NoError(t, err)
	require.Equal(t, Completed, out.State)

	close(release)
	<-blockedDone
}

func TestSubmit_AfterShutdownFails(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	d.Shutdown(time.Second)

	_, err = Submit(context.Background(), d, validDescriptor())
	require.ErrorIs(t, err, ErrShutdown)
}

func TestShutdown_ZeroGraceReturnsPromptly(t *testing.T) {
	d, err := New(WithCPUPoolSize(1))
	require.NoError(t, err)

	started := make(chan struct{})
	submitDone := make(chan Outcome[string], 1)
	go func() {
		out, _ := Submit(context.Background(), d, Descriptor[string]{
			Kind:    CPUBound,
			Timeout: 30 * time.Second,
			Work: func(ctx context.Context) (string, error) {
				close(started)
				<-ctx.Done() // long-running but cooperative
				return "", ctx.Err()
			},
			Fallback: FallbackValue("UNKNOWN"),
		})
		submitDone <- out
	}()
	<-started

	start := time.Now()
	d.Shutdown(0)
	require.Less(t, time.Since(start), time.Second, "zero-grace shutdown must not wait for in-flight work")

	select {
	case out := <-submitDone:
		require.Equal(t, FallbackApplied, out.State)
	case <-time.After(2 * time.Second):
		t.Fatal("submission never resolved after forced shutdown")
	}
}

// expensiveTransform applies the fixed hash transform repeatedly; the
// result for a given seed is deterministic regardless of pool contention.
func expensiveTransform(seed string) string {
	data := []byte(seed)
	for i := 0; i < 10000; i++ {
		sum := sha256.Sum256(data)
		data = []byte(hex.EncodeToString(sum[:]))
	}
	return string(data[:16])
}

func TestSubmit_HeavyComputationDeterministic(t *testing.T) {
	d := newTestDispatcher(t)

	compute := Descriptor[string]{
		Kind:    CPUBound,
		Timeout: 10 * time.Second,
		Work: func(ctx context.Context) (string, error) {
			return expensiveTransform("test data"), nil
		},
		Fallback: FallbackValue("COMPUTATION_FAILED"),
	}

	first, err := Submit(context.Background(), d, compute)
	require.NoError(t, err)
	require.Equal(t, Completed, first.State)
	require.Len(t, first.Value, 16)

	second, err := Submit(context.Background(), d, compute)
	require.NoError(t, err)
	require.Equal(t, first.Value, second.Value)
}
