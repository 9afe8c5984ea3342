package offload_test

import (
	"context"
	"fmt"
	"time"

	"github.com/offloadkit/offload"
)

// A gateway filter offloads a blocking role lookup to the I/O lane and
// keeps serving even when the lookup misbehaves: the caller always gets
// a role string back within the timeout.
func ExampleSubmit() {
	dispatcher, err := offload.New()
	if err != nil {
		panic(err)
	}
	defer dispatcher.Shutdown(time.Second)

	lookup := func(userID string) offload.Descriptor[string] {
		return offload.Descriptor[string]{
			Kind:    offload.IOBound,
			Timeout: 5 * time.Second,
			Work: func(ctx context.Context) (string, error) {
				time.Sleep(10 * time.Millisecond) // simulated database latency
				if userID == "user123" {
					return "ADMIN", nil
				}
				return "USER", nil
			},
			Fallback: offload.FallbackValue("UNKNOWN"),
		}
	}

	outcome, err := offload.Submit(context.Background(), dispatcher, lookup("user123"))
	if err != nil {
		panic(err)
	}
	fmt.Println(outcome.Value)
	// Output: ADMIN
}

// Request paths are counted on the hot path without blocking; the flush
// reads and resets the counters and raises an alert for paths above the
// threshold.
func ExampleAggregator_Flush() {
	dispatcher, err := offload.New(
		offload.WithAlertThreshold(3),
		offload.WithAlertSink(offload.AlertFunc(func(label string, count int64) {
			fmt.Printf("high traffic on %s: %d requests\n", label, count)
		})),
	)
	if err != nil {
		panic(err)
	}
	defer dispatcher.Shutdown(time.Second)

	for i := 0; i < 4; i++ {
		dispatcher.Record("/api/test")
	}

	// Normally driven by the background schedule; invoked directly here
	// for a deterministic example.
	dispatcher.Metrics().Flush()
	// Output: high traffic on /api/test: 4 requests
}
