package offload

import (
	"time"

	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"
)

// config holds Dispatcher configuration.
type config struct {
	// CPUPoolSize defines the CPU lane worker count.
	// Zero (default) means hardware concurrency (runtime.NumCPU()).
	CPUPoolSize int

	// CPUQueueCapacity defines the CPU lane's bounded backlog. A full
	// queue rejects submissions with ErrCapacityExceeded.
	// Default: 1000.
	CPUQueueCapacity int

	// IOIdleTimeout defines how long an I/O lane worker may stay idle
	// before it is reclaimed.
	// Default: 60s.
	IOIdleTimeout time.Duration

	// BackgroundQueueCapacity defines the background lane's queue size.
	// Default: 1024.
	BackgroundQueueCapacity int

	// FlushInterval is the period of the background metrics flush.
	// Default: 5s.
	FlushInterval time.Duration

	// FlushInitialDelay is the delay before the first flush.
	// Default: 2s.
	FlushInitialDelay time.Duration

	// AlertThreshold is the per-label flushed count above which an alert
	// fires. Default: 3.
	AlertThreshold int64

	// Logger receives structured lifecycle and failure events.
	// Default: zap.NewNop().
	Logger *zap.Logger

	// Alerts receives (label, count) events for counters flushed above
	// AlertThreshold. Default: nil (alerts are only logged).
	Alerts AlertSink

	// Flushes observes every non-zero counter read during a flush.
	// Default: nil.
	Flushes FlushSink

	// Classifier holds the Kind to lane routing policy.
	// Default: NewClassifier().
	Classifier *Classifier
}

// defaultConfig centralizes default values for config. These are applied
// as the options builder base in New.
func defaultConfig() config {
	return config{
		CPUPoolSize:             0, // hardware concurrency
		CPUQueueCapacity:        1000,
		IOIdleTimeout:           60 * time.Second,
		BackgroundQueueCapacity: 1024,
		FlushInterval:           5 * time.Second,
		FlushInitialDelay:       2 * time.Second,
		AlertThreshold:          3,
		Logger:                  zap.NewNop(),
		Classifier:              NewClassifier(),
	}
}

// validateConfig performs invariant checks on the assembled config.
func validateConfig(cfg *config) error {
	if cfg.FlushInterval <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", "flush interval must be positive"))
	}
	if cfg.FlushInitialDelay < 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", "flush initial delay must not be negative"))
	}
	if cfg.Classifier == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", "classifier is required"))
	}
	return nil
}
