package offload

// AlertSink receives (label, count) events for counters whose flushed
// value exceeds the alert threshold. Implementations must be safe for
// use from the background lane; a slow sink delays everything behind it.
type AlertSink interface {
	Alert(label string, count int64)
}

// AlertFunc adapts a function to AlertSink.
type AlertFunc func(label string, count int64)

func (f AlertFunc) Alert(label string, count int64) { f(label, count) }

// FlushSink observes every non-zero counter read during a flush,
// threshold or not. Alerting and flush observation are separate seams so
// an exporter can see all traffic while alerts stay rare.
type FlushSink interface {
	Flushed(label string, count int64)
}

// FlushFunc adapts a function to FlushSink.
type FlushFunc func(label string, count int64)

func (f FlushFunc) Flushed(label string, count int64) { f(label, count) }
