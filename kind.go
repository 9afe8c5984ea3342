package offload

// Kind classifies a unit of work and determines which lane services it.
type Kind int

const (
	// IOBound work spends its time waiting: database lookups, remote
	// calls, file reads. Serviced by the elastic I/O lane.
	IOBound Kind = iota

	// CPUBound work spends its time computing. Serviced by the fixed-size
	// CPU lane so it cannot starve the rest of the process.
	CPUBound

	// Background work is deferred batch work with no caller waiting on
	// the hot path. Serviced by the single sequential lane in FIFO order.
	Background
)

func (k Kind) String() string {
	switch k {
	case IOBound:
		return "io_bound"
	case CPUBound:
		return "cpu_bound"
	case Background:
		return "background"
	default:
		return "unknown"
	}
}
