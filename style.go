package streams

// SVarTag selects how many producers an SVar runs at once.
type SVarTag int

const (
	// TagSerial restricts an SVar to at most one active worker at a time.
	// The consumer is still pulled concurrently with that one producer.
	TagSerial SVarTag = iota
	// TagParallel allows every dispatched worker to run concurrently.
	TagParallel
)

// SVarSched selects the work-queue and output-queue discipline.
type SVarSched int

const (
	// SchedLIFO dispatches the most recently parked/pushed continuation first.
	SchedLIFO SVarSched = iota
	// SchedFIFO dispatches continuations in arrival order.
	SchedFIFO
)

// SVarStyle is the (tag, sched) pair spec.md §4.3.1 decomposes the four
// merge disciplines into.
type SVarStyle struct {
	Tag   SVarTag
	Sched SVarSched
}

// The four SVar styles. "Serial" streams (KStream's plain Append) never
// construct an SVar at all; SerialLIFO/SerialFIFO exist for SVar-backed
// single-worker-at-a-time use (e.g. a bounded single-producer pipe) where a
// concurrent consumer is still wanted.
var (
	SerialLIFO   = SVarStyle{Tag: TagSerial, Sched: SchedLIFO}
	SerialFIFO   = SVarStyle{Tag: TagSerial, Sched: SchedFIFO}
	ParallelLIFO = SVarStyle{Tag: TagParallel, Sched: SchedLIFO}
	ParallelFIFO = SVarStyle{Tag: TagParallel, Sched: SchedFIFO}
)

// Style is the merge discipline a KStream expression is built under. It
// decides which append/bind pair a style adapter resolves to.
type Style int

const (
	// Serial exhausts the left branch fully before advancing to the right.
	Serial Style = iota
	// Interleaved alternates between branches, round-robin, finite fan-in only.
	Interleaved
	// ParallelDemand is demand-driven: the left branch runs first, the
	// right is dispatched once the scheduler has spare capacity for it.
	ParallelDemand
	// ParallelFair runs every branch concurrently from the start.
	ParallelFair
)

func (s Style) String() string {
	switch s {
	case Serial:
		return "Serial"
	case Interleaved:
		return "Interleaved"
	case ParallelDemand:
		return "ParallelDemand"
	case ParallelFair:
		return "ParallelFair"
	default:
		return "Style(?)"
	}
}
