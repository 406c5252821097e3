package streams

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/zhangyunhao116/fastrand"
	"github.com/zhangyunhao116/skipset"
)

// svarState is the lifecycle state of an SVar.
type svarState int

const (
	svarOpen svarState = iota
	svarDraining
	svarClosed
)

// eventKind tags the three things a worker can post to an SVar's output
// queue: a produced value, a notice that a child branch finished without
// error, or an unrecovered failure.
type eventKind int

const (
	eventValue eventKind = iota
	eventChildStop
	eventException
)

// Event is one entry in an SVar's output queue.
type Event[T any] struct {
	Kind  eventKind
	Value T
	Err   error
}

// pending is a parked continuation waiting in the work queue for a worker
// slot. It is exactly what a producer hands back to the SVar when it parks
// on a full output queue, and exactly what Coparallel enqueues for a branch
// it does not dispatch immediately.
type pending[T any] struct {
	resume KStream[T]
}

// AccountID names one SVar's telemetry entry in the package-level registry.
type AccountID uint64

func newAccountID() AccountID {
	return AccountID(fastrand.Uint64())
}

// SVarStats are the live, lock-free counters for one SVar. Every field is
// updated with sync/atomic from worker and consumer goroutines; read it
// through SVarStatsFor for a point-in-time snapshot.
type SVarStats struct {
	WorkersSpawned    atomic.Int64
	ValuesDelivered   atomic.Int64
	BackpressureParks atomic.Int64
	WorkersCancelled  atomic.Int64
}

// SVarStatsSnapshot is a plain copy of SVarStats taken at one instant.
type SVarStatsSnapshot struct {
	WorkersSpawned    int64
	ValuesDelivered   int64
	BackpressureParks int64
	WorkersCancelled  int64
}

var registry = xsync.NewMapOf[AccountID, *SVarStats]()

// SVarStatsFor returns a snapshot of the named SVar's telemetry, or the zero
// snapshot if no SVar was ever registered under that id (including after it
// has been garbage collected — registration is removed on AbandonSVar).
func SVarStatsFor(id AccountID) SVarStatsSnapshot {
	stats, ok := registry.Load(id)
	if !ok {
		return SVarStatsSnapshot{}
	}
	return SVarStatsSnapshot{
		WorkersSpawned:    stats.WorkersSpawned.Load(),
		ValuesDelivered:   stats.ValuesDelivered.Load(),
		BackpressureParks: stats.BackpressureParks.Load(),
		WorkersCancelled:  stats.WorkersCancelled.Load(),
	}
}

// SVar is the concurrent bounded buffer and worker scheduler every merge
// operator in this package builds on. Producers push Events into a bounded
// outputQueue; when that queue is full a producer parks its own
// continuation into workQueue and returns instead of blocking its
// goroutine. One consumer drains outputQueue through pull/DrainSVar. A
// parked continuation is dispatched back onto a worker only while sv.mu is
// held, by the consumer's pull or by a worker's exit (workerDoneLocked),
// which is what keeps dispatch decisions race-free without a separate CAS
// (see DESIGN.md).
type SVar[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	style      SVarStyle
	bound      int
	workerCap  int
	activeJobs int

	outputQueue []Event[T]
	workQueue   []pending[T]

	state svarState

	nextWorkerID uint64
	cancelled    *skipset.Uint64Set

	id    AccountID
	stats *SVarStats

	// ctx is the consumer-abandonment signal threaded in from NewSVarCtx
	// (context.Background() if none was given). closeCh is closed exactly
	// once, by closeLocked, so the ctx-watching goroutine below exits
	// whether sv closes via ctx cancellation, an exception, or natural
	// exhaustion.
	ctx       context.Context
	closeCh   chan struct{}
	closeOnce sync.Once
}

// SVarOption configures an SVar at construction time.
type SVarOption func(*svarConfig)

type svarConfig struct {
	bound     int
	workerCap int
}

func defaultSVarConfig() svarConfig {
	return svarConfig{bound: 64, workerCap: 0}
}

// WithOutputBound sets the bounded output queue's capacity. Once it is full,
// producers park rather than block. NewSVar's default is 64; n <= 0 leaves
// the bound unchanged.
func WithOutputBound(n int) SVarOption {
	return func(c *svarConfig) {
		if n > 0 {
			c.bound = n
		}
	}
}

// WithWorkerLimit caps the number of workers an SVar will run concurrently,
// regardless of how many continuations are parked in its work queue. Zero
// (the default) means unbounded — one worker per dispatched branch.
func WithWorkerLimit(n int) SVarOption {
	return func(c *svarConfig) {
		if n > 0 {
			c.workerCap = n
		}
	}
}

// NewSVar creates an SVar of the given style and registers it for
// telemetry. Callers should AbandonSVar it once fully drained to release
// the registry entry. Equivalent to NewSVarCtx(context.Background(), ...).
func NewSVar[T any](style SVarStyle, opts ...SVarOption) *SVar[T] {
	return NewSVarCtx[T](context.Background(), style, opts...)
}

// NewSVarCtx is NewSVar with a context.Context wired into the consumer-
// abandonment path spec.md §4.3.3 describes ("Open → Closed (abort):
// consumer abandons stream OR an Exception event..."): when ctx is done,
// sv transitions straight to Closed and every live worker observes
// cancellation, exactly as if the caller had called sv.Abandon() directly.
// This mirrors the teacher's context.go/parallel.go convention of a
// ctx-aware constructor beside the plain one (ParallelMap/ParallelMapCtx).
func NewSVarCtx[T any](ctx context.Context, style SVarStyle, opts ...SVarOption) *SVar[T] {
	cfg := defaultSVarConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	sv := &SVar[T]{
		style:     style,
		bound:     cfg.bound,
		workerCap: cfg.workerCap,
		cancelled: skipset.NewUint64(),
		id:        newAccountID(),
		stats:     &SVarStats{},
		ctx:       ctx,
		closeCh:   make(chan struct{}),
	}
	sv.cond = sync.NewCond(&sv.mu)
	registry.Store(sv.id, sv.stats)
	go sv.watchContext()
	return sv
}

// watchContext runs for sv's lifetime, calling Abandon as soon as ctx is
// done. It exits without doing anything if sv closes first by some other
// path (exhaustion or an Exception event), since closeLocked closes
// closeCh exactly once on every route to Closed.
func (sv *SVar[T]) watchContext() {
	select {
	case <-sv.ctx.Done():
		sv.Abandon()
	case <-sv.closeCh:
	}
}

// AccountID reports this SVar's telemetry identity.
func (sv *SVar[T]) AccountID() AccountID { return sv.id }

// AbandonSVar removes sv's telemetry entry from the registry. Safe to call
// more than once.
func AbandonSVar[T any](sv *SVar[T]) {
	registry.Delete(sv.id)
}

// Abandon transitions sv straight to Closed and cancels every live worker,
// spec.md §4.3.3's consumer-abandonment path. Idempotent and safe to call
// concurrently with pull()/push*. A direct NewSVar/NewSVarCtx caller that
// might stop draining before exhaustion should defer sv.Abandon() so its
// workers don't outlive the caller's interest in them — exactly the role
// FromSVar's returned KStream already plays automatically via WithAbandon.
func (sv *SVar[T]) Abandon() {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.abandonLocked()
}

// closeLocked transitions sv to Closed and closes closeCh exactly once,
// unblocking watchContext (and anything else waiting on sv's lifetime).
// Must be called with sv.mu held.
func (sv *SVar[T]) closeLocked() {
	sv.state = svarClosed
	sv.closeOnce.Do(func() { close(sv.closeCh) })
}

// dispatch starts a worker running resume. Under TagSerial it is only ever
// called while no other worker is active; TagParallel callers may dispatch
// freely. Must be called with sv.mu held; the worker goroutine is started
// without releasing it.
func (sv *SVar[T]) dispatchLocked(resume KStream[T]) {
	sv.activeJobs++
	workerID := sv.nextWorkerID
	sv.nextWorkerID++
	sv.stats.WorkersSpawned.Add(1)
	go runWorker(sv, workerID, resume)
}

// enqueueWorkLocked parks resume in the work queue instead of dispatching it
// immediately. Must be called with sv.mu held.
func (sv *SVar[T]) enqueueWorkLocked(resume KStream[T]) {
	switch sv.style.Sched {
	case SchedFIFO:
		sv.workQueue = append(sv.workQueue, pending[T]{resume: resume})
	default: // SchedLIFO
		sv.workQueue = append(sv.workQueue, pending[T]{resume: resume})
	}
}

// popWorkLocked removes and returns the next parked continuation per the
// SVar's scheduling discipline. ok is false if the work queue is empty.
// Must be called with sv.mu held.
func (sv *SVar[T]) popWorkLocked() (resume KStream[T], ok bool) {
	if len(sv.workQueue) == 0 {
		return resume, false
	}
	switch sv.style.Sched {
	case SchedFIFO:
		p := sv.workQueue[0]
		sv.workQueue = sv.workQueue[1:]
		return p.resume, true
	default: // SchedLIFO
		last := len(sv.workQueue) - 1
		p := sv.workQueue[last]
		sv.workQueue = sv.workQueue[:last]
		return p.resume, true
	}
}

// dispatchFromWorkQueueLocked pulls and dispatches as many parked
// continuations as capacity allows. Called whenever the consumer observes
// room to dispatch: an empty output queue (nothing left to deliver) with
// room under workerCap. This single rule is what produces demand-driven
// elasticity for Coparallel without any special-casing of "first park":
// a slow consumer rarely finds the queue empty, so a lazily-enqueued branch
// stays parked; a fast consumer finds it empty often, so the branch gets
// dispatched promptly. Must be called with sv.mu held.
func (sv *SVar[T]) dispatchFromWorkQueueLocked() {
	if sv.state == svarClosed {
		// A worker racing abandonment can still park a continuation after
		// workQueue was cleared (push failed because state is Closed, not
		// because outputQueue was full); refusing to dispatch here is what
		// keeps that continuation from reviving as an uncancelled zombie
		// worker instead of staying dead like every other live worker.
		return
	}
	if len(sv.outputQueue) >= sv.bound {
		// No room for a dispatched worker to push into; redispatching now
		// would only spin it straight back into parkWorker. Leave it parked
		// until the consumer drains outputQueue below bound.
		return
	}
	for sv.workerCap == 0 || sv.activeJobs < sv.workerCap {
		if sv.style.Tag == TagSerial && sv.activeJobs > 0 {
			return
		}
		resume, ok := sv.popWorkLocked()
		if !ok {
			return
		}
		sv.dispatchLocked(resume)
	}
}

// pushValue delivers a value to the output queue, waking the consumer. If
// the queue is at bound (or sv is Closed), it returns false and the
// caller (the worker's produce loop) must park its own continuation via
// enqueueWorkLocked and return without posting.
func (sv *SVar[T]) pushValue(v T) (ok bool) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.state == svarClosed {
		return false
	}
	if len(sv.outputQueue) >= sv.bound {
		sv.stats.BackpressureParks.Add(1)
		return false
	}
	sv.outputQueue = append(sv.outputQueue, Event[T]{Kind: eventValue, Value: v})
	sv.stats.ValuesDelivered.Add(1)
	sv.cond.Broadcast()
	return true
}

func (sv *SVar[T]) pushChildStop() {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.state == svarClosed {
		return
	}
	sv.outputQueue = append(sv.outputQueue, Event[T]{Kind: eventChildStop})
	sv.cond.Broadcast()
}

func (sv *SVar[T]) pushException(err error) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.state == svarClosed {
		return
	}
	sv.outputQueue = append(sv.outputQueue, Event[T]{Kind: eventException, Err: err})
	sv.cond.Broadcast()
}

// workerDoneLocked records that a worker goroutine has fully exited,
// whether by completing, parking, or being cancelled. Must be called with
// sv.mu held.
func (sv *SVar[T]) workerDoneLocked() {
	sv.activeJobs--
	sv.dispatchFromWorkQueueLocked()
	sv.cond.Broadcast()
}

// pull blocks until there is an event to deliver, or the SVar is fully
// drained (no output, no active workers, no parked work), in which case ok
// is false. This is the sole place dispatch-on-empty-queue elasticity
// fires, and the sole place Closed/Draining transitions are observed by the
// consumer.
func (sv *SVar[T]) pull() (ev Event[T], ok bool) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	for {
		if len(sv.outputQueue) > 0 {
			ev = sv.outputQueue[0]
			sv.outputQueue = sv.outputQueue[1:]
			if len(sv.outputQueue) == 0 {
				sv.dispatchFromWorkQueueLocked()
			}
			if ev.Kind == eventException {
				sv.abandonLocked()
			}
			return ev, true
		}
		if sv.state == svarClosed {
			return Event[T]{}, false
		}
		if sv.activeJobs == 0 && len(sv.workQueue) == 0 {
			sv.closeLocked()
			return Event[T]{}, false
		}
		sv.dispatchFromWorkQueueLocked()
		if sv.activeJobs == 0 && len(sv.workQueue) == 0 {
			sv.closeLocked()
			return Event[T]{}, false
		}
		sv.cond.Wait()
	}
}

// abandonLocked transitions sv straight to Closed, cancelling every
// currently running worker. Called either when an Exception event is
// observed (spec.md's "drain queue up to exception, then abort" policy) or
// when a consumer stops pulling before the stream is exhausted (a
// ConsumerAbort). Must be called with sv.mu held.
func (sv *SVar[T]) abandonLocked() {
	if sv.state == svarClosed {
		return
	}
	sv.closeLocked()
	for id := uint64(0); id < sv.nextWorkerID; id++ {
		sv.cancelled.Add(id)
	}
	sv.workQueue = nil
	sv.cond.Broadcast()
}

func (sv *SVar[T]) isCancelled(workerID uint64) bool {
	return sv.cancelled.Contains(workerID)
}

// FromSVar adapts sv's output into a KStream: pulling repeatedly, skipping
// ChildStop markers (they signal one branch finishing, not sv as a whole),
// and turning an Exception event into a panic so it surfaces through
// RunDrain/FoldlK the same way a producer's own panic would. The returned
// stream (and every tail it yields) carries sv.Abandon as its abandonment
// hook, so a combinator that discards it early — TakeK truncating,
// ZipWith's shorter side winning — still cancels sv's live workers per
// spec.md §4.3.3/§8's cancellation property, even though nothing ever
// steps it to its natural Stop.
func FromSVar[T any](sv *SVar[T]) KStream[T] {
	return WithAbandon(KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		for {
			ev, ok := sv.pull()
			if !ok {
				AbandonSVar(sv)
				return Sink[T]{Kind: SinkStop}
			}
			switch ev.Kind {
			case eventValue:
				return Sink[T]{Kind: SinkYield, Value: ev.Value, Tail: FromSVar(sv)}
			case eventChildStop:
				continue
			default: // eventException
				AbandonSVar(sv)
				panic(ev.Err)
			}
		}
	}}, func() {
		sv.Abandon()
		AbandonSVar(sv)
	})
}

// DrainSVar steps sv's KStream view to completion, discarding values. A
// thin convenience over RunDrain(FromSVar(sv)) for callers that already
// hold the SVar directly.
func DrainSVar[T any](sv *SVar[T]) error {
	return RunDrain(FromSVar(sv))
}

// seedLocked installs the initial set of dispatched/parked branches a merge
// constructor builds the SVar with. It must run before any consumer call to
// pull observes the SVar, so callers invoke it immediately after NewSVar
// and before returning the KStream that wraps sv.
//
// Deliberately does NOT call dispatchFromWorkQueueLocked after fn returns:
// outputQueue is always empty at construction time (nothing has produced
// yet), so an unconditional post-seed dispatch would pop every parked
// branch straight back off the work queue regardless of demand. That
// would make Coparallel's park(b) indistinguishable from dispatch(b) —
// b must stay parked until pull observes the queue actually run dry, per
// spec.md §4.3.2's demand-driven dispatch policy.
func (sv *SVar[T]) seedLocked(fn func(dispatch func(KStream[T]), park func(KStream[T]))) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	dispatch := func(k KStream[T]) { sv.dispatchLocked(k) }
	park := func(k KStream[T]) { sv.enqueueWorkLocked(k) }
	fn(dispatch, park)
}
