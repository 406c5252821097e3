package streams

import (
	"context"
	"fmt"
)

// maxInterleaveBranches bounds InterleaveAll per the open question in
// spec.md §9: interleaving an unbounded number of branches would require
// retaining unboundedly many per-branch continuations, so past this cap the
// stream panics with a ConsumerAbort error on its first step instead of
// silently accumulating state.
const maxInterleaveBranches = 4096

// InterleaveK alternates elements between a and b, round-robin, appending
// whichever side is still live once the other exhausts. Unlike Coparallel
// and Parallel this needs no SVar: alternation only ever touches one
// continuation at a time, so it is plain structural recursion over
// KStream — see AppendInterleave. Named with the K suffix because the
// teacher already exports a top-level Interleave over the ambient
// iter.Seq-based Stream[T]; this is its KStream-representation sibling.
func InterleaveK[T any](a, b KStream[T]) KStream[T] {
	return AppendInterleave(a, b)
}

// InterleaveAll round-robins across every branch. It rejects (returning a
// stream whose first step panics with a ConsumerAbort error, which RunDrain
// returns) when handed more than maxInterleaveBranches streams, per spec.md's
// open question on
// interleaving infinite fan-in: do not silently accumulate unbounded
// per-branch state.
func InterleaveAll[T any](branches []KStream[T]) KStream[T] {
	if len(branches) > maxInterleaveBranches {
		return Single[T](zeroOf[T]()).withAbortError(
			&ConsumerAbort{Reason: fmt.Sprintf("interleave: %d branches exceeds cap %d", len(branches), maxInterleaveBranches)},
		)
	}
	if len(branches) == 0 {
		return Nil[T]()
	}
	var rr func(queue []KStream[T]) KStream[T]
	rr = func(queue []KStream[T]) KStream[T] {
		return KStream[T]{step: func(sv *SVar[T]) Sink[T] {
			for q := queue; len(q) > 0; q = q[1:] {
				if sink := q[0].Step(sv); sink.Kind != SinkStop {
					next := append([]KStream[T]{}, q[1:]...)
					if sink.Kind == SinkYield {
						next = append(next, sink.Tail)
					}
					return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: rr(next)}
				}
			}
			return Sink[T]{Kind: SinkStop}
		}}
	}
	return rr(branches)
}

func zeroOf[T any]() T {
	var z T
	return z
}

// withAbortError replaces s's step with one that immediately panics with
// err, so RunDrain surfaces it as a returned error (and FoldlK as a panic)
// rather than a silently-wrong zero value.
func (s KStream[T]) withAbortError(err error) KStream[T] {
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		panic(err)
	}}
}

// Coparallel is the demand-driven parallel merge: a is dispatched as a
// worker immediately; b is only parked into the work queue. Per
// spec.md §4.3.2/§8, whether b ever actually runs concurrently with a
// depends entirely on how fast the consumer drains — see
// dispatchFromWorkQueueLocked's doc comment for the elasticity rule this
// relies on. Equivalent to CoparallelCtx(context.Background(), ...).
func Coparallel[T any](a, b KStream[T], opts ...SVarOption) KStream[T] {
	return CoparallelCtx(context.Background(), a, b, opts...)
}

// CoparallelCtx is Coparallel with a context.Context wired to the SVar's
// consumer-abandonment path (NewSVarCtx): cancelling ctx cancels both
// branches the same way the caller abandoning the returned stream would.
// Matches the teacher's ParallelMap/ParallelMapCtx pairing.
func CoparallelCtx[T any](ctx context.Context, a, b KStream[T], opts ...SVarOption) KStream[T] {
	sv := NewSVarCtx[T](ctx, ParallelLIFO, opts...)
	sv.seedLocked(func(dispatch func(KStream[T]), park func(KStream[T])) {
		dispatch(a)
		park(b)
	})
	return FromSVar(sv)
}

// CoparallelDefault is Coparallel with the package's default SVar options;
// Bind uses it so ParallelDemand-style binds don't need to thread options
// through every nested inner stream.
func CoparallelDefault[T any](a, b KStream[T]) KStream[T] {
	return Coparallel(a, b)
}

// Parallel is the fair parallel merge: every branch is dispatched as a
// worker up front, and the SVar's FIFO output discipline interleaves their
// elements round-robin as they arrive (spec.md §4.3.2 "Dispatch policy
// (fair)"). Equivalent to ParallelCtx(context.Background(), ...).
func Parallel[T any](branches []KStream[T], opts ...SVarOption) KStream[T] {
	return ParallelCtx(context.Background(), branches, opts...)
}

// ParallelCtx is Parallel with a context.Context wired to the SVar's
// consumer-abandonment path: cancelling ctx cancels every dispatched
// branch.
func ParallelCtx[T any](ctx context.Context, branches []KStream[T], opts ...SVarOption) KStream[T] {
	sv := NewSVarCtx[T](ctx, ParallelFIFO, opts...)
	sv.seedLocked(func(dispatch func(KStream[T]), _ func(KStream[T])) {
		for _, b := range branches {
			dispatch(b)
		}
	})
	return FromSVar(sv)
}

// ParallelDefault is Parallel with default SVar options, used by Bind.
func ParallelDefault[T any](branches []KStream[T]) KStream[T] {
	return Parallel(branches)
}

// Async runs s's production on its own SVar-managed worker immediately,
// letting the caller keep doing other work before it ever calls Step. This
// is Coparallel's single-branch special case: dispatch now, nothing to
// park. Equivalent to AsyncCtx(context.Background(), s, ...).
func Async[T any](s KStream[T], opts ...SVarOption) KStream[T] {
	return AsyncCtx(context.Background(), s, opts...)
}

// AsyncCtx is Async with a context.Context wired to the SVar's
// consumer-abandonment path.
func AsyncCtx[T any](ctx context.Context, s KStream[T], opts ...SVarOption) KStream[T] {
	sv := NewSVarCtx[T](ctx, ParallelLIFO, opts...)
	sv.seedLocked(func(dispatch func(KStream[T]), _ func(KStream[T])) {
		dispatch(s)
	})
	return FromSVar(sv)
}

// Handle wraps s so that any exception it raises is converted to a call to
// onErr instead of propagating as a panic out of RunDrain/FoldlK. onErr
// returns the replacement tail to continue the stream with.
func Handle[T any](s KStream[T], onErr func(error) KStream[T]) KStream[T] {
	return KStream[T]{step: func(sv *SVar[T]) (sink Sink[T]) {
		defer func() {
			if r := recover(); r != nil {
				sink = onErr(toUserError(r)).Step(sv)
			}
		}()
		sink = s.Step(sv)
		if sink.Kind == SinkYield {
			sink.Tail = Handle(sink.Tail, onErr)
		}
		return sink
	}}
}

// ZipWith pairs elements of a and b positionally, combining each pair with
// fn. The result is as long as the shorter input.
func ZipWith[T, U, R any](a KStream[T], b KStream[U], fn func(T, U) R) KStream[R] {
	return KStream[R]{step: func(_ *SVar[R]) Sink[R] {
		sa := a.Step(nil)
		if sa.Kind == SinkStop {
			b.Abandon()
			return Sink[R]{Kind: SinkStop}
		}
		sb := b.Step(nil)
		if sb.Kind == SinkStop {
			if restA, ok := tailOf(sa); ok {
				restA.Abandon()
			}
			return Sink[R]{Kind: SinkStop}
		}
		combined := fn(sa.Value, sb.Value)
		restA, okA := tailOf(sa)
		restB, okB := tailOf(sb)
		if okA && !okB {
			restA.Abandon()
		}
		if okB && !okA {
			restB.Abandon()
		}
		if !okA || !okB {
			return Sink[R]{Kind: SinkSingle, Value: combined}
		}
		return Sink[R]{Kind: SinkYield, Value: combined, Tail: ZipWith(restA, restB, fn)}
	}}
}

func tailOf[T any](s Sink[T]) (KStream[T], bool) {
	if s.Kind == SinkYield {
		return s.Tail, true
	}
	return Nil[T](), false
}

// ZipWithParallel is ZipWith but steps a and b concurrently via Async before
// pairing, so a slow left branch does not stall evaluation of the right.
func ZipWithParallel[T, U, R any](a KStream[T], b KStream[U], fn func(T, U) R) KStream[R] {
	return ZipWith(Async(a), Async(b), fn)
}
