package streams

import "sync"

// SinkKind tags which of the three observable shapes a KStream step took.
type SinkKind int

const (
	// SinkStop fires when the stream is empty.
	SinkStop SinkKind = iota
	// SinkSingle fires for exactly one element with no further tail.
	SinkSingle
	// SinkYield fires for one element plus a tail KStream.
	SinkYield
)

// Sink is the result of stepping a KStream: exactly one of its three shapes
// is meaningful, selected by Kind.
type Sink[T any] struct {
	Kind  SinkKind
	Value T
	Tail  KStream[T]
}

// KStream is the continuation-passing stream representation: a function
// that, given the current SVar context (nil if none), produces exactly one
// Sink. It is the representation every merge operator and bind in this
// package is built over.
type KStream[T any] struct {
	step func(sv *SVar[T]) Sink[T]

	// abandon, if set, releases whatever this node holds open (an SVar's
	// workers, a Bracket's resource) when a combinator discards it without
	// ever stepping it to a natural Stop. See WithAbandon.
	abandon func()
}

// Step advances the stream one element, under the given SVar context (which
// may be nil). Most callers use the package-level combinators instead of
// calling Step directly.
func (s KStream[T]) Step(sv *SVar[T]) Sink[T] {
	if s.step == nil {
		return Sink[T]{Kind: SinkStop}
	}
	return s.step(sv)
}

// Abandon runs s's registered cleanup hook exactly once, if it has one. A
// combinator that decides not to step s any further — TakeK truncating at
// its limit, ZipWith's shorter side winning — calls this instead of simply
// dropping its reference to s, so an SVar-backed or Bracket-backed tail
// still gets cancelled/released per spec.md §4.3.3/§4.5's consumer-
// abandonment contracts. A no-op for streams with no cleanup registered.
func (s KStream[T]) Abandon() {
	if s.abandon != nil {
		s.abandon()
	}
}

// WithAbandon attaches fn to s as its abandonment hook, run at most once
// regardless of how many times Abandon is called.
func WithAbandon[T any](s KStream[T], fn func()) KStream[T] {
	var once sync.Once
	return KStream[T]{
		step:    s.step,
		abandon: func() { once.Do(fn) },
	}
}

// Nil is the empty KStream: it always fires stop().
func Nil[T any]() KStream[T] {
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		return Sink[T]{Kind: SinkStop}
	}}
}

// Single builds a KStream that yields exactly one element, with no tail.
func Single[T any](x T) KStream[T] {
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		return Sink[T]{Kind: SinkSingle, Value: x}
	}}
}

// Cons builds a KStream that yields x followed by tail.
func Cons[T any](x T, tail KStream[T]) KStream[T] {
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		return Sink[T]{Kind: SinkYield, Value: x, Tail: tail}
	}}
}

// FromSliceK builds a KStream from a slice, in order.
func FromSliceK[T any](values []T) KStream[T] {
	if len(values) == 0 {
		return Nil[T]()
	}
	return Cons(values[0], FromSliceK(values[1:]))
}

// WithSVarContext rebinds s so every step it (and its tails) take observes
// sv as the current SVar context, regardless of what context the caller
// steps with. This is how a worker's continuation stays attached to the
// SVar it was dispatched onto even as it is re-entered from a fresh
// goroutine. Named distinctly from context.go's WithContext, which wraps
// the ambient Stream[T] with a context.Context instead — unrelated concept,
// same English phrase.
func WithSVarContext[T any](sv *SVar[T], s KStream[T]) KStream[T] {
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		sink := s.Step(sv)
		if sink.Kind == SinkYield {
			sink.Tail = WithSVarContext(sv, sink.Tail)
		}
		return sink
	}}
}

// Append walks a forwarding every element; when a stops, it continues with
// b. This is strict concatenation — spec.md §4.1's serial semigroup.
func Append[T any](a, b KStream[T]) KStream[T] {
	return KStream[T]{step: func(sv *SVar[T]) Sink[T] {
		sink := a.Step(sv)
		switch sink.Kind {
		case SinkStop:
			return b.Step(sv)
		case SinkSingle:
			return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: b}
		default: // SinkYield
			return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: Append(sink.Tail, b)}
		}
	}}
}

// AppendInterleave alternates elements between a and b, round-robin. Once
// one side stops, the remainder of the other is appended as-is (the
// "trailing tail" spec.md §8's interleave-shape property calls for).
func AppendInterleave[T any](a, b KStream[T]) KStream[T] {
	return KStream[T]{step: func(sv *SVar[T]) Sink[T] {
		sink := a.Step(sv)
		switch sink.Kind {
		case SinkStop:
			return b.Step(sv)
		case SinkSingle:
			return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: b}
		default: // SinkYield
			return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: AppendInterleave(b, sink.Tail)}
		}
	}}
}

// Bind substitutes k(x) for every element x of s and flattens the result,
// using the given style's append to combine the nested streams. This is
// nested-loop (Cartesian) semantics: serial bind is two nested for-loops,
// interleave bind is the fair diagonal, the parallel styles fork inner
// loops concurrently.
func Bind[T, U any](style Style, s KStream[T], k func(T) KStream[U]) KStream[U] {
	switch style {
	case Serial:
		return bindWith(s, k, Append[U])
	case Interleaved:
		return bindWith(s, k, AppendInterleave[U])
	case ParallelDemand:
		return bindWith(s, k, func(a, b KStream[U]) KStream[U] {
			return CoparallelDefault(a, b)
		})
	case ParallelFair:
		return bindWith(s, k, func(a, b KStream[U]) KStream[U] {
			return ParallelDefault([]KStream[U]{a, b})
		})
	default:
		return bindWith(s, k, Append[U])
	}
}

func bindWith[T, U any](s KStream[T], k func(T) KStream[U], combine func(a, b KStream[U]) KStream[U]) KStream[U] {
	return KStream[U]{step: func(sv *SVar[U]) Sink[U] {
		sink := s.Step(nil)
		switch sink.Kind {
		case SinkStop:
			return Sink[U]{Kind: SinkStop}
		case SinkSingle:
			return k(sink.Value).Step(sv)
		default: // SinkYield
			inner := k(sink.Value)
			rest := bindWith(sink.Tail, k, combine)
			return combine(inner, rest).Step(sv)
		}
	}}
}

// MapK transforms every element of s with fn.
func MapK[T, U any](s KStream[T], fn func(T) U) KStream[U] {
	return KStream[U]{step: func(_ *SVar[U]) Sink[U] {
		sink := s.Step(nil)
		switch sink.Kind {
		case SinkStop:
			return Sink[U]{Kind: SinkStop}
		case SinkSingle:
			return Sink[U]{Kind: SinkSingle, Value: fn(sink.Value)}
		default:
			return Sink[U]{Kind: SinkYield, Value: fn(sink.Value), Tail: MapK(sink.Tail, fn)}
		}
	}}
}

// FilterK keeps only elements of s matching pred.
func FilterK[T any](s KStream[T], pred func(T) bool) KStream[T] {
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		cur := s
		for {
			sink := cur.Step(nil)
			switch sink.Kind {
			case SinkStop:
				return Sink[T]{Kind: SinkStop}
			case SinkSingle:
				if pred(sink.Value) {
					return sink
				}
				return Sink[T]{Kind: SinkStop}
			default:
				if pred(sink.Value) {
					return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: FilterK(sink.Tail, pred)}
				}
				cur = sink.Tail
			}
		}
	}}
}

// TakeK yields at most n elements of s, then stops regardless of what s
// would have produced next.
func TakeK[T any](s KStream[T], n int) KStream[T] {
	if n <= 0 {
		s.Abandon()
		return Nil[T]()
	}
	return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
		sink := s.Step(nil)
		switch sink.Kind {
		case SinkStop:
			return Sink[T]{Kind: SinkStop}
		case SinkSingle:
			return sink
		default:
			if n == 1 {
				// Truncating here: sink.Tail is never stepped, so an SVar
				// or Bracket behind it needs an explicit nudge to release.
				sink.Tail.Abandon()
				return Sink[T]{Kind: SinkSingle, Value: sink.Value}
			}
			return Sink[T]{Kind: SinkYield, Value: sink.Value, Tail: TakeK(sink.Tail, n-1)}
		}
	}}
}

// ConcatMapK maps each element of s to a KStream via fn and flattens the
// results in arrival order — the serial-style special case of Bind.
func ConcatMapK[T, U any](s KStream[T], fn func(T) KStream[U]) KStream[U] {
	return Bind(Serial, s, fn)
}

// ToList drains s eagerly into a slice. A convenience eliminator built on
// RunDrain/foldl'.
func ToList[T any](s KStream[T]) []T {
	return FoldlK(s, []T{}, func(acc []T, x T) []T { return append(acc, x) })
}

// RunDrain steps s to completion, discarding every value. If an Exception
// event reaches the driver (via panic, per spec.md §4.1 "Failure"), it is
// recovered and returned as an error.
func RunDrain[T any](s KStream[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = toUserError(r)
		}
	}()
	cur := s
	for {
		sink := cur.Step(nil)
		switch sink.Kind {
		case SinkStop, SinkSingle:
			return nil
		default:
			cur = sink.Tail
		}
	}
}

// FoldlK strictly folds s with fn, starting from init. Exceptions observed
// while draining an SVar-backed tail propagate as a panic, matching
// RunDrain's contract.
func FoldlK[T, A any](s KStream[T], init A, fn func(A, T) A) A {
	acc := init
	cur := s
	for {
		sink := cur.Step(nil)
		switch sink.Kind {
		case SinkStop:
			return acc
		case SinkSingle:
			return fn(acc, sink.Value)
		default:
			acc = fn(acc, sink.Value)
			cur = sink.Tail
		}
	}
}

// FoldM folds s with an effectful fn that may fail; iteration stops at the
// first error.
func FoldM[T, A any](s KStream[T], init A, fn func(A, T) (A, error)) (A, error) {
	acc := init
	cur := s
	for {
		sink := cur.Step(nil)
		switch sink.Kind {
		case SinkStop:
			return acc, nil
		case SinkSingle:
			next, err := fn(acc, sink.Value)
			return next, err
		default:
			next, err := fn(acc, sink.Value)
			if err != nil {
				return next, err
			}
			acc = next
			cur = sink.Tail
		}
	}
}
