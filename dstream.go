package streams

// StepKind tags a DStream's per-element outcome: produce a value (Yield),
// produce nothing this round but keep going (Skip), or finish (Stop).
// Skip is what lets filter-like stages fuse into a single driver loop
// instead of re-entering the consumer for a value it will discard — the one
// thing Go's iter.Seq pull form (which this package's ambient Stream[T] is
// built on) cannot express without an extra yield/drop round trip.
type StepKind int

const (
	DYield StepKind = iota
	DSkip
	DStop
)

// DStep is one step outcome: a next state plus what happened this round.
type DStep[S, T any] struct {
	Kind  StepKind
	Value T
	State S
}

// DStream is the direct-form, state-passing stream representation: a
// current state S plus a step function that advances it. Unlike KStream,
// stepping a DStream never allocates a closure for the continuation —
// the whole stream is one (state, step) pair, which is what lets fused
// pipelines of Map/Filter/Take collapse into a single loop at ToKStream
// time instead of one coroutine per stage.
type DStream[S, T any] struct {
	State S
	Step  func(S) DStep[S, T]
}

// RunD drains d eagerly into a slice.
func RunD[S, T any](d DStream[S, T]) []T {
	out := []T{}
	state := d.State
	for {
		step := d.Step(state)
		switch step.Kind {
		case DStop:
			return out
		case DSkip:
			state = step.State
		default:
			out = append(out, step.Value)
			state = step.State
		}
	}
}

// FoldlD strictly left-folds d with fn, starting from init.
func FoldlD[S, T, A any](d DStream[S, T], init A, fn func(A, T) A) A {
	acc := init
	state := d.State
	for {
		step := d.Step(state)
		switch step.Kind {
		case DStop:
			return acc
		case DSkip:
			state = step.State
		default:
			acc = fn(acc, step.Value)
			state = step.State
		}
	}
}

// FoldlMD is FoldlD with an effectful, failable fn; it stops at the first
// error.
func FoldlMD[S, T, A any](d DStream[S, T], init A, fn func(A, T) (A, error)) (A, error) {
	acc := init
	state := d.State
	for {
		step := d.Step(state)
		switch step.Kind {
		case DStop:
			return acc, nil
		case DSkip:
			state = step.State
		default:
			next, err := fn(acc, step.Value)
			if err != nil {
				return next, err
			}
			acc = next
			state = step.State
		}
	}
}

// FoldrD right-folds d. Because DStream is driven left to right, this
// collects into a slice first and folds from the end — it is not lazy the
// way FoldlD is, so it should not be used on streams assumed infinite.
func FoldrD[S, T, A any](d DStream[S, T], init A, fn func(T, A) A) A {
	values := RunD(d)
	acc := init
	for i := len(values) - 1; i >= 0; i-- {
		acc = fn(values[i], acc)
	}
	return acc
}

// MapD transforms every element of d with fn, fusing into the same step
// function rather than introducing a new driver stage.
func MapD[S, T, U any](d DStream[S, T], fn func(T) U) DStream[S, U] {
	return DStream[S, U]{
		State: d.State,
		Step: func(s S) DStep[S, U] {
			step := d.Step(s)
			switch step.Kind {
			case DStop:
				return DStep[S, U]{Kind: DStop, State: step.State}
			case DSkip:
				return DStep[S, U]{Kind: DSkip, State: step.State}
			default:
				return DStep[S, U]{Kind: DYield, Value: fn(step.Value), State: step.State}
			}
		},
	}
}

// FilterD keeps only elements matching pred, using Skip rather than looping
// internally so the driver still advances exactly one state transition per
// call.
func FilterD[S, T any](d DStream[S, T], pred func(T) bool) DStream[S, T] {
	return DStream[S, T]{
		State: d.State,
		Step: func(s S) DStep[S, T] {
			step := d.Step(s)
			if step.Kind == DYield && !pred(step.Value) {
				return DStep[S, T]{Kind: DSkip, State: step.State}
			}
			return step
		},
	}
}

// MapMD is MapD with an effectful, failable fn, the direct-form counterpart
// to FoldlMD. A fn error aborts the stream: it panics wrapped as a
// *UserError, the same propagation spec.md §4.1 specifies for user step
// functions ("exceptions...propagate through the sinks unchanged") and the
// one RunDrain (via ToKStream) already recovers.
func MapMD[S, T, U any](d DStream[S, T], fn func(T) (U, error)) DStream[S, U] {
	return DStream[S, U]{
		State: d.State,
		Step: func(s S) DStep[S, U] {
			step := d.Step(s)
			switch step.Kind {
			case DStop:
				return DStep[S, U]{Kind: DStop, State: step.State}
			case DSkip:
				return DStep[S, U]{Kind: DSkip, State: step.State}
			default:
				value, err := fn(step.Value)
				if err != nil {
					panic(NewUserError(err))
				}
				return DStep[S, U]{Kind: DYield, Value: value, State: step.State}
			}
		},
	}
}

// FilterMD is FilterD with an effectful, failable pred; a pred error aborts
// the stream the same way MapMD's fn error does.
func FilterMD[S, T any](d DStream[S, T], pred func(T) (bool, error)) DStream[S, T] {
	return DStream[S, T]{
		State: d.State,
		Step: func(s S) DStep[S, T] {
			step := d.Step(s)
			if step.Kind != DYield {
				return step
			}
			ok, err := pred(step.Value)
			if err != nil {
				panic(NewUserError(err))
			}
			if !ok {
				return DStep[S, T]{Kind: DSkip, State: step.State}
			}
			return step
		},
	}
}

// takeState pairs the inner DStream's own state with a remaining counter.
type takeState[S any] struct {
	inner     S
	remaining int
}

// TakeD yields at most n elements of d, then stops regardless of what d
// would have produced next.
func TakeD[S, T any](d DStream[S, T], n int) DStream[takeState[S], T] {
	return DStream[takeState[S], T]{
		State: takeState[S]{inner: d.State, remaining: n},
		Step: func(s takeState[S]) DStep[takeState[S], T] {
			if s.remaining <= 0 {
				return DStep[takeState[S], T]{Kind: DStop, State: s}
			}
			step := d.Step(s.inner)
			switch step.Kind {
			case DStop:
				return DStep[takeState[S], T]{Kind: DStop, State: s}
			case DSkip:
				return DStep[takeState[S], T]{Kind: DSkip, State: takeState[S]{inner: step.State, remaining: s.remaining}}
			default:
				return DStep[takeState[S], T]{
					Kind:  DYield,
					Value: step.Value,
					State: takeState[S]{inner: step.State, remaining: s.remaining - 1},
				}
			}
		},
	}
}

// TakeWhileD yields elements of d while pred holds, then stops.
func TakeWhileD[S, T any](d DStream[S, T], pred func(T) bool) DStream[S, T] {
	return DStream[S, T]{
		State: d.State,
		Step: func(s S) DStep[S, T] {
			step := d.Step(s)
			if step.Kind == DYield && !pred(step.Value) {
				return DStep[S, T]{Kind: DStop, State: step.State}
			}
			return step
		},
	}
}

// zipState holds both operands' states side by side.
type zipState[S1, S2 any] struct {
	a S1
	b S2
}

// ZipWithD pairs elements from a and b positionally, combining each pair
// with fn; it stops as soon as either side stops.
func ZipWithD[S1, S2, T1, T2, R any](a DStream[S1, T1], b DStream[S2, T2], fn func(T1, T2) R) DStream[zipState[S1, S2], R] {
	return DStream[zipState[S1, S2], R]{
		State: zipState[S1, S2]{a: a.State, b: b.State},
		Step: func(s zipState[S1, S2]) DStep[zipState[S1, S2], R] {
			sa := a.Step(s.a)
			if sa.Kind == DSkip {
				return DStep[zipState[S1, S2], R]{Kind: DSkip, State: zipState[S1, S2]{a: sa.State, b: s.b}}
			}
			if sa.Kind == DStop {
				return DStep[zipState[S1, S2], R]{Kind: DStop, State: s}
			}
			sb := b.Step(s.b)
			if sb.Kind == DSkip {
				return DStep[zipState[S1, S2], R]{Kind: DSkip, State: zipState[S1, S2]{a: sa.State, b: sb.State}}
			}
			if sb.Kind == DStop {
				return DStep[zipState[S1, S2], R]{Kind: DStop, State: s}
			}
			return DStep[zipState[S1, S2], R]{
				Kind:  DYield,
				Value: fn(sa.Value, sb.Value),
				State: zipState[S1, S2]{a: sa.State, b: sb.State},
			}
		},
	}
}

// concatMapState tracks the outer DStream's state plus an in-progress inner
// KStream produced for the current outer element, if any.
type concatMapState[S, U any] struct {
	outer S
	inner KStream[U]
	has   bool
}

// ConcatMapD maps each element of d to a KStream via fn and flattens the
// results in order, bridging into the continuation-passing representation
// for the (possibly SVar-backed) inner streams and back out to direct form.
func ConcatMapD[S, T, U any](d DStream[S, T], fn func(T) KStream[U]) DStream[concatMapState[S, U], U] {
	return DStream[concatMapState[S, U], U]{
		State: concatMapState[S, U]{outer: d.State},
		Step: func(s concatMapState[S, U]) DStep[concatMapState[S, U], U] {
			if s.has {
				sink := s.inner.Step(nil)
				switch sink.Kind {
				case SinkStop:
					// fall through to pull the next outer element
				case SinkSingle:
					return DStep[concatMapState[S, U], U]{
						Kind:  DYield,
						Value: sink.Value,
						State: concatMapState[S, U]{outer: s.outer},
					}
				default:
					return DStep[concatMapState[S, U], U]{
						Kind:  DYield,
						Value: sink.Value,
						State: concatMapState[S, U]{outer: s.outer, inner: sink.Tail, has: true},
					}
				}
			}
			step := d.Step(s.outer)
			switch step.Kind {
			case DStop:
				return DStep[concatMapState[S, U], U]{Kind: DStop, State: s}
			case DSkip:
				return DStep[concatMapState[S, U], U]{Kind: DSkip, State: concatMapState[S, U]{outer: step.State}}
			default:
				return DStep[concatMapState[S, U], U]{
					Kind:  DSkip,
					State: concatMapState[S, U]{outer: step.State, inner: fn(step.Value), has: true},
				}
			}
		},
	}
}

// EnumerateFromStepD counts up from start by step forever, a direct-form
// analogue of the teacher's IterateFrom/Range producers.
func EnumerateFromStepD(start, step int) DStream[int, int] {
	return DStream[int, int]{
		State: start,
		Step: func(s int) DStep[int, int] {
			return DStep[int, int]{Kind: DYield, Value: s, State: s + step}
		},
	}
}

// EqByD reports whether a and b produce equal-length, pairwise-eq runs.
func EqByD[S1, S2, T any](a DStream[S1, T], b DStream[S2, T], eq func(T, T) bool) bool {
	as, bs := a.State, b.State
	for {
		sa := a.Step(as)
		for sa.Kind == DSkip {
			as = sa.State
			sa = a.Step(as)
		}
		sb := b.Step(bs)
		for sb.Kind == DSkip {
			bs = sb.State
			sb = b.Step(bs)
		}
		if sa.Kind == DStop || sb.Kind == DStop {
			return sa.Kind == DStop && sb.Kind == DStop
		}
		if !eq(sa.Value, sb.Value) {
			return false
		}
		as, bs = sa.State, sb.State
	}
}

// CmpByD lexicographically compares a and b, a shorter-but-equal-prefix
// stream sorting before its longer counterpart.
func CmpByD[S1, S2, T any](a DStream[S1, T], b DStream[S2, T], cmp func(T, T) int) int {
	as, bs := a.State, b.State
	for {
		sa := a.Step(as)
		for sa.Kind == DSkip {
			as = sa.State
			sa = a.Step(as)
		}
		sb := b.Step(bs)
		for sb.Kind == DSkip {
			bs = sb.State
			sb = b.Step(bs)
		}
		switch {
		case sa.Kind == DStop && sb.Kind == DStop:
			return 0
		case sa.Kind == DStop:
			return -1
		case sb.Kind == DStop:
			return 1
		}
		if c := cmp(sa.Value, sb.Value); c != 0 {
			return c
		}
		as, bs = sa.State, sb.State
	}
}

// groupsOfState tracks the inner state plus the partially filled group.
type groupsOfState[S, T any] struct {
	inner S
	group []T
}

// GroupsOfD chunks d's elements into groups of size n (the final group may
// be shorter).
func GroupsOfD[S, T any](d DStream[S, T], n int) DStream[groupsOfState[S, T], []T] {
	return DStream[groupsOfState[S, T], []T]{
		State: groupsOfState[S, T]{inner: d.State},
		Step: func(s groupsOfState[S, T]) DStep[groupsOfState[S, T], []T] {
			group := s.group
			state := s.inner
			for {
				step := d.Step(state)
				switch step.Kind {
				case DStop:
					if len(group) == 0 {
						return DStep[groupsOfState[S, T], []T]{Kind: DStop, State: groupsOfState[S, T]{inner: state}}
					}
					return DStep[groupsOfState[S, T], []T]{
						Kind:  DYield,
						Value: group,
						State: groupsOfState[S, T]{inner: state, group: nil},
					}
				case DSkip:
					state = step.State
				default:
					group = append(group, step.Value)
					state = step.State
					if len(group) == n {
						return DStep[groupsOfState[S, T], []T]{
							Kind:  DYield,
							Value: group,
							State: groupsOfState[S, T]{inner: state, group: nil},
						}
					}
				}
			}
		},
	}
}

// ToKStream lowers a DStream into the continuation-passing representation,
// for handing off into Bind, the merge operators, or an SVar-backed
// pipeline.
func ToKStream[S, T any](d DStream[S, T]) KStream[T] {
	var walk func(state S) KStream[T]
	walk = func(state S) KStream[T] {
		return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
			step := d.Step(state)
			for step.Kind == DSkip {
				step = d.Step(step.State)
			}
			if step.Kind == DStop {
				return Sink[T]{Kind: SinkStop}
			}
			return Sink[T]{Kind: SinkYield, Value: step.Value, Tail: walk(step.State)}
		}}
	}
	return walk(d.State)
}

// kstreamState is the state FromKStream drives: the current KStream node
// itself. Every step just delegates to KStream.Step, letting a DStream
// consumer iterate a KStream without knowing it isn't direct-form.
type kstreamState[T any] struct {
	s KStream[T]
}

// FromKStream lifts a KStream into direct form so it can feed MapD/FilterD/
// TakeD and the rest of this file's fused combinators.
func FromKStream[T any](s KStream[T]) DStream[kstreamState[T], T] {
	return DStream[kstreamState[T], T]{
		State: kstreamState[T]{s: s},
		Step: func(st kstreamState[T]) DStep[kstreamState[T], T] {
			sink := st.s.Step(nil)
			switch sink.Kind {
			case SinkStop:
				return DStep[kstreamState[T], T]{Kind: DStop, State: st}
			case SinkSingle:
				return DStep[kstreamState[T], T]{Kind: DYield, Value: sink.Value, State: kstreamState[T]{s: Nil[T]()}}
			default:
				return DStep[kstreamState[T], T]{Kind: DYield, Value: sink.Value, State: kstreamState[T]{s: sink.Tail}}
			}
		},
	}
}
