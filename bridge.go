package streams

import "iter"

// ToKStream lowers an ambient Stream into the continuation-passing
// representation, for handing off into Bind, the merge operators, or an
// SVar-backed pipeline. Pulling the iter.Seq eagerly node-by-node mirrors
// how FromKStream (the reverse direction) drives a KStream.
func (s Stream[T]) ToKStream() KStream[T] {
	next, stop := iter.Pull(s.seq)
	var walk func() KStream[T]
	walk = func() KStream[T] {
		return KStream[T]{step: func(_ *SVar[T]) Sink[T] {
			v, ok := next()
			if !ok {
				stop()
				return Sink[T]{Kind: SinkStop}
			}
			return Sink[T]{Kind: SinkYield, Value: v, Tail: walk()}
		}}
	}
	return walk()
}

// ToStream raises a KStream back into the ambient iter.Seq-based Stream, so
// the result of a merge/bind expression can flow back into the teacher's
// existing combinator catalogue (Filter, Collect, the terminators in
// terminators.go, and so on).
func (s KStream[T]) ToStream() Stream[T] {
	return Stream[T]{
		seq: func(yield func(T) bool) {
			cur := s
			for {
				sink := cur.Step(nil)
				switch sink.Kind {
				case SinkStop:
					return
				case SinkSingle:
					yield(sink.Value)
					return
				default:
					if !yield(sink.Value) {
						return
					}
					cur = sink.Tail
				}
			}
		},
	}
}
