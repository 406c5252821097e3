package streams

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnfold(t *testing.T) {
	t.Parallel()
	s := Unfold(0, func(n int) (int, int, bool) {
		if n >= 5 {
			return 0, n, false
		}
		return n, n + 1, true
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ToList(s))
}

type fakeHandle struct {
	closed bool
}

func TestBracketReleasesOnExhaustion(t *testing.T) {
	t.Parallel()
	h := &fakeHandle{}
	s := Bracket(
		func() (*fakeHandle, error) { return h, nil },
		func(r *fakeHandle, n int) (int, int, bool) {
			if n >= 3 {
				return 0, n, false
			}
			return n, n + 1, true
		},
		0,
		func(r *fakeHandle) error {
			r.closed = true
			return nil
		},
	)
	assert.Equal(t, []int{0, 1, 2}, ToList(s))
	assert.True(t, h.closed)
}

func TestBracketReleasesOnPanic(t *testing.T) {
	t.Parallel()
	h := &fakeHandle{}
	s := Bracket(
		func() (*fakeHandle, error) { return h, nil },
		func(r *fakeHandle, n int) (int, int, bool) {
			if n == 1 {
				panic("explode")
			}
			return n, n + 1, true
		},
		0,
		func(r *fakeHandle) error {
			r.closed = true
			return nil
		},
	)
	err := RunDrain(s)
	assert.Error(t, err)
	assert.True(t, h.closed)
}

func TestBracketAcquireFailure(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("cannot open")
	s := Bracket(
		func() (*fakeHandle, error) { return nil, wantErr },
		func(r *fakeHandle, n int) (int, int, bool) { return 0, 0, false },
		0,
		func(r *fakeHandle) error { return nil },
	)
	err := RunDrain(s)
	assert.Error(t, err)
	var resErr *ResourceError
	assert.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, resErr, wantErr)
}

func TestBracketReleasesOnEarlyAbandonment(t *testing.T) {
	t.Parallel()
	h := &fakeHandle{}
	s := Bracket(
		func() (*fakeHandle, error) { return h, nil },
		func(r *fakeHandle, n int) (int, int, bool) {
			// An unbounded producer: TakeK below must truncate it well
			// before n ever reaches a natural stop.
			return n, n + 1, true
		},
		0,
		func(r *fakeHandle) error {
			r.closed = true
			return nil
		},
	)
	got := ToList(TakeK(s, 3))
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.True(t, h.closed, "release must run even though the unfold never reported ok=false")
}

func TestBracketDStream(t *testing.T) {
	t.Parallel()
	h := &fakeHandle{}
	d, err := BracketDStream(
		func() (*fakeHandle, error) { return h, nil },
		func(r *fakeHandle, n int) (int, int, bool) {
			if n >= 3 {
				return 0, n, false
			}
			return n * 2, n + 1, true
		},
		0,
		func(r *fakeHandle) error { r.closed = true; return nil },
	)
	assert.NoError(t, err)
	out, runErr := RunBracketDStream(d, func(r *fakeHandle) error {
		r.closed = true
		return nil
	})
	assert.NoError(t, runErr)
	assert.Equal(t, []int{0, 2, 4}, out)
	assert.True(t, h.closed)
}
