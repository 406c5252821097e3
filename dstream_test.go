package streams

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(start int) DStream[int, int] {
	return DStream[int, int]{
		State: start,
		Step: func(s int) DStep[int, int] {
			return DStep[int, int]{Kind: DYield, Value: s, State: s + 1}
		},
	}
}

func TestMapFilterTakeD(t *testing.T) {
	t.Parallel()

	doubled := MapD(counter(0), func(x int) int { return x * 2 })
	assert.Equal(t, []int{0, 2, 4}, RunD(TakeD(doubled, 3)))

	evens := FilterD(counter(0), func(x int) bool { return x%2 == 0 })
	assert.Equal(t, []int{0, 2, 4, 6}, RunD(TakeD(evens, 4)))

	small := TakeWhileD(counter(0), func(x int) bool { return x < 5 })
	assert.Equal(t, []int{0, 1, 2, 3, 4}, RunD(small))
}

func TestMapFilterMD(t *testing.T) {
	t.Parallel()

	doubled := MapMD(counter(0), func(x int) (int, error) { return x * 2, nil })
	assert.Equal(t, []int{0, 2, 4}, RunD(TakeD(doubled, 3)))

	evens := FilterMD(counter(0), func(x int) (bool, error) { return x%2 == 0, nil })
	assert.Equal(t, []int{0, 2, 4, 6}, RunD(TakeD(evens, 4)))
}

func TestMapMDPropagatesError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("boom")
	bad := MapMD(counter(0), func(x int) (int, error) {
		if x == 2 {
			return 0, wantErr
		}
		return x, nil
	})

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		RunD(TakeD(bad, 5))
	}()
	require.NotNil(t, recovered)
	ue, ok := recovered.(*UserError)
	require.True(t, ok)
	assert.ErrorIs(t, ue, wantErr)
}

func TestFilterMDPropagatesError(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("boom")
	bad := FilterMD(counter(0), func(x int) (bool, error) {
		if x == 2 {
			return false, wantErr
		}
		return true, nil
	})

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		RunD(TakeD(bad, 5))
	}()
	require.NotNil(t, recovered)
	ue, ok := recovered.(*UserError)
	require.True(t, ok)
	assert.ErrorIs(t, ue, wantErr)
}

func TestFoldD(t *testing.T) {
	t.Parallel()
	finite := TakeD(counter(1), 4) // 1,2,3,4
	sum := FoldlD(finite, 0, func(acc, x int) int { return acc + x })
	assert.Equal(t, 10, sum)

	product := FoldrD(finite, 1, func(x, acc int) int { return x * acc })
	assert.Equal(t, 24, product)
}

func TestZipWithD(t *testing.T) {
	t.Parallel()
	a := TakeD(counter(0), 3)
	b := TakeD(counter(10), 5)
	zipped := ZipWithD(a, b, func(x, y int) int { return x + y })
	assert.Equal(t, []int{10, 12, 14}, RunD(zipped))
}

func TestConcatMapD(t *testing.T) {
	t.Parallel()
	base := TakeD(counter(1), 3) // 1,2,3
	out := ConcatMapD(base, func(x int) KStream[int] {
		return FromSliceK([]int{x, x * 10})
	})
	assert.Equal(t, []int{1, 10, 2, 20, 3, 30}, RunD(out))
}

func TestGroupsOfD(t *testing.T) {
	t.Parallel()
	base := TakeD(counter(1), 5) // 1..5
	groups := RunD(GroupsOfD(base, 2))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, groups)
}

func TestEqByAndCmpByD(t *testing.T) {
	t.Parallel()
	a := TakeD(counter(0), 3)
	b := TakeD(counter(0), 3)
	assert.True(t, EqByD(a, b, func(x, y int) bool { return x == y }))

	shorter := TakeD(counter(0), 2)
	longer := TakeD(counter(0), 3)
	assert.False(t, EqByD(shorter, longer, func(x, y int) bool { return x == y }))
	assert.Equal(t, -1, CmpByD(shorter, longer, func(x, y int) int { return x - y }))
}

func TestDStreamKStreamBridges(t *testing.T) {
	t.Parallel()
	k := ToKStream(TakeD(counter(0), 3))
	assert.Equal(t, []int{0, 1, 2}, ToList(k))

	back := FromKStream(FromSliceK([]int{7, 8, 9}))
	assert.Equal(t, []int{7, 8, 9}, RunD(back))
}
