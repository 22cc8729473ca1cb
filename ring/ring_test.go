package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, b *Buffer[int]) []int {
	t.Helper()
	out := make([]int, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		v, err := b.At(i)
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := New[int](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New[int](-3)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestPushBeforeFull(t *testing.T) {
	b, err := New[int](4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, evicted := b.Push(i)
		assert.False(t, evicted)
	}
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 4, b.Cap())
	assert.False(t, b.IsFull())
	assert.Equal(t, []int{0, 1, 2}, collect(t, b))
}

func TestPushEvictsOldest(t *testing.T) {
	b, err := New[int](3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		b.Push(i)
	}
	require.True(t, b.IsFull())

	for i := 3; i < 10; i++ {
		old, evicted := b.Push(i)
		require.True(t, evicted)
		assert.Equal(t, i-3, old)
		assert.Equal(t, 3, b.Len())
	}
	assert.Equal(t, []int{7, 8, 9}, collect(t, b))

	front, err := b.Front()
	require.NoError(t, err)
	assert.Equal(t, 7, *front)

	back, err := b.Back()
	require.NoError(t, err)
	assert.Equal(t, 9, *back)
}

func TestNoReallocation(t *testing.T) {
	b, err := New[int](5)
	require.NoError(t, err)
	b.Push(0)
	first := &b.data[:1][0]
	for i := 1; i < 50; i++ {
		b.Push(i)
	}
	assert.Same(t, first, &b.data[0])
	assert.Equal(t, 5, cap(b.data))
}

func TestIndexOutOfRange(t *testing.T) {
	b, err := New[int](2)
	require.NoError(t, err)

	_, err = b.At(0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	b.Push(1)
	_, err = b.At(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = b.Ref(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFrontBackEmpty(t *testing.T) {
	b, err := New[string](2)
	require.NoError(t, err)

	_, err = b.Front()
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = b.Back()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRefMutatesInPlace(t *testing.T) {
	b, err := New[int](3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		b.Push(i)
	}
	p, err := b.Ref(1)
	require.NoError(t, err)
	*p = 100
	assert.Equal(t, []int{2, 100, 4}, collect(t, b))
}

func TestSliceWrapsAround(t *testing.T) {
	b, err := New[int](4)
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		b.Push(i)
	}
	// storage is [4 5 6 3], logical [3 4 5 6]
	v, err := b.Slice(1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())

	got := make([]int, 0)
	v.Range(func(_ int, x int) bool {
		got = append(got, x)
		return true
	})
	assert.Equal(t, []int{4, 5, 6}, got)

	x, err := v.At(2)
	require.NoError(t, err)
	assert.Equal(t, 6, x)
	_, err = v.At(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = b.Slice(2, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = b.Slice(3, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSliceRangeStops(t *testing.T) {
	b, err := New[int](4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		b.Push(i)
	}
	v, err := b.Slice(0, 4)
	require.NoError(t, err)
	count := 0
	v.Range(func(i int, _ int) bool {
		count++
		return i < 1
	})
	assert.Equal(t, 2, count)
}

func TestSegments(t *testing.T) {
	b, err := New[int](5)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		b.Push(i)
	}
	// storage [5 6 7 3 4], logical [3 4 5 6 7]
	head, tail, err := b.Segments(0, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, head)
	assert.Equal(t, []int{5, 6, 7}, tail)

	head, tail, err = b.Segments(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, head)
	assert.Nil(t, tail)

	head, tail, err = b.Segments(3, 3)
	require.NoError(t, err)
	assert.Nil(t, head)
	assert.Nil(t, tail)

	// clipped capacity keeps appends out of neighbouring slots
	head, _, err = b.Segments(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cap(head))
	_ = append(head, 99)
	assert.Equal(t, []int{3, 4, 5, 6, 7}, collect(t, b))

	_, _, err = b.Segments(0, 6)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSegmentsWriteThrough(t *testing.T) {
	b, err := New[int](3)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		b.Push(i)
	}
	head, tail, err := b.Segments(0, 3)
	require.NoError(t, err)
	for i := range head {
		head[i] *= 10
	}
	for i := range tail {
		tail[i] *= 10
	}
	assert.Equal(t, []int{10, 20, 30}, collect(t, b))
}
