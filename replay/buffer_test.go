package replay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type testBuffer = Buffer[int, int, int]

func newTestBuffer(t *testing.T, capacity int) *testBuffer {
	t.Helper()
	b, err := New[int, int, int](capacity)
	require.NoError(t, err)
	return b
}

// pushEpisodes pushes one episode per entry of lengths. The state of every
// node is the episode number and the payload a global counter.
func pushEpisodes(t *testing.T, b *testBuffer, lengths []int) {
	t.Helper()
	counter := 0
	for ep, length := range lengths {
		b.BeginEpisode(ep, counter)
		counter++
		for i := 1; i < length; i++ {
			require.NoError(t, b.PushResult(ep, i, float32(i), counter))
			counter++
		}
	}
}

type statePayload struct {
	State   int
	Payload int
}

func partition(b *testBuffer) [][]statePayload {
	out := make([][]statePayload, 0)
	for _, ep := range b.Episodes().All() {
		group := make([]statePayload, 0, ep.Len())
		for _, n := range ep.Nodes() {
			group = append(group, statePayload{n.State, n.Payload})
		}
		out = append(out, group)
	}
	return out
}

func TestNewInvalidCapacity(t *testing.T) {
	_, err := New[int, int, int](0)
	assert.Error(t, err)
}

func TestBeginEpisodeThenPush(t *testing.T) {
	b := newTestBuffer(t, 8)
	assert.Equal(t, StateEmpty, b.State())

	b.BeginEpisode(0, 0)
	head, open := b.Head()
	assert.True(t, open)
	assert.Equal(t, 0, head)
	assert.Equal(t, StateOpen, b.State())

	require.NoError(t, b.PushResult(1, 3, 0.5, 0))
	front, err := b.Front()
	require.NoError(t, err)
	length, ok := front.Marker.Length()
	require.True(t, ok)
	assert.Equal(t, 2, length)

	back, err := b.Back()
	require.NoError(t, err)
	action, reward, ok := back.Marker.Step()
	require.True(t, ok)
	assert.Equal(t, 3, action)
	assert.Equal(t, float32(0.5), reward)

	b.BeginEpisode(2, 0)
	head, _ = b.Head()
	assert.Equal(t, 2, head)
	require.NoError(t, b.PushResult(3, 1, 0, 0))
	n, err := b.At(2)
	require.NoError(t, err)
	length, _ = n.Marker.Length()
	assert.Equal(t, 2, length)
	assert.NoError(t, b.CheckInvariants())
}

func TestPushResultWithoutEpisode(t *testing.T) {
	b := newTestBuffer(t, 4)
	err := b.PushResult(0, 0, 0, 0)
	assert.True(t, errors.Is(err, ErrNoOpenEpisode))
	assert.Equal(t, 0, b.Len())
}

func TestEvictionScenario(t *testing.T) {
	b := newTestBuffer(t, 6)
	pushEpisodes(t, b, []int{1, 2, 3, 2})

	assert.Equal(t, 6, b.Len())
	assert.Equal(t, StateFull, b.State())
	assert.Equal(t, [][]statePayload{
		{{1, 2}},
		{{2, 3}, {2, 4}, {2, 5}},
		{{3, 6}, {3, 7}},
	}, partition(b))
	assert.NoError(t, b.CheckInvariants())

	// the promoted node keeps its payload and now starts the episode
	front, err := b.Front()
	require.NoError(t, err)
	length, ok := front.Marker.Length()
	require.True(t, ok)
	assert.Equal(t, 1, length)
	assert.Equal(t, 2, front.Payload)
}

func TestVanishedEpisode(t *testing.T) {
	b := newTestBuffer(t, 3)
	pushEpisodes(t, b, []int{1, 1, 1})
	b.BeginEpisode(3, 3)

	groups := partition(b)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.NotEmpty(t, g)
	}
	assert.Equal(t, 1, groups[0][0].State)
}

func TestEpisodesIdempotent(t *testing.T) {
	b := newTestBuffer(t, 7)
	pushEpisodes(t, b, []int{3, 4, 2, 5})

	first := partition(b)
	second := partition(b)
	assert.Equal(t, first, second)

	it := b.Episodes()
	all := it.All()
	it.Reset()
	again := it.All()
	assert.Equal(t, len(all), len(again))
	for i := range all {
		assert.Equal(t, all[i].Start(), again[i].Start())
		assert.Equal(t, all[i].Nodes(), again[i].Nodes())
	}
}

func TestCapacityOne(t *testing.T) {
	b := newTestBuffer(t, 1)
	b.BeginEpisode(0, 0)
	require.NoError(t, b.PushResult(1, 1, 1, 1))
	require.NoError(t, b.PushResult(2, 2, 1, 2))

	assert.Equal(t, 1, b.Len())
	assert.NoError(t, b.CheckInvariants())
	front, err := b.Front()
	require.NoError(t, err)
	assert.True(t, front.Marker.IsFirst())
	assert.Equal(t, 2, front.State)
}

func TestOpenEpisodeLongerThanCapacity(t *testing.T) {
	b := newTestBuffer(t, 3)
	b.BeginEpisode(0, 0)
	for i := 1; i < 10; i++ {
		require.NoError(t, b.PushResult(i, i, 0, i))
		require.NoError(t, b.CheckInvariants())
	}
	groups := partition(b)
	require.Len(t, groups, 1)
	assert.Equal(t, []statePayload{{7, 7}, {8, 8}, {9, 9}}, groups[0])
}

func TestPairs(t *testing.T) {
	b := newTestBuffer(t, 10)
	pushEpisodes(t, b, []int{3, 1, 2})

	eps := b.Episodes().All()
	require.Len(t, eps, 3)
	assert.Len(t, eps[0].Pairs(), 2)
	assert.Empty(t, eps[1].Pairs())
	pairs := eps[2].Pairs()
	require.Len(t, pairs, 1)
	action, reward := pairs[0].Step()
	assert.Equal(t, 1, action)
	assert.Equal(t, float32(1), reward)
	assert.Equal(t, 4, pairs[0].Prev.Payload)
	assert.Equal(t, 5, pairs[0].Next.Payload)
}

func TestEpisodesMutDisjointAndWriteThrough(t *testing.T) {
	b := newTestBuffer(t, 5)
	pushEpisodes(t, b, []int{2, 3, 3})

	it := b.EpisodesMut()
	assert.Equal(t, 2, it.Len())
	seen := make(map[*Node[int, int, int]]bool)
	total := 0
	for {
		ep, ok := it.Next()
		if !ok {
			break
		}
		total += ep.Len()
		ep.Range(func(i int, n *Node[int, int, int]) bool {
			assert.False(t, seen[n], "node %d of episode at %d is shared", i, ep.Start())
			seen[n] = true
			n.Payload = 100 + ep.Start() + i
			return true
		})
		assert.Nil(t, ep.At(ep.Len()))
	}
	assert.Equal(t, b.Len(), total)

	for i := 0; i < b.Len(); i++ {
		n, err := b.At(i)
		require.NoError(t, err)
		assert.Equal(t, 100+i, n.Payload)
	}
}

func TestEpisodesMutPairs(t *testing.T) {
	b := newTestBuffer(t, 4)
	pushEpisodes(t, b, []int{3, 3})

	it := b.EpisodesMut()
	for {
		ep, ok := it.Next()
		if !ok {
			break
		}
		for _, p := range ep.Pairs() {
			_, reward := p.Step()
			p.Prev.Payload = int(reward) * 10
		}
	}
	groups := partition(b)
	require.Len(t, groups, 2)
	// first episode was truncated to its last node
	assert.Equal(t, []statePayload{{0, 2}}, groups[0])
	assert.Equal(t, []statePayload{{1, 10}, {1, 20}, {1, 5}}, groups[1])
}

func TestReadErrors(t *testing.T) {
	b := newTestBuffer(t, 2)
	_, err := b.Front()
	assert.True(t, errors.Is(err, ErrEmptyBuffer))
	_, err = b.At(0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	b.BeginEpisode(0, 0)
	_, err = b.Ref(1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestInvariantErrorUnwraps(t *testing.T) {
	var err error = brokenInvariant("head %d", 3)
	assert.True(t, errors.Is(err, ErrBrokenInvariant))
	assert.Contains(t, err.Error(), "head 3")
}

func runRandomOperations(t *testing.T, rng *rand.Rand, capacity, steps int) {
	b := newTestBuffer(t, capacity)
	for i := 0; i < steps; i++ {
		before := b.Len()
		if !b.Open() || rng.Intn(4) == 0 {
			b.BeginEpisode(i, i)
		} else {
			require.NoError(t, b.PushResult(i, rng.Intn(9), rng.Float32(), i))
		}
		require.NoError(t, b.CheckInvariants(), "step %d capacity %d", i, capacity)
		require.LessOrEqual(t, b.Len(), capacity)
		if before == capacity {
			require.Equal(t, capacity, b.Len())
		}

		sum := 0
		last := -1
		for _, ep := range b.Episodes().All() {
			require.Greater(t, ep.Len(), 0)
			n, err := ep.At(0)
			require.NoError(t, err)
			// states are push steps, so they grow chronologically
			require.Greater(t, n.State, last)
			last = n.State
			sum += ep.Len()
		}
		require.Equal(t, b.Len(), sum)
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, capacity := range []int{1, 2, 3, 5, 8, 13, 64} {
		runRandomOperations(t, rng, capacity, 500)
	}
}

func FuzzBuffer(f *testing.F) {
	f.Add(uint64(1), 4)
	f.Add(uint64(7), 1)
	f.Add(uint64(99), 17)
	f.Fuzz(func(t *testing.T, seed uint64, capacity int) {
		if capacity < 1 || capacity > 256 {
			t.Skip()
		}
		runRandomOperations(t, rand.New(rand.NewSource(seed)), capacity, 200)
	})
}
