// Package replay implements a segmented experience buffer: a fixed
// capacity ring of transitions that keeps track of episode boundaries.
//
// Every live node belongs to exactly one episode. An episode is a run of
// nodes in logical order starting at a node with a First marker whose
// length field counts the live nodes of the episode. Episodes are never
// stored separately. When the ring is full each push evicts the oldest node
// and the index repairs the lengths so that the oldest live node is always
// the First node of an episode.
//
// A Buffer has a single owner. Views returned by Episodes and EpisodesMut
// borrow the buffer: no BeginEpisode or PushResult may happen while a view
// is in use, and at most one EpisodesMut iteration may be live at a time.
// Callers that collect from several goroutines must serialise access with
// their own mutex or keep one buffer per actor.
package replay

import (
	"fmt"

	"github.com/zeu5/reinforced/ring"
)

// BufferState is the coarse state of the buffer facade
type BufferState int

const (
	StateEmpty BufferState = iota
	StateOpen
	StateFull
)

func (s BufferState) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateOpen:
		return "Open"
	case StateFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// Buffer is the segmented experience buffer.
// S is the stored state (usually a feature vector), A the action type and
// D the per node payload.
type Buffer[S, A, D any] struct {
	store *ring.Buffer[Node[S, A, D]]
	// logical index of the first node of the open episode
	head int
	open bool
}

// New creates an empty buffer holding at most capacity nodes
func New[S, A, D any](capacity int) (*Buffer[S, A, D], error) {
	store, err := ring.New[Node[S, A, D]](capacity)
	if err != nil {
		return nil, fmt.Errorf("creating replay buffer: %w", err)
	}
	return &Buffer[S, A, D]{
		store: store,
		head:  0,
		open:  false,
	}, nil
}

func (b *Buffer[S, A, D]) Len() int {
	return b.store.Len()
}

func (b *Buffer[S, A, D]) Cap() int {
	return b.store.Cap()
}

func (b *Buffer[S, A, D]) IsFull() bool {
	return b.store.IsFull()
}

// State reports whether the buffer is empty, collecting or overwriting
func (b *Buffer[S, A, D]) State() BufferState {
	switch {
	case b.store.Len() == 0:
		return StateEmpty
	case b.store.IsFull():
		return StateFull
	default:
		return StateOpen
	}
}

// Open reports whether an episode was begun and accepts PushResult
func (b *Buffer[S, A, D]) Open() bool {
	return b.open
}

// Head returns the logical index of the first node of the open episode
func (b *Buffer[S, A, D]) Head() (int, bool) {
	return b.head, b.open
}

// At returns a copy of the node at logical index i
func (b *Buffer[S, A, D]) At(i int) (Node[S, A, D], error) {
	return b.store.At(i)
}

// Ref returns the node at logical index i for in place payload updates.
// Only Payload may be modified through the pointer.
func (b *Buffer[S, A, D]) Ref(i int) (*Node[S, A, D], error) {
	return b.store.Ref(i)
}

func (b *Buffer[S, A, D]) Front() (*Node[S, A, D], error) {
	return b.store.Front()
}

func (b *Buffer[S, A, D]) Back() (*Node[S, A, D], error) {
	return b.store.Back()
}

// BeginEpisode starts a new episode with state as its first node. Whatever
// episode was open before is closed.
func (b *Buffer[S, A, D]) BeginEpisode(state S, payload D) {
	pushesTotal.WithLabelValues("first").Inc()
	b.push(Node[S, A, D]{
		State:   state,
		Marker:  FirstMarker[A](1),
		Payload: payload,
	})
	b.head = b.store.Len() - 1
	b.open = true
}

// PushResult appends the state reached by taking action from the previous
// node of the open episode.
func (b *Buffer[S, A, D]) PushResult(state S, action A, reward float32, payload D) error {
	if !b.open {
		return ErrNoOpenEpisode
	}
	pushesTotal.WithLabelValues("step").Inc()
	lost := b.push(Node[S, A, D]{
		State:   state,
		Marker:  StepMarker[A](action, reward),
		Payload: payload,
	})
	if lost {
		// The open episode was evicted as a whole (capacity smaller than the
		// episode). The oldest surviving part wins: the new node restarts it.
		b.head = b.store.Len() - 1
		back, _ := b.store.Back()
		back.Marker = FirstMarker[A](1)
		return nil
	}

	node, err := b.store.Ref(b.head)
	if err != nil {
		panic(brokenInvariant("head %d outside of buffer of length %d", b.head, b.store.Len()))
	}
	length, ok := node.Marker.Length()
	if !ok {
		panic(brokenInvariant("head %d points at %s, expected a first node", b.head, node.Marker))
	}
	node.Marker = FirstMarker[A](length + 1)
	return nil
}

// push stores node and repairs the episode index if something was evicted.
// It reports whether the first node of the open episode was evicted together
// with the whole episode.
func (b *Buffer[S, A, D]) push(node Node[S, A, D]) bool {
	evicted, ok := b.store.Push(node)
	if !ok {
		return false
	}
	evictionsTotal.Inc()
	return b.repair(evicted)
}

func (b *Buffer[S, A, D]) repair(evicted Node[S, A, D]) bool {
	headEvicted := b.open && b.head == 0
	// all logical indices moved down by one
	if b.head > 0 {
		b.head--
	}

	length, first := evicted.Marker.Length()
	if !first {
		return false
	}
	if length <= 1 {
		vanishedTotal.Inc()
		return headEvicted
	}

	front, err := b.store.Front()
	if err != nil {
		panic(brokenInvariant("buffer emptied while evicting %s", evicted.Marker))
	}
	if front.Marker.IsFirst() {
		panic(brokenInvariant("promotion target is %s, expected a step node", front.Marker))
	}
	// payload of the promoted node is kept as is
	front.Marker = FirstMarker[A](length - 1)
	promotionsTotal.Inc()
	return false
}

type episodeRange struct {
	from int
	to   int
}

// episodeRanges computes the logical range of every live episode from the
// length fields
func (b *Buffer[S, A, D]) episodeRanges() []episodeRange {
	ranges := make([]episodeRange, 0)
	for i := 0; i < b.store.Len(); {
		node, _ := b.store.Ref(i)
		length, ok := node.Marker.Length()
		if !ok {
			panic(brokenInvariant("node %d is %s, expected a first node", i, node.Marker))
		}
		if length < 1 || i+length > b.store.Len() {
			panic(brokenInvariant("episode at %d has length %d, buffer length %d", i, length, b.store.Len()))
		}
		ranges = append(ranges, episodeRange{from: i, to: i + length})
		i += length
	}
	return ranges
}

// CheckInvariants walks the whole index and reports the first inconsistency.
// It does not panic.
func (b *Buffer[S, A, D]) CheckInvariants() error {
	total := 0
	last := -1
	for i := 0; i < b.store.Len(); {
		node, _ := b.store.Ref(i)
		length, ok := node.Marker.Length()
		if !ok {
			return brokenInvariant("node %d is %s, expected a first node", i, node.Marker)
		}
		if length < 1 {
			return brokenInvariant("episode at %d has length %d", i, length)
		}
		last = i
		total += length
		i += length
	}
	if total != b.store.Len() {
		return brokenInvariant("episode lengths sum to %d, buffer length %d", total, b.store.Len())
	}
	if b.open && b.head != last {
		return brokenInvariant("head %d is not the last episode start %d", b.head, last)
	}
	return nil
}

// Episodes returns a restartable iterator over the live episodes, oldest
// first
func (b *Buffer[S, A, D]) Episodes() *Episodes[S, A, D] {
	return &Episodes[S, A, D]{
		buf:  b,
		next: 0,
	}
}

// EpisodesMut returns an iterator handing out one mutable view per live
// episode. All ranges are fixed when EpisodesMut is called, so the views are
// pairwise disjoint.
func (b *Buffer[S, A, D]) EpisodesMut() *EpisodesMut[S, A, D] {
	return &EpisodesMut[S, A, D]{
		buf:    b,
		ranges: b.episodeRanges(),
		pos:    0,
	}
}
