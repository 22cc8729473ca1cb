package replay

import (
	"github.com/zeu5/reinforced/ring"
)

// Episodes iterates over live episodes in chronological order
type Episodes[S, A, D any] struct {
	buf  *Buffer[S, A, D]
	next int
}

// Next returns the next episode or false once every episode was visited
func (e *Episodes[S, A, D]) Next() (EpisodeView[S, A, D], bool) {
	if e.next >= e.buf.store.Len() {
		return EpisodeView[S, A, D]{}, false
	}
	node, _ := e.buf.store.Ref(e.next)
	length, ok := node.Marker.Length()
	if !ok {
		panic(brokenInvariant("node %d is %s, expected a first node", e.next, node.Marker))
	}
	view, err := e.buf.store.Slice(e.next, e.next+length)
	if err != nil || length < 1 {
		panic(brokenInvariant("episode at %d has length %d, buffer length %d", e.next, length, e.buf.store.Len()))
	}
	start := e.next
	e.next += length
	return EpisodeView[S, A, D]{
		view:  view,
		start: start,
	}, true
}

// Reset rewinds the iterator to the oldest episode
func (e *Episodes[S, A, D]) Reset() {
	e.next = 0
}

// All drains the iterator
func (e *Episodes[S, A, D]) All() []EpisodeView[S, A, D] {
	out := make([]EpisodeView[S, A, D], 0)
	for {
		ep, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, ep)
	}
}

// EpisodeView is a read only window on one episode
type EpisodeView[S, A, D any] struct {
	view  ring.View[Node[S, A, D]]
	start int
}

// Start is the logical index of the first node of the episode
func (v EpisodeView[S, A, D]) Start() int {
	return v.start
}

func (v EpisodeView[S, A, D]) Len() int {
	return v.view.Len()
}

func (v EpisodeView[S, A, D]) At(i int) (Node[S, A, D], error) {
	return v.view.At(i)
}

func (v EpisodeView[S, A, D]) Range(fn func(int, Node[S, A, D]) bool) {
	v.view.Range(fn)
}

// Nodes copies the nodes of the episode out of the buffer
func (v EpisodeView[S, A, D]) Nodes() []Node[S, A, D] {
	out := make([]Node[S, A, D], 0, v.view.Len())
	v.view.Range(func(_ int, n Node[S, A, D]) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Pair is two adjacent nodes of an episode. Next carries the action taken
// from Prev and the reward it produced.
type Pair[S, A, D any] struct {
	Prev Node[S, A, D]
	Next Node[S, A, D]
}

func (p Pair[S, A, D]) Step() (A, float32) {
	action, reward, _ := p.Next.Marker.Step()
	return action, reward
}

// Pairs returns every adjacent (prev, next) pair of the episode
func (v EpisodeView[S, A, D]) Pairs() []Pair[S, A, D] {
	nodes := v.Nodes()
	pairs := make([]Pair[S, A, D], 0, len(nodes))
	for i := 0; i+1 < len(nodes); i++ {
		if nodes[i+1].Marker.IsFirst() {
			continue
		}
		pairs = append(pairs, Pair[S, A, D]{Prev: nodes[i], Next: nodes[i+1]})
	}
	return pairs
}

// EpisodesMut hands out disjoint mutable episode views. It is single pass.
type EpisodesMut[S, A, D any] struct {
	buf    *Buffer[S, A, D]
	ranges []episodeRange
	pos    int
}

// Len is the number of episodes the iterator covers
func (e *EpisodesMut[S, A, D]) Len() int {
	return len(e.ranges)
}

func (e *EpisodesMut[S, A, D]) Next() (EpisodeMut[S, A, D], bool) {
	if e.pos >= len(e.ranges) {
		return EpisodeMut[S, A, D]{}, false
	}
	r := e.ranges[e.pos]
	e.pos++
	head, tail, err := e.buf.store.Segments(r.from, r.to)
	if err != nil {
		panic(brokenInvariant("episode range [%d, %d) no longer fits buffer of length %d", r.from, r.to, e.buf.store.Len()))
	}
	return EpisodeMut[S, A, D]{
		head:  head,
		tail:  tail,
		start: r.from,
	}, true
}

// EpisodeMut grants mutable access to the nodes of one episode. It is made
// of at most two contiguous pieces of the buffer's backing array.
type EpisodeMut[S, A, D any] struct {
	head  []Node[S, A, D]
	tail  []Node[S, A, D]
	start int
}

func (v EpisodeMut[S, A, D]) Start() int {
	return v.start
}

func (v EpisodeMut[S, A, D]) Len() int {
	return len(v.head) + len(v.tail)
}

// At returns the i-th node of the episode, or nil when i is out of range
func (v EpisodeMut[S, A, D]) At(i int) *Node[S, A, D] {
	switch {
	case i < 0 || i >= v.Len():
		return nil
	case i < len(v.head):
		return &v.head[i]
	default:
		return &v.tail[i-len(v.head)]
	}
}

func (v EpisodeMut[S, A, D]) Range(fn func(int, *Node[S, A, D]) bool) {
	for i := 0; i < v.Len(); i++ {
		if !fn(i, v.At(i)) {
			return
		}
	}
}

// PairMut is Pair with pointers into the buffer, used to back fill payloads
type PairMut[S, A, D any] struct {
	Prev *Node[S, A, D]
	Next *Node[S, A, D]
}

func (p PairMut[S, A, D]) Step() (A, float32) {
	action, reward, _ := p.Next.Marker.Step()
	return action, reward
}

func (v EpisodeMut[S, A, D]) Pairs() []PairMut[S, A, D] {
	pairs := make([]PairMut[S, A, D], 0, v.Len())
	for i := 0; i+1 < v.Len(); i++ {
		next := v.At(i + 1)
		if next.Marker.IsFirst() {
			continue
		}
		pairs = append(pairs, PairMut[S, A, D]{Prev: v.At(i), Next: next})
	}
	return pairs
}
