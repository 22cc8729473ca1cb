package replay

import "fmt"

// Marker records where a node sits within its episode.
// A marker is either First (the node starts an episode and carries the
// number of live nodes of that episode) or Step (the node was reached by
// taking an action from the previous node and yielded a reward).
type Marker[A any] struct {
	first  bool
	length int
	action A
	reward float32
}

// FirstMarker marks the first node of an episode holding length live nodes
func FirstMarker[A any](length int) Marker[A] {
	return Marker[A]{
		first:  true,
		length: length,
	}
}

// StepMarker marks a non initial node of an episode
func StepMarker[A any](action A, reward float32) Marker[A] {
	return Marker[A]{
		first:  false,
		action: action,
		reward: reward,
	}
}

func (m Marker[A]) IsFirst() bool {
	return m.first
}

// Length returns the episode length if m is a First marker
func (m Marker[A]) Length() (int, bool) {
	if !m.first {
		return 0, false
	}
	return m.length, true
}

// Step returns the action and reward if m is a Step marker
func (m Marker[A]) Step() (A, float32, bool) {
	if m.first {
		var zero A
		return zero, 0, false
	}
	return m.action, m.reward, true
}

func (m Marker[A]) String() string {
	if m.first {
		return fmt.Sprintf("First{length: %d}", m.length)
	}
	return fmt.Sprintf("Step{action: %v, reward: %g}", m.action, m.reward)
}

// Node is one stored transition. Payload is free for the owner to mutate
// while the node is live.
type Node[S, A, D any] struct {
	State   S
	Marker  Marker[A]
	Payload D
}
