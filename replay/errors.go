package replay

import (
	"errors"
	"fmt"

	"github.com/zeu5/reinforced/ring"
)

var (
	ErrIndexOutOfRange = ring.ErrIndexOutOfRange
	ErrEmptyBuffer     = ring.ErrEmpty
	ErrNoOpenEpisode   = errors.New("no open episode, call BeginEpisode first")
	ErrBrokenInvariant = errors.New("broken invariant")
)

// InvariantError describes an inconsistency in the episode bookkeeping.
// It is only ever raised through panic: it means the index itself is
// defective and the stored data can no longer be trusted.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBrokenInvariant, e.Msg)
}

func (e *InvariantError) Unwrap() error {
	return ErrBrokenInvariant
}

func brokenInvariant(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
