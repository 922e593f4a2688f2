package harmony

import (
	"fmt"
	"math/big"
)

// InvalidInputError reports a malformed melody. Index is the offending note,
// or -1 when the problem is not tied to a single note.
type InvalidInputError struct {
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid melody: %s", e.Reason)
	}
	return fmt.Sprintf("invalid melody at note %d: %s", e.Index, e.Reason)
}

// UnharmonizableSegmentError is returned when a segment has no chord
// candidates, or when Pruned, when the scorers price every path into it at
// +Inf.
type UnharmonizableSegmentError struct {
	Segment int
	Start   *big.Rat
	Pruned  bool
}

func (e *UnharmonizableSegmentError) Error() string {
	if e.Pruned {
		return fmt.Sprintf("segment %d at %s is unreachable: every path into it costs +Inf", e.Segment, e.Start.RatString())
	}
	return fmt.Sprintf("segment %d at %s has no chord candidates", e.Segment, e.Start.RatString())
}
