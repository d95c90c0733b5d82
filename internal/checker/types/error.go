package types

import "fmt"

// UnificationError reports that two types could not be made equal, with a
// human-readable reason string used both for direct display and for
// grouping identical failures together in a multi-path error summary.
type UnificationError struct {
	Reason string
	T1, T2 Type
}

func (e *UnificationError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", e.T1, e.T2, e.Reason)
}

// NewUnificationError builds a *UnificationError with both operands and a
// reason describing the specific mismatch (e.g. "head constructor mismatch:
// array vs bool").
func NewUnificationError(reason string, t1, t2 Type) *UnificationError {
	return &UnificationError{Reason: reason, T1: t1, T2: t2}
}
