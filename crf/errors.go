package crf

import "fmt"

// incompatibleMsg is the diagnostic for a model file whose sections or
// dictionary entries do not line up with the expected layout.
const incompatibleMsg = "Incompatible formats in Model file"

// FormatError reports a malformed model artifact: wrong section count,
// malformed dictionary entry, unparsable header field or weight, or a
// header that is inconsistent with the dictionary and weight vector.
// Loading is all-or-nothing; a FormatError always aborts the operation.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// IllegalStateError reports a Tagger operation invoked out of the
// required decode order. This is a programmer error; a Tagger is used
// for exactly one decode and is never retried.
type IllegalStateError struct {
	Op    string
	State string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("crf: %s called in state %s", e.Op, e.State)
}
