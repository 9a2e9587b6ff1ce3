package lesson

import (
	"errors"
	"fmt"
)

// Error is an expected lesson-flow condition. These are user-facing:
// handlers render guidance and never surface them as system failures.
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

// Code returns the stable machine-readable error code used in logs.
func (e *Error) Code() string { return e.code }

var (
	// ErrNotRegistered means the user has no profile yet.
	ErrNotRegistered = &Error{"NOT_REGISTERED", "user is not registered"}
	// ErrStaleAction means the event does not match the current stage,
	// typically a duplicate tap or a tap on an expired lesson.
	ErrStaleAction = &Error{"STALE_ACTION", "action does not match current lesson stage"}
	// ErrStaleSelection means a topic was picked after selection closed.
	ErrStaleSelection = &Error{"STALE_SELECTION", "topic selection is no longer open"}
	// ErrInvalidSelection means an out-of-range topic or answer choice.
	ErrInvalidSelection = &Error{"INVALID_SELECTION", "selection is out of range"}
	// ErrTranscriptionEmpty means the voice clip yielded no usable text.
	ErrTranscriptionEmpty = &Error{"TRANSCRIPTION_EMPTY", "transcription produced no text"}
	// ErrNoTopics means the topic source returned nothing today.
	ErrNoTopics = &Error{"NO_TOPICS", "no topics available"}
)

// GenerationError wraps a content-generation failure for one stage.
// The persisted record keeps the advanced stage with an absent payload,
// so the next lesson command retries generation instead of hanging.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s: %v", e.Stage, e.Err)
}

// Code identifies the failure category in handler summary logs.
func (e *GenerationError) Code() string { return "GENERATION_FAILURE" }

func (e *GenerationError) Unwrap() error { return e.Err }

// IsExpected reports whether err is a recoverable lesson-flow condition
// that should be rendered as guidance rather than propagated.
func IsExpected(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return true
	}
	var ge *GenerationError
	return errors.As(err, &ge)
}
