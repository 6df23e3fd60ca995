package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the lifecycle. Callers match them with errors.Is; the typed errors
// below carry the details.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrContentIncomplete = errors.New("application content incomplete")
	ErrNotFound          = errors.New("application not found")
	ErrSystem            = errors.New("system error")

	// ErrStateConflict marks an InvalidTransition raised inside the transaction because
	// another request moved the application first.
	ErrStateConflict = errors.New("application state changed concurrently")

	ErrUnknownState = errors.New("unknown state")
	ErrUnknownEvent = errors.New("unknown event")
)

// TransitionError reports an event that is not legal from the application's state.
type TransitionError struct {
	State State
	Event Event
	// Expected is set when the caller pinned the operation to a source state.
	Expected State
	// Stale is set when the state observed inside the transaction no longer matched the
	// state the guard checked.
	Stale bool
}

func (e *TransitionError) Error() string {
	switch {
	case e.Stale:
		return fmt.Sprintf("invalid transition: application moved to %s before %s could be applied", e.State, e.Event)
	case e.Expected != "" && e.Expected != e.State:
		return fmt.Sprintf("invalid transition: %s requires state %s, application is %s", e.Event, e.Expected, e.State)
	default:
		return fmt.Sprintf("invalid transition: %s is not allowed from %s", e.Event, e.State)
	}
}

func (e *TransitionError) Is(target error) bool {
	if target == ErrInvalidTransition {
		return true
	}
	return e.Stale && target == ErrStateConflict
}

// ContentError lists the fields the content validator found missing or invalid.
type ContentError struct {
	Findings []string
}

func (e *ContentError) Error() string {
	if len(e.Findings) == 0 {
		return ErrContentIncomplete.Error()
	}
	return fmt.Sprintf("%s: %s", ErrContentIncomplete, strings.Join(e.Findings, ", "))
}

func (e *ContentError) Is(target error) bool { return target == ErrContentIncomplete }

// SystemError wraps a storage or transaction failure. The transaction it came from has been
// rolled back.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system error during %s: %v", e.Op, e.Err)
}

func (e *SystemError) Is(target error) bool { return target == ErrSystem }

func (e *SystemError) Unwrap() error { return e.Err }
