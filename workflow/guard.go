package workflow

// CanPerform is the guard: it returns nil when event is legal from current and a
// *TransitionError otherwise.
func CanPerform(current State, event Event) error {
	if IsLegal(current, event) {
		return nil
	}
	return &TransitionError{State: current, Event: event}
}

// CanPerformFrom is CanPerform for operations that are only meaningful from one source state,
// such as closing a draft as opposed to closing a review.
func CanPerformFrom(current, expected State, event Event) error {
	if current != expected {
		return &TransitionError{State: current, Event: event, Expected: expected}
	}
	return CanPerform(current, event)
}
