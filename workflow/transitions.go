package workflow

import "fmt"

// Transition is a single allowed edge in the lifecycle state machine.
type Transition struct {
	From  State
	Event Event
	To    State
}

// IsSelfLoop reports whether the edge leaves the application in the state it came from.
func (t Transition) IsSelfLoop() bool {
	return t.From == t.To
}

var transitionsTable = []Transition{
	// Drafting
	{From: StateDraft, Event: EventSubmit, To: StateRepReview},
	{From: StateDraft, Event: EventEdit, To: StateDraft},
	{From: StateDraft, Event: EventClose, To: StateClosed},

	// Institutional rep review
	{From: StateRepReview, Event: EventClose, To: StateClosed},
	{From: StateRepReview, Event: EventRepRevisionRequest, To: StateRepRevisionRequested},
	{From: StateRepReview, Event: EventRepApproveReview, To: StateDacReview},
	{From: StateRepReview, Event: EventRepReviewWithdraw, To: StateDraft},
	{From: StateRepRevisionRequested, Event: EventEdit, To: StateRepReview},
	{From: StateRepRevisionRequested, Event: EventSubmitRepRevisions, To: StateRepReview},

	// DAC review
	{From: StateDacReview, Event: EventDacApproveReview, To: StateApproved},
	{From: StateDacReview, Event: EventClose, To: StateClosed},
	{From: StateDacReview, Event: EventDacRevisionRequest, To: StateDacRevisionsRequested},
	{From: StateDacReview, Event: EventDacReject, To: StateRejected},
	{From: StateDacReview, Event: EventDacReviewWithdraw, To: StateDraft},
	{From: StateDacRevisionsRequested, Event: EventEdit, To: StateDacReview},
	{From: StateDacRevisionsRequested, Event: EventSubmitDacRevisions, To: StateDacReview},

	// After approval
	{From: StateApproved, Event: EventRevoked, To: StateRevoked},
}

type edgeKey struct {
	from  State
	event Event
}

var transitionIndex = buildTransitionIndex(transitionsTable)

func buildTransitionIndex(table []Transition) map[edgeKey]Transition {
	index := make(map[edgeKey]Transition, len(table))
	for _, tr := range table {
		if !tr.From.Valid() || !tr.To.Valid() || !tr.Event.Valid() {
			panic(fmt.Sprintf("workflow: transition %s --%s--> %s uses an undefined name", tr.From, tr.Event, tr.To))
		}
		key := edgeKey{from: tr.From, event: tr.Event}
		if existing, dup := index[key]; dup {
			panic(fmt.Sprintf("workflow: %s --%s--> is defined twice (%s, %s)", tr.From, tr.Event, existing.To, tr.To))
		}
		index[key] = tr
	}
	return index
}

// Transitions returns a copy of the transition table.
func Transitions() []Transition {
	return append([]Transition(nil), transitionsTable...)
}

// TransitionFor returns the edge for (from, event) if one exists.
func TransitionFor(from State, event Event) (Transition, bool) {
	tr, ok := transitionIndex[edgeKey{from: from, event: event}]
	return tr, ok
}

// IsLegal reports whether event may be attempted from state.
func IsLegal(state State, event Event) bool {
	_, ok := TransitionFor(state, event)
	return ok
}

// Next returns the state reached by applying event in state. ok is false when no edge exists.
func Next(state State, event Event) (next State, ok bool) {
	tr, ok := TransitionFor(state, event)
	if !ok {
		return "", false
	}
	return tr.To, true
}

// EventsFrom lists the events that are legal from state, in table order.
func EventsFrom(state State) []Event {
	var events []Event
	for _, tr := range transitionsTable {
		if tr.From == state {
			events = append(events, tr.Event)
		}
	}
	return events
}
