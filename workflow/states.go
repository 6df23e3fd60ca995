// Package workflow holds the DAR review state machine: the states, the events a caller may
// attempt, the static transition table and the guard that checks an event against it.
// Nothing in this package performs I/O.
package workflow

import (
	"fmt"
	"strings"
)

// State is one phase of a DAR application's review lifecycle.
type State string

const (
	StateDraft                 State = "DRAFT"
	StateRepReview             State = "REP_REVIEW"
	StateRepRevisionRequested  State = "REP_REVISION_REQUESTED"
	StateDacReview             State = "DAC_REVIEW"
	StateDacRevisionsRequested State = "DAC_REVISIONS_REQUESTED"
	StateRejected              State = "REJECTED"
	StateApproved              State = "APPROVED"
	StateClosed                State = "CLOSED"
	StateRevoked               State = "REVOKED"
)

// InitialState is the state every new application starts in.
const InitialState = StateDraft

var allStates = []State{
	StateDraft,
	StateRepReview,
	StateRepRevisionRequested,
	StateDacReview,
	StateDacRevisionsRequested,
	StateRejected,
	StateApproved,
	StateClosed,
	StateRevoked,
}

// APPROVED is terminal for review purposes; it still has the outgoing revoke edge.
var terminalStates = map[State]struct{}{
	StateRejected: {},
	StateApproved: {},
	StateClosed:   {},
	StateRevoked:  {},
}

// States returns every defined state in lifecycle order.
func States() []State {
	return append([]State(nil), allStates...)
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	for _, candidate := range allStates {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s State) String() string { return string(s) }

// IsTerminal reports whether the review of an application in state s has ended.
func IsTerminal(s State) bool {
	_, ok := terminalStates[s]
	return ok
}

// ParseState accepts the canonical name in any case and with surrounding spaces.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownState, raw)
	}
	return s, nil
}

// Event is a named business action attempted against the current state.
type Event string

const (
	EventSubmit             Event = "submit"
	EventEdit               Event = "edit"
	EventClose              Event = "close"
	EventRepRevisionRequest Event = "rep_revision_request"
	EventRepApproveReview   Event = "rep_approve_review"
	EventRepReviewWithdraw  Event = "rep_review_withdraw"
	EventSubmitRepRevisions Event = "submit_rep_revisions"
	EventDacApproveReview   Event = "dac_approve_review"
	EventDacRevisionRequest Event = "dac_revision_request"
	EventDacReject          Event = "dac_reject"
	EventDacReviewWithdraw  Event = "dac_review_withdraw"
	EventSubmitDacRevisions Event = "submit_dac_revisions"
	EventRevoked            Event = "revoked"
)

var allEvents = []Event{
	EventSubmit,
	EventEdit,
	EventClose,
	EventRepRevisionRequest,
	EventRepApproveReview,
	EventRepReviewWithdraw,
	EventSubmitRepRevisions,
	EventDacApproveReview,
	EventDacRevisionRequest,
	EventDacReject,
	EventDacReviewWithdraw,
	EventSubmitDacRevisions,
	EventRevoked,
}

// Events returns the full event vocabulary.
func Events() []Event {
	return append([]Event(nil), allEvents...)
}

// Valid reports whether e is part of the event vocabulary.
func (e Event) Valid() bool {
	for _, candidate := range allEvents {
		if e == candidate {
			return true
		}
	}
	return false
}

func (e Event) String() string { return string(e) }

// IsSubmission reports whether e hands content to a reviewer and therefore needs the
// content validator to pass first.
func (e Event) IsSubmission() bool {
	switch e {
	case EventSubmit, EventSubmitRepRevisions, EventSubmitDacRevisions:
		return true
	}
	return false
}

// IsRevisionRequest reports whether e carries a revision request payload.
func (e Event) IsRevisionRequest() bool {
	return e == EventRepRevisionRequest || e == EventDacRevisionRequest
}

// ParseEvent accepts the canonical name in any case; dashes are read as underscores.
func ParseEvent(raw string) (Event, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	e := Event(strings.ReplaceAll(normalized, "-", "_"))
	if !e.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownEvent, raw)
	}
	return e, nil
}
