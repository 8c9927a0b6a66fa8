package submission

import (
	"errors"
	"fmt"
	"strings"
)

// DocumentState tracks one document at the authority.
type DocumentState string

const (
	StateUnsubmitted DocumentState = "Unsubmitted"
	StateSubmitted   DocumentState = "Submitted"
	StateValid       DocumentState = "Valid"
	StateInvalid     DocumentState = "Invalid"
	StateRejected    DocumentState = "Rejected"
	StateCancelled   DocumentState = "Cancelled"
)

var (
	ErrInvalidTransition = errors.New("invalid_state_transition")
	ErrCancelReason      = errors.New("cancel_reason_required")
)

// Allowed moves. Invalid and Rejected documents may be corrected and sent
// again, which starts a new Submitted cycle; Cancelled is final.
var transitions = map[DocumentState][]DocumentState{
	StateUnsubmitted: {StateSubmitted, StateRejected},
	StateSubmitted:   {StateValid, StateInvalid, StateRejected, StateCancelled},
	StateValid:       {StateCancelled, StateRejected},
	StateInvalid:     {StateSubmitted, StateRejected},
	StateRejected:    {StateSubmitted},
}

// ParseState maps stored or authority status text onto a state. Blank means Unsubmitted.
func ParseState(raw string) (DocumentState, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "unsubmitted":
		return StateUnsubmitted, true
	case "submitted":
		return StateSubmitted, true
	case "valid":
		return StateValid, true
	case "invalid":
		return StateInvalid, true
	case "rejected":
		return StateRejected, true
	case "cancelled", "canceled":
		return StateCancelled, true
	}
	return "", false
}

// Terminal reports whether polling the authority can still change the state.
func (s DocumentState) Terminal() bool {
	return s == StateCancelled || s == StateRejected || s == StateInvalid
}

// CanTransition reports whether from may move to to. Staying put is always allowed.
func CanTransition(from, to DocumentState) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change driven by the authority.
func Transition(from, to DocumentState) (DocumentState, error) {
	if to == StateCancelled {
		return from, fmt.Errorf("%w: cancellation needs an explicit request", ErrInvalidTransition)
	}
	return move(from, to)
}

// Cancel validates an operator cancellation.
func Cancel(from DocumentState, reason string) (DocumentState, error) {
	if strings.TrimSpace(reason) == "" {
		return from, ErrCancelReason
	}
	if from != StateValid && from != StateSubmitted {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateCancelled)
	}
	return StateCancelled, nil
}

// Refresh applies a polled authority status. Unknown statuses leave the state unchanged.
func Refresh(from DocumentState, authorityStatus string) (DocumentState, error) {
	to, ok := ParseState(authorityStatus)
	if !ok || to == StateUnsubmitted {
		return from, nil
	}
	if to == StateCancelled {
		// cancelled on the portal or by the receiver
		if from == StateValid || from == StateSubmitted || from == StateCancelled {
			return StateCancelled, nil
		}
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return move(from, to)
}

func move(from, to DocumentState) (DocumentState, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}
