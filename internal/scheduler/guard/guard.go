// Package guard holds the eligibility checks the scheduler applies before
// touching a document.
package guard

import (
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/etabridge/internal/eta/submission"
)

var (
	ErrNotUnsubmitted = errors.New("document_not_unsubmitted")
	ErrUnsigned       = errors.New("document_unsigned")
	ErrOutsideGrace   = errors.New("document_outside_grace_period")
	ErrNotAwaiting    = errors.New("document_not_awaiting_validation")
	ErrMissingETAUUID = errors.New("document_missing_eta_uuid")
)

// EnsureAutoSubmittable accepts signed documents that never reached the
// authority and are still inside the submission window.
func EnsureAutoSubmittable(status submission.DocumentState, signature string, postedAt, now time.Time, grace time.Duration) error {
	if status != submission.StateUnsubmitted {
		return ErrNotUnsubmitted
	}
	if strings.TrimSpace(signature) == "" {
		return ErrUnsigned
	}
	if now.Sub(postedAt) >= grace {
		return ErrOutsideGrace
	}
	return nil
}

// EnsureRefreshable accepts documents the authority has yet to validate.
func EnsureRefreshable(status submission.DocumentState, uuid string) error {
	if status != submission.StateSubmitted {
		return ErrNotAwaiting
	}
	if strings.TrimSpace(uuid) == "" {
		return ErrMissingETAUUID
	}
	return nil
}
