package domain

import "errors"

var (
	ErrNoDocuments         = errors.New("no_documents")
	ErrGracePeriodExceeded = errors.New("grace_period_exceeded")
	ErrSignatureRequired   = errors.New("signature_required")
	ErrAlreadySubmitted    = errors.New("document_already_submitted")
	ErrNotSubmitted        = errors.New("document_not_submitted")
	ErrConnectorMismatch   = errors.New("connector_mismatch")
	ErrSubmissionFailed    = errors.New("submission_failed")
	ErrUnsupportedKind     = errors.New("unsupported_document_kind")
)
