package domain

import "errors"

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrNameMismatch     = errors.New("record_name_mismatch")
	ErrRecordLocked     = errors.New("record_locked")
	ErrNotFound         = errors.New("record_not_found")
	ErrNotSignable      = errors.New("record_not_signable")
	ErrInvalidSignature = errors.New("invalid_signature")
)
