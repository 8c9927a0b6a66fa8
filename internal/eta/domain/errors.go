package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDocumentKind = errors.New("invalid_document_kind")
	ErrRecordNotFound      = errors.New("record_not_found")
	ErrKindMismatch        = errors.New("document_kind_mismatch")
	ErrValidation          = errors.New("validation_failed")
	ErrInvalidPostingTime  = errors.New("invalid_posting_time")
	ErrInvalidTaxDetail    = errors.New("invalid_item_wise_tax_detail")
)

// Field error codes.
const (
	CodeRequired      = "required"
	CodeInvalidChoice = "invalid_choice"
	CodeInvalidFormat = "invalid_format"
	CodeOutOfRange    = "out_of_range"
)

// FieldError is one itemized violation, addressed by its JSON path in the emitted document.
type FieldError struct {
	Path    string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Label   string `json:"label,omitempty"`
}

// ValidationError carries every violation found in a document.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Paths lists the offending field paths in discovery order.
func (e *ValidationError) Paths() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Path)
	}
	return out
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// Merge joins several validation failures into one list. Non-validation errors are returned as is.
func Merge(errs ...error) error {
	var out ValidationError
	for _, err := range errs {
		if err == nil {
			continue
		}
		vErr, ok := AsValidationError(err)
		if !ok {
			return err
		}
		out.Errors = append(out.Errors, vErr.Errors...)
	}
	if len(out.Errors) == 0 {
		return nil
	}
	return &out
}
