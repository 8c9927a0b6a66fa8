package domain

import (
	"fmt"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/submission"
)

// Document is a built tax document. Exactly one of Invoice and Receipt is set.
type Document struct {
	Kind    etadomain.DocumentKind `json:"kind"`
	Name    string                 `json:"name"`
	Invoice *etadomain.Invoice     `json:"invoice,omitempty"`
	Receipt *etadomain.Receipt     `json:"receipt,omitempty"`
}

// Payload is the value sent to the authority.
func (d *Document) Payload() any {
	if d.Receipt != nil {
		return d.Receipt
	}
	return d.Invoice
}

// Filename follows the ERP download naming.
func Filename(kind etadomain.DocumentKind, name string) string {
	prefix := "ETA"
	if kind == etadomain.KindReceipt {
		prefix = "eReceipt"
	}
	return fmt.Sprintf("%s-%s.json", prefix, name)
}

type SubmitRequest struct {
	Kind  etadomain.DocumentKind `json:"kind"`
	Names []string               `json:"names"`
	// Strict turns local preparation failures and unsuccessful batches into errors.
	Strict bool `json:"strict"`
	// Connector replaces the company default when set.
	Connector string `json:"connector,omitempty"`
}

// Skipped is a document that never left the service.
type Skipped struct {
	Name   string                 `json:"name"`
	Reason string                 `json:"reason"`
	Errors []etadomain.FieldError `json:"errors,omitempty"`
	Err    error                  `json:"-"`
}

// Batch is one call to the authority with its logged outcome.
type Batch struct {
	LogID     string            `json:"log_id"`
	Company   string            `json:"company"`
	Connector string            `json:"connector"`
	Result    submission.Result `json:"result"`
}

type SubmitResult struct {
	Batches []Batch   `json:"batches"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// StatusResult reports a document's state after a refresh or cancellation.
type StatusResult struct {
	Name            string                   `json:"name"`
	UUID            string                   `json:"uuid"`
	PreviousState   submission.DocumentState `json:"previous_state"`
	State           submission.DocumentState `json:"state"`
	AuthorityStatus string                   `json:"authority_status,omitempty"`
}
