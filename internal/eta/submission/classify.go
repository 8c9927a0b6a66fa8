package submission

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/etabridge/internal/eta/client"
	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

// Status is the aggregate outcome of one submission call.
type Status string

const (
	StatusStarted            Status = "Started"
	StatusCompleted          Status = "Completed"
	StatusPartiallySucceeded Status = "Partially Succeeded"
	StatusFailed             Status = "Failed"
)

const notAcknowledged = "Document was not acknowledged by the authority"

// Outcome is the verdict for one submitted document.
type Outcome struct {
	Name      string                 `json:"name"`
	Accepted  bool                   `json:"accepted"`
	State     DocumentState          `json:"state"`
	UUID      string                 `json:"uuid,omitempty"`
	LongID    string                 `json:"long_id,omitempty"`
	HashKey   string                 `json:"hash_key,omitempty"`
	Error     *client.AuthorityError `json:"error,omitempty"`
	ErrorText string                 `json:"error_text,omitempty"`
}

// Result summarizes a submission call.
type Result struct {
	Status       Status    `json:"status"`
	StatusCode   int       `json:"status_code,omitempty"`
	SubmissionID string    `json:"submission_id,omitempty"`
	Outcomes     []Outcome `json:"outcomes"`
	Accepted     int       `json:"accepted"`
	Rejected     int       `json:"rejected"`
	// RawError holds a batch level refusal or the transport failure text.
	RawError string `json:"raw_error,omitempty"`
	// Retryable is set when nothing reached a verdict and the batch may be sent again.
	Retryable bool `json:"retryable"`
}

// Summary is the operator text stored on the submission log.
func (r Result) Summary(kind domain.DocumentKind) string {
	noun := "documents"
	if kind == domain.KindReceipt {
		noun = "receipts"
	}
	return fmt.Sprintf("Total no of %s: %d\nTotal no of accepted: %d\nTotal no of rejected: %d",
		noun, len(r.Outcomes), r.Accepted, r.Rejected)
}

// AggregateStatus derives the batch status from accepted and total counts.
func AggregateStatus(accepted, total int) Status {
	switch {
	case total > 0 && accepted == total:
		return StatusCompleted
	case accepted > 0:
		return StatusPartiallySucceeded
	default:
		return StatusFailed
	}
}

// Classify maps the authority answer onto the submitted names. Invoices are
// matched by internalId and receipts by receiptNumber. Names without a verdict
// count as not accepted. A call error means no verdict at all: documents stay
// where they were and the result is marked retryable when the error is transient.
func Classify(kind domain.DocumentKind, names []string, resp *client.SubmissionResponse, callErr error) Result {
	if callErr != nil {
		return Result{
			Status:    StatusFailed,
			RawError:  callErr.Error(),
			Retryable: client.IsRetryable(callErr),
			Outcomes:  pending(names),
		}
	}
	if resp == nil {
		return Result{Status: StatusFailed, RawError: "empty response", Retryable: true, Outcomes: pending(names)}
	}
	if resp.Refused() && len(resp.AcceptedDocuments) == 0 && len(resp.RejectedDocuments) == 0 {
		return Result{
			Status:     StatusFailed,
			StatusCode: resp.StatusCode,
			RawError:   string(resp.Error),
			Outcomes:   pending(names),
		}
	}

	accepted := make(map[string]client.AcceptedDocument, len(resp.AcceptedDocuments))
	for _, doc := range resp.AcceptedDocuments {
		accepted[documentKey(kind, doc.InternalID, doc.ReceiptNumber)] = doc
	}
	rejected := make(map[string]client.RejectedDocument, len(resp.RejectedDocuments))
	for _, doc := range resp.RejectedDocuments {
		rejected[documentKey(kind, doc.InternalID, doc.ReceiptNumber)] = doc
	}

	result := Result{
		StatusCode:   resp.StatusCode,
		SubmissionID: resp.SubmissionID,
		Outcomes:     make([]Outcome, 0, len(names)),
	}
	for _, name := range names {
		key := strings.TrimSpace(name)
		if doc, ok := accepted[key]; ok {
			result.Accepted++
			result.Outcomes = append(result.Outcomes, Outcome{
				Name:     name,
				Accepted: true,
				State:    StateSubmitted,
				UUID:     doc.UUID,
				LongID:   doc.LongID,
				HashKey:  doc.HashKey,
			})
			continue
		}
		if doc, ok := rejected[key]; ok {
			result.Rejected++
			authErr := doc.Error
			result.Outcomes = append(result.Outcomes, Outcome{
				Name:      name,
				State:     StateRejected,
				UUID:      doc.UUID,
				Error:     &authErr,
				ErrorText: FormatErrorDetails(authErr),
			})
			continue
		}
		result.Rejected++
		result.Outcomes = append(result.Outcomes, Outcome{
			Name:      name,
			State:     StateUnsubmitted,
			ErrorText: notAcknowledged,
		})
	}
	result.Status = AggregateStatus(result.Accepted, len(names))
	return result
}

func pending(names []string) []Outcome {
	out := make([]Outcome, 0, len(names))
	for _, name := range names {
		out = append(out, Outcome{Name: name, State: StateUnsubmitted})
	}
	return out
}

func documentKey(kind domain.DocumentKind, internalID, receiptNumber string) string {
	if kind == domain.KindReceipt {
		if receiptNumber != "" {
			return strings.TrimSpace(receiptNumber)
		}
	}
	return strings.TrimSpace(internalID)
}
