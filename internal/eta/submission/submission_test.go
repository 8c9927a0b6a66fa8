package submission

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/smallbiznis/etabridge/internal/eta/client"
	"github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SINV-%d", i+1)
	}
	return out
}

func responseFor(accepted, rejected []string) *client.SubmissionResponse {
	resp := &client.SubmissionResponse{StatusCode: 202, SubmissionID: "SUB"}
	for _, n := range accepted {
		resp.AcceptedDocuments = append(resp.AcceptedDocuments, client.AcceptedDocument{UUID: "U-" + n, LongID: "L-" + n, InternalID: n})
	}
	for _, n := range rejected {
		resp.RejectedDocuments = append(resp.RejectedDocuments, client.RejectedDocument{
			InternalID: n,
			Error:      client.AuthorityError{Message: "Validation Error", Target: n},
		})
	}
	return resp
}

func TestAggregateStatus(t *testing.T) {
	all := names(5)
	cases := []struct {
		name     string
		accepted []string
		rejected []string
		want     Status
	}{
		{"all accepted", all, nil, StatusCompleted},
		{"three of five", all[:3], all[3:], StatusPartiallySucceeded},
		{"none accepted", nil, all, StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Classify(domain.KindInvoice, all, responseFor(tc.accepted, tc.rejected), nil)
			assert.Equal(t, tc.want, res.Status)
			assert.Equal(t, len(tc.accepted), res.Accepted)
			assert.Equal(t, len(tc.rejected), res.Rejected)
			assert.Len(t, res.Outcomes, 5)
		})
	}
	assert.Equal(t, StatusFailed, AggregateStatus(0, 0))
}

func TestClassifyOutcomesKeepSubmittedOrder(t *testing.T) {
	all := names(3)
	res := Classify(domain.KindInvoice, all, responseFor([]string{"SINV-3", "SINV-1"}, []string{"SINV-2"}), nil)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "SINV-1", res.Outcomes[0].Name)
	assert.True(t, res.Outcomes[0].Accepted)
	assert.Equal(t, StateSubmitted, res.Outcomes[0].State)
	assert.Equal(t, "L-SINV-1", res.Outcomes[0].LongID)

	assert.False(t, res.Outcomes[1].Accepted)
	assert.Equal(t, StateRejected, res.Outcomes[1].State)
	assert.Contains(t, res.Outcomes[1].ErrorText, "Error Message: Validation Error")
	assert.Equal(t, "SUB", res.SubmissionID)
}

func TestClassifyReceiptsByReceiptNumber(t *testing.T) {
	resp := &client.SubmissionResponse{
		AcceptedDocuments: []client.AcceptedDocument{{UUID: "U1", ReceiptNumber: "POS-1"}},
	}
	res := Classify(domain.KindReceipt, []string{"POS-1", "POS-2"}, resp, nil)
	assert.Equal(t, StatusPartiallySucceeded, res.Status)
	assert.Equal(t, "U1", res.Outcomes[0].UUID)
	assert.Equal(t, StateUnsubmitted, res.Outcomes[1].State)
	assert.Equal(t, notAcknowledged, res.Outcomes[1].ErrorText)
	assert.Contains(t, res.Summary(domain.KindReceipt), "Total no of receipts: 2")
}

func TestClassifyTopLevelError(t *testing.T) {
	resp := &client.SubmissionResponse{StatusCode: 400, Error: json.RawMessage(`{"message":"Bad Request"}`)}
	res := Classify(domain.KindInvoice, names(2), resp, nil)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, `{"message":"Bad Request"}`, res.RawError)
	assert.False(t, res.Retryable)
	for _, o := range res.Outcomes {
		assert.Equal(t, StateUnsubmitted, o.State)
	}
}

func TestClassifyTransportFailureIsRetryable(t *testing.T) {
	res := Classify(domain.KindInvoice, names(2), nil, &client.TransportError{URL: "x", Err: errors.New("timeout")})
	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, res.Retryable)
	assert.Zero(t, res.Rejected, "a transport failure is never a rejection")

	res = Classify(domain.KindInvoice, names(1), nil, &client.AuthenticationError{Connector: "c"})
	assert.False(t, res.Retryable)
}

func TestFormatErrorDetails(t *testing.T) {
	got := FormatErrorDetails(client.AuthorityError{
		Message: "Validation Error",
		Details: []client.AuthorityError{{Code: "CF330", Message: "bad total", PropertyPath: "document.totalAmount"}},
	})
	want := "Error Message: Validation Error\nTarget: N/A\n" +
		"\nDetail:\n  Code: CF330\n  Message: bad total\n  Target: N/A\n  Property Path: document.totalAmount\n"
	assert.Equal(t, want, got)

	assert.Equal(t, "Error Message: No error message provided\nTarget: N/A\n", FormatErrorDetails(client.AuthorityError{}))
}

func TestStateMachine(t *testing.T) {
	next, err := Transition(StateUnsubmitted, StateSubmitted)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, next)

	_, err = Transition(StateValid, StateSubmitted)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(StateSubmitted, StateCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition, "cancel requires an explicit request")

	_, err = Transition(StateCancelled, StateValid)
	require.ErrorIs(t, err, ErrInvalidTransition)

	next, err = Transition(StateRejected, StateSubmitted)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, next)
}

func TestCancel(t *testing.T) {
	next, err := Cancel(StateValid, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, next)

	_, err = Cancel(StateSubmitted, "")
	require.ErrorIs(t, err, ErrCancelReason)

	_, err = Cancel(StateInvalid, "x")
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Cancel(StateUnsubmitted, "x")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRefresh(t *testing.T) {
	next, err := Refresh(StateSubmitted, "Valid")
	require.NoError(t, err)
	assert.Equal(t, StateValid, next)

	next, err = Refresh(StateValid, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, next)

	next, err = Refresh(StateSubmitted, "Submitted")
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, next)

	next, err = Refresh(StateSubmitted, "Processing")
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, next, "unknown statuses are ignored")

	_, err = Refresh(StateCancelled, "Valid")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestParseState(t *testing.T) {
	s, ok := ParseState("")
	assert.True(t, ok)
	assert.Equal(t, StateUnsubmitted, s)
	s, ok = ParseState("canceled")
	assert.True(t, ok)
	assert.Equal(t, StateCancelled, s)
	_, ok = ParseState("pending")
	assert.False(t, ok)
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateSubmitted.Terminal())
}
