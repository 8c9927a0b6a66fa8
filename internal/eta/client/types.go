package client

import (
	"encoding/json"
	"strings"
)

// Credentials identify one connector against the authority. A connector
// carrying a POS serial authenticates as a receipt device.
type Credentials struct {
	Connector    string
	Environment  string
	BaseURL      string
	IdentityURL  string
	ClientID     string
	ClientSecret string
	POSSerial    string
	POSOSVersion string
}

func (c Credentials) POS() bool {
	return strings.TrimSpace(c.POSSerial) != ""
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.IdentityURL) == "" ||
		strings.TrimSpace(c.ClientID) == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// cacheKey separates token caches of connectors sharing a client id across environments.
func (c Credentials) cacheKey() string {
	return strings.Join([]string{c.Connector, c.Environment, c.ClientID}, "|")
}

// AuthorityError is the structured error the authority attaches to a rejection.
type AuthorityError struct {
	Code         string           `json:"code,omitempty"`
	Message      string           `json:"message,omitempty"`
	Target       string           `json:"target,omitempty"`
	PropertyPath string           `json:"propertyPath,omitempty"`
	Details      []AuthorityError `json:"details,omitempty"`
}

type AcceptedDocument struct {
	UUID          string `json:"uuid"`
	LongID        string `json:"longId"`
	InternalID    string `json:"internalId,omitempty"`
	ReceiptNumber string `json:"receiptNumber,omitempty"`
	HashKey       string `json:"hashKey,omitempty"`
}

type RejectedDocument struct {
	UUID          string         `json:"uuid,omitempty"`
	InternalID    string         `json:"internalId,omitempty"`
	ReceiptNumber string         `json:"receiptNumber,omitempty"`
	Error         AuthorityError `json:"error"`
}

// SubmissionResponse is the answer to a document or receipt batch. Error
// holds the raw top-level error when the whole batch was refused.
type SubmissionResponse struct {
	StatusCode        int                `json:"-"`
	SubmissionID      string             `json:"submissionId,omitempty"`
	AcceptedDocuments []AcceptedDocument `json:"acceptedDocuments,omitempty"`
	RejectedDocuments []RejectedDocument `json:"rejectedDocuments,omitempty"`
	Error             json.RawMessage    `json:"error,omitempty"`
}

// Refused reports a top-level error without per-document outcomes.
func (r *SubmissionResponse) Refused() bool {
	return r != nil && len(r.Error) > 0 && string(r.Error) != "null"
}

// DocumentRaw is the subset of GET /documents/{uuid}/raw and GET /receipts/{uuid}/raw used for status refresh.
type DocumentRaw struct {
	UUID         string `json:"uuid"`
	SubmissionID string `json:"submissionUUID,omitempty"`
	LongID       string `json:"longId,omitempty"`
	InternalID   string `json:"internalId,omitempty"`
	Status       string `json:"status"`
}

type DocumentSummary struct {
	UUID       string `json:"uuid"`
	InternalID string `json:"internalId"`
	Status     string `json:"status"`
}

type SubmissionStatus struct {
	SubmissionID    string            `json:"submissionId"`
	OverallStatus   string            `json:"overallStatus"`
	DocumentCount   int               `json:"documentCount"`
	DocumentSummary []DocumentSummary `json:"documentSummary"`
}

type DocumentType struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ActiveFrom  string `json:"activeFrom,omitempty"`
}

type cancelRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}
