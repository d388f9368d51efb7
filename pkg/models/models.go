// Package models defines data structures shared across the application.
package models

import (
	"encoding/json"
)

// Field names used as keys in ValidationErrors and for OnFieldChange.
const (
	FieldIssueType    = "issueType"
	FieldSubIssueType = "subIssueType"
	FieldDescription  = "description"
)

// SourceWeb is the source tag sent with every case payload.
const SourceWeb = "web"

// FormValues holds the values the user has entered into the case form.
type FormValues struct {
	// IssueType is the top-level category (e.g., "Billing")
	IssueType string

	// SubIssueType is a sub-category allowed for IssueType (e.g., "Refund")
	SubIssueType string

	// Description is the free text body as typed, untrimmed
	Description string
}

// ValidationErrors maps a field name to a human-readable message.
// An empty map means the form is valid.
type ValidationErrors map[string]string

// CasePayload is the JSON body posted to the case-creation webhook.
type CasePayload struct {
	IssueType    string `json:"issueType"`
	SubIssueType string `json:"subIssueType"`
	Description  string `json:"description"`
	Source       string `json:"source"`
}

// SubmissionResult is the success payload returned by the webhook.
// Every field is optional.
type SubmissionResult struct {
	CaseNumber string `json:"caseNumber,omitempty"`
	CaseID     string `json:"caseId,omitempty"`
	Message    string `json:"message,omitempty"`
}

// SubmissionError is the failure shown to the user after a submission.
type SubmissionError struct {
	// Message is the user-facing description of what went wrong
	Message string

	// CorrelationID identifies the failed request for support triage
	CorrelationID string

	// ResponseBody is the raw JSON body of the failed response, if any
	ResponseBody json.RawMessage
}

// CopyState tracks the outcome of the last copy-to-clipboard action.
type CopyState string

const (
	CopyIdle   CopyState = "idle"
	CopyCopied CopyState = "copied"
	CopyError  CopyState = "error"
)

// UIState is the complete state rendered by the case form.
type UIState struct {
	Form         FormValues
	Errors       ValidationErrors
	IsSubmitting bool
	SuccessData  *SubmissionResult
	ErrorData    *SubmissionError
	CopyState    CopyState
}

// Clone returns a deep copy of the state safe to hand to renderers.
func (s UIState) Clone() UIState {
	out := s
	out.Errors = make(ValidationErrors, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	if s.SuccessData != nil {
		success := *s.SuccessData
		out.SuccessData = &success
	}
	if s.ErrorData != nil {
		failure := *s.ErrorData
		if s.ErrorData.ResponseBody != nil {
			failure.ResponseBody = append(json.RawMessage(nil), s.ErrorData.ResponseBody...)
		}
		out.ErrorData = &failure
	}
	return out
}
