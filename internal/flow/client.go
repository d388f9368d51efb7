// Package flow submits cases to the case-creation workflow webhook.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielolaszy/caseform/internal/config"
	"github.com/danielolaszy/caseform/internal/logging"
	"github.com/danielolaszy/caseform/pkg/models"
)

// APIKeyHeader carries the optional pre-shared key.
const APIKeyHeader = "x-api-key"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Correlation ids are looked up in this order; the first non-empty value wins.
var (
	correlationHeaders = []string{"x-correlation-id", "x-ms-correlation-request-id", "x-request-id"}
	correlationFields  = []string{"correlationId", "requestId"}
)

// Client posts case payloads to the configured webhook.
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout overrides the request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a webhook client from the flow configuration. An empty
// URL is accepted here and reported by CreateCase, so the form stays usable
// and shows the configuration problem on submit.
func NewClient(cfg config.FlowConfig, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimSpace(cfg.URL),
		apiKey:     cfg.Key,
		timeout:    cfg.Timeout,
		httpClient: http.DefaultClient,
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCase performs exactly one POST of payload and normalizes the outcome.
// It fails with *ConfigurationError, *TimeoutError or *RequestError.
func (c *Client) CreateCase(ctx context.Context, payload models.CasePayload) (*models.SubmissionResult, error) {
	if c.endpoint == "" {
		return nil, &ConfigurationError{Setting: "VITE_FLOW_URL"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode case payload: %w", err)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	logging.Debug("posting case",
		"endpoint", c.endpoint,
		"api_key", logging.MaskSensitive(c.apiKey),
		"issue_type", payload.IssueType,
		"sub_issue_type", payload.SubIssueType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if timedOut(parent, ctx) {
			return nil, &TimeoutError{Timeout: c.timeout}
		}
		return nil, fmt.Errorf("failed to reach case webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, fields, parseErr := readJSONBody(resp)
	if timedOut(parent, ctx) {
		return nil, &TimeoutError{Timeout: c.timeout}
	}
	if parseErr != nil && parent.Err() != nil {
		return nil, fmt.Errorf("failed to read case webhook response: %w", parent.Err())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			Message:       stringField(fields, "message"),
			StatusCode:    resp.StatusCode,
			CorrelationID: correlationID(resp.Header, fields),
			ResponseBody:  raw,
		}
		if reqErr.Message == "" {
			reqErr.Message = fmt.Sprintf("Request failed with status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		logging.Warn("case webhook rejected request",
			"status", resp.StatusCode,
			"correlation_id", reqErr.CorrelationID)
		return nil, reqErr
	}

	if parseErr != nil {
		return nil, &RequestError{
			Message:       "Response could not be parsed as JSON.",
			StatusCode:    resp.StatusCode,
			CorrelationID: correlationID(resp.Header, nil),
		}
	}

	return &models.SubmissionResult{
		CaseNumber: stringField(fields, "caseNumber"),
		CaseID:     stringField(fields, "caseId"),
		Message:    stringField(fields, "message"),
	}, nil
}

// timedOut reports whether the client's own deadline fired. A parent context
// that is done, including one whose earlier deadline expired, is not a timeout
// of this client.
func timedOut(parent, ctx context.Context) bool {
	return parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// readJSONBody reads the body when the response declares a JSON content type.
// Non-JSON and empty bodies are treated as absent. Non-object JSON is kept raw
// with no fields.
func readJSONBody(resp *http.Response) (json.RawMessage, map[string]any, error) {
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil, nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("failed to parse response: %w", err)
	}

	fields, _ := decoded.(map[string]any)
	return json.RawMessage(data), fields, nil
}

func correlationID(header http.Header, fields map[string]any) string {
	for _, name := range correlationHeaders {
		if v := strings.TrimSpace(header.Get(name)); v != "" {
			return v
		}
	}
	for _, name := range correlationFields {
		if v := stringField(fields, name); v != "" {
			return v
		}
	}
	return ""
}

// stringField returns a string or numeric field as text.
func stringField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
