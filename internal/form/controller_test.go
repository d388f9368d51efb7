package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/caseform/internal/flow"
	"github.com/danielolaszy/caseform/pkg/models"
)

type fakeCreator struct {
	mu       sync.Mutex
	payloads []models.CasePayload
	result   *models.SubmissionResult
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeCreator) CreateCase(ctx context.Context, payload models.CasePayload) (*models.SubmissionResult, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeClipboard struct {
	mu     sync.Mutex
	copied []string
	err    error
}

func (f *fakeClipboard) WriteText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copied = append(f.copied, text)
	return f.err
}

type viewRecorder struct {
	mu    sync.Mutex
	views []Node
}

func (r *viewRecorder) render(n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, n)
}

func (r *viewRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func fillValid(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.OnFieldChange(models.FieldIssueType, "Billing"))
	require.NoError(t, c.OnFieldChange(models.FieldSubIssueType, "Refund"))
	require.NoError(t, c.OnFieldChange(models.FieldDescription, "  I was charged twice for one order.  "))
}

func TestNewControllerRendersEmptyForm(t *testing.T) {
	rec := &viewRecorder{}
	c := NewController(DefaultRules(), &fakeCreator{}, WithRenderer(rec.render))

	require.Equal(t, 1, rec.count())
	state := c.State()
	assert.Equal(t, models.FormValues{}, state.Form)
	assert.Empty(t, state.Errors)
	assert.Equal(t, models.CopyIdle, state.CopyState)
	assert.False(t, state.IsSubmitting)
}

func TestOnFieldChange(t *testing.T) {
	rec := &viewRecorder{}
	c := NewController(DefaultRules(), &fakeCreator{}, WithRenderer(rec.render))

	outcome, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeInvalid, outcome)
	require.Len(t, c.State().Errors, 3)

	require.NoError(t, c.OnFieldChange(models.FieldDescription, "short"))
	state := c.State()
	assert.Equal(t, "short", state.Form.Description)
	assert.NotContains(t, state.Errors, models.FieldDescription)
	assert.Contains(t, state.Errors, models.FieldIssueType)

	err = c.OnFieldChange("priority", "high")
	assert.ErrorContains(t, err, "unknown form field")
}

func TestChangingIssueTypeClearsSubIssueType(t *testing.T) {
	c := NewController(DefaultRules(), &fakeCreator{})

	require.NoError(t, c.OnFieldChange(models.FieldIssueType, "Technical"))
	require.NoError(t, c.OnFieldChange(models.FieldSubIssueType, "Refund"))
	_, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.Contains(t, c.State().Errors, models.FieldSubIssueType)

	require.NoError(t, c.OnFieldChange(models.FieldIssueType, "Billing"))
	state := c.State()
	assert.Equal(t, "Billing", state.Form.IssueType)
	assert.Equal(t, "", state.Form.SubIssueType)
	assert.NotContains(t, state.Errors, models.FieldSubIssueType)
	assert.NotContains(t, state.Errors, models.FieldIssueType)
}

func TestOnSubmitInvalidDoesNotCallClient(t *testing.T) {
	client := &fakeCreator{}
	c := NewController(DefaultRules(), client)

	outcome, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Zero(t, client.calls())
	assert.False(t, c.State().IsSubmitting)
}

func TestOnSubmitSuccess(t *testing.T) {
	rec := &viewRecorder{}
	client := &fakeCreator{result: &models.SubmissionResult{CaseNumber: "CAS-01001", CaseID: "a1b2", Message: "Case created"}}
	c := NewController(DefaultRules(), client, WithRenderer(rec.render))
	fillValid(t, c)
	before := rec.count()

	outcome, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome)

	require.Len(t, client.payloads, 1)
	assert.Equal(t, models.CasePayload{
		IssueType:    "Billing",
		SubIssueType: "Refund",
		Description:  "I was charged twice for one order.",
		Source:       "web",
	}, client.payloads[0])

	state := c.State()
	assert.Equal(t, models.FormValues{}, state.Form)
	assert.Empty(t, state.Errors)
	require.NotNil(t, state.SuccessData)
	assert.Equal(t, "CAS-01001", state.SuccessData.CaseNumber)
	assert.Nil(t, state.ErrorData)
	assert.False(t, state.IsSubmitting)

	// one render when submitting starts, one when it settles
	require.Equal(t, before+2, rec.count())
	submitting := rec.views[before]
	button, ok := submitting.Find(IDSubmit)
	require.True(t, ok)
	assert.Equal(t, "Creating case…", button.Text)
	assert.Equal(t, "true", button.Attrs["disabled"])
}

func TestOnSubmitNilResult(t *testing.T) {
	c := NewController(DefaultRules(), &fakeCreator{})
	fillValid(t, c)

	outcome, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, outcome)
	require.NotNil(t, c.State().SuccessData)
	assert.Equal(t, "", c.State().SuccessData.CaseNumber)
}

func TestOnSubmitFailureKeepsForm(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantMessage     string
		wantCorrelation string
	}{
		{
			name:            "Request error",
			err:             &flow.RequestError{Message: "bad request", StatusCode: 400, CorrelationID: "abc-123"},
			wantMessage:     "bad request",
			wantCorrelation: "abc-123",
		},
		{
			name:            "Request id from response body",
			err:             &flow.RequestError{Message: "failed", ResponseBody: []byte(`{"requestId":"req-7"}`)},
			wantMessage:     "failed",
			wantCorrelation: "req-7",
		},
		{
			name:        "Timeout",
			err:         &flow.TimeoutError{Timeout: 20 * time.Second},
			wantMessage: "Request timed out after 20 seconds. Please try again.",
		},
		{
			name:        "Configuration",
			err:         &flow.ConfigurationError{Setting: "VITE_FLOW_URL"},
			wantMessage: "VITE_FLOW_URL is not configured. Add it to your .env file.",
		},
		{
			name:        "Empty message falls back",
			err:         &flow.RequestError{},
			wantMessage: "Unable to create case. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(DefaultRules(), &fakeCreator{err: tt.err})
			fillValid(t, c)
			filled := c.State().Form

			outcome, err := c.OnSubmit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, OutcomeFailed, outcome)

			state := c.State()
			assert.Equal(t, filled, state.Form)
			assert.Nil(t, state.SuccessData)
			require.NotNil(t, state.ErrorData)
			assert.Equal(t, tt.wantMessage, state.ErrorData.Message)
			assert.Equal(t, tt.wantCorrelation, state.ErrorData.CorrelationID)
			assert.False(t, state.IsSubmitting)
		})
	}
}

func TestOnSubmitClearsPreviousResult(t *testing.T) {
	client := &fakeCreator{err: errors.New("connection refused")}
	c := NewController(DefaultRules(), client)
	fillValid(t, c)

	_, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c.State().ErrorData)

	client.err = nil
	client.result = &models.SubmissionResult{CaseNumber: "CAS-2"}
	_, err = c.OnSubmit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c.State().ErrorData)
	assert.Equal(t, "CAS-2", c.State().SuccessData.CaseNumber)
}

func TestOnSubmitRejectsReentry(t *testing.T) {
	client := &fakeCreator{
		result:  &models.SubmissionResult{CaseNumber: "CAS-1"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := NewController(DefaultRules(), client)
	fillValid(t, c)

	done := make(chan Outcome)
	go func() {
		outcome, _ := c.OnSubmit(context.Background())
		done <- outcome
	}()
	<-client.started

	assert.True(t, c.State().IsSubmitting)
	_, err := c.OnSubmit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	c.OnReset()
	assert.Equal(t, "Billing", c.State().Form.IssueType, "reset is ignored while submitting")

	close(client.block)
	assert.Equal(t, OutcomeSucceeded, <-done)
	assert.Equal(t, 1, client.calls())
}

func TestOnReset(t *testing.T) {
	c := NewController(DefaultRules(), &fakeCreator{result: &models.SubmissionResult{CaseNumber: "CAS-1"}},
		WithClipboard(&fakeClipboard{}))
	fillValid(t, c)
	_, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	c.OnCopy()
	require.NoError(t, c.OnFieldChange(models.FieldIssueType, "Account"))

	c.OnReset()
	state := c.State()
	assert.Equal(t, models.FormValues{}, state.Form)
	assert.Empty(t, state.Errors)
	assert.Nil(t, state.SuccessData)
	assert.Nil(t, state.ErrorData)
	assert.Equal(t, models.CopyIdle, state.CopyState)
}

func submitted(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c := NewController(DefaultRules(), &fakeCreator{result: &models.SubmissionResult{CaseNumber: "CAS-01001"}}, opts...)
	t.Cleanup(c.Close)
	fillValid(t, c)
	_, err := c.OnSubmit(context.Background())
	require.NoError(t, err)
	return c
}

func TestOnCopy(t *testing.T) {
	clip := &fakeClipboard{}
	c := submitted(t, WithClipboard(clip), WithCopyRevertDelay(20*time.Millisecond))

	c.OnCopy()
	assert.Equal(t, []string{"CAS-01001"}, clip.copied)
	assert.Equal(t, models.CopyCopied, c.State().CopyState)

	assert.Eventually(t, func() bool {
		return c.State().CopyState == models.CopyIdle
	}, time.Second, 5*time.Millisecond)
}

func TestOnCopyFailure(t *testing.T) {
	c := submitted(t, WithClipboard(&fakeClipboard{err: errors.New("no tty")}), WithCopyRevertDelay(time.Hour))

	c.OnCopy()
	assert.Equal(t, models.CopyError, c.State().CopyState)

	errNode, ok := findText(c.View(), "Unable to copy. Please copy manually.")
	require.True(t, ok)
	assert.Equal(t, KindError, errNode.Kind)
}

func TestOnCopyWithoutClipboard(t *testing.T) {
	c := submitted(t, WithCopyRevertDelay(time.Hour))
	c.OnCopy()
	assert.Equal(t, models.CopyError, c.State().CopyState)
}

func TestOnCopyWithoutCaseNumber(t *testing.T) {
	clip := &fakeClipboard{}
	c := NewController(DefaultRules(), &fakeCreator{}, WithClipboard(clip))
	c.OnCopy()
	assert.Empty(t, clip.copied)
	assert.Equal(t, models.CopyIdle, c.State().CopyState)
}

func TestRepeatedCopyRestartsRevert(t *testing.T) {
	rec := &viewRecorder{}
	clip := &fakeClipboard{}
	c := submitted(t, WithClipboard(clip), WithRenderer(rec.render), WithCopyRevertDelay(200*time.Millisecond))

	c.OnCopy()
	time.Sleep(120 * time.Millisecond)
	c.OnCopy()

	// the first revert would have fired by now
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, models.CopyCopied, c.State().CopyState)

	assert.Eventually(t, func() bool {
		return c.State().CopyState == models.CopyIdle
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsPendingRevert(t *testing.T) {
	c := submitted(t, WithClipboard(&fakeClipboard{}), WithCopyRevertDelay(20*time.Millisecond))
	c.OnCopy()
	c.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, models.CopyCopied, c.State().CopyState)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "invalid", OutcomeInvalid.String())
	assert.Equal(t, "succeeded", OutcomeSucceeded.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.True(t, strings.HasPrefix(Outcome(9).String(), "Outcome("))
}
