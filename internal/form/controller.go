package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielolaszy/caseform/internal/flow"
	"github.com/danielolaszy/caseform/internal/logging"
	"github.com/danielolaszy/caseform/pkg/models"
)

// DefaultCopyRevertDelay is how long the copy notice stays visible.
const DefaultCopyRevertDelay = 2 * time.Second

const fallbackErrorMessage = "Unable to create case. Please try again."

// ErrSubmitInProgress is returned by OnSubmit while a submission is in flight.
var ErrSubmitInProgress = errors.New("a submission is already in progress")

// CaseCreator submits a validated case payload.
type CaseCreator interface {
	CreateCase(ctx context.Context, payload models.CasePayload) (*models.SubmissionResult, error)
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// Outcome is the result of a submit attempt.
type Outcome int

const (
	// OutcomeInvalid means validation failed and nothing was sent.
	OutcomeInvalid Outcome = iota
	// OutcomeSucceeded means the case was created and the form cleared.
	OutcomeSucceeded
	// OutcomeFailed means the webhook call failed; ErrorData is set.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Controller owns the form state and mutates it in response to user events.
// Every mutation is followed by a render with a snapshot of the new state.
type Controller struct {
	mu    sync.Mutex
	state models.UIState

	rules      Rules
	client     CaseCreator
	clipboard  Clipboard
	render     func(Node)
	revertWait time.Duration

	// copyGen invalidates revert callbacks that lost the race with Stop
	copyGen     uint64
	revertTimer *time.Timer
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClipboard sets the clipboard used by OnCopy.
func WithClipboard(c Clipboard) Option {
	return func(ctrl *Controller) {
		ctrl.clipboard = c
	}
}

// WithRenderer sets the callback receiving each rendered view.
func WithRenderer(render func(Node)) Option {
	return func(ctrl *Controller) {
		ctrl.render = render
	}
}

// WithCopyRevertDelay overrides how long the copy notice stays visible.
func WithCopyRevertDelay(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.revertWait = d
		}
	}
}

// NewController creates a controller with an empty form and renders it once.
func NewController(rules Rules, client CaseCreator, opts ...Option) *Controller {
	c := &Controller{
		state:      initialState(),
		rules:      rules,
		client:     client,
		revertWait: DefaultCopyRevertDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	snapshot := c.state.Clone()
	c.mu.Unlock()
	c.emit(snapshot)
	return c
}

func initialState() models.UIState {
	return models.UIState{
		Errors:    models.ValidationErrors{},
		CopyState: models.CopyIdle,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() models.UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// View renders the current state.
func (c *Controller) View() Node {
	return Render(c.State(), c.rules)
}

// Rules returns the validation rules the controller was built with.
func (c *Controller) Rules() Rules {
	return c.rules
}

func (c *Controller) emit(snapshot models.UIState) {
	if c.render != nil {
		c.render(Render(snapshot, c.rules))
	}
}

// OnFieldChange stores value, clears the field's error and re-renders.
// Changing the issue type also clears the sub-issue type and its error.
func (c *Controller) OnFieldChange(field, value string) error {
	c.mu.Lock()
	switch field {
	case models.FieldIssueType:
		c.state.Form.IssueType = value
		c.state.Form.SubIssueType = ""
		delete(c.state.Errors, models.FieldIssueType)
		delete(c.state.Errors, models.FieldSubIssueType)
	case models.FieldSubIssueType:
		c.state.Form.SubIssueType = value
		delete(c.state.Errors, models.FieldSubIssueType)
	case models.FieldDescription:
		c.state.Form.Description = value
		delete(c.state.Errors, models.FieldDescription)
	default:
		c.mu.Unlock()
		return fmt.Errorf("unknown form field %q", field)
	}
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.emit(snapshot)
	return nil
}

// OnReset restores the empty form and clears errors, results and copy state.
// It is ignored while a submission is in flight.
func (c *Controller) OnReset() {
	c.mu.Lock()
	if c.state.IsSubmitting {
		c.mu.Unlock()
		return
	}
	c.stopRevertLocked()
	c.state = initialState()
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.emit(snapshot)
}

// OnCopy copies the case number of the last success to the clipboard and
// reverts the copy notice after the revert delay. A new copy cancels the
// pending revert of the previous one.
func (c *Controller) OnCopy() {
	c.mu.Lock()
	if c.state.SuccessData == nil || c.state.SuccessData.CaseNumber == "" {
		c.mu.Unlock()
		return
	}
	caseNumber := c.state.SuccessData.CaseNumber
	c.mu.Unlock()

	copyState := models.CopyCopied
	if c.clipboard == nil {
		copyState = models.CopyError
	} else if err := c.clipboard.WriteText(caseNumber); err != nil {
		logging.Warn("failed to copy case number", "error", err)
		copyState = models.CopyError
	}

	c.mu.Lock()
	if c.state.SuccessData == nil {
		// reset or resubmitted while the clipboard was busy
		c.mu.Unlock()
		return
	}
	c.stopRevertLocked()
	c.state.CopyState = copyState
	gen := c.copyGen
	c.revertTimer = time.AfterFunc(c.revertWait, func() { c.revertCopy(gen) })
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.emit(snapshot)
}

func (c *Controller) revertCopy(gen uint64) {
	c.mu.Lock()
	if gen != c.copyGen {
		c.mu.Unlock()
		return
	}
	c.revertTimer = nil
	c.state.CopyState = models.CopyIdle
	snapshot := c.state.Clone()
	c.mu.Unlock()

	c.emit(snapshot)
}

// stopRevertLocked cancels a pending copy revert. c.mu must be held.
func (c *Controller) stopRevertLocked() {
	c.copyGen++
	if c.revertTimer != nil {
		c.revertTimer.Stop()
		c.revertTimer = nil
	}
}

// Close releases the pending copy revert timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopRevertLocked()
}

// OnSubmit validates the form and, when valid, submits it. Submission
// failures are recorded in ErrorData and reported as OutcomeFailed; the only
// error returned is ErrSubmitInProgress.
func (c *Controller) OnSubmit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.state.IsSubmitting {
		c.mu.Unlock()
		return OutcomeInvalid, ErrSubmitInProgress
	}

	c.state.Errors = c.rules.Validate(c.state.Form)
	if len(c.state.Errors) > 0 {
		snapshot := c.state.Clone()
		c.mu.Unlock()
		c.emit(snapshot)
		return OutcomeInvalid, nil
	}

	c.stopRevertLocked()
	c.state.IsSubmitting = true
	c.state.SuccessData = nil
	c.state.ErrorData = nil
	c.state.CopyState = models.CopyIdle
	payload := models.CasePayload{
		IssueType:    c.state.Form.IssueType,
		SubIssueType: c.state.Form.SubIssueType,
		Description:  strings.TrimSpace(c.state.Form.Description),
		Source:       models.SourceWeb,
	}
	snapshot := c.state.Clone()
	c.mu.Unlock()
	c.emit(snapshot)

	attemptID := uuid.NewString()
	logging.Info("submitting case",
		"attempt_id", attemptID,
		"issue_type", payload.IssueType,
		"sub_issue_type", payload.SubIssueType)

	result, err := c.client.CreateCase(ctx, payload)

	c.mu.Lock()
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
		c.state.ErrorData = toSubmissionError(err)
		logging.Error("case submission failed",
			"attempt_id", attemptID,
			"error", err,
			"correlation_id", c.state.ErrorData.CorrelationID)
	} else {
		if result == nil {
			result = &models.SubmissionResult{}
		}
		success := *result
		c.state.Form = models.FormValues{}
		c.state.Errors = models.ValidationErrors{}
		c.state.SuccessData = &success
		logging.Info("case created",
			"attempt_id", attemptID,
			"case_number", success.CaseNumber,
			"case_id", success.CaseID)
	}
	c.state.IsSubmitting = false
	snapshot = c.state.Clone()
	c.mu.Unlock()

	c.emit(snapshot)
	return outcome, nil
}

func toSubmissionError(err error) *models.SubmissionError {
	out := &models.SubmissionError{Message: err.Error()}

	var reqErr *flow.RequestError
	if errors.As(err, &reqErr) {
		out.Message = reqErr.Message
		out.CorrelationID = reqErr.CorrelationID
		out.ResponseBody = reqErr.ResponseBody
		if out.CorrelationID == "" && len(reqErr.ResponseBody) > 0 {
			var body struct {
				RequestID string `json:"requestId"`
			}
			if json.Unmarshal(reqErr.ResponseBody, &body) == nil {
				out.CorrelationID = body.RequestID
			}
		}
	}

	if strings.TrimSpace(out.Message) == "" {
		out.Message = fallbackErrorMessage
	}
	return out
}
