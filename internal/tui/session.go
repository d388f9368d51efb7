package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danielolaszy/caseform/internal/form"
	"github.com/danielolaszy/caseform/internal/logging"
	"github.com/danielolaszy/caseform/pkg/models"
)

// ErrNotSubmitted is returned when the user gives up after a failed submission.
var ErrNotSubmitted = errors.New("case was not submitted")

// Session walks the user through the case form one field at a time.
type Session struct {
	ctrl   *form.Controller
	driver PromptDriver
	out    io.Writer
}

// NewSession creates a session over ctrl.
func NewSession(ctrl *form.Controller, driver PromptDriver, out io.Writer) *Session {
	return &Session{ctrl: ctrl, driver: driver, out: out}
}

// Run prompts for the form, submits it and offers follow-up actions. It
// returns nil once at least the last report was created and the user is done.
func (s *Session) Run(ctx context.Context) error {
	ask := []string{models.FieldIssueType, models.FieldSubIssueType, models.FieldDescription}

	for {
		if err := s.promptFields(ctx, ask); err != nil {
			return err
		}

		outcome, err := s.ctrl.OnSubmit(ctx)
		if err != nil {
			return err
		}
		if err := WriteView(s.out, s.ctrl.View()); err != nil {
			return err
		}

		switch outcome {
		case form.OutcomeInvalid:
			ask = invalidFields(s.ctrl.State().Errors)
			continue

		case form.OutcomeFailed:
			retry, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Submit again?", Default: true})
			if err != nil {
				return err
			}
			if !retry {
				return ErrNotSubmitted
			}
			ask = nil
			continue
		}

		if err := s.offerCopy(ctx); err != nil {
			return err
		}

		another, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Report another issue?"})
		if err != nil {
			return err
		}
		if !another {
			return nil
		}
		s.ctrl.OnReset()
		ask = []string{models.FieldIssueType, models.FieldSubIssueType, models.FieldDescription}
	}
}

func (s *Session) promptFields(ctx context.Context, fields []string) error {
	rules := s.ctrl.Rules()
	for _, field := range fields {
		current := s.ctrl.State().Form
		var (
			value string
			err   error
		)

		switch field {
		case models.FieldIssueType:
			value, err = s.driver.Select(ctx, SelectConfig{
				Message: "Issue Type",
				Options: rules.Catalog.IssueTypes(),
				Default: current.IssueType,
			})
		case models.FieldSubIssueType:
			value, err = s.driver.Select(ctx, SelectConfig{
				Message: "Sub-Issue Type",
				Options: rules.Catalog.SubIssueTypes(current.IssueType),
				Default: current.SubIssueType,
			})
		case models.FieldDescription:
			value, err = s.driver.TextArea(ctx, TextAreaConfig{
				Message: "Description",
				Default: current.Description,
				Help:    fmt.Sprintf("Describe the issue in detail (%d-%d characters).", rules.DescriptionMin, rules.DescriptionMax),
			})
		}
		if err != nil {
			return err
		}
		if err := s.ctrl.OnFieldChange(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) offerCopy(ctx context.Context) error {
	state := s.ctrl.State()
	if state.SuccessData == nil || state.SuccessData.CaseNumber == "" {
		return nil
	}

	copyIt, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Copy case number to clipboard?", Default: true})
	if err != nil || !copyIt {
		return err
	}

	s.ctrl.OnCopy()
	switch s.ctrl.State().CopyState {
	case models.CopyCopied:
		_, err = fmt.Fprintln(s.out, "Copied to clipboard.")
	case models.CopyError:
		logging.Debug("clipboard unavailable", "case_number", state.SuccessData.CaseNumber)
		_, err = fmt.Fprintln(s.out, "Unable to copy. Please copy manually.")
	}
	return err
}

// invalidFields lists fields to ask again in form order. Re-asking the issue
// type clears the sub-issue type, so it is asked again too.
func invalidFields(errs models.ValidationErrors) []string {
	var out []string
	_, issueInvalid := errs[models.FieldIssueType]
	for _, field := range []string{models.FieldIssueType, models.FieldSubIssueType, models.FieldDescription} {
		_, invalid := errs[field]
		if invalid || (field == models.FieldSubIssueType && issueInvalid) {
			out = append(out, field)
		}
	}
	return out
}
