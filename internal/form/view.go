package form

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/danielolaszy/caseform/pkg/models"
)

// Node kinds produced by Render.
const (
	KindContainer = "container"
	KindHeading   = "heading"
	KindText      = "text"
	KindForm      = "form"
	KindField     = "field"
	KindSelect    = "select"
	KindOption    = "option"
	KindTextArea  = "textarea"
	KindButton    = "button"
	KindPanel     = "panel"
	KindHint      = "hint"
	KindError     = "error"
)

// Element ids that input handlers are bound to.
const (
	IDForm     = "case-form"
	IDReset    = "reset-btn"
	IDCopy     = "copy-btn"
	IDSubmit   = "submit-btn"
	IDStatus   = "status"
	IDSuccess  = "success-panel"
	IDFailure  = "error-panel"
	selectHint = "Select…"
)

// Node is one element of the rendered view tree.
type Node struct {
	Kind     string
	ID       string
	Class    string
	Text     string
	Attrs    map[string]string
	Children []Node
}

// Find returns the first node in the tree with the given id.
func (n Node) Find(id string) (Node, bool) {
	if n.ID == id {
		return n, true
	}
	for _, child := range n.Children {
		if found, ok := child.Find(id); ok {
			return found, true
		}
	}
	return Node{}, false
}

var (
	remotePolicyOnce sync.Once
	remotePolicy     *bluemonday.Policy
)

// remoteText strips markup from text returned by the webhook.
func remoteText(s string) string {
	remotePolicyOnce.Do(func() {
		remotePolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(remotePolicy.Sanitize(s)))
}

// Render maps state to a view tree. It is a pure function of its inputs.
func Render(state models.UIState, rules Rules) Node {
	return Node{
		Kind:  KindContainer,
		Class: "app-shell",
		Children: []Node{{
			Kind:  KindContainer,
			Class: "card",
			Children: []Node{
				{Kind: KindHeading, Text: "Case Reporting"},
				{Kind: KindText, Class: "subtitle", Text: "Create a case through the case workflow."},
				renderForm(state, rules),
				renderStatus(state),
			},
		}},
	}
}

func renderForm(state models.UIState, rules Rules) Node {
	issueOptions := rules.Catalog.IssueTypes()
	var subOptions []string
	if state.Form.IssueType != "" {
		subOptions = rules.Catalog.SubIssueTypes(state.Form.IssueType)
	}

	submitLabel := "Create Case"
	if state.IsSubmitting {
		submitLabel = "Creating case…"
	}

	description := renderField(state, models.FieldDescription, "Description", Node{
		Kind: KindTextArea,
		ID:   models.FieldDescription,
		Text: state.Form.Description,
		Attrs: withInvalid(state, models.FieldDescription, map[string]string{
			"value":       state.Form.Description,
			"minlength":   fmt.Sprint(rules.DescriptionMin),
			"maxlength":   fmt.Sprint(rules.DescriptionMax),
			"placeholder": fmt.Sprintf("Describe the issue in detail (%d+ characters).", rules.DescriptionMin),
		}),
	}, Node{
		Kind: KindHint,
		Text: fmt.Sprintf("%d/%d", utf8.RuneCountInString(state.Form.Description), rules.DescriptionMax),
	})

	subAttrs := map[string]string{"value": state.Form.SubIssueType}
	if state.Form.IssueType == "" {
		subAttrs["disabled"] = "true"
	}

	return Node{
		Kind: KindForm,
		ID:   IDForm,
		Children: []Node{
			renderField(state, models.FieldIssueType, "Issue Type", Node{
				Kind:     KindSelect,
				ID:       models.FieldIssueType,
				Attrs:    withInvalid(state, models.FieldIssueType, map[string]string{"value": state.Form.IssueType}),
				Children: renderOptions(issueOptions, state.Form.IssueType),
			}),
			renderField(state, models.FieldSubIssueType, "Sub-Issue Type", Node{
				Kind:     KindSelect,
				ID:       models.FieldSubIssueType,
				Attrs:    withInvalid(state, models.FieldSubIssueType, subAttrs),
				Children: renderOptions(subOptions, state.Form.SubIssueType),
			}),
			description,
			{
				Kind:  KindContainer,
				Class: "actions",
				Children: []Node{
					{Kind: KindButton, ID: IDSubmit, Text: submitLabel, Attrs: disabledIf(state.IsSubmitting)},
					{Kind: KindButton, ID: IDReset, Class: "secondary", Text: "Reset", Attrs: disabledIf(state.IsSubmitting)},
				},
			},
		},
	}
}

func renderField(state models.UIState, name, label string, control Node, hints ...Node) Node {
	field := Node{
		Kind:     KindField,
		ID:       "field-" + name,
		Text:     label,
		Children: append([]Node{control}, hints...),
	}
	if msg := state.Errors[name]; msg != "" {
		field.Children = append(field.Children, Node{Kind: KindError, Class: "error-text", Text: msg})
	}
	return field
}

func renderOptions(options []string, selected string) []Node {
	nodes := []Node{{Kind: KindOption, Text: selectHint, Attrs: map[string]string{"value": ""}}}
	for _, option := range options {
		attrs := map[string]string{"value": option}
		if option == selected {
			attrs["selected"] = "true"
		}
		nodes = append(nodes, Node{Kind: KindOption, Text: option, Attrs: attrs})
	}
	return nodes
}

func withInvalid(state models.UIState, name string, attrs map[string]string) map[string]string {
	if state.Errors[name] != "" {
		attrs["aria-invalid"] = "true"
	}
	return attrs
}

func disabledIf(disabled bool) map[string]string {
	if !disabled {
		return nil
	}
	return map[string]string{"disabled": "true"}
}

func renderStatus(state models.UIState) Node {
	status := Node{
		Kind:  KindContainer,
		ID:    IDStatus,
		Class: "status",
		Attrs: map[string]string{"aria-live": "polite"},
	}

	if state.IsSubmitting {
		status.Children = append(status.Children, Node{Kind: KindText, Class: "loading", Text: "Submitting case…"})
	}

	if s := state.SuccessData; s != nil {
		caseNumber := remoteText(s.CaseNumber)
		if caseNumber == "" {
			caseNumber = "Not returned"
		}
		panel := Node{
			Kind:  KindPanel,
			ID:    IDSuccess,
			Class: "panel success",
			Children: []Node{
				{Kind: KindHeading, Text: "Case created"},
				{Kind: KindText, Text: "Case Number: " + caseNumber},
			},
		}
		if id := remoteText(s.CaseID); id != "" {
			panel.Children = append(panel.Children, Node{Kind: KindText, Text: "Case ID: " + id})
		}
		if msg := remoteText(s.Message); msg != "" {
			panel.Children = append(panel.Children, Node{Kind: KindText, Text: msg})
		}
		panel.Children = append(panel.Children, Node{Kind: KindButton, ID: IDCopy, Text: "Copy"})
		switch state.CopyState {
		case models.CopyCopied:
			panel.Children = append(panel.Children, Node{Kind: KindHint, Text: "Copied to clipboard."})
		case models.CopyError:
			panel.Children = append(panel.Children, Node{Kind: KindError, Class: "error-text", Text: "Unable to copy. Please copy manually."})
		}
		status.Children = append(status.Children, panel)
	}

	if e := state.ErrorData; e != nil {
		panel := Node{
			Kind:  KindPanel,
			ID:    IDFailure,
			Class: "panel error",
			Children: []Node{
				{Kind: KindHeading, Text: "Unable to create case"},
				{Kind: KindText, Text: remoteText(e.Message)},
			},
		}
		if id := remoteText(e.CorrelationID); id != "" {
			panel.Children = append(panel.Children, Node{Kind: KindText, Text: "Correlation / Request ID: " + id})
		}
		status.Children = append(status.Children, panel)
	}

	return status
}
