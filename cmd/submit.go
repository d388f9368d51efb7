package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/caseform/internal/form"
	"github.com/danielolaszy/caseform/internal/tui"
	"github.com/danielolaszy/caseform/pkg/models"
)

// submitOutput is printed with --json.
type submitOutput struct {
	Outcome       string                   `json:"outcome"`
	Errors        models.ValidationErrors  `json:"errors,omitempty"`
	Result        *models.SubmissionResult `json:"result,omitempty"`
	Message       string                   `json:"message,omitempty"`
	CorrelationID string                   `json:"correlationId,omitempty"`
}

func newSubmitCmd() *cobra.Command {
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a case without prompts",
		Long: `Submit a case from flags. The form is validated exactly as in the interactive
report; validation errors and webhook failures exit with a non-zero status.

Example:
  caseform submit --issue-type Billing --sub-issue-type Refund \
    --description "I was charged twice for order 1042."

  echo "Login page spins forever after entering my password." | \
    caseform submit -t Technical -s Login --description-file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issueType, err := cmd.Flags().GetString("issue-type")
			if err != nil {
				return err
			}
			subIssueType, err := cmd.Flags().GetString("sub-issue-type")
			if err != nil {
				return err
			}
			description, err := readDescription(cmd)
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			// progress goes to stderr so --json output stays parseable
			status := tui.NewStatusWriter(cmd.ErrOrStderr())
			ctrl, err := newController(cfg, form.WithRenderer(status.Render))
			if err != nil {
				return err
			}
			defer ctrl.Close()

			// issue type first: changing it clears the sub-issue type
			fields := [][2]string{
				{models.FieldIssueType, issueType},
				{models.FieldSubIssueType, subIssueType},
				{models.FieldDescription, description},
			}
			for _, f := range fields {
				if err := ctrl.OnFieldChange(f[0], f[1]); err != nil {
					return err
				}
			}

			outcome, err := ctrl.OnSubmit(cmd.Context())
			if err != nil {
				return err
			}

			state := ctrl.State()
			if asJSON {
				if err := writeSubmitJSON(cmd.OutOrStdout(), outcome, state); err != nil {
					return err
				}
			} else if err := tui.WriteView(cmd.OutOrStdout(), ctrl.View()); err != nil {
				return err
			}

			switch outcome {
			case form.OutcomeInvalid:
				return errors.New("case form is invalid")
			case form.OutcomeFailed:
				return fmt.Errorf("case was not created: %s", state.ErrorData.Message)
			}
			return nil
		},
	}

	submitCmd.Flags().StringP("issue-type", "t", "", "issue type (see `caseform categories`)")
	submitCmd.Flags().StringP("sub-issue-type", "s", "", "sub-issue type allowed for the issue type")
	submitCmd.Flags().StringP("description", "d", "", "description of the issue")
	submitCmd.Flags().String("description-file", "", "read the description from a file, or - for stdin")
	submitCmd.Flags().Bool("json", false, "print the outcome as JSON")
	submitCmd.MarkFlagsMutuallyExclusive("description", "description-file")

	return submitCmd
}

func readDescription(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("description-file")
	if err != nil {
		return "", err
	}
	if path == "" {
		return cmd.Flags().GetString("description")
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read description: %w", err)
	}
	return string(data), nil
}

func writeSubmitJSON(w io.Writer, outcome form.Outcome, state models.UIState) error {
	out := submitOutput{Outcome: outcome.String()}
	switch outcome {
	case form.OutcomeInvalid:
		out.Errors = state.Errors
	case form.OutcomeSucceeded:
		out.Result = state.SuccessData
	case form.OutcomeFailed:
		out.Message = state.ErrorData.Message
		out.CorrelationID = state.ErrorData.CorrelationID
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
