package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/caseform/internal/clipboard"
	"github.com/danielolaszy/caseform/internal/form"
	"github.com/danielolaszy/caseform/internal/logging"
	"github.com/danielolaszy/caseform/internal/tui"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Report an issue interactively",
		Long: `Walk through the case form in the terminal.

1. Choose an issue type and a sub-issue type for it
2. Describe the issue
3. The case is submitted to the configured webhook

Invalid fields are asked again. A failed submission can be retried without
retyping the form. Once a case is created its number can be copied to the
clipboard of the local terminal.

Example:
  caseform report --env-file .env.local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			status := tui.NewStatusWriter(cmd.OutOrStdout())
			ctrl, err := newController(cfg,
				form.WithClipboard(clipboard.New()),
				form.WithRenderer(status.Render))
			if err != nil {
				return err
			}
			defer ctrl.Close()

			session := tui.NewSession(ctrl, tui.NewSurveyDriver(), cmd.OutOrStdout())
			err = session.Run(cmd.Context())
			if errors.Is(err, tui.ErrAborted) {
				logging.Info("report aborted")
				return nil
			}
			return err
		},
	}
}
