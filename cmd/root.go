// Package cmd provides the command-line interface for the caseform tool.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/danielolaszy/caseform/internal/config"
	"github.com/danielolaszy/caseform/internal/flow"
	"github.com/danielolaszy/caseform/internal/form"
	"github.com/danielolaszy/caseform/internal/logging"
)

// NewRootCmd builds the command tree. A fresh tree per call keeps flag state
// from leaking between invocations.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "caseform",
		Short: "Caseform reports categorized issues to a case workflow",
		Long: `Caseform collects a categorized issue report and submits it to a case-creation
webhook such as a workflow automation flow. It also ships a small dev server
that serves the browser client and injects runtime configuration.`,
		SilenceUsage: true,
	}

	// Add persistent flags that will be available to all commands
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "dotenv file with VITE_FLOW_URL / VITE_FLOW_KEY and other settings")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCategoriesCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(envFile)
}

// newController wires rules and the webhook client from configuration.
func newController(cfg *config.Config, opts ...form.Option) (*form.Controller, error) {
	rules, err := form.RulesFromConfig(cfg.Form)
	if err != nil {
		return nil, err
	}

	if err := config.ValidateFlowConfig(cfg); err != nil {
		// submission will surface the configuration error to the user
		logging.Warn("case webhook is not configured", "error", err)
	}
	logging.Debug("flow configuration",
		"url", cfg.Flow.URL,
		"key", logging.MaskSensitive(cfg.Flow.Key),
		"timeout", cfg.Flow.Timeout)

	client := flow.NewClient(cfg.Flow)
	return form.NewController(rules, client, opts...), nil
}
