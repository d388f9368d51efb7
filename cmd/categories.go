package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/caseform/internal/form"
)

func newCategoriesCmd() *cobra.Command {
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List issue types and their sub-issue types",
		Long: `List the issue types the form accepts and the sub-issue types allowed for each.

The catalog is built in unless CATEGORIES_FILE points at a YAML file. Use
--yaml to print a file in the format CATEGORIES_FILE expects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asYAML, err := cmd.Flags().GetBool("yaml")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			rules, err := form.RulesFromConfig(cfg.Form)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any{"categories": rules.Catalog.Categories()}); err != nil {
					return fmt.Errorf("failed to encode categories: %w", err)
				}
				return enc.Close()
			}

			for _, category := range rules.Catalog.Categories() {
				fmt.Fprintf(out, "%s\n", category.Name)
				fmt.Fprintf(out, "  %s\n", strings.Join(category.SubIssueTypes, ", "))
			}
			return nil
		},
	}

	categoriesCmd.Flags().Bool("yaml", false, "print the catalog as YAML")

	return categoriesCmd
}
