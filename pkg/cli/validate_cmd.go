package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"millreport/internal/domain"
	"millreport/internal/report"
)

func newValidateCmd() *cobra.Command {
	var (
		cfgFlags   configFlags
		department string
		input      string
		query      string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate report configuration (and optionally a dataset) offline",
		Long: "Resolves the configuration layers and reports any errors. With --input, " +
			"also runs the pre-flight dataset checks a report generation would run.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfgFlags.load()
			if err != nil {
				return reportInvalid(cmd, err)
			}

			if input != "" {
				if department == "" {
					return fmt.Errorf("--department is required with --input")
				}
				ds, err := readDataset(cmd.Context(), input, query)
				if err != nil {
					return err
				}
				if err := report.Validate(ds, cfg, domain.Filter{DepartmentID: department}); err != nil {
					return reportInvalid(cmd, err)
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"valid":     true,
					"config_id": cfg.ID(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
			return nil
		},
	}

	addConfigFlags(cmd, &cfgFlags)
	cmd.Flags().StringVarP(&department, "department", "d", "", "Department to validate the dataset against")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Optional dataset to validate: .csv or .sqlite/.db")
	cmd.Flags().StringVar(&query, "query", "", "SQL query selecting the dataset rows (SQLite input only)")

	return cmd
}

func reportInvalid(cmd *cobra.Command, err error) error {
	if getOutputFormat(cmd) == "json" {
		_ = printJSON(os.Stdout, map[string]any{
			"valid":  false,
			"errors": []string{err.Error()},
		})
		os.Exit(1)
	}
	return err
}
