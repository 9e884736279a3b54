package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMergeCmd() *cobra.Command {
	var cfgFlags configFlags

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Print the merged, resolved configuration",
		Long:  "Merges the configuration layers left to right and prints the resolved result.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfgFlags.load()
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close() //nolint:errcheck
			return enc.Encode(cfg)
		},
	}

	addConfigFlags(cmd, &cfgFlags)
	return cmd
}
